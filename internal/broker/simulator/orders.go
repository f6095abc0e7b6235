package simulator

import (
	"sync"

	"jotacomputing/counterbridge/internal/broker"
)

// simOrder is the simulator's internal order record, extending
// broker.Order with the cancellation flag the async lifecycle polls.
type simOrder struct {
	broker.Order
	cancelRequested bool
}

// orderStore holds every order the simulator has accepted, keyed by its
// generated id. One mutex; acquired before positions/account per the
// orders → positions → account lock order.
type orderStore struct {
	mu     sync.Mutex
	orders map[string]*simOrder
}

func newOrderStore() *orderStore {
	return &orderStore{orders: make(map[string]*simOrder)}
}

func (s *orderStore) put(o *simOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.OrderID] = o
}

func (s *orderStore) get(id string) (simOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return simOrder{}, false
	}
	return *o, true
}

// requestCancel marks an order cancelled iff it's still in a cancellable
// state. Returns false if the order is unknown or
// already terminal.
func (s *orderStore) requestCancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false
	}
	switch o.Status {
	case broker.Submitting, broker.Accepted, broker.PartialFilled:
		o.cancelRequested = true
		return true
	default:
		return false
	}
}

func (s *orderStore) isCancelRequested(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return ok && o.cancelRequested
}

func (s *orderStore) setStatus(id string, status broker.OrderStatus, tradedVolume int32, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		o.Status = status
		if tradedVolume > 0 {
			o.TradedVolume = tradedVolume
		}
		if reason != "" {
			o.Reason = reason
		}
	}
}

func (s *orderStore) all() []broker.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]broker.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o.Order)
	}
	return out
}
