package bridge

import (
	"sync"

	"jotacomputing/counterbridge/internal/ledger"
)

// cachedOrder is the bridge-internal record kept from a successful
// SendOrder until the broker reports a terminal state.
type cachedOrder struct {
	OrderID        uint32
	StrategyID     int32
	Symbol         string
	ExchangeCode   uint8
	Side           byte
	OffsetFlag     ledger.OffsetFlag
	BrokerName     string
	BrokerClientID string
}

// cachedOrderStore is keyed by the broker's opaque order id. One mutex,
// never held together with the ledger lock.
type cachedOrderStore struct {
	mu      sync.Mutex
	byID    map[string]cachedOrder
}

func newCachedOrderStore() *cachedOrderStore {
	return &cachedOrderStore{byID: make(map[string]cachedOrder)}
}

func (s *cachedOrderStore) put(brokerOrderID string, o cachedOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[brokerOrderID] = o
}

func (s *cachedOrderStore) get(brokerOrderID string) (cachedOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[brokerOrderID]
	return o, ok
}

// findByOrderID looks up a cached order by the strategy's own OrderID,
// the only handle a CancelOrder request carries. The cache is small and
// cancel requests are rare relative to new orders, so a linear scan under
// the same lock is simpler than maintaining a second index.
func (s *cachedOrderStore) findByOrderID(orderID uint32) (brokerOrderID string, o cachedOrder, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, co := range s.byID {
		if co.OrderID == orderID {
			return id, co, true
		}
	}
	return "", cachedOrder{}, false
}

func (s *cachedOrderStore) remove(brokerOrderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, brokerOrderID)
}
