// Package bridge is the Counter Bridge's order-routing core: it drains
// requests from the MWMR queue, resolves a broker, computes open/close
// offsets against the position ledger, dispatches through the broker
// plugin contract, and turns broker callbacks back into wire responses.
package bridge

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"jotacomputing/counterbridge/internal/broker"
	"jotacomputing/counterbridge/internal/ledger"
	"jotacomputing/counterbridge/internal/shm"
	"jotacomputing/counterbridge/internal/wire"

	logger "github.com/sirupsen/logrus"
)

// emptyPollInterval is the sleep between empty-queue polls of the
// request-drain loop.
const emptyPollInterval = 100 * time.Microsecond

// AuditSink receives every response the bridge emits, for durable
// logging off the hot path (internal/audit). Nil is a valid no-op sink.
type AuditSink interface {
	RecordResponse(resp wire.ResponseMsg)
}

// OpsSink receives lifecycle events worth alerting or heartbeating on
// (internal/ops). Nil is a valid no-op sink.
type OpsSink interface {
	OrderRejected(symbol string, reason string)
	BrokerDisconnected(name string)
}

// Bridge owns every piece of mutable state the C++ original kept as
// file-scope statics: the ledger, the cached-order map, broker registry,
// and the queue handles. Bundled into one value constructed at startup
// so callbacks capture an explicit reference instead of relying on
// global init order.
type Bridge struct {
	requests  *shm.Queue[wire.RequestMsg]
	responses *shm.Queue[wire.ResponseMsg]

	ledger *ledger.Ledger
	orders *cachedOrderStore

	brokersMu sync.RWMutex
	brokers   map[string]broker.Plugin
	disabled  map[string]bool

	symbolBroker map[string]string

	totalOrders atomic.Int64

	audit AuditSink
	ops   OpsSink

	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs a Bridge. symbolBroker is the static routing table
//; it is read-only after construction.
func New(requests *shm.Queue[wire.RequestMsg], responses *shm.Queue[wire.ResponseMsg], lg *ledger.Ledger, symbolBroker map[string]string) *Bridge {
	return &Bridge{
		requests:     requests,
		responses:    responses,
		ledger:       lg,
		orders:       newCachedOrderStore(),
		brokers:      make(map[string]broker.Plugin),
		disabled:     make(map[string]bool),
		symbolBroker: symbolBroker,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// SetAuditSink and SetOpsSink wire optional side-effect sinks. Both are
// called outside any lock the request loop or callback handler holds.
func (b *Bridge) SetAuditSink(a AuditSink) { b.audit = a }
func (b *Bridge) SetOpsSink(o OpsSink)     { b.ops = o }

// RegisterBroker attaches a logged-in (or about-to-log-in) plugin under
// name and wires its callbacks to this bridge's handler.
func (b *Bridge) RegisterBroker(name string, p broker.Plugin) {
	b.brokersMu.Lock()
	b.brokers[name] = p
	b.brokersMu.Unlock()

	p.RegisterOrderCallback(func(u broker.OrderUpdate) { b.handleOrderUpdate(name, u) })
	p.RegisterTradeCallback(func(t broker.Trade) { b.handleTrade(name, t) })
	p.RegisterErrorCallback(func(orderID string, err error) {
		logger.WithFields(logger.Fields{"broker": name, "orderId": orderID}).WithError(err).Warn("bridge: broker error callback")
	})
}

// selectBroker implements broker selection: a static symbol map first,
// then the first logged-in, non-disabled broker on miss. No further
// sharding.
func (b *Bridge) selectBroker(symbol string) (string, broker.Plugin, bool) {
	b.brokersMu.RLock()
	defer b.brokersMu.RUnlock()

	if name, ok := b.symbolBroker[symbol]; ok {
		if p, ok := b.brokers[name]; ok && !b.disabled[name] && p.IsLoggedIn() {
			return name, p, true
		}
	}
	for name, p := range b.brokers {
		if !b.disabled[name] && p.IsLoggedIn() {
			return name, p, true
		}
	}
	return "", nil, false
}

// Enable re-admits a broker to selection, logging it in if it isn't
// already connected. Satisfies httpapi.BrokerRegistry.
func (b *Bridge) Enable(name string) error {
	b.brokersMu.Lock()
	p, ok := b.brokers[name]
	if ok {
		delete(b.disabled, name)
	}
	b.brokersMu.Unlock()

	if !ok {
		return fmt.Errorf("bridge: no such broker %q", name)
	}
	if !p.IsLoggedIn() {
		return p.Login()
	}
	return nil
}

// Disable removes a broker from selection and logs it out. In-flight
// cached orders on it are left untouched; only new routing is affected.
func (b *Bridge) Disable(name string) error {
	b.brokersMu.Lock()
	p, ok := b.brokers[name]
	if ok {
		b.disabled[name] = true
	}
	b.brokersMu.Unlock()

	if !ok {
		return fmt.Errorf("bridge: no such broker %q", name)
	}
	return p.Logout()
}

// TotalOrders returns the running count of requests drained.
func (b *Bridge) TotalOrders() int64 { return b.totalOrders.Load() }

// Stop signals the request-drain loop to exit and waits for it.
func (b *Bridge) Stop() {
	close(b.stopCh)
	<-b.doneCh
}

func (b *Bridge) enqueueResponse(resp wire.ResponseMsg) {
	resp.Zero()
	b.responses.Enqueue(&resp)
	if b.audit != nil {
		b.audit.RecordResponse(resp)
	}
}
