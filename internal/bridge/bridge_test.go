package bridge

import (
	"path/filepath"
	"testing"
	"time"

	"jotacomputing/counterbridge/internal/broker"
	"jotacomputing/counterbridge/internal/ledger"
	"jotacomputing/counterbridge/internal/shm"
	"jotacomputing/counterbridge/internal/wire"
)

// fakePlugin is a minimal broker.Plugin double: SendOrder succeeds or fails
// per a configured behavior, and update/trade can be driven by the test
// after the fact.
type fakePlugin struct {
	loggedIn    bool
	failSend    bool
	nextID      int
	orderCb     broker.OrderCallback
	tradeCb     broker.TradeCallback
	errCb       broker.ErrorCallback
	lastReq     broker.OrderRequest
	canceledIDs []string
}

func (p *fakePlugin) Initialize(string) error { return nil }
func (p *fakePlugin) Login() error            { p.loggedIn = true; return nil }
func (p *fakePlugin) Logout() error           { p.loggedIn = false; return nil }
func (p *fakePlugin) IsConnected() bool       { return p.loggedIn }
func (p *fakePlugin) IsLoggedIn() bool        { return p.loggedIn }

func (p *fakePlugin) SendOrder(req broker.OrderRequest) (string, error) {
	p.lastReq = req
	if p.failSend {
		return "", errFakeSend
	}
	p.nextID++
	return "FAKE_1", nil
}

func (p *fakePlugin) CancelOrder(orderID string) error {
	p.canceledIDs = append(p.canceledIDs, orderID)
	return nil
}

func (p *fakePlugin) QueryAccount() (broker.Account, error)  { return broker.Account{}, nil }
func (p *fakePlugin) QueryPositions() ([]broker.Position, error) { return nil, nil }
func (p *fakePlugin) QueryOrders() ([]broker.Order, error)   { return nil, nil }
func (p *fakePlugin) QueryTrades() ([]broker.Trade, error)   { return nil, nil }
func (p *fakePlugin) GetOrder(string) (broker.Order, bool)   { return broker.Order{}, false }

func (p *fakePlugin) RegisterOrderCallback(fn broker.OrderCallback) { p.orderCb = fn }
func (p *fakePlugin) RegisterTradeCallback(fn broker.TradeCallback) { p.tradeCb = fn }
func (p *fakePlugin) RegisterErrorCallback(fn broker.ErrorCallback) { p.errCb = fn }
func (p *fakePlugin) Name() string                                 { return "fake" }

var errFakeSend = &sendErr{"fake send rejected"}

type sendErr struct{ msg string }

func (e *sendErr) Error() string { return e.msg }

func newTestQueues(t *testing.T) (*shm.Queue[wire.RequestMsg], *shm.Queue[wire.ResponseMsg]) {
	t.Helper()
	dir := t.TempDir()
	reqQ, err := shm.CreateQueue[wire.RequestMsg](shm.BackendMmap, shm.Key{Path: filepath.Join(dir, "req")}, 16)
	if err != nil {
		t.Fatalf("create request queue: %v", err)
	}
	respQ, err := shm.CreateQueue[wire.ResponseMsg](shm.BackendMmap, shm.Key{Path: filepath.Join(dir, "resp")}, 16)
	if err != nil {
		t.Fatalf("create response queue: %v", err)
	}
	return reqQ, respQ
}

func waitResponse(t *testing.T, respQ *shm.Queue[wire.ResponseMsg], timeout time.Duration) wire.ResponseMsg {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var resp wire.ResponseMsg
	for time.Now().Before(deadline) {
		if respQ.Dequeue(&resp) {
			return resp
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for a response")
	return resp
}

// orderCached reports whether the bridge has sent an order to its broker
// and cached it under brokerOrderID.
func orderCached(b *Bridge, brokerOrderID string) bool {
	_, ok := b.orders.get(brokerOrderID)
	return ok
}

func newTestRequest(symbol string, side byte, qty int32) wire.RequestMsg {
	var req wire.RequestMsg
	req.SetSymbol(symbol)
	req.TransactionType = side
	req.ExchangeType = uint8(wire.ExchSHFE)
	req.Quantity = qty
	req.Price = 7800
	req.OrderID = 42
	req.StrategyID = 7
	req.OrdType = wire.Limit
	req.Zero()
	return req
}

func TestRunRoutesOpenOrderAndConfirmsOnFill(t *testing.T) {
	reqQ, respQ := newTestQueues(t)
	lg := ledger.New()
	p := &fakePlugin{loggedIn: true}

	b := New(reqQ, respQ, lg, map[string]string{"ag2506": "fake"})
	b.RegisterBroker("fake", p)
	go b.Run()
	defer b.Stop()

	req := newTestRequest("ag2506", wire.SideBuy, 3)
	reqQ.Enqueue(&req)

	deadline := time.Now().Add(time.Second)
	for !orderCached(b, "FAKE_1") && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !orderCached(b, "FAKE_1") {
		t.Fatalf("broker never received the order")
	}
	if p.lastReq.Offset != broker.Open {
		t.Fatalf("expected an Open offset, got %v", p.lastReq.Offset)
	}

	p.orderCb(broker.OrderUpdate{OrderID: "FAKE_1", Status: broker.Accepted, OrderedVolume: 3})
	resp := waitResponse(t, respQ, time.Second)
	if resp.ResponseType != wire.NewOrderConfirm {
		t.Fatalf("expected NewOrderConfirm, got %v", resp.ResponseType)
	}

	p.tradeCb(broker.Trade{OrderID: "FAKE_1", Symbol: "ag2506", Price: 7805, Volume: 3})
	trade := waitResponse(t, respQ, time.Second)
	if trade.ResponseType != wire.TradeConfirm || trade.Quantity != 3 || trade.OpenClose != wire.OCOpen {
		t.Fatalf("unexpected trade confirm: %+v", trade)
	}

	p.orderCb(broker.OrderUpdate{OrderID: "FAKE_1", Status: broker.Filled, OrderedVolume: 3, TradedVolume: 3})

	snap := lg.Snapshot("ag2506")
	if snap.TodayLong != 3 {
		t.Fatalf("expected 3 today-long after open+fill, got %+v", snap)
	}
}

func TestRunRoutesCancelToOriginatingBroker(t *testing.T) {
	reqQ, respQ := newTestQueues(t)
	lg := ledger.New()
	p := &fakePlugin{loggedIn: true}

	b := New(reqQ, respQ, lg, map[string]string{"ag2506": "fake"})
	b.RegisterBroker("fake", p)
	go b.Run()
	defer b.Stop()

	req := newTestRequest("ag2506", wire.SideBuy, 3)
	reqQ.Enqueue(&req)

	deadline := time.Now().Add(time.Second)
	for !orderCached(b, "FAKE_1") && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !orderCached(b, "FAKE_1") {
		t.Fatalf("broker never received the order")
	}

	cancel := newTestRequest("ag2506", wire.SideBuy, 3)
	cancel.RequestType = wire.CancelOrder
	reqQ.Enqueue(&cancel)

	deadline = time.Now().Add(time.Second)
	for len(p.canceledIDs) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if len(p.canceledIDs) != 1 || p.canceledIDs[0] != "FAKE_1" {
		t.Fatalf("expected a cancel for FAKE_1, got %v", p.canceledIDs)
	}
}

func TestRunRejectsWithNoBroker(t *testing.T) {
	reqQ, respQ := newTestQueues(t)
	lg := ledger.New()
	b := New(reqQ, respQ, lg, nil)
	go b.Run()
	defer b.Stop()

	req := newTestRequest("rb2506", wire.SideBuy, 1)
	reqQ.Enqueue(&req)

	resp := waitResponse(t, respQ, time.Second)
	if resp.ResponseType != wire.OrsReject {
		t.Fatalf("expected OrsReject, got %v", resp.ResponseType)
	}
}

func TestRunEmitsOrderErrorOnSendFailure(t *testing.T) {
	reqQ, respQ := newTestQueues(t)
	lg := ledger.New()
	p := &fakePlugin{loggedIn: true, failSend: true}

	b := New(reqQ, respQ, lg, map[string]string{"ag2506": "fake"})
	b.RegisterBroker("fake", p)
	go b.Run()
	defer b.Stop()

	req := newTestRequest("ag2506", wire.SideBuy, 3)
	reqQ.Enqueue(&req)

	resp := waitResponse(t, respQ, time.Second)
	if resp.ResponseType != wire.OrderError {
		t.Fatalf("expected OrderError, got %v", resp.ResponseType)
	}

	snap := lg.Snapshot("ag2506")
	if snap != (ledger.Entry{}) {
		t.Fatalf("a failed open should not leave any bucket debited, got %+v", snap)
	}
}
