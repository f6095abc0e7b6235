package simulator

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"jotacomputing/counterbridge/internal/broker"
)

func writeSimConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// fastConfig keeps accept/fill delays short so tests don't spend real
// wall-clock time waiting on the lifecycle goroutine.
func fastConfig(extra string) string {
	return "initial_balance: 1000000\nmargin_rate: 0.1\ncommission_rate: 0.0\ntick_size: 1\naccept_delay_ms: 5\nfill_delay_ms: 5\n" + extra
}

type recorder struct {
	mu     sync.Mutex
	orders []broker.OrderUpdate
	trades []broker.Trade
	errs   []error
}

func (r *recorder) attach(s *Simulator) {
	s.RegisterOrderCallback(func(u broker.OrderUpdate) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.orders = append(r.orders, u)
	})
	s.RegisterTradeCallback(func(t broker.Trade) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.trades = append(r.trades, t)
	})
	s.RegisterErrorCallback(func(id string, err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.errs = append(r.errs, err)
	})
}

func (r *recorder) waitForOrders(n int, timeout time.Duration) []broker.OrderUpdate {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		got := len(r.orders)
		r.mu.Unlock()
		if got >= n {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]broker.OrderUpdate, len(r.orders))
	copy(out, r.orders)
	return out
}

// waitForTrades waits until n trade callbacks have fired. The simulator
// fires the trade callback after updating the position book and account,
// so once this returns the fill is reflected in both.
func (r *recorder) waitForTrades(n int, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		got := len(r.trades)
		r.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func newTestSimulator(t *testing.T, extraCfg string) (*Simulator, *recorder) {
	t.Helper()
	s := New()
	if err := s.Initialize(writeSimConfig(t, fastConfig(extraCfg))); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := s.Login(); err != nil {
		t.Fatalf("Login: %v", err)
	}
	rec := &recorder{}
	rec.attach(s)
	return s, rec
}

// TestSimpleOpenThenFill mirrors scenario (a): a simple open fills and
// credits the today bucket.
func TestSimpleOpenThenFill(t *testing.T) {
	s, rec := newTestSimulator(t, "")

	id, err := s.SendOrder(broker.OrderRequest{
		Symbol: "ag2506", Exchange: "SHFE", Direction: broker.Buy,
		Offset: broker.Open, PriceType: broker.Limit, Price: 7800, Volume: 3,
	})
	if err != nil {
		t.Fatalf("SendOrder: %v", err)
	}

	rec.waitForTrades(1, time.Second)
	updates := rec.waitForOrders(3, time.Second)
	if len(updates) < 3 {
		t.Fatalf("expected at least Submitting+Accepted+Filled, got %+v", updates)
	}
	if updates[0].Status != broker.Submitting {
		t.Fatalf("first update = %v, want Submitting", updates[0].Status)
	}
	last := updates[len(updates)-1]
	if last.Status != broker.Filled || last.TradedVolume != 3 {
		t.Fatalf("last update = %+v, want Filled qty=3", last)
	}

	snap := s.positions.snapshot("ag2506", broker.Buy)
	if snap.TodayVolume != 3 || snap.Volume != 3 {
		t.Fatalf("position after open = %+v", snap)
	}

	order, ok := s.GetOrder(id)
	if !ok || order.Status != broker.Filled {
		t.Fatalf("GetOrder = %+v, ok=%v", order, ok)
	}
}

// TestAutoOffsetCloseComputesPnL mirrors scenario (b): an Open-flagged
// sell against an existing long auto-derives CloseToday and books P&L.
func TestAutoOffsetCloseComputesPnL(t *testing.T) {
	s, rec := newTestSimulator(t, "")

	s.SendOrder(broker.OrderRequest{
		Symbol: "ag2506", Exchange: "SHFE", Direction: broker.Buy,
		Offset: broker.Open, PriceType: broker.Limit, Price: 7800, Volume: 3,
	})
	rec.waitForTrades(1, time.Second)

	s.SendOrder(broker.OrderRequest{
		Symbol: "ag2506", Exchange: "SHFE", Direction: broker.Sell,
		Offset: broker.Open, PriceType: broker.Limit, Price: 7810, Volume: 2,
	})
	rec.waitForTrades(2, time.Second)

	snap := s.positions.snapshot("ag2506", broker.Buy)
	if snap.Volume != 1 || snap.TodayVolume != 1 {
		t.Fatalf("position after partial close = %+v, want volume=1", snap)
	}

	acct, _ := s.QueryAccount()
	if acct.CloseProfit <= 0 {
		t.Fatalf("CloseProfit = %v, want > 0 after a profitable close", acct.CloseProfit)
	}
}

func TestRiskRejectOverPosition(t *testing.T) {
	s, rec := newTestSimulator(t, "max_position_per_symbol: 5\n")

	s.SendOrder(broker.OrderRequest{
		Symbol: "ag2506", Exchange: "SHFE", Direction: broker.Buy,
		Offset: broker.Open, PriceType: broker.Limit, Price: 7800, Volume: 3,
	})
	rec.waitForTrades(1, time.Second)

	id, err := s.SendOrder(broker.OrderRequest{
		Symbol: "ag2506", Exchange: "SHFE", Direction: broker.Buy,
		Offset: broker.Open, PriceType: broker.Limit, Price: 7800, Volume: 4,
	})
	if err != nil {
		t.Fatalf("SendOrder should return an id even on rejection: %v", err)
	}
	if id == "" {
		t.Fatalf("rejected order should still receive an id")
	}

	order, ok := s.GetOrder(id)
	if !ok || order.Status != broker.Rejected {
		t.Fatalf("order = %+v, ok=%v, want Rejected", order, ok)
	}

	rec.mu.Lock()
	errCount := len(rec.errs)
	rec.mu.Unlock()
	if errCount == 0 {
		t.Fatalf("expected error callback on risk reject")
	}
}

func TestInsufficientTodayPositionReject(t *testing.T) {
	s, rec := newTestSimulator(t, "")

	s.SendOrder(broker.OrderRequest{
		Symbol: "ag2506", Exchange: "SHFE", Direction: broker.Buy,
		Offset: broker.Open, PriceType: broker.Limit, Price: 7800, Volume: 100,
	})
	rec.waitForTrades(1, time.Second)

	id, _ := s.SendOrder(broker.OrderRequest{
		Symbol: "ag2506", Exchange: "SHFE", Direction: broker.Sell,
		Offset: broker.CloseToday, PriceType: broker.Limit, Price: 7800, Volume: 150,
	})
	order, ok := s.GetOrder(id)
	if !ok || order.Status != broker.Rejected {
		t.Fatalf("expected reject for over-close, got %+v ok=%v", order, ok)
	}

	snap := s.positions.snapshot("ag2506", broker.Buy)
	if snap.Volume != 100 {
		t.Fatalf("ledger should be unchanged after reject, got volume=%d", snap.Volume)
	}
}

// TestCancelDuringAcceptDelay mirrors scenario (f): cancelling before the
// accept transition yields Submitting -> Canceled with no trade.
func TestCancelDuringAcceptDelay(t *testing.T) {
	s := New()
	cfgPath := writeSimConfig(t, "initial_balance: 1000000\naccept_delay_ms: 100\nfill_delay_ms: 100\n")
	if err := s.Initialize(cfgPath); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	s.Login()
	rec := &recorder{}
	rec.attach(s)

	id, err := s.SendOrder(broker.OrderRequest{
		Symbol: "ag2506", Exchange: "SHFE", Direction: broker.Buy,
		Offset: broker.Open, PriceType: broker.Limit, Price: 7800, Volume: 1,
	})
	if err != nil {
		t.Fatalf("SendOrder: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if err := s.CancelOrder(id); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}

	updates := rec.waitForOrders(2, time.Second)
	if len(updates) != 2 {
		t.Fatalf("expected exactly Submitting+Canceled, got %+v", updates)
	}
	if updates[0].Status != broker.Submitting || updates[1].Status != broker.Canceled {
		t.Fatalf("unexpected sequence: %+v", updates)
	}

	rec.mu.Lock()
	tradeCount := len(rec.trades)
	rec.mu.Unlock()
	if tradeCount != 0 {
		t.Fatalf("expected no trade callback, got %d", tradeCount)
	}

	snap := s.positions.snapshot("ag2506", broker.Buy)
	if snap.Volume != 0 {
		t.Fatalf("ledger should be unchanged by a cancelled open, got %+v", snap)
	}
}

func TestDailyLossBreachRejectsNewOrders(t *testing.T) {
	s, rec := newTestSimulator(t, "max_daily_loss: 10\n")

	s.SendOrder(broker.OrderRequest{
		Symbol: "ag2506", Exchange: "SHFE", Direction: broker.Buy,
		Offset: broker.Open, PriceType: broker.Limit, Price: 7800, Volume: 10,
	})
	rec.waitForTrades(1, time.Second)

	// Close at a loss large enough to breach max_daily_loss.
	s.SendOrder(broker.OrderRequest{
		Symbol: "ag2506", Exchange: "SHFE", Direction: broker.Sell,
		Offset: broker.CloseToday, PriceType: broker.Limit, Price: 7700, Volume: 10,
	})
	rec.waitForTrades(2, time.Second)

	id, _ := s.SendOrder(broker.OrderRequest{
		Symbol: "au2512", Exchange: "SHFE", Direction: broker.Buy,
		Offset: broker.Open, PriceType: broker.Limit, Price: 500, Volume: 1,
	})
	order, ok := s.GetOrder(id)
	if !ok || order.Status != broker.Rejected {
		t.Fatalf("expected new orders rejected after daily loss breach, got %+v ok=%v", order, ok)
	}
}
