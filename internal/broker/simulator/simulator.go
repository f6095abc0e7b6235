// Package simulator is an in-process matching engine implementing
// broker.Plugin, used for development, backtests, and tests in place of
// a real counter connection.
package simulator

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"jotacomputing/counterbridge/internal/broker"

	logger "github.com/sirupsen/logrus"
)

// Simulator implements Chinese-futures net-position matching with an
// asynchronous accept/fill lifecycle. SendOrder first runs autoOffset:
// an Open order against an existing opposite position becomes a close
// (CloseToday/CloseYesterday on SHFE/INE, Close elsewhere), while an
// explicit close offset is kept as given. updatePosition then honours
// the resulting offset: Open adds to the trade direction's own bucket,
// any close draws on the opposite bucket. This resolves the two conflicting
// UpdatePosition variants found in the reference sources in favour of
// the more recent one (see DESIGN.md).
type Simulator struct {
	cfg Config

	connected atomic.Bool
	loggedIn  atomic.Bool

	orders    *orderStore
	positions *positionTable
	account   *accountBook

	mu             sync.Mutex
	orderCallback  broker.OrderCallback
	tradeCallback  broker.TradeCallback
	errorCallback  broker.ErrorCallback

	tradeLogMu sync.Mutex
	tradeLog   []broker.Trade

	wg sync.WaitGroup
}

var _ broker.Plugin = (*Simulator)(nil)

// idSeq numbers the order and trade ids generated in this process.
var idSeq atomic.Uint64

// newID returns an id of the form <prefix>_<nanos>_<seq>.
func newID(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano(), idSeq.Add(1))
}

func New() *Simulator {
	return &Simulator{
		orders:    newOrderStore(),
		positions: newPositionTable(),
		account:   newAccountBook(0),
	}
}

func (s *Simulator) Name() string { return "simulator" }

func (s *Simulator) Initialize(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.account = newAccountBook(cfg.InitialBalance)
	s.connected.Store(true)
	return nil
}

func (s *Simulator) Login() error {
	if !s.connected.Load() {
		return fmt.Errorf("simulator: Login called before Initialize")
	}
	s.loggedIn.Store(true)
	return nil
}

func (s *Simulator) Logout() error {
	s.loggedIn.Store(false)
	s.wg.Wait()
	return nil
}

func (s *Simulator) IsConnected() bool { return s.connected.Load() }
func (s *Simulator) IsLoggedIn() bool  { return s.loggedIn.Load() }

func (s *Simulator) RegisterOrderCallback(fn broker.OrderCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderCallback = fn
}

func (s *Simulator) RegisterTradeCallback(fn broker.TradeCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tradeCallback = fn
}

func (s *Simulator) RegisterErrorCallback(fn broker.ErrorCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorCallback = fn
}

func (s *Simulator) fireOrder(u broker.OrderUpdate) {
	s.mu.Lock()
	cb := s.orderCallback
	s.mu.Unlock()
	if cb != nil {
		cb(u)
	}
}

func (s *Simulator) fireTrade(t broker.Trade) {
	s.mu.Lock()
	cb := s.tradeCallback
	s.mu.Unlock()
	if cb != nil {
		cb(t)
	}
}

func (s *Simulator) fireError(orderID string, err error) {
	s.mu.Lock()
	cb := s.errorCallback
	s.mu.Unlock()
	if cb != nil {
		cb(orderID, err)
	}
}

// autoOffset implements set_open_close: if the caller
// left Offset at its zero value without an explicit close, derive one
// from the simulator's own book. SHFE/INE prefer CloseToday.
func (s *Simulator) autoOffset(req broker.OrderRequest) broker.OffsetFlag {
	if req.Offset != broker.Open {
		return req.Offset
	}
	closeDir := req.Direction.Opposite()
	current := s.positions.snapshot(req.Symbol, closeDir)
	if current.Volume == 0 {
		return broker.Open
	}
	separated := req.Exchange == "SHFE" || req.Exchange == "INE"
	if separated {
		if current.TodayVolume > 0 {
			return broker.CloseToday
		}
		return broker.CloseYesterday
	}
	return broker.Close
}

// SendOrder auto-offsets the request, generates an order id, runs the
// risk check, fires the Submitting callback, and spawns the async
// lifecycle goroutine.
func (s *Simulator) SendOrder(req broker.OrderRequest) (string, error) {
	req.Offset = s.autoOffset(req)

	orderID := newID("SIM")

	if err := s.checkRisk(req); err != nil {
		o := &simOrder{Order: broker.Order{
			OrderID:       orderID,
			ClientOrderID: req.ClientOrderID,
			Symbol:        req.Symbol,
			Exchange:      req.Exchange,
			Direction:     req.Direction,
			Offset:        req.Offset,
			Price:         req.Price,
			Volume:        req.Volume,
			Status:        broker.Rejected,
			Reason:        err.Error(),
		}}
		s.orders.put(o)
		s.fireOrder(broker.OrderUpdate{OrderID: orderID, Status: broker.Rejected, OrderedVolume: req.Volume, Reason: err.Error()})
		s.fireError(orderID, err)
		// Rejected orders still receive an id, matching CTP behaviour.
		return orderID, nil
	}

	o := &simOrder{Order: broker.Order{
		OrderID:       orderID,
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Exchange:      req.Exchange,
		Direction:     req.Direction,
		Offset:        req.Offset,
		Price:         req.Price,
		Volume:        req.Volume,
		Status:        broker.Submitting,
	}}
	s.orders.put(o)
	s.fireOrder(broker.OrderUpdate{OrderID: orderID, Status: broker.Submitting, OrderedVolume: req.Volume})

	s.wg.Add(1)
	go s.runLifecycle(orderID, req)

	return orderID, nil
}

// runLifecycle is the asynchronous accept/fill sequence, with
// cancellation observed at each sleep boundary.
func (s *Simulator) runLifecycle(orderID string, req broker.OrderRequest) {
	defer s.wg.Done()

	if s.cfg.AcceptDelayMs > 0 {
		time.Sleep(time.Duration(s.cfg.AcceptDelayMs) * time.Millisecond)
	}
	if s.orders.isCancelRequested(orderID) {
		s.orders.setStatus(orderID, broker.Canceled, 0, "")
		s.fireOrder(broker.OrderUpdate{OrderID: orderID, Status: broker.Canceled, OrderedVolume: req.Volume})
		return
	}

	s.orders.setStatus(orderID, broker.Accepted, 0, "")
	s.fireOrder(broker.OrderUpdate{OrderID: orderID, Status: broker.Accepted, OrderedVolume: req.Volume})

	if s.cfg.FillDelayMs > 0 {
		time.Sleep(time.Duration(s.cfg.FillDelayMs) * time.Millisecond)
	}
	if s.orders.isCancelRequested(orderID) {
		s.orders.setStatus(orderID, broker.Canceled, 0, "")
		s.fireOrder(broker.OrderUpdate{OrderID: orderID, Status: broker.Canceled, OrderedVolume: req.Volume})
		return
	}

	price := s.fillPrice(req)

	trade := broker.Trade{
		TradeID:   newID("TRD"),
		OrderID:   orderID,
		Symbol:    req.Symbol,
		Exchange:  req.Exchange,
		Direction: req.Direction,
		Offset:    req.Offset,
		Price:     price,
		Volume:    req.Volume,
		TradeTime: time.Now().UnixNano(),
	}

	s.orders.setStatus(orderID, broker.Filled, req.Volume, "")
	s.fireOrder(broker.OrderUpdate{OrderID: orderID, Status: broker.Filled, TradedVolume: req.Volume, OrderedVolume: req.Volume})

	s.tradeLogMu.Lock()
	s.tradeLog = append(s.tradeLog, trade)
	s.tradeLogMu.Unlock()

	s.updatePosition(trade)
	s.updateAccount()

	s.fireTrade(trade)
}

// fillPrice applies slippage for market orders or any order with
// slippage configured, shifting against the order's direction.
func (s *Simulator) fillPrice(req broker.OrderRequest) float64 {
	if req.PriceType != broker.Market && s.cfg.SlippageTicks == 0 {
		return req.Price
	}
	shift := float64(s.cfg.SlippageTicks) * s.cfg.TickSize
	if req.Direction == broker.Buy {
		return req.Price + shift
	}
	return req.Price - shift
}

// updatePosition is the Chinese-futures net-position algorithm. The
// honour-offset variant: Open always opens
// on trade.Direction's own bucket; any Close variant closes the
// opposite bucket, never touching Direction's own side.
func (s *Simulator) updatePosition(trade broker.Trade) {
	if trade.Offset == broker.Open {
		s.positions.applyOpen(trade.Symbol, trade.Exchange, trade.Direction, trade.Price, trade.Volume, s.cfg.MarginRate)
		return
	}

	closeDir := trade.Direction.Opposite()
	result := s.positions.applyClose(trade.Symbol, closeDir, trade.Offset, trade.Price, trade.Volume, s.cfg.MarginRate)
	if !result.ok {
		logger.WithFields(logger.Fields{"symbol": trade.Symbol, "direction": closeDir}).
			Warn("simulator: close trade against empty or missing position")
		return
	}
	commission := trade.Price * float64(trade.Volume) * s.cfg.CommissionRate
	s.account.addTrade(result.pnl, commission)
}

// updateAccount recomputes the account-wide margin total from the
// current position book.
func (s *Simulator) updateAccount() {
	var total float64
	for _, p := range s.positions.all() {
		total += p.Margin
	}
	s.account.setMarginTotal(total)
}

func (s *Simulator) CancelOrder(orderID string) error {
	if !s.orders.requestCancel(orderID) {
		return fmt.Errorf("simulator: order %s not cancellable", orderID)
	}
	return nil
}

func (s *Simulator) QueryAccount() (broker.Account, error) {
	return s.account.snapshot(), nil
}

func (s *Simulator) QueryPositions() ([]broker.Position, error) {
	return s.positions.all(), nil
}

func (s *Simulator) QueryOrders() ([]broker.Order, error) {
	return s.orders.all(), nil
}

func (s *Simulator) QueryTrades() ([]broker.Trade, error) {
	s.tradeLogMu.Lock()
	defer s.tradeLogMu.Unlock()
	out := make([]broker.Trade, len(s.tradeLog))
	copy(out, s.tradeLog)
	return out, nil
}

func (s *Simulator) GetOrder(orderID string) (broker.Order, bool) {
	o, ok := s.orders.get(orderID)
	if !ok {
		return broker.Order{}, false
	}
	return o.Order, true
}
