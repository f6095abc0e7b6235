package bridge

import (
	"time"

	"jotacomputing/counterbridge/internal/broker"
	"jotacomputing/counterbridge/internal/ledger"
	"jotacomputing/counterbridge/internal/staticerr"
	"jotacomputing/counterbridge/internal/wire"

	logger "github.com/sirupsen/logrus"
)

// handleOrderUpdate is registered as the order callback for every broker
// plugin. Fill-bearing transitions are reported
// through handleTrade instead, which carries price and traded volume;
// this handler only turns lifecycle transitions into responses.
func (b *Bridge) handleOrderUpdate(brokerName string, u broker.OrderUpdate) {
	switch u.Status {
	case broker.PartialFilled:
		return
	case broker.Filled:
		b.orders.remove(u.OrderID)
		return
	}

	co, ok := b.orders.get(u.OrderID)
	if !ok {
		logger.WithFields(logger.Fields{"broker": brokerName, "orderId": u.OrderID}).WithError(staticerr.ErrOrderNotFound).Warn("bridge: order update for unknown broker order id")
		return
	}

	rt, ok := statusToResponseType(u.Status)
	if !ok {
		return
	}

	var resp wire.ResponseMsg
	resp.ResponseType = rt
	resp.OrderID = co.OrderID
	switch rt {
	case wire.NewOrderConfirm:
		resp.Quantity = 0
	case wire.CancelOrderConfirm:
		resp.Quantity = u.OrderedVolume - u.TradedVolume
	default:
		resp.Quantity = u.OrderedVolume
	}
	resp.TimeStamp = uint64(time.Now().UnixNano())
	resp.Side = co.Side
	resp.SetSymbol(co.Symbol)
	resp.ExchangeID = co.ExchangeCode
	resp.StrategyID = co.StrategyID
	if rt == wire.OrderError {
		resp.ErrorCode = 1
	}
	b.enqueueResponse(resp)

	if isTerminal(u.Status) {
		unfilled := uint32(u.OrderedVolume - u.TradedVolume)
		b.ledger.ApplyResponse(rt, co.OffsetFlag, co.Side, co.Symbol, unfilled)
		b.orders.remove(u.OrderID)

		if (rt == wire.OrderError || rt == wire.CancelOrderConfirm) && b.ops != nil {
			b.ops.OrderRejected(co.Symbol, u.Reason)
		}
	}
}

// handleTrade is registered as the trade callback; it emits the
// TradeConfirm response and credits the ledger for opens.
func (b *Bridge) handleTrade(brokerName string, t broker.Trade) {
	co, ok := b.orders.get(t.OrderID)
	if !ok {
		logger.WithFields(logger.Fields{"broker": brokerName, "orderId": t.OrderID}).WithError(staticerr.ErrOrderNotFound).Warn("bridge: trade for unknown broker order id")
		return
	}

	var resp wire.ResponseMsg
	resp.ResponseType = wire.TradeConfirm
	resp.OrderID = co.OrderID
	resp.Quantity = t.Volume
	resp.Price = t.Price
	resp.TimeStamp = uint64(time.Now().UnixNano())
	resp.Side = co.Side
	resp.SetSymbol(co.Symbol)
	resp.ExchangeID = co.ExchangeCode
	resp.StrategyID = co.StrategyID
	switch co.OffsetFlag {
	case ledger.FlagOpen:
		resp.OpenClose = wire.OCOpen
	case ledger.FlagCloseToday:
		resp.OpenClose = wire.OCCloseToday
	default:
		resp.OpenClose = wire.OCClose
	}
	b.enqueueResponse(resp)

	b.ledger.ApplyResponse(wire.TradeConfirm, co.OffsetFlag, co.Side, co.Symbol, uint32(t.Volume))
}
