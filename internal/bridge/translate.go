package bridge

import (
	"strconv"

	"jotacomputing/counterbridge/internal/broker"
	"jotacomputing/counterbridge/internal/ledger"
	"jotacomputing/counterbridge/internal/wire"
)

// toDirection maps a wire side byte to the plugin-neutral Direction.
func toDirection(side byte) broker.Direction {
	if side == wire.SideSell {
		return broker.Sell
	}
	return broker.Buy
}

// toOffsetFlag maps a ledger-derived flag to the plugin-neutral offset.
func toOffsetFlag(flag ledger.OffsetFlag) broker.OffsetFlag {
	switch flag {
	case ledger.FlagCloseToday:
		return broker.CloseToday
	case ledger.FlagCloseYesterday:
		return broker.CloseYesterday
	case ledger.FlagClose:
		return broker.Close
	default:
		return broker.Open
	}
}

func toPriceType(ot wire.OrderType) broker.PriceType {
	if ot == wire.Market {
		return broker.Market
	}
	return broker.Limit
}

// toOrderRequest builds the plugin-neutral request from a wire record
// and the ledger's derived offset.
func toOrderRequest(req *wire.RequestMsg, flag ledger.OffsetFlag) broker.OrderRequest {
	return broker.OrderRequest{
		Symbol:        req.Symbol(),
		Exchange:      req.Exchange().ExchangeName(),
		Direction:     toDirection(req.Side()),
		Offset:        toOffsetFlag(flag),
		PriceType:     toPriceType(req.OrdType),
		Price:         req.Price,
		Volume:        req.Quantity,
		ClientOrderID: strconv.FormatUint(uint64(req.OrderID), 10),
	}
}

// statusToResponseType maps a broker status to the wire response type.
func statusToResponseType(status broker.OrderStatus) (wire.ResponseType, bool) {
	switch status {
	case broker.Submitting, broker.Accepted:
		return wire.NewOrderConfirm, true
	case broker.PartialFilled, broker.Filled:
		return wire.TradeConfirm, true
	case broker.Canceled:
		return wire.CancelOrderConfirm, true
	case broker.Rejected, broker.Error:
		return wire.OrderError, true
	default:
		return 0, false
	}
}

func isTerminal(status broker.OrderStatus) bool {
	switch status {
	case broker.Filled, broker.Canceled, broker.Rejected, broker.Error:
		return true
	default:
		return false
	}
}
