package bridge

import (
	"time"

	"jotacomputing/counterbridge/internal/staticerr"
	"jotacomputing/counterbridge/internal/wire"

	logger "github.com/sirupsen/logrus"
)

// Run drains the request queue until Stop is called. Meant to run on its
// own goroutine; blocks the caller otherwise.
func (b *Bridge) Run() {
	defer close(b.doneCh)

	var req wire.RequestMsg
	for {
		select {
		case <-b.stopCh:
			return
		default:
		}

		if !b.requests.Dequeue(&req) {
			time.Sleep(emptyPollInterval)
			continue
		}

		b.totalOrders.Add(1)
		b.handleRequest(&req)
	}
}

func (b *Bridge) handleRequest(req *wire.RequestMsg) {
	if req.RequestType == wire.CancelOrder {
		b.handleCancelRequest(req)
		return
	}

	if req.Quantity <= 0 {
		b.rejectRequest(req, wire.OrderError)
		logger.WithFields(logger.Fields{"orderId": req.OrderID, "quantity": req.Quantity}).WithError(staticerr.ErrInvalidRequest).Warn("bridge: non-positive quantity in request")
		return
	}

	symbol := req.Symbol()

	name, p, ok := b.selectBroker(symbol)
	if !ok {
		b.rejectRequest(req, wire.OrsReject)
		logger.WithField("symbol", symbol).WithError(staticerr.ErrNoBrokerForSymbol).Warn("bridge: no broker available for request")
		if b.ops != nil {
			b.ops.OrderRejected(symbol, staticerr.ErrNoBrokerForSymbol.Error())
		}
		return
	}

	flag := b.ledger.DeriveOffset(symbol, req.Side(), uint32(req.Quantity), req.Exchange().ExchangeName())
	orderReq := toOrderRequest(req, flag)

	brokerOrderID, err := p.SendOrder(orderReq)
	if err != nil {
		b.ledger.ApplyResponse(wire.OrderError, flag, req.Side(), symbol, uint32(req.Quantity))
		b.rejectRequest(req, wire.OrderError)
		logger.WithFields(logger.Fields{"symbol": symbol}).WithError(err).Warn("bridge: send order failed")
		if b.ops != nil {
			b.ops.OrderRejected(symbol, err.Error())
		}
		return
	}

	b.orders.put(brokerOrderID, cachedOrder{
		OrderID:        req.OrderID,
		StrategyID:     req.StrategyID,
		Symbol:         symbol,
		ExchangeCode:   uint8(req.Exchange()),
		Side:           req.Side(),
		OffsetFlag:     flag,
		BrokerName:     name,
		BrokerClientID: brokerOrderID,
	})
}

// handleCancelRequest routes a CancelOrder request to the same broker the
// original order was sent to. The eventual CANCEL_ORDER_CONFIRM response
// (and any ledger unfreeze) is emitted later by the order callback when
// the broker actually reports the cancellation, not here.
func (b *Bridge) handleCancelRequest(req *wire.RequestMsg) {
	brokerOrderID, co, ok := b.orders.findByOrderID(req.OrderID)
	if !ok {
		b.rejectRequest(req, wire.OrderError)
		logger.WithField("orderId", req.OrderID).WithError(staticerr.ErrOrderNotFound).Warn("bridge: cancel request for unknown order id")
		return
	}

	b.brokersMu.RLock()
	p, ok := b.brokers[co.BrokerName]
	b.brokersMu.RUnlock()
	if !ok {
		b.rejectRequest(req, wire.OrderError)
		logger.WithField("broker", co.BrokerName).WithError(staticerr.ErrBrokerNotLoggedIn).Warn("bridge: cancel request for order on a broker no longer registered")
		return
	}

	if err := p.CancelOrder(brokerOrderID); err != nil {
		b.rejectRequest(req, wire.OrderError)
		logger.WithFields(logger.Fields{"broker": co.BrokerName, "orderId": req.OrderID}).WithError(err).Warn("bridge: cancel order failed")
	}
}

// rejectRequest synthesizes an ORS_REJECT or ORDER_ERROR response directly
// from the inbound request, since no broker order was ever created.
func (b *Bridge) rejectRequest(req *wire.RequestMsg, rt wire.ResponseType) {
	var resp wire.ResponseMsg
	resp.ResponseType = rt
	resp.OrderID = req.OrderID
	resp.Quantity = req.Quantity
	resp.Price = req.Price
	resp.TimeStamp = uint64(time.Now().UnixNano())
	resp.Side = req.Side()
	resp.SetSymbol(req.Symbol())
	resp.SetAccountID(req.AccountIDString())
	resp.ExchangeID = uint8(req.Exchange())
	resp.StrategyID = req.StrategyID
	resp.ErrorCode = 1
	b.enqueueResponse(resp)
}
