package mdfanout

import (
	"testing"

	"jotacomputing/counterbridge/internal/wire"
)

func TestMarketTickRoundTrip(t *testing.T) {
	var upd wire.MarketUpdateNew
	upd.SetSymbol("ag2506")
	upd.Header.ExchTS = 123456789
	upd.Header.Seqnum = 7
	upd.Data.LastTradedPrice = 7800.5
	upd.Data.LastTradedQuantity = 3
	upd.Data.TotalTradedQuantity = -1 // exercise negative zigzag path
	upd.Data.BidUpdates[0] = wire.BookElement{Price: 7799, Quantity: 10, OrderCount: 2}
	upd.Data.AskUpdates[0] = wire.BookElement{Price: 7801, Quantity: 5, OrderCount: 1}

	tick := FromMarketUpdate(&upd)

	data, err := tick.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded MarketTick
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Symbol != "ag2506" {
		t.Fatalf("symbol mismatch: %q", decoded.Symbol)
	}
	if decoded.ExchTS != 123456789 || decoded.Seqnum != 7 {
		t.Fatalf("header fields mismatch: %+v", decoded)
	}
	if decoded.LastPrice != 7800.5 || decoded.LastQuantity != 3 {
		t.Fatalf("trade fields mismatch: %+v", decoded)
	}
	if decoded.TotalTradedQty != -1 {
		t.Fatalf("expected negative traded qty to round-trip, got %d", decoded.TotalTradedQty)
	}
	if len(decoded.Bids) != 1 || decoded.Bids[0].Price != 7799 || decoded.Bids[0].Quantity != 10 {
		t.Fatalf("bid level mismatch: %+v", decoded.Bids)
	}
	if len(decoded.Asks) != 1 || decoded.Asks[0].Price != 7801 {
		t.Fatalf("ask level mismatch: %+v", decoded.Asks)
	}
}

func TestStreamRequestEmptySymbolRoundTrips(t *testing.T) {
	req := StreamRequest{}
	data, err := req.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded StreamRequest
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Symbol != "" {
		t.Fatalf("expected empty symbol, got %q", decoded.Symbol)
	}
}
