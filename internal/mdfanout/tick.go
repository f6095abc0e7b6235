// Package mdfanout republishes market-data updates drained from the MWMR
// feed (internal/shm, same transport as the order path) as a small
// protobuf-framed message over a gRPC server-streaming RPC, for legacy
// consumers that predate the shared-memory feed. It is a thin read-only
// adapter: nothing here feeds back into order routing.
package mdfanout

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"jotacomputing/counterbridge/internal/wire"
)

// topLevels is how many book levels the legacy fan-out carries; the full
// MarketUpdateNew book (wire.InterestLevels = 20 levels/side) is more
// than any known legacy consumer reads.
const topLevels = 5

// PriceLevel is one book level: price, quantity, order count.
type PriceLevel struct {
	Price      float64
	Quantity   int32
	OrderCount int32
}

// MarketTick is the fan-out message. Hand-framed with protowire rather
// than a protoc-generated type, since no .proto build step runs here;
// the wire encoding is standard protobuf and any protobuf client can
// decode it against the field numbers documented below.
type MarketTick struct {
	Symbol          string // field 1
	ExchTS          uint64 // field 2
	Seqnum          uint64 // field 3
	LastPrice       float64 // field 4
	LastQuantity    int32  // field 5
	TotalTradedQty  int64  // field 6
	Bids            []PriceLevel // field 7, repeated
	Asks            []PriceLevel // field 8, repeated
}

// FromMarketUpdate projects a wire.MarketUpdateNew down to its top book
// levels for fan-out.
func FromMarketUpdate(m *wire.MarketUpdateNew) MarketTick {
	t := MarketTick{
		Symbol:         m.SymbolString(),
		ExchTS:         m.Header.ExchTS,
		Seqnum:         m.Header.Seqnum,
		LastPrice:      m.Data.LastTradedPrice,
		LastQuantity:   m.Data.LastTradedQuantity,
		TotalTradedQty: m.Data.TotalTradedQuantity,
	}
	for i := 0; i < topLevels; i++ {
		b := m.Data.BidUpdates[i]
		if b.Quantity != 0 || b.Price != 0 {
			t.Bids = append(t.Bids, PriceLevel{Price: b.Price, Quantity: b.Quantity, OrderCount: b.OrderCount})
		}
		a := m.Data.AskUpdates[i]
		if a.Quantity != 0 || a.Price != 0 {
			t.Asks = append(t.Asks, PriceLevel{Price: a.Price, Quantity: a.Quantity, OrderCount: a.OrderCount})
		}
	}
	return t
}

func appendPriceLevel(b []byte, fieldNum protowire.Number, lvl PriceLevel) []byte {
	var inner []byte
	inner = protowire.AppendTag(inner, 1, protowire.Fixed64Type)
	inner = protowire.AppendFixed64(inner, fixed64FromFloat64(lvl.Price))
	inner = protowire.AppendTag(inner, 2, protowire.VarintType)
	inner = protowire.AppendVarint(inner, uint64(zigzag32(lvl.Quantity)))
	inner = protowire.AppendTag(inner, 3, protowire.VarintType)
	inner = protowire.AppendVarint(inner, uint64(zigzag32(lvl.OrderCount)))

	b = protowire.AppendTag(b, fieldNum, protowire.BytesType)
	b = protowire.AppendBytes(b, inner)
	return b
}

func consumePriceLevel(data []byte) (PriceLevel, error) {
	var lvl PriceLevel
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return lvl, protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return lvl, protowire.ParseError(n)
			}
			lvl.Price = float64FromFixed64(v)
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return lvl, protowire.ParseError(n)
			}
			lvl.Quantity = unzigzag32(v)
			data = data[n:]
		case 3:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return lvl, protowire.ParseError(n)
			}
			lvl.OrderCount = unzigzag32(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return lvl, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return lvl, nil
}

// Marshal encodes t using the field numbers documented on MarketTick.
func (t *MarketTick) Marshal() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, t.Symbol)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, t.ExchTS)
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, t.Seqnum)
	b = protowire.AppendTag(b, 4, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, fixed64FromFloat64(t.LastPrice))
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(zigzag32(t.LastQuantity)))
	b = protowire.AppendTag(b, 6, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(zigzag64(t.TotalTradedQty)))
	for _, lvl := range t.Bids {
		b = appendPriceLevel(b, 7, lvl)
	}
	for _, lvl := range t.Asks {
		b = appendPriceLevel(b, 8, lvl)
	}
	return b, nil
}

// Unmarshal decodes data into t, resetting its fields first.
func (t *MarketTick) Unmarshal(data []byte) error {
	*t = MarketTick{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch num {
		case 1:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			t.Symbol = v
			data = data[n:]
		case 2:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			t.ExchTS = v
			data = data[n:]
		case 3:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			t.Seqnum = v
			data = data[n:]
		case 4:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			t.LastPrice = float64FromFixed64(v)
			data = data[n:]
		case 5:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			t.LastQuantity = unzigzag32(v)
			data = data[n:]
		case 6:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			t.TotalTradedQty = unzigzag64(v)
			data = data[n:]
		case 7, 8:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			lvl, err := consumePriceLevel(v)
			if err != nil {
				return fmt.Errorf("mdfanout: decode price level: %w", err)
			}
			if num == 7 {
				t.Bids = append(t.Bids, lvl)
			} else {
				t.Asks = append(t.Asks, lvl)
			}
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return nil
}
