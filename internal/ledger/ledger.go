// Package ledger tracks per-symbol Chinese-futures net-position buckets
// and derives open/close flags for outbound orders.
package ledger

import (
	"sync"

	"jotacomputing/counterbridge/internal/wire"
)

// OffsetFlag mirrors wire.PosDirection in the ledger's neutral vocabulary,
// with an explicit CloseYesterday the wire enum doesn't separate.
type OffsetFlag int

const (
	FlagOpen OffsetFlag = iota
	FlagClose
	FlagCloseToday
	FlagCloseYesterday
)

func (f OffsetFlag) String() string {
	switch f {
	case FlagOpen:
		return "Open"
	case FlagClose:
		return "Close"
	case FlagCloseToday:
		return "CloseToday"
	case FlagCloseYesterday:
		return "CloseYesterday"
	default:
		return "Unknown"
	}
}

// ToPosDirection maps a derived flag back onto the wire enum for requests
// that only distinguish Open/Close/CloseIntraday.
func (f OffsetFlag) ToPosDirection() wire.PosDirection {
	switch f {
	case FlagOpen:
		return wire.Open
	case FlagCloseToday:
		return wire.CloseIntraday
	case FlagCloseYesterday, FlagClose:
		return wire.Close
	default:
		return wire.PosError
	}
}

// Entry is one symbol's four-bucket position state.
type Entry struct {
	ONLong    uint32
	TodayLong uint32
	ONShort   uint32
	TodayShort uint32
}

// todaySeparated treats SHFE and INE as requiring explicit
// today/yesterday separation; every other exchange merges close-today
// into the generic close bucket.
func todaySeparated(exchange string) bool {
	return exchange == "SHFE" || exchange == "INE"
}

// Ledger is the single source of truth for position state. One mutex
// guards the map and every entry's fields; it is never held across a
// broker call or a shared-memory enqueue.
type Ledger struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

func New() *Ledger {
	return &Ledger{entries: make(map[string]*Entry)}
}

func (l *Ledger) entry(symbol string) *Entry {
	e, ok := l.entries[symbol]
	if !ok {
		e = &Entry{}
		l.entries[symbol] = e
	}
	return e
}

// Snapshot returns a copy of one symbol's bucket state, or the zero Entry
// if the symbol has never been seen.
func (l *Ledger) Snapshot(symbol string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[symbol]; ok {
		return *e
	}
	return Entry{}
}

// DeriveOffset decides the open/close flag for an outbound order and
// debits the chosen bucket in the same critical section. side is
// wire.SideBuy or wire.SideSell. On SHFE/INE a close uses one bucket
// (today first, then overnight) and only when that bucket covers the
// whole quantity; on other exchanges a generic Close draws on today and
// overnight together, today first. Otherwise the order opens.
func (l *Ledger) DeriveOffset(symbol string, side byte, quantity uint32, exchange string) OffsetFlag {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entry(symbol)
	separated := todaySeparated(exchange)

	if side == wire.SideBuy {
		if separated && quantity <= e.TodayShort {
			e.TodayShort -= quantity
			return FlagCloseToday
		}
		if !separated && quantity <= e.TodayShort+e.ONShort {
			fromToday := min(quantity, e.TodayShort)
			e.TodayShort -= fromToday
			e.ONShort -= quantity - fromToday
			return FlagClose
		}
		if quantity <= e.ONShort {
			e.ONShort -= quantity
			if separated {
				return FlagCloseYesterday
			}
			return FlagClose
		}
		return FlagOpen
	}

	// side == SideSell
	if separated && quantity <= e.TodayLong {
		e.TodayLong -= quantity
		return FlagCloseToday
	}
	if !separated && quantity <= e.TodayLong+e.ONLong {
		fromToday := min(quantity, e.TodayLong)
		e.TodayLong -= fromToday
		e.ONLong -= quantity - fromToday
		return FlagClose
	}
	if quantity <= e.ONLong {
		e.ONLong -= quantity
		if separated {
			return FlagCloseYesterday
		}
		return FlagClose
	}
	return FlagOpen
}

// AdjustDelta is a signed correction applied to one symbol's buckets
// through Adjust. Positive values credit a bucket, negative values debit
// it; the result is clamped at zero rather than wrapping.
type AdjustDelta struct {
	ONLong     int64
	TodayLong  int64
	ONShort    int64
	TodayShort int64
}

// Adjust applies delta to symbol's bucket state under the same lock as
// every other ledger operation, for manual correction via the admin API.
func (l *Ledger) Adjust(symbol string, delta AdjustDelta) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entry(symbol)
	e.ONLong = clampAddInt64(e.ONLong, delta.ONLong)
	e.TodayLong = clampAddInt64(e.TodayLong, delta.TodayLong)
	e.ONShort = clampAddInt64(e.ONShort, delta.ONShort)
	e.TodayShort = clampAddInt64(e.TodayShort, delta.TodayShort)
	return *e
}

func clampAddInt64(base uint32, delta int64) uint32 {
	result := int64(base) + delta
	if result < 0 {
		return 0
	}
	return uint32(result)
}

// ApplyResponse folds a broker response's position effect into the
// ledger. flag is the offset that was used when the order was
// sent (the bridge remembers it on the cached order record); side is the
// order's original side. An unwound generic Close is credited to the
// overnight bucket, whichever buckets the send-time debit drew on.
func (l *Ledger) ApplyResponse(rt wire.ResponseType, flag OffsetFlag, side byte, symbol string, quantity uint32) {
	if quantity == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entry(symbol)

	switch rt {
	case wire.TradeConfirm:
		if flag == FlagOpen {
			if side == wire.SideBuy {
				e.TodayLong += quantity
			} else {
				e.TodayShort += quantity
			}
		}
		// Trade confirms for closes are no-ops: the debit already
		// happened at send time.
	case wire.OrderError, wire.RmsReject, wire.OrsReject, wire.CancelOrderConfirm:
		// Unwind the freeze taken at send time for the unfilled quantity.
		switch flag {
		case FlagCloseToday:
			if side == wire.SideBuy {
				e.TodayShort += quantity
			} else {
				e.TodayLong += quantity
			}
		case FlagCloseYesterday, FlagClose:
			if side == wire.SideBuy {
				e.ONShort += quantity
			} else {
				e.ONLong += quantity
			}
		case FlagOpen:
			// no-op: nothing was debited on open.
		}
	}
}
