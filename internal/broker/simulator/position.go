package simulator

import (
	"fmt"
	"sync"

	"jotacomputing/counterbridge/internal/broker"
)

// positionKey identifies one symbol's net-position bucket for a single
// direction.
type positionKey struct {
	symbol    string
	direction broker.Direction
}

// position mirrors the simulator internal position record. One mutex
// covers every field.
type position struct {
	Symbol            string
	Exchange          string
	Direction         broker.Direction
	Volume            int32
	TodayVolume       int32
	YesterdayVolume   int32
	AvgPrice          float64
	TotalCost         float64
	TotalVolumeTraded int64
	Margin            float64
	UnrealizedPnL     float64
}

// positionTable is the simulator's net-position book, keyed by
// (symbol, direction). Acquisition order across the simulator's four
// mutexes is orders → positions → account; callers must never hold
// the orders lock when taking this one out of order.
type positionTable struct {
	mu      sync.Mutex
	entries map[positionKey]*position
}

func newPositionTable() *positionTable {
	return &positionTable{entries: make(map[positionKey]*position)}
}

// snapshot returns a copy of the current position for (symbol, dir),
// the zero value if none exists.
func (t *positionTable) snapshot(symbol string, dir broker.Direction) position {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.entries[positionKey{symbol, dir}]; ok {
		return *p
	}
	return position{Symbol: symbol, Direction: dir}
}

func (t *positionTable) all() []broker.Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]broker.Position, 0, len(t.entries))
	for _, p := range t.entries {
		out = append(out, broker.Position{
			Symbol:            p.Symbol,
			Exchange:          p.Exchange,
			Direction:         p.Direction,
			Volume:            p.Volume,
			TodayVolume:       p.TodayVolume,
			YesterdayVolume:   p.YesterdayVolume,
			AvgPrice:          p.AvgPrice,
			TotalVolumeTraded: p.TotalVolumeTraded,
			Margin:            p.Margin,
			UnrealizedPnL:     p.UnrealizedPnL,
		})
	}
	return out
}

// applyOpen implements the open branch of update_position.
func (t *positionTable) applyOpen(symbol, exchange string, dir broker.Direction, price float64, qty int32, marginRate float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := positionKey{symbol, dir}
	p, ok := t.entries[key]
	if !ok {
		p = &position{Symbol: symbol, Exchange: exchange, Direction: dir}
		t.entries[key] = p
	}

	oldCost := p.AvgPrice * float64(p.Volume)
	p.TotalCost = oldCost + price*float64(qty)
	p.Volume += qty
	p.TodayVolume += qty
	p.TotalVolumeTraded += int64(qty)
	if p.TotalVolumeTraded > 0 {
		p.AvgPrice = p.TotalCost / float64(p.TotalVolumeTraded)
	}
	p.Margin = price * float64(p.Volume) * marginRate
}

// closeResult reports the P&L and bucket split from a close fill.
type closeResult struct {
	closeToday     int32
	closeYesterday int32
	pnl            float64
	ok             bool
}

// applyClose implements the close branch of update_position,
// honouring the explicit offset variant: the caller's Direction is the
// side being closed (opposite of the trade's own direction), already
// resolved by the caller.
func (t *positionTable) applyClose(symbol string, closeDir broker.Direction, offset broker.OffsetFlag, price float64, qty int32, marginRate float64) closeResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := positionKey{symbol, closeDir}
	p, ok := t.entries[key]
	if !ok || p.Volume == 0 {
		return closeResult{ok: false}
	}

	var closed, closeToday, closeYesterday int32
	switch offset {
	case broker.CloseToday:
		closed = minInt32(qty, p.TodayVolume)
		closeToday = closed
	case broker.CloseYesterday:
		closed = minInt32(qty, p.YesterdayVolume)
		closeYesterday = closed
	default: // generic Close: drain today before yesterday
		closed = minInt32(qty, p.Volume)
		closeToday = minInt32(closed, p.TodayVolume)
		closeYesterday = closed - closeToday
	}

	var pnl float64
	if closeDir == broker.Buy {
		// closing a long: sold at price against avg cost
		pnl = (price - p.AvgPrice) * float64(closed)
	} else {
		pnl = (p.AvgPrice - price) * float64(closed)
	}

	p.Volume -= closed
	p.TodayVolume -= closeToday
	p.YesterdayVolume -= closeYesterday

	if p.Volume == 0 {
		delete(t.entries, key)
	} else {
		p.Margin = price * float64(p.Volume) * marginRate
	}

	return closeResult{closeToday: closeToday, closeYesterday: closeYesterday, pnl: pnl, ok: true}
}

// rollToYesterday moves every position's today volume into yesterday,
// the daily-rollover step a warm-start/maintenance job would trigger.
// Not driven by any response path; nothing in the repository calls it.
func (t *positionTable) rollToYesterday() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.entries {
		p.YesterdayVolume += p.TodayVolume
		p.TodayVolume = 0
	}
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func (t *positionTable) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("positionTable{%d entries}", len(t.entries))
}
