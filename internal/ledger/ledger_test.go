package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"jotacomputing/counterbridge/internal/wire"
)

func TestDeriveOffsetOpenWhenNoPosition(t *testing.T) {
	l := New()
	flag := l.DeriveOffset("ag2506", wire.SideBuy, 3, "SHFE")
	if flag != FlagOpen {
		t.Fatalf("flag = %v, want Open", flag)
	}
	snap := l.Snapshot("ag2506")
	if snap.TodayLong != 0 || snap.ONLong != 0 {
		t.Fatalf("unexpected debit on open: %+v", snap)
	}
}

// TestSHFEScenario reproduces spec's worked ag2506 example: 3 open, then
// next-day rollover to yesterday, 2 more open, then 4 lots sold as two
// 2-lot orders. DeriveOffset returns one flag per order and closes a
// bucket only when it covers the whole quantity, so today is closed
// first and yesterday second.
func TestSHFEScenario(t *testing.T) {
	l := New()

	if flag := l.DeriveOffset("ag2506", wire.SideBuy, 3, "SHFE"); flag != FlagOpen {
		t.Fatalf("first open: flag = %v", flag)
	}
	l.ApplyResponse(wire.TradeConfirm, FlagOpen, wire.SideBuy, "ag2506", 3)
	if snap := l.Snapshot("ag2506"); snap.TodayLong != 3 {
		t.Fatalf("after first open: todayLong = %d, want 3", snap.TodayLong)
	}

	// Overnight rollover: today becomes yesterday.
	l.mu.Lock()
	e := l.entries["ag2506"]
	e.ONLong += e.TodayLong
	e.TodayLong = 0
	l.mu.Unlock()

	if flag := l.DeriveOffset("ag2506", wire.SideBuy, 2, "SHFE"); flag != FlagOpen {
		t.Fatalf("second open: flag = %v", flag)
	}
	l.ApplyResponse(wire.TradeConfirm, FlagOpen, wire.SideBuy, "ag2506", 2)

	snap := l.Snapshot("ag2506")
	if snap.ONLong != 3 || snap.TodayLong != 2 {
		t.Fatalf("before close: %+v, want ONLong=3 todayLong=2", snap)
	}

	flag := l.DeriveOffset("ag2506", wire.SideSell, 2, "SHFE")
	if flag != FlagCloseToday {
		t.Fatalf("first 2-lot sell should close today first: flag = %v", flag)
	}
	snap = l.Snapshot("ag2506")
	if snap.TodayLong != 0 {
		t.Fatalf("todayLong after close-today debit = %d, want 0", snap.TodayLong)
	}

	flag2 := l.DeriveOffset("ag2506", wire.SideSell, 2, "SHFE")
	if flag2 != FlagCloseYesterday {
		t.Fatalf("remaining sell should close yesterday: flag = %v", flag2)
	}
	snap = l.Snapshot("ag2506")
	if snap.ONLong != 1 {
		t.Fatalf("ONLong after close-yesterday debit = %d, want 1", snap.ONLong)
	}
}

// TestAutoOffsetCloseFreezeAndUnfreeze mirrors scenario (b): a close-today
// sell debits immediately, and a reject/cancel credits it back.
func TestAutoOffsetCloseFreezeAndUnfreeze(t *testing.T) {
	l := New()
	l.DeriveOffset("ag2506", wire.SideBuy, 3, "SHFE")
	l.ApplyResponse(wire.TradeConfirm, FlagOpen, wire.SideBuy, "ag2506", 3)

	flag := l.DeriveOffset("ag2506", wire.SideSell, 2, "SHFE")
	if flag != FlagCloseToday {
		t.Fatalf("flag = %v, want CloseToday", flag)
	}
	if snap := l.Snapshot("ag2506"); snap.TodayLong != 1 {
		t.Fatalf("frozen todayLong = %d, want 1", snap.TodayLong)
	}

	// Broker rejects the close order entirely: unfilled qty = 2 credited back.
	l.ApplyResponse(wire.OrderError, flag, wire.SideSell, "ag2506", 2)
	if snap := l.Snapshot("ag2506"); snap.TodayLong != 3 {
		t.Fatalf("unfrozen todayLong = %d, want 3", snap.TodayLong)
	}
}

func TestNonSeparatedExchangeMergesCloseToday(t *testing.T) {
	l := New()
	l.DeriveOffset("IF2509", wire.SideBuy, 5, "CFFEX")
	l.ApplyResponse(wire.TradeConfirm, FlagOpen, wire.SideBuy, "IF2509", 5)

	flag := l.DeriveOffset("IF2509", wire.SideSell, 5, "CFFEX")
	if flag != FlagClose {
		t.Fatalf("non-SHFE close should be generic Close, got %v", flag)
	}
	snap := l.Snapshot("IF2509")
	if snap.ONLong != 0 {
		t.Fatalf("ONLong after generic close = %d, want 0", snap.ONLong)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	l := New()
	l.DeriveOffset("ag2506", wire.SideBuy, 3, "SHFE")
	l.ApplyResponse(wire.TradeConfirm, FlagOpen, wire.SideBuy, "ag2506", 3)

	path := filepath.Join(t.TempDir(), "positions.csv")
	if err := l.SaveSnapshot(path); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	l2 := New()
	if err := l2.LoadSnapshot(path); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	snap := l2.Snapshot("ag2506")
	if snap.TodayLong != 3 {
		t.Fatalf("reloaded todayLong = %d, want 3", snap.TodayLong)
	}
}

func TestAdjustClampsAtZero(t *testing.T) {
	l := New()
	l.DeriveOffset("ag2506", wire.SideBuy, 3, "SHFE")
	l.ApplyResponse(wire.TradeConfirm, FlagOpen, wire.SideBuy, "ag2506", 3)

	snap := l.Adjust("ag2506", AdjustDelta{TodayLong: -10})
	if snap.TodayLong != 0 {
		t.Fatalf("todayLong after over-negative adjust = %d, want 0", snap.TodayLong)
	}

	snap = l.Adjust("ag2506", AdjustDelta{ONShort: 5})
	if snap.ONShort != 5 {
		t.Fatalf("onShort after positive adjust = %d, want 5", snap.ONShort)
	}
}

func TestLoadSnapshotSkipsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.csv")
	content := "# comment\nag2506,1,2,3,4\n\nIF2509,0,0,0,0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l := New()
	if err := l.LoadSnapshot(path); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	snap := l.Snapshot("ag2506")
	if snap.ONLong != 1 || snap.TodayLong != 2 || snap.ONShort != 3 || snap.TodayShort != 4 {
		t.Fatalf("loaded entry = %+v", snap)
	}
}
