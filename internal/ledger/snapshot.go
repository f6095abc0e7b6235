package ledger

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadSnapshot reads a warm-start position file: one symbol per line,
// `symbol,ONLong,todayLong,ONShort,todayShort`, `#` lines are comments.
// Not required for correctness within a session — only used on process
// start.
func (l *Ledger) LoadSnapshot(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ledger: open snapshot %s: %w", path, err)
	}
	defer f.Close()

	l.mu.Lock()
	defer l.mu.Unlock()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 5 {
			return fmt.Errorf("ledger: snapshot %s line %d: want 5 fields, got %d", path, lineNo, len(fields))
		}
		onLong, err1 := strconv.ParseUint(fields[1], 10, 32)
		todayLong, err2 := strconv.ParseUint(fields[2], 10, 32)
		onShort, err3 := strconv.ParseUint(fields[3], 10, 32)
		todayShort, err4 := strconv.ParseUint(fields[4], 10, 32)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return fmt.Errorf("ledger: snapshot %s line %d: non-numeric bucket value", path, lineNo)
		}
		l.entries[fields[0]] = &Entry{
			ONLong:     uint32(onLong),
			TodayLong:  uint32(todayLong),
			ONShort:    uint32(onShort),
			TodayShort: uint32(todayShort),
		}
	}
	return scanner.Err()
}

// SaveSnapshot writes every tracked symbol's bucket state in the same
// format LoadSnapshot reads.
func (l *Ledger) SaveSnapshot(path string) error {
	l.mu.Lock()
	lines := make([]string, 0, len(l.entries))
	for symbol, e := range l.entries {
		lines = append(lines, fmt.Sprintf("%s,%d,%d,%d,%d", symbol, e.ONLong, e.TodayLong, e.ONShort, e.TodayShort))
	}
	l.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ledger: create snapshot %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# symbol,ONLong,todayLong,ONShort,todayShort")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("ledger: write snapshot %s: %w", path, err)
		}
	}
	return w.Flush()
}
