// Package audit keeps a best-effort, append-only SQLite log of every
// response the bridge emits, plus any trade rows passed to RecordTrade
// (the simulator does not call it), for post-hoc reconciliation. It is never consulted by the order-routing
// path and never blocks it.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"

	"jotacomputing/counterbridge/internal/wire"
)

// Log owns the sqlite handle and a buffered write queue so a slow disk
// never stalls the caller.
type Log struct {
	db      *sql.DB
	entries chan entry
	done    chan struct{}
}

type entry struct {
	kind          string
	orderID       uint32
	brokerOrderID string
	symbol        string
	side          byte
	quantity      int32
	price         float64
	respType      int32
	timestamp     int64
}

const writeQueueDepth = 4096

// Open creates (or reopens) the sqlite database at path and starts the
// background writer goroutine.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			side INTEGER NOT NULL,
			quantity INTEGER NOT NULL,
			price REAL NOT NULL,
			response_type INTEGER NOT NULL,
			ts_nanos INTEGER NOT NULL,
			recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: create responses table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			price REAL NOT NULL,
			ts_nanos INTEGER NOT NULL,
			recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: create trades table: %w", err)
	}

	l := &Log{
		db:      db,
		entries: make(chan entry, writeQueueDepth),
		done:    make(chan struct{}),
	}
	go l.run()
	return l, nil
}

func (l *Log) run() {
	defer close(l.done)
	for e := range l.entries {
		var err error
		switch e.kind {
		case "response":
			_, err = l.db.Exec(
				`INSERT INTO responses (order_id, symbol, side, quantity, price, response_type, ts_nanos) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				e.orderID, e.symbol, e.side, e.quantity, e.price, e.respType, e.timestamp,
			)
		case "trade":
			_, err = l.db.Exec(
				`INSERT INTO trades (order_id, symbol, quantity, price, ts_nanos) VALUES (?, ?, ?, ?, ?)`,
				e.brokerOrderID, e.symbol, e.quantity, e.price, e.timestamp,
			)
		}
		if err != nil {
			logger.WithError(err).Warn("audit: write failed")
		}
	}
}

// RecordResponse enqueues a response row. Drops the row (with a warning)
// rather than block if the writer is backed up.
func (l *Log) RecordResponse(resp wire.ResponseMsg) {
	e := entry{
		kind:      "response",
		orderID:   resp.OrderID,
		symbol:    resp.SymbolString(),
		side:      resp.Side,
		quantity:  resp.Quantity,
		price:     resp.Price,
		respType:  int32(resp.ResponseType),
		timestamp: int64(resp.TimeStamp),
	}
	select {
	case l.entries <- e:
	default:
		logger.Warn("audit: write queue full, dropping response row")
	}
}

// RecordTrade enqueues a simulator trade row.
func (l *Log) RecordTrade(orderID, symbol string, quantity int32, price float64, tradeTime int64) {
	e := entry{kind: "trade", brokerOrderID: orderID, symbol: symbol, quantity: quantity, price: price, timestamp: tradeTime}
	select {
	case l.entries <- e:
	default:
		logger.Warn("audit: write queue full, dropping trade row")
	}
}

// Close drains the write queue and closes the database. Callers should
// allow time.Second or so for the queue to flush under load.
func (l *Log) Close() error {
	close(l.entries)
	select {
	case <-l.done:
	case <-time.After(5 * time.Second):
		logger.Warn("audit: timed out waiting for writer to drain")
	}
	return l.db.Close()
}
