package ledger

import (
	"context"
	"time"

	redisLib "github.com/redis/go-redis/v9"
	logger "github.com/sirupsen/logrus"
)

// RouteCache mirrors the symbol→broker routing table and an opportunistic
// copy of the ledger snapshot in redis. It is never consulted from
// DeriveOffset/ApplyResponse — both remain correct with RouteCache nil or
// entirely unreachable; this is a hot-reload convenience and a secondary
// backup, not a source of truth.
type RouteCache struct {
	cli *redisLib.Client
}

// NewRouteCache dials redis at addr. A failed ping is returned as an
// error so callers can choose to run without a cache rather than fail
// bridge startup over it.
func NewRouteCache(addr string) (*RouteCache, error) {
	cli := redisLib.NewClient(&redisLib.Options{Addr: addr, DB: 0})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return &RouteCache{cli: cli}, nil
}

// Route looks up a hot-reloaded symbol→broker override. ok is false on
// any redis error or a cache miss; callers must fall back to the static
// routing table in that case.
func (c *RouteCache) Route(ctx context.Context, symbol string) (broker string, ok bool) {
	if c == nil {
		return "", false
	}
	v, err := c.cli.HGet(ctx, "counterbridge:routes", symbol).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

// SetRoute publishes a routing override that redirects a symbol to a
// different broker without a restart. No package in this repository
// calls it, and the bridge's broker selection does not read overrides.
func (c *RouteCache) SetRoute(ctx context.Context, symbol, broker string) error {
	if c == nil {
		return nil
	}
	return c.cli.HSet(ctx, "counterbridge:routes", symbol, broker).Err()
}

// MirrorSnapshot opportunistically writes a secondary copy of the
// ledger's bucket state. Errors are logged, not propagated — the
// authoritative warm-start path is Ledger.SaveSnapshot to disk.
func (l *Ledger) MirrorSnapshot(ctx context.Context, c *RouteCache) {
	if c == nil {
		return
	}
	l.mu.Lock()
	fields := make(map[string]interface{}, len(l.entries)*4)
	for symbol, e := range l.entries {
		fields[symbol+":ONLong"] = e.ONLong
		fields[symbol+":todayLong"] = e.TodayLong
		fields[symbol+":ONShort"] = e.ONShort
		fields[symbol+":todayShort"] = e.TodayShort
	}
	l.mu.Unlock()

	if len(fields) == 0 {
		return
	}
	if err := c.cli.HSet(ctx, "counterbridge:ledger_mirror", fields).Err(); err != nil {
		logger.WithError(err).Warn("ledger: mirror snapshot to redis failed")
	}
}
