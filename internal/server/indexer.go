package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/collectivemind/assistant/internal/ingest"
	"github.com/collectivemind/assistant/internal/search"
	"github.com/collectivemind/assistant/internal/store"
	"github.com/collectivemind/assistant/provider"
)

// Indexer periodically refreshes the retrieval index from the corpus store.
// A redis lock keeps multiple replicas from reindexing at the same time.
type Indexer struct {
	Store    *store.Store
	Engine   *search.BleveEngine
	Provider provider.Provider
	Rdb      *redis.Client
	Cron     string
	Logger   *log.Logger
	Stop     chan struct{}

	lastRun time.Time
}

// Start launches the background refresh loop.
func (ix *Indexer) Start() {
	if ix.Logger == nil {
		ix.Logger = log.New(log.Writer(), "[INDEX] ", log.LstdFlags)
	}
	if ix.lastRun.IsZero() {
		// the caller loads the index at startup
		ix.lastRun = time.Now()
	}
	ticker := time.NewTicker(time.Minute)
	go func() {
		for {
			select {
			case <-ix.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				ix.tick()
			}
		}
	}()
}

func (ix *Indexer) tick() {
	if !isDue(ix.Cron, ix.lastRun) {
		return
	}
	ctx := context.Background()
	if ix.Rdb != nil {
		ok, _ := ix.Rdb.SetNX(ctx, "index:lock", "1", 5*time.Minute).Result()
		if !ok {
			return
		}
		defer ix.Rdb.Del(ctx, "index:lock")
	}
	ix.lastRun = time.Now()
	if err := ingest.Reindex(ctx, ix.Store, ix.Engine, ix.Provider, ix.Logger); err != nil {
		ix.Logger.Printf("reindex failed: %v", err)
	}
}

// isDue reports whether the schedule fired since the last run. Supports
// "@hourly", "@daily" and standard cron expressions.
func isDue(cronSpec string, last time.Time) bool {
	now := time.Now()
	if last.IsZero() {
		return true
	}
	switch cronSpec {
	case "@daily":
		return now.Sub(last) >= 24*time.Hour
	case "@hourly", "":
		return now.Sub(last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			return now.Sub(last) >= time.Hour
		}
		next := expr.Next(last)
		return !next.IsZero() && !next.After(now)
	}
}
