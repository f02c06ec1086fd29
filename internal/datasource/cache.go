package datasource

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/LeonardoBeccarini/plantcare/internal/metrics"
	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
)

// Cached keeps the last successful fetch of each table for ttl. Concurrent
// misses on the same table share one upstream fetch. A failed fetch is not
// cached and leaves the previous snapshot untouched until it expires.
type Cached struct {
	src          Source
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	group        singleflight.Group

	mu        sync.Mutex
	constants snapshot[entities.ConstantRecord]
	records   snapshot[entities.HistoricalRecord]
}

type snapshot[T any] struct {
	rows    []T
	fetched time.Time
	valid   bool
}

// DefaultFetchTimeout bounds a shared refresh, which no caller can cancel.
const DefaultFetchTimeout = 30 * time.Second

func NewCached(src Source, ttl time.Duration) *Cached {
	return &Cached{src: src, ttl: ttl, fetchTimeout: DefaultFetchTimeout, now: time.Now}
}

func (c *Cached) Name() string { return c.src.Name() }

func (c *Cached) Constants(ctx context.Context) ([]entities.ConstantRecord, error) {
	return load(ctx, c, TableConstants, &c.constants, c.src.Constants)
}

func (c *Cached) Records(ctx context.Context) ([]entities.HistoricalRecord, error) {
	return load(ctx, c, TableRecords, &c.records, c.src.Records)
}

// Invalidate drops both snapshots.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.constants = snapshot[entities.ConstantRecord]{}
	c.records = snapshot[entities.HistoricalRecord]{}
}

func load[T any](ctx context.Context, c *Cached, table Table, snap *snapshot[T], fetch func(context.Context) ([]T, error)) ([]T, error) {
	c.mu.Lock()
	if snap.valid && c.now().Sub(snap.fetched) < c.ttl {
		rows := snap.rows
		c.mu.Unlock()
		metrics.RecordCacheLookup(string(table), true)
		return rows, nil
	}
	c.mu.Unlock()
	metrics.RecordCacheLookup(string(table), false)

	// The shared fetch is detached from every caller's ctx; a caller whose
	// ctx ends stops waiting without cancelling it for the others.
	ch := c.group.DoChan(string(table), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		rows, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		*snap = snapshot[T]{rows: rows, fetched: c.now(), valid: true}
		c.mu.Unlock()
		return rows, nil
	})
	select {
	case <-ctx.Done():
		return nil, fetchErr(c.Name(), table, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	}
}
