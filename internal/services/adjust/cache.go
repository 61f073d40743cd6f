package adjust

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	domrepo "PriceQuery/internal/domain/repository"
)

// FactorCache holds one factor series per security. Readers load an
// immutable map; writers copy it, change the copy and swap it in.
type FactorCache struct {
	src     domrepo.FactorSource
	metrics domrepo.Metrics

	m  atomic.Pointer[map[string]Series]
	mu sync.Mutex
}

func NewFactorCache(src domrepo.FactorSource, metrics domrepo.Metrics) *FactorCache {
	c := &FactorCache{src: src, metrics: metrics}
	empty := map[string]Series{}
	c.m.Store(&empty)
	return c
}

// Series returns the factors of code, fetching them on first use.
func (c *FactorCache) Series(ctx context.Context, code string) (Series, error) {
	if s, ok := (*c.m.Load())[code]; ok {
		c.record(true)
		return s, nil
	}
	c.record(false)

	points, err := c.src.Factors(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load factors %s: %w", code, err)
	}
	s := NewSeries(points)

	c.mu.Lock()
	defer c.mu.Unlock()
	cur := *c.m.Load()
	if existing, ok := cur[code]; ok {
		return existing, nil
	}
	next := make(map[string]Series, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[code] = s
	c.m.Store(&next)
	return s, nil
}

// Invalidate drops code so the next read refetches it.
func (c *FactorCache) Invalidate(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := *c.m.Load()
	if _, ok := cur[code]; !ok {
		return
	}
	next := make(map[string]Series, len(cur))
	for k, v := range cur {
		if k != code {
			next[k] = v
		}
	}
	c.m.Store(&next)
}

// Reset drops every cached series.
func (c *FactorCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	empty := map[string]Series{}
	c.m.Store(&empty)
}

// Len is the number of cached securities.
func (c *FactorCache) Len() int { return len(*c.m.Load()) }

func (c *FactorCache) record(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCache("factors", hit)
	}
}
