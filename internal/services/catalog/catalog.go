// Package catalog answers security-info and listing queries over the
// registry.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"PriceQuery/internal/domain/models"
	domrepo "PriceQuery/internal/domain/repository"
	icache "PriceQuery/internal/service/cache"
	"PriceQuery/internal/services/code"
)

// Catalog fronts the registry with a per-code cache.
type Catalog struct {
	reg     domrepo.SecurityRegistry
	metrics domrepo.Metrics
	cache   *icache.TTLCache[models.Security]
	ttl     time.Duration
}

func New(reg domrepo.SecurityRegistry, metrics domrepo.Metrics, ttl time.Duration) *Catalog {
	return &Catalog{reg: reg, metrics: metrics, cache: icache.NewTTLCache[models.Security](), ttl: ttl}
}

// Info returns the latest registry attributes of raw. When asOf is given it
// only checks the security was listed on that date; renames are not
// tracked.
func (c *Catalog) Info(ctx context.Context, raw string, asOf *time.Time) (models.Security, error) {
	canonical, err := code.Normalize(raw)
	if err != nil {
		return models.Security{}, err
	}
	sec, ok := c.cache.Get(canonical)
	c.record(ok)
	if !ok {
		sec, err = c.reg.LookupSecurity(ctx, canonical)
		if err != nil {
			return models.Security{}, err
		}
		c.cache.Set(canonical, sec, c.ttl)
	}
	if asOf != nil && !sec.ListedOn(*asOf) {
		return models.Security{}, fmt.Errorf("%w: %s not listed on %s", models.ErrUnknownSecurity,
			canonical, asOf.In(models.Exchange).Format("2006-01-02"))
	}
	return sec, nil
}

// List returns securities of the given types, all when types is empty,
// filtered to those listed on asOf when given, ordered by code.
func (c *Catalog) List(ctx context.Context, types []models.SecurityType, asOf *time.Time) ([]models.Security, error) {
	filter := models.SecurityFilter{Types: types}
	all, err := c.reg.ListSecurities(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]models.Security, 0, len(all))
	for _, s := range all {
		if !filter.Match(s.Type) {
			continue
		}
		if asOf != nil && !s.ListedOn(*asOf) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Forget drops one cached entry, or all of them when code is empty.
func (c *Catalog) Forget(canonical string) {
	if canonical == "" {
		c.cache.Purge()
		return
	}
	c.cache.Delete(canonical)
}

func (c *Catalog) record(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCache("securities", hit)
	}
}
