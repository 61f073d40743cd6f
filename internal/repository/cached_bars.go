package repository

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"PriceQuery/internal/domain/models"
	domrepo "PriceQuery/internal/domain/repository"
	pkgcache "PriceQuery/pkg/cache"
	applogger "PriceQuery/pkg/logger"
)

// nfloat encodes NaN as JSON null.
type nfloat float64

func (f nfloat) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(f), 'g', -1, 64), nil
}

func (f *nfloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = nfloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	*f = nfloat(v)
	return err
}

// cachedBar is the cache encoding of a bar: unix millis plus every numeric
// field in Bar order.
type cachedBar struct {
	T int64      `json:"t"`
	V [12]nfloat `json:"v"`
	P bool       `json:"p,omitempty"`
}

func encodeBars(bars []models.Bar) []cachedBar {
	out := make([]cachedBar, len(bars))
	for i, b := range bars {
		out[i] = cachedBar{T: b.Time.UnixMilli(), P: b.Paused, V: [12]nfloat{
			nfloat(b.Open), nfloat(b.Close), nfloat(b.High), nfloat(b.Low),
			nfloat(b.Volume), nfloat(b.Money), nfloat(b.Factor), nfloat(b.HighLimit),
			nfloat(b.LowLimit), nfloat(b.Avg), nfloat(b.PreClose), nfloat(b.OpenInterest),
		}}
	}
	return out
}

func decodeBars(in []cachedBar) []models.Bar {
	out := make([]models.Bar, len(in))
	for i, c := range in {
		v := c.V
		out[i] = models.Bar{
			Time: time.UnixMilli(c.T).In(models.Exchange),
			Open: float64(v[0]), Close: float64(v[1]), High: float64(v[2]), Low: float64(v[3]),
			Volume: float64(v[4]), Money: float64(v[5]), Factor: float64(v[6]), HighLimit: float64(v[7]),
			LowLimit: float64(v[8]), Avg: float64(v[9]), PreClose: float64(v[10]), OpenInterest: float64(v[11]),
			Paused: c.P,
		}
		if c.P {
			out[i].Status = models.StatusPaused
		}
	}
	return out
}

// CachedBarStore is a read-through cache over another bar store.
type CachedBarStore struct {
	next    domrepo.BarStore
	cache   pkgcache.Service
	ttl     time.Duration
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewCachedBarStore(next domrepo.BarStore, cache pkgcache.Service, ttl time.Duration, metrics domrepo.Metrics) *CachedBarStore {
	return &CachedBarStore{next: next, cache: cache, ttl: ttl, metrics: metrics}
}

func (s *CachedBarStore) SetLogger(l *applogger.Logger) { s.l = l }

func barKey(code string, unit models.Unit, from, to time.Time) string {
	return pkgcache.GenerateKeyWithParams("bars", unit, code, from.UnixMilli(), to.UnixMilli())
}

func (s *CachedBarStore) FetchBars(ctx context.Context, code string, unit models.Unit, from, to time.Time) ([]models.Bar, error) {
	key := barKey(code, unit, from, to)
	cached, err := pkgcache.GetTyped[[]cachedBar](ctx, s.cache, key)
	if err == nil {
		s.record(true)
		return decodeBars(cached), nil
	}
	if !errors.Is(err, pkgcache.ErrCacheMiss) && s.l != nil {
		s.l.Warn("bar cache get failed", applogger.String("key", key), applogger.Error(err))
	}
	s.record(false)

	bars, err := s.next.FetchBars(ctx, code, unit, from, to)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, encodeBars(bars), s.ttl); err != nil && s.l != nil {
		s.l.Warn("bar cache set failed", applogger.String("key", key), applogger.Error(err))
	}
	return bars, nil
}

// Invalidate drops every cached range of code.
func (s *CachedBarStore) Invalidate(ctx context.Context, code string) error {
	var firstErr error
	for _, unit := range []models.Unit{models.UnitDay, models.UnitMinute} {
		pattern := pkgcache.BuildPattern(pkgcache.GenerateKeyWithParams("bars", unit, code) + ":")
		if err := s.cache.DeleteByPattern(ctx, pattern); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *CachedBarStore) record(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCache("bars", hit)
	}
}
