package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"PriceQuery/internal/domain/models"
)

// MemoryBarStore holds bars in process. Used by tests and local runs.
type MemoryBarStore struct {
	mu    sync.RWMutex
	bars  map[string][]models.Bar
	calls int
}

func NewMemoryBarStore() *MemoryBarStore {
	return &MemoryBarStore{bars: make(map[string][]models.Bar)}
}

func memKey(code string, unit models.Unit) string { return string(unit) + "|" + code }

func (s *MemoryBarStore) FetchBars(_ context.Context, code string, unit models.Unit, from, to time.Time) ([]models.Bar, error) {
	s.mu.Lock()
	s.calls++
	all := s.bars[memKey(code, unit)]
	s.mu.Unlock()

	out := make([]models.Bar, 0, len(all))
	for _, b := range all {
		if !b.Time.Before(from) && !b.Time.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryBarStore) WriteBars(_ context.Context, code string, unit models.Unit, bars []models.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memKey(code, unit)
	byTime := make(map[int64]models.Bar, len(s.bars[k])+len(bars))
	for _, b := range s.bars[k] {
		byTime[b.Time.UnixNano()] = b
	}
	for _, b := range bars {
		byTime[b.Time.UnixNano()] = b
	}
	merged := make([]models.Bar, 0, len(byTime))
	for _, b := range byTime {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Time.Before(merged[j].Time) })
	s.bars[k] = merged
	return nil
}

func (s *MemoryBarStore) LastBarTime(_ context.Context, code string, unit models.Unit) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.bars[memKey(code, unit)]
	if len(all) == 0 {
		return time.Time{}, false, nil
	}
	return all[len(all)-1].Time, true, nil
}

// Calls counts FetchBars invocations.
func (s *MemoryBarStore) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// MemoryReference is an in-process registry, calendar and factor source.
type MemoryReference struct {
	mu      sync.RWMutex
	secs    map[string]models.Security
	days    []time.Time
	factors map[string][]models.FactorPoint
}

func NewMemoryReference() *MemoryReference {
	return &MemoryReference{
		secs:    make(map[string]models.Security),
		factors: make(map[string][]models.FactorPoint),
	}
}

func (r *MemoryReference) AddSecurity(secs ...models.Security) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range secs {
		r.secs[s.Code] = s
	}
}

func (r *MemoryReference) SetTradingDays(days []time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days = append([]time.Time(nil), days...)
}

func (r *MemoryReference) SetFactors(code string, points []models.FactorPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factors[code] = append([]models.FactorPoint(nil), points...)
}

func (r *MemoryReference) LookupSecurity(_ context.Context, code string) (models.Security, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.secs[code]
	if !ok {
		return models.Security{}, fmt.Errorf("%w: %s", models.ErrUnknownSecurity, code)
	}
	return s, nil
}

func (r *MemoryReference) ListSecurities(_ context.Context, filter models.SecurityFilter) ([]models.Security, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Security, 0, len(r.secs))
	for _, s := range r.secs {
		if filter.Match(s.Type) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemoryReference) TradingDays(context.Context) ([]time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]time.Time(nil), r.days...), nil
}

func (r *MemoryReference) Factors(_ context.Context, code string) ([]models.FactorPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.FactorPoint(nil), r.factors[code]...), nil
}
