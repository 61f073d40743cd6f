package calendar

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	domrepo "PriceQuery/internal/domain/repository"
	applogger "PriceQuery/pkg/logger"
)

// Service owns the process-wide calendar snapshot. The first call to
// Snapshot loads it; Refresh swaps in a new one without blocking readers.
type Service struct {
	src     domrepo.CalendarSource
	horizon domrepo.HorizonProvider
	l       *applogger.Logger

	snap   atomic.Pointer[Snapshot]
	loadMu sync.Mutex
}

func NewService(src domrepo.CalendarSource, horizon domrepo.HorizonProvider, l *applogger.Logger) *Service {
	return &Service{src: src, horizon: horizon, l: l}
}

// Snapshot returns the current calendar, loading it on first use.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := s.snap.Load(); snap != nil {
		return snap, nil
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if snap := s.snap.Load(); snap != nil {
		return snap, nil
	}
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.snap.Store(snap)
	return snap, nil
}

// Refresh reloads the calendar and replaces the cached snapshot.
func (s *Service) Refresh(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	snap, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.snap.Store(snap)
	return nil
}

func (s *Service) load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	horizon, err := s.horizon.Horizon(ctx)
	if err != nil {
		return nil, fmt.Errorf("calendar horizon: %w", err)
	}
	days, err := s.src.TradingDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trading days: %w", err)
	}
	snap := NewSnapshot(days, horizon)
	if s.l != nil {
		s.l.Info("calendar loaded",
			applogger.Int("days", len(snap.days)),
			applogger.String("horizon", snap.horizon.Format("2006-01-02")),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return snap, nil
}
