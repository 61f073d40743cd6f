package usecase

import (
	"context"
	"fmt"
	"time"

	"PriceQuery/internal/domain/models"
	domrepo "PriceQuery/internal/domain/repository"
	"PriceQuery/internal/services/calendar"
	"PriceQuery/internal/services/catalog"
)

// ReferenceUseCase serves security metadata and trading days.
type ReferenceUseCase struct {
	catalog  *catalog.Catalog
	calendar *calendar.Service
	metrics  domrepo.Metrics
	now      func() time.Time
}

func NewReferenceUseCase(cat *catalog.Catalog, cal *calendar.Service, metrics domrepo.Metrics) *ReferenceUseCase {
	return &ReferenceUseCase{catalog: cat, calendar: cal, metrics: metrics, now: time.Now}
}

// WithClock replaces the time source used for the default end date.
func (uc *ReferenceUseCase) WithClock(now func() time.Time) *ReferenceUseCase {
	uc.now = now
	return uc
}

func (uc *ReferenceUseCase) GetSecurityInfo(ctx context.Context, raw string, date *models.TimeArg) (models.Security, error) {
	defer uc.observe("get_security_info", time.Now())
	return uc.catalog.Info(ctx, raw, asOf(date))
}

func (uc *ReferenceUseCase) GetAllSecurities(ctx context.Context, types []models.SecurityType, date *models.TimeArg) ([]models.Security, error) {
	defer uc.observe("get_all_securities", time.Now())
	return uc.catalog.List(ctx, types, asOf(date))
}

// GetTradeDays lists trading days by range or trailing count. End defaults
// to today; with neither start nor count every day up to end is returned.
func (uc *ReferenceUseCase) GetTradeDays(ctx context.Context, q models.TradeDaysQuery) ([]time.Time, error) {
	defer uc.observe("get_trade_days", time.Now())
	if q.Start != nil && q.Count != nil {
		return nil, fmt.Errorf("%w: start_date and count are mutually exclusive", models.ErrConflictingArgs)
	}
	end := models.DayOf(uc.now())
	if q.End != nil {
		end = q.End.Time
	}
	snap, err := uc.calendar.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case q.Count != nil:
		return snap.TrailingDays(end, *q.Count)
	case q.Start != nil:
		return snap.DaysInRange(q.Start.Time, end)
	default:
		return snap.DaysInRange(time.Time{}, end)
	}
}

func (uc *ReferenceUseCase) observe(op string, start time.Time) {
	if uc.metrics != nil {
		uc.metrics.RecordLatency(op, time.Since(start).Seconds())
	}
}

func asOf(t *models.TimeArg) *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}
