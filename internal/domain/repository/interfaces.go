package repository

import (
	"context"
	"time"

	"PriceQuery/internal/domain/models"
)

// BarStore is the source of minimal-granularity bars. FetchBars returns the
// bars of code with from <= Time <= to in ascending order.
type BarStore interface {
	FetchBars(ctx context.Context, code string, unit models.Unit, from, to time.Time) ([]models.Bar, error)
}

// BarWriter persists raw bars for one security.
type BarWriter interface {
	WriteBars(ctx context.Context, code string, unit models.Unit, bars []models.Bar) error
}

// BarSink is a BarWriter that knows the newest bar it holds. ok is false
// when nothing is stored for code at unit.
type BarSink interface {
	BarWriter
	LastBarTime(ctx context.Context, code string, unit models.Unit) (t time.Time, ok bool, err error)
}

// SecurityRegistry is the registry persistence. LookupSecurity fails with
// models.ErrUnknownSecurity when code is not registered.
type SecurityRegistry interface {
	LookupSecurity(ctx context.Context, code string) (models.Security, error)
	ListSecurities(ctx context.Context, filter models.SecurityFilter) ([]models.Security, error)
}

// CalendarSource yields every known trading date.
type CalendarSource interface {
	TradingDays(ctx context.Context) ([]time.Time, error)
}

// HorizonProvider bounds how far the calendar may be trusted.
type HorizonProvider interface {
	Horizon(ctx context.Context) (time.Time, error)
}

// FactorSource yields the cumulative adjustment factor series of a security,
// ordered by date.
type FactorSource interface {
	Factors(ctx context.Context, code string) ([]models.FactorPoint, error)
}

// AuditPublisher ships query audit events.
type AuditPublisher interface {
	PublishQuery(ctx context.Context, ev models.QueryAudit) error
}

type Metrics interface {
	RecordQuery(op string, codes int, seconds float64)
	RecordBarsFetched(unit string, n int)
	RecordError(kind string)
	RecordRefresh(kind string)
	RecordCache(name string, hit bool)
	RecordLatency(op string, seconds float64)
}
