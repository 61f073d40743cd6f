package usecase

import (
	"context"
	"fmt"
	"time"

	"PriceQuery/internal/domain/models"
	domrepo "PriceQuery/internal/domain/repository"
	"PriceQuery/internal/services/calendar"
	"PriceQuery/internal/services/code"
	"PriceQuery/internal/services/quality"
	applogger "PriceQuery/pkg/logger"
)

// ExportUseCase copies raw bars from the query store into a file store and
// reports on their quality.
type ExportUseCase struct {
	source   domrepo.BarStore
	sink     domrepo.BarSink
	calendar *calendar.Service
	l        *applogger.Logger
}

func NewExportUseCase(source domrepo.BarStore, sink domrepo.BarSink, cal *calendar.Service, l *applogger.Logger) *ExportUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &ExportUseCase{source: source, sink: sink, calendar: cal, l: l}
}

// Export writes bars of raw between start and end and returns the quality
// report. Nothing is written when there are no bars.
func (uc *ExportUseCase) Export(ctx context.Context, raw string, unit models.Unit, start, end time.Time) (*quality.Report, error) {
	canonical, err := code.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if unit != models.UnitDay && unit != models.UnitMinute {
		return nil, fmt.Errorf("%w: unit %q", models.ErrInvalidArgument, unit)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end before start", models.ErrInvalidArgument)
	}

	snap, err := uc.calendar.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	days, err := snap.DaysInRange(start, end)
	if err != nil {
		return nil, err
	}
	bars, err := uc.source.FetchBars(ctx, canonical, unit, start, end)
	if err != nil {
		return nil, err
	}

	report := quality.Validate(bars, days)
	if len(bars) > 0 {
		if err := uc.sink.WriteBars(ctx, canonical, unit, bars); err != nil {
			return nil, err
		}
	}
	uc.l.Info("bars exported",
		applogger.String("code", canonical),
		applogger.String("unit", string(unit)),
		applogger.Int("rows", len(bars)),
		applogger.Bool("valid", report.Valid),
		applogger.Int("warnings", len(report.Warnings)),
	)
	return &report, nil
}

// ExportNew is Export starting after the newest bar the sink already holds
// for raw. With an empty sink it exports from start.
func (uc *ExportUseCase) ExportNew(ctx context.Context, raw string, unit models.Unit, start, end time.Time) (*quality.Report, error) {
	canonical, err := code.Normalize(raw)
	if err != nil {
		return nil, err
	}
	last, ok, err := uc.sink.LastBarTime(ctx, canonical, unit)
	if err != nil {
		return nil, err
	}
	if ok && !last.Before(start) {
		if unit == models.UnitDay {
			start = models.DayOf(last).AddDate(0, 0, 1)
		} else {
			start = last.Add(time.Nanosecond)
		}
	}
	if end.Before(start) {
		uc.l.Debug("export up to date", applogger.String("code", canonical), applogger.String("unit", string(unit)))
		return &quality.Report{Valid: true, Errors: []string{}, Warnings: []string{}}, nil
	}
	return uc.Export(ctx, canonical, unit, start, end)
}
