package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"PriceQuery/internal/domain/models"
	pkgch "PriceQuery/pkg/clickhouse"
	applogger "PriceQuery/pkg/logger"
)

const barColumns = "time, open, close, high, low, volume, money, factor, high_limit, low_limit, avg, pre_close, paused, open_interest"

// CHBarStore reads and writes raw bars in ClickHouse.
type CHBarStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client, database string) *CHBarStore {
	return &CHBarStore{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHBarStore) FetchBars(ctx context.Context, code string, unit models.Unit, from, to time.Time) ([]models.Bar, error) {
	start := time.Now()
	table, err := s.tableFor(unit)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE code = ? AND time >= ? AND time <= ?
        ORDER BY time ASC
    `, barColumns, table)
	rows, err := s.db.QueryContext(ctx, q, code, from, to)
	if err != nil {
		s.logErr("clickhouse fetch_bars query error", table, code, err)
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 256)
	for rows.Next() {
		var (
			b      models.Bar
			paused uint8
		)
		if err := rows.Scan(&b.Time, &b.Open, &b.Close, &b.High, &b.Low, &b.Volume, &b.Money, &b.Factor,
			&b.HighLimit, &b.LowLimit, &b.Avg, &b.PreClose, &paused, &b.OpenInterest); err != nil {
			s.logErr("clickhouse fetch_bars scan error", table, code, err)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = b.Time.In(models.Exchange)
		b.Paused = paused != 0
		if b.Paused {
			b.Status = models.StatusPaused
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		s.logErr("clickhouse fetch_bars rows error", table, code, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse fetch_bars ok",
			applogger.String("table", table),
			applogger.String("code", code),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// WriteBars inserts bars in chunks of multi-row VALUES.
func (s *CHBarStore) WriteBars(ctx context.Context, code string, unit models.Unit, bars []models.Bar) error {
	table, err := s.tableFor(unit)
	if err != nil {
		return err
	}
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := min(start+chunkSize, len(bars))
		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*15)
		for _, b := range bars[start:end] {
			var paused uint8
			if b.Paused {
				paused = 1
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, code, b.Time, b.Open, b.Close, b.High, b.Low, b.Volume, b.Money, b.Factor,
				b.HighLimit, b.LowLimit, b.Avg, b.PreClose, paused, b.OpenInterest)
		}
		q := fmt.Sprintf("INSERT INTO %s (code, %s) VALUES %s", table, barColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.logErr("clickhouse write_bars error", table, code, err)
			return fmt.Errorf("write bars: %w", err)
		}
	}
	return nil
}

func (s *CHBarStore) tableFor(unit models.Unit) (string, error) {
	switch unit {
	case models.UnitDay:
		return s.database + ".bars_1d", nil
	case models.UnitMinute:
		return s.database + ".bars_1m", nil
	default:
		return "", fmt.Errorf("%w: unit %q", models.ErrInvalidArgument, unit)
	}
}

func (s *CHBarStore) logErr(msg, table, code string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error(msg,
		applogger.String("table", table),
		applogger.String("code", code),
		applogger.Error(err),
	)
}
