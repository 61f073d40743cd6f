package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"PriceQuery/internal/domain/models"
	pkgch "PriceQuery/pkg/clickhouse"
	applogger "PriceQuery/pkg/logger"
)

// CHReference serves the registry, the trading calendar and adjustment
// factors out of ClickHouse.
type CHReference struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHReference(ch *pkgch.Client, database string) *CHReference {
	return &CHReference{db: ch.DB(), database: database}
}

func (r *CHReference) SetLogger(l *applogger.Logger) { r.l = l }

const securityColumns = "code, display_name, name, start_date, end_date, type, parent"

func (r *CHReference) LookupSecurity(ctx context.Context, code string) (models.Security, error) {
	q := fmt.Sprintf("SELECT %s FROM %s.securities WHERE code = ? LIMIT 1", securityColumns, r.database)
	sec, err := scanSecurity(r.db.QueryRowContext(ctx, q, code))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Security{}, fmt.Errorf("%w: %s", models.ErrUnknownSecurity, code)
	}
	if err != nil {
		r.logErr("clickhouse lookup_security error", err, applogger.String("code", code))
		return models.Security{}, fmt.Errorf("lookup security: %w", err)
	}
	return sec, nil
}

func (r *CHReference) ListSecurities(ctx context.Context, filter models.SecurityFilter) ([]models.Security, error) {
	start := time.Now()
	q := fmt.Sprintf("SELECT %s FROM %s.securities", securityColumns, r.database)
	args := make([]any, 0, len(filter.Types))
	if len(filter.Types) > 0 {
		marks := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			marks[i] = "?"
			args = append(args, string(t))
		}
		q += " WHERE type IN (" + strings.Join(marks, ", ") + ")"
	}
	q += " ORDER BY code"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		r.logErr("clickhouse list_securities query error", err)
		return nil, fmt.Errorf("list securities: %w", err)
	}
	defer rows.Close()

	var out []models.Security
	for rows.Next() {
		sec, err := scanSecurity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan security: %w", err)
		}
		out = append(out, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if r.l != nil {
		r.l.Debug("clickhouse list_securities ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (r *CHReference) TradingDays(ctx context.Context) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT date FROM %s.trade_days ORDER BY date", r.database))
	if err != nil {
		r.logErr("clickhouse trade_days query error", err)
		return nil, fmt.Errorf("trade days: %w", err)
	}
	defer rows.Close()

	out := make([]time.Time, 0, 8192)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan trade day: %w", err)
		}
		out = append(out, asDay(d))
	}
	return out, rows.Err()
}

func (r *CHReference) Factors(ctx context.Context, code string) ([]models.FactorPoint, error) {
	q := fmt.Sprintf("SELECT date, factor FROM %s.adj_factors WHERE code = ? ORDER BY date", r.database)
	rows, err := r.db.QueryContext(ctx, q, code)
	if err != nil {
		r.logErr("clickhouse factors query error", err, applogger.String("code", code))
		return nil, fmt.Errorf("factors: %w", err)
	}
	defer rows.Close()

	var out []models.FactorPoint
	for rows.Next() {
		var p models.FactorPoint
		if err := rows.Scan(&p.Date, &p.Factor); err != nil {
			return nil, fmt.Errorf("scan factor: %w", err)
		}
		p.Date = asDay(p.Date)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CHReference) logErr(msg string, err error, fields ...applogger.Field) {
	if r.l != nil {
		r.l.Error(msg, append(fields, applogger.Error(err))...)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSecurity(row rowScanner) (models.Security, error) {
	var (
		s     models.Security
		typ   string
		start time.Time
		end   time.Time
	)
	if err := row.Scan(&s.Code, &s.DisplayName, &s.Name, &start, &end, &typ, &s.Parent); err != nil {
		return models.Security{}, err
	}
	s.StartDate, s.EndDate = asDay(start), asDay(end)
	s.Type = models.SecurityType(typ)
	return s, nil
}

// asDay keeps the calendar date a driver returned, whatever zone it used.
func asDay(t time.Time) time.Time {
	return models.Date(t.Year(), t.Month(), t.Day())
}
