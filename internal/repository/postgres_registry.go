package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"PriceQuery/internal/domain/models"
	applogger "PriceQuery/pkg/logger"
)

// PostgresSchema creates the registry table.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS securities (
    code         TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    name         TEXT NOT NULL,
    start_date   DATE NOT NULL,
    end_date     DATE NOT NULL,
    type         TEXT NOT NULL,
    parent       TEXT NOT NULL DEFAULT ''
)`

// PGRegistry serves the security registry from Postgres.
type PGRegistry struct {
	pool *pgxpool.Pool
	l    *applogger.Logger
}

func NewPGRegistry(ctx context.Context, dsn string, maxConns int32) (*PGRegistry, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return &PGRegistry{pool: pool}, nil
}

func (r *PGRegistry) SetLogger(l *applogger.Logger) { r.l = l }

// InitSchema applies PostgresSchema.
func (r *PGRegistry) InitSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, PostgresSchema)
	return err
}

func (r *PGRegistry) Health(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PGRegistry) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

func (r *PGRegistry) LookupSecurity(ctx context.Context, code string) (models.Security, error) {
	const query = `
		SELECT code, display_name, name, start_date, end_date, type, parent
		FROM securities
		WHERE code = $1`

	sec, err := scanSecurity(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Security{}, fmt.Errorf("%w: %s", models.ErrUnknownSecurity, code)
		}
		if r.l != nil {
			r.l.Error("postgres lookup_security error", applogger.String("code", code), applogger.Error(err))
		}
		return models.Security{}, fmt.Errorf("lookup security: %w", err)
	}
	return sec, nil
}

func (r *PGRegistry) ListSecurities(ctx context.Context, filter models.SecurityFilter) ([]models.Security, error) {
	const query = `
		SELECT code, display_name, name, start_date, end_date, type, parent
		FROM securities
		WHERE cardinality($1::text[]) = 0 OR type = ANY($1)
		ORDER BY code`

	start := time.Now()
	types := make([]string, len(filter.Types))
	for i, t := range filter.Types {
		types[i] = string(t)
	}
	rows, err := r.pool.Query(ctx, query, types)
	if err != nil {
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
		return nil, err
	}
	if r.l != nil {
		r.l.Debug("postgres list_securities ok",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// UpsertSecurities writes secs in one batch.
func (r *PGRegistry) UpsertSecurities(ctx context.Context, secs []models.Security) error {
	batch := &pgx.Batch{}
	for _, s := range secs {
		batch.Queue(`
			INSERT INTO securities (code, display_name, name, start_date, end_date, type, parent)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (code) DO UPDATE
			SET display_name = EXCLUDED.display_name,
			    name = EXCLUDED.name,
			    start_date = EXCLUDED.start_date,
			    end_date = EXCLUDED.end_date,
			    type = EXCLUDED.type,
			    parent = EXCLUDED.parent`,
			s.Code, s.DisplayName, s.Name, s.StartDate, s.EndDate, string(s.Type), s.Parent,
		)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}
