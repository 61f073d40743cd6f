package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"PriceQuery/internal/domain/models"
	domrepo "PriceQuery/internal/domain/repository"
	"PriceQuery/internal/services/adjust"
	"PriceQuery/internal/services/calendar"
	"PriceQuery/internal/services/catalog"
	"PriceQuery/internal/services/code"
	pkgkafka "PriceQuery/pkg/kafka"
	applogger "PriceQuery/pkg/logger"
)

// Refresh kinds.
const (
	RefreshCalendar   = "calendar"
	RefreshFactors    = "factors"
	RefreshSecurities = "securities"
	RefreshBars       = "bars"
)

// BarInvalidator drops cached bars of one security.
type BarInvalidator interface {
	Invalidate(ctx context.Context, code string) error
}

// RefreshUseCase swaps reference-data snapshots. It is driven by the admin
// endpoint and by the refresh topic.
type RefreshUseCase struct {
	topic    string
	calendar *calendar.Service
	factors  *adjust.FactorCache
	catalog  *catalog.Catalog
	bars     BarInvalidator
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

func NewRefreshUseCase(topic string, cal *calendar.Service, factors *adjust.FactorCache, cat *catalog.Catalog,
	bars BarInvalidator, metrics domrepo.Metrics, l *applogger.Logger) *RefreshUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &RefreshUseCase{topic: topic, calendar: cal, factors: factors, catalog: cat, bars: bars, metrics: metrics, l: l}
}

// Refresh applies one refresh. An empty code means every security.
func (uc *RefreshUseCase) Refresh(ctx context.Context, kind, raw string) error {
	canonical := ""
	if raw != "" {
		c, err := code.Normalize(raw)
		if err != nil {
			return err
		}
		canonical = c
	}

	switch kind {
	case RefreshCalendar:
		if err := uc.calendar.Refresh(ctx); err != nil {
			return err
		}
	case RefreshFactors:
		if canonical == "" {
			uc.factors.Reset()
		} else {
			uc.factors.Invalidate(canonical)
		}
	case RefreshSecurities:
		uc.catalog.Forget(canonical)
	case RefreshBars:
		if canonical == "" {
			return fmt.Errorf("%w: bars refresh needs a code", models.ErrInvalidArgument)
		}
		if uc.bars != nil {
			if err := uc.bars.Invalidate(ctx, canonical); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: refresh kind %q", models.ErrInvalidArgument, kind)
	}

	if uc.metrics != nil {
		uc.metrics.RecordRefresh(kind)
	}
	uc.l.Info("reference data refreshed", applogger.String("kind", kind), applogger.String("code", canonical))
	return nil
}

func (uc *RefreshUseCase) Topic() string { return uc.topic }

// Handle consumes {"kind": "...", "code": "..."}. Upstream feeds may send
// the code as a JSON integer, which is zero-padded to six digits.
func (uc *RefreshUseCase) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Kind string          `json:"kind"`
		Code json.RawMessage `json:"code"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordError("refresh_unmarshal")
		}
		return err
	}
	raw, err := messageCode(m.Code)
	if err != nil {
		return err
	}
	return uc.Refresh(ctx, m.Kind, raw)
}

func messageCode(v json.RawMessage) (string, error) {
	if len(v) == 0 || string(v) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var n int
	if err := json.Unmarshal(v, &n); err != nil {
		return "", fmt.Errorf("%w: code %s", models.ErrInvalidCode, v)
	}
	return code.FromInt(n)
}

var _ pkgkafka.MessageHandler = (*RefreshUseCase)(nil)
