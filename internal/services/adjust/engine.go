// Package adjust rescales bar prices for splits and dividends using
// cumulative adjustment factors.
package adjust

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"PriceQuery/internal/domain/models"
)

// Series is a cumulative factor series ordered by date.
type Series []models.FactorPoint

// NewSeries copies points and sorts them by date.
func NewSeries(points []models.FactorPoint) Series {
	s := append(Series(nil), points...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
	return s
}

// At returns the factor in effect on the date of t, and false when t
// precedes the first point.
func (s Series) At(t time.Time) (float64, bool) {
	k := models.DayKey(t)
	i := sort.Search(len(s), func(i int) bool { return models.DayKey(s[i].Date) > k })
	if i == 0 {
		return 0, false
	}
	return s[i-1].Factor, true
}

// Option configures Engine.
type Option func(*Engine)

// WithPriceDecimals rounds adjusted prices to n decimals; n < 0 disables it.
func WithPriceDecimals(n int) Option {
	return func(e *Engine) { e.decimals = n }
}

// Engine applies an adjustment mode to a bar series.
type Engine struct {
	decimals int
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{decimals: -1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Adjust returns a rescaled copy of bars. Each bar's factor is its own
// Factor when positive, else the series value at its date; gaps are carried
// from neighbouring bars and default to 1. Under pre the last bar keeps its
// raw prices, under post the first does. Factor is reported unscaled.
func (e *Engine) Adjust(bars []models.Bar, series Series, mode models.AdjustMode) ([]models.Bar, error) {
	out := append([]models.Bar(nil), bars...)
	if len(out) == 0 {
		return out, nil
	}
	factors := resolveFactors(out, series)
	for i := range out {
		out[i].Factor = factors[i]
	}

	var anchor float64
	switch mode {
	case models.AdjustNone, "":
		return out, nil
	case models.AdjustPre:
		anchor = factors[len(factors)-1]
	case models.AdjustPost:
		anchor = factors[0]
	default:
		return nil, fmt.Errorf("%w: adjust mode %q", models.ErrInvalidArgument, mode)
	}

	for i := range out {
		ratio := factors[i] / anchor
		b := &out[i]
		b.Open = e.price(b.Open * ratio)
		b.Close = e.price(b.Close * ratio)
		b.High = e.price(b.High * ratio)
		b.Low = e.price(b.Low * ratio)
		b.Avg = e.price(b.Avg * ratio)
		b.PreClose = e.price(b.PreClose * ratio)
		b.HighLimit = e.price(b.HighLimit * ratio)
		b.LowLimit = e.price(b.LowLimit * ratio)
		b.Volume = b.Volume / ratio
	}
	return out, nil
}

func (e *Engine) price(v float64) float64 {
	if e.decimals < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(int32(e.decimals)).Float64()
	return f
}

func resolveFactors(bars []models.Bar, series Series) []float64 {
	f := make([]float64, len(bars))
	for i := range bars {
		if bars[i].Factor > 0 {
			f[i] = bars[i].Factor
			continue
		}
		if v, ok := series.At(bars[i].Time); ok && v > 0 {
			f[i] = v
		}
	}
	// carry forward, then backward, over rows with no known factor
	last := 0.0
	for i := range f {
		if f[i] > 0 {
			last = f[i]
		} else {
			f[i] = last
		}
	}
	next := 1.0
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] > 0 {
			next = f[i]
		} else {
			f[i] = next
		}
	}
	return f
}
