// Package quality checks raw bar series before they are exported.
package quality

import (
	"fmt"
	"math"
	"time"

	"PriceQuery/internal/domain/models"
)

// Thresholds applied by Validate.
const (
	MinRows         = 10
	MaxNullRatio    = 0.1
	MinCompleteness = 0.8
	maxListedGaps   = 5
)

// Report is the outcome of Validate. Valid is false iff Errors is non-empty.
type Report struct {
	Valid        bool     `json:"valid"`
	Rows         int      `json:"rows"`
	Completeness float64  `json:"completeness"`
	Errors       []string `json:"errors"`
	Warnings     []string `json:"warnings"`
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

var checked = []string{models.FieldOpen, models.FieldHigh, models.FieldLow, models.FieldClose, models.FieldVolume}

// Validate inspects bars, ascending in time, against the trading days that
// should be covered.
func Validate(bars []models.Bar, days []time.Time) Report {
	r := Report{Rows: len(bars), Errors: []string{}, Warnings: []string{}}
	if len(bars) < MinRows {
		r.errorf("insufficient data: %d rows, need %d", len(bars), MinRows)
	}

	traded := make([]*models.Bar, 0, len(bars))
	for i := range bars {
		if !bars[i].Paused {
			traded = append(traded, &bars[i])
		}
	}
	r.Completeness = completeness(&r, traded)
	if len(traded) > 0 && r.Completeness < MinCompleteness {
		r.warnf("low completeness %.2f", r.Completeness)
	}

	checkPrices(&r, traded)
	checkContinuity(&r, bars, days)
	r.Valid = len(r.Errors) == 0
	return r
}

func completeness(r *Report, traded []*models.Bar) float64 {
	if len(traded) == 0 {
		return 0
	}
	total := 0.0
	for _, f := range checked {
		present := 0
		for _, b := range traded {
			if v := b.Value(f); !math.IsNaN(v) {
				present++
			}
		}
		ratio := float64(present) / float64(len(traded))
		if 1-ratio > MaxNullRatio {
			r.warnf("%s missing in %.0f%% of rows", f, (1-ratio)*100)
		}
		total += ratio
	}
	return total / float64(len(checked))
}

func checkPrices(r *Report, traded []*models.Bar) {
	var nonPositive, inverted int
	for _, b := range traded {
		if b.Open <= 0 || b.Close <= 0 {
			nonPositive++
		}
		if b.High < b.Low || b.High < b.Open || b.High < b.Close {
			inverted++
		}
	}
	if nonPositive > 0 {
		r.errorf("%d rows with non-positive open or close", nonPositive)
	}
	if inverted > 0 {
		r.errorf("%d rows with high below low, open or close", inverted)
	}
}

func checkContinuity(r *Report, bars []models.Bar, days []time.Time) {
	if len(bars) == 0 || len(days) == 0 {
		return
	}
	have := make(map[int]struct{}, len(bars))
	for _, b := range bars {
		have[models.DayKey(b.Time)] = struct{}{}
	}
	first, last := models.DayKey(bars[0].Time), models.DayKey(bars[len(bars)-1].Time)
	var missing []string
	count := 0
	for _, d := range days {
		k := models.DayKey(d)
		if k < first || k > last {
			continue
		}
		if _, ok := have[k]; ok {
			continue
		}
		count++
		if len(missing) < maxListedGaps {
			missing = append(missing, d.Format("2006-01-02"))
		}
	}
	if count > 0 {
		r.warnf("%d trading days without data, first %v", count, missing)
	}
}
