// Package resample aggregates minimal-granularity bars into multi-unit bars.
package resample

import (
	"math"

	"PriceQuery/internal/domain/models"
)

// Resample groups bars into runs of freq.Multiplier consecutive rows,
// anchored at the end of the series so only the earliest group can be short.
// Bars must already lie on the calendar timeline of freq.Unit, one row per
// trading day or grid minute, so a minute run spans the close-to-open gap
// like any other. A multiplier of 1 returns bars unchanged.
func Resample(bars []models.Bar, freq models.Frequency) []models.Bar {
	multiplier := freq.Multiplier
	if multiplier <= 1 || len(bars) == 0 {
		return bars
	}
	n := (len(bars) + multiplier - 1) / multiplier
	out := make([]models.Bar, n)
	end := len(bars)
	for g := n - 1; g >= 0; g-- {
		start := end - multiplier
		if start < 0 {
			start = 0
		}
		out[g] = aggregate(bars[start:end])
		end = start
	}
	return out
}

// aggregate folds the trading rows of a group. A group with no trading row
// becomes a paused row. The group is stamped with its last unit.
func aggregate(group []models.Bar) models.Bar {
	last := group[len(group)-1]
	nan := math.NaN()
	out := models.Bar{
		Time: last.Time, Factor: last.Factor,
		HighLimit: nan, LowLimit: nan, Avg: nan, PreClose: nan, OpenInterest: nan,
	}

	traded := 0
	for i := range group {
		b := &group[i]
		if !b.Trading() {
			continue
		}
		if traded == 0 {
			out.Open, out.High, out.Low = b.Open, b.High, b.Low
		}
		out.Close = b.Close
		out.High = math.Max(out.High, b.High)
		out.Low = math.Min(out.Low, b.Low)
		out.Volume += b.Volume
		out.Money += b.Money
		out.Factor = b.Factor
		traded++
	}
	if traded == 0 {
		status := last.Status
		if status == models.StatusTrading {
			status = models.StatusPaused
		}
		out.Open, out.Close, out.High, out.Low = nan, nan, nan, nan
		out.Paused = true
		out.Status = status
	}
	return out
}
