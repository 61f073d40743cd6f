// Package paused decides what happens to rows on which a security did not
// trade: suspended, not yet listed, or already delisted.
package paused

import (
	"fmt"
	"math"

	"PriceQuery/internal/domain/models"
)

// Apply handles the non-trading rows of one security's series.
//
// skip drops them. Otherwise, with fill the price fields take the previous
// row's close and volume and money become zero; without fill price, volume
// and money become NaN. Either way the row is flagged paused. The first row
// has no previous close and falls back to its own pre_close.
func Apply(rows []models.Bar, skip, fill bool) []models.Bar {
	out := make([]models.Bar, 0, len(rows))
	prevClose := math.NaN()
	for i, r := range rows {
		if r.Trading() {
			out = append(out, r)
			prevClose = r.Close
			continue
		}
		if skip {
			continue
		}
		if i == 0 && r.PreClose > 0 {
			prevClose = r.PreClose
		}
		r.Paused = true
		if fill {
			r.Open, r.Close, r.High, r.Low, r.Avg = prevClose, prevClose, prevClose, prevClose, prevClose
			r.Volume, r.Money = 0, 0
		} else {
			nan := math.NaN()
			r.Open, r.Close, r.High, r.Low, r.Avg = nan, nan, nan, nan, nan
			r.Volume, r.Money = nan, nan
		}
		out = append(out, r)
	}
	return out
}

// ValidateShape rejects skipping rows in a panel over several securities:
// each security would drop different rows and the shared time axis breaks.
// An empty shape is the panel default.
func ValidateShape(skip bool, shape models.OutputShape, securities int) error {
	if skip && shape != models.ShapeFlat && securities > 1 {
		return fmt.Errorf("%w: skip_paused needs the flat shape for %d securities", models.ErrIncompatibleOptions, securities)
	}
	return nil
}
