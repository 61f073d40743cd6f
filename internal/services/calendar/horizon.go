package calendar

import (
	"context"
	"time"

	"PriceQuery/internal/domain/models"
)

// YearEndHorizon trusts calendar data up to 31 December of the current year.
type YearEndHorizon struct {
	Now func() time.Time
}

func (h YearEndHorizon) Horizon(context.Context) (time.Time, error) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return models.Date(now().In(models.Exchange).Year(), time.December, 31), nil
}
