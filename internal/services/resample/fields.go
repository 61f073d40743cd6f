package resample

import (
	"fmt"

	"PriceQuery/internal/domain/models"
)

// aggregable are the only fields defined once bars are combined.
var aggregable = fieldSet(models.FieldOpen, models.FieldClose, models.FieldHigh,
	models.FieldLow, models.FieldVolume, models.FieldMoney)

// unitFields are available at multiplier 1 for every asset class.
var unitFields = fieldSet(models.FieldOpen, models.FieldClose, models.FieldHigh,
	models.FieldLow, models.FieldVolume, models.FieldMoney, models.FieldFactor,
	models.FieldHighLimit, models.FieldLowLimit, models.FieldAvg,
	models.FieldPreClose, models.FieldPaused)

// futuresFields adds what only futures carry.
var futuresFields = fieldSet(models.FieldOpenInterest)

func fieldSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// Allowed reports whether field may be requested at multiplier for a
// security of type t.
func Allowed(field string, multiplier int, t models.SecurityType) bool {
	if multiplier > 1 {
		_, ok := aggregable[field]
		return ok
	}
	if _, ok := unitFields[field]; ok {
		return true
	}
	if t == models.TypeFutures {
		_, ok := futuresFields[field]
		return ok
	}
	return false
}

// ValidateFields fails with ErrUnsupportedField on the first field not
// allowed at multiplier for t.
func ValidateFields(fields []string, multiplier int, t models.SecurityType) error {
	for _, f := range fields {
		if !Allowed(f, multiplier, t) {
			if multiplier > 1 {
				return fmt.Errorf("%w: %q is not aggregable at multiplier %d", models.ErrUnsupportedField, f, multiplier)
			}
			return fmt.Errorf("%w: %q for %s", models.ErrUnsupportedField, f, t)
		}
	}
	return nil
}
