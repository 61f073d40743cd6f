package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unit is the minimal sampling granularity.
type Unit string

const (
	UnitDay    Unit = "d"
	UnitMinute Unit = "m"
)

// Frequency is Multiplier consecutive units combined into one output bar.
type Frequency struct {
	Multiplier int
	Unit       Unit
}

var (
	Daily  = Frequency{Multiplier: 1, Unit: UnitDay}
	Minute = Frequency{Multiplier: 1, Unit: UnitMinute}
)

// ParseFrequency accepts "daily", "minute", "Xd" and "Xm".
func ParseFrequency(s string) (Frequency, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "daily":
		return Daily, nil
	case "minute":
		return Minute, nil
	}
	if len(s) < 2 {
		return Frequency{}, fmt.Errorf("%w: frequency %q", ErrInvalidArgument, s)
	}
	unit := Unit(s[len(s)-1:])
	if unit != UnitDay && unit != UnitMinute {
		return Frequency{}, fmt.Errorf("%w: frequency %q", ErrInvalidArgument, s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Frequency{}, fmt.Errorf("%w: frequency %q", ErrInvalidArgument, s)
	}
	return Frequency{Multiplier: n, Unit: unit}, nil
}

func (f Frequency) String() string {
	return strconv.Itoa(f.Multiplier) + string(f.Unit)
}

// AdjustMode selects how historical prices are rescaled.
type AdjustMode string

const (
	AdjustNone AdjustMode = "none"
	AdjustPre  AdjustMode = "pre"
	AdjustPost AdjustMode = "post"
)

// ParseAdjustMode maps "" and "none" to AdjustNone.
func ParseAdjustMode(s string) (AdjustMode, error) {
	switch m := AdjustMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", AdjustNone:
		return AdjustNone, nil
	case AdjustPre, AdjustPost:
		return m, nil
	default:
		return "", fmt.Errorf("%w: fq %q", ErrInvalidArgument, s)
	}
}

// OutputShape selects how a multi-security result is laid out.
type OutputShape string

const (
	// ShapePanel is one table per field, columned by security.
	ShapePanel OutputShape = "panel"
	// ShapeFlat is one long table with a security column.
	ShapeFlat OutputShape = "flat"
)

// PriceQuery is a get-price request. Build it with NewPriceQuery to get the
// platform defaults.
type PriceQuery struct {
	Codes      []string
	Start      *TimeArg
	End        *TimeArg
	Count      *int
	Frequency  Frequency
	Fields     []string
	SkipPaused bool
	FillPaused bool
	Adjust     AdjustMode
	Shape      OutputShape
}

var (
	DefaultStart = On(2015, time.January, 1)
	DefaultEnd   = On(2015, time.December, 31)
)

// NewPriceQuery returns a query for codes with every option at its default.
func NewPriceQuery(codes ...string) PriceQuery {
	return PriceQuery{
		Codes:      codes,
		Frequency:  Daily,
		Fields:     append([]string(nil), DefaultFields...),
		FillPaused: true,
		Adjust:     AdjustPre,
		Shape:      ShapePanel,
	}
}

// TradeDaysQuery asks for trading dates by range or trailing count.
type TradeDaysQuery struct {
	Start *TimeArg
	End   *TimeArg
	Count *int
}

// IntPtr is a small helper for optional counts.
func IntPtr(n int) *int { return &n }
