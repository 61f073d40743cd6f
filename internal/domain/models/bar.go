package models

import (
	"math"
	"time"
)

// BarStatus tells why a row did or did not trade.
type BarStatus uint8

const (
	StatusTrading BarStatus = iota
	StatusPaused
	StatusNotListed
	StatusDelisted
)

func (s BarStatus) String() string {
	switch s {
	case StatusTrading:
		return "trading"
	case StatusPaused:
		return "paused"
	case StatusNotListed:
		return "not_listed"
	case StatusDelisted:
		return "delisted"
	default:
		return "unknown"
	}
}

// Bar is one sampling unit. Daily bars are stamped at midnight of their date,
// minute bars with the end of their minute. Prices are NaN when unknown.
type Bar struct {
	Time         time.Time `json:"time"`
	Open         float64   `json:"open"`
	Close        float64   `json:"close"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Volume       float64   `json:"volume"`
	Money        float64   `json:"money"`
	Factor       float64   `json:"factor"`
	HighLimit    float64   `json:"high_limit"`
	LowLimit     float64   `json:"low_limit"`
	Avg          float64   `json:"avg"`
	PreClose     float64   `json:"pre_close"`
	Paused       bool      `json:"paused"`
	OpenInterest float64   `json:"open_interest"`
	Status       BarStatus `json:"-"`
}

// Trading reports whether the row carries a real trade.
func (b *Bar) Trading() bool {
	return !b.Paused && b.Status == StatusTrading
}

// Placeholder builds a non-trading row with every numeric field unknown.
func Placeholder(t time.Time, status BarStatus) Bar {
	nan := math.NaN()
	return Bar{
		Time: t, Open: nan, Close: nan, High: nan, Low: nan,
		Volume: nan, Money: nan, HighLimit: nan, LowLimit: nan,
		Avg: nan, PreClose: nan, OpenInterest: nan,
		Paused: true, Status: status,
	}
}

// Field names accepted in a price query.
const (
	FieldOpen         = "open"
	FieldClose        = "close"
	FieldHigh         = "high"
	FieldLow          = "low"
	FieldVolume       = "volume"
	FieldMoney        = "money"
	FieldFactor       = "factor"
	FieldHighLimit    = "high_limit"
	FieldLowLimit     = "low_limit"
	FieldAvg          = "avg"
	FieldPreClose     = "pre_close"
	FieldPaused       = "paused"
	FieldOpenInterest = "open_interest"
)

// DefaultFields is used when a query names no fields.
var DefaultFields = []string{FieldOpen, FieldClose, FieldHigh, FieldLow, FieldVolume, FieldMoney}

// Value projects a named field. The paused flag maps to 1 or 0; unknown names
// yield NaN.
func (b *Bar) Value(field string) float64 {
	switch field {
	case FieldOpen:
		return b.Open
	case FieldClose:
		return b.Close
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	case FieldVolume:
		return b.Volume
	case FieldMoney:
		return b.Money
	case FieldFactor:
		return b.Factor
	case FieldHighLimit:
		return b.HighLimit
	case FieldLowLimit:
		return b.LowLimit
	case FieldAvg:
		return b.Avg
	case FieldPreClose:
		return b.PreClose
	case FieldPaused:
		if b.Paused {
			return 1
		}
		return 0
	case FieldOpenInterest:
		return b.OpenInterest
	default:
		return math.NaN()
	}
}

// FactorPoint is one entry of a cumulative adjustment factor series: Factor
// applies from Date until the next point.
type FactorPoint struct {
	Date   time.Time `json:"date"`
	Factor float64   `json:"factor"`
}
