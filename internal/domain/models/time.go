package models

import "time"

// Exchange is the fixed UTC+8 zone all bar timestamps and trading dates live in.
var Exchange = time.FixedZone("CST", 8*3600)

// NotDelisted marks a security that is still listed.
var NotDelisted = Date(2200, time.January, 1)

// Date returns midnight of the given calendar day in the exchange zone.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, Exchange)
}

// DayOf truncates t to midnight of its exchange-local calendar day.
func DayOf(t time.Time) time.Time {
	t = t.In(Exchange)
	return Date(t.Year(), t.Month(), t.Day())
}

// DayKey packs the exchange-local date of t as yyyymmdd.
func DayKey(t time.Time) int {
	t = t.In(Exchange)
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// TimeArg is a caller-supplied date or date-time. DateOnly is set when no
// time-of-day component was given.
type TimeArg struct {
	Time     time.Time
	DateOnly bool
}

// On builds a date-only argument.
func On(year int, month time.Month, day int) *TimeArg {
	return &TimeArg{Time: Date(year, month, day), DateOnly: true}
}

// At builds a date-time argument.
func At(t time.Time) *TimeArg {
	return &TimeArg{Time: t.In(Exchange)}
}
