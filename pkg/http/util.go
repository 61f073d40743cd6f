package http

import (
	"time"

	xutil "PriceQuery/pkg/util"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int { return xutil.ParseIntDefault(s, def) }

// ParseDate parses a query date in loc; see util.ParseDate.
func ParseDate(s string, loc *time.Location) (time.Time, bool, error) { return xutil.ParseDate(s, loc) }

// SplitList splits a comma separated query value.
func SplitList(s string) []string { return xutil.SplitList(s) }
