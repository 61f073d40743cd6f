// Package calendar holds the trading-date set and the intraday minute grid.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"PriceQuery/internal/domain/models"
)

// MinutesPerDay is the length of the intraday grid.
const MinutesPerDay = 240

// grid holds the minute marks of one session as offsets from midnight. Marks
// are bar end times: 09:31..11:30 then 13:01..15:00.
var grid = func() [MinutesPerDay]time.Duration {
	var g [MinutesPerDay]time.Duration
	for i := 0; i < 120; i++ {
		g[i] = 9*time.Hour + 31*time.Minute + time.Duration(i)*time.Minute
		g[120+i] = 13*time.Hour + time.Minute + time.Duration(i)*time.Minute
	}
	return g
}()

// Grid returns the minute marks of day in order.
func Grid(day time.Time) []time.Time {
	d := models.DayOf(day)
	out := make([]time.Time, MinutesPerDay)
	for i, off := range grid {
		out[i] = d.Add(off)
	}
	return out
}

// marksUpTo counts the grid marks at or before the time-of-day of t.
func marksUpTo(t time.Time) int {
	t = t.In(models.Exchange)
	off := t.Sub(models.DayOf(t))
	return sort.Search(MinutesPerDay, func(i int) bool { return grid[i] > off })
}

// Snapshot is an immutable trading calendar valid up to Horizon.
type Snapshot struct {
	days    []time.Time
	horizon time.Time
}

// NewSnapshot sorts and de-duplicates days and drops those past horizon.
func NewSnapshot(days []time.Time, horizon time.Time) *Snapshot {
	horizon = models.DayOf(horizon)
	seen := make(map[int]struct{}, len(days))
	out := make([]time.Time, 0, len(days))
	for _, d := range days {
		d = models.DayOf(d)
		if d.After(horizon) {
			continue
		}
		k := models.DayKey(d)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return &Snapshot{days: out, horizon: horizon}
}

// Horizon is the last date the snapshot answers for.
func (s *Snapshot) Horizon() time.Time { return s.horizon }

// Days returns a copy of every trading date.
func (s *Snapshot) Days() []time.Time {
	return append([]time.Time(nil), s.days...)
}

func (s *Snapshot) checkHorizon(t time.Time) error {
	if models.DayOf(t).After(s.horizon) {
		return fmt.Errorf("%w: %s is past horizon %s", models.ErrNoCalendarData,
			t.In(models.Exchange).Format("2006-01-02"), s.horizon.Format("2006-01-02"))
	}
	return nil
}

// upTo is the number of trading days on or before the date of t.
func (s *Snapshot) upTo(t time.Time) int {
	k := models.DayKey(t)
	return sort.Search(len(s.days), func(i int) bool { return models.DayKey(s.days[i]) > k })
}

// IsTradingDay reports whether the date of t is a trading day.
func (s *Snapshot) IsTradingDay(t time.Time) bool {
	n := s.upTo(t)
	return n > 0 && models.DayKey(s.days[n-1]) == models.DayKey(t)
}

// PrevTradingDay is the last trading day strictly before the date of t.
func (s *Snapshot) PrevTradingDay(t time.Time) (time.Time, bool) {
	n := s.upTo(models.DayOf(t).Add(-time.Hour))
	if n == 0 {
		return time.Time{}, false
	}
	return s.days[n-1], true
}

// DaysInRange returns the trading days whose date lies in [start, end].
func (s *Snapshot) DaysInRange(start, end time.Time) ([]time.Time, error) {
	if err := s.checkHorizon(end); err != nil {
		return nil, err
	}
	lo := s.upTo(models.DayOf(start).Add(-time.Hour))
	hi := s.upTo(end)
	if lo >= hi {
		return []time.Time{}, nil
	}
	return append([]time.Time(nil), s.days[lo:hi]...), nil
}

// TrailingDays returns the count most recent trading days up to and
// including the date of end, ascending. Fewer are returned when history runs
// out.
func (s *Snapshot) TrailingDays(end time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive, got %d", models.ErrInvalidArgument, count)
	}
	if err := s.checkHorizon(end); err != nil {
		return nil, err
	}
	hi := s.upTo(end)
	lo := hi - count
	if lo < 0 {
		lo = 0
	}
	return append([]time.Time(nil), s.days[lo:hi]...), nil
}

// DaysBefore returns up to n trading days strictly before the date of t.
func (s *Snapshot) DaysBefore(t time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	hi := s.upTo(models.DayOf(t).Add(-time.Hour))
	lo := hi - n
	if lo < 0 {
		lo = 0
	}
	return append([]time.Time(nil), s.days[lo:hi]...)
}

// MinuteWindow returns the length most recent grid minutes at or before
// anchor, continuing into earlier trading days as needed.
func (s *Snapshot) MinuteWindow(anchor time.Time, length int) ([]time.Time, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: length must be positive, got %d", models.ErrInvalidArgument, length)
	}
	if err := s.checkHorizon(anchor); err != nil {
		return nil, err
	}
	return s.minutesBack(anchor, length), nil
}

// CompletedWindow returns the length most recent grid minutes strictly
// before now. The bar stamped now is still forming, so at 09:33 the window
// ends with 09:32.
func (s *Snapshot) CompletedWindow(now time.Time, length int) ([]time.Time, error) {
	return s.MinuteWindow(now.Add(-time.Nanosecond), length)
}

// MinutesBefore returns up to n grid minutes strictly before m.
func (s *Snapshot) MinutesBefore(m time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	return s.minutesBack(m.Add(-time.Nanosecond), n)
}

// MinutesInRange returns every grid minute in [start, end].
func (s *Snapshot) MinutesInRange(start, end time.Time) ([]time.Time, error) {
	if err := s.checkHorizon(end); err != nil {
		return nil, err
	}
	days, err := s.DaysInRange(start, end)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(days)*MinutesPerDay)
	for _, d := range days {
		for _, off := range grid {
			m := d.Add(off)
			if m.Before(start) || m.After(end) {
				continue
			}
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Snapshot) minutesBack(anchor time.Time, length int) []time.Time {
	out := make([]time.Time, length)
	n := length
	di := s.upTo(anchor)
	take := MinutesPerDay
	if di > 0 && models.DayKey(s.days[di-1]) == models.DayKey(anchor) {
		take = marksUpTo(anchor)
	}
	for n > 0 && di > 0 {
		day := s.days[di-1]
		for i := take - 1; i >= 0 && n > 0; i-- {
			n--
			out[n] = day.Add(grid[i])
		}
		di--
		take = MinutesPerDay
	}
	return out[n:]
}
