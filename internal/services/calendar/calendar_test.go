package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceQuery/internal/domain/models"
)

// weekdays lists every Monday-Friday in [from, to].
func weekdays(from, to time.Time) []time.Time {
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, models.Exchange)
}

func testSnapshot() *Snapshot {
	days := weekdays(models.Date(2024, time.January, 1), models.Date(2024, time.December, 31))
	// shuffle order and add a duplicate; NewSnapshot must clean both
	days = append(days, days[3])
	days[0], days[10] = days[10], days[0]
	return NewSnapshot(days, models.Date(2024, time.December, 31))
}

func TestGridShape(t *testing.T) {
	g := Grid(models.Date(2024, time.March, 4))
	require.Len(t, g, MinutesPerDay)
	assert.Equal(t, at(2024, 3, 4, 9, 31), g[0])
	assert.Equal(t, at(2024, 3, 4, 11, 30), g[119])
	assert.Equal(t, at(2024, 3, 4, 13, 1), g[120])
	assert.Equal(t, at(2024, 3, 4, 15, 0), g[239])
}

func TestDaysInRangeSkipsWeekends(t *testing.T) {
	s := testSnapshot()
	got, err := s.DaysInRange(models.Date(2024, time.March, 1), models.Date(2024, time.March, 6))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		models.Date(2024, time.March, 1),
		models.Date(2024, time.March, 4),
		models.Date(2024, time.March, 5),
		models.Date(2024, time.March, 6),
	}, got)
}

func TestDaysInRangeEmpty(t *testing.T) {
	s := testSnapshot()
	got, err := s.DaysInRange(models.Date(2024, time.March, 2), models.Date(2024, time.March, 3))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.DaysInRange(models.Date(2024, time.March, 6), models.Date(2024, time.March, 1))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTrailingDays(t *testing.T) {
	s := testSnapshot()
	got, err := s.TrailingDays(models.Date(2024, time.March, 4), 2)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{models.Date(2024, time.March, 1), models.Date(2024, time.March, 4)}, got)

	// ending on a weekend anchors at the prior trading day
	got, err = s.TrailingDays(models.Date(2024, time.March, 3), 1)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{models.Date(2024, time.March, 1)}, got)

	// history runs out
	got, err = s.TrailingDays(models.Date(2024, time.January, 2), 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTrailingDaysRejectsBadCount(t *testing.T) {
	s := testSnapshot()
	for _, n := range []int{0, -3} {
		_, err := s.TrailingDays(models.Date(2024, time.March, 4), n)
		assert.ErrorIs(t, err, models.ErrInvalidArgument)
	}
	_, err := s.MinuteWindow(at(2024, 3, 4, 10, 0), 0)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestHorizon(t *testing.T) {
	s := testSnapshot()
	_, err := s.TrailingDays(models.Date(2025, time.January, 2), 1)
	assert.ErrorIs(t, err, models.ErrNoCalendarData)
	_, err = s.DaysInRange(models.Date(2024, time.December, 1), models.Date(2025, time.January, 2))
	assert.ErrorIs(t, err, models.ErrNoCalendarData)
	_, err = s.MinuteWindow(at(2025, 1, 2, 10, 0), 5)
	assert.ErrorIs(t, err, models.ErrNoCalendarData)
}

func TestMinuteWindowCrossesDays(t *testing.T) {
	s := testSnapshot()
	// Monday 09:32 inclusive: two Monday minutes plus Friday's last three
	got, err := s.MinuteWindow(at(2024, 3, 4, 9, 32), 5)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(2024, 3, 1, 14, 58), at(2024, 3, 1, 14, 59), at(2024, 3, 1, 15, 0),
		at(2024, 3, 4, 9, 31), at(2024, 3, 4, 9, 32),
	}, got)
}

func TestCompletedWindowAtOpen(t *testing.T) {
	s := testSnapshot()
	got, err := s.CompletedWindow(at(2024, 3, 5, 9, 33), 5)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(2024, 3, 4, 14, 58), at(2024, 3, 4, 14, 59), at(2024, 3, 4, 15, 0),
		at(2024, 3, 5, 9, 31), at(2024, 3, 5, 9, 32),
	}, got)
}

func TestMinuteWindowLunchBreak(t *testing.T) {
	s := testSnapshot()
	got, err := s.MinuteWindow(at(2024, 3, 5, 13, 2), 4)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(2024, 3, 5, 11, 29), at(2024, 3, 5, 11, 30), at(2024, 3, 5, 13, 1), at(2024, 3, 5, 13, 2),
	}, got)

	// an anchor inside the break behaves like 11:30
	got, err = s.MinuteWindow(at(2024, 3, 5, 12, 15), 1)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(2024, 3, 5, 11, 30)}, got)
}

func TestMinuteGridIsOneTimeline(t *testing.T) {
	s := testSnapshot()
	got, err := s.MinutesInRange(at(2024, 3, 1, 0, 0), at(2024, 3, 5, 23, 0))
	require.NoError(t, err)
	require.Len(t, got, 3*MinutesPerDay)
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		require.True(t, cur.After(prev))
		if models.DayKey(prev) == models.DayKey(cur) {
			continue
		}
		assert.Equal(t, 15, prev.Hour())
		assert.Equal(t, 9, cur.Hour())
		assert.Equal(t, 31, cur.Minute())
	}
}

func TestMinutesBefore(t *testing.T) {
	s := testSnapshot()
	got := s.MinutesBefore(at(2024, 3, 4, 9, 31), 2)
	assert.Equal(t, []time.Time{at(2024, 3, 1, 14, 59), at(2024, 3, 1, 15, 0)}, got)
	assert.Empty(t, s.MinutesBefore(at(2024, 3, 4, 9, 31), 0))
}

func TestDaysBeforeAndNeighbours(t *testing.T) {
	s := testSnapshot()
	assert.Equal(t, []time.Time{models.Date(2024, time.February, 29), models.Date(2024, time.March, 1)},
		s.DaysBefore(models.Date(2024, time.March, 4), 2))
	assert.True(t, s.IsTradingDay(at(2024, 3, 4, 10, 0)))
	assert.False(t, s.IsTradingDay(models.Date(2024, time.March, 3)))
	prev, ok := s.PrevTradingDay(models.Date(2024, time.March, 4))
	require.True(t, ok)
	assert.Equal(t, models.Date(2024, time.March, 1), prev)
}

type stubSource struct {
	days  []time.Time
	calls int
	err   error
}

func (s *stubSource) TradingDays(context.Context) ([]time.Time, error) {
	s.calls++
	return s.days, s.err
}

func TestServiceLoadsOnceAndRefreshes(t *testing.T) {
	src := &stubSource{days: weekdays(models.Date(2024, time.January, 1), models.Date(2024, time.June, 30))}
	hz := YearEndHorizon{Now: func() time.Time { return at(2024, 5, 1, 10, 0) }}
	svc := NewService(src, hz, nil)

	first, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, models.Date(2024, time.December, 31), first.Horizon())

	src.days = weekdays(models.Date(2024, time.January, 1), models.Date(2024, time.December, 31))
	require.NoError(t, svc.Refresh(context.Background()))
	second, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Greater(t, len(second.Days()), len(first.Days()))
	assert.Equal(t, 2, src.calls)
}

func TestServiceRefreshFailureKeepsSnapshot(t *testing.T) {
	src := &stubSource{days: weekdays(models.Date(2024, time.January, 1), models.Date(2024, time.March, 31))}
	svc := NewService(src, YearEndHorizon{Now: func() time.Time { return at(2024, 2, 1, 0, 0) }}, nil)
	before, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	src.err = errors.New("boom")
	require.Error(t, svc.Refresh(context.Background()))
	after, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, before, after)
}
