package resample

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceQuery/internal/domain/models"
)

func dailyBars(n int) []models.Bar {
	out := make([]models.Bar, n)
	day := models.Date(2024, time.March, 1)
	for i := range out {
		p := 10 + float64(i)
		out[i] = models.Bar{
			Time:   day.AddDate(0, 0, i),
			Open:   p,
			Close:  p + 0.5,
			High:   p + float64(i%3),
			Low:    p - float64(i%4),
			Volume: float64(100 * (i + 1)),
			Money:  float64(1000 * (i + 1)),
			Factor: 1,
		}
	}
	return out
}

func freq(n int) models.Frequency { return models.Frequency{Multiplier: n, Unit: models.UnitDay} }

func TestResampleIdentity(t *testing.T) {
	bars := dailyBars(7)
	assert.Equal(t, bars, Resample(bars, freq(1)))
}

func TestResampleAnchorsAtEnd(t *testing.T) {
	bars := dailyBars(7)
	got := Resample(bars, freq(3))
	require.Len(t, got, 3)

	// groups are [0], [1..3], [4..6]
	assert.Equal(t, bars[0].Time, got[0].Time)
	assert.Equal(t, bars[3].Time, got[1].Time)
	assert.Equal(t, bars[6].Time, got[2].Time)

	assert.Equal(t, bars[4].Open, got[2].Open)
	assert.Equal(t, bars[6].Close, got[2].Close)
	assert.Equal(t, bars[4].Volume+bars[5].Volume+bars[6].Volume, got[2].Volume)
	assert.Equal(t, bars[4].Money+bars[5].Money+bars[6].Money, got[2].Money)
}

func TestResampleConservation(t *testing.T) {
	bars := dailyBars(23)
	for _, x := range []int{2, 3, 5, 7, 23, 30} {
		got := Resample(bars, freq(x))

		var rawVol, aggVol float64
		for _, b := range bars {
			rawVol += b.Volume
		}
		for _, b := range got {
			aggVol += b.Volume
		}
		assert.Equal(t, rawVol, aggVol, "multiplier %d", x)

		end := len(bars)
		for g := len(got) - 1; g >= 0; g-- {
			start := end - x
			if start < 0 {
				start = 0
			}
			for _, b := range bars[start:end] {
				assert.GreaterOrEqual(t, got[g].High, b.High)
				assert.LessOrEqual(t, got[g].Low, b.Low)
			}
			end = start
		}
	}
}

func TestResampleSkipsPausedRowsInGroup(t *testing.T) {
	bars := dailyBars(4)
	bars[3] = models.Placeholder(bars[3].Time, models.StatusPaused)
	got := Resample(bars, freq(2))
	require.Len(t, got, 2)
	assert.False(t, got[1].Paused)
	assert.Equal(t, bars[3].Time, got[1].Time)
	assert.Equal(t, bars[2].Close, got[1].Close)
	assert.Equal(t, bars[2].Volume, got[1].Volume)
}

func TestResampleAllPausedGroup(t *testing.T) {
	bars := dailyBars(4)
	bars[2] = models.Placeholder(bars[2].Time, models.StatusDelisted)
	bars[3] = models.Placeholder(bars[3].Time, models.StatusDelisted)
	got := Resample(bars, freq(2))
	assert.True(t, got[1].Paused)
	assert.Equal(t, models.StatusDelisted, got[1].Status)
	assert.True(t, math.IsNaN(got[1].Close))
	assert.Equal(t, 0.0, got[1].Volume)
}

func TestResampleMinutesAcrossClose(t *testing.T) {
	// last three minutes of one session and first two of the next form one bar
	prev := models.Date(2024, time.March, 1)
	next := models.Date(2024, time.March, 4)
	times := []time.Time{
		prev.Add(14*time.Hour + 58*time.Minute), prev.Add(14*time.Hour + 59*time.Minute), prev.Add(15 * time.Hour),
		next.Add(9*time.Hour + 31*time.Minute), next.Add(9*time.Hour + 32*time.Minute),
	}
	bars := make([]models.Bar, len(times))
	for i, ts := range times {
		p := float64(10 + i)
		bars[i] = models.Bar{Time: ts, Open: p, Close: p, High: p, Low: p, Volume: 1, Money: p, Factor: 1}
	}
	got := Resample(bars, models.Frequency{Multiplier: 5, Unit: models.UnitMinute})
	require.Len(t, got, 1)
	assert.Equal(t, times[4], got[0].Time)
	assert.Equal(t, 10.0, got[0].Open)
	assert.Equal(t, 14.0, got[0].Close)
	assert.Equal(t, 5.0, got[0].Volume)
}

func TestValidateFields(t *testing.T) {
	err := ValidateFields([]string{"open", "close", "high", "low", "volume", "avg"}, 5, models.TypeStock)
	assert.ErrorIs(t, err, models.ErrUnsupportedField)

	assert.NoError(t, ValidateFields(models.DefaultFields, 5, models.TypeStock))
	assert.NoError(t, ValidateFields([]string{"avg", "factor", "paused", "pre_close"}, 1, models.TypeStock))

	err = ValidateFields([]string{"open_interest"}, 1, models.TypeStock)
	assert.ErrorIs(t, err, models.ErrUnsupportedField)
	assert.NoError(t, ValidateFields([]string{"open_interest"}, 1, models.TypeFutures))

	err = ValidateFields([]string{"turnover"}, 1, models.TypeStock)
	assert.ErrorIs(t, err, models.ErrUnsupportedField)
}
