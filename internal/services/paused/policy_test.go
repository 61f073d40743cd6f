package paused

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceQuery/internal/domain/models"
)

func series() []models.Bar {
	d := models.Date(2024, time.March, 4)
	return []models.Bar{
		{Time: d, Open: 9.8, Close: 10, High: 10.2, Low: 9.7, Avg: 9.9, Volume: 500, Money: 4950, PreClose: 9.8},
		models.Placeholder(d.AddDate(0, 0, 1), models.StatusPaused),
		{Time: d.AddDate(0, 0, 2), Open: 10.1, Close: 10.4, High: 10.5, Low: 10, Avg: 10.3, Volume: 700, Money: 7210},
	}
}

func TestApplyFill(t *testing.T) {
	got := Apply(series(), false, true)
	require.Len(t, got, 3)
	r := got[1]
	assert.True(t, r.Paused)
	for _, v := range []float64{r.Open, r.Close, r.High, r.Low, r.Avg} {
		assert.Equal(t, 10.0, v)
	}
	assert.Equal(t, 0.0, r.Volume)
	assert.Equal(t, 0.0, r.Money)
	assert.False(t, got[2].Paused)
}

func TestApplyNaN(t *testing.T) {
	got := Apply(series(), false, false)
	r := got[1]
	assert.True(t, r.Paused)
	assert.True(t, math.IsNaN(r.Close))
	assert.True(t, math.IsNaN(r.Volume))
	assert.True(t, math.IsNaN(r.Money))
	assert.Equal(t, models.StatusPaused, r.Status)
}

func TestApplySkip(t *testing.T) {
	got := Apply(series(), true, true)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.False(t, r.Paused)
	}
}

func TestApplyFirstRowUsesPreClose(t *testing.T) {
	first := models.Placeholder(models.Date(2024, time.March, 1), models.StatusPaused)
	first.PreClose = 8.5
	got := Apply(append([]models.Bar{first}, series()...), false, true)
	assert.Equal(t, 8.5, got[0].Close)

	// nothing to fill from
	got = Apply([]models.Bar{models.Placeholder(models.Date(2024, time.March, 1), models.StatusNotListed)}, false, true)
	assert.True(t, math.IsNaN(got[0].Close))
	assert.Equal(t, 0.0, got[0].Volume)
}

func TestApplyCarriesFilledClose(t *testing.T) {
	rows := series()
	rows = append(rows, models.Placeholder(rows[2].Time.AddDate(0, 0, 1), models.StatusDelisted),
		models.Placeholder(rows[2].Time.AddDate(0, 0, 2), models.StatusDelisted))
	got := Apply(rows, false, true)
	assert.Equal(t, 10.4, got[3].Close)
	assert.Equal(t, 10.4, got[4].Open)
}

func TestValidateShape(t *testing.T) {
	assert.ErrorIs(t, ValidateShape(true, models.ShapePanel, 2), models.ErrIncompatibleOptions)
	assert.ErrorIs(t, ValidateShape(true, "", 2), models.ErrIncompatibleOptions)
	assert.NoError(t, ValidateShape(true, models.ShapePanel, 1))
	assert.NoError(t, ValidateShape(true, models.ShapeFlat, 3))
	assert.NoError(t, ValidateShape(false, models.ShapePanel, 3))
}
