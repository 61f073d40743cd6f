package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceQuery/internal/domain/models"
	"PriceQuery/internal/services/adjust"
)

func query(codes ...string) models.PriceQuery {
	q := models.NewPriceQuery(codes...)
	q.Start = models.On(2024, time.March, 4)
	q.End = models.On(2024, time.March, 15)
	return q
}

func TestGetPriceSingleUnadjusted(t *testing.T) {
	f := newFixture()
	q := query("600000")
	q.End = models.On(2024, time.March, 8)
	q.Adjust = models.AdjustNone

	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, models.KindTable, res.Kind)
	assert.Equal(t, models.DefaultFields, res.Table.Columns)
	require.Equal(t, 5, res.Table.Len())
	assert.Equal(t, []float64{10, 11, 12, 13, 14}, res.Table.Column("close"))
	assert.True(t, res.Table.Index[0].Equal(day(time.March, 4)))
	assert.True(t, res.Table.DateOnly)
}

func TestGetPricePreAdjustFillsPaused(t *testing.T) {
	f := newFixture()
	q := query("600000.XSHG")
	q.Fields = []string{"close", "volume", "factor", "paused"}

	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	tb := res.Table
	require.Equal(t, 10, tb.Len())

	closes := tb.Column("close")
	assert.Equal(t, 5.0, closes[0])
	assert.Equal(t, 16.0, closes[6])
	assert.Equal(t, 16.0, closes[7], "paused day carries the previous close")
	assert.Equal(t, 19.0, closes[9])
	assert.Equal(t, 200.0, tb.Column("volume")[0])
	assert.Equal(t, 0.0, tb.Column("volume")[7])
	assert.Equal(t, 1.0, tb.Column("factor")[0])
	assert.Equal(t, 2.0, tb.Column("factor")[7])
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0, 1, 0, 0}, tb.Column("paused"))
}

func TestGetPricePostAdjust(t *testing.T) {
	f := newFixture()
	q := query("600000.XSHG")
	q.Adjust = models.AdjustPost

	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	closes := res.Table.Column("close")
	assert.Equal(t, 10.0, closes[0])
	assert.Equal(t, 38.0, closes[9])
}

func TestGetPriceNaNWithoutFill(t *testing.T) {
	f := newFixture()
	q := query("600000.XSHG")
	q.FillPaused = false

	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(res.Table.Column("close")[7]))
	assert.True(t, math.IsNaN(res.Table.Column("volume")[7]))
}

func TestGetPriceCount(t *testing.T) {
	f := newFixture()
	q := models.NewPriceQuery("600000.XSHG")
	q.End = models.On(2024, time.March, 15)
	q.Count = models.IntPtr(3)
	q.Adjust = models.AdjustNone

	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 3, res.Table.Len())
	assert.True(t, res.Table.Index[0].Equal(day(time.March, 13)))
	assert.True(t, res.Table.Index[2].Equal(day(time.March, 15)))
}

func TestGetPriceResampleDays(t *testing.T) {
	f := newFixture()
	q := query("600000.XSHG")
	q.End = models.On(2024, time.March, 8)
	q.Frequency = models.Frequency{Multiplier: 2, Unit: models.UnitDay}
	q.Adjust = models.AdjustNone

	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	tb := res.Table
	require.Equal(t, 3, tb.Len())
	assert.True(t, tb.Index[0].Equal(day(time.March, 4)))
	assert.True(t, tb.Index[2].Equal(day(time.March, 8)))
	// first group reaches back to 1 March, which has no bar
	assert.Equal(t, 9.5, tb.Column("open")[0])
	assert.Equal(t, 100.0, tb.Column("volume")[0])
	assert.Equal(t, []float64{10, 12, 14}, tb.Column("close"))
	assert.Equal(t, 200.0, tb.Column("volume")[2])
}

func TestGetPriceRejectsAvgAtFiveDays(t *testing.T) {
	f := newFixture()
	q := query("600000.XSHG")
	q.Frequency = models.Frequency{Multiplier: 5, Unit: models.UnitDay}
	q.Fields = []string{"open", "close", "high", "low", "volume", "avg"}

	_, err := f.price.GetPrice(context.Background(), q)
	assert.ErrorIs(t, err, models.ErrUnsupportedField)
}

func TestGetPriceValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	q := query("600000.XSHG")
	q.Count = models.IntPtr(5)
	_, err := f.price.GetPrice(ctx, q)
	assert.ErrorIs(t, err, models.ErrConflictingArgs)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = f.price.GetPrice(ctx, query())
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = f.price.GetPrice(ctx, query("bogus"))
	assert.ErrorIs(t, err, models.ErrInvalidCode)

	_, err = f.price.GetPrice(ctx, query("601398"))
	assert.ErrorIs(t, err, models.ErrUnknownSecurity)

	q = query("600000.XSHG", "300999.XSHE")
	q.SkipPaused = true
	_, err = f.price.GetPrice(ctx, q)
	assert.ErrorIs(t, err, models.ErrIncompatibleOptions)

	q = query("600000.XSHG")
	q.End = models.On(2025, time.January, 6)
	_, err = f.price.GetPrice(ctx, q)
	assert.ErrorIs(t, err, models.ErrNoCalendarData)
}

func TestGetPricePanelKeepsInputOrder(t *testing.T) {
	f := newFixture()
	q := query("300999", "600000")
	q.End = models.On(2024, time.March, 8)
	q.Adjust = models.AdjustNone

	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, models.KindPanel, res.Kind)
	closes := res.Panel["close"]
	require.NotNil(t, closes)
	assert.Equal(t, []string{"300999.XSHE", "600000.XSHG"}, closes.Columns)
	require.Equal(t, 5, closes.Len())
	assert.True(t, math.IsNaN(closes.Values[0][0]), "not listed yet")
	assert.Equal(t, 30.0, closes.Values[0][2])
	assert.Equal(t, 10.0, closes.Values[1][0])
}

func TestGetPriceFlatSkip(t *testing.T) {
	f := newFixture()
	q := query("600000.XSHG", "300999.XSHE")
	q.End = models.On(2024, time.March, 8)
	q.Adjust = models.AdjustNone
	q.Shape = models.ShapeFlat
	q.SkipPaused = true

	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, models.KindTable, res.Kind)
	tb := res.Table
	require.Equal(t, 8, tb.Len())
	assert.Equal(t, []string{"600000.XSHG", "600000.XSHG", "600000.XSHG", "300999.XSHE"}, tb.Codes[:4])
	assert.Equal(t, 30.0, tb.Column("close")[3])
}

func TestGetPriceMinuteCrossesOpen(t *testing.T) {
	f := newFixture()
	q := models.NewPriceQuery("600000.XSHG")
	q.Frequency = models.Frequency{Multiplier: 5, Unit: models.UnitMinute}
	q.End = models.At(day(time.March, 5).Add(9*time.Hour + 33*time.Minute))
	q.Count = models.IntPtr(1)
	q.Adjust = models.AdjustNone

	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	tb := res.Table
	require.Equal(t, 1, tb.Len())
	assert.False(t, tb.DateOnly)
	// 14:58, 14:59, 15:00 of the prior day then 09:31, 09:32; 09:33 is still forming
	assert.True(t, tb.Index[0].Equal(day(time.March, 5).Add(9*time.Hour+32*time.Minute)))
	assert.Equal(t, 9.8, tb.Column("open")[0])
	assert.Equal(t, 10.4, tb.Column("close")[0])
	assert.Equal(t, 105.0, tb.Column("volume")[0])
}

func TestGetPriceMinuteRangeEndsBeforeFormingBar(t *testing.T) {
	f := newFixture()
	m5 := day(time.March, 5)
	q := models.NewPriceQuery("600000.XSHG")
	q.Frequency = models.Minute
	q.Start = models.At(m5.Add(9*time.Hour + 31*time.Minute))
	q.End = models.At(m5.Add(9*time.Hour + 33*time.Minute))
	q.Fields = []string{"close"}
	q.Adjust = models.AdjustNone

	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	tb := res.Table
	require.Equal(t, 2, tb.Len())
	assert.True(t, tb.Index[1].Equal(m5.Add(9*time.Hour+32*time.Minute)))
	assert.Equal(t, []float64{10.3, 10.4}, tb.Column("close"))
}

func TestGetPriceDefaultShapeRejectsSkipAcrossSecurities(t *testing.T) {
	f := newFixture()
	q := query("600000.XSHG", "300999.XSHE")
	q.End = models.On(2024, time.March, 8)
	q.Shape = ""
	q.SkipPaused = true

	_, err := f.price.GetPrice(context.Background(), q)
	assert.ErrorIs(t, err, models.ErrIncompatibleOptions)

	q.SkipPaused = false
	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, models.KindPanel, res.Kind)
}

func TestGetPriceMinuteDateOnlyEndExcludesDay(t *testing.T) {
	f := newFixture()
	q := models.NewPriceQuery("600000.XSHG")
	q.Frequency = models.Minute
	q.Start = models.On(2024, time.March, 4)
	q.End = models.On(2024, time.March, 5)
	q.Fields = []string{"close"}
	q.Adjust = models.AdjustNone

	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	tb := res.Table
	require.Equal(t, 240, tb.Len())
	assert.True(t, tb.Index[239].Equal(day(time.March, 4).Add(15*time.Hour)))
	assert.Equal(t, 10.1, tb.Column("close")[239])
}

func TestGetPriceEmptyRange(t *testing.T) {
	f := newFixture()
	q := query("600000.XSHG")
	q.Start = models.On(2024, time.March, 9)
	q.End = models.On(2024, time.March, 10)

	res, err := f.price.GetPrice(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestGetPricePropagatesStoreError(t *testing.T) {
	f := newFixture()
	u := NewPriceUseCase(failingStore{}, f.cal, f.cat, f.factors, adjust.NewEngine(), nil)
	_, err := u.GetPrice(context.Background(), query("600000.XSHG"))
	assert.True(t, errors.Is(err, errStoreDown))
}

func TestGetPricePublishesAudit(t *testing.T) {
	f := newFixture()
	_, err := f.price.GetPrice(context.Background(), query("600000.XSHG"))
	require.NoError(t, err)
	f.audit.err = errors.New("broker down")
	_, err = f.price.GetPrice(context.Background(), query("601398"))
	require.Error(t, err)

	require.Len(t, f.audit.events, 2)
	ok := f.audit.events[0]
	assert.NotEmpty(t, ok.ID)
	assert.Equal(t, "get_price", ok.Op)
	assert.Equal(t, 10, ok.Rows)
	assert.Empty(t, ok.Error)
	assert.NotEmpty(t, f.audit.events[1].Error)
	assert.NotEqual(t, ok.ID, f.audit.events[1].ID)
}
