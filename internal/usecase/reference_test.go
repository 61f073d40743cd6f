package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceQuery/internal/domain/models"
)

func TestGetTradeDays(t *testing.T) {
	f := newFixture()
	uc := NewReferenceUseCase(f.cat, f.cal, nil).WithClock(func() time.Time { return testNow })
	ctx := context.Background()

	got, err := uc.GetTradeDays(ctx, models.TradeDaysQuery{End: models.On(2024, time.March, 15), Count: models.IntPtr(2)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(day(time.March, 14)))
	assert.True(t, got[1].Equal(day(time.March, 15)))

	got, err = uc.GetTradeDays(ctx, models.TradeDaysQuery{Start: models.On(2024, time.March, 9), End: models.On(2024, time.March, 12)})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = uc.GetTradeDays(ctx, models.TradeDaysQuery{Start: models.On(2024, time.June, 10)})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.True(t, got[4].Equal(day(time.June, 14)))

	all, err := uc.GetTradeDays(ctx, models.TradeDaysQuery{End: models.On(2024, time.January, 5)})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = uc.GetTradeDays(ctx, models.TradeDaysQuery{Start: models.On(2024, time.March, 1), Count: models.IntPtr(2)})
	assert.ErrorIs(t, err, models.ErrConflictingArgs)

	_, err = uc.GetTradeDays(ctx, models.TradeDaysQuery{Count: models.IntPtr(0)})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = uc.GetTradeDays(ctx, models.TradeDaysQuery{End: models.On(2025, time.March, 3), Count: models.IntPtr(1)})
	assert.ErrorIs(t, err, models.ErrNoCalendarData)
}

func TestSecurityQueries(t *testing.T) {
	f := newFixture()
	uc := NewReferenceUseCase(f.cat, f.cal, nil)
	ctx := context.Background()

	sec, err := uc.GetSecurityInfo(ctx, "SZ300999", nil)
	require.NoError(t, err)
	assert.Equal(t, "金龙鱼", sec.DisplayName)

	_, err = uc.GetSecurityInfo(ctx, "300999", models.On(2024, time.March, 1))
	assert.ErrorIs(t, err, models.ErrUnknownSecurity)

	stocks, err := uc.GetAllSecurities(ctx, []models.SecurityType{models.TypeStock}, models.On(2024, time.March, 1))
	require.NoError(t, err)
	require.Len(t, stocks, 1)
	assert.Equal(t, "600000.XSHG", stocks[0].Code)

	all, err := uc.GetAllSecurities(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
