package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceQuery/internal/domain/models"
)

type memRegistry struct {
	secs    map[string]models.Security
	lookups int
}

func (r *memRegistry) LookupSecurity(_ context.Context, code string) (models.Security, error) {
	r.lookups++
	s, ok := r.secs[code]
	if !ok {
		return models.Security{}, fmt.Errorf("%w: %s", models.ErrUnknownSecurity, code)
	}
	return s, nil
}

func (r *memRegistry) ListSecurities(_ context.Context, _ models.SecurityFilter) ([]models.Security, error) {
	out := make([]models.Security, 0, len(r.secs))
	for _, s := range r.secs {
		out = append(out, s)
	}
	return out, nil
}

func registry() *memRegistry {
	return &memRegistry{secs: map[string]models.Security{
		"600000.XSHG": {Code: "600000.XSHG", DisplayName: "浦发银行", Name: "PFYH", Type: models.TypeStock,
			StartDate: models.Date(1999, time.November, 10), EndDate: models.NotDelisted},
		"000001.XSHE": {Code: "000001.XSHE", DisplayName: "平安银行", Name: "PAYH", Type: models.TypeStock,
			StartDate: models.Date(1991, time.April, 3), EndDate: models.NotDelisted},
		"510050.XSHG": {Code: "510050.XSHG", DisplayName: "50ETF", Name: "50ETF", Type: models.TypeETF,
			StartDate: models.Date(2005, time.February, 23), EndDate: models.NotDelisted},
		"000024.XSHE": {Code: "000024.XSHE", DisplayName: "招商地产", Name: "ZSDC", Type: models.TypeStock,
			StartDate: models.Date(1993, time.June, 7), EndDate: models.Date(2015, time.December, 30)},
	}}
}

func TestInfoNormalizesAndCaches(t *testing.T) {
	reg := registry()
	c := New(reg, nil, time.Minute)

	s, err := c.Info(context.Background(), "600000", nil)
	require.NoError(t, err)
	assert.Equal(t, "浦发银行", s.DisplayName)

	_, err = c.Info(context.Background(), "SH600000", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.lookups)

	c.Forget("600000.XSHG")
	_, err = c.Info(context.Background(), "600000.XSHG", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.lookups)
}

func TestInfoErrors(t *testing.T) {
	c := New(registry(), nil, time.Minute)
	_, err := c.Info(context.Background(), "601398", nil)
	assert.ErrorIs(t, err, models.ErrUnknownSecurity)

	_, err = c.Info(context.Background(), "xx", nil)
	assert.ErrorIs(t, err, models.ErrInvalidCode)
}

func TestInfoAsOfIsExistenceFilter(t *testing.T) {
	c := New(registry(), nil, time.Minute)
	before := models.Date(1999, time.January, 4)
	_, err := c.Info(context.Background(), "600000.XSHG", &before)
	assert.ErrorIs(t, err, models.ErrUnknownSecurity)

	listed := models.Date(2010, time.January, 4)
	s, err := c.Info(context.Background(), "600000.XSHG", &listed)
	require.NoError(t, err)
	assert.Equal(t, "浦发银行", s.DisplayName)

	after := models.Date(2016, time.January, 4)
	_, err = c.Info(context.Background(), "000024.XSHE", &after)
	assert.ErrorIs(t, err, models.ErrUnknownSecurity)
}

func TestList(t *testing.T) {
	c := New(registry(), nil, time.Minute)

	all, err := c.List(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "000001.XSHE", all[0].Code)
	assert.Equal(t, "600000.XSHG", all[3].Code)

	etfs, err := c.List(context.Background(), []models.SecurityType{models.TypeETF}, nil)
	require.NoError(t, err)
	require.Len(t, etfs, 1)
	assert.Equal(t, "510050.XSHG", etfs[0].Code)

	asOf := models.Date(2020, time.June, 1)
	stocks, err := c.List(context.Background(), []models.SecurityType{models.TypeStock}, &asOf)
	require.NoError(t, err)
	assert.Len(t, stocks, 2)
}
