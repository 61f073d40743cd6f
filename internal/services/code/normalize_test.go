package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceQuery/internal/domain/models"
)

func TestNormalizeSpellings(t *testing.T) {
	cases := map[string]string{
		"600000":       "600000.XSHG",
		" 600000 ":     "600000.XSHG",
		"000001":       "000001.XSHE",
		"300750":       "300750.XSHE",
		"200002":       "200002.XSHE",
		"900901":       "900901.XSHG",
		"sh600000":     "600000.XSHG",
		"SZ000001":     "000001.XSHE",
		"000001sz":     "000001.XSHE",
		"600000.SH":    "600000.XSHG",
		"000001.sz":    "000001.XSHE",
		"600000.XSHG":  "600000.XSHG",
		"600000.xshg":  "600000.XSHG",
		"510050":       "510050.XSHG",
		"159915":       "159915.XSHE",
		"113050":       "113050.XSHG",
		"if2401":       "IF2401.CCFX",
		"RB2410":       "RB2410.XSGE",
		"I2409":        "I2409.XDCE",
		"SR405":        "SR405.XZCE",
		"SC2412.XINE":  "SC2412.XINE",
		"IF9999.CCFX":  "IF9999.CCFX",
		"000001.XSHE ": "000001.XSHE",
	}
	for in, want := range cases {
		got, err := Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"600000", "SZ000001", "510050", "IF2401", "ag2412", "159915.SZ"} {
		once, err := Normalize(in)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, in := range []string{"", "12345", "1234567", "400001", "830799", "600000.XNAS", "IF2401.XSGE", "ZZ2401", "ABC", "60000A.SH"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, models.ErrInvalidCode, in)
	}
}

func TestFromInt(t *testing.T) {
	got, err := FromInt(1)
	require.NoError(t, err)
	assert.Equal(t, "000001.XSHE", got)

	got, err = FromInt(600000)
	require.NoError(t, err)
	assert.Equal(t, "600000.XSHG", got)

	_, err = FromInt(-1)
	assert.ErrorIs(t, err, models.ErrInvalidCode)
}

func TestNormalizeListKeepsOrder(t *testing.T) {
	got, err := NormalizeList([]string{"600000", "000001", "sz300750"})
	require.NoError(t, err)
	assert.Equal(t, []string{"600000.XSHG", "000001.XSHE", "300750.XSHE"}, got)

	_, err = NormalizeList([]string{"600000", "bad"})
	assert.ErrorIs(t, err, models.ErrInvalidCode)
}
