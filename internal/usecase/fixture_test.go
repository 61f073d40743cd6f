package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"PriceQuery/internal/domain/models"
	"PriceQuery/internal/repository"
	"PriceQuery/internal/services/adjust"
	"PriceQuery/internal/services/calendar"
	"PriceQuery/internal/services/catalog"
)

var testNow = time.Date(2024, time.June, 14, 16, 0, 0, 0, models.Exchange)

type fixture struct {
	ref     *repository.MemoryReference
	bars    *repository.MemoryBarStore
	cal     *calendar.Service
	cat     *catalog.Catalog
	factors *adjust.FactorCache
	audit   *captureAudit
	price   *PriceUseCase
}

func weekdays2024() []time.Time {
	var out []time.Time
	for d := models.Date(2024, time.January, 2); d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}

func day(m time.Month, d int) time.Time { return models.Date(2024, m, d) }

func dailyBar(t time.Time, close, factor float64) models.Bar {
	return models.Bar{
		Time: t, Open: close - 0.5, Close: close, High: close + 0.5, Low: close - 1,
		Volume: 100, Money: close * 100, Factor: factor, Avg: close,
		PreClose: close - 1, HighLimit: (close - 1) * 1.1, LowLimit: (close - 1) * 0.9,
	}
}

func minuteBar(t time.Time, open, close float64, volume float64) models.Bar {
	return models.Bar{
		Time: t, Open: open, Close: close, High: close + 0.05, Low: open - 0.05,
		Volume: volume, Money: volume * close, Factor: 1, Avg: close, PreClose: 9.9,
	}
}

func newFixture() *fixture {
	ctx := context.Background()
	f := &fixture{
		ref:   repository.NewMemoryReference(),
		bars:  repository.NewMemoryBarStore(),
		audit: &captureAudit{},
	}
	f.ref.SetTradingDays(weekdays2024())
	f.ref.AddSecurity(
		models.Security{Code: "600000.XSHG", DisplayName: "浦发银行", Name: "PFYH", Type: models.TypeStock,
			StartDate: models.Date(1999, time.November, 10), EndDate: models.NotDelisted},
		models.Security{Code: "300999.XSHE", DisplayName: "金龙鱼", Name: "JLY", Type: models.TypeStock,
			StartDate: day(time.March, 6), EndDate: models.NotDelisted},
		models.Security{Code: "510050.XSHG", DisplayName: "50ETF", Name: "50ETF", Type: models.TypeETF,
			StartDate: models.Date(2005, time.February, 23), EndDate: models.NotDelisted},
	)
	f.ref.SetFactors("600000.XSHG", []models.FactorPoint{
		{Date: models.Date(2020, time.January, 1), Factor: 1},
		{Date: day(time.March, 11), Factor: 2},
	})

	// 600000: closes 10..19 over 4-15 March with no bar on the 13th, ex-date on the 11th.
	var daily []models.Bar
	closes := map[int]float64{4: 10, 5: 11, 6: 12, 7: 13, 8: 14, 11: 15, 12: 16, 14: 18, 15: 19}
	for _, d := range []int{4, 5, 6, 7, 8, 11, 12, 14, 15} {
		factor := 1.0
		if d >= 11 {
			factor = 2
		}
		daily = append(daily, dailyBar(day(time.March, d), closes[d], factor))
	}
	_ = f.bars.WriteBars(ctx, "600000.XSHG", models.UnitDay, daily)
	_ = f.bars.WriteBars(ctx, "300999.XSHE", models.UnitDay, []models.Bar{
		dailyBar(day(time.March, 6), 30, 1), dailyBar(day(time.March, 7), 31, 1), dailyBar(day(time.March, 8), 32, 1),
	})

	m4, m5 := day(time.March, 4), day(time.March, 5)
	_ = f.bars.WriteBars(ctx, "600000.XSHG", models.UnitMinute, []models.Bar{
		minuteBar(m4.Add(14*time.Hour+58*time.Minute), 9.8, 9.9, 5),
		minuteBar(m4.Add(14*time.Hour+59*time.Minute), 9.9, 10.0, 10),
		minuteBar(m4.Add(15*time.Hour), 10.0, 10.1, 20),
		minuteBar(m5.Add(9*time.Hour+31*time.Minute), 10.2, 10.3, 30),
		minuteBar(m5.Add(9*time.Hour+32*time.Minute), 10.3, 10.4, 40),
		minuteBar(m5.Add(9*time.Hour+33*time.Minute), 10.4, 10.5, 50),
	})

	f.cal = calendar.NewService(f.ref, calendar.YearEndHorizon{Now: func() time.Time { return testNow }}, nil)
	f.cat = catalog.New(f.ref, nil, time.Minute)
	f.factors = adjust.NewFactorCache(f.ref, nil)
	f.price = NewPriceUseCase(f.bars, f.cal, f.cat, f.factors, adjust.NewEngine(), nil,
		WithAudit(f.audit), WithWorkers(2))
	return f
}

type captureAudit struct {
	mu     sync.Mutex
	events []models.QueryAudit
	err    error
}

func (a *captureAudit) PublishQuery(_ context.Context, ev models.QueryAudit) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return a.err
}

var errStoreDown = errors.New("store down")

type failingStore struct{}

func (failingStore) FetchBars(context.Context, string, models.Unit, time.Time, time.Time) ([]models.Bar, error) {
	return nil, errStoreDown
}
