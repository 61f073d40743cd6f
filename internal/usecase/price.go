package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"PriceQuery/internal/domain/models"
	domrepo "PriceQuery/internal/domain/repository"
	"PriceQuery/internal/services/adjust"
	"PriceQuery/internal/services/calendar"
	"PriceQuery/internal/services/catalog"
	"PriceQuery/internal/services/code"
	"PriceQuery/internal/services/paused"
	"PriceQuery/internal/services/resample"
	applogger "PriceQuery/pkg/logger"
)

// PriceUseCase answers get-price queries: it resolves the calendar window,
// fetches raw bars per security, then adjusts, resamples and applies the
// paused-row policy before laying out the result.
type PriceUseCase struct {
	bars     domrepo.BarStore
	calendar *calendar.Service
	catalog  *catalog.Catalog
	factors  *adjust.FactorCache
	engine   *adjust.Engine
	metrics  domrepo.Metrics
	audit    domrepo.AuditPublisher
	l        *applogger.Logger
	workers  int
}

type PriceOption func(*PriceUseCase)

// WithAudit publishes one event per query.
func WithAudit(p domrepo.AuditPublisher) PriceOption {
	return func(u *PriceUseCase) { u.audit = p }
}

// WithWorkers bounds how many securities are processed at once.
func WithWorkers(n int) PriceOption {
	return func(u *PriceUseCase) {
		if n > 0 {
			u.workers = n
		}
	}
}

func WithLogger(l *applogger.Logger) PriceOption {
	return func(u *PriceUseCase) { u.l = l }
}

func NewPriceUseCase(
	bars domrepo.BarStore,
	cal *calendar.Service,
	cat *catalog.Catalog,
	factors *adjust.FactorCache,
	engine *adjust.Engine,
	metrics domrepo.Metrics,
	opts ...PriceOption,
) *PriceUseCase {
	u := &PriceUseCase{
		bars: bars, calendar: cal, catalog: cat, factors: factors, engine: engine,
		metrics: metrics, l: applogger.Nop(), workers: 8,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// pricePlan is a validated query.
type pricePlan struct {
	codes    []string
	secs     []models.Security
	fields   []string
	timeline []time.Time
}

// GetPrice runs q. An empty calendar window yields an empty result of the
// requested shape.
func (u *PriceUseCase) GetPrice(ctx context.Context, q models.PriceQuery) (res *models.PriceResult, err error) {
	start := time.Now()
	id := uuid.NewString()
	rows := 0
	defer func() {
		u.finish(ctx, id, q, rows, time.Since(start), err)
	}()

	if q.Shape == "" {
		q.Shape = models.ShapePanel
	}
	plan, err := u.plan(ctx, q)
	if err != nil {
		return nil, err
	}

	series := make([][]models.Bar, len(plan.codes))
	if len(plan.timeline) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(u.workers)
		for i := range plan.codes {
			g.Go(func() error {
				out, err := u.pipeline(gctx, q, plan.secs[i], plan.timeline)
				if err != nil {
					return err
				}
				series[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	for _, s := range series {
		rows += len(s)
	}
	return assemble(plan, series, q), nil
}

func (u *PriceUseCase) plan(ctx context.Context, q models.PriceQuery) (pricePlan, error) {
	var p pricePlan
	if len(q.Codes) == 0 {
		return p, fmt.Errorf("%w: no security given", models.ErrInvalidArgument)
	}
	if q.Start != nil && q.Count != nil {
		return p, fmt.Errorf("%w: start_date and count are mutually exclusive", models.ErrConflictingArgs)
	}
	if q.Count != nil && *q.Count <= 0 {
		return p, fmt.Errorf("%w: count must be positive, got %d", models.ErrInvalidArgument, *q.Count)
	}
	if q.Frequency.Multiplier <= 0 || (q.Frequency.Unit != models.UnitDay && q.Frequency.Unit != models.UnitMinute) {
		return p, fmt.Errorf("%w: frequency %v", models.ErrInvalidArgument, q.Frequency)
	}
	switch q.Adjust {
	case "", models.AdjustNone, models.AdjustPre, models.AdjustPost:
	default:
		return p, fmt.Errorf("%w: fq %q", models.ErrInvalidArgument, q.Adjust)
	}
	switch q.Shape {
	case "", models.ShapePanel, models.ShapeFlat:
	default:
		return p, fmt.Errorf("%w: shape %q", models.ErrInvalidArgument, q.Shape)
	}

	codes, err := code.NormalizeList(q.Codes)
	if err != nil {
		return p, err
	}
	p.codes = dedupe(codes)
	if err := paused.ValidateShape(q.SkipPaused, q.Shape, len(p.codes)); err != nil {
		return p, err
	}

	p.fields = q.Fields
	if len(p.fields) == 0 {
		p.fields = models.DefaultFields
	}
	p.secs = make([]models.Security, len(p.codes))
	for i, c := range p.codes {
		sec, err := u.catalog.Info(ctx, c, nil)
		if err != nil {
			return p, err
		}
		if err := resample.ValidateFields(p.fields, q.Frequency.Multiplier, sec.Type); err != nil {
			return p, err
		}
		p.secs[i] = sec
	}

	snap, err := u.calendar.Snapshot(ctx)
	if err != nil {
		return p, err
	}
	p.timeline, err = timeline(snap, q)
	return p, err
}

// timeline lists the calendar units the query spans. Minute timelines stop
// before end. In range mode it is extended backwards so the earliest
// resampled bar is a full group.
func timeline(snap *calendar.Snapshot, q models.PriceQuery) ([]time.Time, error) {
	x := q.Frequency.Multiplier
	daily := q.Frequency.Unit == models.UnitDay
	end := q.End
	if end == nil {
		end = models.DefaultEnd
	}

	if q.Count != nil {
		if daily {
			return snap.TrailingDays(end.Time, *q.Count*x)
		}
		return snap.CompletedWindow(end.Time, *q.Count*x)
	}

	start := q.Start
	if start == nil {
		start = models.DefaultStart
	}
	var (
		units []time.Time
		err   error
	)
	if daily {
		units, err = snap.DaysInRange(start.Time, end.Time)
	} else {
		// the minute stamped end is still forming
		units, err = snap.MinutesInRange(start.Time, end.Time.Add(-time.Nanosecond))
	}
	if err != nil || len(units) == 0 {
		return units, err
	}
	pad := (x - len(units)%x) % x
	if pad == 0 {
		return units, nil
	}
	var before []time.Time
	if daily {
		before = snap.DaysBefore(units[0], pad)
	} else {
		before = snap.MinutesBefore(units[0], pad)
	}
	return append(before, units...), nil
}

// pipeline produces the output rows of one security.
func (u *PriceUseCase) pipeline(ctx context.Context, q models.PriceQuery, sec models.Security, tl []time.Time) ([]models.Bar, error) {
	unit := q.Frequency.Unit
	from, to := tl[0], tl[len(tl)-1]
	if unit == models.UnitDay {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	raw, err := u.bars.FetchBars(ctx, sec.Code, unit, from, to)
	if err != nil {
		return nil, err
	}
	if u.metrics != nil {
		u.metrics.RecordBarsFetched(string(unit), len(raw))
	}

	rows := densify(tl, raw, sec, unit)
	if (q.Adjust != models.AdjustNone && q.Adjust != "") || containsField(q.Fields, models.FieldFactor) {
		series, err := u.factors.Series(ctx, sec.Code)
		if err != nil {
			return nil, err
		}
		if rows, err = u.engine.Adjust(rows, series, q.Adjust); err != nil {
			return nil, err
		}
	}
	rows = resample.Resample(rows, q.Frequency)
	return paused.Apply(rows, q.SkipPaused, q.FillPaused), nil
}

// densify lays bars onto the timeline. Units without a bar become
// placeholders marked paused, not yet listed, or delisted.
func densify(tl []time.Time, bars []models.Bar, sec models.Security, unit models.Unit) []models.Bar {
	key := func(t time.Time) int64 {
		if unit == models.UnitDay {
			return int64(models.DayKey(t))
		}
		return t.Unix()
	}
	byKey := make(map[int64]models.Bar, len(bars))
	for _, b := range bars {
		byKey[key(b.Time)] = b
	}

	out := make([]models.Bar, len(tl))
	for i, t := range tl {
		if b, ok := byKey[key(t)]; ok {
			b.Time = t
			b.Status = models.StatusTrading
			if b.Paused {
				b.Status = models.StatusPaused
			}
			out[i] = b
			continue
		}
		status := sec.StatusOn(t)
		if status == models.StatusTrading {
			status = models.StatusPaused
		}
		out[i] = models.Placeholder(t, status)
	}
	return out
}

func assemble(p pricePlan, series [][]models.Bar, q models.PriceQuery) *models.PriceResult {
	dateOnly := q.Frequency.Unit == models.UnitDay
	res := &models.PriceResult{Fields: append([]string(nil), p.fields...)}

	switch {
	case len(p.codes) == 1:
		res.Kind = models.KindTable
		res.Table = rowTable(p.fields, series[0], dateOnly)
	case q.Shape == models.ShapeFlat:
		res.Kind = models.KindTable
		res.Table = flatTable(p, series, dateOnly)
	default:
		res.Kind = models.KindPanel
		res.Panel = make(map[string]*models.Table, len(p.fields))
		n := len(series[0])
		for _, f := range p.fields {
			t := models.NewTable(p.codes, n, dateOnly)
			vals := make([]float64, len(p.codes))
			for r := 0; r < n; r++ {
				for c := range p.codes {
					vals[c] = series[c][r].Value(f)
				}
				t.AppendRow(series[0][r].Time, vals...)
			}
			res.Panel[f] = t
		}
	}
	return res
}

func rowTable(fields []string, rows []models.Bar, dateOnly bool) *models.Table {
	t := models.NewTable(fields, len(rows), dateOnly)
	vals := make([]float64, len(fields))
	for i := range rows {
		for c, f := range fields {
			vals[c] = rows[i].Value(f)
		}
		t.AppendRow(rows[i].Time, vals...)
	}
	return t
}

// flatTable interleaves every security's rows by time, securities in input
// order within a timestamp.
func flatTable(p pricePlan, series [][]models.Bar, dateOnly bool) *models.Table {
	type ref struct{ s, r int }
	refs := make([]ref, 0, len(series)*len(p.timeline))
	for s := range series {
		for r := range series[s] {
			refs = append(refs, ref{s, r})
		}
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return series[refs[i].s][refs[i].r].Time.Before(series[refs[j].s][refs[j].r].Time)
	})

	t := models.NewTable(p.fields, len(refs), dateOnly)
	t.Codes = make([]string, 0, len(refs))
	vals := make([]float64, len(p.fields))
	for _, x := range refs {
		b := &series[x.s][x.r]
		for c, f := range p.fields {
			vals[c] = b.Value(f)
		}
		t.AppendRow(b.Time, vals...)
		t.Codes = append(t.Codes, p.codes[x.s])
	}
	return t
}

func (u *PriceUseCase) finish(ctx context.Context, id string, q models.PriceQuery, rows int, took time.Duration, err error) {
	if u.metrics != nil {
		u.metrics.RecordQuery("get_price", len(q.Codes), took.Seconds())
		if err != nil {
			u.metrics.RecordError(ErrorKind(err))
		}
	}
	fields := []applogger.Field{
		applogger.String("query_id", id),
		applogger.Strings("codes", q.Codes),
		applogger.String("frequency", q.Frequency.String()),
		applogger.Int("rows", rows),
		applogger.Duration("duration_ms", took),
	}
	if err != nil {
		u.l.Warn("price query failed", append(fields, applogger.Error(err))...)
	} else {
		u.l.Info("price query ok", fields...)
	}

	if u.audit == nil {
		return
	}
	ev := models.QueryAudit{
		ID: id, Op: "get_price", Codes: q.Codes, Frequency: q.Frequency.String(),
		Adjust: string(q.Adjust), Rows: rows, DurationMS: took.Milliseconds(), At: time.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if perr := u.audit.PublishQuery(context.WithoutCancel(ctx), ev); perr != nil {
		u.l.Warn("audit publish failed", applogger.String("query_id", id), applogger.Error(perr))
	}
}

func dedupe(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := codes[:0]
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func containsField(fields []string, f string) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}
