package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"

	"PriceQuery/internal/domain/models"
	applogger "PriceQuery/pkg/logger"
)

// parquetBar is the on-disk row. Time is unix milliseconds.
type parquetBar struct {
	Time         int64   `parquet:"time"`
	Open         float64 `parquet:"open"`
	Close        float64 `parquet:"close"`
	High         float64 `parquet:"high"`
	Low          float64 `parquet:"low"`
	Volume       float64 `parquet:"volume"`
	Money        float64 `parquet:"money"`
	Factor       float64 `parquet:"factor"`
	HighLimit    float64 `parquet:"high_limit"`
	LowLimit     float64 `parquet:"low_limit"`
	Avg          float64 `parquet:"avg"`
	PreClose     float64 `parquet:"pre_close"`
	Paused       bool    `parquet:"paused"`
	OpenInterest float64 `parquet:"open_interest"`
}

func toParquet(b models.Bar) parquetBar {
	return parquetBar{
		Time: b.Time.UnixMilli(), Open: b.Open, Close: b.Close, High: b.High, Low: b.Low,
		Volume: b.Volume, Money: b.Money, Factor: b.Factor, HighLimit: b.HighLimit,
		LowLimit: b.LowLimit, Avg: b.Avg, PreClose: b.PreClose, Paused: b.Paused,
		OpenInterest: b.OpenInterest,
	}
}

func (r parquetBar) bar() models.Bar {
	b := models.Bar{
		Time: time.UnixMilli(r.Time).In(models.Exchange), Open: r.Open, Close: r.Close,
		High: r.High, Low: r.Low, Volume: r.Volume, Money: r.Money, Factor: r.Factor,
		HighLimit: r.HighLimit, LowLimit: r.LowLimit, Avg: r.Avg, PreClose: r.PreClose,
		Paused: r.Paused, OpenInterest: r.OpenInterest,
	}
	if b.Paused {
		b.Status = models.StatusPaused
	}
	return b
}

// ParquetBarStore keeps one parquet file per security and unit under base.
type ParquetBarStore struct {
	base string
	mu   sync.RWMutex
	l    *applogger.Logger
}

func NewParquetBarStore(base string) *ParquetBarStore {
	return &ParquetBarStore{base: base}
}

func (s *ParquetBarStore) SetLogger(l *applogger.Logger) { s.l = l }

// Path is where bars of code at unit live.
func (s *ParquetBarStore) Path(code string, unit models.Unit) string {
	return filepath.Join(s.base, string(unit), strings.ReplaceAll(code, ".", "_")+".parquet")
}

// FetchBars returns nothing when the file does not exist.
func (s *ParquetBarStore) FetchBars(_ context.Context, code string, unit models.Unit, from, to time.Time) ([]models.Bar, error) {
	start := time.Now()
	s.mu.RLock()
	rows, err := s.read(code, unit)
	s.mu.RUnlock()
	if err != nil {
		if s.l != nil {
			s.l.Error("parquet fetch_bars error", applogger.String("code", code), applogger.Error(err))
		}
		return nil, err
	}

	lo, hi := from.UnixMilli(), to.UnixMilli()
	i := sort.Search(len(rows), func(i int) bool { return rows[i].Time >= lo })
	out := make([]models.Bar, 0, 64)
	for ; i < len(rows) && rows[i].Time <= hi; i++ {
		out = append(out, rows[i].bar())
	}
	if s.l != nil {
		s.l.Debug("parquet fetch_bars ok",
			applogger.String("code", code),
			applogger.String("unit", string(unit)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// WriteBars merges bars into the file, replacing rows with equal times.
func (s *ParquetBarStore) WriteBars(_ context.Context, code string, unit models.Unit, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(code, unit)
	if err != nil {
		return err
	}
	merged := make(map[int64]parquetBar, len(existing)+len(bars))
	for _, r := range existing {
		merged[r.Time] = r
	}
	for _, b := range bars {
		merged[b.Time.UnixMilli()] = toParquet(b)
	}
	rows := make([]parquetBar, 0, len(merged))
	for _, r := range merged {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Time < rows[j].Time })

	path := s.Path(code, unit)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("parquet mkdir: %w", err)
	}
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("parquet write %s: %w", code, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("parquet rename: %w", err)
	}
	if s.l != nil {
		s.l.Info("parquet write_bars ok",
			applogger.String("code", code),
			applogger.String("unit", string(unit)),
			applogger.Int("rows", len(rows)),
		)
	}
	return nil
}

// LastBarTime reports the time of the newest row in the file.
func (s *ParquetBarStore) LastBarTime(_ context.Context, code string, unit models.Unit) (time.Time, bool, error) {
	s.mu.RLock()
	rows, err := s.read(code, unit)
	s.mu.RUnlock()
	if err != nil || len(rows) == 0 {
		return time.Time{}, false, err
	}
	return time.UnixMilli(rows[len(rows)-1].Time).In(models.Exchange), true, nil
}

func (s *ParquetBarStore) read(code string, unit models.Unit) ([]parquetBar, error) {
	rows, err := parquet.ReadFile[parquetBar](s.Path(code, unit))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parquet read %s: %w", code, err)
	}
	return rows, nil
}
