package models

import (
	"encoding/json"
	"math"
	"time"
)

// Table is a time-indexed matrix stored column-major: Values[c][r] is column
// c at Index[r]. Codes is set only on flattened multi-security tables and
// names the security of each row.
type Table struct {
	Index    []time.Time
	Columns  []string
	Values   [][]float64
	Codes    []string
	DateOnly bool
}

// NewTable allocates an empty table with the given columns.
func NewTable(columns []string, capacity int, dateOnly bool) *Table {
	t := &Table{
		Index:    make([]time.Time, 0, capacity),
		Columns:  append([]string(nil), columns...),
		Values:   make([][]float64, len(columns)),
		DateOnly: dateOnly,
	}
	for i := range t.Values {
		t.Values[i] = make([]float64, 0, capacity)
	}
	return t
}

// Len is the row count.
func (t *Table) Len() int { return len(t.Index) }

// Column returns the values of name, or nil.
func (t *Table) Column(name string) []float64 {
	for i, c := range t.Columns {
		if c == name {
			return t.Values[i]
		}
	}
	return nil
}

// AppendRow adds one row; values are in column order.
func (t *Table) AppendRow(at time.Time, values ...float64) {
	t.Index = append(t.Index, at)
	for i := range t.Values {
		t.Values[i] = append(t.Values[i], values[i])
	}
}

type tableJSON struct {
	Index   []string     `json:"index"`
	Columns []string     `json:"columns"`
	Codes   []string     `json:"codes,omitempty"`
	Data    [][]*float64 `json:"data"`
}

// MarshalJSON writes rows in row-major order with NaN as null.
func (t *Table) MarshalJSON() ([]byte, error) {
	layout := "2006-01-02 15:04:05"
	if t.DateOnly {
		layout = "2006-01-02"
	}
	out := tableJSON{
		Index:   make([]string, len(t.Index)),
		Columns: t.Columns,
		Codes:   t.Codes,
		Data:    make([][]*float64, len(t.Index)),
	}
	for r, at := range t.Index {
		out.Index[r] = at.In(Exchange).Format(layout)
		row := make([]*float64, len(t.Columns))
		for c := range t.Columns {
			if v := t.Values[c][r]; !math.IsNaN(v) && !math.IsInf(v, 0) {
				row[c] = &v
			}
		}
		out.Data[r] = row
	}
	return json.Marshal(out)
}

// ResultKind tags which member of PriceResult is populated.
type ResultKind string

const (
	KindTable ResultKind = "table"
	KindPanel ResultKind = "panel"
)

// PriceResult is either a single Table (one security, or the flattened
// multi-security shape) or a Panel keyed by field.
type PriceResult struct {
	Kind   ResultKind        `json:"kind"`
	Table  *Table            `json:"table,omitempty"`
	Panel  map[string]*Table `json:"panel,omitempty"`
	Fields []string          `json:"fields"`
}

// Empty reports whether the result holds no rows.
func (r *PriceResult) Empty() bool {
	switch r.Kind {
	case KindTable:
		return r.Table == nil || r.Table.Len() == 0
	default:
		for _, t := range r.Panel {
			if t.Len() > 0 {
				return false
			}
		}
		return true
	}
}

// QueryAudit is published after each price query.
type QueryAudit struct {
	ID         string    `json:"id"`
	Op         string    `json:"op"`
	Codes      []string  `json:"codes"`
	Frequency  string    `json:"frequency"`
	Adjust     string    `json:"fq"`
	Rows       int       `json:"rows"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}
