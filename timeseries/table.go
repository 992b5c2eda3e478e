// Package timeseries provides the thin time-series layer around the mixture
// model core: a timestamped column table, inflation to a strictly regular
// grid, and wind-sector filters classifying observations into good, bad and
// ugly ("ugly" meaning the filter variables are missing).
package timeseries

import (
	"math"
	"sort"
	"time"

	"github.com/foehnix/foehngo/pkg/errors"
)

// Table is a set of float columns sharing one monotonically increasing time
// index. Missing observations are NaN.
type Table struct {
	times   []time.Time
	columns map[string][]float64
}

// NewTable creates a table from a time index and named columns. The index
// must be monotonically increasing and every column must match its length.
func NewTable(times []time.Time, columns map[string][]float64) (*Table, error) {
	if len(times) == 0 {
		return nil, errors.NewModelError("timeseries.NewTable", "empty time index", errors.ErrEmptyData)
	}
	for i := 1; i < len(times); i++ {
		if times[i].Before(times[i-1]) {
			return nil, errors.NewValidationError("times", "time index is not monotonically increasing", times[i])
		}
	}

	copied := make(map[string][]float64, len(columns))
	for name, col := range columns {
		if len(col) != len(times) {
			return nil, errors.NewDimensionError("timeseries.NewTable", len(times), len(col), 0)
		}
		copied[name] = append([]float64(nil), col...)
	}

	return &Table{
		times:   append([]time.Time(nil), times...),
		columns: copied,
	}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.times) }

// Times returns a copy of the time index; mutating it does not affect the
// table.
func (t *Table) Times() []time.Time {
	return append([]time.Time(nil), t.times...)
}

// Column returns a copy of a column by name; mutating it does not affect the
// table.
func (t *Table) Column(name string) ([]float64, bool) {
	col, ok := t.columns[name]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), col...), true
}

// Columns returns the column names in sorted order.
func (t *Table) Columns() []string {
	names := make([]string, 0, len(t.columns))
	for name := range t.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MinStep returns the smallest positive spacing of the time index.
func (t *Table) MinStep() time.Duration {
	min := time.Duration(0)
	for i := 1; i < len(t.times); i++ {
		d := t.times[i].Sub(t.times[i-1])
		if d > 0 && (min == 0 || d < min) {
			min = d
		}
	}
	return min
}

// Regularize inflates the table to a strictly regular time grid with the
// minimal observed spacing, inserting NaN rows for missing timestamps. It
// returns the inflated table and the number of inserted rows.
//
// If the inflated size exceeds twice the original the call fails, unless
// force is true; a badly irregular series can otherwise explode the memory
// footprint.
func (t *Table) Regularize(force bool) (*Table, int, error) {
	step := t.MinStep()
	if step == 0 {
		// Single timestamp or fully duplicated index; nothing to inflate.
		return t, 0, nil
	}

	span := t.times[len(t.times)-1].Sub(t.times[0])
	inflated := int(span/step) + 1
	if float64(inflated)/float64(len(t.times)) > 2 && !force {
		return nil, 0, errors.NewValidationError("force_inflate",
			"inflating to a strictly regular time series would more than double the data; check the time index or force inflation",
			inflated)
	}

	times := make([]time.Time, inflated)
	for i := range times {
		times[i] = t.times[0].Add(time.Duration(i) * step)
	}

	columns := make(map[string][]float64, len(t.columns))
	for name := range t.columns {
		col := make([]float64, inflated)
		for i := range col {
			col[i] = math.NaN()
		}
		columns[name] = col
	}

	// Map original rows onto the grid. Rows that do not land exactly on a
	// grid point keep their nearest preceding slot.
	for i, ts := range t.times {
		idx := int(ts.Sub(t.times[0]) / step)
		if idx < 0 || idx >= inflated {
			continue
		}
		for name, col := range t.columns {
			columns[name][idx] = col[i]
		}
	}

	out := &Table{times: times, columns: columns}
	return out, inflated - len(t.times), nil
}
