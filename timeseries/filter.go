package timeseries

import (
	"math"

	"github.com/foehnix/foehngo/pkg/errors"
)

// Status classifies one timestamp with respect to a filter.
type Status int8

const (
	// Good observations pass every filter rule and enter the model.
	Good Status = iota
	// Bad observations violate a filter rule; their foehn probability is
	// reported as zero.
	Bad
	// Ugly observations have missing values in a filter variable and are
	// reported as missing.
	Ugly
)

// FilterResult holds the per-row filter classification.
type FilterResult struct {
	Status []Status
}

// CountGood returns the number of good rows.
func (r *FilterResult) CountGood() int { return r.count(Good) }

// CountBad returns the number of bad rows.
func (r *FilterResult) CountBad() int { return r.count(Bad) }

// CountUgly returns the number of ugly rows.
func (r *FilterResult) CountUgly() int { return r.count(Ugly) }

func (r *FilterResult) count(s Status) int {
	n := 0
	for _, st := range r.Status {
		if st == s {
			n++
		}
	}
	return n
}

// Filter classifies every row of a table.
type Filter func(t *Table) (*FilterResult, error)

// AllGood is the identity filter: every row passes.
func AllGood() Filter {
	return func(t *Table) (*FilterResult, error) {
		status := make([]Status, t.Len())
		return &FilterResult{Status: status}, nil
	}
}

// Sector is a closed value interval. Wrap-around sectors (Min > Max) are
// supported for circular variables such as wind direction, e.g.
// Sector{330, 30} keeps directions north of west-northwest through
// north-northeast.
type Sector struct {
	Min, Max float64
}

func (s Sector) contains(v float64) bool {
	if s.Min <= s.Max {
		return v >= s.Min && v <= s.Max
	}
	return v >= s.Min || v <= s.Max
}

// SectorFilter builds a filter that requires every named column to lie
// within its sector. Rows with NaN in any filter column are ugly, rows
// outside any sector are bad.
func SectorFilter(sectors map[string]Sector) Filter {
	return func(t *Table) (*FilterResult, error) {
		cols := make(map[string][]float64, len(sectors))
		for name := range sectors {
			col, ok := t.Column(name)
			if !ok {
				return nil, errors.NewValueError("timeseries.SectorFilter", "filter variable "+name+" not found in data")
			}
			cols[name] = col
		}

		status := make([]Status, t.Len())
		for i := range status {
			for name, sector := range sectors {
				v := cols[name][i]
				if math.IsNaN(v) {
					status[i] = Ugly
					break
				}
				if !sector.contains(v) {
					status[i] = Bad
					break
				}
			}
		}
		return &FilterResult{Status: status}, nil
	}
}
