package timeseries

import (
	"math"
	"testing"
	"time"
)

func hourly(start time.Time, n int) []time.Time {
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return times
}

func TestNewTableValidation(t *testing.T) {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := NewTable(nil, nil); err == nil {
		t.Error("expected error for empty index")
	}

	backwards := []time.Time{start.Add(time.Hour), start}
	if _, err := NewTable(backwards, nil); err == nil {
		t.Error("expected error for non-monotonic index")
	}

	if _, err := NewTable(hourly(start, 3), map[string][]float64{"ff": {1, 2}}); err == nil {
		t.Error("expected error for column length mismatch")
	}
}

func TestRegularizeInsertsMissingRows(t *testing.T) {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	// Hourly series with hour 2 missing.
	times := []time.Time{start, start.Add(1 * time.Hour), start.Add(3 * time.Hour), start.Add(4 * time.Hour)}
	table, err := NewTable(times, map[string][]float64{"ff": {1, 2, 4, 5}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	regular, inflated, err := table.Regularize(false)
	if err != nil {
		t.Fatalf("Regularize: %v", err)
	}
	if inflated != 1 {
		t.Errorf("inflated = %d, want 1", inflated)
	}
	if regular.Len() != 5 {
		t.Fatalf("Len = %d, want 5", regular.Len())
	}

	ff, _ := regular.Column("ff")
	if !math.IsNaN(ff[2]) {
		t.Errorf("missing row should be NaN, got %v", ff[2])
	}
	if ff[3] != 4 || ff[4] != 5 {
		t.Errorf("shifted values: %v", ff)
	}
}

func TestRegularizeInflationGuard(t *testing.T) {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	// One ten-minute gap in an otherwise daily series forces a huge grid.
	times := []time.Time{start, start.Add(10 * time.Minute), start.Add(24 * time.Hour)}
	table, err := NewTable(times, map[string][]float64{"ff": {1, 2, 3}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	if _, _, err := table.Regularize(false); err == nil {
		t.Error("expected inflation guard to trip")
	}

	regular, inflated, err := table.Regularize(true)
	if err != nil {
		t.Fatalf("forced Regularize: %v", err)
	}
	if inflated <= 100 {
		t.Errorf("inflated = %d, want a large number of inserted rows", inflated)
	}
	if regular.MinStep() != 10*time.Minute {
		t.Errorf("MinStep = %v, want 10m", regular.MinStep())
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	table, err := NewTable(hourly(start, 3), map[string][]float64{"ff": {1, 2, 3}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	ff, _ := table.Column("ff")
	ff[0] = 99
	times := table.Times()
	times[0] = start.Add(240 * time.Hour)

	fresh, _ := table.Column("ff")
	if fresh[0] != 1 {
		t.Errorf("column mutated through accessor: got %v, want 1", fresh[0])
	}
	if !table.Times()[0].Equal(start) {
		t.Errorf("time index mutated through accessor: got %v, want %v", table.Times()[0], start)
	}
}

func TestSectorFilter(t *testing.T) {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	table, err := NewTable(hourly(start, 5), map[string][]float64{
		"dd": {10, 180, 350, math.NaN(), 45},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	// Wrap-around sector through north.
	filter := SectorFilter(map[string]Sector{"dd": {Min: 330, Max: 30}})
	result, err := filter(table)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}

	want := []Status{Good, Bad, Good, Ugly, Bad}
	for i, st := range result.Status {
		if st != want[i] {
			t.Errorf("row %d status = %v, want %v", i, st, want[i])
		}
	}
	if result.CountGood() != 2 || result.CountBad() != 2 || result.CountUgly() != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/2/1",
			result.CountGood(), result.CountBad(), result.CountUgly())
	}
}

func TestSectorFilterMissingColumn(t *testing.T) {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	table, _ := NewTable(hourly(start, 2), map[string][]float64{"ff": {1, 2}})

	filter := SectorFilter(map[string]Sector{"dd": {Min: 0, Max: 90}})
	if _, err := filter(table); err == nil {
		t.Error("expected error for missing filter column")
	}
}

func TestAllGood(t *testing.T) {
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	table, _ := NewTable(hourly(start, 3), map[string][]float64{"ff": {1, 2, 3}})

	result, err := AllGood()(table)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if result.CountGood() != 3 {
		t.Errorf("CountGood = %d, want 3", result.CountGood())
	}
}
