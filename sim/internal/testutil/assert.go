// Package testutil provides shared test infrastructure for the procsim packages.
// It has no dependency on sim/ so that sim's own tests can use it.
package testutil

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertDeepEqual fails with a readable diff when got differs from want.
// Works for range lists, records and other plain structs.
func AssertDeepEqual(t *testing.T, name string, want, got any) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
	}
}

// Row is one trace record, in the shape of the CSV and SWF loaders' output.
type Row struct {
	ID     string
	User   string
	Submit int64
	Start  int64
	End    int64
	Size   int
}

// SimultaneousRows returns n jobs of the given size submitted and started at the same
// time, all running for runtime.
func SimultaneousRows(n, size int, at, runtime int64) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			ID:     "j" + string(rune('a'+i)),
			Submit: at,
			Start:  at,
			End:    at + runtime,
			Size:   size,
		}
	}
	return rows
}
