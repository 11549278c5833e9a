// Package stats implements the statistical distinguishers that reveal
// dependency between a batch of leakage traces and a secret related
// intermediate value: Welch's t-test, in a two-pass and a streaming
// variant, and Pearson correlation.
//
// All distinguishers operate on trace matrices with one row per trace
// and one column per time sample, restricted to a sample range
// [start, end). They are pure functions without retained state.
// Violated call contracts (inverted or out of range sample ranges,
// empty groups, mismatched classifier lengths) panic; file level
// problems are reported by the npy layer instead.
package stats

import (
	"fmt"
	"math"

	"github.com/manmuqingshan/PAF/npy"
)

// Classification assigns a trace to one of the t-test groups.
type Classification uint8

const (
	// Group0 puts the trace in the first population.
	Group0 Classification = iota

	// Group1 puts the trace in the second population.
	Group1

	// Ignore excludes the trace from both populations.
	Ignore
)

// InterleavedClassifier classifies even rows as Group0 and odd rows as
// Group1, the layout of acquisitions alternating between a fixed and a
// random input.
func InterleavedClassifier(rows int) []Classification {
	c := make([]Classification, rows)
	for i := 0; i < rows; i++ {
		if i%2 == 1 {
			c[i] = Group1
		}
	}
	return c
}

// FindMax returns the element with the largest absolute value and its
// index, keeping the element's sign. An empty slice yields (0, -1).
func FindMax(data []float64) (float64, int) {
	if len(data) == 0 {
		return 0.0, -1
	}

	maxV := data[0]
	index := 0
	for i := 1; i < len(data); i++ {
		if math.Abs(data[i]) > math.Abs(maxV) {
			maxV = data[i]
			index = i
		}
	}
	return maxV, index
}

// checkRange panics unless [start, end) is a valid sample range of a
// matrix with cols columns.
func checkRange(start, end, cols int) {
	if start < 0 || start > end {
		panic(fmt.Sprintf("stats: invalid sample range [%d, %d)", start, end))
	}
	if end > cols {
		panic(fmt.Sprintf("stats: sample range [%d, %d) exceeds the %d available samples",
			start, end, cols))
	}
}

// checkGroup panics unless g is a usable, non-empty trace matrix
// covering the sample range.
func checkGroup(name string, g *npy.Array[float64], start, end int) {
	if !g.Good() {
		panic(fmt.Sprintf("stats: %s is not usable: %s", name, g.Error()))
	}
	if g.Rows() == 0 {
		panic(fmt.Sprintf("stats: %s has no traces", name))
	}
	checkRange(start, end, g.Cols())
}
