package stats

import (
	"fmt"
	"io"
	"math"

	"github.com/manmuqingshan/PAF/npy"
)

// welch combines the two group statistics into Welch's t-statistic.
// Degenerate populations with no spread yield 0 rather than a division
// by zero.
func welch(m0, v0, n0, m1, v1, n1 float64) float64 {
	denom := math.Sqrt(v0/n0 + v1/n1)
	if denom == 0 {
		return 0.0
	}
	return (m0 - m1) / denom
}

// meanVariance returns the sample mean and unbiased sample variance of
// one column. A single row has zero variance.
func meanVariance(a *npy.Array[float64], col int) (float64, float64) {
	n := a.Rows()
	sum := 0.0
	for r := 0; r < n; r++ {
		sum += a.At(r, col)
	}
	mean := sum / float64(n)
	if n < 2 {
		return mean, 0.0
	}

	sq := 0.0
	for r := 0; r < n; r++ {
		d := a.At(r, col) - mean
		sq += d * d
	}
	return mean, sq / float64(n-1)
}

// TTest computes Welch's t-statistic per sample column between the two
// groups of traces, over the sample range [start, end):
//
//	t = (m0 - m1) / sqrt(v0/n0 + v1/n1)
//
// with each group's sample mean and unbiased sample variance. The
// result is a 1 x (end-start) matrix. Swapping the groups negates the
// statistic.
func TTest(start, end int, g0, g1 *npy.Array[float64]) *npy.Array[float64] {
	checkGroup("group 0", g0, start, end)
	checkGroup("group 1", g1, start, end)

	n0 := float64(g0.Rows())
	n1 := float64(g1.Rows())
	out := npy.New[float64](1, end-start)
	for col := start; col < end; col++ {
		m0, v0 := meanVariance(g0, col)
		m1, v1 := meanVariance(g1, col)
		out.Set(0, col-start, welch(m0, v0, n0, m1, v1, n1))
	}
	return out
}

// TTestClassified computes Welch's t-statistic per sample column over
// a single trace matrix, with the classifier assigning each row to
// Group0 or Group1 or excluding it. The classifier must cover every
// row and leave neither group empty.
func TTestClassified(start, end int, traces *npy.Array[float64],
	classifier []Classification) *npy.Array[float64] {
	checkGroup("trace matrix", traces, start, end)
	n0, n1 := groupSizes(traces.Rows(), classifier)

	rows := traces.Rows()
	out := npy.New[float64](1, end-start)
	for col := start; col < end; col++ {
		var sum0, sum1 float64
		for r := 0; r < rows; r++ {
			switch classifier[r] {
			case Group0:
				sum0 += traces.At(r, col)
			case Group1:
				sum1 += traces.At(r, col)
			}
		}
		m0 := sum0 / float64(n0)
		m1 := sum1 / float64(n1)

		var sq0, sq1 float64
		for r := 0; r < rows; r++ {
			switch classifier[r] {
			case Group0:
				d := traces.At(r, col) - m0
				sq0 += d * d
			case Group1:
				d := traces.At(r, col) - m1
				sq1 += d * d
			}
		}
		v0 := 0.0
		if n0 > 1 {
			v0 = sq0 / float64(n0-1)
		}
		v1 := 0.0
		if n1 > 1 {
			v1 = sq1 / float64(n1-1)
		}
		out.Set(0, col-start, welch(m0, v0, float64(n0), m1, v1, float64(n1)))
	}
	return out
}

// PerfectTTest computes the same statistic as TTest in a single
// numerically stable streaming pass, using Welford's update for the
// running mean and variance. Both variants agree within floating
// tolerance. A non-nil progress writer receives a short summary of the
// computation before it starts.
func PerfectTTest(start, end int, g0, g1 *npy.Array[float64],
	progress io.Writer) *npy.Array[float64] {
	checkGroup("group 0", g0, start, end)
	checkGroup("group 1", g1, start, end)

	if progress != nil {
		fmt.Fprintf(progress,
			"t-test on samples [%d, %d): %d traces in group #0, %d traces in group #1\n",
			start, end, g0.Rows(), g1.Rows())
	}

	out := npy.New[float64](1, end-start)
	for col := start; col < end; col++ {
		var w0, w1 welford
		for r := 0; r < g0.Rows(); r++ {
			w0.update(g0.At(r, col))
		}
		for r := 0; r < g1.Rows(); r++ {
			w1.update(g1.At(r, col))
		}
		out.Set(0, col-start, welch(
			w0.mean, w0.variance(), float64(w0.n),
			w1.mean, w1.variance(), float64(w1.n)))
	}
	return out
}

// PerfectTTestClassified is the streaming counterpart of
// TTestClassified.
func PerfectTTestClassified(start, end int, traces *npy.Array[float64],
	classifier []Classification, progress io.Writer) *npy.Array[float64] {
	checkGroup("trace matrix", traces, start, end)
	n0, n1 := groupSizes(traces.Rows(), classifier)

	if progress != nil {
		fmt.Fprintf(progress,
			"t-test on samples [%d, %d): %d traces in group #0, %d traces in group #1\n",
			start, end, n0, n1)
	}

	rows := traces.Rows()
	out := npy.New[float64](1, end-start)
	for col := start; col < end; col++ {
		var w0, w1 welford
		for r := 0; r < rows; r++ {
			switch classifier[r] {
			case Group0:
				w0.update(traces.At(r, col))
			case Group1:
				w1.update(traces.At(r, col))
			}
		}
		out.Set(0, col-start, welch(
			w0.mean, w0.variance(), float64(w0.n),
			w1.mean, w1.variance(), float64(w1.n)))
	}
	return out
}

// groupSizes validates the classifier and returns the population of
// each group.
func groupSizes(rows int, classifier []Classification) (int, int) {
	if len(classifier) != rows {
		panic(fmt.Sprintf("stats: %d classifications for %d traces",
			len(classifier), rows))
	}
	n0, n1 := 0, 0
	for _, c := range classifier {
		switch c {
		case Group0:
			n0++
		case Group1:
			n1++
		}
	}
	if n0 == 0 {
		panic("stats: group 0 is empty")
	}
	if n1 == 0 {
		panic("stats: group 1 is empty")
	}
	return n0, n1
}

// welford tracks a running mean and spread in one pass. The update
// keeps precision when the mean dwarfs the differences between
// samples.
type welford struct {
	n    int
	mean float64
	m2   float64
}

func (w *welford) update(x float64) {
	w.n++
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

// variance returns the unbiased sample variance seen so far.
func (w *welford) variance() float64 {
	if w.n < 2 {
		return 0.0
	}
	return w.m2 / float64(w.n-1)
}
