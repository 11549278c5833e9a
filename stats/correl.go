package stats

import (
	"fmt"
	"math"

	"github.com/manmuqingshan/PAF/npy"
)

// Correl computes the Pearson correlation coefficient per sample
// column between the traces and a per trace intermediate value series,
// over the sample range [start, end). The series must be a 1 x rows or
// rows x 1 matrix matching the trace count. The result is a
// 1 x (end-start) matrix with values in [-1, 1]; a column or series
// without any spread yields 0.
func Correl(start, end int, traces, ivalues *npy.Array[float64]) *npy.Array[float64] {
	checkGroup("trace matrix", traces, start, end)
	iv := ivalueSeries(traces.Rows(), ivalues)

	rows := traces.Rows()
	meanIV := 0.0
	for _, v := range iv {
		meanIV += v
	}
	meanIV /= float64(rows)

	varIV := 0.0
	for _, v := range iv {
		d := v - meanIV
		varIV += d * d
	}

	out := npy.New[float64](1, end-start)
	for col := start; col < end; col++ {
		sum := 0.0
		for r := 0; r < rows; r++ {
			sum += traces.At(r, col)
		}
		mean := sum / float64(rows)

		var cov, vx float64
		for r := 0; r < rows; r++ {
			dx := traces.At(r, col) - mean
			cov += dx * (iv[r] - meanIV)
			vx += dx * dx
		}

		r := 0.0
		if vx > 0 && varIV > 0 {
			r = cov / math.Sqrt(vx*varIV)
		}
		out.Set(0, col-start, r)
	}
	return out
}

// ivalueSeries validates the intermediate value matrix and flattens it
// into one value per trace.
func ivalueSeries(rows int, ivalues *npy.Array[float64]) []float64 {
	if !ivalues.Good() {
		panic(fmt.Sprintf("stats: intermediate values are not usable: %s",
			ivalues.Error()))
	}

	var iv []float64
	switch {
	case ivalues.Rows() == 1:
		iv = ivalues.Row(0)
	case ivalues.Cols() == 1:
		iv = make([]float64, ivalues.Rows())
		for r := 0; r < ivalues.Rows(); r++ {
			iv[r] = ivalues.At(r, 0)
		}
	default:
		panic(fmt.Sprintf("stats: intermediate values must be a vector, got (%d, %d)",
			ivalues.Rows(), ivalues.Cols()))
	}

	if len(iv) != rows {
		panic(fmt.Sprintf("stats: %d intermediate values for %d traces",
			len(iv), rows))
	}
	return iv
}
