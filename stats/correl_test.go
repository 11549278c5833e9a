package stats_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/manmuqingshan/PAF/npy"
	"github.com/manmuqingshan/PAF/stats"
)

var _ = Describe("Correl", func() {
	var (
		traces  *npy.Array[float64]
		ivalues *npy.Array[float64]
	)

	BeforeEach(func() {
		// Column 0 follows the intermediate values, column 1 opposes
		// them, column 2 is flat.
		traces = npy.FromSlice(4, 3, []float64{
			1, 8, 5,
			2, 6, 5,
			3, 4, 5,
			4, 2, 5,
		})
		ivalues = npy.FromSlice(1, 4, []float64{1, 2, 3, 4})
	})

	It("should find perfect correlation where the column tracks the values", func() {
		out := stats.Correl(0, 3, traces, ivalues)
		Expect(out.Rows()).To(Equal(1))
		Expect(out.Cols()).To(Equal(3))
		Expect(out.At(0, 0)).To(BeNumerically("~", 1.0, 1e-12))
		Expect(out.At(0, 1)).To(BeNumerically("~", -1.0, 1e-12))
	})

	It("should yield zero for a column without spread", func() {
		out := stats.Correl(0, 3, traces, ivalues)
		Expect(out.At(0, 2)).To(Equal(0.0))
	})

	It("should yield zero for values without spread", func() {
		flat := npy.FromSlice(1, 4, []float64{7, 7, 7, 7})
		out := stats.Correl(0, 3, traces, flat)
		Expect(out.At(0, 0)).To(Equal(0.0))
		Expect(out.At(0, 1)).To(Equal(0.0))
	})

	It("should compute the expected coefficient for a partial fit", func() {
		partial := npy.FromSlice(4, 1, []float64{1, 2, 2, 4})
		out := stats.Correl(0, 1, partial, ivalues)
		Expect(out.At(0, 0)).To(BeNumerically("~", 4.5/math.Sqrt(23.75), 1e-12))
	})

	It("should stay within [-1, 1]", func() {
		out := stats.Correl(0, 3, traces, ivalues)
		for col := 0; col < out.Cols(); col++ {
			Expect(math.Abs(out.At(0, col))).To(BeNumerically("<=", 1.0))
		}
	})

	It("should accept the values as a column vector", func() {
		column := npy.FromSlice(4, 1, []float64{1, 2, 3, 4})
		out := stats.Correl(0, 1, traces, column)
		Expect(out.At(0, 0)).To(BeNumerically("~", 1.0, 1e-12))
	})

	It("should restrict the computation to the sample range", func() {
		out := stats.Correl(1, 2, traces, ivalues)
		Expect(out.Cols()).To(Equal(1))
		Expect(out.At(0, 0)).To(BeNumerically("~", -1.0, 1e-12))
	})

	It("should reject a value series of the wrong length", func() {
		short := npy.FromSlice(1, 3, []float64{1, 2, 3})
		Expect(func() { stats.Correl(0, 3, traces, short) }).To(Panic())
	})

	It("should reject a value matrix that is not a vector", func() {
		block := npy.New[float64](2, 2)
		Expect(func() { stats.Correl(0, 3, traces, block) }).To(Panic())
	})
})
