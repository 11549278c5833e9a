package stats_test

import (
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/manmuqingshan/PAF/npy"
	"github.com/manmuqingshan/PAF/stats"
)

var _ = Describe("TTest", func() {
	var g0, g1 *npy.Array[float64]

	BeforeEach(func() {
		g0 = npy.FromSlice(4, 1, []float64{0, 0, 2, 2})
		g1 = npy.FromSlice(4, 1, []float64{1, 1, 3, 3})
	})

	It("should compute Welch's t per sample", func() {
		out := stats.TTest(0, 1, g0, g1)
		Expect(out.Rows()).To(Equal(1))
		Expect(out.Cols()).To(Equal(1))
		Expect(out.At(0, 0)).To(BeNumerically("~", -math.Sqrt(1.5), 1e-12))
	})

	It("should negate when the groups swap", func() {
		forward := stats.TTest(0, 1, g0, g1)
		backward := stats.TTest(0, 1, g1, g0)
		Expect(backward.At(0, 0)).To(BeNumerically("~", -forward.At(0, 0), 1e-12))
	})

	It("should yield zero for identical groups", func() {
		out := stats.TTest(0, 1, g0, g0)
		Expect(out.At(0, 0)).To(Equal(0.0))
	})

	It("should yield zero when neither group has any spread", func() {
		flat0 := npy.FromSlice(2, 1, []float64{1, 1})
		flat1 := npy.FromSlice(2, 1, []float64{3, 3})

		out := stats.TTest(0, 1, flat0, flat1)
		Expect(out.At(0, 0)).To(Equal(0.0))
	})

	It("should restrict the computation to the sample range", func() {
		w0 := npy.FromSlice(4, 3, []float64{
			9, 0, 9,
			9, 0, 9,
			9, 2, 9,
			9, 2, 9,
		})
		w1 := npy.FromSlice(4, 3, []float64{
			7, 1, 7,
			7, 1, 7,
			7, 3, 7,
			7, 3, 7,
		})

		out := stats.TTest(1, 2, w0, w1)
		Expect(out.Cols()).To(Equal(1))
		Expect(out.At(0, 0)).To(BeNumerically("~", -math.Sqrt(1.5), 1e-12))
	})

	It("should reject an inverted sample range", func() {
		Expect(func() { stats.TTest(1, 0, g0, g1) }).To(Panic())
	})

	It("should reject a sample range past the last sample", func() {
		Expect(func() { stats.TTest(0, 2, g0, g1) }).To(Panic())
	})

	It("should reject an empty group", func() {
		empty := npy.New[float64](0, 1)
		Expect(func() { stats.TTest(0, 1, empty, g1) }).To(Panic())
	})
})

var _ = Describe("TTestClassified", func() {
	var (
		traces     *npy.Array[float64]
		classifier []stats.Classification
	)

	BeforeEach(func() {
		traces = npy.FromSlice(8, 1, []float64{0, 1, 0, 1, 2, 3, 2, 3})
		classifier = stats.InterleavedClassifier(8)
	})

	It("should group rows by the classifier", func() {
		out := stats.TTestClassified(0, 1, traces, classifier)
		Expect(out.At(0, 0)).To(BeNumerically("~", -math.Sqrt(1.5), 1e-12))
	})

	It("should exclude ignored traces from both groups", func() {
		extended := npy.FromSlice(10, 1, []float64{0, 1, 0, 1, 2, 3, 2, 3, 99, -99})
		extClassifier := append(stats.InterleavedClassifier(8),
			stats.Ignore, stats.Ignore)

		out := stats.TTestClassified(0, 1, extended, extClassifier)
		Expect(out.At(0, 0)).To(BeNumerically("~", -math.Sqrt(1.5), 1e-12))
	})

	It("should reject a classifier not covering every trace", func() {
		Expect(func() {
			stats.TTestClassified(0, 1, traces, stats.InterleavedClassifier(7))
		}).To(Panic())
	})

	It("should reject a classifier leaving a group empty", func() {
		allG0 := make([]stats.Classification, 8)
		Expect(func() {
			stats.TTestClassified(0, 1, traces, allG0)
		}).To(Panic())
	})
})

var _ = Describe("PerfectTTest", func() {
	var g0, g1 *npy.Array[float64]

	BeforeEach(func() {
		g0 = npy.FromSlice(3, 3, []float64{
			100.25, 3.5, -2.0,
			101.50, 4.0, -2.5,
			99.75, 2.5, -1.0,
		})
		g1 = npy.FromSlice(3, 3, []float64{
			100.75, 1.5, -2.25,
			102.25, 2.0, -0.75,
			100.00, 3.5, -1.50,
		})
	})

	It("should agree with the two-pass computation", func() {
		twoPass := stats.TTest(0, 3, g0, g1)
		streaming := stats.PerfectTTest(0, 3, g0, g1, nil)

		Expect(streaming.Cols()).To(Equal(3))
		for col := 0; col < 3; col++ {
			Expect(streaming.At(0, col)).To(
				BeNumerically("~", twoPass.At(0, col), 1e-9))
		}
	})

	It("should report the populations on the progress writer", func() {
		var progress strings.Builder
		stats.PerfectTTest(1, 3, g0, g1, &progress)

		Expect(progress.String()).To(ContainSubstring("samples [1, 3)"))
		Expect(progress.String()).To(ContainSubstring("3 traces in group #0"))
		Expect(progress.String()).To(ContainSubstring("3 traces in group #1"))
	})
})

var _ = Describe("PerfectTTestClassified", func() {
	It("should agree with the two-pass computation", func() {
		traces := npy.FromSlice(6, 2, []float64{
			10.5, -3.25,
			11.0, -3.00,
			10.0, -3.75,
			12.5, -2.25,
			9.75, -3.10,
			11.25, -2.80,
		})
		classifier := stats.InterleavedClassifier(6)

		twoPass := stats.TTestClassified(0, 2, traces, classifier)
		streaming := stats.PerfectTTestClassified(0, 2, traces, classifier, nil)

		for col := 0; col < 2; col++ {
			Expect(streaming.At(0, col)).To(
				BeNumerically("~", twoPass.At(0, col), 1e-9))
		}
	})
})
