package dump_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/manmuqingshan/PAF/dump"
	"github.com/manmuqingshan/PAF/npy"
)

var _ = Describe("NPYPowerDumper", func() {
	var filename string

	BeforeEach(func() {
		filename = filepath.Join(GinkgoT().TempDir(), "power.npy")
	})

	It("should save one matrix row per trace", func() {
		d := dump.NewNPYPowerDumper(filename, 2)

		d.PreDump()
		d.Dump(powerSample(1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, movsInstruction()))
		d.PostDump()
		d.NextTrace()

		d.PreDump()
		d.Dump(powerSample(2.0, 4.0, 6.0, 8.0, 10.0, 12.0, 14.0, movsInstruction()))
		d.PostDump()
		d.NextTrace()

		Expect(d.Close()).To(Succeed())

		a := npy.ReadFile[float64](filename)
		Expect(a.Good()).To(BeTrue(), a.Error())
		Expect(a.Rows()).To(Equal(2))
		Expect(a.Cols()).To(Equal(1))
		Expect(a.At(0, 0)).To(Equal(1.0))
		Expect(a.At(1, 0)).To(Equal(2.0))
	})

	It("should keep only the total power figure of each sample", func() {
		d := dump.NewNPYPowerDumper(filename, 1)

		d.Dump(powerSample(1.5, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, nil))
		d.Dump(powerSample(2.5, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, nil))
		d.Dump(powerSample(3.5, 9.0, 9.0, 9.0, 9.0, 9.0, 9.0, nil))

		Expect(d.Close()).To(Succeed())

		a := npy.ReadFile[float64](filename)
		Expect(a.Good()).To(BeTrue(), a.Error())
		Expect(a.Rows()).To(Equal(1))
		Expect(a.Cols()).To(Equal(3))
		Expect(a.Row(0)).To(Equal([]float64{1.5, 2.5, 3.5}))
	})

	It("should flush an unterminated trace on Close", func() {
		d := dump.NewNPYPowerDumper(filename, 2)

		d.Dump(powerSample(1.0, 0, 0, 0, 0, 0, 0, nil))
		d.NextTrace()
		d.Dump(powerSample(2.0, 0, 0, 0, 0, 0, 0, nil))

		Expect(d.Close()).To(Succeed())

		a := npy.ReadFile[float64](filename)
		Expect(a.Good()).To(BeTrue(), a.Error())
		Expect(a.Rows()).To(Equal(2))
		Expect(a.Cols()).To(Equal(1))
	})

	It("should refuse traces of different lengths", func() {
		d := dump.NewNPYPowerDumper(filename, 2)

		d.Dump(powerSample(1.0, 0, 0, 0, 0, 0, 0, nil))
		d.Dump(powerSample(2.0, 0, 0, 0, 0, 0, 0, nil))
		d.NextTrace()
		d.Dump(powerSample(3.0, 0, 0, 0, 0, 0, 0, nil))
		d.NextTrace()

		Expect(d.Close()).NotTo(Succeed())
	})
})

var _ = Describe("NPYRegBankDumper", func() {
	var filename string

	BeforeEach(func() {
		filename = filepath.Join(GinkgoT().TempDir(), "regbank.npy")
	})

	It("should concatenate the snapshots of a trace into one row", func() {
		d := dump.NewNPYRegBankDumper(filename, 2)

		d.PreDump()
		d.Dump([]uint64{0, 1, 2, 3, 4})
		d.Dump([]uint64{5, 6, 7, 8, 9})
		d.PostDump()
		d.NextTrace()

		d.PreDump()
		d.Dump([]uint64{10, 11, 12, 13, 14})
		d.Dump([]uint64{15, 16, 17, 18, 19})
		d.PostDump()
		d.NextTrace()

		Expect(d.Close()).To(Succeed())

		a := npy.ReadFile[uint64](filename)
		Expect(a.Good()).To(BeTrue(), a.Error())
		Expect(a.Rows()).To(Equal(2))
		Expect(a.Cols()).To(Equal(10))
		for row := 0; row < a.Rows(); row++ {
			for col := 0; col < a.Cols(); col++ {
				Expect(a.At(row, col)).To(Equal(uint64(row*a.Cols() + col)))
			}
		}
	})

	It("should save an empty matrix when nothing was dumped", func() {
		d := dump.NewNPYRegBankDumper(filename, 0)
		Expect(d.Close()).To(Succeed())

		a := npy.ReadFile[uint64](filename)
		Expect(a.Good()).To(BeTrue(), a.Error())
		Expect(a.Size()).To(Equal(0))
	})
})
