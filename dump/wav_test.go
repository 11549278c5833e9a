package dump_test

import (
	"os"
	"path/filepath"

	"github.com/go-audio/wav"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/manmuqingshan/PAF/dump"
)

var _ = Describe("WAVPowerDumper", func() {
	var filename string

	BeforeEach(func() {
		filename = filepath.Join(GinkgoT().TempDir(), "power.wav")
	})

	decode := func() *wav.Decoder {
		f, err := os.Open(filename)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { f.Close() })

		dec := wav.NewDecoder(f)
		Expect(dec.IsValidFile()).To(BeTrue())
		return dec
	}

	It("should write mono 16 bit PCM at the configured rate", func() {
		d := dump.NewWAVPowerDumper(filename, 24000)
		d.Dump(powerSample(1.0, 0, 0, 0, 0, 0, 0, nil))
		Expect(d.Close()).To(Succeed())

		dec := decode()
		Expect(dec.NumChans).To(Equal(uint16(1)))
		Expect(dec.BitDepth).To(Equal(uint16(16)))
		Expect(dec.SampleRate).To(Equal(uint32(24000)))
	})

	It("should scale the loudest sample to 90% of full scale", func() {
		d := dump.NewWAVPowerDumper(filename, 8000)
		d.Dump(powerSample(10.0, 0, 0, 0, 0, 0, 0, nil))
		d.Dump(powerSample(-5.0, 0, 0, 0, 0, 0, 0, nil))
		d.NextTrace()
		d.Dump(powerSample(2.5, 0, 0, 0, 0, 0, 0, nil))
		Expect(d.Close()).To(Succeed())

		buf, err := decode().FullPCMBuffer()
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.Data).To(Equal([]int{29490, -14745, 7373}))
	})

	It("should emit silence when every sample is zero", func() {
		d := dump.NewWAVPowerDumper(filename, 8000)
		d.Dump(powerSample(0, 0, 0, 0, 0, 0, 0, nil))
		d.Dump(powerSample(0, 0, 0, 0, 0, 0, 0, nil))
		Expect(d.Close()).To(Succeed())

		buf, err := decode().FullPCMBuffer()
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.Data).To(Equal([]int{0, 0}))
	})
})
