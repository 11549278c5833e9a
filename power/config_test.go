package power_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/manmuqingshan/PAF/noise"
	"github.com/manmuqingshan/PAF/power"
)

var _ = Describe("TraceConfig", func() {
	// The declaration order of the sources, reused to walk the mask.
	sources := []power.SourceMask{
		power.SourcePC,
		power.SourceOpcode,
		power.SourceMemAddress,
		power.SourceMemData,
		power.SourceRegInputs,
		power.SourceRegOutputs,
		power.SourceLoadToLoadTransition,
		power.SourceStoreToStoreTransition,
		power.SourceLastMemoryAccessTransition,
		power.SourceMemoryUpdateTransition,
	}

	It("should select every source by default", func() {
		var cfg power.TraceConfig
		Expect(cfg.All()).To(BeTrue())
		Expect(cfg.None()).To(BeFalse())

		cfg = *power.NewTraceConfig()
		Expect(cfg.All()).To(BeTrue())
		for _, s := range sources {
			Expect(cfg.Has(s)).To(BeTrue())
		}
	})

	It("should select nothing after Clear", func() {
		cfg := power.NewTraceConfig().Clear()
		Expect(cfg.None()).To(BeTrue())
		Expect(cfg.All()).To(BeFalse())
		for _, s := range sources {
			Expect(cfg.Has(s)).To(BeFalse())
		}
		Expect(cfg.AnyMemoryTransition()).To(BeFalse())
	})

	It("should accumulate sources one Set at a time", func() {
		cfg := power.NewTraceConfig().Clear()
		for n, s := range sources {
			cfg.Set(s)
			for m, o := range sources {
				if m <= n {
					Expect(cfg.Has(o)).To(BeTrue(), "source %d after setting %d", m, n)
				} else {
					Expect(cfg.Has(o)).To(BeFalse(), "source %d after setting %d", m, n)
				}
			}
			// The transition sources start at index 6.
			Expect(cfg.AnyMemoryTransition()).To(Equal(n >= 6), "after setting %d", n)
		}
		Expect(cfg.All()).To(BeTrue())
	})

	It("should start from the named sources", func() {
		cfg := power.NewTraceConfig(power.SourcePC, power.SourceOpcode)
		Expect(cfg.Has(power.SourcePC)).To(BeTrue())
		Expect(cfg.Has(power.SourceOpcode)).To(BeTrue())
		Expect(cfg.Has(power.SourcePC | power.SourceOpcode)).To(BeTrue())
		Expect(cfg.Has(power.SourceMemData)).To(BeFalse())
		Expect(cfg.Has(power.SourcePC | power.SourceMemData)).To(BeFalse())
		Expect(cfg.All()).To(BeFalse())
		Expect(cfg.None()).To(BeFalse())
	})
})

var _ = Describe("Model", func() {
	It("should name the models", func() {
		Expect(power.ModelHammingWeight.String()).To(Equal("Hamming weight"))
		Expect(power.ModelHammingDistance.String()).To(Equal("Hamming distance"))
	})
})

var _ = Describe("AnalysisConfig", func() {
	It("should carry the model and the sink", func() {
		pd := &capturePowerDumper{enabled: true}
		cfg := power.NewAnalysisConfig(power.ModelHammingWeight, pd, nil)
		Expect(cfg.Model()).To(Equal(power.ModelHammingWeight))
		Expect(cfg.Dumper()).To(BeIdenticalTo(pd))

		cfg.SetModel(power.ModelHammingDistance)
		Expect(cfg.Model()).To(Equal(power.ModelHammingDistance))
	})

	It("should draw zero noise by default", func() {
		cfg := power.NewAnalysisConfig(power.ModelHammingWeight, nil, nil)
		Expect(cfg.NoiseEnabled()).To(BeTrue())
		for i := 0; i < 10; i++ {
			Expect(cfg.Noise()).To(Equal(0.0))
		}
	})

	It("should draw from the configured source", func() {
		cfg := power.NewAnalysisConfig(power.ModelHammingDistance, nil, noise.Constant(3))
		for i := 0; i < 10; i++ {
			Expect(cfg.Noise()).To(Equal(3.0))
		}
	})

	It("should toggle noise on and off", func() {
		cfg := power.NewAnalysisConfig(power.ModelHammingWeight, nil, noise.Constant(3))
		Expect(cfg.NoiseEnabled()).To(BeTrue())
		cfg.DisableNoise()
		Expect(cfg.NoiseEnabled()).To(BeFalse())
		Expect(cfg.Noise()).To(Equal(0.0))
		cfg.EnableNoise()
		Expect(cfg.Noise()).To(Equal(3.0))
	})
})
