// Package noise provides the noise sources the power analysis engine
// mixes into synthesized samples. All sources are deterministic for a
// given seed so experiments can be replayed exactly.
package noise

import (
	"math/rand/v2"
)

// Source yields one noise value per call.
type Source interface {
	// Get returns the next noise value.
	Get() float64
}

type zeroSource struct{}

func (zeroSource) Get() float64 { return 0.0 }

// Zero returns a source that always yields 0.0, for noiseless runs.
func Zero() Source { return zeroSource{} }

type constantSource struct {
	value float64
}

func (s constantSource) Get() float64 { return s.value }

// Constant returns a source that always yields value. It is mostly
// useful for making noisy pipelines reproducible in tests.
func Constant(value float64) Source { return constantSource{value: value} }

type uniformSource struct {
	level float64
	rng   *rand.Rand
}

func (s *uniformSource) Get() float64 {
	return (2.0*s.rng.Float64() - 1.0) * s.level
}

// Uniform returns a source drawing uniformly from [-level, level).
func Uniform(level float64, seed uint64) Source {
	return &uniformSource{level: level, rng: newRand(seed)}
}

type gaussianSource struct {
	level float64
	rng   *rand.Rand
}

func (s *gaussianSource) Get() float64 {
	return s.rng.NormFloat64() * s.level
}

// Gaussian returns a source drawing from a normal distribution with
// mean 0 and standard deviation level.
func Gaussian(level float64, seed uint64) Source {
	return &gaussianSource{level: level, rng: newRand(seed)}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xDEADBEEF))
}
