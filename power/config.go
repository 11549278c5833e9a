package power

import (
	"fmt"

	"github.com/manmuqingshan/PAF/noise"
)

// SourceMask selects which parts of an instruction contribute to the
// synthesized power figures.
type SourceMask uint32

const (
	// SourcePC contributes the program counter.
	SourcePC SourceMask = 1 << iota

	// SourceOpcode contributes the instruction encoding.
	SourceOpcode

	// SourceMemAddress contributes memory access addresses.
	SourceMemAddress

	// SourceMemData contributes memory access data.
	SourceMemData

	// SourceRegInputs contributes register reads.
	SourceRegInputs

	// SourceRegOutputs contributes register writes.
	SourceRegOutputs

	// SourceLoadToLoadTransition contributes the toggle between
	// consecutive loads.
	SourceLoadToLoadTransition

	// SourceStoreToStoreTransition contributes the toggle between
	// consecutive stores.
	SourceStoreToStoreTransition

	// SourceLastMemoryAccessTransition contributes the toggle against
	// the last memory access of either kind.
	SourceLastMemoryAccessTransition

	// SourceMemoryUpdateTransition contributes the toggle between a
	// stored value and the memory content it overwrites.
	SourceMemoryUpdateTransition

	numSources = iota
)

const sourceAll = SourceMask(1)<<numSources - 1

const sourceMemTransitions = SourceLoadToLoadTransition |
	SourceStoreToStoreTransition |
	SourceLastMemoryAccessTransition |
	SourceMemoryUpdateTransition

// TraceConfig selects the power sources of a trace. The zero value
// selects every source.
type TraceConfig struct {
	// disabled holds the complement so the zero value means all on.
	disabled SourceMask
}

// NewTraceConfig returns a config selecting the given sources, or every
// source when none are named.
func NewTraceConfig(sources ...SourceMask) *TraceConfig {
	c := &TraceConfig{}
	if len(sources) > 0 {
		c.Clear()
		c.Set(sources...)
	}
	return c
}

// Clear deselects every source.
func (c *TraceConfig) Clear() *TraceConfig {
	c.disabled = sourceAll
	return c
}

// Set selects the given sources.
func (c *TraceConfig) Set(sources ...SourceMask) *TraceConfig {
	for _, s := range sources {
		c.disabled &^= s
	}
	return c
}

// Has reports whether all of the sources in mask are selected.
func (c TraceConfig) Has(mask SourceMask) bool {
	return c.disabled&mask == 0
}

// All reports whether every source is selected.
func (c TraceConfig) All() bool {
	return c.disabled == 0
}

// None reports whether no source is selected.
func (c TraceConfig) None() bool {
	return c.disabled&sourceAll == sourceAll
}

// AnyMemoryTransition reports whether at least one of the memory
// transition sources is selected.
func (c TraceConfig) AnyMemoryTransition() bool {
	return c.disabled&sourceMemTransitions != sourceMemTransitions
}

// Model names a power consumption model.
type Model uint8

const (
	// ModelHammingWeight scores every contribution by the bit count of
	// the value involved.
	ModelHammingWeight Model = iota

	// ModelHammingDistance scores every contribution by the bits
	// toggled against the previous architectural state.
	ModelHammingDistance
)

func (m Model) String() string {
	switch m {
	case ModelHammingWeight:
		return "Hamming weight"
	case ModelHammingDistance:
		return "Hamming distance"
	}
	return fmt.Sprintf("Model(%d)", uint8(m))
}

// AnalysisConfig pairs a power model with the sink receiving its
// samples and the noise blended into them.
type AnalysisConfig struct {
	model     Model
	dumper    PowerDumper
	noise     noise.Source
	withNoise bool
}

// NewAnalysisConfig returns a config using the given model, dumping
// samples to dumper. Noise from src is enabled; a nil src runs
// noiseless.
func NewAnalysisConfig(model Model, dumper PowerDumper, src noise.Source) *AnalysisConfig {
	if src == nil {
		src = noise.Zero()
	}
	return &AnalysisConfig{
		model:     model,
		dumper:    dumper,
		noise:     src,
		withNoise: true,
	}
}

// Model returns the configured power model.
func (c *AnalysisConfig) Model() Model { return c.model }

// SetModel switches the power model.
func (c *AnalysisConfig) SetModel(m Model) *AnalysisConfig {
	c.model = m
	return c
}

// Dumper returns the sink receiving the samples.
func (c *AnalysisConfig) Dumper() PowerDumper { return c.dumper }

// EnableNoise turns noise blending on.
func (c *AnalysisConfig) EnableNoise() *AnalysisConfig {
	c.withNoise = true
	return c
}

// DisableNoise turns noise blending off.
func (c *AnalysisConfig) DisableNoise() *AnalysisConfig {
	c.withNoise = false
	return c
}

// NoiseEnabled reports whether noise blending is on.
func (c *AnalysisConfig) NoiseEnabled() bool { return c.withNoise }

// Noise draws the next noise value, or 0.0 when noise is off. The
// source is not advanced while noise is off.
func (c *AnalysisConfig) Noise() float64 {
	if !c.withNoise {
		return 0.0
	}
	return c.noise.Get()
}
