package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/manmuqingshan/PAF/noise"
	"github.com/manmuqingshan/PAF/power"
)

// Scenario describes one analysis run: which model scores the traces,
// which instruction facets contribute, the noise blended into the
// totals, and where the results go.
type Scenario struct {
	// Model selects the power model, "hamming_weight" or
	// "hamming_distance". Default: hamming_weight.
	Model string `yaml:"model"`

	// Sources lists the contributing instruction facets. An empty list
	// selects every source. Valid names: pc, opcode, mem_address,
	// mem_data, reg_inputs, reg_outputs, load_to_load, store_to_store,
	// last_access, memory_update.
	Sources []string `yaml:"sources"`

	// Noise describes the noise blended into the power totals.
	Noise NoiseSpec `yaml:"noise"`

	// Outputs lists the sinks fed by the run.
	Outputs []OutputSpec `yaml:"outputs"`
}

// NoiseSpec describes a noise source.
type NoiseSpec struct {
	// Type selects the distribution: "zero", "constant", "uniform" or
	// "gaussian". Default: zero.
	Type string `yaml:"type"`

	// Level scales the noise. Uniform draws from [-level, level),
	// gaussian uses level as standard deviation, constant yields level
	// itself.
	Level float64 `yaml:"level"`

	// Seed makes runs reproducible. Every power output draws from its
	// own source seeded identically, so all outputs of one run see the
	// same totals.
	Seed uint64 `yaml:"seed"`
}

// OutputSpec describes one sink.
type OutputSpec struct {
	// Type selects the sink: "csv", "npy" or "wav" receive the power
	// samples, "yaml_instr", "yaml_memaccess" and "npy_regbank" the
	// instruction side channels, "timing" the cycle accounting.
	Type string `yaml:"type"`

	// File is the output path.
	File string `yaml:"file"`

	// Detail adds the instruction columns to CSV rows.
	Detail bool `yaml:"detail"`

	// SampleRate is the WAV sample rate in Hz. Default: 8000.
	SampleRate int `yaml:"sample_rate"`

	// WithMemAccess attaches loads and stores to YAML instruction
	// entries.
	WithMemAccess bool `yaml:"with_memaccess"`

	// WithRegBank attaches register bank snapshots to YAML instruction
	// entries.
	WithRegBank bool `yaml:"with_regbank"`
}

// Power sink and side sink type names.
const (
	outputCSV        = "csv"
	outputNPY        = "npy"
	outputWAV        = "wav"
	outputYAMLInstr  = "yaml_instr"
	outputYAMLMemAcc = "yaml_memaccess"
	outputNPYRegBank = "npy_regbank"
	outputTiming     = "timing"
)

const (
	modelNameWeight   = "hamming_weight"
	modelNameDistance = "hamming_distance"
)

const defaultWAVRate = 8000

var sourceNames = map[string]power.SourceMask{
	"pc":             power.SourcePC,
	"opcode":         power.SourceOpcode,
	"mem_address":    power.SourceMemAddress,
	"mem_data":       power.SourceMemData,
	"reg_inputs":     power.SourceRegInputs,
	"reg_outputs":    power.SourceRegOutputs,
	"load_to_load":   power.SourceLoadToLoadTransition,
	"store_to_store": power.SourceStoreToStoreTransition,
	"last_access":    power.SourceLastMemoryAccessTransition,
	"memory_update":  power.SourceMemoryUpdateTransition,
}

// DefaultScenario returns a scenario scoring every source with the
// Hamming weight model, without noise, writing CSV rows to power.csv.
func DefaultScenario() *Scenario {
	return &Scenario{
		Model: modelNameWeight,
		Noise: NoiseSpec{Type: "zero"},
		Outputs: []OutputSpec{
			{Type: outputCSV, File: "power.csv"},
		},
	}
}

// LoadScenario reads a scenario from a YAML file. Omitted fields keep
// their defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario := DefaultScenario()
	if err := yaml.Unmarshal(data, scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// Validate checks the scenario for unknown names and missing fields.
func (s *Scenario) Validate() error {
	if s.Model != modelNameWeight && s.Model != modelNameDistance {
		return fmt.Errorf("unknown model %q", s.Model)
	}

	for _, name := range s.Sources {
		if _, ok := sourceNames[name]; !ok {
			return fmt.Errorf("unknown source %q", name)
		}
	}

	switch s.Noise.Type {
	case "zero", "constant", "uniform", "gaussian":
	default:
		return fmt.Errorf("unknown noise type %q", s.Noise.Type)
	}

	if len(s.Outputs) == 0 {
		return fmt.Errorf("no outputs configured")
	}
	for n, out := range s.Outputs {
		switch out.Type {
		case outputCSV, outputNPY, outputWAV, outputYAMLInstr,
			outputYAMLMemAcc, outputNPYRegBank, outputTiming:
		default:
			return fmt.Errorf("output %d: unknown type %q", n, out.Type)
		}
		if out.File == "" {
			return fmt.Errorf("output %d: no file given", n)
		}
		if out.SampleRate < 0 {
			return fmt.Errorf("output %d: negative sample rate", n)
		}
	}
	return nil
}

// PowerModel returns the configured model.
func (s *Scenario) PowerModel() power.Model {
	if s.Model == modelNameDistance {
		return power.ModelHammingDistance
	}
	return power.ModelHammingWeight
}

// TraceConfig returns the source selection.
func (s *Scenario) TraceConfig() power.TraceConfig {
	if len(s.Sources) == 0 {
		return *power.NewTraceConfig()
	}
	masks := make([]power.SourceMask, 0, len(s.Sources))
	for _, name := range s.Sources {
		masks = append(masks, sourceNames[name])
	}
	return *power.NewTraceConfig(masks...)
}

// NoiseSource builds a fresh noise source from the noise settings.
// Each call returns an independent source with the same seed, so
// parallel sinks observe the same sequence.
func (s *Scenario) NoiseSource() noise.Source {
	switch s.Noise.Type {
	case "constant":
		return noise.Constant(s.Noise.Level)
	case "uniform":
		return noise.Uniform(s.Noise.Level, s.Noise.Seed)
	case "gaussian":
		return noise.Gaussian(s.Noise.Level, s.Noise.Seed)
	default:
		return noise.Zero()
	}
}
