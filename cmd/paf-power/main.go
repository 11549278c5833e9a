// Package main provides the entry point for paf-power.
// paf-power replays execution traces through a synthetic power model
// and writes the resulting side-channel traces to the configured sinks.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"

	"github.com/manmuqingshan/PAF/arch"
	"github.com/manmuqingshan/PAF/dump"
	"github.com/manmuqingshan/PAF/power"
	"github.com/manmuqingshan/PAF/timing"
	"github.com/manmuqingshan/PAF/trace"
)

var (
	scenarioPath = flag.String("scenario", "", "Path to the scenario YAML file")
	archName     = flag.String("arch", "v7m", "Target architecture (v7m or v8a)")
	statsAddr    = flag.String("statsview", "", "Serve runtime statistics on this address")
	cpuProfile   = flag.String("cpuprofile", "", "Write a CPU profile to this file")
	memProfile   = flag.String("memprofile", "", "Write a memory profile to this file")
	verbose      = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	log.SetHandler(cli.New(os.Stderr))
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: paf-power [options] <trace.yaml>...\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	os.Exit(run(flag.Args()))
}

func run(files []string) int {
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.WithError(err).Fatal("Failed to create CPU profile")
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			log.WithError(err).Fatal("Failed to start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	scenario := DefaultScenario()
	if *scenarioPath != "" {
		var err error
		scenario, err = LoadScenario(*scenarioPath)
		if err != nil {
			log.WithError(err).Fatal("Failed to load scenario")
		}
	}

	isa, err := selectArch(*archName)
	if err != nil {
		log.WithError(err).Fatal("Failed to select architecture")
	}

	if *statsAddr != "" {
		serveStats(*statsAddr)
	}

	traces := loadTraces(files)
	log.Infof("Analyzing %d traces on %s", len(traces), isa.Description())

	sinks, err := buildSinks(scenario, len(traces))
	if err != nil {
		log.WithError(err).Fatal("Failed to open outputs")
	}

	for n, insts := range traces {
		log.Debugf("Trace %d: %d instructions", n, len(insts))
		analyze(isa, sinks, insts)
	}

	ok := sinks.finish()

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.WithError(err).Error("Failed to create memory profile")
		} else {
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.WithError(err).Error("Failed to write memory profile")
			}
			_ = f.Close()
		}
	}

	if !ok {
		return 1
	}
	return 0
}

// selectArch maps the -arch flag to an architecture description.
func selectArch(name string) (arch.Info, error) {
	switch name {
	case "v7m":
		return arch.V7M{}, nil
	case "v8a":
		return arch.V8A{}, nil
	}
	return nil, fmt.Errorf("unknown architecture %q", name)
}

// loadTraces reads all trace files and concatenates their batches.
func loadTraces(files []string) [][]trace.ReferenceInstruction {
	var traces [][]trace.ReferenceInstruction
	for _, file := range files {
		batch, err := trace.ReadYAMLFile(file)
		if err != nil {
			log.WithError(err).Fatalf("Failed to load %s", file)
		}
		log.Debugf("Loaded %s: %d traces", file, len(batch))
		traces = append(traces, batch...)
	}
	return traces
}

// analyze replays one execution trace through the power model. The
// oracle reconstructs the register bank and memory state the trace
// itself recorded.
func analyze(isa arch.Info, sinks *sinkSet, insts []trace.ReferenceInstruction) {
	pt := power.New(isa, sinks.opts...)
	for _, inst := range insts {
		pt.Add(inst)
	}
	pt.Analyze(power.NewReplayOracle(isa, insts), sinks.configs...)
	sinks.nextTrace()
}

// sinkSet groups the sinks built from the scenario's output list.
type sinkSet struct {
	configs []*power.AnalysisConfig
	opts    []power.TraceOption
	sinks   []power.Dumper
	timings []*timingSink
	closers []namedCloser
}

type timingSink struct {
	file string
	info *timing.YAMLInfo
}

type namedCloser struct {
	file  string
	close func() error
}

// buildSinks opens every output of the scenario. expectedTraces sizes
// the buffering sinks.
func buildSinks(scenario *Scenario, expectedTraces int) (*sinkSet, error) {
	s := &sinkSet{
		opts: []power.TraceOption{power.WithConfig(scenario.TraceConfig())},
	}

	for _, out := range scenario.Outputs {
		switch out.Type {
		case outputCSV:
			d, err := dump.CreateCSVPowerDumper(out.File, out.Detail)
			if err != nil {
				return nil, err
			}
			s.addPowerSink(scenario, d, out.File, d.Close)

		case outputNPY:
			d := dump.NewNPYPowerDumper(out.File, expectedTraces)
			s.addPowerSink(scenario, d, out.File, d.Close)

		case outputWAV:
			rate := out.SampleRate
			if rate == 0 {
				rate = defaultWAVRate
			}
			d := dump.NewWAVPowerDumper(out.File, rate)
			s.addPowerSink(scenario, d, out.File, d.Close)

		case outputYAMLMemAcc:
			d, err := dump.CreateYAMLMemoryAccessesDumper(out.File)
			if err != nil {
				return nil, err
			}
			s.addSideSink(power.WithMemoryAccessesDumper(d), d, out.File, d.Close)

		case outputYAMLInstr:
			d, err := dump.CreateYAMLInstrDumper(out.File, out.WithMemAccess, out.WithRegBank)
			if err != nil {
				return nil, err
			}
			s.addSideSink(power.WithInstrDumper(d), d, out.File, d.Close)

		case outputNPYRegBank:
			d := dump.NewNPYRegBankDumper(out.File, expectedTraces)
			s.addSideSink(power.WithRegBankDumper(d), d, out.File, d.Close)

		case outputTiming:
			t := timing.NewYAML()
			s.opts = append(s.opts, power.WithTiming(t))
			s.timings = append(s.timings, &timingSink{file: out.File, info: t})
		}
	}
	return s, nil
}

// addPowerSink registers a power sample sink. Every power sink gets its
// own analysis config drawing from an identically seeded noise source,
// so all of them report the same totals.
func (s *sinkSet) addPowerSink(scenario *Scenario, d power.PowerDumper,
	file string, close func() error) {
	cfg := power.NewAnalysisConfig(scenario.PowerModel(), d, scenario.NoiseSource())
	s.configs = append(s.configs, cfg)
	s.sinks = append(s.sinks, d)
	s.closers = append(s.closers, namedCloser{file: file, close: close})
}

// addSideSink registers an instruction side channel sink.
func (s *sinkSet) addSideSink(opt power.TraceOption, d power.Dumper,
	file string, close func() error) {
	s.opts = append(s.opts, opt)
	s.sinks = append(s.sinks, d)
	s.closers = append(s.closers, namedCloser{file: file, close: close})
}

// nextTrace signals the trace boundary to every sink.
func (s *sinkSet) nextTrace() {
	for _, d := range s.sinks {
		d.NextTrace()
	}
	for _, t := range s.timings {
		t.info.NextTrace()
	}
}

// finish saves the timing reports and closes every sink. It reports
// whether all outputs were written.
func (s *sinkSet) finish() bool {
	ok := true
	for _, t := range s.timings {
		if err := t.info.SaveToFile(t.file); err != nil {
			log.WithError(err).Errorf("Failed to write %s", t.file)
			ok = false
		}
	}
	for _, c := range s.closers {
		if err := c.close(); err != nil {
			log.WithError(err).Errorf("Failed to write %s", c.file)
			ok = false
		}
	}
	return ok
}
