// Package timing accumulates the cycle level timing of simulated traces
// so that constant time properties can be checked across runs.
package timing

import (
	"math"

	"github.com/manmuqingshan/PAF/trace"
)

// Location marks the cycle offset at which an instruction starts within
// a trace.
type Location struct {
	// PC is the instruction address.
	PC trace.Addr

	// Cycle is the offset from the start of the trace.
	Cycle uint64
}

// Info collects per trace cycle counts. The instruction locations of
// the first trace are kept so reports can name where time is spent.
type Info struct {
	locations []Location
	current   uint64
	traces    uint64
	min       uint64
	max       uint64
	mean      float64
	firstDone bool
}

// New returns an empty timing accumulator.
func New() *Info {
	return &Info{min: math.MaxUint64}
}

// Add accounts cycles for the instruction at pc. The location is
// recorded while the first trace is still in flight.
func (t *Info) Add(pc trace.Addr, cycles uint64) {
	if !t.firstDone {
		t.locations = append(t.locations, Location{PC: pc, Cycle: t.current})
	}
	t.current += cycles
}

// Incr accounts cycles without an instruction location.
func (t *Info) Incr(cycles uint64) {
	t.current += cycles
}

// NextTrace closes the trace under construction and folds its cycle
// count into the statistics.
func (t *Info) NextTrace() {
	if t.current < t.min {
		t.min = t.current
	}
	if t.current > t.max {
		t.max = t.current
	}
	t.mean += (float64(t.current) - t.mean) / float64(t.traces+1)
	t.traces++
	t.current = 0
	t.firstDone = true
}

// Traces returns the number of completed traces.
func (t *Info) Traces() uint64 { return t.traces }

// Min returns the shortest completed trace in cycles.
func (t *Info) Min() uint64 {
	if t.traces == 0 {
		return 0
	}
	return t.min
}

// Max returns the longest completed trace in cycles.
func (t *Info) Max() uint64 { return t.max }

// Average returns the mean trace length in cycles.
func (t *Info) Average() float64 {
	if t.traces == 0 {
		return 0.0
	}
	return t.mean
}

// Locations returns the instruction locations of the first trace.
func (t *Info) Locations() []Location { return t.locations }
