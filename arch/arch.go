// Package arch describes the target instruction set architectures the
// analysis engine can model. An architecture knows how to map register
// names from a reference trace onto register bank indices, which names
// denote status registers, and how many simulated cycles an instruction
// occupies.
package arch

import (
	"github.com/manmuqingshan/PAF/trace"
)

// Info describes one target architecture.
type Info interface {
	// Description returns a human readable architecture name.
	Description() string

	// NumRegisters returns the size of the modeled register bank.
	NumRegisters() int

	// RegisterIndex maps a register name from a reference trace onto
	// its bank index. The second return value reports whether the name
	// is known. Lookups are case insensitive.
	RegisterIndex(name string) (int, bool)

	// IsStatusRegister reports whether the named register holds
	// processor status flags rather than program data.
	IsStatusRegister(name string) bool

	// Cycles returns the number of simulated cycles the instruction
	// occupies, which is also the number of power samples it yields.
	Cycles(i *trace.ReferenceInstruction) uint64
}

// recordCycles is the cycle count shared by the supported cores: one
// cycle per memory access, with a floor of one for instructions that do
// not touch memory.
func recordCycles(i *trace.ReferenceInstruction) uint64 {
	if n := len(i.MemAccess); n > 1 {
		return uint64(n)
	}
	return 1
}
