package power

import (
	"github.com/manmuqingshan/PAF/trace"
)

// Sample is one synthesized power figure. The facet fields hold the raw
// Hamming figures of each contribution; Total blends them with the
// model weights plus any configured noise.
type Sample struct {
	// Total is the weighted sum of all contributions.
	Total float64

	// PC is the program counter contribution.
	PC float64

	// Opcode is the instruction encoding contribution.
	Opcode float64

	// ORegs is the register write contribution.
	ORegs float64

	// IRegs is the register read contribution.
	IRegs float64

	// Addr is the memory address contribution.
	Addr float64

	// Data is the memory data contribution.
	Data float64

	// Instruction points back at the instruction that produced the
	// sample. Only the first sample of a multi cycle instruction
	// carries it.
	Instruction *trace.ReferenceInstruction
}

// Dumper is the lifecycle shared by all sinks. The analysis drives
// PreDump before and PostDump after each trace, and the application
// signals trace boundaries with NextTrace. A disabled sink still gets
// the lifecycle calls but none of the per sample ones.
type Dumper interface {
	// Enabled reports whether the sink wants data.
	Enabled() bool

	// PreDump runs before a trace is analyzed.
	PreDump()

	// PostDump runs after a trace is analyzed.
	PostDump()

	// NextTrace marks the boundary between consecutive traces.
	NextTrace()
}

// PowerDumper receives the synthesized power samples.
type PowerDumper interface {
	Dumper

	// Dump receives one sample.
	Dump(s Sample)
}

// RegBankDumper receives a register bank snapshot per instruction.
type RegBankDumper interface {
	Dumper

	// Dump receives the bank content after the instruction retired.
	Dump(bank []uint64)
}

// MemoryAccessesDumper receives the memory traffic per instruction.
type MemoryAccessesDumper interface {
	Dumper

	// Dump receives the accesses performed at pc.
	Dump(pc trace.Addr, accesses []trace.MemoryAccess)
}

// InstrDumper receives every analyzed instruction.
type InstrDumper interface {
	Dumper

	// Dump receives the instruction and, when DumpsRegBank is true,
	// the register bank content after it retired.
	Dump(i *trace.ReferenceInstruction, bank []uint64)

	// DumpsRegBank reports whether Dump wants bank snapshots.
	DumpsRegBank() bool
}
