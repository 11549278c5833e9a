// Package trace defines the instruction-level event model the leakage
// analyses consume.
//
// A ReferenceInstruction captures what an execution-trace source reports
// about one retired instruction: when it ran, what it was, and the memory
// and register traffic it generated. Producing these records (tarmac
// parsing, disassembly, emulation) is the trace source's job; this package
// only models them.
//
// Usage:
//
//	inst := trace.ReferenceInstruction{
//		Time: 27, Executed: true, PC: 0x89bc,
//		Width: 16, Opcode: 0x2105, Disassembly: "MOVS r1,#5",
//		RegAccess: []trace.RegisterAccess{
//			{Reg: "r1", Value: 5, Access: trace.Write},
//		},
//	}
package trace

// Time is a logical timestamp within a trace. Timestamps are strictly
// increasing from one instruction to the next.
type Time uint64

// Addr is a memory address.
type Addr uint64

// AccessType distinguishes reads from writes.
type AccessType uint8

// Access types.
const (
	Read AccessType = iota
	Write
)

// String returns the single-letter tarmac-style marker for the access.
func (a AccessType) String() string {
	if a == Write {
		return "W"
	}
	return "R"
}

// MemoryAccess describes one memory transaction performed by an
// instruction.
type MemoryAccess struct {
	// Size is the access width in bytes.
	Size uint
	// Addr is the accessed address.
	Addr Addr
	// Value is the data transferred, little-endian in the low Size bytes.
	Value uint64
	// Access is Read for loads and Write for stores.
	Access AccessType
}

// RegisterAccess describes one register read or write performed by an
// instruction.
type RegisterAccess struct {
	// Reg is the architectural register name, lower case (e.g. "r1",
	// "cpsr").
	Reg string
	// Value is the value read or written.
	Value uint64
	// Access is Read for source operands and Write for destinations.
	Access AccessType
}

// ReferenceInstruction is one retired instruction as reported by the
// trace source. The access slices preserve program order.
type ReferenceInstruction struct {
	// Time is the logical timestamp at which the instruction retired.
	Time Time

	// Executed is false for conditional instructions whose condition
	// check failed.
	Executed bool

	// PC is the instruction's address.
	PC Addr

	// Width is the encoding width in bits (16 or 32).
	Width uint8

	// Opcode is the raw instruction encoding.
	Opcode uint32

	// Disassembly is the textual form, stored verbatim. Sinks normalize
	// interior whitespace at emission time.
	Disassembly string

	// MemAccess lists the instruction's memory transactions in order.
	MemAccess []MemoryAccess

	// RegAccess lists the instruction's register accesses in order.
	RegAccess []RegisterAccess
}

// Loads returns the instruction's memory reads, in order.
func (i *ReferenceInstruction) Loads() []MemoryAccess {
	return i.memAccesses(Read)
}

// Stores returns the instruction's memory writes, in order.
func (i *ReferenceInstruction) Stores() []MemoryAccess {
	return i.memAccesses(Write)
}

func (i *ReferenceInstruction) memAccesses(t AccessType) []MemoryAccess {
	var out []MemoryAccess
	for _, a := range i.MemAccess {
		if a.Access == t {
			out = append(out, a)
		}
	}
	return out
}
