package arch

import (
	"strconv"
	"strings"

	"github.com/manmuqingshan/PAF/trace"
)

// V8A models the AArch64 state of the Arm v8-A profile. The register
// bank covers x0-x30, the stack pointer, the program counter, and the
// nzcv flags. The w0-w30 names alias the lower half of the x registers
// and map onto the same bank indices.
type V8A struct{}

const v8aNumRegisters = 34

var v8aRegisters = buildV8ARegisters()

func buildV8ARegisters() map[string]int {
	regs := make(map[string]int)
	for i := 0; i < 31; i++ {
		n := strconv.Itoa(i)
		regs["x"+n] = i
		regs["w"+n] = i
	}
	regs["fp"] = 29
	regs["lr"] = 30
	regs["sp"] = 31
	regs["pc"] = 32
	regs["nzcv"] = 33
	return regs
}

var v8aStatusRegisters = map[string]bool{
	"nzcv": true, "pstate": true,
}

// Description returns the architecture name.
func (V8A) Description() string { return "Arm V8A ISA" }

// NumRegisters returns the register bank size.
func (V8A) NumRegisters() int { return v8aNumRegisters }

// RegisterIndex maps a register name onto its bank index.
func (V8A) RegisterIndex(name string) (int, bool) {
	idx, ok := v8aRegisters[strings.ToLower(name)]
	return idx, ok
}

// IsStatusRegister reports whether name is a status register view.
func (V8A) IsStatusRegister(name string) bool {
	return v8aStatusRegisters[strings.ToLower(name)]
}

// Cycles returns the sample count for one instruction.
func (V8A) Cycles(i *trace.ReferenceInstruction) uint64 {
	return recordCycles(i)
}
