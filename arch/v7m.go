package arch

import (
	"strings"

	"github.com/manmuqingshan/PAF/trace"
)

// V7M models the Arm v7-M profile found on Cortex-M cores. The register
// bank covers r0-r15 plus the cpsr and psr status views.
type V7M struct{}

const v7mNumRegisters = 18

var v7mRegisters = map[string]int{
	"r0": 0, "r1": 1, "r2": 2, "r3": 3,
	"r4": 4, "r5": 5, "r6": 6, "r7": 7,
	"r8": 8, "r9": 9, "r10": 10, "r11": 11,
	"r12": 12,
	"r13": 13, "sp": 13, "msp": 13,
	"r14": 14, "lr": 14,
	"r15": 15, "pc": 15,
	"cpsr": 16,
	"psr":  17,
}

var v7mStatusRegisters = map[string]bool{
	"cpsr": true, "psr": true,
	"apsr": true, "xpsr": true, "ipsr": true, "epsr": true,
}

// Description returns the architecture name.
func (V7M) Description() string { return "Arm V7M ISA" }

// NumRegisters returns the register bank size.
func (V7M) NumRegisters() int { return v7mNumRegisters }

// RegisterIndex maps a register name onto its bank index.
func (V7M) RegisterIndex(name string) (int, bool) {
	idx, ok := v7mRegisters[strings.ToLower(name)]
	return idx, ok
}

// IsStatusRegister reports whether name is a status register view.
func (V7M) IsStatusRegister(name string) bool {
	return v7mStatusRegisters[strings.ToLower(name)]
}

// Cycles returns the sample count for one instruction.
func (V7M) Cycles(i *trace.ReferenceInstruction) uint64 {
	return recordCycles(i)
}
