package power

import (
	"github.com/manmuqingshan/PAF/arch"
	"github.com/manmuqingshan/PAF/trace"
)

// Oracle answers questions about the architectural state of the traced
// program. Queries name a timestamp t and refer to the state once every
// effect of timestamp t has landed. The Hamming distance model uses an
// instruction's timestamp minus one to see the state it found.
type Oracle interface {
	// RegBankState returns the register bank content at time t. A call
	// may return nil or a short bank; missing registers read as zero.
	RegBankState(t trace.Time) []uint64

	// MemoryState returns size bytes of memory content at addr at time
	// t, little endian. Sizes above 8 are clamped.
	MemoryState(addr trace.Addr, size uint, t trace.Time) uint64
}

// NullOracle knows nothing. All state reads as zero.
type NullOracle struct{}

// RegBankState returns an empty bank.
func (NullOracle) RegBankState(t trace.Time) []uint64 { return nil }

// MemoryState returns zero.
func (NullOracle) MemoryState(addr trace.Addr, size uint, t trace.Time) uint64 {
	return 0
}

type regWrite struct {
	time  trace.Time
	index int
	value uint64
}

type memWrite struct {
	time  trace.Time
	addr  trace.Addr
	size  uint
	value uint64
}

// ReplayOracle reconstructs architectural state from the trace itself.
// Register writes rebuild the bank, and memory traffic of both kinds
// rebuilds memory content byte by byte. State that the trace never
// touched reads as zero.
type ReplayOracle struct {
	isa       arch.Info
	regWrites []regWrite
	memWrites []memWrite
}

// NewReplayOracle builds an oracle from the instructions of one trace.
// The instructions must be in nondecreasing time order, which is how
// they appear in a reference trace.
func NewReplayOracle(isa arch.Info, insts []trace.ReferenceInstruction) *ReplayOracle {
	o := &ReplayOracle{isa: isa}
	for n := range insts {
		i := &insts[n]
		for _, r := range i.RegAccess {
			if r.Access != trace.Write {
				continue
			}
			idx, ok := isa.RegisterIndex(r.Reg)
			if !ok {
				continue
			}
			o.regWrites = append(o.regWrites, regWrite{
				time: i.Time, index: idx, value: r.Value,
			})
		}
		for _, m := range i.MemAccess {
			o.memWrites = append(o.memWrites, memWrite{
				time: i.Time, addr: m.Addr, size: m.Size, value: m.Value,
			})
		}
	}
	return o
}

// RegBankState replays all register writes up to and including time t.
func (o *ReplayOracle) RegBankState(t trace.Time) []uint64 {
	bank := make([]uint64, o.isa.NumRegisters())
	for _, w := range o.regWrites {
		if w.time > t {
			break
		}
		bank[w.index] = w.value
	}
	return bank
}

// MemoryState replays all memory traffic up to and including time t and
// assembles size bytes starting at addr, little endian.
func (o *ReplayOracle) MemoryState(addr trace.Addr, size uint, t trace.Time) uint64 {
	if size > 8 {
		size = 8
	}
	var out uint64
	for _, w := range o.memWrites {
		if w.time > t {
			break
		}
		for b := uint(0); b < size; b++ {
			q := uint64(addr) + uint64(b)
			if q < uint64(w.addr) || q >= uint64(w.addr)+uint64(w.size) {
				continue
			}
			pos := q - uint64(w.addr)
			if pos >= 8 {
				continue
			}
			out &^= uint64(0xff) << (8 * b)
			out |= ((w.value >> (8 * pos)) & 0xff) << (8 * b)
		}
	}
	return out
}

// preTime steps a timestamp back to the state an instruction found,
// saturating at zero.
func preTime(t trace.Time) trace.Time {
	if t == 0 {
		return 0
	}
	return t - 1
}
