// Package power synthesizes power consumption figures from reference
// instruction traces. A Trace collects the instructions of one
// execution and Analyze walks them cycle by cycle, scoring each cycle
// with a Hamming weight or Hamming distance model and handing the
// samples to the configured sinks.
//
// An instruction occupies one cycle per memory access, with a floor of
// one cycle. Register accesses are dealt out one per cycle, with the
// last cycle absorbing the remainder.
package power

import (
	"github.com/manmuqingshan/PAF/arch"
	"github.com/manmuqingshan/PAF/trace"
)

// Weights blending the facet contributions into a sample's total.
const (
	pcWeight      = 1.0
	opcodeWeight  = 1.0
	outputWeight  = 2.0
	inputWeight   = 2.0
	addressWeight = 1.2
	dataWeight    = 2.0
	statusWeight  = 0.5
)

// Trace holds the instructions of one execution together with the
// source selection and the side sinks observing the analysis.
type Trace struct {
	isa       arch.Info
	config    TraceConfig
	regBank   RegBankDumper
	memAccess MemoryAccessesDumper
	instr     InstrDumper
	timing    TimingObserver
	insts     []trace.ReferenceInstruction
}

// TimingObserver accumulates the cycle cost of analyzed instructions.
// *timing.Info satisfies it.
type TimingObserver interface {
	Add(pc trace.Addr, cycles uint64)
}

// TraceOption configures a Trace at construction.
type TraceOption func(*Trace)

// WithConfig selects the power sources to model.
func WithConfig(cfg TraceConfig) TraceOption {
	return func(t *Trace) {
		t.config = cfg
	}
}

// WithRegBankDumper attaches a register bank sink.
func WithRegBankDumper(d RegBankDumper) TraceOption {
	return func(t *Trace) {
		t.regBank = d
	}
}

// WithMemoryAccessesDumper attaches a memory traffic sink.
func WithMemoryAccessesDumper(d MemoryAccessesDumper) TraceOption {
	return func(t *Trace) {
		t.memAccess = d
	}
}

// WithInstrDumper attaches an instruction sink.
func WithInstrDumper(d InstrDumper) TraceOption {
	return func(t *Trace) {
		t.instr = d
	}
}

// WithTiming attaches a timing accumulator fed once per instruction.
func WithTiming(o TimingObserver) TraceOption {
	return func(t *Trace) {
		t.timing = o
	}
}

// New returns an empty trace targeting the given architecture.
func New(isa arch.Info, opts ...TraceOption) *Trace {
	if isa == nil {
		panic("power: nil architecture")
	}
	t := &Trace{isa: isa}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add appends one instruction to the trace.
func (t *Trace) Add(i trace.ReferenceInstruction) {
	t.insts = append(t.insts, i)
}

// Size returns the number of instructions added so far.
func (t *Trace) Size() int { return len(t.insts) }

// Instruction returns the n-th instruction of the trace.
func (t *Trace) Instruction(n int) *trace.ReferenceInstruction {
	return &t.insts[n]
}

// Arch returns the target architecture.
func (t *Trace) Arch() arch.Info { return t.isa }

// Config returns the source selection.
func (t *Trace) Config() TraceConfig { return t.config }

// Analyze walks the trace once and feeds every configured sink. Each
// analysis config scores the same instructions with its own model and
// noise; the side sinks attached to the trace see each instruction
// once, independent of how many configs run.
//
// Analyze brackets the walk with PreDump and PostDump on every sink but
// never calls NextTrace; the application owns trace boundaries. A nil
// oracle degrades to a NullOracle.
func (t *Trace) Analyze(oracle Oracle, configs ...*AnalysisConfig) {
	if oracle == nil {
		oracle = NullOracle{}
	}

	t.lifecycle(configs, func(d Dumper) { d.PreDump() })

	models := make([]powerModel, len(configs))
	for k, c := range configs {
		models[k] = t.newModel(c, oracle)
	}

	for n := range t.insts {
		inst := &t.insts[n]
		cycles := t.isa.Cycles(inst)
		if t.timing != nil {
			t.timing.Add(inst.PC, cycles)
		}

		var bank []uint64
		if t.wantsRegBank() {
			bank = oracle.RegBankState(inst.Time)
		}

		for k, c := range configs {
			m := models[k]
			m.instruction(inst)
			for cycle := uint64(0); cycle < cycles; cycle++ {
				s := m.sample(inst, cycle, cycles)
				if d := c.Dumper(); d != nil && d.Enabled() {
					s.Total += c.Noise()
					d.Dump(s)
				}
			}
		}

		if t.regBank != nil && t.regBank.Enabled() {
			t.regBank.Dump(bank)
		}
		if t.memAccess != nil && t.memAccess.Enabled() {
			t.memAccess.Dump(inst.PC, inst.MemAccess)
		}
		if t.instr != nil && t.instr.Enabled() {
			t.instr.Dump(inst, bank)
		}
	}

	t.lifecycle(configs, func(d Dumper) { d.PostDump() })
}

// lifecycle applies f to every attached sink, power sinks first.
func (t *Trace) lifecycle(configs []*AnalysisConfig, f func(Dumper)) {
	for _, c := range configs {
		if d := c.Dumper(); d != nil {
			f(d)
		}
	}
	if t.regBank != nil {
		f(t.regBank)
	}
	if t.memAccess != nil {
		f(t.memAccess)
	}
	if t.instr != nil {
		f(t.instr)
	}
}

func (t *Trace) wantsRegBank() bool {
	if t.regBank != nil && t.regBank.Enabled() {
		return true
	}
	return t.instr != nil && t.instr.Enabled() && t.instr.DumpsRegBank()
}

func (t *Trace) newModel(c *AnalysisConfig, oracle Oracle) powerModel {
	base := modelBase{config: t.config, isa: t.isa}
	if c.Model() == ModelHammingDistance {
		return &distanceModel{modelBase: base, oracle: oracle}
	}
	return &weightModel{modelBase: base}
}

// powerModel scores one cycle of one instruction. Models carry state
// across the instructions of a single Analyze call.
type powerModel interface {
	instruction(i *trace.ReferenceInstruction)
	sample(i *trace.ReferenceInstruction, cycle, cycles uint64) Sample
}

type modelBase struct {
	config TraceConfig
	isa    arch.Info
}

// registersForCycle deals the register accesses of an instruction over
// its cycles. Single cycle instructions take everything; otherwise each
// cycle takes one access and the last cycle absorbs the remainder.
func registersForCycle(i *trace.ReferenceInstruction, cycle, cycles uint64) []trace.RegisterAccess {
	regs := i.RegAccess
	n := uint64(len(regs))
	if cycles <= 1 {
		return regs
	}
	if cycle >= n {
		return nil
	}
	if cycle == cycles-1 {
		return regs[cycle:]
	}
	return regs[cycle : cycle+1]
}

type sampleBuilder struct {
	s   Sample
	isa arch.Info
}

func (b *sampleBuilder) addPC(v uint64) {
	b.s.PC += float64(v)
	b.s.Total += pcWeight * float64(v)
}

func (b *sampleBuilder) addOpcode(v uint64) {
	b.s.Opcode += float64(v)
	b.s.Total += opcodeWeight * float64(v)
}

func (b *sampleBuilder) addOutput(reg string, v uint64) {
	b.s.ORegs += float64(v)
	b.s.Total += b.regWeight(reg, outputWeight) * float64(v)
}

func (b *sampleBuilder) addInput(reg string, v uint64) {
	b.s.IRegs += float64(v)
	b.s.Total += b.regWeight(reg, inputWeight) * float64(v)
}

func (b *sampleBuilder) addAddress(v uint64) {
	b.s.Addr += float64(v)
	b.s.Total += addressWeight * float64(v)
}

func (b *sampleBuilder) addData(v uint64) {
	b.s.Data += float64(v)
	b.s.Total += dataWeight * float64(v)
}

// regWeight picks the weight of a register contribution. Status
// registers weigh less than data registers.
func (b *sampleBuilder) regWeight(reg string, base float64) float64 {
	if b.isa.IsStatusRegister(reg) {
		return statusWeight
	}
	return base
}

// weightModel scores every contribution by the Hamming weight of the
// value involved. It is stateless.
type weightModel struct {
	modelBase
}

func (m *weightModel) instruction(i *trace.ReferenceInstruction) {}

func (m *weightModel) sample(i *trace.ReferenceInstruction, cycle, cycles uint64) Sample {
	b := &sampleBuilder{isa: m.isa}

	if m.config.Has(SourcePC) {
		b.addPC(HammingWeight(uint64(i.PC)))
	}
	if m.config.Has(SourceOpcode) {
		b.addOpcode(HammingWeight(uint64(i.Opcode)))
	}

	for _, r := range registersForCycle(i, cycle, cycles) {
		switch {
		case r.Access == trace.Write && m.config.Has(SourceRegOutputs):
			b.addOutput(r.Reg, HammingWeight(r.Value))
		case r.Access == trace.Read && m.config.Has(SourceRegInputs):
			b.addInput(r.Reg, HammingWeight(r.Value))
		}
	}

	if cycle < uint64(len(i.MemAccess)) {
		acc := &i.MemAccess[cycle]
		if m.config.Has(SourceMemAddress) {
			b.addAddress(HammingWeight(uint64(acc.Addr)))
		}
		if m.config.Has(SourceMemData) {
			b.addData(HammingWeight(acc.Value))
		}
	}

	if cycle == 0 {
		b.s.Instruction = i
	}
	return b.s
}

type memState struct {
	addr  uint64
	value uint64
}

// distanceModel scores every contribution by the bits toggled against
// previous architectural state. The program counter and opcode toggle
// against the previous instruction, register writes against the bank
// content the instruction found, and memory traffic against earlier
// traffic following the selected transition sources. Untouched previous
// state reads as zero, so the first instruction toggles against an all
// zero machine.
type distanceModel struct {
	modelBase
	oracle Oracle

	prevPC         uint64
	prevOpcode     uint64
	pcDistance     uint64
	opcodeDistance uint64
	preBank        []uint64

	lastLoad   memState
	lastStore  memState
	lastAccess memState
}

func (m *distanceModel) instruction(i *trace.ReferenceInstruction) {
	m.pcDistance = HammingDistance(uint64(i.PC), m.prevPC)
	m.opcodeDistance = HammingDistance(uint64(i.Opcode), m.prevOpcode)
	m.prevPC = uint64(i.PC)
	m.prevOpcode = uint64(i.Opcode)
	m.preBank = m.oracle.RegBankState(preTime(i.Time))
}

func (m *distanceModel) sample(i *trace.ReferenceInstruction, cycle, cycles uint64) Sample {
	b := &sampleBuilder{isa: m.isa}

	if m.config.Has(SourcePC) {
		b.addPC(m.pcDistance)
	}
	if m.config.Has(SourceOpcode) {
		b.addOpcode(m.opcodeDistance)
	}

	// Register reads do not toggle state, only writes contribute.
	if m.config.Has(SourceRegOutputs) {
		for _, r := range registersForCycle(i, cycle, cycles) {
			if r.Access != trace.Write {
				continue
			}
			idx, ok := m.isa.RegisterIndex(r.Reg)
			if !ok {
				continue
			}
			var prev uint64
			if idx < len(m.preBank) {
				prev = m.preBank[idx]
			}
			b.addOutput(r.Reg, HammingDistance(r.Value, prev))
		}
	}

	if cycle < uint64(len(i.MemAccess)) {
		m.memory(b, &i.MemAccess[cycle], i.Time)
	}

	if cycle == 0 {
		b.s.Instruction = i
	}
	return b.s
}

// memory scores one memory access and advances the transition trackers.
// The transition sources pick the reference state; SourceMemAddress and
// SourceMemData pick which facets of the toggle are emitted. The
// trackers advance regardless of the source selection so that enabling
// a source mid analysis never sees stale state.
func (m *distanceModel) memory(b *sampleBuilder, acc *trace.MemoryAccess, t trace.Time) {
	cur := memState{addr: uint64(acc.Addr), value: acc.Value}

	switch acc.Access {
	case trace.Read:
		if m.config.Has(SourceLoadToLoadTransition) {
			m.transition(b, cur, m.lastLoad)
		} else if m.config.Has(SourceLastMemoryAccessTransition) {
			m.transition(b, cur, m.lastAccess)
		}
		m.lastLoad = cur

	case trace.Write:
		if m.config.Has(SourceMemoryUpdateTransition) {
			// The overwritten cell sits at the same address, so only
			// the data toggles.
			if m.config.Has(SourceMemData) {
				prev := m.oracle.MemoryState(acc.Addr, acc.Size, preTime(t))
				b.addData(HammingDistance(cur.value, prev))
			}
		} else if m.config.Has(SourceStoreToStoreTransition) {
			m.transition(b, cur, m.lastStore)
		} else if m.config.Has(SourceLastMemoryAccessTransition) {
			m.transition(b, cur, m.lastAccess)
		}
		m.lastStore = cur
	}

	m.lastAccess = cur
}

func (m *distanceModel) transition(b *sampleBuilder, cur, ref memState) {
	if m.config.Has(SourceMemAddress) {
		b.addAddress(HammingDistance(cur.addr, ref.addr))
	}
	if m.config.Has(SourceMemData) {
		b.addData(HammingDistance(cur.value, ref.value))
	}
}
