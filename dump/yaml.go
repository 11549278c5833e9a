package dump

import (
	"io"
	"os"

	"github.com/manmuqingshan/PAF/power"
	"github.com/manmuqingshan/PAF/trace"
)

// YAMLMemoryAccessesDumper writes the memory traffic of each analyzed
// instruction as a YAML document. The document root is a "memaccess"
// sequence with one element per trace; instructions without memory
// traffic leave no entry.
type YAMLMemoryAccessesDumper struct {
	baseDumper
	stream streamWriter
	sep    yamlSeparator
}

var _ power.MemoryAccessesDumper = (*YAMLMemoryAccessesDumper)(nil)

// NewYAMLMemoryAccessesDumper returns a sink writing to w. The document
// header is emitted immediately.
func NewYAMLMemoryAccessesDumper(w io.Writer) *YAMLMemoryAccessesDumper {
	d := &YAMLMemoryAccessesDumper{
		stream: streamWriter{w: w},
		sep:    newYAMLSeparator(),
	}
	d.stream.writeString("memaccess:\n")
	return d
}

// CreateYAMLMemoryAccessesDumper returns a sink writing to a fresh
// file. The sink owns the file and releases it on Close.
func CreateYAMLMemoryAccessesDumper(filename string) (*YAMLMemoryAccessesDumper, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	d := &YAMLMemoryAccessesDumper{
		stream: streamWriter{w: f, c: f},
		sep:    newYAMLSeparator(),
	}
	d.stream.writeString("memaccess:\n")
	return d, nil
}

// Dump records the accesses performed at pc. The pending trace
// separator is flushed even when there is nothing to record, so empty
// traces still appear in the document.
func (d *YAMLMemoryAccessesDumper) Dump(pc trace.Addr, accesses []trace.MemoryAccess) {
	d.stream.writeString(d.sep.take())
	if len(accesses) == 0 {
		return
	}
	var loads, stores []trace.MemoryAccess
	for _, a := range accesses {
		if a.Access == trace.Read {
			loads = append(loads, a)
		} else {
			stores = append(stores, a)
		}
	}
	d.stream.printf("    - { pc: 0x%x", uint64(pc))
	if len(loads) > 0 {
		d.stream.printf(", loads: %s", memAccessYAML(loads))
	}
	if len(stores) > 0 {
		d.stream.printf(", stores: %s", memAccessYAML(stores))
	}
	d.stream.writeString("}\n")
}

// NextTrace schedules a separator before the next trace's entries.
func (d *YAMLMemoryAccessesDumper) NextTrace() {
	d.sep.rearm()
}

// Close releases the underlying file, if any, and reports the first
// write error.
func (d *YAMLMemoryAccessesDumper) Close() error {
	return d.stream.Close()
}

// YAMLInstrDumper writes each analyzed instruction as a YAML document.
// The document root is an "instr" sequence with one element per trace.
// Memory accesses and register bank snapshots can be attached to each
// instruction entry.
type YAMLInstrDumper struct {
	baseDumper
	stream        streamWriter
	sep           yamlSeparator
	withMemAccess bool
	withRegBank   bool
}

var _ power.InstrDumper = (*YAMLInstrDumper)(nil)

// NewYAMLInstrDumper returns a sink writing to w. The document header
// is emitted immediately. withMemAccess attaches the instruction's
// loads and stores to each entry, withRegBank the register bank
// content after the instruction retired.
func NewYAMLInstrDumper(w io.Writer, withMemAccess, withRegBank bool) *YAMLInstrDumper {
	d := &YAMLInstrDumper{
		stream:        streamWriter{w: w},
		sep:           newYAMLSeparator(),
		withMemAccess: withMemAccess,
		withRegBank:   withRegBank,
	}
	d.stream.writeString("instr:\n")
	return d
}

// CreateYAMLInstrDumper returns a sink writing to a fresh file. The
// sink owns the file and releases it on Close.
func CreateYAMLInstrDumper(filename string, withMemAccess, withRegBank bool) (*YAMLInstrDumper, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	d := &YAMLInstrDumper{
		stream:        streamWriter{w: f, c: f},
		sep:           newYAMLSeparator(),
		withMemAccess: withMemAccess,
		withRegBank:   withRegBank,
	}
	d.stream.writeString("instr:\n")
	return d, nil
}

// Dump records one instruction. bank may be nil when no register bank
// snapshot is available.
func (d *YAMLInstrDumper) Dump(i *trace.ReferenceInstruction, bank []uint64) {
	d.stream.writeString(d.sep.take())
	executed := "False"
	if i.Executed {
		executed = "True"
	}
	d.stream.printf("    - { pc: 0x%x, opcode: 0x%x, size: %d, executed: %s, disassembly: %q",
		uint64(i.PC), i.Opcode, i.Width, executed, normalizeSpaces(i.Disassembly))
	if d.withMemAccess {
		d.stream.printf(", loads: %s, stores: %s",
			memAccessYAML(i.Loads()), memAccessYAML(i.Stores()))
	}
	if d.withRegBank && bank != nil {
		d.stream.printf(", regbank: %s", regBankYAML(bank))
	}
	d.stream.writeString("}\n")
}

// DumpsRegBank reports whether entries carry register bank snapshots.
func (d *YAMLInstrDumper) DumpsRegBank() bool {
	return d.withRegBank
}

// NextTrace schedules a separator before the next trace's entries.
func (d *YAMLInstrDumper) NextTrace() {
	d.sep.rearm()
}

// Close releases the underlying file, if any, and reports the first
// write error.
func (d *YAMLInstrDumper) Close() error {
	return d.stream.Close()
}
