package trace

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlDocument mirrors the "instr:" document emitted by the YAML
// instruction sink: a list of traces, each a list of instruction records.
type yamlDocument struct {
	Instr [][]yamlInstruction `yaml:"instr"`
}

type yamlInstruction struct {
	Time        uint64         `yaml:"time"`
	PC          uint64         `yaml:"pc"`
	Opcode      uint32         `yaml:"opcode"`
	Size        uint8          `yaml:"size"`
	Executed    bool           `yaml:"executed"`
	Disassembly string         `yaml:"disassembly"`
	Loads       []accessTriple `yaml:"loads"`
	Stores      []accessTriple `yaml:"stores"`
	Regs        *yamlRegs      `yaml:"regs"`
}

type yamlRegs struct {
	Reads  []registerPair `yaml:"reads"`
	Writes []registerPair `yaml:"writes"`
}

// accessTriple is a [address, size, value] flow sequence.
type accessTriple struct {
	Addr  uint64
	Size  uint64
	Value uint64
}

// UnmarshalYAML decodes the three-element sequence form.
func (t *accessTriple) UnmarshalYAML(node *yaml.Node) error {
	var raw []uint64
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("memory access must be a sequence of integers: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("memory access must be [address, size, value], got %d elements", len(raw))
	}
	t.Addr, t.Size, t.Value = raw[0], raw[1], raw[2]
	return nil
}

// registerPair is a [name, value] flow sequence.
type registerPair struct {
	Name  string
	Value uint64
}

// UnmarshalYAML decodes the two-element sequence form.
func (p *registerPair) UnmarshalYAML(node *yaml.Node) error {
	var parts []yaml.Node
	if err := node.Decode(&parts); err != nil {
		return fmt.Errorf("register access must be a sequence: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("register access must be [name, value], got %d elements", len(parts))
	}
	if err := parts[0].Decode(&p.Name); err != nil {
		return fmt.Errorf("register name: %w", err)
	}
	if err := parts[1].Decode(&p.Value); err != nil {
		return fmt.Errorf("register value: %w", err)
	}
	return nil
}

// ReadYAML parses an instruction-trace document in the format the YAML
// instruction sink emits, returning one instruction slice per trace.
//
// Two optional keys extend the sink's format so dumped traces can be
// replayed through the engine: "time" carries the original timestamp and
// "regs: {reads: [[name, value], ...], writes: [...]}" carries register
// traffic. Register reads precede writes in the reconstructed access
// order. When a trace carries no timestamps at all, instructions are
// renumbered 1..n so oracle pre-state queries stay well defined.
func ReadYAML(r io.Reader) ([][]ReferenceInstruction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace document: %w", err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse trace document: %w", err)
	}
	if doc.Instr == nil {
		return nil, fmt.Errorf("no instr document found")
	}

	traces := make([][]ReferenceInstruction, 0, len(doc.Instr))
	for _, raw := range doc.Instr {
		insts := make([]ReferenceInstruction, 0, len(raw))
		timed := false
		for _, yi := range raw {
			if yi.Time != 0 {
				timed = true
			}
			insts = append(insts, yi.instruction())
		}
		if !timed {
			for i := range insts {
				insts[i].Time = Time(i + 1)
			}
		}
		traces = append(traces, insts)
	}
	return traces, nil
}

// ReadYAMLFile is ReadYAML over the named file.
func ReadYAMLFile(path string) ([][]ReferenceInstruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	traces, err := ReadYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return traces, nil
}

func (yi *yamlInstruction) instruction() ReferenceInstruction {
	inst := ReferenceInstruction{
		Time:        Time(yi.Time),
		Executed:    yi.Executed,
		PC:          Addr(yi.PC),
		Width:       yi.Size,
		Opcode:      yi.Opcode,
		Disassembly: yi.Disassembly,
	}
	for _, l := range yi.Loads {
		inst.MemAccess = append(inst.MemAccess, MemoryAccess{
			Size: uint(l.Size), Addr: Addr(l.Addr), Value: l.Value, Access: Read,
		})
	}
	for _, s := range yi.Stores {
		inst.MemAccess = append(inst.MemAccess, MemoryAccess{
			Size: uint(s.Size), Addr: Addr(s.Addr), Value: s.Value, Access: Write,
		})
	}
	if yi.Regs != nil {
		for _, r := range yi.Regs.Reads {
			inst.RegAccess = append(inst.RegAccess, RegisterAccess{
				Reg: r.Name, Value: r.Value, Access: Read,
			})
		}
		for _, w := range yi.Regs.Writes {
			inst.RegAccess = append(inst.RegAccess, RegisterAccess{
				Reg: w.Name, Value: w.Value, Access: Write,
			})
		}
	}
	return inst
}
