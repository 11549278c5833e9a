package dump

import (
	"io"
	"os"

	"github.com/manmuqingshan/PAF/power"
)

// CSVPowerDumper writes power samples as CSV rows, one row per sample
// and one blank line between traces. In detail mode each row also
// carries the instruction that produced the sample.
type CSVPowerDumper struct {
	baseDumper
	stream     streamWriter
	detail     bool
	headerDone bool
}

var _ power.PowerDumper = (*CSVPowerDumper)(nil)

// NewCSVPowerDumper returns a sink writing CSV rows to w.
func NewCSVPowerDumper(w io.Writer, detail bool) *CSVPowerDumper {
	return &CSVPowerDumper{
		stream: streamWriter{w: w},
		detail: detail,
	}
}

// CreateCSVPowerDumper returns a sink writing CSV rows to a fresh file.
// The sink owns the file and releases it on Close.
func CreateCSVPowerDumper(filename string, detail bool) (*CSVPowerDumper, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &CSVPowerDumper{
		stream: streamWriter{w: f, c: f},
		detail: detail,
	}, nil
}

// PreDump emits the column headers, once.
func (d *CSVPowerDumper) PreDump() {
	if d.headerDone {
		return
	}
	d.headerDone = true
	d.stream.writeString(`"Total","PC","Instr","ORegs","IRegs","Addr","Data"`)
	if d.detail {
		d.stream.writeString(`,"Time","PC","Instr","Exe","Asm","Memory accesses","Register accesses"`)
	}
	d.stream.writeString("\n")
}

// Dump emits one sample row.
func (d *CSVPowerDumper) Dump(s power.Sample) {
	d.stream.printf("%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f",
		s.Total, s.PC, s.Opcode, s.ORegs, s.IRegs, s.Addr, s.Data)
	if d.detail {
		if i := s.Instruction; i != nil {
			exe := "-"
			if i.Executed {
				exe = "X"
			}
			d.stream.printf(",%d,0x%x,0x%x,%q,%q,%q,%q",
				uint64(i.Time), uint64(i.PC), i.Opcode, exe,
				normalizeSpaces(i.Disassembly),
				memAccessText(i.MemAccess), regAccessText(i.RegAccess))
		} else {
			// Follow-up cycles of a multi cycle instruction have no
			// back-reference. Keep the column count stable.
			d.stream.writeString(`,,,,"","","",""`)
		}
	}
	d.stream.writeString("\n")
}

// NextTrace separates traces with a blank line.
func (d *CSVPowerDumper) NextTrace() {
	d.stream.writeString("\n")
}

// Close releases the underlying file, if any, and reports the first
// write error.
func (d *CSVPowerDumper) Close() error {
	return d.stream.Close()
}
