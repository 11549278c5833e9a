package dump

import (
	"fmt"

	"github.com/manmuqingshan/PAF/npy"
	"github.com/manmuqingshan/PAF/power"
)

// npyCollector accumulates per trace rows of a matrix that is written
// out in one go when the sink closes.
type npyCollector[T npy.Element] struct {
	filename string
	rows     [][]T
	cur      []T
}

func (c *npyCollector[T]) append(vals ...T) {
	c.cur = append(c.cur, vals...)
}

func (c *npyCollector[T]) nextTrace() {
	if len(c.cur) > 0 {
		c.rows = append(c.rows, c.cur)
		c.cur = nil
	}
}

// close validates that all traces have the same length and saves the
// matrix. A pending unterminated trace is flushed first.
func (c *npyCollector[T]) close() error {
	c.nextTrace()

	cols := 0
	if len(c.rows) > 0 {
		cols = len(c.rows[0])
	}
	data := make([]T, 0, len(c.rows)*cols)
	for n, row := range c.rows {
		if len(row) != cols {
			return fmt.Errorf("%s: trace %d has %d samples, previous traces have %d",
				c.filename, n, len(row), cols)
		}
		data = append(data, row...)
	}
	return npy.FromSlice(len(c.rows), cols, data).SaveToFile(c.filename)
}

// NPYPowerDumper collects the total power figure of every sample and
// saves them on Close as a traces x samples float64 matrix in .npy
// format. All traces must synthesize the same number of samples.
type NPYPowerDumper struct {
	baseDumper
	collector npyCollector[float64]
}

var _ power.PowerDumper = (*NPYPowerDumper)(nil)

// NewNPYPowerDumper returns a sink saving to filename on Close.
// expectedTraces sizes the internal buffers and may be zero.
func NewNPYPowerDumper(filename string, expectedTraces int) *NPYPowerDumper {
	return &NPYPowerDumper{
		collector: npyCollector[float64]{
			filename: filename,
			rows:     make([][]float64, 0, expectedTraces),
		},
	}
}

// Dump records the sample's total power figure.
func (d *NPYPowerDumper) Dump(s power.Sample) {
	d.collector.append(s.Total)
}

// NextTrace finishes the current matrix row.
func (d *NPYPowerDumper) NextTrace() {
	d.collector.nextTrace()
}

// Close writes the collected matrix to the .npy file.
func (d *NPYPowerDumper) Close() error {
	return d.collector.close()
}

// NPYRegBankDumper collects the register bank snapshot of every
// analyzed instruction and saves them on Close as a traces x
// (instructions * registers) uint64 matrix in .npy format, one
// flattened row per trace.
type NPYRegBankDumper struct {
	baseDumper
	collector npyCollector[uint64]
}

var _ power.RegBankDumper = (*NPYRegBankDumper)(nil)

// NewNPYRegBankDumper returns a sink saving to filename on Close.
// expectedTraces sizes the internal buffers and may be zero.
func NewNPYRegBankDumper(filename string, expectedTraces int) *NPYRegBankDumper {
	return &NPYRegBankDumper{
		collector: npyCollector[uint64]{
			filename: filename,
			rows:     make([][]uint64, 0, expectedTraces),
		},
	}
}

// Dump records one register bank snapshot.
func (d *NPYRegBankDumper) Dump(bank []uint64) {
	d.collector.append(bank...)
}

// NextTrace finishes the current matrix row.
func (d *NPYRegBankDumper) NextTrace() {
	d.collector.nextTrace()
}

// Close writes the collected matrix to the .npy file.
func (d *NPYRegBankDumper) Close() error {
	return d.collector.close()
}
