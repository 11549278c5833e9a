// Package dump provides the sinks that persist analysis results.
// Power samples can be written as CSV rows, NPY matrices or WAV audio,
// register bank snapshots as NPY matrices, and instruction or memory
// access traces as YAML documents.
//
// Every sink satisfies the corresponding consumer interface of the
// power package. Sinks constructed over an io.Writer leave the writer
// open; sinks constructed over a filename own the file and release it
// on Close.
package dump

import (
	"fmt"
	"io"
	"strings"

	"github.com/manmuqingshan/PAF/trace"
)

// baseDumper supplies the idle parts of the sink lifecycle.
type baseDumper struct{}

func (baseDumper) Enabled() bool { return true }
func (baseDumper) PreDump()      {}
func (baseDumper) PostDump()     {}
func (baseDumper) NextTrace()    {}

// streamWriter couples a writer with an optional closer and a sticky
// error. Once a write fails, later writes are dropped and the error
// surfaces on Close.
type streamWriter struct {
	w   io.Writer
	c   io.Closer
	err error
}

func (s *streamWriter) printf(format string, args ...interface{}) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

func (s *streamWriter) writeString(text string) {
	if s.err != nil {
		return
	}
	_, s.err = io.WriteString(s.w, text)
}

// Close releases the underlying file, if the sink owns one, and
// reports the first error seen over the sink's lifetime.
func (s *streamWriter) Close() error {
	if s.c != nil {
		err := s.c.Close()
		s.c = nil
		if err != nil && s.err == nil {
			s.err = err
		}
	}
	return s.err
}

// yamlSeparator emits the separator between traces of a YAML sequence
// lazily, so a document never ends with an empty array element.
type yamlSeparator struct {
	armed bool
}

func newYAMLSeparator() yamlSeparator { return yamlSeparator{armed: true} }

// take returns the pending separator and disarms it.
func (s *yamlSeparator) take() string {
	if !s.armed {
		return ""
	}
	s.armed = false
	return "  - \n"
}

// rearm schedules a separator before the next entry.
func (s *yamlSeparator) rearm() { s.armed = true }

// normalizeSpaces collapses whitespace runs into single spaces.
func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// memAccessYAML renders accesses as [[addr, size, value], ...].
func memAccessYAML(accesses []trace.MemoryAccess) string {
	var b strings.Builder
	b.WriteByte('[')
	for n := range accesses {
		if n > 0 {
			b.WriteString(", ")
		}
		a := &accesses[n]
		fmt.Fprintf(&b, "[0x%x, %d, 0x%x]", uint64(a.Addr), a.Size, a.Value)
	}
	b.WriteByte(']')
	return b.String()
}

// regBankYAML renders a register bank snapshot as [ 0x0, 0x1, ...].
func regBankYAML(bank []uint64) string {
	var b strings.Builder
	b.WriteString("[ ")
	for n, r := range bank {
		if n > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "0x%x", r)
	}
	b.WriteByte(']')
	return b.String()
}

// memAccessText renders accesses the compact way CSV rows carry them,
// e.g. "W4(0x5)@0x21afc".
func memAccessText(accesses []trace.MemoryAccess) string {
	var b strings.Builder
	for n := range accesses {
		if n > 0 {
			b.WriteByte(' ')
		}
		a := &accesses[n]
		fmt.Fprintf(&b, "%s%d(0x%x)@0x%x", a.Access, a.Size, a.Value, uint64(a.Addr))
	}
	return b.String()
}

// regAccessText renders register accesses the compact way CSV rows
// carry them, e.g. "W(0x5)@r1".
func regAccessText(accesses []trace.RegisterAccess) string {
	var b strings.Builder
	for n := range accesses {
		if n > 0 {
			b.WriteByte(' ')
		}
		a := &accesses[n]
		fmt.Fprintf(&b, "%s(0x%x)@%s", a.Access, a.Value, a.Reg)
	}
	return b.String()
}
