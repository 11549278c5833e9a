package timing

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
)

// YAMLInfo is a timing accumulator that reports as a YAML document:
//
//	timing:
//	  min: 5
//	  ave: 8
//	  max: 11
//	  cycles: [ [ 0x7b, 0 ], [ 0x7c, 2 ], [ 0x7d, 3 ] ]
//
// The cycles list names the first trace's instructions and their start
// offsets. The average is rounded to the nearest cycle.
type YAMLInfo struct {
	*Info
}

// NewYAML returns an empty YAML reporting timing accumulator.
func NewYAML() *YAMLInfo {
	return &YAMLInfo{Info: New()}
}

// Save writes the timing report to w.
func (t *YAMLInfo) Save(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "timing:\n"); err != nil {
		return fmt.Errorf("failed to write timing report: %w", err)
	}
	fmt.Fprintf(w, "  min: %d\n", t.Min())
	fmt.Fprintf(w, "  ave: %d\n", uint64(math.Round(t.Average())))
	fmt.Fprintf(w, "  max: %d\n", t.Max())

	fmt.Fprintf(w, "  cycles: [")
	for i, loc := range t.Locations() {
		if i > 0 {
			fmt.Fprintf(w, ",")
		}
		fmt.Fprintf(w, " [ 0x%x, %d ]", uint64(loc.PC), loc.Cycle)
	}
	if _, err := fmt.Fprintf(w, " ]\n"); err != nil {
		return fmt.Errorf("failed to write timing report: %w", err)
	}
	return nil
}

// SaveToFile writes the timing report to the named file.
func (t *YAMLInfo) SaveToFile(path string) error {
	var buf bytes.Buffer
	if err := t.Save(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write timing file: %w", err)
	}
	return nil
}
