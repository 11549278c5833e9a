// Package main provides the entry point for paf-correl.
// paf-correl computes the Pearson correlation between power traces and
// a series of intermediate values, one per trace.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/fatih/color"

	"github.com/manmuqingshan/PAF/npy"
	"github.com/manmuqingshan/PAF/stats"
)

var (
	ivaluesFile = flag.String("ivalues", "", "NPY file with one intermediate value per trace (any element type)")
	sampleFrom  = flag.Int("from", 0, "First sample to process")
	sampleTo    = flag.Int("to", 0, "Sample to stop processing at (0 selects all)")
	convert     = flag.Bool("convert", false, "Convert the power information to floating point")
	outputFile  = flag.String("o", "", "Write the correlation values to this NPY file")
	verbose     = flag.Bool("v", false, "Verbose output")
)

var colorMax = color.New(color.Bold).SprintfFunc()

func main() {
	flag.Parse()

	log.SetHandler(cli.New(os.Stderr))
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if flag.NArg() != 1 || *ivaluesFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: paf-correl [options] -ivalues <iv.npy> <traces.npy>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	traces := readTraces(flag.Arg(0), *convert)
	ivalues := readIValues(*ivaluesFile, traces.Rows())

	start := *sampleFrom
	stop := *sampleTo
	if stop == 0 || stop > traces.Cols() {
		stop = traces.Cols()
	}
	if start >= stop {
		log.Fatalf("No samples in range [%d, %d)", start, stop)
	}
	log.Debugf("Processing %d samples per trace, starting at sample %d",
		stop-start, start)

	results := stats.Correl(start, stop, traces, ivalues)

	if *outputFile != "" {
		if err := results.SaveToFile(*outputFile); err != nil {
			log.WithError(err).Fatalf("Failed to write %s", *outputFile)
		}
		log.Debugf("Saved correlation values to %s", *outputFile)
	}

	rmax, index := stats.FindMax(results.Row(0))
	if index < 0 {
		log.Fatal("No correlation values computed")
	}
	fmt.Println(colorMax("Max r value: %f at sample %d", rmax, start+index))
}

// readTraces loads the NPY trace matrix. With convert, integer or
// float32 power figures are widened to float64.
func readTraces(file string, convert bool) *npy.Array[float64] {
	var t *npy.Array[float64]
	if convert {
		t = npy.ReadFileAsFloat64(file)
	} else {
		t = npy.ReadFile[float64](file)
	}
	if !t.Good() {
		log.Fatalf("Error reading traces from %s: %s", file, t.Error())
	}
	if t.Rows() == 0 {
		log.Fatalf("No traces in %s", file)
	}
	log.Debugf("Read %d traces (%d samples) from %s", t.Rows(), t.Cols(), file)
	return t
}

// readIValues loads the intermediate value vector. Intermediate values
// are usually integers, so they are always widened to float64. The
// vector must provide one value per trace, as a single row or a single
// column.
func readIValues(file string, nbtraces int) *npy.Array[float64] {
	iv := npy.ReadFileAsFloat64(file)
	if !iv.Good() {
		log.Fatalf("Error reading intermediate values from %s: %s", file, iv.Error())
	}

	n := 0
	switch {
	case iv.Rows() == 1:
		n = iv.Cols()
	case iv.Cols() == 1:
		n = iv.Rows()
	default:
		log.Fatalf("%s: intermediate values must be a vector, got %d x %d",
			file, iv.Rows(), iv.Cols())
	}
	if n != nbtraces {
		log.Fatalf("%d intermediate values for %d traces", n, nbtraces)
	}

	log.Debugf("Read %d intermediate values from %s", n, file)
	return iv
}
