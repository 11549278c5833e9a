// Package main provides the entry point for paf-ns-t-test.
// paf-ns-t-test runs a non-specific Welch t-test over two groups of
// power traces and reports whether the groups are distinguishable.
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/fatih/color"

	"github.com/manmuqingshan/PAF/npy"
	"github.com/manmuqingshan/PAF/stats"
)

var (
	sampleFrom  = flag.Int("from", 0, "First sample to process")
	sampleTo    = flag.Int("to", 0, "Sample to stop processing at (0 selects all)")
	interleaved = flag.Bool("interleaved", false, "Assume interleaved traces in a single NPY file")
	perfect     = flag.Bool("perfect", false, "Use the single pass streaming computation")
	convert     = flag.Bool("convert", false, "Convert the power information to floating point")
	outputFile  = flag.String("o", "", "Write the t values to this NPY file")
	threshold   = flag.Float64("threshold", 4.5, "Leakage detection threshold")
	verbose     = flag.Bool("v", false, "Verbose output")
)

var (
	colorLeak = color.New(color.Bold, color.FgRed).SprintfFunc()
	colorPass = color.New(color.FgGreen).SprintfFunc()
)

func main() {
	flag.Parse()

	log.SetHandler(cli.New(os.Stderr))
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	files := flag.Args()
	if *interleaved && len(files) != 1 {
		usage("1 trace file needed in interleaved mode")
	}
	if !*interleaved && len(files) != 2 {
		usage("2 trace files needed")
	}

	start := *sampleFrom
	stop := *sampleTo
	if stop == 0 {
		stop = math.MaxInt
	}

	traces := make([]*npy.Array[float64], 0, len(files))
	for _, file := range files {
		t := readTraces(file, *convert)
		if t.Cols() < stop {
			stop = t.Cols()
		}
		traces = append(traces, t)
	}
	if start >= stop {
		log.Fatalf("No samples in range [%d, %d)", start, stop)
	}
	if *interleaved && traces[0].Rows() < 2 {
		log.Fatal("Interleaved grouping needs at least 2 traces")
	}
	log.Debugf("Processing %d samples per trace, starting at sample %d",
		stop-start, start)

	var progress io.Writer
	if *verbose {
		progress = os.Stdout
	}

	var results *npy.Array[float64]
	if *interleaved {
		classifier := stats.InterleavedClassifier(traces[0].Rows())
		if *perfect {
			results = stats.PerfectTTestClassified(start, stop, traces[0],
				classifier, progress)
		} else {
			results = stats.TTestClassified(start, stop, traces[0], classifier)
		}
	} else {
		if *perfect {
			results = stats.PerfectTTest(start, stop, traces[0], traces[1],
				progress)
		} else {
			results = stats.TTest(start, stop, traces[0], traces[1])
		}
	}

	if *outputFile != "" {
		if err := results.SaveToFile(*outputFile); err != nil {
			log.WithError(err).Fatalf("Failed to write %s", *outputFile)
		}
		log.Debugf("Saved t values to %s", *outputFile)
	}

	report(results, start)
}

func usage(reason string) {
	fmt.Fprintf(os.Stderr, "Usage: paf-ns-t-test [options] <group0.npy> <group1.npy>\n")
	fmt.Fprintf(os.Stderr, "       paf-ns-t-test [options] -interleaved <traces.npy>\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
	log.Fatal(reason)
}

// readTraces loads one NPY trace matrix. With convert, integer or
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

// report prints the extreme t value and the leakage verdict.
func report(results *npy.Array[float64], start int) {
	tmax, index := stats.FindMax(results.Row(0))
	if index < 0 {
		log.Fatal("No t values computed")
	}

	fmt.Printf("Max t value: %f at sample %d\n", tmax, start+index)
	if math.Abs(tmax) > *threshold {
		fmt.Println(colorLeak("Leakage detected (|t| > %g)", *threshold))
	} else {
		fmt.Println(colorPass("No leakage detected (|t| <= %g)", *threshold))
	}
}
