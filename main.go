// Package main provides the entry point for PAF.
// PAF simulates power side-channel leakage from instruction-level
// execution traces and runs statistical distinguishers over the results.
//
// For the full CLI, use: go run ./cmd/paf-power
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("PAF - Physical Attack Framework")
	fmt.Println("Leakage simulation and side-channel statistics")
	fmt.Println("")
	fmt.Println("Tools:")
	fmt.Println("  paf-power      Simulate power traces from instruction traces")
	fmt.Println("  paf-ns-t-test  Non-specific Welch t-test over trace matrices")
	fmt.Println("  paf-correl     Pearson correlation against intermediate values")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/<tool> -h' for each tool's options.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/<tool>' instead.")
	}
}
