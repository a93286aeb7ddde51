// Package main provides the entry point for mipsiss.
// mipsiss is a cycle-stepping MIPS32 instruction set simulator with a small
// bare-metal platform around it.
//
// For the full CLI, use: go run ./cmd/mipsiss
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("mipsiss - MIPS32 instruction set simulator")
	fmt.Println("")
	fmt.Println("Usage: mipsiss [options] <program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config      Path to a platform configuration (YAML or JSON)")
	fmt.Println("  -max-cycles  Stop after this many cycles")
	fmt.Println("  -progress    Show a progress bar on a terminal")
	fmt.Println("  -v           Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/mipsiss' for the full CLI.")
	fmt.Println("Run 'go run ./cmd/benchmark' for the timing microbenchmarks.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/mipsiss' instead.")
	}
}
