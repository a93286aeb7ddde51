// Command benchmark runs the mipsiss timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results as a JSON report
//	-core       Run only the core benchmark subset
//	-timing     Path to a latency configuration (YAML or JSON)
//	-no-icache  Disable instruction cache simulation
//	-no-dcache  Disable data cache simulation
//
// Example:
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/mipsiss/benchmarks"
	"github.com/sarchlab/mipsiss/timing/latency"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as JSON")
	coreOnly := flag.Bool("core", false, "Run only the core benchmarks")
	timingPath := flag.String("timing", "", "Path to a latency configuration file")
	noICache := flag.Bool("no-icache", false, "Disable instruction cache simulation")
	noDCache := flag.Bool("no-dcache", false, "Disable data cache simulation")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.EnableICache = !*noICache
	config.EnableDCache = !*noDCache
	config.Output = os.Stdout

	if *timingPath != "" {
		timing, err := latency.LoadConfig(*timingPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		config.Timing = timing
	}

	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	structured := *csvOutput || *jsonOutput
	if !structured {
		fmt.Println("mipsiss Timing Benchmark Harness")
		fmt.Println("================================")
		fmt.Printf("I-Cache: %v\n", config.EnableICache)
		fmt.Printf("D-Cache: %v\n", config.EnableDCache)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	for _, r := range results {
		if r.Err != "" {
			os.Exit(1)
		}
	}
}
