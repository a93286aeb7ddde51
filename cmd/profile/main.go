// Package main provides a profiling wrapper for mipsiss to identify
// simulator performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sarchlab/mipsiss/loader"
	"github.com/sarchlab/mipsiss/timing/core"
)

var (
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	duration   = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	maxCycles  = flag.Uint64("max-cycles", 100_000_000, "max cycles to simulate (0 = unlimited)")
	noCache    = flag.Bool("no-cache", false, "Disable the L1 caches")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	programPath := flag.Arg(0)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Entry point: 0x%08X\n", prog.EntryPoint)

	config := core.DefaultConfig()
	config.LittleEndian = prog.LittleEndian
	config.MaxCycles = *maxCycles
	if *noCache {
		config.ICache = core.CacheGeometry{}
		config.DCache = core.CacheGeometry{}
	}

	c, err := core.New(config, core.WithTTY(os.Stdout))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating core: %v\n", err)
		os.Exit(1)
	}
	if err := c.LoadProgram(prog, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	deadline := start.Add(*duration)

	var runErr error
	for !c.Halted() && runErr == nil {
		// Chunked so the wall-clock limit is checked without a goroutine
		// racing the simulation.
		c.RunCycles(1 << 20)
		if config.MaxCycles > 0 && c.Now() >= config.MaxCycles {
			runErr = core.ErrMaxCycles
		}
		if time.Now().After(deadline) {
			fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
			break
		}
	}

	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	stats := c.Stats()
	fmt.Printf("\nProfiling Results:\n")
	if c.Halted() {
		fmt.Printf("Exit code: %d\n", c.ExitCode())
	} else if runErr != nil {
		fmt.Printf("Stopped: %v\n", runErr)
	}
	fmt.Printf("Cycles simulated: %d\n", stats.Cycles)
	fmt.Printf("Instructions executed: %d\n", stats.ISS.Instructions)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if elapsed > 0 {
		fmt.Printf("Cycles/second: %.0f\n", float64(stats.Cycles)/elapsed.Seconds())
		fmt.Printf("Instructions/second: %.0f\n", float64(stats.ISS.Instructions)/elapsed.Seconds())
	}
}
