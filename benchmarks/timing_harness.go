// Package benchmarks provides timing benchmark infrastructure for calibrating
// the simulated platform.
package benchmarks

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/mipsiss/loader"
	"github.com/sarchlab/mipsiss/timing/core"
	"github.com/sarchlab/mipsiss/timing/latency"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of executed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// FrozenCycles were spent waiting on memory or multi-cycle operations
	FrozenCycles uint64 `json:"frozen_cycles"`

	// Hazards is the number of load-use bubbles
	Hazards uint64 `json:"hazards"`

	// Exceptions is the number of exceptions taken
	Exceptions uint64 `json:"exceptions"`

	// ICacheHits/Misses (if cache enabled)
	ICacheHits   uint64 `json:"icache_hits,omitempty"`
	ICacheMisses uint64 `json:"icache_misses,omitempty"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// ExitCode is the program's exit code
	ExitCode uint32 `json:"exit_code"`

	// Err is set when the benchmark did not exit on its own
	Err string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Base is the virtual address the program is loaded at and entered
	// from. Zero means ProgramBase.
	Base uint32

	// Program is the MIPS32 machine code to execute, ending in an exit
	// sequence
	Program []uint32

	// ExpectedExit is the expected exit code (for validation)
	ExpectedExit uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableICache enables instruction cache simulation
	EnableICache bool

	// EnableDCache enables data cache simulation
	EnableDCache bool

	// Timing overrides the default latencies when set
	Timing *latency.TimingConfig

	// MaxCycles bounds every benchmark run
	MaxCycles uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableICache: true,
		EnableDCache: true,
		MaxCycles:    1_000_000,
		Output:       os.Stdout,
		Verbose:      false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "%s: %d cycles, CPI %.3f\n",
				result.Name, result.SimulatedCycles, result.CPI)
		}
		results = append(results, result)
	}

	return results
}

func (h *Harness) platform() *core.Config {
	config := core.DefaultConfig()
	if !h.config.EnableICache {
		config.ICache = core.CacheGeometry{}
	}
	if !h.config.EnableDCache {
		config.DCache = core.CacheGeometry{}
	}
	if h.config.Timing != nil {
		config.Timing = h.config.Timing.Clone()
	}
	config.MaxCycles = h.config.MaxCycles
	return config
}

// runBenchmark executes a single benchmark on a fresh platform.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	c, err := core.New(h.platform(), core.WithTTY(h.config.Output))
	if err != nil {
		result.Err = err.Error()
		return result
	}

	base := bench.Base
	if base == 0 {
		base = ProgramBase
	}
	if err := c.LoadProgram(BuildProgram(base, bench.Program...), true); err != nil {
		result.Err = err.Error()
		return result
	}

	start := time.Now()
	exitCode, err := c.Run()
	result.WallTime = time.Since(start)
	if err != nil {
		result.Err = err.Error()
	}

	stats := c.Stats()
	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.ISS.Instructions
	result.CPI = stats.ISS.CPI()
	result.FrozenCycles = stats.ISS.FrozenCycles
	result.Hazards = stats.ISS.Hazards
	result.Exceptions = stats.ISS.Exceptions
	result.ICacheHits = stats.ICache.Hits
	result.ICacheMisses = stats.ICache.Misses
	result.DCacheHits = stats.DCache.Hits
	result.DCacheMisses = stats.DCache.Misses
	result.ExitCode = exitCode

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== MIPS32 Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Exit Code: %d\n", r.ExitCode)
		if r.Err != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Err)
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Frozen Cycles:        %d\n", r.FrozenCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Hazards:              %d\n", r.Hazards)

		if r.ICacheHits > 0 || r.ICacheMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- I-Cache ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.ICacheHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.ICacheMisses)
		}

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.DCacheMisses)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,frozen,hazards,icache_hits,icache_misses,dcache_hits,dcache_misses,exit_code")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.FrozenCycles,
			r.Hazards,
			r.ICacheHits,
			r.ICacheMisses,
			r.DCacheHits,
			r.DCacheMisses,
			r.ExitCode,
		)
	}
}

// BuildProgram wraps instruction words into a little-endian program image
// loaded and entered at base.
func BuildProgram(base uint32, instrs ...uint32) *loader.Program {
	data := make([]byte, 4*len(instrs))
	for i, inst := range instrs {
		binary.LittleEndian.PutUint32(data[4*i:], inst)
	}
	return &loader.Program{
		EntryPoint:   base,
		LittleEndian: true,
		Segments: []loader.Segment{{
			VirtAddr: base,
			Data:     data,
			MemSize:  uint32(len(data)),
			Flags:    loader.SegmentFlagRead | loader.SegmentFlagExecute,
		}},
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	ICacheEnabled bool `json:"icache_enabled"`
	DCacheEnabled bool `json:"dcache_enabled"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the average cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var totalCycles, totalInstructions uint64
	var totalWallTime time.Duration
	for _, r := range results {
		totalCycles += r.SimulatedCycles
		totalInstructions += r.InstructionsRetired
		totalWallTime += r.WallTime
	}

	avgCPI := float64(0)
	if totalInstructions > 0 {
		avgCPI = float64(totalCycles) / float64(totalInstructions)
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Config: BenchmarkConfig{
				ICacheEnabled: h.config.EnableICache,
				DCacheEnabled: h.config.EnableDCache,
			},
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks:   len(results),
			TotalCycles:       totalCycles,
			TotalInstructions: totalInstructions,
			AverageCPI:        avgCPI,
			TotalWallTime:     totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
