// Package main provides the mipsiss command, which runs a bare-metal MIPS32
// ELF program on the simulated platform.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/sarchlab/mipsiss/emu"
	"github.com/sarchlab/mipsiss/loader"
	"github.com/sarchlab/mipsiss/timing/core"
)

// progressChunk is the number of cycles simulated between progress updates.
const progressChunk = 1 << 16

var (
	configPath = flag.String("config", "", "Path to platform configuration (JSON or YAML)")
	maxCycles  = flag.Uint64("max-cycles", 0, "Stop after this many cycles (overrides the config)")
	quantum    = flag.Uint("quantum", 0, "Largest cycle count per step (overrides the config)")
	entry      = flag.Bool("entry", false, "Start at the ELF entry point instead of the reset vector")
	progress   = flag.Bool("progress", true, "Show a progress bar when stderr is a terminal")
	dump       = flag.Bool("dump", false, "Dump the processor state on exit")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: mipsiss [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	code, err := run(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(int(code))
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (*core.Config, error) {
	config := core.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = core.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}

	if *maxCycles > 0 {
		config.MaxCycles = *maxCycles
	}
	if *quantum > 0 {
		config.Quantum = uint32(*quantum)
	}
	return config, config.Validate()
}

func run(programPath string) (uint32, error) {
	config, err := loadConfig()
	if err != nil {
		return 0, fmt.Errorf("loading config: %w", err)
	}

	prog, err := loader.Load(programPath)
	if err != nil {
		return 0, fmt.Errorf("loading program: %w", err)
	}
	// The program decides the byte order of the core.
	config.LittleEndian = prog.LittleEndian

	logger := newLogger()
	c, err := core.New(config, core.WithLogger(logger), core.WithTTY(os.Stdout))
	if err != nil {
		return 0, err
	}
	if err := c.LoadProgram(prog, *entry); err != nil {
		return 0, err
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%08X\n", prog.EntryPoint)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	runErr := simulate(c, config)
	if *dump {
		c.ISS().Dump(os.Stderr)
	}
	report(os.Stderr, programPath, c)

	if runErr != nil {
		return 0, runErr
	}
	return c.ExitCode(), nil
}

// simulate runs the core in chunks so that a progress bar can follow it.
func simulate(c *core.Core, config *core.Config) error {
	if !*progress || *verbose || !term.IsTerminal(int(os.Stderr.Fd())) {
		_, err := c.Run()
		return err
	}

	// Without a cycle limit there is no end to show, only a spinner.
	limit := int64(-1)
	if config.MaxCycles > 0 {
		limit = int64(config.MaxCycles)
	}
	pb := progressbar.NewOptions64(limit,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("simulating"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	defer func() { _ = pb.Finish() }()

	for !c.Halted() {
		if config.MaxCycles > 0 && c.Now() >= config.MaxCycles {
			return fmt.Errorf("after %d cycles: %w", c.Now(), core.ErrMaxCycles)
		}
		c.RunCycles(progressChunk)
		_ = pb.Set64(int64(c.Now()))
	}
	return nil
}

func report(w io.Writer, programPath string, c *core.Core) {
	stats := c.Stats()
	iss := stats.ISS

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Program: %s\n", programPath)
	if c.Halted() {
		fmt.Fprintf(w, "Exit code: %d\n", c.ExitCode())
	} else {
		fmt.Fprintf(w, "Exit code: none (still running)\n")
	}
	fmt.Fprintf(w, "Total Instructions: %d\n", iss.Instructions)
	fmt.Fprintf(w, "Total Cycles: %d\n", stats.Cycles)
	fmt.Fprintf(w, "CPI: %.2f\n", iss.CPI())
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Breakdown:\n")
	total := max(stats.Cycles, 1)
	for _, row := range []struct {
		name   string
		cycles uint64
	}{
		{"Frozen", iss.FrozenCycles},
		{"Hazards", iss.Hazards},
		{"Sleep", iss.SleepCycles},
	} {
		fmt.Fprintf(w, "  %-8s %8d cycles (%5.1f%%)\n",
			row.name+":", row.cycles, 100.0*float64(row.cycles)/float64(total))
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Exceptions: %d (interrupts: %d)\n", iss.Exceptions, iss.Interrupts)
	for code, n := range iss.ByCause {
		if n > 0 {
			fmt.Fprintf(w, "  %-6s %d\n", emu.ExceptCause(code).String()+":", n)
		}
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Caches:\n")
	fmt.Fprintf(w, "  I: %d hits, %d misses (%.1f%% hit rate)\n",
		stats.ICache.Hits, stats.ICache.Misses, 100*stats.ICache.HitRate())
	fmt.Fprintf(w, "  D: %d hits, %d misses, %d writebacks (%.1f%% hit rate)\n",
		stats.DCache.Hits, stats.DCache.Misses, stats.DCache.Writebacks, 100*stats.DCache.HitRate())
	fmt.Fprintf(w, "  Uncached: %d fetches, %d data, %d device\n",
		stats.IPort.Uncached, stats.DPort.Uncached, stats.DPort.Device)
}
