// Package core drives an ISS through the simulated platform: it services
// the core's fetch and data requests with cache and bus latencies, routes
// device interrupts and keeps the platform time base.
package core

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sarchlab/mipsiss/emu"
	"github.com/sarchlab/mipsiss/loader"
	"github.com/sarchlab/mipsiss/mem"
	"github.com/sarchlab/mipsiss/timing/bus"
	"github.com/sarchlab/mipsiss/timing/cache"
	"github.com/sarchlab/mipsiss/timing/latency"
)

// ErrMaxCycles is returned by Run when the cycle budget runs out before
// the program exits.
var ErrMaxCycles = errors.New("cycle limit reached")

// Stats holds performance statistics for the platform.
type Stats struct {
	// Cycles is the platform time base.
	Cycles uint64
	ISS    emu.Stats
	ICache cache.Statistics
	DCache cache.Statistics
	IPort  bus.PortStats
	DPort  bus.PortStats
}

// Core is one ISS attached to the simulated platform.
type Core struct {
	config *Config
	logger *slog.Logger
	tty    io.Writer

	memory *mem.Memory
	bus    *bus.Bus
	helper *bus.SimHelper
	timer  *bus.Timer

	table  *latency.Table
	iss    *emu.ISS
	icache *cache.Cache
	dcache *cache.Cache
	iport  *bus.Port
	dport  *bus.Port

	now uint64
}

// Option is a functional option for configuring the Core.
type Option func(*Core)

// WithLogger sets the logger shared by the platform and the ISS.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Core) {
		c.logger = logger
	}
}

// WithTTY sets where characters written to the SimHelper go.
func WithTTY(w io.Writer) Option {
	return func(c *Core) {
		c.tty = w
	}
}

// New builds the platform described by config and resets it.
func New(config *Config, opts ...Option) (*Core, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Core{
		config: config,
		logger: slog.New(slog.DiscardHandler),
		memory: mem.NewMemory(),
		timer:  bus.NewTimer(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.helper = bus.NewSimHelper(c.tty)
	if err := c.buildBus(); err != nil {
		return nil, err
	}

	c.table = latency.NewTableWithConfig(config.Timing)
	c.iss = emu.NewISS(config.Ident,
		emu.WithLittleEndian(config.LittleEndian),
		emu.WithLogger(c.logger),
		emu.WithExecutor(emu.NewBasicExecutor(emu.WithLatencyModel(c.table))),
	)

	portTiming := bus.PortTiming{
		MemoryLatency: config.Timing.MemoryLatency,
		DeviceLatency: config.Timing.DeviceLatency,
	}
	iopts := []bus.PortOption{bus.WithRetain()}
	var dopts []bus.PortOption

	// Config1 counts lines per way, i.e. sets.
	ic := config.ICache.withTiming(config.Timing)
	if ic.Enabled() {
		c.icache = cache.New(ic, c.bus)
		iopts = append(iopts, bus.WithCache(c.icache))
		c.iss.SetICacheInfo(uint32(ic.BlockSize), uint32(ic.Associativity), uint32(ic.Sets()))
	}
	dc := config.DCache.withTiming(config.Timing)
	if dc.Enabled() {
		c.dcache = cache.New(dc, c.bus)
		dopts = append(dopts, bus.WithCache(c.dcache))
		c.iss.SetDCacheInfo(uint32(dc.BlockSize), uint32(dc.Associativity), uint32(dc.Sets()))
	}

	c.iport = bus.NewPort("inst", c.bus, portTiming, iopts...)
	c.dport = bus.NewPort("data", c.bus, portTiming, dopts...)

	c.Reset()
	return c, nil
}

func (c *Core) buildBus() error {
	c.bus = bus.NewBus(c.memory)

	if err := c.bus.MapRAM("ram", c.config.RAMBase, c.config.RAMSize); err != nil {
		return err
	}
	if c.config.ROMSize > 0 {
		if err := c.bus.MapRAM("rom", c.config.ROMBase, c.config.ROMSize); err != nil {
			return err
		}
	}
	if err := c.bus.MapDevice("simhelper", c.config.SimHelperBase, bus.SimHelperSize, c.helper); err != nil {
		return err
	}
	if err := c.bus.MapDevice("timer", c.config.TimerBase, bus.TimerSize, c.timer); err != nil {
		return err
	}
	return c.bus.AttachIRQ(c.config.TimerIRQ, c.timer)
}

// ISS returns the simulated processor.
func (c *Core) ISS() *emu.ISS {
	return c.iss
}

// Bus returns the platform address map.
func (c *Core) Bus() *bus.Bus {
	return c.bus
}

// Memory returns the physical memory behind the RAM windows.
func (c *Core) Memory() *mem.Memory {
	return c.memory
}

// Timer returns the platform timer.
func (c *Core) Timer() *bus.Timer {
	return c.timer
}

// Now returns the platform time base in cycles.
func (c *Core) Now() uint64 {
	return c.now
}

// Halted returns true once the program has written the SimHelper exit
// registers.
func (c *Core) Halted() bool {
	return c.helper.Exited()
}

// ExitCode returns the exit code if the core has halted.
func (c *Core) ExitCode() uint32 {
	return c.helper.ExitCode()
}

// Reset puts the processor back at its reset vector, drops cache contents
// and clears device state. Memory is kept, so a loaded program can be
// rerun.
func (c *Core) Reset() {
	c.iss.Reset()
	c.iport.Reset()
	c.dport.Reset()
	if c.icache != nil {
		c.icache.Reset()
	}
	if c.dcache != nil {
		c.dcache.Reset()
	}
	c.helper.Reset()
	c.timer.Reset()
	if c.config.TimerPeriod > 0 {
		c.timer.Start(c.config.TimerPeriod)
	}
	c.now = 0
}

// LoadProgram copies the loadable segments of prog into memory through
// their physical addresses and, if setEntry is true, starts execution at
// the program entry point instead of the reset vector.
func (c *Core) LoadProgram(prog *loader.Program, setEntry bool) error {
	if prog.LittleEndian != c.config.LittleEndian {
		return fmt.Errorf("program byte order does not match the core (little endian: %v)",
			c.config.LittleEndian)
	}

	for _, seg := range prog.Segments {
		if seg.MemSize == 0 {
			continue
		}
		paddr := bus.Physical(seg.VirtAddr)
		last := paddr + seg.MemSize - 1
		if !c.bus.IsRAM(paddr) || !c.bus.IsRAM(last) {
			return fmt.Errorf("segment %#08x+%#x is not backed by RAM", seg.VirtAddr, seg.MemSize)
		}
		c.memory.LoadProgram(paddr, seg.Data)
		c.memory.Zero(paddr+uint32(len(seg.Data)), seg.MemSize-uint32(len(seg.Data)))
	}

	if setEntry {
		c.iss.DebugSetRegister(emu.DebugRegPC, prog.EntryPoint)
	}
	c.logger.Info("program loaded",
		"segments", len(prog.Segments), "entry", fmt.Sprintf("%#08x", prog.EntryPoint))
	return nil
}

// Tick services the pending requests of the core and steps it by at most
// one quantum. It returns the cycles consumed.
func (c *Core) Tick() uint32 {
	var (
		irsp emu.InstructionResponse
		drsp emu.DataResponse
	)

	if ireq := c.iss.InstructionRequest(); ireq.Valid {
		rsp := c.iport.Access(bus.Request{Addr: ireq.Addr, Mode: ireq.Mode}, c.now)
		irsp = emu.InstructionResponse{Valid: rsp.Valid, Error: rsp.Error, Word: rsp.Data}
	}
	if dreq := c.iss.DataRequest(); dreq.Valid {
		rsp := c.dport.Access(bus.Request{
			Addr:  dreq.Addr,
			Write: dreq.Type == emu.DataWrite,
			BE:    dreq.BE,
			WData: dreq.WData,
			Mode:  dreq.Mode,
		}, c.now)
		drsp = emu.DataResponse{Valid: rsp.Valid, Error: rsp.Error, RData: rsp.Data}
	}

	ncycle := c.config.Quantum
	if wait := max(c.iport.Remaining(c.now), c.dport.Remaining(c.now)); wait > 0 {
		ncycle = uint32(min(uint64(ncycle), wait))
	}

	consumed := c.iss.Step(ncycle, irsp, drsp, c.bus.IRQLines())
	c.now += uint64(consumed)
	c.bus.Tick(uint64(consumed))
	return consumed
}

// RunCycles runs the core for at least the given number of cycles, or
// until it halts. Returns true if still running.
func (c *Core) RunCycles(cycles uint64) bool {
	end := c.now + cycles
	for c.now < end && !c.Halted() {
		c.Tick()
	}
	return !c.Halted()
}

// Run executes the core until the program exits or MaxCycles elapse.
func (c *Core) Run() (uint32, error) {
	for !c.Halted() {
		if c.config.MaxCycles > 0 && c.now >= c.config.MaxCycles {
			return 0, fmt.Errorf("after %d cycles: %w", c.now, ErrMaxCycles)
		}
		c.Tick()
	}

	c.logger.Info("program exited",
		"code", c.ExitCode(), "cycles", c.now, "instructions", c.iss.Stats().Instructions)
	return c.ExitCode(), nil
}

// Flush writes dirty data cache lines back to memory.
func (c *Core) Flush() {
	if c.dcache != nil {
		c.dcache.Flush()
	}
}

// Stats returns performance statistics for the platform.
func (c *Core) Stats() Stats {
	s := Stats{
		Cycles: c.now,
		ISS:    c.iss.Stats(),
		IPort:  c.iport.Stats(),
		DPort:  c.dport.Stats(),
	}
	if c.icache != nil {
		s.ICache = c.icache.Stats()
	}
	if c.dcache != nil {
		s.DCache = c.dcache.Stats()
	}
	return s
}
