package emu

import (
	"context"
	"log/slog"
)

// ResetAddress is the address of the first instruction fetched after reset.
const ResetAddress uint32 = 0xbfc00000

// InstructionRequest is the fetch the core wants serviced before the next
// Step.
type InstructionRequest struct {
	Valid bool
	Addr  uint32
	Mode  Mode
}

// InstructionResponse carries the fetched word in memory (little-endian
// lane) order.
type InstructionResponse struct {
	Valid bool
	Error bool
	Word  uint32
}

// DataType is the kind of a data access.
type DataType uint8

// Data access kinds.
const (
	DataRead DataType = iota
	DataWrite
)

func (t DataType) String() string {
	if t == DataWrite {
		return "write"
	}
	return "read"
}

// DataRequest is the data access the core wants serviced. Addr is word
// aligned; BE selects the byte lanes (bit i is the byte at Addr+i) and
// WData carries store data already placed in its lanes.
type DataRequest struct {
	Valid bool
	Type  DataType
	Addr  uint32
	BE    uint8
	WData uint32
	Mode  Mode
}

// DataResponse completes the outstanding DataRequest. RData is the whole
// aligned word in lane order.
type DataResponse struct {
	Valid bool
	Error bool
	RData uint32
}

// Stats holds the cycle accounting of an ISS.
type Stats struct {
	// Cycles is the total number of cycles consumed by Step.
	Cycles uint64
	// Instructions is the number of executor invocations.
	Instructions uint64
	// FrozenCycles were spent waiting on the bus or a multi-cycle delay.
	FrozenCycles uint64
	// SleepCycles were spent asleep after WAIT.
	SleepCycles uint64
	// Hazards counts bubble cycles taken for owed hazards.
	Hazards uint64
	// Exceptions counts dispatched exceptions, interrupts included.
	Exceptions uint64
	// Interrupts counts dispatched interrupts.
	Interrupts uint64
	// ByCause counts dispatched exceptions per exception code.
	ByCause [32]uint64
}

// CPI returns cycles per executed instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// pendingLoad is the register destination of an outstanding read.
type pendingLoad struct {
	dest   uint8
	size   uint8
	signed bool
	offset uint8
}

// ISS is a cycle-stepping MIPS32 core. It is driven by a harness that reads
// InstructionRequest and DataRequest, services them, and calls Step with the
// responses. An ISS is not safe for concurrent use.
type ISS struct {
	ident        uint32
	littleEndian bool
	logger       *slog.Logger
	debug        bool
	executor     Executor
	bypass       func(ExceptCause) bool

	regs RegFile
	cp0  CP0
	mode Mode

	// Latches that persist across Step calls.
	hazard   bool
	skipNext bool
	insDelay uint32
	dbe      bool
	dreq     DataRequest
	dataAddr uint32
	load     pendingLoad
	sleeping bool
	woken    bool

	stats Stats
}

// ISSOption is a functional option for configuring the ISS.
type ISSOption func(*ISS)

// WithLittleEndian selects the core byte order. Cores are little-endian
// unless told otherwise.
func WithLittleEndian(little bool) ISSOption {
	return func(s *ISS) {
		s.littleEndian = little
	}
}

// WithLogger sets the logger used for step tracing at debug level.
func WithLogger(logger *slog.Logger) ISSOption {
	return func(s *ISS) {
		s.logger = logger
	}
}

// WithExecutor replaces the instruction executor.
func WithExecutor(e Executor) ISSOption {
	return func(s *ISS) {
		s.executor = e
	}
}

// WithExceptionBypass installs a debugger hook. When it returns true for a
// pending cause, the exception is not dispatched and execution continues
// sequentially.
func WithExceptionBypass(bypass func(ExceptCause) bool) ISSOption {
	return func(s *ISS) {
		s.bypass = bypass
	}
}

// WithVectoredInterrupts advertises vectored interrupts in Config3. With
// external set, an external interrupt controller (VEIC) supplies the vector
// number on the low irq lines.
func WithVectoredInterrupts(external bool) ISSOption {
	return func(s *ISS) {
		c := uint32(s.cp0.Config3) | 1<<5
		c = setBit(c, 6, external)
		s.cp0.Config3 = Config3(c)
	}
}

// NewISS creates a core with the given processor identity and resets it.
func NewISS(ident uint32, opts ...ISSOption) *ISS {
	s := &ISS{
		ident:        ident,
		littleEndian: true,
		logger:       slog.New(slog.DiscardHandler),
	}

	// Config3: UserLocal implemented.
	s.cp0.Config3 = Config3(1 << 13)

	for _, opt := range opts {
		opt(s)
	}

	s.debug = s.logger.Enabled(context.Background(), slog.LevelDebug)

	if s.executor == nil {
		s.executor = NewBasicExecutor()
	}

	s.initConfig()
	s.Reset()

	return s
}

func (s *ISS) initConfig() {
	var c uint32
	c = setBit(c, 31, true)  // Config1 present
	c = setField(c, 7, 3, 7) // MT: bus-level MMU
	c = setField(c, 10, 3, 1)
	c = setBit(c, 15, !s.littleEndian)
	s.cp0.Config = Config(c)

	// Config2 present, coprocessor 2 advertised.
	s.cp0.Config1 |= Config1(1<<31 | 1<<6)
	s.cp0.Config2 = 1 << 31
}

// Reset re-initializes the architectural state. Config registers and the
// advertised cache geometry survive.
func (s *ISS) Reset() {
	s.regs = RegFile{PC: ResetAddress, NPC: ResetAddress + 4}

	s.cp0.Status = StatusReset
	s.cp0.Cause = 0
	s.cp0.EPC = 0
	s.cp0.ErrorEPC = 0
	s.cp0.BadVAddr = 0
	s.cp0.EBase = 0x80000000 | s.ident
	s.cp0.IntCtl = 0
	s.cp0.HWREna = 0
	s.cp0.Count = 0
	s.cp0.Compare = 0
	s.cp0.TLSBase = 0

	s.hazard = false
	s.skipNext = false
	s.insDelay = 0
	s.dbe = false
	s.dreq = DataRequest{}
	s.dataAddr = 0
	s.load = pendingLoad{}
	s.sleeping = false
	s.woken = false
	s.stats = Stats{}

	s.updateMode()
}

func (s *ISS) updateMode() {
	s.mode = s.cp0.mode()
}

// Ident returns the processor identity given at construction.
func (s *ISS) Ident() uint32 {
	return s.ident
}

// LittleEndian reports the core byte order.
func (s *ISS) LittleEndian() bool {
	return s.littleEndian
}

// RegFile returns the register file.
func (s *ISS) RegFile() *RegFile {
	return &s.regs
}

// CP0 returns the system control registers.
func (s *ISS) CP0() *CP0 {
	return &s.cp0
}

// Mode returns the current privilege mode.
func (s *ISS) Mode() Mode {
	return s.mode
}

// Sleeping reports whether the core is waiting for an interrupt.
func (s *ISS) Sleeping() bool {
	return s.sleeping
}

// Stats returns the cycle accounting since the last reset.
func (s *ISS) Stats() Stats {
	return s.stats
}

// InstructionRequest returns the fetch to service before the next Step.
// No fetch is requested while sleeping.
func (s *ISS) InstructionRequest() InstructionRequest {
	return InstructionRequest{
		Valid: !s.sleeping,
		Addr:  s.regs.PC,
		Mode:  s.mode,
	}
}

// DataRequest returns the outstanding data access, if any.
func (s *ISS) DataRequest() DataRequest {
	return s.dreq
}
