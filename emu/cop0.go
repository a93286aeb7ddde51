package emu

func getField(v uint32, lsb, width uint) uint32 {
	return (v >> lsb) & (1<<width - 1)
}

func setField(v uint32, lsb, width uint, field uint32) uint32 {
	mask := uint32(1<<width-1) << lsb
	return v&^mask | (field<<lsb)&mask
}

func setBit(v uint32, bit uint, on bool) uint32 {
	if on {
		return v | 1<<bit
	}
	return v &^ (1 << bit)
}

// Status is the CP0 Status register (reg 12, sel 0).
type Status uint32

// Status bits.
const (
	StatusIE  Status = 1 << 0
	StatusEXL Status = 1 << 1
	StatusERL Status = 1 << 2
	StatusBEV Status = 1 << 22
)

// StatusReset is the Status value after reset: BEV and ERL set.
const StatusReset Status = StatusBEV | StatusERL

// IE reports whether interrupts are globally enabled.
func (s Status) IE() bool { return s&StatusIE != 0 }

// EXL reports whether the processor is at exception level.
func (s Status) EXL() bool { return s&StatusEXL != 0 }

// ERL reports whether the processor is at error level.
func (s Status) ERL() bool { return s&StatusERL != 0 }

// BEV reports whether the bootstrap exception vectors are selected.
func (s Status) BEV() bool { return s&StatusBEV != 0 }

// KSU returns the base privilege field (0 kernel, 1 supervisor, 2 user).
func (s Status) KSU() uint32 { return getField(uint32(s), 3, 2) }

// IM returns the 8-bit interrupt mask.
func (s Status) IM() uint32 { return getField(uint32(s), 8, 8) }

// WithEXL returns s with EXL set or cleared.
func (s Status) WithEXL(on bool) Status { return Status(setBit(uint32(s), 1, on)) }

// WithERL returns s with ERL set or cleared.
func (s Status) WithERL(on bool) Status { return Status(setBit(uint32(s), 2, on)) }

// WithIE returns s with IE set or cleared.
func (s Status) WithIE(on bool) Status { return Status(setBit(uint32(s), 0, on)) }

// WithIM returns s with the interrupt mask replaced.
func (s Status) WithIM(im uint32) Status { return Status(setField(uint32(s), 8, 8, im)) }

// WithKSU returns s with the privilege field replaced.
func (s Status) WithKSU(ksu uint32) Status { return Status(setField(uint32(s), 3, 2, ksu)) }

// Cause is the CP0 Cause register (reg 13, sel 0).
type Cause uint32

// ExcCode returns the exception code of the last exception taken.
func (c Cause) ExcCode() ExceptCause { return ExceptCause(getField(uint32(c), 2, 5)) }

// IP returns the 8-bit pending-interrupt field. Bits 0 and 1 are the
// software interrupts.
func (c Cause) IP() uint32 { return getField(uint32(c), 8, 8) }

// IV reports whether interrupts use the special 0x200 vector.
func (c Cause) IV() bool { return c&(1<<23) != 0 }

// CE returns the coprocessor unit number of a CpU exception.
func (c Cause) CE() uint32 { return getField(uint32(c), 28, 2) }

// BD reports whether the last exception was taken in a delay slot.
func (c Cause) BD() bool { return c&(1<<31) != 0 }

// WithExcCode returns c with the exception code replaced.
func (c Cause) WithExcCode(code ExceptCause) Cause {
	return Cause(setField(uint32(c), 2, 5, uint32(code)))
}

// WithIP returns c with the pending-interrupt field replaced.
func (c Cause) WithIP(ip uint32) Cause { return Cause(setField(uint32(c), 8, 8, ip)) }

// WithIV returns c with IV set or cleared.
func (c Cause) WithIV(on bool) Cause { return Cause(setBit(uint32(c), 23, on)) }

// WithCE returns c with the coprocessor field replaced.
func (c Cause) WithCE(ce uint32) Cause { return Cause(setField(uint32(c), 28, 2, ce)) }

// WithBD returns c with BD set or cleared.
func (c Cause) WithBD(on bool) Cause { return Cause(setBit(uint32(c), 31, on)) }

// Config is the CP0 Config register (reg 16, sel 0).
type Config uint32

// K0 returns the kseg0 cacheability attribute.
func (c Config) K0() uint32 { return getField(uint32(c), 0, 3) }

// MT returns the MMU type.
func (c Config) MT() uint32 { return getField(uint32(c), 7, 3) }

// AR returns the architecture revision.
func (c Config) AR() uint32 { return getField(uint32(c), 10, 3) }

// BE reports a big-endian core.
func (c Config) BE() bool { return c&(1<<15) != 0 }

// M reports that Config1 is implemented.
func (c Config) M() bool { return c&(1<<31) != 0 }

// Config1 is the CP0 Config1 register (reg 16, sel 1). It advertises the
// L1 cache geometry.
type Config1 uint32

// DA returns the data cache associativity field.
func (c Config1) DA() uint32 { return getField(uint32(c), 7, 3) }

// DL returns the data cache line size field.
func (c Config1) DL() uint32 { return getField(uint32(c), 10, 3) }

// DS returns the data cache sets-per-way field.
func (c Config1) DS() uint32 { return getField(uint32(c), 13, 3) }

// IA returns the instruction cache associativity field.
func (c Config1) IA() uint32 { return getField(uint32(c), 16, 3) }

// IL returns the instruction cache line size field.
func (c Config1) IL() uint32 { return getField(uint32(c), 19, 3) }

// IS returns the instruction cache sets-per-way field.
func (c Config1) IS() uint32 { return getField(uint32(c), 22, 3) }

// C2 reports that coprocessor 2 is implemented.
func (c Config1) C2() bool { return c&(1<<6) != 0 }

// M reports that Config2 is implemented.
func (c Config1) M() bool { return c&(1<<31) != 0 }

// Config3 is the CP0 Config3 register (reg 16, sel 3).
type Config3 uint32

// VInt reports vectored interrupt support.
func (c Config3) VInt() bool { return c&(1<<5) != 0 }

// VEIC reports an external interrupt controller.
func (c Config3) VEIC() bool { return c&(1<<6) != 0 }

// ULRI reports the UserLocal register.
func (c Config3) ULRI() bool { return c&(1<<13) != 0 }

// IntCtl is the CP0 IntCtl register (reg 12, sel 1).
type IntCtl uint32

// VS returns the vector spacing field.
func (c IntCtl) VS() uint32 { return getField(uint32(c), 5, 5) }

// WithVS returns c with the vector spacing replaced.
func (c IntCtl) WithVS(vs uint32) IntCtl { return IntCtl(setField(uint32(c), 5, 5, vs)) }

// CP0 holds the coprocessor 0 system control registers modeled by the core.
type CP0 struct {
	Status   Status
	Cause    Cause
	EPC      uint32
	ErrorEPC uint32
	BadVAddr uint32
	EBase    uint32
	Config   Config
	Config1  Config1
	Config2  uint32
	Config3  Config3
	IntCtl   IntCtl
	HWREna   uint32
	Count    uint32
	Compare  uint32
	TLSBase  uint32 // UserLocal
}

// CP0 register numbers.
const (
	CP0BadVAddr = 8
	CP0Count    = 9
	CP0Compare  = 11
	CP0Status   = 12
	CP0Cause    = 13
	CP0EPC      = 14
	CP0PRId     = 15
	CP0Config   = 16
	CP0ErrorEPC = 30
	CP0Context  = 4
	CP0HWREna   = 7
)

// Read returns the CP0 register selected by (reg, sel). Unmodeled registers
// read as zero.
func (c *CP0) Read(reg, sel uint8) uint32 {
	switch {
	case reg == CP0Context && sel == 2:
		return c.TLSBase
	case reg == CP0HWREna && sel == 0:
		return c.HWREna
	case reg == CP0BadVAddr && sel == 0:
		return c.BadVAddr
	case reg == CP0Count && sel == 0:
		return c.Count
	case reg == CP0Compare && sel == 0:
		return c.Compare
	case reg == CP0Status && sel == 0:
		return uint32(c.Status)
	case reg == CP0Status && sel == 1:
		return uint32(c.IntCtl)
	case reg == CP0Cause && sel == 0:
		return uint32(c.Cause)
	case reg == CP0EPC && sel == 0:
		return c.EPC
	case reg == CP0PRId && sel == 1:
		return c.EBase
	case reg == CP0Config && sel == 0:
		return uint32(c.Config)
	case reg == CP0Config && sel == 1:
		return uint32(c.Config1)
	case reg == CP0Config && sel == 2:
		return c.Config2
	case reg == CP0Config && sel == 3:
		return uint32(c.Config3)
	case reg == CP0ErrorEPC && sel == 0:
		return c.ErrorEPC
	}
	return 0
}

const (
	// Writable Cause bits: IV and the two software interrupt lines.
	causeWriteMask uint32 = 1<<23 | 3<<8
	// EBase bits 29..12 are writable; the CPU number is read-only.
	ebaseWriteMask uint32 = 0x3ffff000
)

// Write stores value into the CP0 register selected by (reg, sel).
// Read-only registers and read-only fields are left untouched.
func (c *CP0) Write(reg, sel uint8, value uint32) {
	switch {
	case reg == CP0Context && sel == 2:
		c.TLSBase = value
	case reg == CP0HWREna && sel == 0:
		c.HWREna = value
	case reg == CP0Count && sel == 0:
		c.Count = value
	case reg == CP0Compare && sel == 0:
		c.Compare = value
	case reg == CP0Status && sel == 0:
		c.Status = Status(value)
	case reg == CP0Status && sel == 1:
		c.IntCtl = IntCtl(value)
	case reg == CP0Cause && sel == 0:
		c.Cause = Cause(uint32(c.Cause)&^causeWriteMask | value&causeWriteMask)
	case reg == CP0EPC && sel == 0:
		c.EPC = value
	case reg == CP0PRId && sel == 1:
		c.EBase = c.EBase&^ebaseWriteMask | value&ebaseWriteMask
	case reg == CP0ErrorEPC && sel == 0:
		c.ErrorEPC = value
	}
}

// Mode is the processor privilege mode, also presented on the bus.
type Mode uint8

// Privilege modes.
const (
	ModeKernel Mode = iota
	ModeSupervisor
	ModeUser
)

func (m Mode) String() string {
	switch m {
	case ModeKernel:
		return "kernel"
	case ModeSupervisor:
		return "supervisor"
	case ModeUser:
		return "user"
	}
	return "unknown"
}

// mode derives the current privilege mode from Status.
func (c *CP0) mode() Mode {
	s := c.Status
	if s.EXL() || s.ERL() {
		return ModeKernel
	}
	switch s.KSU() {
	case 0:
		return ModeKernel
	case 1:
		return ModeSupervisor
	}
	return ModeUser
}
