package emu

import "fmt"

// ExceptCause is a MIPS32 exception code as stored in Cause.ExcCode.
type ExceptCause uint8

// Exception codes.
const (
	Interrupt           ExceptCause = 0
	TLBModified         ExceptCause = 1
	TLBLoad             ExceptCause = 2
	TLBStore            ExceptCause = 3
	AddressErrorLoad    ExceptCause = 4
	AddressErrorStore   ExceptCause = 5
	InstructionBusError ExceptCause = 6
	DataBusError        ExceptCause = 7
	Syscall             ExceptCause = 8
	Breakpoint          ExceptCause = 9
	ReservedInstruction ExceptCause = 10
	CoprocessorUnusable ExceptCause = 11
	Overflow            ExceptCause = 12
	Trap                ExceptCause = 13
	Reserved            ExceptCause = 14
	FloatingPoint       ExceptCause = 15

	// NoException marks a step with nothing to dispatch.
	NoException ExceptCause = 0xff
)

var causeNames = [...]string{
	"Int", "Mod", "TLBL", "TLBS", "AdEL", "AdES", "IBE", "DBE",
	"Sys", "Bp", "RI", "CpU", "Ov", "Tr", "reserved", "FPE",
}

func (c ExceptCause) String() string {
	if c == NoException {
		return "none"
	}
	if int(c) < len(causeNames) {
		return causeNames[c]
	}
	return fmt.Sprintf("exc%d", uint8(c))
}

// Synchronous reports whether the cause is raised by the instruction
// stream rather than by an external interrupt.
func (c ExceptCause) Synchronous() bool {
	return c != Interrupt && c != NoException
}
