package emu

import (
	"fmt"
	"io"
)

// Debugger register namespace.
const (
	DebugRegStatus   = 32
	DebugRegLO       = 33
	DebugRegHI       = 34
	DebugRegBadVAddr = 35
	DebugRegCause    = 36
	DebugRegPC       = 37

	debugRegCount = 38
)

// DebugRegisterCount returns the size of the debugger register namespace.
func (s *ISS) DebugRegisterCount() int {
	return debugRegCount
}

// DebugGetRegister reads a register by debugger index. Unknown indices
// read as 0.
func (s *ISS) DebugGetRegister(index int) uint32 {
	switch {
	case index == 0:
		return 0
	case index > 0 && index < 32:
		return s.regs.GP[index]
	case index == DebugRegStatus:
		return uint32(s.cp0.Status)
	case index == DebugRegLO:
		return s.regs.LO
	case index == DebugRegHI:
		return s.regs.HI
	case index == DebugRegBadVAddr:
		return s.cp0.BadVAddr
	case index == DebugRegCause:
		return uint32(s.cp0.Cause)
	case index == DebugRegPC:
		return s.regs.PC
	}
	return 0
}

// DebugSetRegister writes a register by debugger index. Setting the PC
// also points NPC at the following word. Unknown indices are ignored.
func (s *ISS) DebugSetRegister(index int, value uint32) {
	switch {
	case index > 0 && index < 32:
		s.regs.GP[index] = value
	case index == DebugRegStatus:
		s.cp0.Status = Status(value)
		s.updateMode()
	case index == DebugRegLO:
		s.regs.LO = value
	case index == DebugRegHI:
		s.regs.HI = value
	case index == DebugRegBadVAddr:
		s.cp0.BadVAddr = value
	case index == DebugRegCause:
		s.cp0.Cause = Cause(value)
	case index == DebugRegPC:
		s.regs.PC = value
		s.regs.NPC = value + 4
	}
}

// CauseToSignal maps an exception cause to the POSIX signal number a
// debugger expects.
func CauseToSignal(cause ExceptCause) int {
	switch cause {
	case Interrupt:
		return 2 // SIGINT
	case TLBModified, TLBLoad, TLBStore:
		return 5 // SIGTRAP
	case AddressErrorLoad, AddressErrorStore, InstructionBusError, DataBusError:
		return 11 // SIGSEGV
	case Syscall, Breakpoint, Trap, Reserved:
		return 5
	case ReservedInstruction, CoprocessorUnusable:
		return 4 // SIGILL
	case Overflow, FloatingPoint:
		return 8 // SIGFPE
	}
	return 5
}

var gpNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// Dump writes a human-readable snapshot of the architectural state.
func (s *ISS) Dump(w io.Writer) {
	_, _ = fmt.Fprintf(w, "PC: %#08x NPC: %#08x mode: %v sleeping: %v\n",
		s.regs.PC, s.regs.NPC, s.mode, s.sleeping)
	_, _ = fmt.Fprintf(w, "Status: %#08x Cause: %#08x (%v) EPC: %#08x BadVAddr: %#08x\n",
		uint32(s.cp0.Status), uint32(s.cp0.Cause), s.cp0.Cause.ExcCode(),
		s.cp0.EPC, s.cp0.BadVAddr)
	_, _ = fmt.Fprintf(w, "HI: %#08x LO: %#08x\n", s.regs.HI, s.regs.LO)

	for i := 0; i < 32; i++ {
		_, _ = fmt.Fprintf(w, " %4s: %#08x", gpNames[i], s.regs.ReadReg(uint8(i)))
		if i%4 == 3 {
			_, _ = fmt.Fprintln(w)
		}
	}
}
