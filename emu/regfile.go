// Package emu provides the cycle-stepping MIPS32 instruction-set simulator
// core: architectural state, exception dispatch, the per-quantum step
// engine and a debugger-facing register namespace.
package emu

// RegFile represents the MIPS32 integer register file.
// It contains 32 general-purpose registers, the HI/LO multiply/divide
// accumulator and the PC/NPC pair that models the branch delay slot.
type RegFile struct {
	// GP holds general-purpose registers $0-$31.
	// GP[0] always reads as 0; a write to it is discarded after each step.
	GP [32]uint32

	// HI and LO hold multiply/divide results.
	HI uint32
	LO uint32

	// PC is the address of the instruction being executed.
	PC uint32

	// NPC is the address of the instruction that executes next. It equals
	// PC+4 unless a branch is pending in the delay slot.
	NPC uint32
}

// ReadReg reads a general-purpose register. Register 0 returns 0, as does
// any out-of-range index.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.GP[reg]
}

// WriteReg writes a general-purpose register. Writes to register 0 or to an
// out-of-range index are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.GP[reg] = value
}

// ReadAcc returns HI:LO as one 64-bit value.
func (r *RegFile) ReadAcc() uint64 {
	return uint64(r.HI)<<32 | uint64(r.LO)
}

// WriteAcc splits a 64-bit value into HI:LO.
func (r *RegFile) WriteAcc(value uint64) {
	r.HI = uint32(value >> 32)
	r.LO = uint32(value)
}
