package benchmarks

// ProgramBase is where benchmarks run by default: cached kseg0 at the
// bottom of RAM.
const ProgramBase uint32 = 0x80000000

// simHelperExit is the kseg1 address of the SimHelper exit-code register
// on the default platform.
const simHelperExit uint32 = 0xbf000004

// Registers used by the benchmark programs.
const (
	regZero = 0
	regAT   = 1
	regV0   = 2
	regT0   = 8
	regT1   = 9
	regT2   = 10
	regT3   = 11
	regT4   = 12
	regRA   = 31
)

// Helper functions for building MIPS32 programs

func encodeR(rs, rt, rd, shamt, funct uint8) uint32 {
	return uint32(rs&0x1F)<<21 | uint32(rt&0x1F)<<16 | uint32(rd&0x1F)<<11 |
		uint32(shamt&0x1F)<<6 | uint32(funct&0x3F)
}

func encodeI(opcode, rs, rt uint8, imm uint16) uint32 {
	return uint32(opcode)<<26 | uint32(rs&0x1F)<<21 | uint32(rt&0x1F)<<16 | uint32(imm)
}

// EncodeNOP encodes the canonical NOP (SLL $0, $0, 0).
func EncodeNOP() uint32 {
	return 0
}

// EncodeADDU encodes ADDU rd, rs, rt.
func EncodeADDU(rd, rs, rt uint8) uint32 {
	return encodeR(rs, rt, rd, 0, 0x21)
}

// EncodeSUBU encodes SUBU rd, rs, rt.
func EncodeSUBU(rd, rs, rt uint8) uint32 {
	return encodeR(rs, rt, rd, 0, 0x23)
}

// EncodeADDIU encodes ADDIU rt, rs, imm.
func EncodeADDIU(rt, rs uint8, imm int16) uint32 {
	return encodeI(0x09, rs, rt, uint16(imm))
}

// EncodeORI encodes ORI rt, rs, imm.
func EncodeORI(rt, rs uint8, imm uint16) uint32 {
	return encodeI(0x0d, rs, rt, imm)
}

// EncodeLUI encodes LUI rt, imm.
func EncodeLUI(rt uint8, imm uint16) uint32 {
	return encodeI(0x0f, 0, rt, imm)
}

// EncodeLW encodes LW rt, offset(base).
func EncodeLW(rt, base uint8, offset int16) uint32 {
	return encodeI(0x23, base, rt, uint16(offset))
}

// EncodeSW encodes SW rt, offset(base).
func EncodeSW(rt, base uint8, offset int16) uint32 {
	return encodeI(0x2b, base, rt, uint16(offset))
}

// EncodeBEQ encodes BEQ rs, rt, offset. offset counts instructions from
// the delay slot.
func EncodeBEQ(rs, rt uint8, offset int16) uint32 {
	return encodeI(0x04, rs, rt, uint16(offset))
}

// EncodeBNE encodes BNE rs, rt, offset.
func EncodeBNE(rs, rt uint8, offset int16) uint32 {
	return encodeI(0x05, rs, rt, uint16(offset))
}

// EncodeJ encodes J to an absolute address in the current 256MB region.
func EncodeJ(target uint32) uint32 {
	return 0x02<<26 | (target>>2)&0x3FFFFFF
}

// EncodeJAL encodes JAL to an absolute address.
func EncodeJAL(target uint32) uint32 {
	return 0x03<<26 | (target>>2)&0x3FFFFFF
}

// EncodeJR encodes JR rs.
func EncodeJR(rs uint8) uint32 {
	return encodeR(rs, 0, 0, 0, 0x08)
}

// EncodeMULT encodes MULT rs, rt.
func EncodeMULT(rs, rt uint8) uint32 {
	return encodeR(rs, rt, 0, 0, 0x18)
}

// EncodeDIV encodes DIV rs, rt.
func EncodeDIV(rs, rt uint8) uint32 {
	return encodeR(rs, rt, 0, 0, 0x1a)
}

// EncodeMFLO encodes MFLO rd.
func EncodeMFLO(rd uint8) uint32 {
	return encodeR(0, 0, rd, 0, 0x12)
}

// EncodeMUL encodes the SPECIAL2 MUL rd, rs, rt.
func EncodeMUL(rd, rs, rt uint8) uint32 {
	return 0x1c<<26 | encodeR(rs, rt, rd, 0, 0x02)
}

// ExitSequence stores $v0 into the SimHelper exit register and spins. addr
// is the address of the first instruction of the sequence.
func ExitSequence(addr uint32) []uint32 {
	return []uint32{
		EncodeLUI(regAT, uint16(simHelperExit>>16)),
		EncodeSW(regV0, regAT, int16(simHelperExit&0xFFFF)),
		EncodeJ(addr + 8),
		EncodeNOP(),
	}
}

// withExit appends the exit sequence to body for a program loaded at base.
func withExit(base uint32, body ...uint32) []uint32 {
	return append(body, ExitSequence(base+4*uint32(len(body)))...)
}
