package emu

// ALU implements MIPS32 integer arithmetic, logic, shift and
// multiply/divide operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

func addOverflows(a, b, sum uint32) bool {
	return (^(a^b)&(a^sum))>>31 != 0
}

func subOverflows(a, b, diff uint32) bool {
	return ((a^b)&(a^diff))>>31 != 0
}

// ADD performs rd = rs + rt, trapping on signed overflow. It reports false,
// leaving rd unchanged, when the addition overflows.
func (a *ALU) ADD(rd, rs, rt uint8) bool {
	op1 := a.regFile.ReadReg(rs)
	op2 := a.regFile.ReadReg(rt)
	result := op1 + op2
	if addOverflows(op1, op2, result) {
		return false
	}
	a.regFile.WriteReg(rd, result)
	return true
}

// ADDI performs rt = rs + imm, trapping on signed overflow.
func (a *ALU) ADDI(rt, rs uint8, imm int32) bool {
	op1 := a.regFile.ReadReg(rs)
	op2 := uint32(imm)
	result := op1 + op2
	if addOverflows(op1, op2, result) {
		return false
	}
	a.regFile.WriteReg(rt, result)
	return true
}

// ADDU performs rd = rs + rt without overflow detection.
func (a *ALU) ADDU(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)+a.regFile.ReadReg(rt))
}

// ADDIU performs rt = rs + imm without overflow detection.
func (a *ALU) ADDIU(rt, rs uint8, imm int32) {
	a.regFile.WriteReg(rt, a.regFile.ReadReg(rs)+uint32(imm))
}

// SUB performs rd = rs - rt, trapping on signed overflow.
func (a *ALU) SUB(rd, rs, rt uint8) bool {
	op1 := a.regFile.ReadReg(rs)
	op2 := a.regFile.ReadReg(rt)
	result := op1 - op2
	if subOverflows(op1, op2, result) {
		return false
	}
	a.regFile.WriteReg(rd, result)
	return true
}

// SUBU performs rd = rs - rt without overflow detection.
func (a *ALU) SUBU(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)-a.regFile.ReadReg(rt))
}

// AND performs rd = rs & rt.
func (a *ALU) AND(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)&a.regFile.ReadReg(rt))
}

// OR performs rd = rs | rt.
func (a *ALU) OR(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)|a.regFile.ReadReg(rt))
}

// XOR performs rd = rs ^ rt.
func (a *ALU) XOR(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)^a.regFile.ReadReg(rt))
}

// NOR performs rd = ^(rs | rt).
func (a *ALU) NOR(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, ^(a.regFile.ReadReg(rs) | a.regFile.ReadReg(rt)))
}

// ANDI performs rt = rs & zero_extend(imm).
func (a *ALU) ANDI(rt, rs uint8, imm uint16) {
	a.regFile.WriteReg(rt, a.regFile.ReadReg(rs)&uint32(imm))
}

// ORI performs rt = rs | zero_extend(imm).
func (a *ALU) ORI(rt, rs uint8, imm uint16) {
	a.regFile.WriteReg(rt, a.regFile.ReadReg(rs)|uint32(imm))
}

// XORI performs rt = rs ^ zero_extend(imm).
func (a *ALU) XORI(rt, rs uint8, imm uint16) {
	a.regFile.WriteReg(rt, a.regFile.ReadReg(rs)^uint32(imm))
}

// LUI performs rt = imm << 16.
func (a *ALU) LUI(rt uint8, imm uint16) {
	a.regFile.WriteReg(rt, uint32(imm)<<16)
}

// SLL performs rd = rt << shamt.
func (a *ALU) SLL(rd, rt, shamt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rt)<<shamt)
}

// SRL performs a logical right shift: rd = rt >> shamt.
func (a *ALU) SRL(rd, rt, shamt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rt)>>shamt)
}

// SRA performs an arithmetic right shift: rd = rt >> shamt.
func (a *ALU) SRA(rd, rt, shamt uint8) {
	a.regFile.WriteReg(rd, uint32(int32(a.regFile.ReadReg(rt))>>shamt))
}

// SLLV shifts left by the low five bits of rs.
func (a *ALU) SLLV(rd, rt, rs uint8) {
	a.SLL(rd, rt, uint8(a.regFile.ReadReg(rs)&0x1f))
}

// SRLV shifts right logically by the low five bits of rs.
func (a *ALU) SRLV(rd, rt, rs uint8) {
	a.SRL(rd, rt, uint8(a.regFile.ReadReg(rs)&0x1f))
}

// SRAV shifts right arithmetically by the low five bits of rs.
func (a *ALU) SRAV(rd, rt, rs uint8) {
	a.SRA(rd, rt, uint8(a.regFile.ReadReg(rs)&0x1f))
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// SLT performs rd = (int32(rs) < int32(rt)).
func (a *ALU) SLT(rd, rs, rt uint8) {
	lt := int32(a.regFile.ReadReg(rs)) < int32(a.regFile.ReadReg(rt))
	a.regFile.WriteReg(rd, boolToWord(lt))
}

// SLTU performs rd = (rs < rt) unsigned.
func (a *ALU) SLTU(rd, rs, rt uint8) {
	lt := a.regFile.ReadReg(rs) < a.regFile.ReadReg(rt)
	a.regFile.WriteReg(rd, boolToWord(lt))
}

// SLTI performs rt = (int32(rs) < imm).
func (a *ALU) SLTI(rt, rs uint8, imm int32) {
	a.regFile.WriteReg(rt, boolToWord(int32(a.regFile.ReadReg(rs)) < imm))
}

// SLTIU compares rs against the sign-extended immediate as unsigned.
func (a *ALU) SLTIU(rt, rs uint8, imm int32) {
	a.regFile.WriteReg(rt, boolToWord(a.regFile.ReadReg(rs) < uint32(imm)))
}

// MOVZ performs rd = rs if rt == 0.
func (a *ALU) MOVZ(rd, rs, rt uint8) {
	if a.regFile.ReadReg(rt) == 0 {
		a.regFile.WriteReg(rd, a.regFile.ReadReg(rs))
	}
}

// MOVN performs rd = rs if rt != 0.
func (a *ALU) MOVN(rd, rs, rt uint8) {
	if a.regFile.ReadReg(rt) != 0 {
		a.regFile.WriteReg(rd, a.regFile.ReadReg(rs))
	}
}

// MULT performs the signed 32x32 multiply HI:LO = rs * rt.
func (a *ALU) MULT(rs, rt uint8) {
	p := int64(int32(a.regFile.ReadReg(rs))) * int64(int32(a.regFile.ReadReg(rt)))
	a.regFile.WriteAcc(uint64(p))
}

// MULTU performs the unsigned 32x32 multiply HI:LO = rs * rt.
func (a *ALU) MULTU(rs, rt uint8) {
	p := uint64(a.regFile.ReadReg(rs)) * uint64(a.regFile.ReadReg(rt))
	a.regFile.WriteAcc(p)
}

// MUL performs rd = low 32 bits of rs * rt. HI and LO are not preserved
// on real hardware; here they are left untouched.
func (a *ALU) MUL(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)*a.regFile.ReadReg(rt))
}

// DIV performs signed division: LO = rs / rt, HI = rs % rt. Division by
// zero leaves HI and LO unchanged.
func (a *ALU) DIV(rs, rt uint8) {
	n := int32(a.regFile.ReadReg(rs))
	d := int32(a.regFile.ReadReg(rt))
	if d == 0 {
		return
	}
	if n == -1<<31 && d == -1 {
		a.regFile.LO = uint32(n)
		a.regFile.HI = 0
		return
	}
	a.regFile.LO = uint32(n / d)
	a.regFile.HI = uint32(n % d)
}

// DIVU performs unsigned division: LO = rs / rt, HI = rs % rt.
func (a *ALU) DIVU(rs, rt uint8) {
	n := a.regFile.ReadReg(rs)
	d := a.regFile.ReadReg(rt)
	if d == 0 {
		return
	}
	a.regFile.LO = n / d
	a.regFile.HI = n % d
}
