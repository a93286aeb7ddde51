package emu

// linkRegister receives the return address of JAL and the linking
// REGIMM branches.
const linkRegister = 31

// BranchUnit implements MIPS32 branches and jumps. A taken branch returns
// the target of the instruction after the delay slot; the engine shifts it
// into NPC.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// relative computes a PC-relative branch target: the delay slot address
// plus the word offset.
func relative(pc uint32, offset int32) uint32 {
	return pc + 4 + uint32(offset<<2)
}

// BEQ branches when rs == rt.
func (b *BranchUnit) BEQ(pc uint32, rs, rt uint8, offset int32) (bool, uint32) {
	return b.regFile.ReadReg(rs) == b.regFile.ReadReg(rt), relative(pc, offset)
}

// BNE branches when rs != rt.
func (b *BranchUnit) BNE(pc uint32, rs, rt uint8, offset int32) (bool, uint32) {
	return b.regFile.ReadReg(rs) != b.regFile.ReadReg(rt), relative(pc, offset)
}

// BLEZ branches when rs <= 0.
func (b *BranchUnit) BLEZ(pc uint32, rs uint8, offset int32) (bool, uint32) {
	return int32(b.regFile.ReadReg(rs)) <= 0, relative(pc, offset)
}

// BGTZ branches when rs > 0.
func (b *BranchUnit) BGTZ(pc uint32, rs uint8, offset int32) (bool, uint32) {
	return int32(b.regFile.ReadReg(rs)) > 0, relative(pc, offset)
}

// BLTZ branches when rs < 0. With link set, the return address is written
// to $31 whether or not the branch is taken.
func (b *BranchUnit) BLTZ(pc uint32, rs uint8, offset int32, link bool) (bool, uint32) {
	// Read before linking in case rs is $31.
	taken := int32(b.regFile.ReadReg(rs)) < 0
	if link {
		b.regFile.WriteReg(linkRegister, pc+8)
	}
	return taken, relative(pc, offset)
}

// BGEZ branches when rs >= 0, optionally linking.
func (b *BranchUnit) BGEZ(pc uint32, rs uint8, offset int32, link bool) (bool, uint32) {
	taken := int32(b.regFile.ReadReg(rs)) >= 0
	if link {
		b.regFile.WriteReg(linkRegister, pc+8)
	}
	return taken, relative(pc, offset)
}

// J jumps within the current 256MB region.
func (b *BranchUnit) J(pc, target uint32) uint32 {
	return (pc+4)&0xf0000000 | target<<2
}

// JAL jumps like J and links the return address into $31.
func (b *BranchUnit) JAL(pc, target uint32) uint32 {
	b.regFile.WriteReg(linkRegister, pc+8)
	return b.J(pc, target)
}

// JR jumps to the address held in rs.
func (b *BranchUnit) JR(rs uint8) uint32 {
	return b.regFile.ReadReg(rs)
}

// JALR jumps to the address held in rs and links into rd.
func (b *BranchUnit) JALR(pc uint32, rd, rs uint8) uint32 {
	target := b.regFile.ReadReg(rs)
	b.regFile.WriteReg(rd, pc+8)
	return target
}
