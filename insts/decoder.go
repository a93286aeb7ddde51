// Package insts provides MIPS32 instruction definitions and decoding.
package insts

// Op represents a MIPS32 opcode.
type Op uint16

// MIPS32 opcodes.
const (
	OpUnknown Op = iota

	// SPECIAL
	OpSLL
	OpSRL
	OpSRA
	OpSLLV
	OpSRLV
	OpSRAV
	OpJR
	OpJALR
	OpMOVZ
	OpMOVN
	OpSYSCALL
	OpBREAK
	OpSYNC
	OpMFHI
	OpMTHI
	OpMFLO
	OpMTLO
	OpMULT
	OpMULTU
	OpDIV
	OpDIVU
	OpADD
	OpADDU
	OpSUB
	OpSUBU
	OpAND
	OpOR
	OpXOR
	OpNOR
	OpSLT
	OpSLTU

	// REGIMM
	OpBLTZ
	OpBGEZ
	OpBLTZAL
	OpBGEZAL

	// Primary opcodes
	OpJ
	OpJAL
	OpBEQ
	OpBNE
	OpBLEZ
	OpBGTZ
	OpADDI
	OpADDIU
	OpSLTI
	OpSLTIU
	OpANDI
	OpORI
	OpXORI
	OpLUI
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpCACHE
	OpPREF

	// COP0
	OpMFC0
	OpMTC0
	OpERET
	OpWAIT

	// SPECIAL2 / SPECIAL3
	OpMUL
	OpRDHWR
)

var opNames = map[Op]string{
	OpUnknown: "unknown",
	OpSLL: "sll", OpSRL: "srl", OpSRA: "sra",
	OpSLLV: "sllv", OpSRLV: "srlv", OpSRAV: "srav",
	OpJR: "jr", OpJALR: "jalr", OpMOVZ: "movz", OpMOVN: "movn",
	OpSYSCALL: "syscall", OpBREAK: "break", OpSYNC: "sync",
	OpMFHI: "mfhi", OpMTHI: "mthi", OpMFLO: "mflo", OpMTLO: "mtlo",
	OpMULT: "mult", OpMULTU: "multu", OpDIV: "div", OpDIVU: "divu",
	OpADD: "add", OpADDU: "addu", OpSUB: "sub", OpSUBU: "subu",
	OpAND: "and", OpOR: "or", OpXOR: "xor", OpNOR: "nor",
	OpSLT: "slt", OpSLTU: "sltu",
	OpBLTZ: "bltz", OpBGEZ: "bgez", OpBLTZAL: "bltzal", OpBGEZAL: "bgezal",
	OpJ: "j", OpJAL: "jal", OpBEQ: "beq", OpBNE: "bne",
	OpBLEZ: "blez", OpBGTZ: "bgtz",
	OpADDI: "addi", OpADDIU: "addiu", OpSLTI: "slti", OpSLTIU: "sltiu",
	OpANDI: "andi", OpORI: "ori", OpXORI: "xori", OpLUI: "lui",
	OpLB: "lb", OpLH: "lh", OpLW: "lw", OpLBU: "lbu", OpLHU: "lhu",
	OpSB: "sb", OpSH: "sh", OpSW: "sw", OpCACHE: "cache", OpPREF: "pref",
	OpMFC0: "mfc0", OpMTC0: "mtc0", OpERET: "eret", OpWAIT: "wait",
	OpMUL: "mul", OpRDHWR: "rdhwr",
}

// String returns the assembler mnemonic of the opcode.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR           // SPECIAL / SPECIAL2 / SPECIAL3 register form
	FormatI           // Immediate form (ALU, branch, load/store)
	FormatJ           // Jump with 26-bit target
	FormatCop0        // Coprocessor 0
)

// Primary opcode field values (bits [31:26]).
const (
	opcodeSpecial  = 0x00
	opcodeRegImm   = 0x01
	opcodeCop0     = 0x10
	opcodeSpecial2 = 0x1c
	opcodeSpecial3 = 0x1f
)

// Instruction represents a decoded MIPS32 instruction.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format
	Word   uint32 // Raw instruction word

	Rs    uint8 // bits [25:21]
	Rt    uint8 // bits [20:16]
	Rd    uint8 // bits [15:11]
	Shamt uint8 // bits [10:6]
	Funct uint8 // bits [5:0]

	Imm    uint16 // Zero-extended 16-bit immediate
	SImm   int32  // Sign-extended 16-bit immediate
	Target uint32 // 26-bit jump target field

	// Sel is the COP0 register select field (bits [2:0]).
	Sel uint8
	// Code is the 20-bit code field of SYSCALL and BREAK.
	Code uint32
}

// IsLoad returns true for memory read instructions.
func (i *Instruction) IsLoad() bool {
	switch i.Op {
	case OpLB, OpLH, OpLW, OpLBU, OpLHU:
		return true
	}
	return false
}

// IsStore returns true for memory write instructions.
func (i *Instruction) IsStore() bool {
	switch i.Op {
	case OpSB, OpSH, OpSW:
		return true
	}
	return false
}

// IsBranch returns true for branches and jumps, i.e. instructions that own
// a delay slot.
func (i *Instruction) IsBranch() bool {
	switch i.Op {
	case OpJ, OpJAL, OpJR, OpJALR,
		OpBEQ, OpBNE, OpBLEZ, OpBGTZ,
		OpBLTZ, OpBGEZ, OpBLTZAL, OpBGEZAL:
		return true
	}
	return false
}

// AccessSize returns the memory access width in bytes, or 0 for
// instructions that do not touch memory.
func (i *Instruction) AccessSize() int {
	switch i.Op {
	case OpLB, OpLBU, OpSB:
		return 1
	case OpLH, OpLHU, OpSH:
		return 2
	case OpLW, OpSW:
		return 4
	}
	return 0
}

// Decoder decodes MIPS32 machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new MIPS32 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit MIPS32 instruction word.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown, Word: word}
	d.extractFields(word, inst)

	switch word >> 26 {
	case opcodeSpecial:
		d.decodeSpecial(inst)
	case opcodeRegImm:
		d.decodeRegImm(inst)
	case opcodeCop0:
		d.decodeCop0(inst)
	case opcodeSpecial2:
		d.decodeSpecial2(inst)
	case opcodeSpecial3:
		d.decodeSpecial3(inst)
	default:
		d.decodePrimary(word>>26, inst)
	}

	return inst
}

// extractFields fills in every bit field regardless of format; the op
// decides which of them are meaningful.
func (d *Decoder) extractFields(word uint32, inst *Instruction) {
	inst.Rs = uint8((word >> 21) & 0x1F)
	inst.Rt = uint8((word >> 16) & 0x1F)
	inst.Rd = uint8((word >> 11) & 0x1F)
	inst.Shamt = uint8((word >> 6) & 0x1F)
	inst.Funct = uint8(word & 0x3F)
	inst.Imm = uint16(word)
	inst.SImm = int32(int16(word))
	inst.Target = word & 0x3FFFFFF
	inst.Sel = uint8(word & 0x7)
	inst.Code = (word >> 6) & 0xFFFFF
}

var specialOps = map[uint8]Op{
	0x00: OpSLL, 0x02: OpSRL, 0x03: OpSRA,
	0x04: OpSLLV, 0x06: OpSRLV, 0x07: OpSRAV,
	0x08: OpJR, 0x09: OpJALR, 0x0a: OpMOVZ, 0x0b: OpMOVN,
	0x0c: OpSYSCALL, 0x0d: OpBREAK, 0x0f: OpSYNC,
	0x10: OpMFHI, 0x11: OpMTHI, 0x12: OpMFLO, 0x13: OpMTLO,
	0x18: OpMULT, 0x19: OpMULTU, 0x1a: OpDIV, 0x1b: OpDIVU,
	0x20: OpADD, 0x21: OpADDU, 0x22: OpSUB, 0x23: OpSUBU,
	0x24: OpAND, 0x25: OpOR, 0x26: OpXOR, 0x27: OpNOR,
	0x2a: OpSLT, 0x2b: OpSLTU,
}

// decodeSpecial decodes the SPECIAL opcode space.
// Format: 000000 | rs | rt | rd | shamt | funct
func (d *Decoder) decodeSpecial(inst *Instruction) {
	inst.Format = FormatR
	if op, ok := specialOps[inst.Funct]; ok {
		inst.Op = op
	}
}

// decodeRegImm decodes the REGIMM branches, selected by the rt field.
// Format: 000001 | rs | rt | offset
func (d *Decoder) decodeRegImm(inst *Instruction) {
	inst.Format = FormatI
	switch inst.Rt {
	case 0x00:
		inst.Op = OpBLTZ
	case 0x01:
		inst.Op = OpBGEZ
	case 0x10:
		inst.Op = OpBLTZAL
	case 0x11:
		inst.Op = OpBGEZAL
	}
}

// decodeCop0 decodes MFC0/MTC0 (rs selects) and the CO-bit functions.
// Format: 010000 | rs | rt | rd | 00000000 | sel
func (d *Decoder) decodeCop0(inst *Instruction) {
	inst.Format = FormatCop0
	switch {
	case inst.Rs == 0x00:
		inst.Op = OpMFC0
	case inst.Rs == 0x04:
		inst.Op = OpMTC0
	case inst.Rs&0x10 != 0:
		switch inst.Funct {
		case 0x18:
			inst.Op = OpERET
		case 0x20:
			inst.Op = OpWAIT
		}
	}
}

func (d *Decoder) decodeSpecial2(inst *Instruction) {
	inst.Format = FormatR
	if inst.Funct == 0x02 {
		inst.Op = OpMUL
	}
}

func (d *Decoder) decodeSpecial3(inst *Instruction) {
	inst.Format = FormatR
	if inst.Funct == 0x3b {
		inst.Op = OpRDHWR
	}
}

var primaryOps = map[uint32]Op{
	0x02: OpJ, 0x03: OpJAL,
	0x04: OpBEQ, 0x05: OpBNE, 0x06: OpBLEZ, 0x07: OpBGTZ,
	0x08: OpADDI, 0x09: OpADDIU, 0x0a: OpSLTI, 0x0b: OpSLTIU,
	0x0c: OpANDI, 0x0d: OpORI, 0x0e: OpXORI, 0x0f: OpLUI,
	0x20: OpLB, 0x21: OpLH, 0x23: OpLW, 0x24: OpLBU, 0x25: OpLHU,
	0x28: OpSB, 0x29: OpSH, 0x2b: OpSW,
	0x2f: OpCACHE, 0x33: OpPREF,
}

// decodePrimary decodes the I-type and J-type opcodes.
func (d *Decoder) decodePrimary(opcode uint32, inst *Instruction) {
	op, ok := primaryOps[opcode]
	if !ok {
		return
	}
	inst.Op = op
	if op == OpJ || op == OpJAL {
		inst.Format = FormatJ
	} else {
		inst.Format = FormatI
	}
}
