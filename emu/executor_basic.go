package emu

import "github.com/sarchlab/mipsiss/insts"

// LatencyModel gives the extra cycles an instruction keeps the processor
// frozen after it retires.
type LatencyModel interface {
	ExtraCycles(inst *insts.Instruction) uint32
}

// Hardware registers readable with RDHWR.
const (
	hwrCPUNum    = 0
	hwrSynciStep = 1
	hwrCC        = 2
	hwrCCRes     = 3
	hwrUserLocal = 29
)

// BasicExecutor executes the MIPS32 integer instruction subset needed to
// run bare-metal programs: ALU, shift, multiply/divide, branches, loads
// and stores, and the CP0 operations of a simple kernel.
type BasicExecutor struct {
	decoder *insts.Decoder
	latency LatencyModel
}

// BasicExecutorOption is a functional option for configuring the
// BasicExecutor.
type BasicExecutorOption func(*BasicExecutor)

// WithLatencyModel sets the model that turns long-latency instructions into
// freeze cycles.
func WithLatencyModel(m LatencyModel) BasicExecutorOption {
	return func(e *BasicExecutor) {
		e.latency = m
	}
}

// NewBasicExecutor creates a new BasicExecutor.
func NewBasicExecutor(opts ...BasicExecutorOption) *BasicExecutor {
	e := &BasicExecutor{decoder: insts.NewDecoder()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute decodes and executes the instruction in ctx.
func (e *BasicExecutor) Execute(ctx *ExecContext) ExecResult {
	inst := e.decoder.Decode(ctx.Word)

	var res ExecResult
	switch inst.Format {
	case insts.FormatCop0:
		res = e.executeCop0(ctx, inst)
	case insts.FormatJ:
		res = e.executeJump(ctx, inst)
	default:
		switch {
		case inst.Op == insts.OpUnknown:
			res = Fault(ReservedInstruction)
		case inst.IsBranch():
			res = e.executeBranch(ctx, inst)
		case inst.IsLoad(), inst.IsStore():
			res = e.executeLoadStore(ctx, inst)
		default:
			res = e.executeALU(ctx, inst)
		}
	}

	if !res.Faulted && e.latency != nil {
		res.Delay = e.latency.ExtraCycles(inst)
	}
	return res
}

func (e *BasicExecutor) executeALU(ctx *ExecContext, inst *insts.Instruction) ExecResult {
	alu := NewALU(ctx.Regs)
	rs, rt, rd := inst.Rs, inst.Rt, inst.Rd

	switch inst.Op {
	case insts.OpSLL:
		alu.SLL(rd, rt, inst.Shamt)
	case insts.OpSRL:
		alu.SRL(rd, rt, inst.Shamt)
	case insts.OpSRA:
		alu.SRA(rd, rt, inst.Shamt)
	case insts.OpSLLV:
		alu.SLLV(rd, rt, rs)
	case insts.OpSRLV:
		alu.SRLV(rd, rt, rs)
	case insts.OpSRAV:
		alu.SRAV(rd, rt, rs)
	case insts.OpMOVZ:
		alu.MOVZ(rd, rs, rt)
	case insts.OpMOVN:
		alu.MOVN(rd, rs, rt)
	case insts.OpADD:
		if !alu.ADD(rd, rs, rt) {
			return Fault(Overflow)
		}
	case insts.OpADDU:
		alu.ADDU(rd, rs, rt)
	case insts.OpSUB:
		if !alu.SUB(rd, rs, rt) {
			return Fault(Overflow)
		}
	case insts.OpSUBU:
		alu.SUBU(rd, rs, rt)
	case insts.OpAND:
		alu.AND(rd, rs, rt)
	case insts.OpOR:
		alu.OR(rd, rs, rt)
	case insts.OpXOR:
		alu.XOR(rd, rs, rt)
	case insts.OpNOR:
		alu.NOR(rd, rs, rt)
	case insts.OpSLT:
		alu.SLT(rd, rs, rt)
	case insts.OpSLTU:
		alu.SLTU(rd, rs, rt)
	case insts.OpADDI:
		if !alu.ADDI(rt, rs, inst.SImm) {
			return Fault(Overflow)
		}
	case insts.OpADDIU:
		alu.ADDIU(rt, rs, inst.SImm)
	case insts.OpSLTI:
		alu.SLTI(rt, rs, inst.SImm)
	case insts.OpSLTIU:
		alu.SLTIU(rt, rs, inst.SImm)
	case insts.OpANDI:
		alu.ANDI(rt, rs, inst.Imm)
	case insts.OpORI:
		alu.ORI(rt, rs, inst.Imm)
	case insts.OpXORI:
		alu.XORI(rt, rs, inst.Imm)
	case insts.OpLUI:
		alu.LUI(rt, inst.Imm)
	case insts.OpMFHI:
		ctx.Regs.WriteReg(rd, ctx.Regs.HI)
	case insts.OpMFLO:
		ctx.Regs.WriteReg(rd, ctx.Regs.LO)
	case insts.OpMTHI:
		ctx.Regs.HI = ctx.Regs.ReadReg(rs)
	case insts.OpMTLO:
		ctx.Regs.LO = ctx.Regs.ReadReg(rs)
	case insts.OpMULT:
		alu.MULT(rs, rt)
	case insts.OpMULTU:
		alu.MULTU(rs, rt)
	case insts.OpDIV:
		alu.DIV(rs, rt)
	case insts.OpDIVU:
		alu.DIVU(rs, rt)
	case insts.OpMUL:
		alu.MUL(rd, rs, rt)
	case insts.OpSYSCALL:
		return Fault(Syscall)
	case insts.OpBREAK:
		return Fault(Breakpoint)
	case insts.OpSYNC, insts.OpPREF:
		// No memory ordering or prefetch to model.
	case insts.OpCACHE:
		if ctx.Mode != ModeKernel {
			return Fault(CoprocessorUnusable)
		}
	case insts.OpRDHWR:
		return e.executeRDHWR(ctx, inst)
	default:
		return Fault(ReservedInstruction)
	}

	return ExecResult{}
}

func (e *BasicExecutor) executeBranch(ctx *ExecContext, inst *insts.Instruction) ExecResult {
	bu := NewBranchUnit(ctx.Regs)
	pc := ctx.PC

	var taken bool
	var target uint32
	switch inst.Op {
	case insts.OpBEQ:
		taken, target = bu.BEQ(pc, inst.Rs, inst.Rt, inst.SImm)
	case insts.OpBNE:
		taken, target = bu.BNE(pc, inst.Rs, inst.Rt, inst.SImm)
	case insts.OpBLEZ:
		taken, target = bu.BLEZ(pc, inst.Rs, inst.SImm)
	case insts.OpBGTZ:
		taken, target = bu.BGTZ(pc, inst.Rs, inst.SImm)
	case insts.OpBLTZ:
		taken, target = bu.BLTZ(pc, inst.Rs, inst.SImm, false)
	case insts.OpBGEZ:
		taken, target = bu.BGEZ(pc, inst.Rs, inst.SImm, false)
	case insts.OpBLTZAL:
		taken, target = bu.BLTZ(pc, inst.Rs, inst.SImm, true)
	case insts.OpBGEZAL:
		taken, target = bu.BGEZ(pc, inst.Rs, inst.SImm, true)
	case insts.OpJR:
		taken, target = true, bu.JR(inst.Rs)
	case insts.OpJALR:
		taken, target = true, bu.JALR(pc, inst.Rd, inst.Rs)
	}

	if !taken {
		return ExecResult{}
	}
	return ExecResult{Redirect: true, Target: target}
}

func (e *BasicExecutor) executeJump(ctx *ExecContext, inst *insts.Instruction) ExecResult {
	bu := NewBranchUnit(ctx.Regs)

	var target uint32
	if inst.Op == insts.OpJAL {
		target = bu.JAL(ctx.PC, inst.Target)
	} else {
		target = bu.J(ctx.PC, inst.Target)
	}
	return ExecResult{Redirect: true, Target: target}
}

func (e *BasicExecutor) executeLoadStore(ctx *ExecContext, inst *insts.Instruction) ExecResult {
	lsu := NewLoadStoreUnit(ctx.Regs)
	size := uint8(inst.AccessSize())

	if inst.IsLoad() {
		signed := inst.Op == insts.OpLB || inst.Op == insts.OpLH
		access, addr, ok := lsu.Load(ctx.Mode, inst.Rt, inst.Rs, inst.SImm, size, signed)
		if !ok {
			ctx.CP0.BadVAddr = addr
			return Fault(AddressErrorLoad)
		}
		return ExecResult{Mem: access, Hazard: true}
	}

	access, addr, ok := lsu.Store(ctx.Mode, inst.Rt, inst.Rs, inst.SImm, size)
	if !ok {
		ctx.CP0.BadVAddr = addr
		return Fault(AddressErrorStore)
	}
	return ExecResult{Mem: access}
}

func (e *BasicExecutor) executeCop0(ctx *ExecContext, inst *insts.Instruction) ExecResult {
	if ctx.Mode != ModeKernel {
		return Fault(CoprocessorUnusable)
	}

	switch inst.Op {
	case insts.OpMFC0:
		ctx.Regs.WriteReg(inst.Rt, ctx.CP0.Read(inst.Rd, inst.Sel))
	case insts.OpMTC0:
		ctx.CP0.Write(inst.Rd, inst.Sel, ctx.Regs.ReadReg(inst.Rt))
	case insts.OpERET:
		return e.executeERET(ctx)
	case insts.OpWAIT:
		return ExecResult{Sleep: true}
	default:
		return Fault(ReservedInstruction)
	}
	return ExecResult{}
}

// executeERET returns from exception or error level. ERET has no delay
// slot.
func (e *BasicExecutor) executeERET(ctx *ExecContext) ExecResult {
	var target uint32
	if ctx.CP0.Status.ERL() {
		target = ctx.CP0.ErrorEPC
		ctx.CP0.Status = ctx.CP0.Status.WithERL(false)
	} else {
		target = ctx.CP0.EPC
		ctx.CP0.Status = ctx.CP0.Status.WithEXL(false)
	}
	return ExecResult{Redirect: true, Target: target, NoDelaySlot: true}
}

func (e *BasicExecutor) executeRDHWR(ctx *ExecContext, inst *insts.Instruction) ExecResult {
	hwr := inst.Rd
	if ctx.Mode != ModeKernel && ctx.CP0.HWREna&(1<<hwr) == 0 {
		return Fault(ReservedInstruction)
	}

	var value uint32
	switch hwr {
	case hwrCPUNum:
		value = ctx.CP0.EBase & 0x3ff
	case hwrSynciStep:
		value = 0
	case hwrCC:
		value = ctx.CP0.Count
	case hwrCCRes:
		value = 1
	case hwrUserLocal:
		if !ctx.CP0.Config3.ULRI() {
			return Fault(ReservedInstruction)
		}
		value = ctx.CP0.TLSBase
	default:
		return Fault(ReservedInstruction)
	}

	ctx.Regs.WriteReg(inst.Rt, value)
	return ExecResult{}
}
