package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsiss/emu"
	"github.com/sarchlab/mipsiss/insts"
	"github.com/sarchlab/mipsiss/mem"
)

type fixedLatency map[insts.Op]uint32

func (l fixedLatency) ExtraCycles(inst *insts.Instruction) uint32 {
	return l[inst.Op]
}

var _ = Describe("BasicExecutor", func() {
	var (
		memory *mem.Memory
		iss    *emu.ISS
	)

	BeforeEach(func() {
		memory = mem.NewMemory()
		iss = emu.NewISS(0)
	})

	// runUntil steps one cycle at a time until the PC reaches pc.
	runUntil := func(pc uint32) {
		for i := 0; i < 200 && iss.RegFile().PC != pc; i++ {
			stepMemory(iss, memory, 1, 0)
		}
		Expect(iss.RegFile().PC).To(Equal(pc))
	}

	It("should run an ALU sequence", func() {
		loadWords(memory, resetPC,
			0x24020005, // addiu $2, $0, 5
			0x24030007, // addiu $3, $0, 7
			0x00432021, // addu  $4, $2, $3
			0x00642023, // subu  $4, $3, $4
			0x00042880, // sll   $5, $4, 2
			0x00053043, // sra   $6, $5, 1
			0x0002382a, // slt   $7, $0, $2
		)

		runUntil(resetPC + 28)

		regs := iss.RegFile()
		Expect(regs.GP[2]).To(Equal(uint32(5)))
		Expect(regs.GP[3]).To(Equal(uint32(7)))
		Expect(regs.GP[4]).To(Equal(uint32(0xfffffffb)))
		Expect(regs.GP[5]).To(Equal(uint32(0xffffffec)))
		Expect(regs.GP[6]).To(Equal(uint32(0xfffffff6)))
		Expect(regs.GP[7]).To(Equal(uint32(1)))
	})

	It("should execute the delay slot of a taken branch", func() {
		loadWords(memory, resetPC,
			0x10000002, // beq   $0, $0, +2
			0x24020001, // addiu $2, $0, 1 (delay slot)
			0x24030001, // addiu $3, $0, 1 (skipped)
			0x24040001, // addiu $4, $0, 1
		)

		runUntil(resetPC + 16)

		Expect(iss.RegFile().GP[2]).To(Equal(uint32(1)))
		Expect(iss.RegFile().GP[3]).To(BeZero())
		Expect(iss.RegFile().GP[4]).To(Equal(uint32(1)))
	})

	It("should link on JAL and return with JR", func() {
		loadWords(memory, resetPC,
			0x0ff00004, // jal   0xbfc00010
			0x00000000, // nop
			0x24030001, // addiu $3, $0, 1
			0x00000000,
			0x03e00008, // jr    $ra
			0x24020002, // addiu $2, $0, 2
		)

		stepMemory(iss, memory, 1, 0)
		Expect(iss.RegFile().GP[31]).To(Equal(resetPC + 8))

		runUntil(resetPC + 8)

		Expect(iss.RegFile().GP[2]).To(Equal(uint32(2)))
		Expect(iss.RegFile().GP[3]).To(BeZero())
	})

	It("should store and load through the data port", func() {
		loadWords(memory, resetPC,
			0x3c058000, // lui   $5, 0x8000
			0x2406fffe, // addiu $6, $0, -2
			0xaca60010, // sw    $6, 16($5)
			0x80a70010, // lb    $7, 16($5)
			0x90a80011, // lbu   $8, 17($5)
			0x84a90012, // lh    $9, 18($5)
			0x8ca40010, // lw    $4, 16($5)
		)

		runUntil(resetPC + 36)

		regs := iss.RegFile()
		Expect(memory.Read32(0x80000010)).To(Equal(uint32(0xfffffffe)))
		Expect(regs.GP[7]).To(Equal(uint32(0xfffffffe)))
		Expect(regs.GP[8]).To(Equal(uint32(0xff)))
		Expect(regs.GP[9]).To(Equal(uint32(0xffffffff)))
		Expect(regs.GP[4]).To(Equal(uint32(0xfffffffe)))
		Expect(iss.Stats().Hazards).To(Equal(uint64(4)))
	})

	It("should raise Overflow on signed overflow and keep rd", func() {
		loadWords(memory, resetPC,
			0x3c027fff, // lui $2, 0x7fff
			0x00421820, // add $3, $2, $2
		)

		stepMemory(iss, memory, 1, 0)
		stepMemory(iss, memory, 1, 0)

		Expect(iss.CP0().Cause.ExcCode()).To(Equal(emu.Overflow))
		Expect(iss.RegFile().GP[3]).To(BeZero())
		Expect(iss.RegFile().PC).To(Equal(bootVector))
	})

	It("should raise ReservedInstruction for unknown encodings", func() {
		loadWords(memory, resetPC, 0xfc000000)

		stepMemory(iss, memory, 1, 0)

		Expect(iss.CP0().Cause.ExcCode()).To(Equal(emu.ReservedInstruction))
		Expect(emu.CauseToSignal(iss.CP0().Cause.ExcCode())).To(Equal(4))
	})

	It("should raise Syscall and Breakpoint", func() {
		loadWords(memory, resetPC, 0x0000000c)
		stepMemory(iss, memory, 1, 0)
		Expect(iss.CP0().Cause.ExcCode()).To(Equal(emu.Syscall))
		Expect(iss.CP0().EPC).To(Equal(resetPC + 4))

		iss.Reset()
		loadWords(memory, resetPC, 0x0000000d)
		stepMemory(iss, memory, 1, 0)
		Expect(iss.CP0().Cause.ExcCode()).To(Equal(emu.Breakpoint))
	})

	It("should raise AddressErrorLoad on a misaligned word", func() {
		loadWords(memory, resetPC,
			0x24050001, // addiu $5, $0, 1
			0x8ca60000, // lw    $6, 0($5)
		)

		stepMemory(iss, memory, 1, 0)
		stepMemory(iss, memory, 1, 0)

		Expect(iss.CP0().Cause.ExcCode()).To(Equal(emu.AddressErrorLoad))
		Expect(iss.CP0().BadVAddr).To(Equal(uint32(1)))
		Expect(iss.DataRequest().Valid).To(BeFalse())
	})

	It("should raise AddressErrorStore for user access to kernel space", func() {
		loadWords(memory, 0x00400000, 0xaca60000) // sw $6, 0($5)
		iss.DebugSetRegister(emu.DebugRegStatus, 0x10)
		iss.DebugSetRegister(emu.DebugRegPC, 0x00400000)
		iss.DebugSetRegister(5, 0x80000000)

		stepMemory(iss, memory, 1, 0)

		Expect(iss.CP0().Cause.ExcCode()).To(Equal(emu.AddressErrorStore))
		Expect(iss.CP0().BadVAddr).To(Equal(uint32(0x80000000)))
	})

	It("should move CP0 registers in kernel mode", func() {
		loadWords(memory, resetPC,
			0x40086000, // mfc0 $8, $12
			0x24090042, // addiu $9, $0, 0x42
			0x40897002, // mtc0 $9, $14, 2 (unmodeled select)
			0x40897000, // mtc0 $9, $14
		)

		runUntil(resetPC + 16)

		Expect(iss.RegFile().GP[8]).To(Equal(uint32(0x00400004)))
		Expect(iss.CP0().EPC).To(Equal(uint32(0x42)))
	})

	It("should raise CoprocessorUnusable for CP0 access from user mode", func() {
		loadWords(memory, 0x00400000, 0x40086000)
		iss.DebugSetRegister(emu.DebugRegStatus, 0x10)
		iss.DebugSetRegister(emu.DebugRegPC, 0x00400000)

		stepMemory(iss, memory, 1, 0)

		Expect(iss.CP0().Cause.ExcCode()).To(Equal(emu.CoprocessorUnusable))
		Expect(iss.Mode()).To(Equal(emu.ModeKernel))
	})

	It("should return from error level with ERET and no delay slot", func() {
		iss.CP0().ErrorEPC = resetPC + 0x100
		loadWords(memory, resetPC,
			0x42000018, // eret
			0x24020001, // addiu $2, $0, 1
		)
		loadWords(memory, resetPC+0x100, 0x24030001) // addiu $3, $0, 1

		stepMemory(iss, memory, 1, 0)
		Expect(iss.RegFile().PC).To(Equal(resetPC + 0x100))
		Expect(iss.CP0().Status.ERL()).To(BeFalse())

		stepMemory(iss, memory, 1, 0)
		Expect(iss.RegFile().GP[2]).To(BeZero())
		Expect(iss.RegFile().GP[3]).To(Equal(uint32(1)))
	})

	It("should return from exception level to EPC", func() {
		iss.DebugSetRegister(emu.DebugRegStatus, 0x2)
		iss.CP0().EPC = 0x80000400
		loadWords(memory, resetPC, 0x42000018)

		stepMemory(iss, memory, 1, 0)

		Expect(iss.RegFile().PC).To(Equal(uint32(0x80000400)))
		Expect(iss.CP0().Status.EXL()).To(BeFalse())
	})

	It("should sleep on WAIT", func() {
		loadWords(memory, resetPC, 0x42000020)

		stepMemory(iss, memory, 1, 0)

		Expect(iss.Sleeping()).To(BeTrue())
	})

	It("should compute multiply and divide results", func() {
		loadWords(memory, resetPC,
			0x2402fffd, // addiu $2, $0, -3
			0x24030007, // addiu $3, $0, 7
			0x00430018, // mult  $2, $3
			0x00002012, // mflo  $4
			0x00002810, // mfhi  $5
			0x0062001a, // div   $3, $2
			0x00003012, // mflo  $6
			0x00003810, // mfhi  $7
			0x70434002, // mul   $8, $2, $3
		)

		runUntil(resetPC + 36)

		regs := iss.RegFile()
		Expect(regs.GP[4]).To(Equal(uint32(0xffffffeb)))
		Expect(regs.GP[5]).To(Equal(uint32(0xffffffff)))
		Expect(regs.GP[6]).To(Equal(uint32(0xfffffffe)))
		Expect(regs.GP[7]).To(Equal(uint32(1)))
		Expect(regs.GP[8]).To(Equal(uint32(0xffffffeb)))
	})

	It("should read UserLocal with RDHWR", func() {
		iss.CP0().TLSBase = 0x10008000
		loadWords(memory, resetPC, 0x7c03e83b) // rdhwr $3, $29

		stepMemory(iss, memory, 1, 0)

		Expect(iss.RegFile().GP[3]).To(Equal(uint32(0x10008000)))
	})

	It("should freeze for the modeled latency", func() {
		iss = emu.NewISS(0, emu.WithExecutor(
			emu.NewBasicExecutor(emu.WithLatencyModel(fixedLatency{insts.OpMUL: 3}))))
		loadWords(memory, resetPC, 0x70434002) // mul $8, $2, $3

		stepMemory(iss, memory, 1, 0)
		Expect(stepMemory(iss, memory, 10, 0)).To(Equal(uint32(3)))
		Expect(iss.Stats().Instructions).To(Equal(uint64(1)))
	})
})

var _ = Describe("ALU", func() {
	var (
		regs *emu.RegFile
		alu  *emu.ALU
	)

	BeforeEach(func() {
		regs = &emu.RegFile{}
		alu = emu.NewALU(regs)
	})

	It("should detect overflow on ADD", func() {
		regs.GP[1] = 0x7fffffff
		regs.GP[2] = 1
		Expect(alu.ADD(3, 1, 2)).To(BeFalse())
		Expect(regs.GP[3]).To(BeZero())
	})

	It("should detect overflow on SUB", func() {
		regs.GP[1] = 0x80000000
		regs.GP[2] = 1
		Expect(alu.SUB(3, 1, 2)).To(BeFalse())

		regs.GP[1] = 5
		Expect(alu.SUB(3, 1, 2)).To(BeTrue())
		Expect(regs.GP[3]).To(Equal(uint32(4)))
	})

	It("should compare SLTIU against the sign-extended immediate", func() {
		regs.GP[1] = 0x10
		alu.SLTIU(2, 1, -1)
		Expect(regs.GP[2]).To(Equal(uint32(1)))
	})

	It("should leave HI and LO alone on division by zero", func() {
		regs.HI, regs.LO = 7, 9
		regs.GP[1] = 10
		alu.DIV(1, 0)
		Expect(regs.HI).To(Equal(uint32(7)))
		Expect(regs.LO).To(Equal(uint32(9)))
	})

	It("should produce a full 64-bit unsigned product", func() {
		regs.GP[1] = 0xffffffff
		regs.GP[2] = 2
		alu.MULTU(1, 2)
		Expect(regs.ReadAcc()).To(Equal(uint64(0x1fffffffe)))
	})

	It("should shift by register amounts", func() {
		regs.GP[1] = 1
		regs.GP[2] = 33
		alu.SLLV(3, 1, 2)
		Expect(regs.GP[3]).To(Equal(uint32(2)))
	})

	It("should never write register 0", func() {
		regs.GP[1] = 5
		alu.ADDU(0, 1, 1)
		Expect(regs.ReadReg(0)).To(BeZero())
	})
})
