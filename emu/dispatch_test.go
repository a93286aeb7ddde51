package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/mipsiss/emu"
)

var _ = Describe("Exception dispatch", func() {
	var (
		exec *scriptedExecutor
		iss  *emu.ISS
	)

	newISS := func(opts ...emu.ISSOption) {
		exec = &scriptedExecutor{}
		iss = emu.NewISS(0, append([]emu.ISSOption{emu.WithExecutor(exec)}, opts...)...)
		iss.DebugSetRegister(emu.DebugRegStatus, normalStatus)
	}

	BeforeEach(func() {
		newISS()
	})

	It("should vector from EBase once BEV is clear", func() {
		iss.Step(1, emu.InstructionResponse{Valid: true, Error: true}, emu.DataResponse{}, 0)
		Expect(iss.RegFile().PC).To(Equal(uint32(0x80000180)))
	})

	It("should ignore the CPU number bits of EBase", func() {
		exec = &scriptedExecutor{}
		iss = emu.NewISS(5, emu.WithExecutor(exec))
		iss.DebugSetRegister(emu.DebugRegStatus, normalStatus)

		iss.Step(1, emu.InstructionResponse{Valid: true, Error: true}, emu.DataResponse{}, 0)

		Expect(iss.RegFile().PC).To(Equal(uint32(0x80000180)))
	})

	Context("when already at exception level", func() {
		BeforeEach(func() {
			iss.DebugSetRegister(emu.DebugRegStatus, 0x2)
			iss.CP0().EPC = 0x1234
			iss.CP0().Cause = emu.Cause(0).WithIV(true)
			iss.CP0().IntCtl = emu.IntCtl(0).WithVS(1)
		})

		It("should use the general vector and leave EPC alone", func() {
			iss.Step(1, emu.InstructionResponse{Valid: true, Error: true}, emu.DataResponse{}, 0)

			Expect(iss.RegFile().PC).To(Equal(uint32(0x80000180)))
			Expect(iss.CP0().EPC).To(Equal(uint32(0x1234)))
			Expect(iss.CP0().Cause.ExcCode()).To(Equal(emu.InstructionBusError))
			Expect(iss.CP0().Status.EXL()).To(BeTrue())
		})

		It("should not accept interrupts", func() {
			iss.DebugSetRegister(emu.DebugRegStatus, 0x0000ff03)

			iss.Step(1, emu.InstructionResponse{Valid: true}, emu.DataResponse{}, 0x3f)

			Expect(iss.RegFile().PC).To(Equal(resetPC + 4))
			Expect(iss.CP0().EPC).To(Equal(uint32(0x1234)))
		})
	})

	Context("with Cause.IV set", func() {
		BeforeEach(func() {
			iss.CP0().Cause = emu.Cause(0).WithIV(true)
		})

		It("should use the special interrupt vector", func() {
			iss.Step(1, emu.InstructionResponse{Valid: true}, emu.DataResponse{}, 0x1)
			Expect(iss.RegFile().PC).To(Equal(uint32(0x80000200)))
		})

		It("should keep synchronous faults on the general vector", func() {
			exec.results = []emu.ExecResult{emu.Fault(emu.Overflow)}

			iss.Step(1, emu.InstructionResponse{Valid: true}, emu.DataResponse{}, 0x1)

			Expect(iss.CP0().Cause.ExcCode()).To(Equal(emu.Overflow))
			Expect(iss.RegFile().PC).To(Equal(uint32(0x80000180)))
		})

		It("should fall back to vector 0 without an external controller", func() {
			iss.CP0().IntCtl = emu.IntCtl(0).WithVS(1)

			iss.Step(1, emu.InstructionResponse{Valid: true}, emu.DataResponse{}, 0x3)

			Expect(iss.RegFile().PC).To(Equal(uint32(0x80000200)))
		})

		It("should space vectors named by an external controller", func() {
			newISS(emu.WithVectoredInterrupts(true))
			iss.CP0().Cause = emu.Cause(0).WithIV(true)
			iss.CP0().IntCtl = emu.IntCtl(0).WithVS(1)

			iss.Step(1, emu.InstructionResponse{Valid: true}, emu.DataResponse{}, 0x3)

			Expect(iss.CP0().Config3.VEIC()).To(BeTrue())
			Expect(iss.RegFile().PC).To(Equal(uint32(0x80000260)))
		})

		It("should not space vectors while BEV is set", func() {
			newISS(emu.WithVectoredInterrupts(true))
			iss.DebugSetRegister(emu.DebugRegStatus, normalStatus|0x00400000)
			iss.CP0().Cause = emu.Cause(0).WithIV(true)
			iss.CP0().IntCtl = emu.IntCtl(0).WithVS(1)

			iss.Step(1, emu.InstructionResponse{Valid: true}, emu.DataResponse{}, 0x3)

			Expect(iss.RegFile().PC).To(Equal(uint32(0xbfc00400)))
		})
	})

	It("should clear the coprocessor field and record the irq lines", func() {
		iss.CP0().Cause = emu.Cause(0).WithCE(3)

		iss.Step(1, emu.InstructionResponse{Valid: true}, emu.DataResponse{}, 0x5)

		Expect(iss.CP0().Cause.CE()).To(BeZero())
		Expect(iss.CP0().Cause.IP()).To(Equal(uint32(0x14)))
	})

	It("should enter kernel mode from user mode", func() {
		iss.DebugSetRegister(emu.DebugRegStatus, 0x10)
		Expect(iss.Mode()).To(Equal(emu.ModeUser))
		exec.results = []emu.ExecResult{emu.Fault(emu.ReservedInstruction)}

		iss.Step(1, emu.InstructionResponse{Valid: true}, emu.DataResponse{}, 0)

		Expect(iss.Mode()).To(Equal(emu.ModeKernel))
		Expect(iss.InstructionRequest().Mode).To(Equal(emu.ModeKernel))
		Expect(iss.Stats().ByCause[emu.ReservedInstruction]).To(Equal(uint64(1)))
	})
})
