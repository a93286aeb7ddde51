package emu

const (
	bootExceptionBase   uint32 = 0xbfc00200
	generalVectorOffset uint32 = 0x180
	irqVectorOffset     uint32 = 0x200
)

// exceptionBase returns the base address the vector offsets apply to.
func (s *ISS) exceptionBase() uint32 {
	if s.cp0.Status.BEV() {
		return bootExceptionBase
	}
	return s.cp0.EBase & 0xfffff000
}

// exceptionOffset returns the vector offset for a cause taken outside
// exception level. Interrupts use the special vector when Cause.IV is set,
// spaced by IntCtl.VS when an external controller names the vector.
// Without VEIC the vector number is 0.
func (s *ISS) exceptionOffset(cause ExceptCause, irq uint32) uint32 {
	if cause != Interrupt || !s.cp0.Cause.IV() {
		return generalVectorOffset
	}

	vs := s.cp0.IntCtl.VS()
	if s.cp0.Status.BEV() || vs == 0 {
		return irqVectorOffset
	}

	var vn uint32
	if s.cp0.Config3.VEIC() {
		vn = irq & 0x3f
	}
	return irqVectorOffset + vn*(vs<<5)
}

// dispatch enters the exception handler for the pending cause: it saves
// EPC, updates Cause and Status and redirects fetch to the vector with
// the delay slot discarded. It reports whether a handler was entered.
func (s *ISS) dispatch(st *stepState) bool {
	cause := st.exception
	if cause == NoException {
		return false
	}
	if s.bypass != nil && s.bypass(cause) {
		return false
	}

	vector := s.exceptionBase()
	branchTaken := st.nextPC != s.regs.NPC+4

	if s.cp0.Status.EXL() {
		vector += generalVectorOffset
	} else {
		s.saveEPC(st, cause, branchTaken)
		vector += s.exceptionOffset(cause, st.irq)
	}

	c := s.cp0.Cause.WithCE(0).WithExcCode(cause)
	c = c.WithIP(st.irq<<2 | c.IP()&3)
	s.cp0.Cause = c
	s.cp0.Status = s.cp0.Status.WithEXL(true)
	s.updateMode()

	s.stats.Exceptions++
	s.stats.ByCause[cause&0x1f]++
	if cause == Interrupt {
		s.stats.Interrupts++
	}

	if s.debug {
		s.logger.Debug("exception",
			"cause", cause.String(),
			"pc", s.regs.PC,
			"epc", s.cp0.EPC,
			"bar", s.cp0.BadVAddr,
			"bd", s.cp0.Cause.BD(),
			"vector", vector)
	}

	st.nextPC = vector
	s.skipNext = true
	return true
}

func (s *ISS) saveEPC(st *stepState, cause ExceptCause, branchTaken bool) {
	if cause == Interrupt && (st.woke || s.sleeping) {
		// Sleeping never owns a delay slot.
		s.cp0.Cause = s.cp0.Cause.WithBD(false)
		s.cp0.EPC = s.regs.PC
		s.sleeping = false
		return
	}

	s.cp0.Cause = s.cp0.Cause.WithBD(branchTaken)
	switch {
	case cause == DataBusError:
		// The read that failed belongs to the previous instruction.
		s.cp0.EPC = s.regs.PC - 4
	case branchTaken:
		s.cp0.EPC = s.regs.PC
	default:
		s.cp0.EPC = s.regs.NPC
	}
}
