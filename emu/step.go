package emu

import "math/bits"

// stepState is the transient state of one Step call.
type stepState struct {
	ncycle   uint32
	consumed uint32
	irq      uint32

	word    uint32
	fetchOK bool
	ibe     bool
	dataOK  bool

	exception ExceptCause
	nextPC    uint32
	woke      bool
}

// Step advances the core by at most ncycle cycles using one instruction
// response, one data response and the current external interrupt lines.
// It returns the number of cycles consumed, which the caller uses to
// advance its own time base. Step never fails: every fault is handled by
// vectoring to an exception handler.
func (s *ISS) Step(
	ncycle uint32,
	irsp InstructionResponse,
	drsp DataResponse,
	irqBits uint32,
) uint32 {
	if ncycle == 0 {
		return 0
	}

	st := stepState{ncycle: ncycle, irq: irqBits, exception: NoException}
	s.latchResponses(&st, irsp, drsp)

	if s.checkSleep(&st) || s.checkReady(&st) {
		return s.account(&st)
	}

	s.consumeHazard(&st)
	st.nextPC = s.regs.NPC + 4

	if !s.checkFaults(&st) {
		if s.hazard {
			// Bubble: the instruction runs on the next call.
			s.hazard = false
			s.stats.Hazards++
			s.houseKeep()
			return s.account(&st)
		}
		s.execute(&st)
		s.checkInterrupt(&st)
	}

	if !s.dispatch(&st) && st.woke {
		// A suppressed wake-up ran nothing; the instruction at PC
		// executes on the next call.
		s.houseKeep()
		return s.account(&st)
	}
	s.updatePC(&st)
	s.houseKeep()

	return s.account(&st)
}

func (s *ISS) latchResponses(st *stepState, irsp InstructionResponse, drsp DataResponse) {
	st.fetchOK = irsp.Valid
	st.ibe = irsp.Error
	st.word = irsp.Word
	if !s.littleEndian {
		st.word = bits.ReverseBytes32(st.word)
	}

	st.dataOK = true
	if !s.dreq.Valid {
		return
	}
	if !drsp.Valid {
		st.dataOK = false
		return
	}

	if drsp.Error {
		s.dbe = true
		if s.debug {
			s.logger.Debug("data bus error",
				"addr", s.dataAddr, "type", s.dreq.Type.String())
		}
	} else if s.dreq.Type == DataRead {
		s.completeLoad(drsp.RData)
	}
	s.dreq = DataRequest{}
}

func (s *ISS) checkSleep(st *stepState) bool {
	if !s.sleeping {
		return false
	}

	if s.interruptPending(st.irq) {
		s.sleeping = false
		s.woken = true
		if s.debug {
			s.logger.Debug("irq while sleeping", "irq", st.irq)
		}
		return false
	}

	st.consumed = st.ncycle
	s.stats.SleepCycles += uint64(st.ncycle)
	return true
}

func (s *ISS) checkReady(st *stepState) bool {
	if st.fetchOK && st.dataOK && s.insDelay == 0 {
		return false
	}

	t := st.ncycle
	if s.insDelay > 0 {
		t = min(t, s.insDelay)
		s.insDelay -= t
	}
	s.hazard = false

	st.consumed = t
	s.stats.FrozenCycles += uint64(t)
	if s.debug {
		s.logger.Debug("frozen",
			"fetch", st.fetchOK, "data", st.dataOK, "delay", s.insDelay)
	}
	return true
}

func (s *ISS) consumeHazard(st *stepState) {
	if s.hazard && st.ncycle > 1 {
		st.consumed = 2
		s.hazard = false
		s.stats.Hazards++
		return
	}
	st.consumed = 1
}

// checkFaults raises the bus errors and a latched wake-up interrupt, which
// all bypass the executor. Latched data bus errors belong to an older
// instruction and outrank a fetch bus error of the current one.
func (s *ISS) checkFaults(st *stepState) bool {
	switch {
	case s.dbe:
		st.exception = DataBusError
		s.cp0.BadVAddr = s.dataAddr
		s.dbe = false
	case st.ibe:
		st.exception = InstructionBusError
	case s.woken:
		st.exception = Interrupt
		st.woke = true
	default:
		return false
	}
	s.woken = false
	return true
}

func (s *ISS) execute(st *stepState) {
	ctx := ExecContext{
		Regs: &s.regs,
		CP0:  &s.cp0,
		Mode: s.mode,
		Word: st.word,
		PC:   s.regs.PC,
		NPC:  s.regs.NPC,
	}

	res := s.executor.Execute(&ctx)
	s.stats.Instructions++
	s.updateMode()

	if res.Redirect {
		st.nextPC = res.Target
	}
	if res.Faulted {
		st.exception = res.Exception
		return
	}

	if res.NoDelaySlot {
		s.skipNext = true
	}
	if res.Mem.Valid {
		s.issue(res.Mem)
	}
	if res.Hazard {
		s.hazard = true
	}
	s.insDelay = res.Delay
	if res.Sleep {
		s.sleeping = true
	}
}

// checkInterrupt raises Interrupt when nothing else is pending. It is
// not taken right after an instruction that discarded its delay slot, so
// the interrupt lands on the new target instead.
func (s *ISS) checkInterrupt(st *stepState) {
	if st.exception != NoException || s.skipNext {
		return
	}
	if !s.interruptPending(st.irq) {
		if st.irq != 0 && s.debug {
			s.logger.Debug("ignoring irqs", "irq", st.irq,
				"status", uint32(s.cp0.Status), "cause", uint32(s.cp0.Cause))
		}
		return
	}

	st.exception = Interrupt
	if s.debug {
		s.logger.Debug("taking irqs", "irq", st.irq)
	}
}

// interruptPending reports an enabled and unmasked interrupt, hardware
// lines or software bits.
func (s *ISS) interruptPending(irq uint32) bool {
	status := s.cp0.Status
	if !status.IE() || status.EXL() || status.ERL() {
		return false
	}
	pending := (irq<<2 | s.cp0.Cause.IP()&3) & status.IM()
	return pending != 0
}

func (s *ISS) updatePC(st *stepState) {
	if s.skipNext {
		s.regs.PC = st.nextPC
		s.regs.NPC = st.nextPC + 4
		s.skipNext = false
		return
	}
	s.regs.PC = s.regs.NPC
	s.regs.NPC = st.nextPC
}

func (s *ISS) houseKeep() {
	s.regs.GP[0] = 0
}

func (s *ISS) account(st *stepState) uint32 {
	s.stats.Cycles += uint64(st.consumed)
	return st.consumed
}
