package bus

import (
	"fmt"
	"io"
)

// SimHelper register offsets.
const (
	SimHelperStop     = 0x0 // write: stop with exit code 0
	SimHelperExitCode = 0x4 // write: stop with the written exit code
	SimHelperPutc     = 0x8 // write: emit the low byte on the TTY
	SimHelperCycles   = 0xc // read: low word of the cycle counter
)

// SimHelperSize is the size of the SimHelper register window.
const SimHelperSize = 0x10

// SimHelper lets bare-metal programs end the simulation, report an exit
// code and print characters.
type SimHelper struct {
	tty      io.Writer
	cycles   uint64
	exited   bool
	exitCode uint32
}

// NewSimHelper creates a SimHelper printing to tty. A nil tty discards
// output.
func NewSimHelper(tty io.Writer) *SimHelper {
	if tty == nil {
		tty = io.Discard
	}
	return &SimHelper{tty: tty}
}

// Exited reports whether the program asked to stop.
func (h *SimHelper) Exited() bool {
	return h.exited
}

// ExitCode returns the code written on exit.
func (h *SimHelper) ExitCode() uint32 {
	return h.exitCode
}

// Reset clears the exit state.
func (h *SimHelper) Reset() {
	h.exited = false
	h.exitCode = 0
	h.cycles = 0
}

// Tick advances the cycle counter.
func (h *SimHelper) Tick(cycles uint64) {
	h.cycles += cycles
}

func (h *SimHelper) Read(offset uint32) (uint32, error) {
	switch offset {
	case SimHelperCycles:
		return uint32(h.cycles), nil
	case SimHelperStop, SimHelperExitCode, SimHelperPutc:
		return 0, nil
	}
	return 0, fmt.Errorf("simhelper: read offset %#x: %w", offset, ErrNoDevice)
}

func (h *SimHelper) Write(offset uint32, be uint8, data uint32) error {
	switch offset {
	case SimHelperStop:
		h.exited = true
		h.exitCode = 0
	case SimHelperExitCode:
		h.exited = true
		h.exitCode = data
	case SimHelperPutc:
		// The character sits in whichever lane the store used.
		for i := uint32(0); i < 4; i++ {
			if be&(1<<i) != 0 {
				_, err := h.tty.Write([]byte{byte(data >> (8 * i))})
				return err
			}
		}
	case SimHelperCycles:
	default:
		return fmt.Errorf("simhelper: write offset %#x: %w", offset, ErrNoDevice)
	}
	return nil
}

// Timer register offsets.
const (
	TimerValue  = 0x0 // read: cycles since the last period boundary
	TimerPeriod = 0x4 // read/write: period in cycles, 0 stops the timer
	TimerMode   = 0x8 // read/write: TimerRun | TimerIRQEnable
	TimerAck    = 0xc // write: clear the pending interrupt
)

// Timer mode bits.
const (
	TimerRun       = 1 << 0
	TimerIRQEnable = 1 << 1
)

// TimerSize is the size of the Timer register window.
const TimerSize = 0x10

// Timer raises its interrupt line every period cycles until acknowledged.
type Timer struct {
	value   uint64
	period  uint32
	mode    uint32
	pending bool
}

// NewTimer creates a stopped timer.
func NewTimer() *Timer {
	return &Timer{}
}

// Start programs and starts the timer from the host side.
func (t *Timer) Start(period uint32) {
	t.period = period
	t.mode = TimerRun | TimerIRQEnable
	t.value = 0
}

// Reset stops the timer and clears the pending interrupt.
func (t *Timer) Reset() {
	*t = Timer{}
}

// IRQ reports the level of the interrupt line.
func (t *Timer) IRQ() bool {
	return t.pending && t.mode&TimerIRQEnable != 0
}

// Tick advances the timer.
func (t *Timer) Tick(cycles uint64) {
	if t.mode&TimerRun == 0 || t.period == 0 {
		return
	}
	t.value += cycles
	if t.value >= uint64(t.period) {
		t.value %= uint64(t.period)
		t.pending = true
	}
}

func (t *Timer) Read(offset uint32) (uint32, error) {
	switch offset {
	case TimerValue:
		return uint32(t.value), nil
	case TimerPeriod:
		return t.period, nil
	case TimerMode:
		return t.mode, nil
	case TimerAck:
		if t.pending {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("timer: read offset %#x: %w", offset, ErrNoDevice)
}

func (t *Timer) Write(offset uint32, be uint8, data uint32) error {
	data = merge(t.register(offset), be, data)
	switch offset {
	case TimerValue:
		t.value = uint64(data)
	case TimerPeriod:
		t.period = data
		t.value = 0
	case TimerMode:
		t.mode = data & (TimerRun | TimerIRQEnable)
	case TimerAck:
		t.pending = false
	default:
		return fmt.Errorf("timer: write offset %#x: %w", offset, ErrNoDevice)
	}
	return nil
}

func (t *Timer) register(offset uint32) uint32 {
	v, _ := t.Read(offset)
	return v
}

// merge applies the enabled byte lanes of data onto old.
func merge(old uint32, be uint8, data uint32) uint32 {
	for i := uint32(0); i < 4; i++ {
		if be&(1<<i) != 0 {
			mask := uint32(0xff) << (8 * i)
			old = old&^mask | data&mask
		}
	}
	return old
}
