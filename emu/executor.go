package emu

// ExecContext is the view of the processor handed to an Executor for one
// instruction. Regs and CP0 may be mutated; PC and NPC are copies, and the
// PC pair inside Regs must be left alone.
type ExecContext struct {
	Regs *RegFile
	CP0  *CP0
	Mode Mode

	// Word is the instruction word, already in host byte order.
	Word uint32
	PC   uint32
	NPC  uint32
}

// MemAccess describes a load or store issued by an instruction.
type MemAccess struct {
	Valid bool
	Type  DataType
	Addr  uint32
	Size  uint8 // 1, 2 or 4 bytes

	// Value is the store data, right-justified.
	Value uint32

	// Dest and Signed describe where a load result goes.
	Dest   uint8
	Signed bool
}

// ExecResult reports what the instruction did beyond register updates.
type ExecResult struct {
	// Faulted is set when the instruction raised Exception. A zero
	// ExecResult describes an instruction that retired normally.
	Faulted   bool
	Exception ExceptCause

	// Redirect overrides the sequential next-fetch target NPC+4.
	Redirect bool
	Target   uint32

	// NoDelaySlot discards the instruction at NPC and fetches Target
	// next (ERET).
	NoDelaySlot bool

	// Mem is the data access to issue.
	Mem MemAccess

	// Hazard owes one bubble cycle before the next instruction.
	Hazard bool

	// Delay holds the processor frozen for that many extra cycles.
	Delay uint32

	// Sleep stops fetching until an enabled interrupt arrives (WAIT).
	Sleep bool
}

// Executor executes one instruction. The engine invokes it at most once per
// Step.
type Executor interface {
	Execute(ctx *ExecContext) ExecResult
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx *ExecContext) ExecResult

// Execute calls f(ctx).
func (f ExecutorFunc) Execute(ctx *ExecContext) ExecResult {
	return f(ctx)
}

// Fault returns the result of an instruction that raised cause.
func Fault(cause ExceptCause) ExecResult {
	return ExecResult{Faulted: true, Exception: cause}
}
