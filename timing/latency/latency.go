// Package latency provides the instruction and memory timing model of the
// simulated platform.
//
// Instruction latencies beyond the single issue cycle become freeze cycles
// of the core; memory latencies drive the bus ports.
package latency

import (
	"github.com/sarchlab/mipsiss/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given instruction.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch {
	case t.IsLoadOp(inst):
		return t.config.LoadLatency
	case t.IsStoreOp(inst):
		return t.config.StoreLatency
	case t.IsBranchOp(inst):
		return t.config.BranchLatency
	}

	switch inst.Op {
	case insts.OpMULT, insts.OpMULTU, insts.OpMUL:
		return t.config.MultiplyLatency
	case insts.OpDIV, insts.OpDIVU:
		return t.config.DivideLatency
	case insts.OpSYSCALL, insts.OpBREAK:
		return t.config.SyscallLatency
	case insts.OpMFC0, insts.OpMTC0, insts.OpERET, insts.OpRDHWR:
		return t.config.CP0Latency
	case insts.OpUnknown:
		return 1
	default:
		return t.config.ALULatency
	}
}

// ExtraCycles returns the cycles an instruction holds the core beyond its
// issue cycle. Memory operations report 0; their access time is charged by
// the bus.
func (t *Table) ExtraCycles(inst *insts.Instruction) uint32 {
	if inst == nil || t.IsMemoryOp(inst) {
		return 0
	}
	lat := t.GetLatency(inst)
	if lat <= 1 {
		return 0
	}
	return uint32(lat - 1)
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.IsLoad() || inst.IsStore()
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	return inst != nil && inst.IsLoad()
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	return inst != nil && inst.IsStore()
}

// IsBranchOp returns true if the instruction is a branch or jump.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	return inst != nil && inst.IsBranch()
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
