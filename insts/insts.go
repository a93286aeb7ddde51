// Package insts provides MIPS32 instruction definitions and decoding.
//
// This package decodes 32-bit MIPS32 machine words into structured
// instruction representations. It covers:
//   - SPECIAL (R-type) ALU, shift, multiply/divide and jump-register forms
//   - REGIMM branches (BLTZ, BGEZ and their linking variants)
//   - I-type ALU, branch and load/store forms, J/JAL
//   - the COP0 moves, ERET and WAIT used by bare-metal kernels
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x24420001) // ADDIU $2, $2, 1
//	fmt.Printf("Op: %v, Rt: %d, Rs: %d, Imm: %d\n", inst.Op, inst.Rt, inst.Rs, inst.SImm)
package insts
