// Package pep holds the fixed facts of the Pep/9 instruction set.
//
// The instruction specifier byte is decoded through a Table into an
// Instruction, a closed variant over unary, non-unary and trap instructions
// that carries the addressing mode when the instruction has an operand.
// The default table matches the published Pep/9 encoding; an assembler or
// loader may supply its own.
//
// Status bit masks and the machine vector offsets below the burn address
// are shared by the instruction level and microcode level simulators.
package pep
