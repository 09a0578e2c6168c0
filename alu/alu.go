// Package alu is the combinational function unit of the Pep/9 data section.
//
// Compute is pure. It takes two byte operands and an optional carry in, and
// produces a result byte with the N, Z, V and C flags it defines.
package alu

import (
	"github.com/ezrec/pep9/pep"
)

// Function is an ALU function code, as driven by the ALU control signal.
type Function int

const (
	ALU_A         = Function(0)  // A
	ALU_ADD       = Function(1)  // A plus B
	ALU_SUB       = Function(2)  // A plus ~B plus 1
	ALU_ADDC      = Function(3)  // A plus B plus Cin
	ALU_SUBC      = Function(4)  // A plus ~B plus Cin
	ALU_AND       = Function(5)  // A and B
	ALU_NAND      = Function(6)  // ~(A and B)
	ALU_OR        = Function(7)  // A or B
	ALU_NOR       = Function(8)  // ~(A or B)
	ALU_XOR       = Function(9)  // A xor B
	ALU_NOT       = Function(10) // ~A
	ALU_ASL       = Function(11) // ASL A
	ALU_ROL       = Function(12) // ROL A
	ALU_ASR       = Function(13) // ASR A
	ALU_ROR       = Function(14) // ROR A
	ALU_NZVC      = Function(15) // NZVC from A
	FUNCTION_LAST = ALU_NZVC
)

var functionNames = [...]string{
	"A", "A+B", "A+~B+1", "A+B+Cin", "A+~B+Cin",
	"A&B", "~(A&B)", "A|B", "~(A|B)", "A^B", "~A",
	"ASL A", "ROL A", "ASR A", "ROR A", "NZVC<-A",
}

func (fn Function) String() string {
	if !fn.Valid() {
		return "?"
	}
	return functionNames[fn]
}

// Valid is true for the sixteen defined function codes.
func (fn Function) Valid() bool {
	return fn >= ALU_A && fn <= FUNCTION_LAST
}

// IsUnary is true when the function ignores the B operand.
func (fn Function) IsUnary() bool {
	return fn == ALU_A || fn >= ALU_NOT
}

// NeedsCarry is true when the function consumes the carry in.
func (fn Function) NeedsCarry() bool {
	switch fn {
	case ALU_ADDC, ALU_SUBC, ALU_ROL, ALU_ROR:
		return true
	}
	return false
}

// Defined returns the mask of the flags the function computes.
func (fn Function) Defined() uint8 {
	switch fn {
	case ALU_ADD, ALU_SUB, ALU_ADDC, ALU_SUBC, ALU_ASL, ALU_ROL, ALU_NZVC:
		return pep.NZVC_MASK
	case ALU_ASR, ALU_ROR:
		return pep.N_MASK | pep.Z_MASK | pep.C_MASK
	}
	if fn.Valid() {
		return pep.N_MASK | pep.Z_MASK
	}
	return 0
}

// Inputs to the ALU. HasB and HasCarry report whether the corresponding
// bus carries a value this cycle.
type Inputs struct {
	A        uint8
	B        uint8
	HasB     bool
	Carry    bool
	HasCarry bool
}

// Output of the ALU. Flags holds the NZVC bits; bits outside Defined are 0.
type Output struct {
	Value   uint8
	Flags   uint8
	Defined uint8
}

// Flag reports one computed flag.
func (out Output) Flag(bit pep.StatusBit) bool {
	return out.Flags&bit.Mask() != 0
}

func b2u(cond bool) uint8 {
	if cond {
		return 1
	}
	return 0
}

// add is the 8 bit adder shared by the arithmetic functions.
func add(a, b uint8, carry bool) (res uint8, flags uint8) {
	sum := uint16(a) + uint16(b) + uint16(b2u(carry))
	res = uint8(sum)
	flags |= b2u(sum > 0xff) * pep.C_MASK
	flags |= ((^(a ^ b) & (a ^ res)) >> 7) * pep.V_MASK
	return
}

// Compute evaluates a function. It returns false if the function code is
// undefined, or the function lacks the B operand or carry in it needs.
func Compute(fn Function, in Inputs) (out Output, ok bool) {
	if !fn.Valid() {
		return
	}
	if !fn.IsUnary() && !in.HasB {
		return
	}
	if fn.NeedsCarry() && !in.HasCarry {
		return
	}

	a, b := in.A, in.B
	var res, flags uint8

	switch fn {
	case ALU_A:
		res = a
	case ALU_ADD:
		res, flags = add(a, b, false)
	case ALU_SUB:
		res, flags = add(a, ^b, true)
	case ALU_ADDC:
		res, flags = add(a, b, in.Carry)
	case ALU_SUBC:
		res, flags = add(a, ^b, in.Carry)
	case ALU_AND:
		res = a & b
	case ALU_NAND:
		res = ^(a & b)
	case ALU_OR:
		res = a | b
	case ALU_NOR:
		res = ^(a | b)
	case ALU_XOR:
		res = a ^ b
	case ALU_NOT:
		res = ^a
	case ALU_ASL, ALU_ROL:
		res = a << 1
		if fn == ALU_ROL {
			res |= b2u(in.Carry)
		}
		flags |= (a >> 7) * pep.C_MASK
		flags |= (((a << 1) ^ a) >> 7) * pep.V_MASK
	case ALU_ASR, ALU_ROR:
		top := a & 0x80
		if fn == ALU_ROR {
			top = b2u(in.Carry) << 7
		}
		res = a>>1 | top
		flags |= (a & 1) * pep.C_MASK
	case ALU_NZVC:
		out = Output{Value: 0, Flags: a & pep.NZVC_MASK, Defined: fn.Defined()}
		ok = true
		return
	}

	flags |= (res >> 7) * pep.N_MASK
	flags |= b2u(res == 0) * pep.Z_MASK

	out = Output{Value: res, Flags: flags, Defined: fn.Defined()}
	ok = true
	return
}
