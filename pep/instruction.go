package pep

import (
	"fmt"
)

// Kind is the category of a decoded instruction.
type Kind int

const (
	KIND_OTHER    = Kind(iota) // undefined specifier
	KIND_UNARY                 // no operand specifier
	KIND_NONUNARY              // two byte operand specifier
	KIND_TRAP                  // enters the operating system
)

// Instruction is a decoded instruction specifier.
type Instruction struct {
	Kind     Kind
	Mnemonic Mnemonic
	Mode     AddrMode // ADDR_NONE unless the instruction has an operand.
}

// HasOperand is true when the specifier is followed by an operand specifier.
func (in Instruction) HasOperand() bool {
	return in.Mode != ADDR_NONE
}

// Size in bytes of the instruction, including the specifier.
func (in Instruction) Size() uint16 {
	if in.HasOperand() {
		return 3
	}
	return 1
}

func (in Instruction) String() string {
	if in.Kind == KIND_OTHER {
		return "???"
	}
	if in.HasOperand() {
		return fmt.Sprintf("%v,%v", in.Mnemonic, in.Mode)
	}
	return in.Mnemonic.String()
}

// Table maps every instruction specifier byte to its decoded instruction.
type Table [256]Instruction

// Decode the instruction specifier.
func (tab *Table) Decode(spec uint8) Instruction {
	return tab[spec]
}

// Encode finds the specifier for a mnemonic and addressing mode.
func (tab *Table) Encode(mn Mnemonic, mode AddrMode) (spec uint8, ok bool) {
	for n, in := range tab {
		if in.Kind != KIND_OTHER && in.Mnemonic == mn && in.Mode == mode {
			return uint8(n), true
		}
	}
	return
}

// Pep9 is the published Pep/9 instruction encoding.
var Pep9 = makePep9()

func makeInstruction(mn Mnemonic, mode AddrMode) Instruction {
	in := Instruction{Mnemonic: mn, Mode: mode}
	switch {
	case mn.IsTrap():
		in.Kind = KIND_TRAP
	case mode == ADDR_NONE:
		in.Kind = KIND_UNARY
	default:
		in.Kind = KIND_NONUNARY
	}
	return in
}

func makePep9() (tab *Table) {
	tab = &Table{}

	// 0x00-0x11: unary, one specifier each.
	for mn := STOP; mn <= RORX; mn++ {
		tab[int(mn)] = makeInstruction(mn, ADDR_NONE)
	}

	// 0x12-0x25: branches and CALL, one bit addressing field (i, x).
	for mn := BR; mn <= CALL; mn++ {
		spec := 0x12 + 2*int(mn-BR)
		tab[spec] = makeInstruction(mn, ADDR_I)
		tab[spec+1] = makeInstruction(mn, ADDR_X)
	}

	// 0x26-0x27: unary traps.
	tab[0x26] = makeInstruction(NOP0, ADDR_NONE)
	tab[0x27] = makeInstruction(NOP1, ADDR_NONE)

	// 0x28-0xFF: three bit addressing field.
	for mn := NOP; mn <= STBX; mn++ {
		spec := 0x28 + 8*int(mn-NOP)
		for aaa, mode := range aaaModes {
			tab[spec+aaa] = makeInstruction(mn, mode)
		}
	}

	return
}
