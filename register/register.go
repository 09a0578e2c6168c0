// Package register implements the Pep/9 register bank and status bits.
//
// The bank is the 32 byte array of the Pep/9 CPU data section. The
// instruction level registers are word views into it; the final ten bytes
// hold read-only constants used by microcode.
package register

import (
	"fmt"
	"iter"

	"github.com/ezrec/pep9/pep"
)

// Byte offsets of the registers in the bank.
const (
	REG_A  = uint8(0)
	REG_X  = uint8(2)
	REG_SP = uint8(4)
	REG_PC = uint8(6)
	REG_IR = uint8(8) // Three bytes: IS then OS.
	REG_IS = uint8(8)
	REG_OS = uint8(9)
	REG_T1 = uint8(11)
	REG_T2 = uint8(12)
	REG_T3 = uint8(14)
	REG_T4 = uint8(16)
	REG_T5 = uint8(18)
	REG_T6 = uint8(20)
	REG_M1 = uint8(22)
	REG_M2 = uint8(24)
	REG_M3 = uint8(26)
	REG_M4 = uint8(28)
	REG_M5 = uint8(30)

	BANK_SIZE    = 32
	LAST_WRITE   = uint8(21) // Last writable byte.
	LAST_BYTE    = uint8(BANK_SIZE - 1)
	WORD_MAX_REG = uint8(BANK_SIZE - 2)
)

var constants = [BANK_SIZE - int(REG_M1)]uint8{0x00, 0x01, 0x02, 0x03, 0x04, 0x08, 0xF0, 0xF6, 0xFE, 0xFF}

// Named register, as a byte offset and width in bytes.
type Named struct {
	Reg   uint8
	Width int
}

var names = map[string]Named{
	"A":  {REG_A, 2},
	"X":  {REG_X, 2},
	"SP": {REG_SP, 2},
	"PC": {REG_PC, 2},
	"IR": {REG_IR, 3},
	"IS": {REG_IS, 1},
	"OS": {REG_OS, 2},
	"T1": {REG_T1, 1},
	"T2": {REG_T2, 2},
	"T3": {REG_T3, 2},
	"T4": {REG_T4, 2},
	"T5": {REG_T5, 2},
	"T6": {REG_T6, 2},
	"M1": {REG_M1, 2},
	"M2": {REG_M2, 2},
	"M3": {REG_M3, 2},
	"M4": {REG_M4, 2},
	"M5": {REG_M5, 2},
}

// Lookup a register by name.
func Lookup(name string) (named Named, ok bool) {
	named, ok = names[name]
	return
}

// Names iterates over the register names and their bank offsets.
func Names() iter.Seq2[string, Named] {
	return func(yield func(string, Named) bool) {
		for name, named := range names {
			if !yield(name, named) {
				return
			}
		}
	}
}

// Listener receives register change notifications.
type Listener interface {
	RegisterChanged(reg uint8, old, new uint8)
	StatusBitChanged(bit pep.StatusBit, value bool)
}

// Bank is the register bank plus status bits, with the values captured at
// the start of the current instruction.
type Bank struct {
	Listener Listener // Change notifications, may be nil.

	current     [BANK_SIZE]uint8
	start       [BANK_SIZE]uint8
	status      uint8
	startStatus uint8
}

// NewBank creates a cleared bank with the constant registers preset.
func NewBank() (bank *Bank) {
	bank = &Bank{}
	bank.Clear()
	return
}

// Clear zeroes all writable registers and the status bits.
func (bank *Bank) Clear() {
	clear(bank.current[:])
	copy(bank.current[REG_M1:], constants[:])
	bank.status = 0
	bank.SnapshotStart()
}

// SnapshotStart captures the current values as the start of an instruction.
func (bank *Bank) SnapshotStart() {
	bank.start = bank.current
	bank.startStatus = bank.status
}

// Byte returns a register byte, or 0 past the end of the bank.
func (bank *Bank) Byte(reg uint8) uint8 {
	if reg > LAST_BYTE {
		return 0
	}
	return bank.current[reg]
}

// Word returns the big-endian word starting at reg.
func (bank *Bank) Word(reg uint8) uint16 {
	if reg > WORD_MAX_REG {
		return 0
	}
	return uint16(bank.current[reg])<<8 | uint16(bank.current[reg+1])
}

// StartByte returns a register byte as of the start of the instruction.
func (bank *Bank) StartByte(reg uint8) uint8 {
	if reg > LAST_BYTE {
		return 0
	}
	return bank.start[reg]
}

// StartWord returns a register word as of the start of the instruction.
func (bank *Bank) StartWord(reg uint8) uint16 {
	if reg > WORD_MAX_REG {
		return 0
	}
	return uint16(bank.start[reg])<<8 | uint16(bank.start[reg+1])
}

// SetByte writes a register byte. The constant registers are read-only;
// writing one returns false.
func (bank *Bank) SetByte(reg uint8, value uint8) bool {
	if reg > LAST_WRITE {
		return false
	}

	old := bank.current[reg]
	bank.current[reg] = value
	if old != value && bank.Listener != nil {
		bank.Listener.RegisterChanged(reg, old, value)
	}

	return true
}

// SetWord writes a big-endian register word.
func (bank *Bank) SetWord(reg uint8, value uint16) bool {
	if reg >= LAST_WRITE {
		return false
	}

	bank.SetByte(reg, uint8(value>>8))
	bank.SetByte(reg+1, uint8(value))

	return true
}

// Status returns the NZVCS status byte.
func (bank *Bank) Status() uint8 {
	return bank.status
}

// StartStatus returns the status byte as of the start of the instruction.
func (bank *Bank) StartStatus() uint8 {
	return bank.startStatus
}

// StatusBit returns one status flag.
func (bank *Bank) StatusBit(bit pep.StatusBit) bool {
	return bank.status&bit.Mask() != 0
}

// StartStatusBit returns one status flag as of the start of the instruction.
func (bank *Bank) StartStatusBit(bit pep.StatusBit) bool {
	return bank.startStatus&bit.Mask() != 0
}

// SetStatusBit sets or clears one status flag.
func (bank *Bank) SetStatusBit(bit pep.StatusBit, value bool) {
	var bits uint8
	if value {
		bits = bit.Mask()
	}
	bank.SetStatusBits(bit.Mask(), bits)
}

// SetStatusBits replaces only the flags selected by mask.
func (bank *Bank) SetStatusBits(mask uint8, value uint8) {
	old := bank.status
	bank.status = (old &^ mask) | (value & mask)

	if bank.Listener == nil {
		return
	}
	for _, bit := range pep.StatusBits {
		if (old^bank.status)&bit.Mask() != 0 {
			bank.Listener.StatusBitChanged(bit, bank.status&bit.Mask() != 0)
		}
	}
}

// String renders the instruction level registers.
func (bank *Bank) String() string {
	return fmt.Sprintf("A=0x%04X X=0x%04X SP=0x%04X PC=0x%04X IR=0x%02X%04X %v",
		bank.Word(REG_A), bank.Word(REG_X), bank.Word(REG_SP), bank.Word(REG_PC),
		bank.Byte(REG_IS), bank.Word(REG_OS), pep.FormatStatus(bank.status))
}
