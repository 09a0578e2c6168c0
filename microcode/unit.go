package microcode

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ezrec/pep9/pep"
	"github.com/ezrec/pep9/register"
)

// UnitKind is the kind of state a unit test assignment touches.
type UnitKind int

//go:generate go tool stringer -type=UnitKind
const (
	UNIT_REGISTER        = UnitKind(iota) // Register bank, Index is the byte offset.
	UNIT_STATUS                           // Status bit, Index is a pep.StatusBit.
	UNIT_MEMORY                           // Main memory, Index is the address.
	UNIT_MEMORY_REGISTER                  // Memory interface, Index is a MemoryRegister.
)

// Unit is one UnitPre or UnitPost assignment.
type Unit struct {
	Target string   // Target as written.
	Kind   UnitKind // Kind of target.
	Index  int      // Location of the target.
	Width  int      // Width in bytes.
	Value  int      // Value to set, or to expect.
}

var reMemoryTarget = regexp.MustCompile(`(?i)^mem\[(.+)\]$`)

// parseUnit parses a single 'target=value' assignment. The words have
// already had their equates expanded.
func parseUnit(target string, word string) (unit Unit, err error) {
	value64, err := strconv.ParseInt(word, 0, 32)
	if err != nil || value64 < 0 {
		err = ErrParseNumber(word)
		return
	}

	unit = Unit{
		Target: target,
		Value:  int(value64),
		Width:  1,
	}

	name := strings.ToUpper(target)

	if match := reMemoryTarget.FindStringSubmatch(target); match != nil {
		var address int64
		address, err = strconv.ParseInt(strings.TrimSpace(match[1]), 0, 32)
		if err != nil || address < 0 || address > 0xffff {
			err = ErrParseNumber(match[1])
			return
		}
		unit.Kind = UNIT_MEMORY
		unit.Index = int(address)
		// A value wider than a byte, or written with more than two
		// hex digits, sets a word.
		lower := strings.ToLower(word)
		if unit.Value > 0xff || (strings.HasPrefix(lower, "0x") && len(lower) > 4) {
			unit.Width = 2
		}
	} else if named, ok := register.Lookup(name); ok {
		if int(named.Reg)+named.Width-1 > int(register.LAST_WRITE) {
			err = ErrUnitTarget(target)
			return
		}
		unit.Kind = UNIT_REGISTER
		unit.Index = int(named.Reg)
		unit.Width = named.Width
	} else if bit, ok := pep.ParseStatusBit(name); ok {
		unit.Kind = UNIT_STATUS
		unit.Index = int(bit)
	} else if reg, ok := ParseMemoryRegister(name); ok {
		unit.Kind = UNIT_MEMORY_REGISTER
		unit.Index = int(reg)
	} else {
		err = ErrUnitTarget(target)
		return
	}

	limit := 1 << (8 * unit.Width)
	if unit.Kind == UNIT_STATUS {
		limit = 2
	}
	if unit.Value >= limit {
		err = ErrUnitValue
		return
	}

	return
}

// Apply sets the target in the data section.
func (unit Unit) Apply(ds *DataSection) {
	switch unit.Kind {
	case UNIT_REGISTER:
		for n := range unit.Width {
			shift := 8 * (unit.Width - 1 - n)
			ds.Bank.SetByte(uint8(unit.Index+n), uint8(unit.Value>>shift))
		}
	case UNIT_STATUS:
		ds.Bank.SetStatusBit(pep.StatusBit(unit.Index), unit.Value != 0)
	case UNIT_MEMORY:
		code := []uint8{uint8(unit.Value)}
		if unit.Width == 2 {
			code = []uint8{uint8(unit.Value >> 8), uint8(unit.Value)}
		}
		ds.Memory.LoadObjectCode(uint16(unit.Index), code)
	case UNIT_MEMORY_REGISTER:
		ds.SetMemoryRegister(MemoryRegister(unit.Index), uint8(unit.Value))
	}
}

// Read returns the current value of the target in the data section.
func (unit Unit) Read(ds *DataSection) (value int) {
	switch unit.Kind {
	case UNIT_REGISTER:
		for n := range unit.Width {
			value = value<<8 | int(ds.Bank.Byte(uint8(unit.Index+n)))
		}
	case UNIT_STATUS:
		if ds.Bank.StatusBit(pep.StatusBit(unit.Index)) {
			value = 1
		}
	case UNIT_MEMORY:
		value = int(ds.Memory.Byte(uint16(unit.Index)))
		if unit.Width == 2 {
			value = int(ds.Memory.Word(uint16(unit.Index)))
		}
	case UNIT_MEMORY_REGISTER:
		value = int(ds.MemoryRegister(MemoryRegister(unit.Index)))
	}
	return
}

// Check returns an ErrUnitPost if the target does not hold the value.
func (unit Unit) Check(ds *DataSection) (err error) {
	actual := unit.Read(ds)
	if actual != unit.Value {
		err = &ErrUnitPost{Target: unit.Target, Expected: unit.Value, Actual: actual}
	}
	return
}
