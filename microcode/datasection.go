// Package microcode implements the Pep/9 CPU data section at the level of
// individual clock pulses.
//
// Each pulse is described by a Vector of control signals, which select
// the paths through the buses and the ALU, and clock signals, which latch
// values into registers. A DataSection applies one Vector per Step.
package microcode

import (
	"log"

	"github.com/ezrec/pep9/alu"
	"github.com/ezrec/pep9/bus"
	"github.com/ezrec/pep9/memory"
	"github.com/ezrec/pep9/pep"
	"github.com/ezrec/pep9/register"
)

// Listener receives data section change notifications.
type Listener interface {
	BusStateChanged(old, new bus.State)
	MemoryRegisterChanged(reg MemoryRegister, old, new uint8)
}

// DataSection is the microcode level CPU.
type DataSection struct {
	Verbose  bool           // Set to enable verbose logging.
	Type     Type           // Width of the data bus.
	Memory   *memory.Memory // Main memory.
	Bank     *register.Bank // Register bank and status bits.
	Listener Listener       // Change notifications, may be nil.
	Vector   Vector         // Signals for the next Step.

	busState bus.State
	mreg     [memoryRegisterCount]uint8

	aluValid bool
	aluOut   alu.Output
	aluOk    bool

	err error
}

// NewDataSection creates a data section of the given type over a memory.
func NewDataSection(typ Type, mem *memory.Memory) (ds *DataSection) {
	ds = &DataSection{
		Type:   typ,
		Memory: mem,
		Bank:   register.NewBank(),
		Vector: NewVector(),
	}

	return
}

// SetVector replaces the signals for the next Step.
func (ds *DataSection) SetVector(vec Vector) {
	ds.Vector = vec
	ds.aluValid = false
}

// HadError is true if the last Step failed.
func (ds *DataSection) HadError() bool {
	return ds.err != nil
}

// Err returns the error of the last Step.
func (ds *DataSection) Err() error {
	return ds.err
}

// ErrorMessage returns the text of the error of the last Step.
func (ds *DataSection) ErrorMessage() string {
	if ds.err == nil {
		return ""
	}
	return ds.err.Error()
}

// ClearErrors forgets the error of the last Step.
func (ds *DataSection) ClearErrors() {
	ds.err = nil
}

// BusState is the state of the memory bus handshake.
func (ds *DataSection) BusState() bus.State {
	return ds.busState
}

// MemoryRegister returns a register of the memory interface.
func (ds *DataSection) MemoryRegister(reg MemoryRegister) uint8 {
	return ds.mreg[reg]
}

// SetMemoryRegister sets a register of the memory interface.
func (ds *DataSection) SetMemoryRegister(reg MemoryRegister, value uint8) {
	old := ds.mreg[reg]
	if old == value {
		return
	}

	ds.mreg[reg] = value
	ds.aluValid = false

	if ds.Listener != nil {
		ds.Listener.MemoryRegisterChanged(reg, old, value)
	}
}

// MAR is the memory address held by MARA and MARB.
func (ds *DataSection) MAR() uint16 {
	return uint16(ds.mreg[MEM_MARA])<<8 | uint16(ds.mreg[MEM_MARB])
}

// Clear resets registers, status bits, bus state, signals and errors.
func (ds *DataSection) Clear() {
	ds.Bank.Clear()
	for reg := range memoryRegisterCount {
		ds.SetMemoryRegister(reg, 0)
	}
	ds.setBusState(bus.IDLE)
	ds.Vector.Clear()
	ds.aluValid = false
	ds.err = nil
}

func (ds *DataSection) setBusState(state bus.State) {
	old := ds.busState
	if old == state {
		return
	}

	ds.busState = state

	if ds.Verbose {
		log.Printf("microcode: bus %v -> %v", old, state)
	}

	if ds.Listener != nil {
		ds.Listener.BusStateChanged(old, state)
	}
}

func (ds *DataSection) bankBus(ctl Control) (value uint8, ok bool) {
	reg := ds.Vector.Control[ctl]
	if reg == DISABLED || reg < 0 || reg > int(register.LAST_BYTE) {
		return
	}
	return ds.Bank.Byte(uint8(reg)), true
}

// ABus returns the value on the A bus, if any.
func (ds *DataSection) ABus() (value uint8, ok bool) {
	return ds.bankBus(CONTROL_A)
}

// BBus returns the value on the B bus, if any.
func (ds *DataSection) BBus() (value uint8, ok bool) {
	return ds.bankBus(CONTROL_B)
}

// AMux returns the left ALU input, if any.
func (ds *DataSection) AMux() (value uint8, ok bool) {
	switch ds.Vector.Control[CONTROL_AMUX] {
	case 0:
		if ds.Type == ONE_BYTE {
			return ds.mreg[MEM_MDR], true
		}
		switch ds.Vector.Control[CONTROL_EOMUX] {
		case 0:
			return ds.mreg[MEM_MDRE], true
		case 1:
			return ds.mreg[MEM_MDRO], true
		}
	case 1:
		return ds.ABus()
	}
	return
}

// CSMux returns the ALU carry in, if any.
func (ds *DataSection) CSMux() (carry bool, ok bool) {
	switch ds.Vector.Control[CONTROL_CSMUX] {
	case 0:
		return ds.Bank.StatusBit(pep.STATUS_C), true
	case 1:
		return ds.Bank.StatusBit(pep.STATUS_S), true
	}
	return
}

// ALU returns the output of the ALU for the current signals. It is false
// when the function is not driven or its inputs are missing.
func (ds *DataSection) ALU() (out alu.Output, ok bool) {
	if ds.aluValid {
		return ds.aluOut, ds.aluOk
	}

	var in alu.Inputs
	a, hasA := ds.AMux()
	in.A = a
	in.B, in.HasB = ds.BBus()
	in.Carry, in.HasCarry = ds.CSMux()

	fn := alu.Function(ds.Vector.Control[CONTROL_ALU])
	if hasA {
		out, ok = alu.Compute(fn, in)
	}

	ds.aluOut, ds.aluOk, ds.aluValid = out, ok, true
	return
}

// CBus returns the value on the C bus, if any.
func (ds *DataSection) CBus() (value uint8, ok bool) {
	switch ds.Vector.Control[CONTROL_CMUX] {
	case 0:
		return ds.Bank.Status() &^ pep.S_MASK, true
	case 1:
		var out alu.Output
		out, ok = ds.ALU()
		value = out.Value
	}
	return
}

// marInput returns the bytes that MARCk would latch.
func (ds *DataSection) marInput() (mara, marb uint8, ok bool) {
	if ds.Type == TWO_BYTE {
		switch ds.Vector.Control[CONTROL_MARMUX] {
		case 0:
			return ds.mreg[MEM_MDRE], ds.mreg[MEM_MDRO], true
		case 1:
		default:
			return
		}
	}

	var hasA, hasB bool
	mara, hasA = ds.ABus()
	marb, hasB = ds.BBus()
	ok = hasA && hasB
	return
}

func (ds *DataSection) fail(err error) {
	if ds.err == nil {
		ds.err = err
	}
	if ds.Verbose {
		log.Printf("microcode: %v", err)
	}
}

// readBus reads a byte of memory onto the data bus.
func (ds *DataSection) readBus(address uint16) (value uint8, ok bool) {
	value, err := ds.Memory.ReadByte(address)
	if err != nil {
		ds.fail(err)
		return
	}
	return value, true
}

// Step applies the current signals for one clock pulse. The error of the
// previous Step is forgotten first.
func (ds *DataSection) Step() (err error) {
	ds.err = nil
	defer func() {
		err = ds.err
	}()

	vec := &ds.Vector

	// The memory bus advances before anything else reads its state.
	marChanged := false
	if vec.Clock[CLOCK_MAR] {
		mara, marb, ok := ds.marInput()
		marChanged = ok && (mara != ds.mreg[MEM_MARA] || marb != ds.mreg[MEM_MARB])
	}
	ds.setBusState(bus.Next(ds.busState, marChanged,
		vec.Control[CONTROL_MEMREAD] == 1, vec.Control[CONTROL_MEMWRITE] == 1))

	// Latches take the values present before any clock edge.
	ds.aluValid = false
	out, hasAlu := ds.ALU()
	c, hasC := ds.CBus()
	mara, marb, hasMar := ds.marInput()
	address := ds.MAR()

	if ds.busState == bus.WRITE_READY {
		var werr error
		if ds.Type == ONE_BYTE {
			werr = ds.Memory.WriteByte(address, ds.mreg[MEM_MDR])
		} else {
			werr = ds.Memory.WriteWordAligned(address, uint16(ds.mreg[MEM_MDRE])<<8|uint16(ds.mreg[MEM_MDRO]))
		}
		if werr != nil {
			ds.fail(werr)
			return
		}
	}

	if vec.Clock[CLOCK_MAR] {
		if !hasMar {
			if ds.Type == ONE_BYTE {
				ds.fail(ErrMarInput)
			} else {
				ds.fail(ErrMarMux)
			}
			return
		}
		ds.SetMemoryRegister(MEM_MARA, mara)
		ds.SetMemoryRegister(MEM_MARB, marb)
	}

	if vec.Clock[CLOCK_LOAD] {
		switch {
		case vec.Control[CONTROL_C] == DISABLED:
			ds.fail(ErrLoadDest)
		case !hasC:
			ds.fail(ErrLoadValue)
		case !ds.Bank.SetByte(uint8(vec.Control[CONTROL_C]), c):
			ds.fail(ErrLoadDest)
		}
	}

	if ds.Type == ONE_BYTE {
		if vec.Clock[CLOCK_MDR] {
			ds.clockMdr(MEM_MDR, CONTROL_MDRMUX, address, c, hasC)
		}
	} else {
		if vec.Clock[CLOCK_MDRE] {
			ds.clockMdr(MEM_MDRE, CONTROL_MDREMUX, address&^1, c, hasC)
		}
		if vec.Clock[CLOCK_MDRO] {
			ds.clockMdr(MEM_MDRO, CONTROL_MDROMUX, address&^1+1, c, hasC)
		}
	}

	ds.clockStatus(out, hasAlu)

	return
}

// clockMdr latches a memory data register from its multiplexer, using
// the C bus value sampled at the start of the pulse.
func (ds *DataSection) clockMdr(reg MemoryRegister, mux Control, address uint16, c uint8, hasC bool) {
	switch ds.Vector.Control[mux] {
	case 0:
		if ds.busState != bus.READ_READY {
			ds.fail(&ErrMemoryClock{Register: reg, Err: ErrMdrBus})
			return
		}
		value, ok := ds.readBus(address)
		if ok {
			ds.SetMemoryRegister(reg, value)
		}
	case 1:
		if !hasC {
			ds.fail(&ErrMemoryClock{Register: reg, Err: ErrMdrC})
			return
		}
		ds.SetMemoryRegister(reg, c)
	default:
		ds.fail(&ErrMemoryClock{Register: reg, Err: ErrMdrMux})
	}
}

// clockStatus latches the status bits from the ALU flags.
func (ds *DataSection) clockStatus(out alu.Output, ok bool) {
	vec := &ds.Vector

	starved := false
	latch := func(ck Clock, bit pep.StatusBit, value bool) {
		if !vec.Clock[ck] {
			return
		}
		if !ok {
			starved = true
			return
		}
		ds.Bank.SetStatusBit(bit, value)
	}

	latch(CLOCK_N, pep.STATUS_N, out.Flag(pep.STATUS_N))

	if vec.Clock[CLOCK_Z] {
		switch vec.Control[CONTROL_ANDZ] {
		case 0:
			latch(CLOCK_Z, pep.STATUS_Z, out.Flag(pep.STATUS_Z))
		case 1:
			latch(CLOCK_Z, pep.STATUS_Z, out.Flag(pep.STATUS_Z) && ds.Bank.StatusBit(pep.STATUS_Z))
		default:
			starved = true
		}
	}

	latch(CLOCK_V, pep.STATUS_V, out.Flag(pep.STATUS_V))
	latch(CLOCK_C, pep.STATUS_C, out.Flag(pep.STATUS_C))
	latch(CLOCK_S, pep.STATUS_S, out.Flag(pep.STATUS_C))

	if starved {
		ds.fail(ErrStatusInput)
	}
}

// Clock performs a Step, then lowers all signals.
func (ds *DataSection) Clock() (err error) {
	err = ds.Step()
	ds.Vector.Clear()
	ds.aluValid = false
	return
}
