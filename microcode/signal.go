package microcode

import (
	"strconv"
	"strings"
)

// Type selects the width of the data bus.
type Type int

const (
	ONE_BYTE = Type(iota) // One byte data bus: MDR.
	TWO_BYTE              // Two byte data bus: MDRE and MDRO.
)

func (typ Type) String() string {
	switch typ {
	case ONE_BYTE:
		return "one-byte"
	case TWO_BYTE:
		return "two-byte"
	}
	return "?"
}

// Control is a control signal.
type Control int

const (
	CONTROL_A = Control(iota)
	CONTROL_B
	CONTROL_C
	CONTROL_AMUX
	CONTROL_CMUX
	CONTROL_ALU
	CONTROL_CSMUX
	CONTROL_ANDZ
	CONTROL_MEMREAD
	CONTROL_MEMWRITE
	CONTROL_MDRMUX
	CONTROL_MARMUX
	CONTROL_MDREMUX
	CONTROL_MDROMUX
	CONTROL_EOMUX

	controlCount
)

var controlNames = [controlCount]string{
	"A", "B", "C", "AMux", "CMux", "ALU", "CSMux", "AndZ",
	"MemRead", "MemWrite", "MDRMux", "MARMux", "MDREMux", "MDROMux", "EOMux",
}

func (ctl Control) String() string {
	if ctl < 0 || ctl >= controlCount {
		return "?"
	}
	return controlNames[ctl]
}

// Max is the largest value the signal may be driven to.
func (ctl Control) Max() int {
	switch ctl {
	case CONTROL_A, CONTROL_B:
		return 31
	case CONTROL_C:
		return 21
	case CONTROL_ALU:
		return 15
	}
	return 1
}

// Clock is a clock signal.
type Clock int

const (
	CLOCK_N = Clock(iota)
	CLOCK_Z
	CLOCK_V
	CLOCK_C
	CLOCK_S
	CLOCK_MAR
	CLOCK_LOAD
	CLOCK_MDR
	CLOCK_MDRE
	CLOCK_MDRO

	clockCount
)

var clockNames = [clockCount]string{
	"NCk", "ZCk", "VCk", "CCk", "SCk", "MARCk", "LoadCk", "MDRCk", "MDRECk", "MDROCk",
}

func (ck Clock) String() string {
	if ck < 0 || ck >= clockCount {
		return "?"
	}
	return clockNames[ck]
}

// HasControl is true if the data section has the control signal.
func (typ Type) HasControl(ctl Control) bool {
	switch ctl {
	case CONTROL_MDRMUX:
		return typ == ONE_BYTE
	case CONTROL_MARMUX, CONTROL_MDREMUX, CONTROL_MDROMUX, CONTROL_EOMUX:
		return typ == TWO_BYTE
	}
	return ctl >= 0 && ctl < controlCount
}

// HasClock is true if the data section has the clock signal.
func (typ Type) HasClock(ck Clock) bool {
	switch ck {
	case CLOCK_MDR:
		return typ == ONE_BYTE
	case CLOCK_MDRE, CLOCK_MDRO:
		return typ == TWO_BYTE
	}
	return ck >= 0 && ck < clockCount
}

// ParseControl finds a control signal by name, ignoring case.
func ParseControl(name string) (ctl Control, ok bool) {
	for n, str := range controlNames {
		if strings.EqualFold(str, name) {
			return Control(n), true
		}
	}
	return
}

// ParseClock finds a clock signal by name, ignoring case.
func ParseClock(name string) (ck Clock, ok bool) {
	for n, str := range clockNames {
		if strings.EqualFold(str, name) {
			return Clock(n), true
		}
	}
	return
}

// DISABLED marks a control signal that is not driven.
const DISABLED = -1

// Vector is the set of control and clock signals for one clock pulse.
type Vector struct {
	Control [controlCount]int
	Clock   [clockCount]bool
}

// NewVector returns a vector with no signal driven.
func NewVector() (vec Vector) {
	vec.Clear()
	return
}

// Clear disables all control signals and lowers all clocks.
func (vec *Vector) Clear() {
	for n := range vec.Control {
		vec.Control[n] = DISABLED
	}
	clear(vec.Clock[:])
}

// Set drives a control signal.
func (vec *Vector) Set(ctl Control, value int) {
	vec.Control[ctl] = value
}

// Pulse raises a clock signal.
func (vec *Vector) Pulse(ck Clock) {
	vec.Clock[ck] = true
}

// Driven is true if the control signal has a value.
func (vec *Vector) Driven(ctl Control) bool {
	return vec.Control[ctl] != DISABLED
}

// String renders the vector in microcode syntax.
func (vec Vector) String() string {
	var controls, clocks []string
	for n, value := range vec.Control {
		if value != DISABLED {
			controls = append(controls, controlNames[n]+"="+strconv.Itoa(value))
		}
	}
	for n, pulsed := range vec.Clock {
		if pulsed {
			clocks = append(clocks, clockNames[n])
		}
	}

	text := strings.Join(controls, ", ")
	if len(clocks) > 0 {
		text += "; " + strings.Join(clocks, ", ")
	}
	return text
}

// MemoryRegister names the registers of the memory interface.
type MemoryRegister int

const (
	MEM_MARA = MemoryRegister(iota)
	MEM_MARB
	MEM_MDR
	MEM_MDRE
	MEM_MDRO

	memoryRegisterCount
)

var memoryRegisterNames = [memoryRegisterCount]string{"MARA", "MARB", "MDR", "MDRE", "MDRO"}

func (reg MemoryRegister) String() string {
	if reg < 0 || reg >= memoryRegisterCount {
		return "?"
	}
	return memoryRegisterNames[reg]
}

// ParseMemoryRegister finds a memory register by name, ignoring case.
func ParseMemoryRegister(name string) (reg MemoryRegister, ok bool) {
	for n, str := range memoryRegisterNames {
		if strings.EqualFold(str, name) {
			return MemoryRegister(n), true
		}
	}
	return
}
