package microcode

import (
	"errors"

	"github.com/ezrec/pep9/translate"
)

var f = translate.From

var (
	// Data section errors
	ErrMarInput    = errors.New(f("No values on A & B during MARCk"))
	ErrMarMux      = errors.New(f("MARMux has no output but MARCk"))
	ErrLoadDest    = errors.New(f("No destination register specified for LoadCk."))
	ErrLoadValue   = errors.New(f("No value on C Bus to clock in."))
	ErrMdrBus      = errors.New(f("No value from data bus"))
	ErrMdrC        = errors.New(f("No value on C bus"))
	ErrMdrMux      = errors.New(f("No value to clock"))
	ErrStatusInput = errors.New(f("ALU Error: No output from ALU to clock into status bits."))

	// Microcode parse errors
	ErrSignalDuplicate = errors.New(f("signal duplicated"))
	ErrSignalType      = errors.New(f("signal not present on this data bus"))
	ErrSignalRange     = errors.New(f("signal value out of range"))
	ErrSignalSyntax    = errors.New(f("signal syntax"))
	ErrClockValue      = errors.New(f("clock signals take no value"))
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrUnitSyntax      = errors.New(f("unit test syntax"))
	ErrBusType         = errors.New(f("microprogram is for another data bus"))
	ErrUnitValue       = errors.New(f("unit test value out of range"))
)

// ErrSyntax locates a parse error in the microcode text.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrMemoryClock is a memory data register clocked without an input.
type ErrMemoryClock struct {
	Register MemoryRegister
	Err      error
}

func (err *ErrMemoryClock) Error() string {
	if err.Err == ErrMdrMux {
		return f("%v into %v", err.Err, err.Register)
	}
	return f("%v to write to %v", err.Err, err.Register)
}

func (err *ErrMemoryClock) Unwrap() error {
	return err.Err
}

// ErrLine locates a data section error at a microcode line.
type ErrLine struct {
	LineNo int
	Err    error
}

func (err ErrLine) Error() string {
	return f("microcode line %d: %v", err.LineNo, err.Err)
}

func (err ErrLine) Unwrap() error {
	return err.Err
}

// ErrSignalUnknown is a name that is not a signal.
type ErrSignalUnknown string

func (err ErrSignalUnknown) Error() string {
	return f("'%v' is not a signal", string(err))
}

// ErrUnitTarget is a unit test assignment to an unknown or read-only target.
type ErrUnitTarget string

func (err ErrUnitTarget) Error() string {
	return f("'%v' is not a unit test target", string(err))
}

// ErrParseNumber is a word that does not parse as a number.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression is a $(...) expression that did not evaluate to an integer.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrUnitPost is a UnitPost check that failed.
type ErrUnitPost struct {
	Target   string
	Expected int
	Actual   int
}

func (err ErrUnitPost) Error() string {
	return f("unit post test failed: %v expected 0x%x, was 0x%x", err.Target, err.Expected, err.Actual)
}
