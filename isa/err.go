package isa

import (
	"errors"

	"github.com/ezrec/pep9/pep"
	"github.com/ezrec/pep9/translate"
)

var f = translate.From

var (
	ErrFinished  = errors.New(f("execution finished"))
	ErrCancelled = errors.New(f("execution cancelled"))
	ErrIllegal   = errors.New(f("illegal instruction specifier"))
	ErrOperand   = errors.New(f("operand resolution failed"))
	ErrStoreMode = errors.New(f("store with immediate addressing"))
	ErrNoTable   = errors.New(f("no instruction table"))
)

// ErrStep records the instruction that failed.
type ErrStep struct {
	Address     uint16
	Instruction pep.Instruction
	Err         error
}

func (err *ErrStep) Error() string {
	return f("0x%04x %v: %v", err.Address, err.Instruction, err.Err)
}

func (err *ErrStep) Unwrap() error {
	return err.Err
}

// ErrOperandRead is a failed pointer read of a deferred addressing mode.
type ErrOperandRead struct {
	Mode pep.AddrMode
	Spec uint16
	Err  error
}

func (err *ErrOperandRead) Error() string {
	return f("%v 0x%04x,%v: %v", ErrOperand, err.Spec, err.Mode, err.Err)
}

func (err *ErrOperandRead) Unwrap() []error {
	return []error{ErrOperand, err.Err}
}
