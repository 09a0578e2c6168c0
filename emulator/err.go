package emulator

import (
	"errors"

	"github.com/ezrec/pep9/translate"
)

var f = translate.From

var (
	ErrNoProgram = errors.New(f("no program loaded"))
)

// ErrRuntime indicates where a program stopped with an error.
type ErrRuntime struct {
	Count int // Instructions completed before the error.
	Err   error
}

func (err *ErrRuntime) Error() string {
	return f("after %d instructions: %v", err.Count, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrLoad indicates which image failed to load.
type ErrLoad struct {
	Image string
	Err   error
}

func (err *ErrLoad) Error() string {
	return f("loading %v: %v", err.Image, err.Err)
}

func (err *ErrLoad) Unwrap() error {
	return err.Err
}
