package memory

import (
	"errors"

	"github.com/ezrec/pep9/translate"
)

var f = translate.From

var (
	ErrOutOfBounds = errors.New(f("out of bounds access"))
	ErrNoInput     = errors.New(f("requested input but received none"))
	ErrSize        = errors.New(f("invalid memory size"))
)

// ErrAccess records the address of a failed memory access.
type ErrAccess struct {
	Address uint16
	Err     error
}

func (err *ErrAccess) Error() string {
	return f("memory error: %v at byte 0x%04x", err.Err, err.Address)
}

func (err *ErrAccess) Unwrap() error {
	return err.Err
}
