package loader

import (
	"errors"

	"github.com/ezrec/pep9/translate"
)

var f = translate.From

var (
	ErrNoTerminator = errors.New(f("object code missing 'zz' terminator"))
	ErrEmpty        = errors.New(f("object code is empty"))
	ErrTooLarge     = errors.New(f("object code does not fit below the burn address"))
)

// ErrByte is an object code word that is not two hex digits.
type ErrByte struct {
	Index int
	Word  string
}

func (err ErrByte) Error() string {
	return f("object code byte %d: '%v' is not two hex digits", err.Index, err.Word)
}
