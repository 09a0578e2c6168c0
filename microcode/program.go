package microcode

import (
	"errors"
	"iter"
	"log"
)

// Line is one microcode line.
type Line struct {
	LineNo int    // Line number in the source text.
	Text   string // Source text, without comment.
	Vector Vector // Signals of the line.
}

// Program is a sequential microprogram, with optional unit test
// preconditions and postconditions.
type Program struct {
	Type  Type   // Data bus the program is written for.
	Lines []Line // Lines, one per clock pulse.
	Pre   []Unit // Assignments applied before the first line.
	Post  []Unit // Values expected after the last line.
}

// Vectors iterates over the line numbers and signals of the program.
func (prog *Program) Vectors() iter.Seq2[int, Vector] {
	return func(yield func(int, Vector) bool) {
		for _, line := range prog.Lines {
			if !yield(line.LineNo, line.Vector) {
				return
			}
		}
	}
}

// Setup applies the UnitPre assignments.
func (prog *Program) Setup(ds *DataSection) {
	for _, unit := range prog.Pre {
		unit.Apply(ds)
	}
}

// Verify checks all of the UnitPost assignments.
func (prog *Program) Verify(ds *DataSection) (err error) {
	var errs []error
	for _, unit := range prog.Post {
		errs = append(errs, unit.Check(ds))
	}
	return errors.Join(errs...)
}

// Run applies the UnitPre assignments, clocks every line in order, then
// verifies the UnitPost values. The first data section error stops the
// run.
func (prog *Program) Run(ds *DataSection) (err error) {
	if ds.Type != prog.Type {
		err = ErrBusType
		return
	}

	prog.Setup(ds)

	for lineno, vec := range prog.Vectors() {
		if ds.Verbose {
			log.Printf("microcode: %d: %v", lineno, vec)
		}
		ds.SetVector(vec)
		err = ds.Clock()
		if err != nil {
			err = &ErrLine{LineNo: lineno, Err: err}
			return
		}
	}

	err = prog.Verify(ds)

	return
}
