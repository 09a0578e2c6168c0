// Package device connects the memory mapped character ports to host
// streams.
package device

import (
	"bufio"
	"errors"
	"io"
	"log"

	"github.com/ezrec/pep9/memory"
)

// Tape provides batch I/O for the character ports. Bytes written to the
// output port go to Output. When the program waits on the input port, the
// next line of Input is queued; at the end of Input the wait is
// cancelled. Without Input the wait is left to the memory Poller.
type Tape struct {
	Verbose bool
	Memory  *memory.Memory
	Input   io.Reader
	Output  io.Writer

	reader *bufio.Reader
	err    error
	eof    bool
}

var _ memory.Listener = (*Tape)(nil)

// NewTape creates a tape and attaches it to the memory.
func NewTape(mem *memory.Memory, input io.Reader, output io.Writer) (tc *Tape) {
	tc = &Tape{
		Memory: mem,
		Input:  input,
		Output: output,
	}
	mem.Listener = tc
	return
}

// Err returns the first host I/O error.
func (tc *Tape) Err() error {
	return tc.err
}

// Rewind forgets the end of input, ie after Input was replaced.
func (tc *Tape) Rewind() {
	tc.reader = nil
	tc.eof = false
}

// MemoryChanged is ignored by a tape.
func (tc *Tape) MemoryChanged(address uint16, old, new uint8) {
}

// CharacterOutput writes the byte to Output.
func (tc *Tape) CharacterOutput(value uint8) {
	if tc.Output == nil || tc.err != nil {
		return
	}
	_, tc.err = tc.Output.Write([]byte{value})
}

// InputRequested queues the next line of Input.
func (tc *Tape) InputRequested() {
	if tc.Input == nil {
		return
	}
	if tc.eof {
		tc.Memory.CancelInputWait()
		return
	}
	if tc.reader == nil {
		tc.reader = bufio.NewReader(tc.Input)
	}

	line, err := tc.reader.ReadString('\n')
	if len(line) > 0 {
		if tc.Verbose {
			log.Printf("tape: input %q", line)
		}
		tc.Memory.AppendInput(line)
	}

	if err != nil {
		tc.eof = true
		if !errors.Is(err, io.EOF) && tc.err == nil {
			tc.err = err
		}
		if len(line) == 0 {
			tc.Memory.CancelInputWait()
		}
	}
}
