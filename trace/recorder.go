// Package trace records the instructions executed by the instruction level
// CPU, and summarizes them once the program stops.
package trace

import (
	"cmp"
	"io"
	"iter"
	"maps"
	"slices"

	"github.com/ezrec/pep9/isa"
	"github.com/ezrec/pep9/pep"
	"github.com/ezrec/pep9/register"
	"github.com/ezrec/pep9/translate"
)

var f = translate.From

// Recorder is an isa.Tracer that keeps execution statistics, and
// optionally writes a line per instruction.
type Recorder struct {
	Output io.Writer // Per-instruction trace, may be nil.

	count     int
	histogram map[pep.Mnemonic]int
	spMin     uint16
	spMax     uint16
	maxDepth  int
	unmatched int
	calls     CallStack
	err       error
}

var _ isa.Tracer = (*Recorder)(nil)

// NewRecorder creates a recorder that writes its trace to out.
func NewRecorder(out io.Writer) (rec *Recorder) {
	rec = &Recorder{Output: out}
	rec.Reset()
	return
}

// Reset forgets all recorded instructions.
func (rec *Recorder) Reset() {
	rec.count = 0
	rec.histogram = map[pep.Mnemonic]int{}
	rec.spMin = 0xffff
	rec.spMax = 0
	rec.maxDepth = 0
	rec.unmatched = 0
	rec.calls.Reset()
	rec.err = nil
}

// Line formats one instruction as a trace line.
func Line(step isa.Step) string {
	text := f("%04X  %-8v", step.Address, step.Instruction)
	if step.Instruction.HasOperand() {
		text += f("  0x%04X", step.Operand)
	} else {
		text += "        "
	}
	if step.Bank != nil {
		text += "  " + step.Bank.String()
	}
	return text
}

// Trace records one instruction.
func (rec *Recorder) Trace(step isa.Step) {
	rec.count++
	rec.histogram[step.Instruction.Mnemonic]++

	if step.Bank != nil {
		for _, sp := range []uint16{step.Bank.StartWord(register.REG_SP), step.Bank.Word(register.REG_SP)} {
			rec.spMin = min(rec.spMin, sp)
			rec.spMax = max(rec.spMax, sp)
		}
	}

	mn := step.Instruction.Mnemonic
	switch {
	case mn.IsCall():
		rec.calls.Push(Frame{
			Caller: step.Address,
			Return: step.Address + step.Instruction.Size(),
			Trap:   mn.IsTrap(),
		})
		rec.maxDepth = max(rec.maxDepth, rec.calls.Depth())
	case mn.IsReturn():
		if _, ok := rec.calls.Pop(); !ok {
			rec.unmatched++
		}
	}

	if rec.Output != nil && rec.err == nil {
		_, rec.err = io.WriteString(rec.Output, Line(step)+"\n")
	}
}

// Err returns the first error writing the trace.
func (rec *Recorder) Err() error {
	return rec.err
}

// Count is the number of recorded instructions.
func (rec *Recorder) Count() int {
	return rec.count
}

// MaxDepth is the deepest nesting of calls and traps.
func (rec *Recorder) MaxDepth() int {
	return rec.maxDepth
}

// Unmatched is the number of returns without a recorded call.
func (rec *Recorder) Unmatched() int {
	return rec.unmatched
}

// Calls is the stack of unreturned calls.
func (rec *Recorder) Calls() []Frame {
	return slices.Clone(rec.calls.Data)
}

// StackRange returns the lowest and highest stack pointer seen. It is
// false if nothing was recorded.
func (rec *Recorder) StackRange() (lowest, highest uint16, ok bool) {
	if rec.count == 0 {
		return
	}
	return rec.spMin, rec.spMax, true
}

// Histogram iterates over the executed mnemonics, most frequent first.
func (rec *Recorder) Histogram() iter.Seq2[pep.Mnemonic, int] {
	mnemonics := slices.SortedFunc(maps.Keys(rec.histogram), func(a, b pep.Mnemonic) int {
		return cmp.Or(cmp.Compare(rec.histogram[b], rec.histogram[a]), cmp.Compare(a, b))
	})

	return func(yield func(pep.Mnemonic, int) bool) {
		for _, mn := range mnemonics {
			if !yield(mn, rec.histogram[mn]) {
				return
			}
		}
	}
}

// Report writes the execution statistics.
func (rec *Recorder) Report(w io.Writer) (err error) {
	lines := []string{
		f("instructions: %d", rec.count),
		f("call depth:   %d", rec.maxDepth),
	}
	if lowest, highest, ok := rec.StackRange(); ok {
		lines = append(lines, f("stack:        0x%04X - 0x%04X (%d bytes)", lowest, highest, int(highest)-int(lowest)))
	}
	if rec.unmatched > 0 {
		lines = append(lines, f("unmatched returns: %d", rec.unmatched))
	}
	for mn, count := range rec.Histogram() {
		lines = append(lines, f("  %-8v %8d", mn, count))
	}

	for _, line := range lines {
		_, err = io.WriteString(w, line+"\n")
		if err != nil {
			return
		}
	}

	return
}
