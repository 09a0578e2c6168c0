// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"sync"

	"github.com/ezrec/pep9/device"
	"github.com/ezrec/pep9/internal"
	"github.com/ezrec/pep9/isa"
	"github.com/ezrec/pep9/loader"
	"github.com/ezrec/pep9/memory"
	"github.com/ezrec/pep9/microcode"
	"github.com/ezrec/pep9/trace"
)

var _session_defines = map[string]string{
	"YIELD_INTERVAL": fmt.Sprintf("%v", isa.YIELD_INTERVAL),
	"MEMORY_SIZE":    fmt.Sprintf("0x%x", memory.DefaultSize),
}

// Config of a session.
type Config struct {
	Verbose    bool           // If set, enables verbose logging.
	MemorySize int            // Memory size in bytes, 0 for the default.
	Burn       uint16         // Burn address, 0 for the standard 0xFFFF.
	Bus        microcode.Type // Data bus of the microcode level CPU.
	Input      io.Reader      // Batch input. If nil, input comes from SendInput.
	Output     io.Writer      // Character output, may be nil.
	Trace      io.Writer      // Per-instruction trace, may be nil.
}

type event struct {
	input  string
	cancel bool
}

// Session state. Memory + instruction level CPU + microcode data section.
//
// All methods except SendInput and Cancel must be called from the
// goroutine that runs the simulation. SendInput and Cancel never block,
// so they may also be called from that goroutine, ie from a listener.
type Session struct {
	Verbose  bool                   // If set, enables verbose logging.
	Memory   *memory.Memory         // Main memory, shared by both CPUs.
	Cpu      *isa.Cpu               // Instruction level CPU.
	Micro    *microcode.DataSection // Microcode level CPU, on the same memory.
	Tape     *device.Tape           // Character port streams.
	Recorder *trace.Recorder        // Execution statistics.

	OS      loader.Image // Operating system image.
	Program loader.Image // User program image.

	lock   sync.Mutex
	events []event
	wake   chan struct{}
	ctx    context.Context
}

var _ memory.Poller = (*Session)(nil)

// NewSession creates a new session.
func NewSession(cfg Config) (s *Session, err error) {
	size := cfg.MemorySize
	if size == 0 {
		size = memory.DefaultSize
	}
	if size < 0 || size > memory.DefaultSize {
		err = memory.ErrSize
		return
	}

	mem := memory.NewMemory(size)

	s = &Session{
		Verbose:  cfg.Verbose,
		Memory:   mem,
		Cpu:      isa.NewCpu(mem),
		Micro:    microcode.NewDataSection(cfg.Bus, mem),
		Tape:     device.NewTape(mem, cfg.Input, cfg.Output),
		Recorder: trace.NewRecorder(cfg.Trace),
		wake:     make(chan struct{}, 1),
	}

	if cfg.Burn != 0 {
		s.Cpu.Burn = cfg.Burn
	}

	s.Cpu.Verbose = cfg.Verbose
	s.Micro.Verbose = cfg.Verbose
	s.Tape.Verbose = cfg.Verbose
	mem.Verbose = cfg.Verbose

	mem.Poller = s
	s.Cpu.Poller = s
	s.Cpu.Tracer = s.Recorder

	err = s.Reset()

	return
}

// Defines returns an iterator over all of the defines.
func (s *Session) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_session_defines),
		s.Cpu.Defines(),
	)
}

// LoadOS parses operating system object code, and burns it in so that
// its last byte is at the burn address.
func (s *Session) LoadOS(input io.Reader) (err error) {
	defer func() {
		if err != nil {
			err = &ErrLoad{Image: "os", Err: err}
		}
	}()

	code, err := loader.ParseObject(input)
	if err != nil {
		return
	}

	img, err := loader.OS(s.Cpu.Burn, code)
	if err != nil {
		return
	}
	if img.End() > s.Memory.Size() {
		err = memory.ErrOutOfBounds
		return
	}

	s.OS = img

	return s.Reset()
}

// LoadProgram parses user program object code, to be loaded at address 0.
func (s *Session) LoadProgram(input io.Reader) (err error) {
	defer func() {
		if err != nil {
			err = &ErrLoad{Image: "program", Err: err}
		}
	}()

	code, err := loader.ParseObject(input)
	if err != nil {
		return
	}

	img := loader.Program(code)
	if img.End() > s.Memory.Size() {
		err = memory.ErrOutOfBounds
		return
	}

	s.Program = img

	return s.Reset()
}

// Reset the session.
// - Zeroes memory, then loads the OS and program images.
// - Drops pending input, and queued cancellations.
// - Resets both CPUs and the execution statistics.
func (s *Session) Reset() (err error) {
	if s.Verbose {
		log.Printf("emulator: reset")
	}

	s.Memory.Clear()
	s.Memory.ClearInput()
	s.Memory.ClearErrors()

	for _, img := range []loader.Image{s.OS, s.Program} {
		err = img.Load(s.Memory)
		if err != nil {
			return
		}
	}
	s.Memory.ClearModified()

	s.drain(false)

	s.Cpu.Reset()
	s.Micro.Clear()
	s.Recorder.Reset()

	return
}

// post queues a host event, and wakes a blocked Poll.
func (s *Session) post(ev event) {
	s.lock.Lock()
	s.events = append(s.events, ev)
	s.lock.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// SendInput queues bytes for the input port. Safe to call from any goroutine.
func (s *Session) SendInput(text string) {
	s.post(event{input: text})
}

// Cancel stops a Run, a StepOver or StepOut, or a wait for input. Safe to
// call from any goroutine.
func (s *Session) Cancel() {
	s.post(event{cancel: true})
}

// handle applies one host event. Returns true if a wait for input can end.
func (s *Session) handle(ev event, cancel bool) bool {
	if ev.cancel {
		if cancel {
			s.Cpu.Cancel()
		}
		return cancel
	}

	if s.Verbose {
		log.Printf("emulator: input %q", ev.input)
	}
	s.Memory.AppendInput(ev.input)
	return true
}

// drain applies all queued host events without waiting.
func (s *Session) drain(cancel bool) (released bool) {
	s.lock.Lock()
	events := s.events
	s.events = nil
	s.lock.Unlock()

	for _, ev := range events {
		released = s.handle(ev, cancel) || released
	}
	return
}

// Poll delivers queued host events. While the program waits for input,
// Poll blocks until an event arrives or the context of the Run is done.
func (s *Session) Poll() {
	if s.drain(true) || !s.Memory.Waiting() {
		return
	}

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-s.wake:
		s.drain(true)
	case <-ctx.Done():
		s.Cpu.Cancel()
	}
}

// withContext runs fn with ctx as the context of Poll.
func (s *Session) withContext(ctx context.Context, fn func() error) (err error) {
	s.ctx = ctx
	defer func() { s.ctx = nil }()

	count := s.Cpu.Count()
	err = fn()
	if err != nil && !errors.Is(err, isa.ErrCancelled) && !errors.Is(err, isa.ErrFinished) {
		err = &ErrRuntime{Count: s.Cpu.Count() - count, Err: err}
	}
	return
}

// Run the program until it stops, fails, reaches a breakpoint, or is
// cancelled either by Cancel or by ctx.
func (s *Session) Run(ctx context.Context) (err error) {
	return s.withContext(ctx, func() error { return s.Cpu.Run(ctx) })
}

// StepInto executes exactly one instruction.
func (s *Session) StepInto(ctx context.Context) (err error) {
	return s.withContext(ctx, s.Cpu.StepInto)
}

// StepOver executes one instruction, running through any call it makes.
func (s *Session) StepOver(ctx context.Context) (err error) {
	return s.withContext(ctx, func() error { return s.Cpu.StepOver(ctx) })
}

// StepOut runs until the current subroutine returns.
func (s *Session) StepOut(ctx context.Context) (err error) {
	return s.withContext(ctx, func() error { return s.Cpu.StepOut(ctx) })
}

// SetBreakpoint pauses Run before the instruction at address.
func (s *Session) SetBreakpoint(address uint16) {
	s.Cpu.SetBreakpoint(address, true)
}

// ClearBreakpoint removes a breakpoint.
func (s *Session) ClearBreakpoint(address uint16) {
	s.Cpu.SetBreakpoint(address, false)
}

// RunMicrocode runs a microprogram on the microcode level CPU, which
// shares memory with the instruction level CPU.
func (s *Session) RunMicrocode(ctx context.Context, prog *microcode.Program) (err error) {
	if prog == nil {
		err = ErrNoProgram
		return
	}

	s.ctx = ctx
	defer func() { s.ctx = nil }()

	s.Micro.Clear()
	err = prog.Run(s.Micro)

	return
}

// Output returns the error of the character output stream, if any.
func (s *Session) Output() error {
	return s.Tape.Err()
}
