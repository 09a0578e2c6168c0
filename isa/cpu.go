// Package isa is the instruction level simulation of the Pep/9 CPU.
//
// Each step fetches, decodes and executes exactly one instruction against
// the main memory and the register bank. Traps save the machine context on
// the system stack below the burn address of the operating system.
package isa

import (
	"context"
	"fmt"
	"iter"
	"log"
	"maps"
	"slices"

	"github.com/ezrec/pep9/memory"
	"github.com/ezrec/pep9/pep"
	"github.com/ezrec/pep9/register"
)

const (
	YIELD_INTERVAL = 500 // Instructions between host polls in Run.
)

// State of the CPU execution.
type State int

const (
	STATE_READY      = State(iota) // Stopped between instructions.
	STATE_RUNNING                  // Inside Run.
	STATE_BREAKPOINT               // Paused on a breakpoint.
	STATE_FINISHED                 // Executed STOP.
	STATE_ERRORED                  // Failed, see Cpu.Err.
)

var stateNames = [...]string{"Ready", "Running", "BreakpointHit", "Finished", "Errored"}

func (state State) String() string {
	if state < STATE_READY || state > STATE_ERRORED {
		return "?"
	}
	return stateNames[state]
}

// IsTerminal is true for the states that only a Reset leaves.
func (state State) IsTerminal() bool {
	return state == STATE_FINISHED || state == STATE_ERRORED
}

// Step describes an executed instruction.
type Step struct {
	Address     uint16          // Address of the instruction specifier.
	Instruction pep.Instruction // Decoded instruction.
	Operand     uint16          // Operand specifier, if any.
	Depth       int             // Call depth after execution.
	Bank        *register.Bank  // Register bank, start and end of the instruction.
}

// Tracer receives every successfully executed instruction.
type Tracer interface {
	Trace(step Step)
}

// Cpu is the instruction level simulation context.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory *memory.Memory // Main memory.
	Bank   *register.Bank // Register bank.
	Table  *pep.Table     // Instruction decode table.
	Burn   uint16         // Burn address of the operating system.

	Poller memory.Poller // Host event pump, polled while running.
	Tracer Tracer        // Instruction trace, may be nil.

	Breakpoints map[uint16]bool // Instruction addresses that pause Run.

	state     State
	err       error
	depth     int
	count     int
	cancelled bool
}

var _cpu_defines = map[string]string{
	"BURN_ADDRESS": fmt.Sprintf("0x%04x", pep.BURN_ADDRESS),
	"CHAR_IN":      fmt.Sprintf("0x%04x", pep.CHAR_IN),
	"CHAR_OUT":     fmt.Sprintf("0x%04x", pep.CHAR_OUT),
}

// NewCpu creates a CPU on a memory, with the standard Pep/9 table and burn
// address.
func NewCpu(mem *memory.Memory) (cpu *Cpu) {
	cpu = &Cpu{
		Memory:      mem,
		Bank:        register.NewBank(),
		Table:       pep.Pep9,
		Burn:        pep.BURN_ADDRESS,
		Breakpoints: map[uint16]bool{},
	}

	return
}

// Defines for the cpu.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// State of execution.
func (cpu *Cpu) State() State {
	return cpu.state
}

// Err returns the error that stopped the CPU, or nil.
func (cpu *Cpu) Err() error {
	return cpu.err
}

// HadError is true once the CPU has failed.
func (cpu *Cpu) HadError() bool {
	return cpu.err != nil
}

// ErrorMessage describes the failure, or is empty.
func (cpu *Cpu) ErrorMessage() string {
	if cpu.err == nil {
		return ""
	}
	return cpu.err.Error()
}

// Depth is the current call depth.
func (cpu *Cpu) Depth() int {
	return cpu.depth
}

// Count is the number of instructions executed since reset.
func (cpu *Cpu) Count() int {
	return cpu.count
}

// Pc returns the program counter.
func (cpu *Cpu) Pc() uint16 {
	return cpu.Bank.Word(register.REG_PC)
}

// SetBreakpoint adds or removes a breakpoint address.
func (cpu *Cpu) SetBreakpoint(address uint16, enable bool) {
	if enable {
		cpu.Breakpoints[address] = true
	} else {
		delete(cpu.Breakpoints, address)
	}
}

// BreakpointList returns the sorted breakpoint addresses.
func (cpu *Cpu) BreakpointList() []uint16 {
	return slices.Sorted(maps.Keys(cpu.Breakpoints))
}

// Reset the CPU.
// - Clears registers, status bits and the error state.
// - Loads SP from the user stack vector and sets PC to 0.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("isa: reset")
	}

	cpu.Bank.Clear()
	cpu.Memory.ClearErrors()
	cpu.Memory.ClearWritten()

	cpu.state = STATE_READY
	cpu.err = nil
	cpu.depth = 0
	cpu.count = 0
	cpu.cancelled = false

	sp := cpu.Memory.Word(pep.Vector(cpu.Burn, pep.VECTOR_USER_STACK))
	cpu.Bank.SetWord(register.REG_SP, sp)
	cpu.Bank.SnapshotStart()
}

// Cancel stops a Run at the next instruction boundary, and releases a
// pending wait for input.
func (cpu *Cpu) Cancel() {
	cpu.cancelled = true
	cpu.Memory.CancelInputWait()
}

// CanStepInto is true if the next instruction is a CALL or a trap.
func (cpu *Cpu) CanStepInto() bool {
	if cpu.Table == nil {
		return false
	}
	in := cpu.Table.Decode(cpu.Memory.Byte(cpu.Pc()))
	return in.Mnemonic.IsCall() && in.Kind != pep.KIND_OTHER
}

func (cpu *Cpu) fail(err error) error {
	cpu.state = STATE_ERRORED
	cpu.err = err
	if cpu.Verbose {
		log.Printf("isa: %v", err)
	}
	return err
}

// Step executes one instruction.
func (cpu *Cpu) Step() (err error) {
	if cpu.state.IsTerminal() {
		if cpu.err != nil {
			return cpu.err
		}
		return ErrFinished
	}
	if cpu.Table == nil {
		return cpu.fail(ErrNoTable)
	}

	bank := cpu.Bank
	bank.SnapshotStart()

	pc := bank.Word(register.REG_PC)
	addr := pc

	var in pep.Instruction
	defer func() {
		if err != nil {
			err = cpu.fail(&ErrStep{Address: addr, Instruction: in, Err: err})
		}
	}()

	spec, err := cpu.Memory.ReadByte(pc)
	if err != nil {
		return
	}
	in = cpu.Table.Decode(spec)
	bank.SetByte(register.REG_IS, spec)
	pc++

	var operand uint16
	if in.HasOperand() {
		operand, err = cpu.Memory.ReadWord(pc)
		if err != nil {
			return
		}
		bank.SetWord(register.REG_OS, operand)
		pc += 2
	}
	bank.SetWord(register.REG_PC, pc)

	if cpu.Verbose {
		log.Printf("isa: 0x%04x %v 0x%04x", addr, in, operand)
	}

	switch in.Kind {
	case pep.KIND_TRAP:
		err = cpu.trap()
	case pep.KIND_UNARY:
		err = cpu.unary(in.Mnemonic)
	case pep.KIND_NONUNARY:
		err = cpu.nonUnary(in, operand)
	default:
		err = ErrIllegal
	}
	if err != nil {
		return
	}

	// Writes may have failed without a caller seeing the error.
	if cpu.Memory.HadError() {
		err = cpu.Memory.Err()
		return
	}

	cpu.count++

	if cpu.Tracer != nil {
		cpu.Tracer.Trace(Step{
			Address:     addr,
			Instruction: in,
			Operand:     operand,
			Depth:       cpu.depth,
			Bank:        bank,
		})
	}

	return
}

// stopped is true when a multi-step operation must not continue.
func (cpu *Cpu) stopped() bool {
	if cpu.state.IsTerminal() {
		return true
	}
	if cpu.Breakpoints[cpu.Pc()] {
		cpu.state = STATE_BREAKPOINT
		return true
	}
	return false
}

// StepInto executes exactly one instruction.
func (cpu *Cpu) StepInto() (err error) {
	cpu.Memory.ClearWritten()
	if !cpu.state.IsTerminal() {
		cpu.state = STATE_READY
	}
	return cpu.Step()
}

// StepOver executes one instruction, and if it was a CALL or trap, runs
// until the callee returns. Like Run, it polls the host every
// YIELD_INTERVAL instructions and stops with ErrCancelled.
func (cpu *Cpu) StepOver(ctx context.Context) (err error) {
	return cpu.stepWhile(ctx, func(depth, start int) bool { return depth > start })
}

// StepOut runs until the current subroutine returns.
func (cpu *Cpu) StepOut(ctx context.Context) (err error) {
	return cpu.stepWhile(ctx, func(depth, start int) bool { return depth >= start })
}

func (cpu *Cpu) stepWhile(ctx context.Context, deeper func(depth, start int) bool) (err error) {
	cpu.Memory.ClearWritten()
	if !cpu.state.IsTerminal() {
		cpu.state = STATE_READY
	}
	cpu.cancelled = false

	start := cpu.depth
	for first := true; ; first = false {
		if !first && cpu.count%YIELD_INTERVAL == 0 {
			err = cpu.poll(ctx)
			if err != nil {
				return
			}
		}

		err = cpu.Step()
		if err != nil {
			return
		}
		if !deeper(cpu.depth, start) || cpu.stopped() {
			return
		}
	}
}

// poll yields to the host, and reports a cancellation.
func (cpu *Cpu) poll(ctx context.Context) (err error) {
	if cpu.Poller != nil {
		cpu.Poller.Poll()
	}
	if ctx.Err() != nil {
		cpu.cancelled = true
	}
	if cpu.cancelled {
		cpu.cancelled = false
		cpu.state = STATE_READY
		err = ErrCancelled
		if cpu.Verbose {
			log.Printf("isa: cancelled at 0x%04x", cpu.Pc())
		}
	}
	return
}

// Run executes until STOP, an error, a breakpoint or a cancellation. The
// first instruction always executes, so a Run paused on a breakpoint
// resumes from it. The host is polled every YIELD_INTERVAL instructions.
func (cpu *Cpu) Run(ctx context.Context) (err error) {
	if cpu.state.IsTerminal() {
		return cpu.Step()
	}

	cpu.Memory.ClearWritten()
	cpu.state = STATE_RUNNING
	cpu.cancelled = false

	for first := true; ; first = false {
		if !first && cpu.Breakpoints[cpu.Pc()] {
			cpu.state = STATE_BREAKPOINT
			if cpu.Verbose {
				log.Printf("isa: breakpoint at 0x%04x", cpu.Pc())
			}
			return
		}

		if cpu.count%YIELD_INTERVAL == 0 {
			err = cpu.poll(ctx)
			if err != nil {
				return
			}
		}

		err = cpu.Step()
		if err != nil {
			return
		}
		if cpu.state == STATE_FINISHED {
			return
		}
		if cpu.cancelled {
			err = cpu.poll(ctx)
			return
		}
	}
}
