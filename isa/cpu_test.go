package isa

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/pep9/memory"
	"github.com/ezrec/pep9/pep"
	"github.com/ezrec/pep9/register"
)

type op struct {
	mn   pep.Mnemonic
	mode pep.AddrMode
	spec uint16
}

func unary(mn pep.Mnemonic) op {
	return op{mn: mn}
}

func assemble(ops ...op) (code []uint8) {
	for _, o := range ops {
		spec, ok := pep.Pep9.Encode(o.mn, o.mode)
		if !ok {
			panic(fmt.Sprintf("no encoding for %v,%v", o.mn, o.mode))
		}
		code = append(code, spec)
		if o.mode != pep.ADDR_NONE {
			code = append(code, uint8(o.spec>>8), uint8(o.spec))
		}
	}
	return
}

func newCpu(code []uint8) (cpu *Cpu) {
	mem := memory.NewMemory(memory.DefaultSize)
	mem.LoadObjectCode(0, code)
	cpu = NewCpu(mem)
	cpu.Reset()
	return
}

type pollFunc func()

func (pf pollFunc) Poll() { pf() }

type traceList []Step

func (tl *traceList) Trace(step Step) {
	*tl = append(*tl, step)
}

func TestCpu_Program(t *testing.T) {
	assert := assert.New(t)

	cpu := newCpu(assemble(
		op{pep.LDWA, pep.ADDR_I, 0x1234},
		op{pep.ADDA, pep.ADDR_I, 0x0001},
		op{pep.STWA, pep.ADDR_D, 0x0100},
		unary(pep.STOP),
	))

	trace := &traceList{}
	cpu.Tracer = trace

	err := cpu.Run(context.Background())
	assert.NoError(err)
	assert.Equal(STATE_FINISHED, cpu.State())
	assert.Equal(uint16(0x1235), cpu.Memory.Word(0x0100))
	assert.Equal(uint16(0x000A), cpu.Pc())
	assert.Equal(4, cpu.Count())
	assert.Len(*trace, 4)
	assert.Equal(uint16(0x0006), (*trace)[2].Address)
	assert.Equal(pep.STWA, (*trace)[2].Instruction.Mnemonic)

	err = cpu.Step()
	assert.ErrorIs(err, ErrFinished)

	cpu.Reset()
	assert.Equal(STATE_READY, cpu.State())
	assert.Equal(uint16(0), cpu.Pc())
	assert.Equal(0, cpu.Count())
}

func TestCpu_Unary(t *testing.T) {
	type entry struct {
		mn        pep.Mnemonic
		a, x, sp  uint16
		status    uint8
		expectA   uint16
		expectX   uint16
		expectNZV uint8
	}

	const (
		N = pep.N_MASK
		Z = pep.Z_MASK
		V = pep.V_MASK
		C = pep.C_MASK
		S = pep.S_MASK
	)

	table := [...]entry{
		{pep.NOTA, 0x00FF, 0, 0, V | C, 0xFF00, 0, N | V | C},
		{pep.NOTX, 0, 0xFFFF, 0, N, 0, 0x0000, Z},
		{pep.NEGA, 0x8000, 0, 0, 0, 0x8000, 0, N | V},
		{pep.NEGA, 0x0001, 0, 0, C, 0xFFFF, 0, N | C},
		{pep.NEGX, 0, 0x0000, 0, N, 0, 0x0000, Z},
		{pep.ASLA, 0x4000, 0, 0, C, 0x8000, 0, N | V},
		{pep.ASLA, 0x8001, 0, 0, 0, 0x0002, 0, V | C},
		{pep.ASLX, 0, 0x0001, 0, 0, 0, 0x0002, 0},
		{pep.ASRA, 0x8003, 0, 0, V, 0xC001, 0, N | V | C},
		{pep.ASRX, 0, 0x0001, 0, 0, 0, 0x0000, Z | C},
		{pep.ROLA, 0x8000, 0, 0, Z | C, 0x0001, 0, Z | C},
		{pep.ROLX, 0, 0x4000, 0, C, 0, 0x8001, 0},
		{pep.RORA, 0x0001, 0, 0, 0, 0x0000, 0, C},
		{pep.RORX, 0, 0x0002, 0, C | N, 0, 0x8001, N},
		{pep.MOVFLGA, 0xFFFF, 0, 0, N | C | S, 0x0009, 0, N | C | S},
		{pep.MOVAFLG, 0xFFF6, 0, 0, S | N, 0xFFF6, 0, Z | V | S},
		{pep.MOVSPA, 0, 0, 0x1234, 0, 0x1234, 0, 0},
	}

	for _, e := range table {
		t.Run(e.mn.String(), func(t *testing.T) {
			assert := assert.New(t)

			cpu := newCpu(assemble(unary(e.mn)))
			cpu.Bank.SetWord(register.REG_A, e.a)
			cpu.Bank.SetWord(register.REG_X, e.x)
			cpu.Bank.SetWord(register.REG_SP, e.sp)
			cpu.Bank.SetStatusBits(0xFF, e.status)

			assert.NoError(cpu.Step())
			assert.Equal(e.expectA, cpu.Bank.Word(register.REG_A), "A")
			assert.Equal(e.expectX, cpu.Bank.Word(register.REG_X), "X")
			assert.Equal(e.expectNZV, cpu.Bank.Status(), "%v != %v",
				pep.FormatStatus(e.expectNZV), pep.FormatStatus(cpu.Bank.Status()))
			assert.Equal(e.status, cpu.Bank.StartStatus())
			assert.Equal(uint16(1), cpu.Pc())
		})
	}
}

func TestCpu_NonUnary(t *testing.T) {
	type entry struct {
		name     string
		code     op
		a, x, sp uint16
		status   uint8
		expectA  uint16
		expectX  uint16
		expectSP uint16
		expect   uint8
	}

	const (
		N = pep.N_MASK
		Z = pep.Z_MASK
		V = pep.V_MASK
		C = pep.C_MASK
	)

	table := [...]entry{
		{"add-overflow", op{pep.ADDA, pep.ADDR_I, 1}, 0x7FFF, 0, 0, 0, 0x8000, 0, 0, N | V},
		{"add-carry", op{pep.ADDA, pep.ADDR_I, 1}, 0xFFFF, 0, 0, 0, 0x0000, 0, 0, Z | C},
		{"sub-borrow", op{pep.SUBA, pep.ADDR_I, 1}, 0, 0, 0, 0, 0xFFFF, 0, 0, N},
		{"sub-zero", op{pep.SUBX, pep.ADDR_I, 1}, 0, 1, 0, 0, 0, 0, 0, Z | C},
		{"and", op{pep.ANDA, pep.ADDR_I, 0x0F0F}, 0xFF00, 0, 0, C, 0x0F00, 0, 0, C},
		{"or", op{pep.ORX, pep.ADDR_I, 0x8000}, 0, 1, 0, 0, 0, 0x8001, 0, N},
		{"cpw-less", op{pep.CPWA, pep.ADDR_I, 5}, 3, 0, 0, 0, 3, 0, 0, N},
		{"cpw-overflow", op{pep.CPWA, pep.ADDR_I, 1}, 0x8000, 0, 0, 0, 0x8000, 0, 0, N | V | C},
		{"cpw-equal", op{pep.CPWX, pep.ADDR_I, 7}, 0, 7, 0, 0, 0, 7, 0, Z | C},
		{"cpb", op{pep.CPBA, pep.ADDR_I, 0x41}, 0x1241, 0, 0, V | C, 0x1241, 0, 0, Z},
		{"cpb-negative", op{pep.CPBX, pep.ADDR_I, 0x01}, 0, 0x0000, 0, 0, 0, 0, 0, N},
		{"ldw", op{pep.LDWA, pep.ADDR_I, 0}, 0x1234, 0, 0, N, 0, 0, 0, Z},
		{"ldb", op{pep.LDBA, pep.ADDR_I, 0x80}, 0x1234, 0, 0, N | C, 0x1280, 0, 0, C},
		{"ldb-zero", op{pep.LDBX, pep.ADDR_I, 0x0100}, 0, 0xFF12, 0, 0, 0, 0xFF00, 0, Z},
		{"addsp", op{pep.ADDSP, pep.ADDR_I, 4}, 0, 0, 0xFFFE, 0, 0, 0, 0x0002, C},
		{"subsp", op{pep.SUBSP, pep.ADDR_I, 2}, 0, 0, 0x0100, 0, 0, 0, 0x00FE, C},
	}

	for _, e := range table {
		t.Run(e.name, func(t *testing.T) {
			assert := assert.New(t)

			cpu := newCpu(assemble(e.code))
			cpu.Bank.SetWord(register.REG_A, e.a)
			cpu.Bank.SetWord(register.REG_X, e.x)
			cpu.Bank.SetWord(register.REG_SP, e.sp)
			cpu.Bank.SetStatusBits(0xFF, e.status)

			assert.NoError(cpu.Step())
			assert.Equal(e.expectA, cpu.Bank.Word(register.REG_A), "A")
			assert.Equal(e.expectX, cpu.Bank.Word(register.REG_X), "X")
			assert.Equal(e.expectSP, cpu.Bank.Word(register.REG_SP), "SP")
			assert.Equal(e.expect, cpu.Bank.Status(), "%v != %v",
				pep.FormatStatus(e.expect), pep.FormatStatus(cpu.Bank.Status()))
			assert.Equal(uint16(3), cpu.Pc())
		})
	}
}

func TestCpu_Branch(t *testing.T) {
	type entry struct {
		mn     pep.Mnemonic
		status uint8
		taken  bool
	}

	const (
		N = pep.N_MASK
		Z = pep.Z_MASK
		V = pep.V_MASK
		C = pep.C_MASK
	)

	table := [...]entry{
		{pep.BR, 0, true},
		{pep.BRLE, 0, false},
		{pep.BRLE, Z, true},
		{pep.BRLE, N, true},
		{pep.BRLT, N, true},
		{pep.BRLT, Z, false},
		{pep.BREQ, Z, true},
		{pep.BREQ, 0, false},
		{pep.BRNE, 0, true},
		{pep.BRNE, Z, false},
		{pep.BRGE, 0, true},
		{pep.BRGE, N, false},
		{pep.BRGT, 0, true},
		{pep.BRGT, Z, false},
		{pep.BRV, V, true},
		{pep.BRV, C, false},
		{pep.BRC, C, true},
		{pep.BRC, V, false},
	}

	for _, e := range table {
		t.Run(fmt.Sprintf("%v-%v", e.mn, pep.FormatStatus(e.status)), func(t *testing.T) {
			assert := assert.New(t)

			cpu := newCpu(assemble(op{e.mn, pep.ADDR_I, 0x0100}))
			cpu.Bank.SetStatusBits(0xFF, e.status)
			assert.NoError(cpu.Step())
			if e.taken {
				assert.Equal(uint16(0x0100), cpu.Pc())
			} else {
				assert.Equal(uint16(0x0003), cpu.Pc())
			}
			assert.Equal(e.status, cpu.Bank.Status())
		})
	}

	// Indexed branches go through a jump table.
	assert := assert.New(t)
	cpu := newCpu(assemble(op{pep.BR, pep.ADDR_X, 0x0200}))
	cpu.Memory.WriteWord(0x0204, 0x0ABC)
	cpu.Bank.SetWord(register.REG_X, 4)
	assert.NoError(cpu.Step())
	assert.Equal(uint16(0x0ABC), cpu.Pc())
}

func TestCpu_EffectiveAddress(t *testing.T) {
	cpu := newCpu(nil)
	cpu.Bank.SetWord(register.REG_SP, 0x0200)
	cpu.Bank.SetWord(register.REG_X, 0x0004)
	cpu.Memory.WriteWord(0x0010, 0x0300)
	cpu.Memory.WriteWord(0x0210, 0x0400)

	table := map[pep.AddrMode]uint16{
		pep.ADDR_D:   0x0010,
		pep.ADDR_N:   0x0300,
		pep.ADDR_S:   0x0210,
		pep.ADDR_SF:  0x0400,
		pep.ADDR_X:   0x0014,
		pep.ADDR_SX:  0x0214,
		pep.ADDR_SFX: 0x0404,
	}

	for mode, expect := range table {
		t.Run(mode.String(), func(t *testing.T) {
			address, err := cpu.EffectiveAddress(mode, 0x0010)
			assert.NoError(t, err)
			assert.Equal(t, expect, address)
		})
	}

	_, err := cpu.EffectiveAddress(pep.ADDR_I, 0x0010)
	assert.ErrorIs(t, err, ErrOperand)
}

func TestCpu_DeferredPointerRead(t *testing.T) {
	type entry struct {
		mode    pep.AddrMode
		spec    uint16
		address uint16
	}

	// The pointer is read from the input port pair, so every byte of the
	// pointer read consumes one byte of input.
	table := [...]entry{
		{pep.ADDR_N, 0xFC14, 0x0100},
		{pep.ADDR_SF, 0x0014, 0x0100},
		{pep.ADDR_SFX, 0x0014, 0x0102},
	}

	for _, e := range table {
		t.Run(e.mode.String(), func(t *testing.T) {
			assert := assert.New(t)

			cpu := newCpu(assemble(op{pep.LDWA, e.mode, e.spec}))
			cpu.Bank.SetWord(register.REG_SP, 0xFC00)
			cpu.Bank.SetWord(register.REG_X, 0x0002)
			cpu.Memory.WriteWord(0x0100, 0x1234)
			cpu.Memory.WriteWord(0x0102, 0x5678)
			cpu.Memory.AppendInput("\x01\x00rest")

			assert.NoError(cpu.Step())
			assert.Equal(4, cpu.Memory.Pending())
			assert.Equal(cpu.Memory.Word(e.address), cpu.Bank.Word(register.REG_A))
		})
	}
}

func TestCpu_MemoryOperands(t *testing.T) {
	assert := assert.New(t)

	cpu := newCpu(assemble(
		op{pep.LDWA, pep.ADDR_D, 0x0100},
		op{pep.LDBX, pep.ADDR_D, 0x0101},
		op{pep.STWA, pep.ADDR_S, 0x0002},
		op{pep.STBX, pep.ADDR_SFX, 0x0000},
		unary(pep.STOP),
	))
	cpu.Memory.WriteWord(0x0100, 0xBEEF)
	cpu.Memory.WriteWord(0x0300, 0x0400)
	cpu.Bank.SetWord(register.REG_SP, 0x0300)

	assert.NoError(cpu.Run(context.Background()))
	assert.Equal(uint16(0xBEEF), cpu.Bank.Word(register.REG_A))
	assert.Equal(uint16(0x00EF), cpu.Bank.Word(register.REG_X))
	assert.Equal(uint16(0xBEEF), cpu.Memory.Word(0x0302))
	assert.Equal(uint8(0xEF), cpu.Memory.Byte(0x04EF))
}

func TestCpu_StoreImmediate(t *testing.T) {
	assert := assert.New(t)

	cpu := newCpu(assemble(op{pep.STWA, pep.ADDR_I, 0x0100}))
	err := cpu.Step()
	assert.ErrorIs(err, ErrStoreMode)
	assert.Equal(STATE_ERRORED, cpu.State())

	var step *ErrStep
	assert.True(errors.As(err, &step))
	assert.Equal(uint16(0), step.Address)
	assert.Contains(cpu.ErrorMessage(), "STWA,i")
}

func TestCpu_DeferredFailure(t *testing.T) {
	assert := assert.New(t)

	mem := memory.NewMemory(0x100)
	mem.LoadObjectCode(0, assemble(op{pep.LDWA, pep.ADDR_N, 0x00FF}))
	cpu := NewCpu(mem)
	cpu.Reset()

	err := cpu.Step()
	assert.ErrorIs(err, ErrOperand)
	assert.ErrorIs(err, memory.ErrOutOfBounds)
	assert.True(cpu.HadError())
	assert.Equal(STATE_ERRORED, cpu.State())

	// Errors are terminal until reset.
	assert.Equal(err, cpu.Step())
	cpu.Reset()
	assert.False(cpu.HadError())
}

func TestCpu_Illegal(t *testing.T) {
	assert := assert.New(t)

	cpu := newCpu([]uint8{0x00})
	cpu.Table = &pep.Table{}
	assert.ErrorIs(cpu.Step(), ErrIllegal)

	cpu = newCpu(nil)
	cpu.Table = nil
	assert.ErrorIs(cpu.Step(), ErrNoTable)
}

func TestCpu_Trap(t *testing.T) {
	assert := assert.New(t)

	const (
		stack   = uint16(0xFB8F)
		handler = uint16(0x1000)
	)

	cpu := newCpu(assemble(unary(pep.NOP0)))
	cpu.Memory.WriteWord(pep.Vector(cpu.Burn, pep.VECTOR_SYSTEM_STACK), stack)
	cpu.Memory.WriteWord(pep.Vector(cpu.Burn, pep.VECTOR_TRAP), handler)
	cpu.Memory.LoadObjectCode(handler, assemble(unary(pep.RETTR)))

	cpu.Bank.SetWord(register.REG_A, 0x1111)
	cpu.Bank.SetWord(register.REG_X, 0x2222)
	cpu.Bank.SetWord(register.REG_SP, 0x3333)
	cpu.Bank.SetStatusBits(0xFF, pep.N_MASK|pep.V_MASK|pep.S_MASK)

	assert.True(cpu.CanStepInto())
	assert.NoError(cpu.Step())

	mem := cpu.Memory
	assert.Equal(uint8(0x26), mem.Byte(stack-1))
	assert.Equal(uint16(0x3333), mem.Word(stack-3))
	assert.Equal(uint16(0x0001), mem.Word(stack-5))
	assert.Equal(uint16(0x2222), mem.Word(stack-7))
	assert.Equal(uint16(0x1111), mem.Word(stack-9))
	assert.Equal(pep.N_MASK|pep.V_MASK, mem.Byte(stack-10))

	assert.Equal(stack-10, cpu.Bank.Word(register.REG_SP))
	assert.Equal(handler, cpu.Pc())
	assert.Equal(uint16(0), cpu.Bank.Word(register.REG_X))
	assert.Equal(1, cpu.Depth())

	cpu.Bank.SetWord(register.REG_A, 0)
	cpu.Bank.SetStatusBits(pep.NZVC_MASK, pep.Z_MASK)

	assert.NoError(cpu.Step())
	assert.Equal(uint16(0x1111), cpu.Bank.Word(register.REG_A))
	assert.Equal(uint16(0x2222), cpu.Bank.Word(register.REG_X))
	assert.Equal(uint16(0x3333), cpu.Bank.Word(register.REG_SP))
	assert.Equal(uint16(0x0001), cpu.Pc())
	assert.Equal(pep.N_MASK|pep.V_MASK|pep.S_MASK, cpu.Bank.Status())
	assert.Equal(0, cpu.Depth())
}

func TestCpu_TrapOperand(t *testing.T) {
	assert := assert.New(t)

	cpu := newCpu(assemble(op{pep.DECI, pep.ADDR_D, 0x0100}))
	cpu.Memory.WriteWord(pep.Vector(cpu.Burn, pep.VECTOR_SYSTEM_STACK), 0xFB8F)

	assert.NoError(cpu.Step())
	assert.Equal(uint8(0x31), cpu.Memory.Byte(0xFB8E))
	assert.Equal(uint16(0x0003), cpu.Memory.Word(0xFB8A))
	assert.Equal(uint16(0x0100), cpu.Bank.Word(register.REG_OS))
}

// callProgram calls a subroutine at 0x0010 that loads X and returns.
func callProgram() *Cpu {
	code := assemble(
		op{pep.CALL, pep.ADDR_I, 0x0010},
		op{pep.LDWA, pep.ADDR_I, 0x0005},
		unary(pep.STOP),
	)
	code = append(code, make([]uint8, 0x10-len(code))...)
	code = append(code, assemble(
		op{pep.LDWX, pep.ADDR_I, 0x0009},
		unary(pep.RET),
	)...)

	cpu := newCpu(code)
	cpu.Bank.SetWord(register.REG_SP, 0x0F00)
	return cpu
}

func TestCpu_StepOver(t *testing.T) {
	assert := assert.New(t)

	cpu := callProgram()
	assert.True(cpu.CanStepInto())

	assert.NoError(cpu.StepOver(context.Background()))
	assert.Equal(uint16(0x0003), cpu.Pc())
	assert.Equal(uint16(0x0009), cpu.Bank.Word(register.REG_X))
	assert.Equal(uint16(0x0F00), cpu.Bank.Word(register.REG_SP))
	assert.Equal(0, cpu.Depth())
	assert.Equal(3, cpu.Count())
	assert.False(cpu.CanStepInto())

	// Over a plain instruction is a single step.
	assert.NoError(cpu.StepOver(context.Background()))
	assert.Equal(uint16(0x0006), cpu.Pc())
	assert.Equal(4, cpu.Count())
}

func TestCpu_StepInto(t *testing.T) {
	assert := assert.New(t)

	cpu := callProgram()
	assert.NoError(cpu.StepInto())
	assert.Equal(uint16(0x0010), cpu.Pc())
	assert.Equal(1, cpu.Depth())
	assert.Equal(uint16(0x0003), cpu.Memory.Word(0x0EFE))
	// The high byte of the return address was already zero.
	assert.Equal([]uint16{0x0EFF}, cpu.Memory.Written())

	assert.NoError(cpu.StepOut(context.Background()))
	assert.Equal(uint16(0x0003), cpu.Pc())
	assert.Equal(0, cpu.Depth())
	assert.Equal(3, cpu.Count())
}

func TestCpu_StepOverBreakpoint(t *testing.T) {
	assert := assert.New(t)

	cpu := callProgram()
	cpu.SetBreakpoint(0x0013, true)

	assert.NoError(cpu.StepOver(context.Background()))
	assert.Equal(STATE_BREAKPOINT, cpu.State())
	assert.Equal(uint16(0x0013), cpu.Pc())
	assert.Equal(1, cpu.Depth())

	assert.NoError(cpu.Run(context.Background()))
	assert.Equal(STATE_FINISHED, cpu.State())
}

func TestCpu_RunBreakpoint(t *testing.T) {
	assert := assert.New(t)

	cpu := callProgram()
	cpu.SetBreakpoint(0x0003, true)
	cpu.SetBreakpoint(0x0100, true)
	assert.Equal([]uint16{0x0003, 0x0100}, cpu.BreakpointList())
	cpu.SetBreakpoint(0x0100, false)

	assert.NoError(cpu.Run(context.Background()))
	assert.Equal(STATE_BREAKPOINT, cpu.State())
	assert.Equal(uint16(0x0003), cpu.Pc())
	assert.Equal(3, cpu.Count())

	// Resuming continues from the breakpoint.
	assert.NoError(cpu.Run(context.Background()))
	assert.Equal(STATE_FINISHED, cpu.State())
	assert.Equal(uint16(0x0005), cpu.Bank.Word(register.REG_A))
	assert.Equal(5, cpu.Count())
}

func TestCpu_RunCancel(t *testing.T) {
	assert := assert.New(t)

	cpu := newCpu(assemble(op{pep.BR, pep.ADDR_I, 0x0000}))

	polls := 0
	cpu.Poller = pollFunc(func() {
		polls++
		if polls == 3 {
			cpu.Cancel()
		}
	})

	err := cpu.Run(context.Background())
	assert.ErrorIs(err, ErrCancelled)
	assert.Equal(STATE_READY, cpu.State())
	assert.Equal(2*YIELD_INTERVAL, cpu.Count())
	assert.False(cpu.HadError())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cpu.Poller = nil
	err = cpu.Run(ctx)
	assert.ErrorIs(err, ErrCancelled)
	assert.Equal(2*YIELD_INTERVAL, cpu.Count())
}

func TestCpu_StepOverCancel(t *testing.T) {
	assert := assert.New(t)

	// The callee never returns.
	cpu := newCpu(assemble(
		op{pep.CALL, pep.ADDR_I, 0x0004},
		unary(pep.STOP),
		op{pep.BR, pep.ADDR_I, 0x0004},
	))

	polls := 0
	cpu.Poller = pollFunc(func() {
		polls++
		if polls == 3 {
			cpu.Cancel()
		}
	})

	err := cpu.StepOver(context.Background())
	assert.ErrorIs(err, ErrCancelled)
	assert.Equal(STATE_READY, cpu.State())
	assert.Equal(3*YIELD_INTERVAL, cpu.Count())
	assert.Equal(1, cpu.Depth())
	assert.False(cpu.HadError())

	// StepOut stops on a cancelled context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cpu.Poller = nil
	err = cpu.StepOut(ctx)
	assert.ErrorIs(err, ErrCancelled)
	assert.Equal(4*YIELD_INTERVAL, cpu.Count())
	assert.Equal(uint16(0x0004), cpu.Pc())
}

func TestCpu_Input(t *testing.T) {
	assert := assert.New(t)

	cpu := newCpu(assemble(
		op{pep.LDBA, pep.ADDR_D, pep.CHAR_IN},
		op{pep.STBA, pep.ADDR_D, pep.CHAR_OUT},
		unary(pep.STOP),
	))

	var output []uint8
	cpu.Memory.Listener = outputFunc(func(value uint8) {
		output = append(output, value)
	})

	cpu.Poller = pollFunc(func() {
		cpu.Memory.AppendInput("H")
	})

	assert.NoError(cpu.Run(context.Background()))
	assert.Equal(uint16(0x0048), cpu.Bank.Word(register.REG_A))
	assert.Equal([]uint8("H"), output)
}

func TestCpu_InputCancelled(t *testing.T) {
	assert := assert.New(t)

	cpu := newCpu(assemble(op{pep.LDBA, pep.ADDR_D, pep.CHAR_IN}))

	err := cpu.Run(context.Background())
	assert.ErrorIs(err, memory.ErrNoInput)
	assert.Equal(STATE_ERRORED, cpu.State())
	assert.True(cpu.Memory.HadError())
}

type outputFunc func(value uint8)

func (of outputFunc) MemoryChanged(address uint16, old, new uint8) {}
func (of outputFunc) CharacterOutput(value uint8)                  { of(value) }
func (of outputFunc) InputRequested()                              {}

func TestState_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("BreakpointHit", STATE_BREAKPOINT.String())
	assert.Equal("?", State(10).String())
	assert.True(STATE_ERRORED.IsTerminal())
	assert.False(STATE_BREAKPOINT.IsTerminal())
}
