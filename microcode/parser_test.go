package microcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParser_Signals(t *testing.T) {
	assert := assert.New(t)

	ps := &Parser{Type: ONE_BYTE}

	vec, err := ps.ParseSignals("A=6, B=$(PC+1), MemRead; MARCk, NCk")
	assert.NoError(err)
	assert.Equal(6, vec.Control[CONTROL_A])
	assert.Equal(7, vec.Control[CONTROL_B])
	assert.Equal(1, vec.Control[CONTROL_MEMREAD])
	assert.Equal(DISABLED, vec.Control[CONTROL_C])
	assert.True(vec.Clock[CLOCK_MAR])
	assert.True(vec.Clock[CLOCK_N])
	assert.False(vec.Clock[CLOCK_Z])
	assert.Equal("A=6, B=7, MemRead=1; NCk, MARCk", vec.String())

	// Names ignore case.
	vec, err = ps.ParseSignals("amux=1, alu=0x0f; lOaDcK")
	assert.NoError(err)
	assert.Equal(1, vec.Control[CONTROL_AMUX])
	assert.Equal(15, vec.Control[CONTROL_ALU])
	assert.True(vec.Clock[CLOCK_LOAD])

	// The rendered form parses back to the same vector.
	again, err := ps.ParseSignals(vec.String())
	assert.NoError(err)
	assert.Equal(vec, again)
}

func TestParser_SignalErrors(t *testing.T) {
	type entry struct {
		typ  Type
		line string
		err  error
	}

	table := [...]entry{
		{ONE_BYTE, "A=32", ErrSignalRange},
		{ONE_BYTE, "C=22", ErrSignalRange},
		{ONE_BYTE, "ALU=16", ErrSignalRange},
		{ONE_BYTE, "AMux=2", ErrSignalRange},
		{ONE_BYTE, "A=-1", ErrSignalRange},
		{ONE_BYTE, "A=1, A=2", ErrSignalDuplicate},
		{ONE_BYTE, "; NCk, NCk", ErrSignalDuplicate},
		{ONE_BYTE, "MARMux=1", ErrSignalType},
		{ONE_BYTE, "; MDRECk", ErrSignalType},
		{TWO_BYTE, "MDRMux=1", ErrSignalType},
		{TWO_BYTE, "; MDRCk", ErrSignalType},
		{ONE_BYTE, "A", ErrSignalSyntax},
		{ONE_BYTE, "A=", ErrSignalSyntax},
		{ONE_BYTE, "MARCk; NCk", ErrSignalSyntax},
		{ONE_BYTE, "A=1; NCk; ZCk", ErrSignalSyntax},
		{ONE_BYTE, "; NCk=1", ErrClockValue},
		{ONE_BYTE, "Q=1", ErrSignalUnknown("Q")},
		{ONE_BYTE, "; QCk", ErrSignalUnknown("QCk")},
		{ONE_BYTE, "A=zero", ErrParseNumber("zero")},
	}

	for n, entry := range table {
		assert := assert.New(t)

		ps := &Parser{Type: entry.typ}
		_, err := ps.ParseSignals(entry.line)
		assert.ErrorIs(err, entry.err, "case %d: %v", n, entry.line)
	}
}

func TestParser_Parse(t *testing.T) {
	assert := assert.New(t)

	text := []string{
		"// Fetch the instruction specifier",
		"",
		".equ SPEC 0x0100",
		"UnitPre: PC=$(SPEC), Mem[SPEC]=0x12",
		"1. A=PC, B=$(PC+1); MARCk   // address",
		"2. MemRead",
		"3. MemRead",
		"4. MemRead, MDRMux=0; MDRCk",
		"5. AMux=0, ALU=0, CMux=1, C=8; LoadCk",
		"UnitPost: IS=0x12, Mem[0x0100]=0x12",
	}

	ps := &Parser{Type: ONE_BYTE}
	prog, err := ps.Parse(strings.NewReader(strings.Join(text, "\n")))
	assert.NoError(err)
	if err != nil {
		return
	}

	assert.Equal("0x0100", ps.Equate["SPEC"])
	assert.Equal(ONE_BYTE, prog.Type)
	assert.Equal(5, len(prog.Lines))
	assert.Equal(5, prog.Lines[0].LineNo)
	assert.Equal("1. A=PC, B=$(PC+1); MARCk", prog.Lines[0].Text)
	assert.Equal(6, prog.Lines[0].Vector.Control[CONTROL_A])
	assert.Equal(7, prog.Lines[0].Vector.Control[CONTROL_B])

	expected := []Unit{
		{Target: "PC", Kind: UNIT_REGISTER, Index: 6, Width: 2, Value: 0x0100},
		{Target: "Mem[0x0100]", Kind: UNIT_MEMORY, Index: 0x0100, Width: 1, Value: 0x12},
	}
	assert.Equal(expected, prog.Pre)
	assert.Equal(2, len(prog.Post))

	ds := newDataSection(ONE_BYTE)
	assert.NoError(prog.Run(ds))
}

func TestParser_Predefine(t *testing.T) {
	assert := assert.New(t)

	ps := &Parser{Type: TWO_BYTE}
	ps.Predefine("TEMP", "11")

	prog, err := ps.Parse(strings.NewReader("C=TEMP, CMux=0; LoadCk"))
	assert.NoError(err)
	if err == nil {
		assert.Equal(11, prog.Lines[0].Vector.Control[CONTROL_C])
	}

	// Predefines survive a new parse, .equ values do not.
	_, err = ps.Parse(strings.NewReader(".equ LOCAL 1"))
	assert.NoError(err)
	_, err = ps.Parse(strings.NewReader("A=LOCAL, B=TEMP"))
	assert.ErrorIs(err, ErrParseNumber("LOCAL"))
}

func TestParser_Units(t *testing.T) {
	type entry struct {
		line string
		unit Unit
		err  error
	}

	table := [...]entry{
		{"UnitPre: A=0x1234", Unit{"A", UNIT_REGISTER, 0, 2, 0x1234}, nil},
		{"UnitPre: ir=0x123456", Unit{"ir", UNIT_REGISTER, 8, 3, 0x123456}, nil},
		{"UnitPre: T1=0xff", Unit{"T1", UNIT_REGISTER, 11, 1, 0xff}, nil},
		{"UnitPre: C=1", Unit{"C", UNIT_STATUS, 3, 1, 1}, nil},
		{"UnitPre: MARB=7", Unit{"MARB", UNIT_MEMORY_REGISTER, int(MEM_MARB), 1, 7}, nil},
		{"UnitPre: Mem[0x10]=0x0012", Unit{"Mem[0x10]", UNIT_MEMORY, 0x10, 2, 0x12}, nil},
		{"UnitPre: mem[16]=300", Unit{"mem[16]", UNIT_MEMORY, 0x10, 2, 300}, nil},
		{"UnitPre: Mem[16]=255", Unit{"Mem[16]", UNIT_MEMORY, 0x10, 1, 255}, nil},
		{"UnitPre: T1=0x100", Unit{}, ErrUnitValue},
		{"UnitPre: N=2", Unit{}, ErrUnitValue},
		{"UnitPre: M1=0", Unit{}, ErrUnitTarget("M1")},
		{"UnitPre: Q=0", Unit{}, ErrUnitTarget("Q")},
		{"UnitPre: Mem[0x10000]=0", Unit{}, ErrParseNumber("0x10000")},
		{"UnitPre: A", Unit{}, ErrUnitSyntax},
		{"UnitPost: A=", Unit{}, ErrUnitSyntax},
	}

	for n, entry := range table {
		assert := assert.New(t)

		ps := &Parser{}
		prog, err := ps.Parse(strings.NewReader(entry.line))
		if entry.err != nil {
			assert.ErrorIs(err, entry.err, "case %d: %v", n, entry.line)
			var syntax *ErrSyntax
			if assert.True(errors.As(err, &syntax), "case %d", n) {
				assert.Equal(1, syntax.LineNo)
			}
			continue
		}
		if !assert.NoError(err, "case %d: %v", n, entry.line) {
			continue
		}
		assert.Equal([]Unit{entry.unit}, prog.Pre, "case %d", n)
	}
}

func TestParser_EquateErrors(t *testing.T) {
	assert := assert.New(t)

	ps := &Parser{}

	_, err := ps.Parse(strings.NewReader(".equ A"))
	assert.ErrorIs(err, ErrEquateSyntax)

	_, err = ps.Parse(strings.NewReader(".equ ONE 1\n.equ ONE 2"))
	assert.ErrorIs(err, ErrEquateDuplicate)

	// Register names are already defined.
	_, err = ps.Parse(strings.NewReader(".equ PC 1"))
	assert.ErrorIs(err, ErrEquateDuplicate)

	_, err = ps.Parse(strings.NewReader("A=$(1 +)"))
	assert.Error(err)

	_, err = ps.Parse(strings.NewReader("A=$('x')"))
	assert.ErrorIs(err, ErrParseExpression("'x'"))
}
