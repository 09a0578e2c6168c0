package microcode

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/pep9/internal"
	"github.com/ezrec/pep9/register"
)

// Parser reads microcode text into a Program.
//
// Each line holds the control signals, a semicolon, then the clock
// signals to pulse:
//
//	1. A=6, B=7; MARCk               // optional line number
//	MemRead, A=$(PC+1), B=$(PC+1); MDRCk
//	UnitPre: A=0x1234, N=1, Mem[0x0100]=0xAB
//	UnitPost: X=0x0005, MDR=0x12
//
// Comments start with '//'. Expressions in $(...) are evaluated with the
// register names bound to their bank offsets, and with any .equ values.
type Parser struct {
	Verbose bool              // If set, verbosely logs the parser actions.
	Type    Type              // Data bus the microcode is written for.
	Equate  map[string]string // Map of equates.

	predefine map[string]string
}

// Predefine defines an equate that is present at the start of every Parse.
func (ps *Parser) Predefine(equ string, value string) {
	if ps.predefine == nil {
		ps.predefine = map[string]string{equ: value}
	} else {
		ps.predefine[equ] = value
	}
}

// registerEquates iterates over the register names as equates.
func registerEquates() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for name, named := range register.Names() {
			if !yield(name, strconv.Itoa(int(named.Reg))) {
				return
			}
		}
	}
}

// reset prepares the equates for a new parse.
func (ps *Parser) reset() {
	ps.Equate = maps.Collect(internal.IterSeq2Concat(registerEquates(), maps.All(ps.predefine)))
}

// valueOf returns the value of a simple word, after equate expansion.
func (ps *Parser) valueOf(word string) (value int, err error) {
	if equ, ok := ps.Equate[word]; ok {
		word = equ
	}
	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}
	value = int(v64)
	return
}

// parenEval evaluates a $(...) expression.
func (ps *Parser) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range ps.Equate {
		v64, perr := strconv.ParseInt(str, 0, 32)
		if perr != nil {
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

var (
	reParen  = regexp.MustCompile(`\$\([^\$]*\)`)
	reLineNo = regexp.MustCompile(`^[0-9]+\.\s*`)
)

// expand evaluates the $(...) expressions of a line.
func (ps *Parser) expand(line string) (text string, err error) {
	text = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := ps.parenEval(str[2 : len(str)-1])
		if _err != nil && err == nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	return
}

// splitList splits a comma separated list, dropping empty items.
func splitList(text string) (items []string) {
	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		if len(item) > 0 {
			items = append(items, item)
		}
	}
	return
}

// parseAssignment splits 'name=value'. Value is empty if there is no '='.
func parseAssignment(item string) (name, value string, err error) {
	name, value, found := strings.Cut(item, "=")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if len(name) == 0 || (found && len(value) == 0) {
		err = ErrSignalSyntax
	}
	return
}

// ParseSignals parses the control and clock signals of one line, without
// its comment or line number.
func (ps *Parser) ParseSignals(line string) (vec Vector, err error) {
	if ps.Equate == nil {
		ps.reset()
	}

	line, err = ps.expand(line)
	if err != nil {
		return
	}

	controls, clocks, _ := strings.Cut(line, ";")
	if strings.Contains(clocks, ";") {
		err = ErrSignalSyntax
		return
	}

	vec = NewVector()

	for _, item := range splitList(controls) {
		var name, word string
		name, word, err = parseAssignment(item)
		if err != nil {
			return
		}

		ctl, ok := ParseControl(name)
		if !ok {
			if _, isClock := ParseClock(name); isClock {
				err = ErrSignalSyntax
			} else {
				err = ErrSignalUnknown(name)
			}
			return
		}
		if !ps.Type.HasControl(ctl) {
			err = ErrSignalType
			return
		}
		if vec.Driven(ctl) {
			err = ErrSignalDuplicate
			return
		}

		value := 1
		if len(word) > 0 {
			value, err = ps.valueOf(word)
			if err != nil {
				return
			}
		} else if ctl != CONTROL_MEMREAD && ctl != CONTROL_MEMWRITE {
			err = ErrSignalSyntax
			return
		}
		if value < 0 || value > ctl.Max() {
			err = ErrSignalRange
			return
		}

		vec.Set(ctl, value)
	}

	for _, item := range splitList(clocks) {
		var name, word string
		name, word, err = parseAssignment(item)
		if err != nil {
			return
		}
		if len(word) > 0 {
			err = ErrClockValue
			return
		}

		ck, ok := ParseClock(name)
		if !ok {
			err = ErrSignalUnknown(name)
			return
		}
		if !ps.Type.HasClock(ck) {
			err = ErrSignalType
			return
		}
		if vec.Clock[ck] {
			err = ErrSignalDuplicate
			return
		}

		vec.Pulse(ck)
	}

	return
}

// parseUnits parses the assignments of a UnitPre or UnitPost line.
func (ps *Parser) parseUnits(text string) (units []Unit, err error) {
	text, err = ps.expand(text)
	if err != nil {
		return
	}

	for _, item := range splitList(text) {
		target, word, found := strings.Cut(item, "=")
		target = strings.TrimSpace(target)
		word = strings.TrimSpace(word)
		if !found || len(target) == 0 || len(word) == 0 {
			err = ErrUnitSyntax
			return
		}
		if equ, ok := ps.Equate[word]; ok {
			word = equ
		}
		if match := reMemoryTarget.FindStringSubmatch(target); match != nil {
			if equ, ok := ps.Equate[strings.TrimSpace(match[1])]; ok {
				target = "Mem[" + equ + "]"
			}
		}

		var unit Unit
		unit, err = parseUnit(target, word)
		if err != nil {
			return
		}
		units = append(units, unit)
	}

	return
}

// cutPrefixFold is strings.CutPrefix, ignoring case.
func cutPrefixFold(text, prefix string) (after string, found bool) {
	if len(text) < len(prefix) || !strings.EqualFold(text[:len(prefix)], prefix) {
		return text, false
	}
	return text[len(prefix):], true
}

// Parse parses an input stream into a Program.
func (ps *Parser) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
			prog = nil
		}
	}()

	ps.reset()

	prog = &Program{Type: ps.Type}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if ps.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line, _, _ = strings.Cut(text, "//")
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		// .equ NAME VALUE
		if words := strings.Fields(line); words[0] == ".equ" {
			if len(words) != 3 {
				err = ErrEquateSyntax
				return
			}
			if _, ok := ps.Equate[words[1]]; ok {
				err = ErrEquateDuplicate
				return
			}
			ps.Equate[words[1]] = words[2]
			continue
		}

		if after, ok := cutPrefixFold(line, "UnitPre:"); ok {
			var units []Unit
			units, err = ps.parseUnits(after)
			if err != nil {
				return
			}
			prog.Pre = append(prog.Pre, units...)
			continue
		}

		if after, ok := cutPrefixFold(line, "UnitPost:"); ok {
			var units []Unit
			units, err = ps.parseUnits(after)
			if err != nil {
				return
			}
			prog.Post = append(prog.Post, units...)
			continue
		}

		signals := reLineNo.ReplaceAllString(line, "")

		var vec Vector
		vec, err = ps.ParseSignals(signals)
		if err != nil {
			return
		}

		prog.Lines = append(prog.Lines, Line{
			LineNo: lineno,
			Text:   line,
			Vector: vec,
		})
	}

	err = scanner.Err()

	return
}
