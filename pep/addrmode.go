package pep

import (
	"fmt"
)

// AddrMode is a Pep/9 operand addressing mode.
type AddrMode int

const (
	ADDR_NONE = AddrMode(iota) // unary instructions
	ADDR_I                     // immediate
	ADDR_D                     // direct
	ADDR_N                     // indirect
	ADDR_S                     // stack-relative
	ADDR_SF                    // stack-relative deferred
	ADDR_X                     // indexed
	ADDR_SX                    // stack-indexed
	ADDR_SFX                   // stack-deferred indexed
)

var addrModeNames = [...]string{"", "i", "d", "n", "s", "sf", "x", "sx", "sfx"}

func (am AddrMode) String() string {
	if am < 0 || int(am) >= len(addrModeNames) {
		return fmt.Sprintf("AddrMode(%d)", int(am))
	}
	return addrModeNames[am]
}

// IsDeferred is true for the modes that dereference a pointer in memory
// before the final operand access.
func (am AddrMode) IsDeferred() bool {
	return am == ADDR_N || am == ADDR_SF || am == ADDR_SFX
}

// aaaModes is the three bit addressing field order of the encoding.
var aaaModes = [8]AddrMode{ADDR_I, ADDR_D, ADDR_N, ADDR_S, ADDR_SF, ADDR_X, ADDR_SX, ADDR_SFX}

// ParseAddrMode returns the addressing mode with the given (lower case) name.
func ParseAddrMode(name string) (am AddrMode, ok bool) {
	for n, str := range addrModeNames {
		if n > 0 && str == name {
			return AddrMode(n), true
		}
	}
	return
}
