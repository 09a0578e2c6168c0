package pep

import (
	"fmt"
)

// Mnemonic is a Pep/9 instruction mnemonic.
type Mnemonic int

const (
	STOP = Mnemonic(iota)
	RET
	RETTR
	MOVSPA
	MOVFLGA
	MOVAFLG
	NOTA
	NOTX
	NEGA
	NEGX
	ASLA
	ASLX
	ASRA
	ASRX
	ROLA
	ROLX
	RORA
	RORX
	BR
	BRLE
	BRLT
	BREQ
	BRNE
	BRGE
	BRGT
	BRV
	BRC
	CALL
	NOP0
	NOP1
	NOP
	DECI
	DECO
	HEXO
	STRO
	ADDSP
	SUBSP
	ADDA
	ADDX
	SUBA
	SUBX
	ANDA
	ANDX
	ORA
	ORX
	CPWA
	CPWX
	CPBA
	CPBX
	LDWA
	LDWX
	LDBA
	LDBX
	STWA
	STWX
	STBA
	STBX

	mnemonicCount
)

var mnemonicNames = [mnemonicCount]string{
	"STOP", "RET", "RETTR", "MOVSPA", "MOVFLGA", "MOVAFLG",
	"NOTA", "NOTX", "NEGA", "NEGX", "ASLA", "ASLX", "ASRA", "ASRX",
	"ROLA", "ROLX", "RORA", "RORX",
	"BR", "BRLE", "BRLT", "BREQ", "BRNE", "BRGE", "BRGT", "BRV", "BRC",
	"CALL", "NOP0", "NOP1", "NOP", "DECI", "DECO", "HEXO", "STRO",
	"ADDSP", "SUBSP", "ADDA", "ADDX", "SUBA", "SUBX",
	"ANDA", "ANDX", "ORA", "ORX", "CPWA", "CPWX", "CPBA", "CPBX",
	"LDWA", "LDWX", "LDBA", "LDBX", "STWA", "STWX", "STBA", "STBX",
}

func (mn Mnemonic) String() string {
	if mn < 0 || mn >= mnemonicCount {
		return fmt.Sprintf("Mnemonic(%d)", int(mn))
	}
	return mnemonicNames[mn]
}

// IsTrap is true for the instructions that enter the operating system.
func (mn Mnemonic) IsTrap() bool {
	switch mn {
	case NOP0, NOP1, NOP, DECI, DECO, HEXO, STRO:
		return true
	}
	return false
}

// IsUnary is true for the instructions without an operand specifier.
func (mn Mnemonic) IsUnary() bool {
	return mn <= RORX || mn == NOP0 || mn == NOP1
}

// IsCall is true for instructions that deepen the call stack.
func (mn Mnemonic) IsCall() bool {
	return mn == CALL || mn.IsTrap()
}

// IsReturn is true for instructions that unwind the call stack.
func (mn Mnemonic) IsReturn() bool {
	return mn == RET || mn == RETTR
}

// IsStore is true for instructions whose operand is a destination.
func (mn Mnemonic) IsStore() bool {
	switch mn {
	case STWA, STWX, STBA, STBX:
		return true
	}
	return false
}

// IsByte is true for instructions whose memory operand is a single byte.
func (mn Mnemonic) IsByte() bool {
	switch mn {
	case CPBA, CPBX, LDBA, LDBX, STBA, STBX:
		return true
	}
	return false
}

// ParseMnemonic returns the mnemonic with the given (upper case) name.
func ParseMnemonic(name string) (mn Mnemonic, ok bool) {
	for n, str := range mnemonicNames {
		if str == name {
			return Mnemonic(n), true
		}
	}
	return
}
