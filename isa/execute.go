package isa

import (
	"log"

	"github.com/ezrec/pep9/pep"
	"github.com/ezrec/pep9/register"
)

func b2u(cond bool) uint8 {
	if cond {
		return 1
	}
	return 0
}

// nz computes the N and Z flags of a word.
func nz(value uint16) (flags uint8) {
	flags |= b2u(value&0x8000 != 0) * pep.N_MASK
	flags |= b2u(value == 0) * pep.Z_MASK
	return
}

// add16 is the 16 bit adder, returning the NZVC flags.
func add16(a, b uint16, carry bool) (res uint16, flags uint8) {
	sum := uint32(a) + uint32(b) + uint32(b2u(carry))
	res = uint16(sum)
	flags = nz(res)
	flags |= b2u(sum > 0xffff) * pep.C_MASK
	flags |= b2u((^(a^b)&(a^res))&0x8000 != 0) * pep.V_MASK
	return
}

// sub16 computes a - b as a plus ~b plus 1.
func sub16(a, b uint16) (res uint16, flags uint8) {
	return add16(a, ^b, true)
}

// pairReg selects A for the even member of a mnemonic pair, X for the odd.
func pairReg(mn, first pep.Mnemonic) uint8 {
	if (mn-first)%2 == 0 {
		return register.REG_A
	}
	return register.REG_X
}

func (cpu *Cpu) word(reg uint8) uint16 {
	return cpu.Bank.Word(reg)
}

func (cpu *Cpu) setWord(reg uint8, value uint16) {
	cpu.Bank.SetWord(reg, value)
}

func (cpu *Cpu) setFlags(mask uint8, flags uint8) {
	cpu.Bank.SetStatusBits(mask, flags)
}

// EffectiveAddress resolves the address of a memory operand. Deferred
// modes perform exactly one extra read, of the pointer.
func (cpu *Cpu) EffectiveAddress(mode pep.AddrMode, spec uint16) (address uint16, err error) {
	sp := cpu.word(register.REG_SP)
	x := cpu.word(register.REG_X)

	switch mode {
	case pep.ADDR_D:
		address = spec
	case pep.ADDR_N:
		address, err = cpu.Memory.ReadWord(spec)
	case pep.ADDR_S:
		address = spec + sp
	case pep.ADDR_SF:
		address, err = cpu.Memory.ReadWord(spec + sp)
	case pep.ADDR_X:
		address = spec + x
	case pep.ADDR_SX:
		address = spec + sp + x
	case pep.ADDR_SFX:
		address, err = cpu.Memory.ReadWord(spec + sp)
		address += x
	default:
		err = ErrOperand
		return
	}

	if err != nil {
		err = &ErrOperandRead{Mode: mode, Spec: spec, Err: err}
	}

	return
}

// readOperand fetches a word operand, or the low byte for byte operands.
func (cpu *Cpu) readOperand(in pep.Instruction, spec uint16) (value uint16, err error) {
	if in.Mode == pep.ADDR_I {
		value = spec
		if in.Mnemonic.IsByte() {
			value &= 0xff
		}
		return
	}

	address, err := cpu.EffectiveAddress(in.Mode, spec)
	if err != nil {
		return
	}

	if in.Mnemonic.IsByte() {
		var b uint8
		b, err = cpu.Memory.ReadByte(address)
		value = uint16(b)
	} else {
		value, err = cpu.Memory.ReadWord(address)
	}

	return
}

// trap saves the machine context on the system stack and enters the trap
// handler.
func (cpu *Cpu) trap() (err error) {
	mem := cpu.Memory

	t := mem.Word(pep.Vector(cpu.Burn, pep.VECTOR_SYSTEM_STACK))

	if cpu.Verbose {
		log.Printf("isa: trap, system stack 0x%04x", t)
	}

	saves := []struct {
		offset uint16
		reg    uint8
	}{
		{3, register.REG_SP},
		{5, register.REG_PC},
		{7, register.REG_X},
		{9, register.REG_A},
	}

	err = mem.WriteByte(t-1, cpu.Bank.Byte(register.REG_IS))
	if err != nil {
		return
	}
	for _, save := range saves {
		err = mem.WriteWord(t-save.offset, cpu.word(save.reg))
		if err != nil {
			return
		}
	}
	err = mem.WriteByte(t-10, cpu.Bank.Status()&pep.NZVC_MASK)
	if err != nil {
		return
	}

	cpu.setWord(register.REG_SP, t-10)
	cpu.setWord(register.REG_PC, mem.Word(pep.Vector(cpu.Burn, pep.VECTOR_TRAP)))
	cpu.setWord(register.REG_X, 0)

	cpu.depth++

	return
}

// unary executes the instructions without an operand specifier.
func (cpu *Cpu) unary(mn pep.Mnemonic) (err error) {
	mem := cpu.Memory
	sp := cpu.word(register.REG_SP)

	switch mn {
	case pep.STOP:
		cpu.state = STATE_FINISHED
		if cpu.Verbose {
			log.Printf("isa: stop after %d instructions", cpu.count+1)
		}
	case pep.RET:
		var pc uint16
		pc, err = mem.ReadWord(sp)
		if err != nil {
			return
		}
		cpu.setWord(register.REG_PC, pc)
		cpu.setWord(register.REG_SP, sp+2)
		cpu.depth--
	case pep.RETTR:
		var nzvc uint8
		nzvc, err = mem.ReadByte(sp)
		if err != nil {
			return
		}
		regs := []struct {
			offset uint16
			reg    uint8
		}{
			{1, register.REG_A},
			{3, register.REG_X},
			{5, register.REG_PC},
			{7, register.REG_SP},
		}
		for _, r := range regs {
			var value uint16
			value, err = mem.ReadWord(sp + r.offset)
			if err != nil {
				return
			}
			cpu.setWord(r.reg, value)
		}
		cpu.setFlags(pep.NZVC_MASK, nzvc)
		cpu.depth--
	case pep.MOVSPA:
		cpu.setWord(register.REG_A, sp)
	case pep.MOVFLGA:
		cpu.setWord(register.REG_A, uint16(cpu.Bank.Status()&pep.NZVC_MASK))
	case pep.MOVAFLG:
		cpu.setFlags(pep.NZVC_MASK, uint8(cpu.word(register.REG_A)))
	case pep.NOTA, pep.NOTX:
		reg := pairReg(mn, pep.NOTA)
		res := ^cpu.word(reg)
		cpu.setWord(reg, res)
		cpu.setFlags(pep.N_MASK|pep.Z_MASK, nz(res))
	case pep.NEGA, pep.NEGX:
		reg := pairReg(mn, pep.NEGA)
		r := cpu.word(reg)
		res := -r
		cpu.setWord(reg, res)
		cpu.setFlags(pep.N_MASK|pep.Z_MASK|pep.V_MASK,
			nz(res)|b2u(r == 0x8000)*pep.V_MASK)
	case pep.ASLA, pep.ASLX:
		reg := pairReg(mn, pep.ASLA)
		r := cpu.word(reg)
		res := r << 1
		cpu.setWord(reg, res)
		flags := nz(res)
		flags |= b2u(r&0x8000 != 0) * pep.C_MASK
		flags |= b2u((r^(r<<1))&0x8000 != 0) * pep.V_MASK
		cpu.setFlags(pep.NZVC_MASK, flags)
	case pep.ASRA, pep.ASRX:
		reg := pairReg(mn, pep.ASRA)
		r := cpu.word(reg)
		res := uint16(int16(r) >> 1)
		cpu.setWord(reg, res)
		cpu.setFlags(pep.N_MASK|pep.Z_MASK|pep.C_MASK,
			nz(res)|b2u(r&1 != 0)*pep.C_MASK)
	case pep.ROLA, pep.ROLX:
		reg := pairReg(mn, pep.ROLA)
		r := cpu.word(reg)
		res := r<<1 | uint16(b2u(cpu.Bank.StatusBit(pep.STATUS_C)))
		cpu.setWord(reg, res)
		cpu.setFlags(pep.C_MASK, b2u(r&0x8000 != 0)*pep.C_MASK)
	case pep.RORA, pep.RORX:
		reg := pairReg(mn, pep.RORA)
		r := cpu.word(reg)
		res := r>>1 | uint16(b2u(cpu.Bank.StatusBit(pep.STATUS_C)))<<15
		cpu.setWord(reg, res)
		cpu.setFlags(pep.C_MASK, b2u(r&1 != 0)*pep.C_MASK)
	default:
		err = ErrIllegal
	}

	return
}

// branchTaken evaluates the condition of a branch.
func (cpu *Cpu) branchTaken(mn pep.Mnemonic) bool {
	n := cpu.Bank.StatusBit(pep.STATUS_N)
	z := cpu.Bank.StatusBit(pep.STATUS_Z)

	switch mn {
	case pep.BR:
		return true
	case pep.BRLE:
		return n || z
	case pep.BRLT:
		return n
	case pep.BREQ:
		return z
	case pep.BRNE:
		return !z
	case pep.BRGE:
		return !n
	case pep.BRGT:
		return !n && !z
	case pep.BRV:
		return cpu.Bank.StatusBit(pep.STATUS_V)
	case pep.BRC:
		return cpu.Bank.StatusBit(pep.STATUS_C)
	}

	return false
}

// nonUnary executes the instructions with an operand specifier.
func (cpu *Cpu) nonUnary(in pep.Instruction, spec uint16) (err error) {
	mn := in.Mnemonic

	if mn.IsStore() {
		return cpu.store(in, spec)
	}

	opnd, err := cpu.readOperand(in, spec)
	if err != nil {
		return
	}

	switch {
	case mn >= pep.BR && mn <= pep.BRC:
		if cpu.branchTaken(mn) {
			cpu.setWord(register.REG_PC, opnd)
		}
	case mn == pep.CALL:
		sp := cpu.word(register.REG_SP) - 2
		cpu.setWord(register.REG_SP, sp)
		err = cpu.Memory.WriteWord(sp, cpu.word(register.REG_PC))
		if err != nil {
			return
		}
		cpu.setWord(register.REG_PC, opnd)
		cpu.depth++
	case mn == pep.ADDSP:
		res, flags := add16(cpu.word(register.REG_SP), opnd, false)
		cpu.setWord(register.REG_SP, res)
		cpu.setFlags(pep.NZVC_MASK, flags)
	case mn == pep.SUBSP:
		res, flags := sub16(cpu.word(register.REG_SP), opnd)
		cpu.setWord(register.REG_SP, res)
		cpu.setFlags(pep.NZVC_MASK, flags)
	case mn == pep.ADDA || mn == pep.ADDX:
		reg := pairReg(mn, pep.ADDA)
		res, flags := add16(cpu.word(reg), opnd, false)
		cpu.setWord(reg, res)
		cpu.setFlags(pep.NZVC_MASK, flags)
	case mn == pep.SUBA || mn == pep.SUBX:
		reg := pairReg(mn, pep.SUBA)
		res, flags := sub16(cpu.word(reg), opnd)
		cpu.setWord(reg, res)
		cpu.setFlags(pep.NZVC_MASK, flags)
	case mn == pep.ANDA || mn == pep.ANDX:
		reg := pairReg(mn, pep.ANDA)
		res := cpu.word(reg) & opnd
		cpu.setWord(reg, res)
		cpu.setFlags(pep.N_MASK|pep.Z_MASK, nz(res))
	case mn == pep.ORA || mn == pep.ORX:
		reg := pairReg(mn, pep.ORA)
		res := cpu.word(reg) | opnd
		cpu.setWord(reg, res)
		cpu.setFlags(pep.N_MASK|pep.Z_MASK, nz(res))
	case mn == pep.CPWA || mn == pep.CPWX:
		reg := pairReg(mn, pep.CPWA)
		_, flags := sub16(cpu.word(reg), opnd)
		// N is the true sign of the difference, even on overflow.
		if flags&pep.V_MASK != 0 {
			flags ^= pep.N_MASK
		}
		cpu.setFlags(pep.NZVC_MASK, flags)
	case mn == pep.CPBA || mn == pep.CPBX:
		reg := pairReg(mn, pep.CPBA)
		res := uint8(cpu.word(reg)) - uint8(opnd)
		flags := b2u(res&0x80 != 0)*pep.N_MASK | b2u(res == 0)*pep.Z_MASK
		cpu.setFlags(pep.NZVC_MASK, flags)
	case mn == pep.LDWA || mn == pep.LDWX:
		reg := pairReg(mn, pep.LDWA)
		cpu.setWord(reg, opnd)
		cpu.setFlags(pep.N_MASK|pep.Z_MASK, nz(opnd))
	case mn == pep.LDBA || mn == pep.LDBX:
		reg := pairReg(mn, pep.LDBA)
		cpu.Bank.SetByte(reg+1, uint8(opnd))
		cpu.setFlags(pep.N_MASK|pep.Z_MASK, b2u(uint8(opnd) == 0)*pep.Z_MASK)
	default:
		err = ErrIllegal
	}

	return
}

// store executes the store instructions, which have no immediate form.
func (cpu *Cpu) store(in pep.Instruction, spec uint16) (err error) {
	if in.Mode == pep.ADDR_I {
		return ErrStoreMode
	}

	address, err := cpu.EffectiveAddress(in.Mode, spec)
	if err != nil {
		return
	}

	switch in.Mnemonic {
	case pep.STWA, pep.STWX:
		err = cpu.Memory.WriteWord(address, cpu.word(pairReg(in.Mnemonic, pep.STWA)))
	case pep.STBA, pep.STBX:
		err = cpu.Memory.WriteByte(address, cpu.Bank.Byte(pairReg(in.Mnemonic, pep.STBA)+1))
	}

	return
}
