package predict

import (
	"encoding/binary"

	"github.com/lunixbochs/doscorn/go/arch/x86_16"
)

// X86_16 decodes the instruction at cs:ip and evaluates relative jumps,
// conditional jumps, loop and jcxz against the live flags.
type X86_16 struct {
	Mem MemReader
}

// condition for Jcc opcodes by low nibble, x86 order
func jccTaken(cond byte, flags uint64) bool {
	has := func(f x86_16.Flag) bool { return flags&uint64(f) != 0 }
	var taken bool
	switch cond >> 1 {
	case 0:
		taken = has(x86_16.OF)
	case 1:
		taken = has(x86_16.CF)
	case 2:
		taken = has(x86_16.ZF)
	case 3:
		taken = has(x86_16.CF) || has(x86_16.ZF)
	case 4:
		taken = has(x86_16.SF)
	case 5:
		taken = has(x86_16.PF)
	case 6:
		taken = has(x86_16.SF) != has(x86_16.OF)
	case 7:
		taken = has(x86_16.ZF) || has(x86_16.SF) != has(x86_16.OF)
	}
	// odd conditions are the negation
	return taken != (cond&1 == 1)
}

func (p *X86_16) Predict(regs RegReader) (Prophecy, error) {
	var vals [4]uint64
	for i, name := range []string{"cs", "ip", "flags", "cx"} {
		val, err := ReadReg(regs, name)
		if err != nil {
			return Prophecy{}, err
		}
		vals[i] = val
	}
	cs, ip, flags, cx := uint16(vals[0]), uint16(vals[1]), vals[2], uint16(vals[3])
	code, err := p.Mem.MemRead(x86_16.Linear(cs, ip), 4)
	if err != nil {
		return Prophecy{}, err
	}
	// targets wrap within the code segment
	rel8 := func(size uint16) uint16 { return ip + size + uint16(int8(code[1])) }
	taken := func(off uint16) Prophecy { return Prophecy{Going: true, Where: x86_16.Linear(cs, off)} }

	op := code[0]
	switch {
	case op >= 0x70 && op <= 0x7f:
		if jccTaken(op&0xf, flags) {
			return taken(rel8(2)), nil
		}
	case op == 0x0f && code[1] >= 0x80 && code[1] <= 0x8f:
		if jccTaken(code[1]&0xf, flags) {
			return taken(ip + 4 + binary.LittleEndian.Uint16(code[2:])), nil
		}
	case op == 0xeb:
		return taken(rel8(2)), nil
	case op == 0xe9:
		return taken(ip + 3 + binary.LittleEndian.Uint16(code[1:])), nil
	case op == 0xe2:
		// loop decrements cx first
		if cx != 1 {
			return taken(rel8(2)), nil
		}
	case op == 0xe3:
		if cx == 0 {
			return taken(rel8(2)), nil
		}
	}
	return Prophecy{}, nil
}
