package x86_16

import (
	"github.com/lunixbochs/doscorn/go/models"
)

// Register enums. Backends with their own numbering translate these.
const (
	IP = iota + 1
	SP
	BP
	AX
	BX
	CX
	DX
	SI
	DI
	FLAGS
	CS
	DS
	ES
	SS

	AL
	AH
	BL
	BH
	CL
	CH
	DL
	DH
)

var Arch = &models.Arch{
	Name: "x86_16",
	Bits: 16,

	PC: IP,
	SP: SP,
	Regs: map[string]int{
		"ip": IP,
		"sp": SP,
		"bp": BP,
		"ax": AX,
		"bx": BX,
		"cx": CX,
		"dx": DX,
		"si": SI,
		"di": DI,

		"flags": FLAGS,

		"cs": CS,
		"ds": DS,
		"es": ES,
		"ss": SS,
	},
	SubRegs: map[string]int{
		"al": AL, "ah": AH,
		"bl": BL, "bh": BH,
		"cl": CL, "ch": CH,
		"dl": DL, "dh": DH,
	},
	SubRegDefs: map[int]models.SubReg{
		AL: {Parent: AX, Shift: 0, Bits: 8},
		AH: {Parent: AX, Shift: 8, Bits: 8},
		BL: {Parent: BX, Shift: 0, Bits: 8},
		BH: {Parent: BX, Shift: 8, Bits: 8},
		CL: {Parent: CX, Shift: 0, Bits: 8},
		CH: {Parent: CX, Shift: 8, Bits: 8},
		DL: {Parent: DX, Shift: 0, Bits: 8},
		DH: {Parent: DX, Shift: 8, Bits: 8},
	},
}

// Linear converts a real-mode segment:offset pair to a linear address.
func Linear(seg, off uint16) uint64 {
	return uint64(seg)<<4 + uint64(off)
}

// MemSize is the real-mode addressable range.
const MemSize = 0x100000
