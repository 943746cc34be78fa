package models

import (
	"fmt"
	"sort"

	"github.com/lunixbochs/fvbommel-util/sortorder"

	"github.com/lunixbochs/doscorn/go/models/cpu"
)

type Reg struct {
	Enum int
	Name string
}

type RegVal struct {
	Reg
	Val uint64
}

type regList []Reg

func (r regList) Len() int           { return len(r) }
func (r regList) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r regList) Less(i, j int) bool { return sortorder.NaturalLess(r[i].Name, r[j].Name) }

// SubReg is a register stored inside another one, like x86 AH inside AX.
type SubReg struct {
	Parent int
	Shift  uint
	Bits   uint
}

func (s SubReg) mask() uint64 {
	return (uint64(1)<<s.Bits - 1) << s.Shift
}

func (s SubReg) Get(parent uint64) uint64 {
	return (parent & s.mask()) >> s.Shift
}

func (s SubReg) Set(parent, val uint64) uint64 {
	return parent&^s.mask() | (val<<s.Shift)&s.mask()
}

type Disassembler interface {
	Dis(mem []byte, addr uint64) ([]Ins, error)
}

type Assembler interface {
	Asm(asm string, addr uint64) ([]byte, error)
}

type Ins interface {
	Addr() uint64
	Bytes() []byte
	Mnemonic() string
	OpStr() string
}

type Arch struct {
	Name string
	Bits int

	PC, SP int
	// full-width registers only, these are what the Cpu stores
	Regs map[string]int
	// registers derived from a full-width parent
	SubRegs    map[string]int
	SubRegDefs map[int]SubReg

	// bound by the caller, both are optional
	Dis Disassembler
	Asm Assembler

	regList regList
}

// Enums returns the full-width register enums a Cpu needs to store.
func (a *Arch) Enums() []int {
	ret := make([]int, 0, len(a.Regs))
	for _, e := range a.Regs {
		ret = append(ret, e)
	}
	sort.Ints(ret)
	return ret
}

func (a *Arch) RegEnum(name string) (int, bool) {
	if e, ok := a.Regs[name]; ok {
		return e, true
	}
	e, ok := a.SubRegs[name]
	return e, ok
}

func (a *Arch) RegName(enum int) string {
	for name, e := range a.Regs {
		if e == enum {
			return name
		}
	}
	for name, e := range a.SubRegs {
		if e == enum {
			return name
		}
	}
	return fmt.Sprintf("reg(%d)", enum)
}

// RegDump reads every full-width register, in natural name order.
func (a *Arch) RegDump(c cpu.Cpu) ([]RegVal, error) {
	if a.regList == nil {
		rl := make(regList, 0, len(a.Regs))
		for name, e := range a.Regs {
			rl = append(rl, Reg{e, name})
		}
		sort.Sort(rl)
		a.regList = rl
	}
	ret := make([]RegVal, len(a.regList))
	for i, r := range a.regList {
		val, err := c.RegRead(r.Enum)
		if err != nil {
			return nil, err
		}
		ret[i] = RegVal{r, val}
	}
	return ret, nil
}

func (a *Arch) String() string {
	return fmt.Sprintf("<Arch %s>", a.Name)
}
