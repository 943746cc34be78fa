package x86_16

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// Flag is a bit mask over the FLAGS register. Most are one bit, IOPL is two.
type Flag uint64

const (
	CF   Flag = 1 << 0  // carry
	PF   Flag = 1 << 2  // parity
	AF   Flag = 1 << 4  // auxiliary carry
	ZF   Flag = 1 << 6  // zero
	SF   Flag = 1 << 7  // sign
	TF   Flag = 1 << 8  // trap
	IF   Flag = 1 << 9  // interrupt enable
	DF   Flag = 1 << 10 // direction
	OF   Flag = 1 << 11 // overflow
	IOPL Flag = 3 << 12 // i/o privilege level
)

var flagNames = []struct {
	name string
	flag Flag
}{
	{"cf", CF}, {"pf", PF}, {"af", AF}, {"zf", ZF}, {"sf", SF},
	{"tf", TF}, {"if", IF}, {"df", DF}, {"of", OF}, {"iopl", IOPL},
}

// AllFlags lists every named flag in bit order.
func AllFlags() []Flag {
	ret := make([]Flag, len(flagNames))
	for i, v := range flagNames {
		ret[i] = v.flag
	}
	return ret
}

func ParseFlag(name string) (Flag, bool) {
	name = strings.ToLower(name)
	for _, v := range flagNames {
		if v.name == name {
			return v.flag, true
		}
	}
	return 0, false
}

func (f Flag) String() string {
	for _, v := range flagNames {
		if v.flag == f {
			return v.name
		}
	}
	return fmt.Sprintf("flag(%#x)", uint64(f))
}

func (f Flag) shift() uint {
	return uint(bits.TrailingZeros64(uint64(f)))
}

type regIO interface {
	RegRead(enum int) (uint64, error)
	RegWrite(enum int, val uint64) error
}

// Flags is a view over a status register. It stores nothing itself.
type Flags struct {
	regs regIO
	enum int
}

func NewFlags(regs regIO) *Flags {
	return &Flags{regs: regs, enum: FLAGS}
}

// SetValue stores val into the field covered by fl. Bits of val that do not
// fit the field are dropped; bits outside fl are left alone.
func (f *Flags) SetValue(fl Flag, val uint64) error {
	old, err := f.regs.RegRead(f.enum)
	if err != nil {
		return errors.Wrap(err, "reading flags failed")
	}
	mask := uint64(fl)
	next := old&^mask | (val<<fl.shift())&mask
	return errors.Wrap(f.regs.RegWrite(f.enum, next), "writing flags failed")
}

// Value returns the field covered by fl, shifted down to bit 0.
func (f *Flags) Value(fl Flag) (uint64, error) {
	val, err := f.regs.RegRead(f.enum)
	if err != nil {
		return 0, errors.Wrap(err, "reading flags failed")
	}
	return (val & uint64(fl)) >> fl.shift(), nil
}

// Test reports whether every bit of fl is set.
func (f *Flags) Test(fl Flag) (bool, error) {
	val, err := f.regs.RegRead(f.enum)
	if err != nil {
		return false, errors.Wrap(err, "reading flags failed")
	}
	return val&uint64(fl) == uint64(fl), nil
}

func (f *Flags) Set(fl Flag) error {
	return f.SetValue(fl, uint64(fl)>>fl.shift())
}

func (f *Flags) Clear(fl Flag) error {
	return f.SetValue(fl, 0)
}

func (f *Flags) SetCF() error   { return f.Set(CF) }
func (f *Flags) ClearCF() error { return f.Clear(CF) }
func (f *Flags) SetZF() error   { return f.Set(ZF) }
func (f *Flags) ClearZF() error { return f.Clear(ZF) }
