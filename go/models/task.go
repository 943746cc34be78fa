package models

import (
	"github.com/lunixbochs/doscorn/go/models/cpu"
)

// Task is a Cpu bound to an Arch. Register methods accept sub-register
// enums, and mappings made through Mmap are tracked with a description.
type Task interface {
	cpu.Cpu

	Arch() *Arch
	Bits() uint

	Mmap(addr, size uint64, prot int, desc string) error
	Mappings() cpu.Pages

	RegReadName(name string) (uint64, error)
	RegWriteName(name string, val uint64) error
	RegDump() ([]RegVal, error)

	Asm(asm string, addr uint64) ([]byte, error)
	Dis(addr, size uint64, showBytes bool) (string, error)
}
