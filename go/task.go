package doscorn

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/models"
	"github.com/lunixbochs/doscorn/go/models/cpu"
)

// Task binds a Cpu to an Arch, resolving sub-registers and register names and
// keeping a described list of the mappings made through it.
type Task struct {
	cpu.Cpu

	arch  *models.Arch
	pages cpu.Pages
}

func NewTask(c cpu.Cpu, arch *models.Arch) *Task {
	return &Task{Cpu: c, arch: arch}
}

func (t *Task) Arch() *models.Arch {
	return t.arch
}

func (t *Task) Bits() uint {
	return uint(t.arch.Bits)
}

func (t *Task) Mmap(addr, size uint64, prot int, desc string) error {
	if err := t.Cpu.MemMapProt(addr, size, prot); err != nil {
		return errors.Wrapf(err, "t.Mmap(%#x, %#x) failed", addr, size)
	}
	t.pages = append(t.pages, &cpu.Page{Addr: addr, Size: size, Prot: prot, Desc: desc})
	sort.Sort(t.pages)
	return nil
}

// MemMapProt maps without a description, so raw Cpu users still show up in Mappings.
func (t *Task) MemMapProt(addr, size uint64, prot int) error {
	return t.Mmap(addr, size, prot, "")
}

func (t *Task) MemUnmap(addr, size uint64) error {
	if err := t.Cpu.MemUnmap(addr, size); err != nil {
		return errors.Wrap(err, "t.MemUnmap() failed")
	}
	tmp := make(cpu.Pages, 0, len(t.pages))
	for _, p := range t.pages {
		if !p.Overlaps(addr, size) {
			tmp = append(tmp, p)
		}
	}
	t.pages = tmp
	return nil
}

func (t *Task) Mappings() cpu.Pages {
	return t.pages
}

func (t *Task) RegRead(enum int) (uint64, error) {
	if sub, ok := t.arch.SubRegDefs[enum]; ok {
		val, err := t.Cpu.RegRead(sub.Parent)
		return sub.Get(val), errors.Wrap(err, "t.RegRead() failed")
	}
	val, err := t.Cpu.RegRead(enum)
	return val, errors.Wrap(err, "t.RegRead() failed")
}

func (t *Task) RegWrite(enum int, val uint64) error {
	if sub, ok := t.arch.SubRegDefs[enum]; ok {
		parent, err := t.Cpu.RegRead(sub.Parent)
		if err != nil {
			return errors.Wrap(err, "t.RegWrite() failed")
		}
		val = sub.Set(parent, val)
		enum = sub.Parent
	}
	return errors.Wrap(t.Cpu.RegWrite(enum, val), "t.RegWrite() failed")
}

func (t *Task) RegReadName(name string) (uint64, error) {
	enum, ok := t.arch.RegEnum(strings.ToLower(name))
	if !ok {
		return 0, errors.Errorf("unknown register: %s", name)
	}
	return t.RegRead(enum)
}

func (t *Task) RegWriteName(name string, val uint64) error {
	enum, ok := t.arch.RegEnum(strings.ToLower(name))
	if !ok {
		return errors.Errorf("unknown register: %s", name)
	}
	return t.RegWrite(enum, val)
}

func (t *Task) RegDump() ([]models.RegVal, error) {
	return t.arch.RegDump(t.Cpu)
}

func (t *Task) MemRead(addr, size uint64) ([]byte, error) {
	data, err := t.Cpu.MemRead(addr, size)
	return data, errors.Wrap(err, "t.MemRead() failed")
}

func (t *Task) MemWrite(addr uint64, p []byte) error {
	return errors.Wrap(t.Cpu.MemWrite(addr, p), "t.MemWrite() failed")
}

func (t *Task) MemReadInto(p []byte, addr uint64) error {
	return errors.Wrap(t.Cpu.MemReadInto(p, addr), "t.MemReadInto() failed")
}

func (t *Task) Asm(asm string, addr uint64) ([]byte, error) {
	if t.arch.Asm == nil {
		return nil, errors.Errorf("no assembler for %s", t.arch.Name)
	}
	return t.arch.Asm.Asm(asm, addr)
}

func (t *Task) Dis(addr, size uint64, showBytes bool) (string, error) {
	if t.arch.Dis == nil {
		return "", errors.Errorf("no disassembler for %s", t.arch.Name)
	}
	mem, err := t.MemRead(addr, size)
	if err != nil {
		return "", err
	}
	dis, err := t.arch.Dis.Dis(mem, addr)
	if err != nil {
		return "", err
	}
	var out []string
	for _, ins := range dis {
		line := fmt.Sprintf("0x%x:", ins.Addr())
		if showBytes {
			line += fmt.Sprintf(" %-12x", ins.Bytes())
		}
		line += " " + strings.TrimSpace(ins.Mnemonic()+" "+ins.OpStr())
		out = append(out, line)
	}
	return strings.Join(out, "\n"), nil
}
