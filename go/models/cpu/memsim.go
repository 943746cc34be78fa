package cpu

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

type MemError struct {
	Addr uint64
	Size int
	Enum int
}

func (m *MemError) Error() string {
	reason := "memory error"
	switch m.Enum {
	case MEM_WRITE_UNMAPPED:
		reason = "unmapped write"
	case MEM_READ_UNMAPPED:
		reason = "unmapped read"
	case MEM_FETCH_UNMAPPED:
		reason = "unmapped fetch"
	case MEM_WRITE_PROT:
		reason = "protected write"
	case MEM_READ_PROT:
		reason = "protected read"
	case MEM_FETCH_PROT:
		reason = "protected exec"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, m.Addr, m.Size)
}

// MemSim is a sorted list of non-overlapping pages backed by Go slices.
type MemSim struct {
	Mem Pages
}

// Checks whether [addr, addr+size) is fully mapped.
// If prot > 0, also checks that every page covering it has all of prot.
func (m *MemSim) RangeValid(addr, size uint64, prot int) (mapGood bool, protGood bool) {
	first := m.Mem.bsearch(addr)
	if first == -1 {
		return false, false
	}
	protGood = true
	end := addr + size
	for _, mm := range m.Mem[first:] {
		if !mm.Contains(addr) {
			break
		}
		if prot > 0 && mm.Prot&prot != prot {
			protGood = false
		}
		addr = mm.Addr + mm.Size
		if addr >= end {
			break
		}
	}
	return addr >= end, protGood
}

// Maps a zeroed region. Like uc_mem_map, overlapping an existing page is an error.
func (m *MemSim) Map(addr, size uint64, prot int) (*Page, error) {
	if size == 0 {
		return nil, errors.New("zero-size mapping")
	}
	if len(m.Mem.FindRange(addr, size)) > 0 {
		return nil, errors.Errorf("mapping %#x-%#x overlaps existing memory", addr, addr+size)
	}
	page := &Page{Addr: addr, Size: size, Prot: prot, Data: make([]byte, size)}
	m.Mem = append(m.Mem, page)
	sort.Sort(m.Mem)
	return page, nil
}

func (m *MemSim) Prot(addr, size uint64, prot int) {
	for _, mm := range m.Mem.FindRange(addr, size) {
		mm.Prot = prot
	}
}

// Removes every page overlapping the range. Partial unmaps are not split.
func (m *MemSim) Unmap(addr, size uint64) {
	tmp := make(Pages, 0, len(m.Mem))
	for _, mm := range m.Mem {
		if !mm.Overlaps(addr, size) {
			tmp = append(tmp, mm)
		}
	}
	m.Mem = tmp
}

func (m *MemSim) Read(addr uint64, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(len(p)), prot); !gmap {
		if prot&PROT_EXEC == PROT_EXEC {
			return &MemError{Addr: addr, Size: len(p), Enum: MEM_FETCH_UNMAPPED}
		}
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_READ_UNMAPPED}
	} else if !gprot {
		if prot&PROT_EXEC == PROT_EXEC {
			return &MemError{Addr: addr, Size: len(p), Enum: MEM_FETCH_PROT}
		}
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_READ_PROT}
	}
	for i := m.Mem.bsearch(addr); len(p) > 0; i++ {
		mm := m.Mem[i]
		n := copy(p, mm.Data[addr-mm.Addr:])
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}

func (m *MemSim) Write(addr uint64, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(len(p)), prot); !gmap {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_UNMAPPED}
	} else if !gprot {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_PROT}
	}
	for i := m.Mem.bsearch(addr); len(p) > 0; i++ {
		mm := m.Mem[i]
		n := copy(mm.Data[addr-mm.Addr:], p)
		addr, p = addr+uint64(n), p[n:]
	}
	return nil
}
