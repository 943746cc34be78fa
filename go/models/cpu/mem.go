package cpu

import (
	"github.com/pkg/errors"
)

// Mem wraps MemSim in the memory half of the Cpu interface.
type Mem struct {
	// addresses past mask are rejected, see NewMem
	mask uint64
	sim  MemSim
}

func NewMem(bits uint) *Mem {
	return &Mem{mask: ^uint64(0) >> (64 - bits)}
}

func (m *Mem) MemMapProt(addr, size uint64, prot int) error {
	if size == 0 || addr > m.mask || size-1 > m.mask-addr {
		return errors.New("region outside memory range")
	}
	_, err := m.sim.Map(addr, size, prot)
	return err
}

func (m *Mem) MemProt(addr, size uint64, prot int) error {
	if mapped, _ := m.sim.RangeValid(addr, size, 0); !mapped {
		return errors.New("range not mapped")
	}
	m.sim.Prot(addr, size, prot)
	return nil
}

func (m *Mem) MemUnmap(addr, size uint64) error {
	if mapped, _ := m.sim.RangeValid(addr, size, 0); !mapped {
		return errors.New("range not mapped")
	}
	m.sim.Unmap(addr, size)
	return nil
}

func (m *Mem) MemReadInto(p []byte, addr uint64) error {
	return m.sim.Read(addr, p, 0)
}

func (m *Mem) MemRead(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	if err := m.MemReadInto(p, addr); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Mem) MemWrite(addr uint64, p []byte) error {
	return m.sim.Write(addr, p, 0)
}

func (m *Mem) Mappings() Pages {
	return m.sim.Mem
}
