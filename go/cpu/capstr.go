package cpu

import (
	"bytes"
	"sync"

	cs "github.com/lunixbochs/capstr"
	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/models"
)

type discacheEntry struct {
	mem []byte
	dis []models.Ins
}

// discache skips re-disassembly of unchanged code, the debugger and crash
// reports tend to ask for the same address repeatedly.
type discache struct {
	sync.RWMutex
	cache map[uint64]*discacheEntry
}

func (d *discache) Get(addr uint64, mem []byte) *discacheEntry {
	d.RLock()
	defer d.RUnlock()
	if ent, ok := d.cache[addr]; ok && bytes.Equal(mem, ent.mem) {
		return ent
	}
	return nil
}

func (d *discache) Put(addr uint64, mem []byte, dis []models.Ins) {
	d.Lock()
	defer d.Unlock()
	d.cache[addr] = &discacheEntry{mem: append([]byte(nil), mem...), dis: dis}
}

type Capstr struct {
	Arch, Mode int

	cs *cs.Engine
	dc discache
}

// NewCapstr16 disassembles real mode x86.
func NewCapstr16() *Capstr {
	return &Capstr{Arch: cs.ARCH_X86, Mode: cs.MODE_16}
}

func (c *Capstr) Open() (err error) {
	engine, err := cs.New(c.Arch, c.Mode)
	if err == nil {
		c.cs = engine
		c.dc.cache = make(map[uint64]*discacheEntry)
	}
	return errors.Wrap(err, "cs.New() failed")
}

func (c *Capstr) Dis(mem []byte, addr uint64) ([]models.Ins, error) {
	if c.cs == nil {
		if err := c.Open(); err != nil {
			return nil, err
		}
	}
	if ent := c.dc.Get(addr, mem); ent != nil {
		return ent.dis, nil
	}
	dis, err := c.cs.Dis(mem, addr, 0)
	if err != nil {
		return nil, errors.Wrap(err, "capstone disassembly failed")
	}
	ret := make([]models.Ins, len(dis))
	for i, v := range dis {
		ret[i] = v
	}
	c.dc.Put(addr, mem, ret)
	return ret, nil
}
