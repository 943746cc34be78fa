package mock

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/models/cpu"
)

// Step is one scripted event. Before runs first, with the Cpu, so a script
// can set up registers the way guest code would before a trap.
type Step struct {
	Addr   uint64
	Before func(c cpu.Cpu) error
	Intno  uint32
	Fault  error
}

// Cpu is a cpu.Cpu with no instruction decoder. Start replays Script: for each
// step it fires code hooks, runs Before, then raises Fault or interrupt Intno.
type Cpu struct {
	*cpu.Mem
	*cpu.Regs
	*cpu.Hooks

	Script []Step

	// Starts records the begin address of every Start call
	Starts  []uint64
	Steps   int
	// set by Stop, which may be called from another goroutine
	stopped int32
	closed  bool
}

func NewCpu(bits uint, enums []int) *Cpu {
	c := &Cpu{
		Mem:   cpu.NewMem(bits),
		Regs:  cpu.NewRegs(bits, enums),
		Hooks: cpu.NewHooks(nil),
	}
	c.Hooks.Bind(c)
	return c
}

func (c *Cpu) Start(begin, until uint64) error {
	if c.closed {
		return errors.New("cpu closed")
	}
	c.Starts = append(c.Starts, begin)
	atomic.StoreInt32(&c.stopped, 0)
	for _, step := range c.Script {
		c.Hooks.OnCode(step.Addr, 1)
		if atomic.LoadInt32(&c.stopped) != 0 {
			return nil
		}
		c.Steps++
		if step.Before != nil {
			if err := step.Before(c); err != nil {
				return err
			}
		}
		if step.Fault != nil {
			return step.Fault
		}
		if step.Intno != 0 {
			c.Hooks.OnIntr(step.Intno)
		}
		if atomic.LoadInt32(&c.stopped) != 0 {
			return nil
		}
	}
	return nil
}

func (c *Cpu) Stop() error {
	atomic.StoreInt32(&c.stopped, 1)
	return nil
}

func (c *Cpu) Close() error {
	c.closed = true
	return nil
}
