package cpu

import (
	"github.com/pkg/errors"
)

type hookInfo struct {
	htype int
	start uint64
	end   uint64
}

func (h *hookInfo) Type() int {
	return h.htype
}

// start > end means the hook covers every address, as in Unicorn
func (h *hookInfo) Contains(addr uint64) bool {
	return h.start > h.end || addr >= h.start && addr <= h.end
}

type hinfo interface {
	Type() int
}

type codeHook struct {
	hookInfo
	cb func(Cpu, uint64, uint32)
}

type intrHook struct {
	hookInfo
	cb func(Cpu, uint32)
}

type memFaultHook struct {
	hookInfo
	cb func(Cpu, int, uint64, int, int64) bool
}

// Hooks is a hook registry for pure-Go Cpu implementations.
type Hooks struct {
	cpu Cpu

	code     []*codeHook
	intr     []*intrHook
	memFault []*memFaultHook
}

func NewHooks(cpu Cpu) *Hooks {
	return &Hooks{cpu: cpu}
}

// Bind sets the Cpu passed to callbacks, for embedders constructed after their Hooks.
func (h *Hooks) Bind(cpu Cpu) {
	h.cpu = cpu
}

func (h *Hooks) HookAdd(htype int, cb interface{}, start, end uint64, extra ...int) (Hook, error) {
	info := hookInfo{htype, start, end}
	switch htype {
	case HOOK_CODE:
		fn, ok := cb.(func(Cpu, uint64, uint32))
		if !ok {
			return nil, errors.Errorf("bad HOOK_CODE callback type %T", cb)
		}
		hh := &codeHook{info, fn}
		h.code = append(h.code, hh)
		return hh, nil
	case HOOK_INTR:
		fn, ok := cb.(func(Cpu, uint32))
		if !ok {
			return nil, errors.Errorf("bad HOOK_INTR callback type %T", cb)
		}
		hh := &intrHook{info, fn}
		h.intr = append(h.intr, hh)
		return hh, nil
	case HOOK_MEM_ERR:
		fn, ok := cb.(func(Cpu, int, uint64, int, int64) bool)
		if !ok {
			return nil, errors.Errorf("bad HOOK_MEM_ERR callback type %T", cb)
		}
		hh := &memFaultHook{info, fn}
		h.memFault = append(h.memFault, hh)
		return hh, nil
	}
	return nil, errors.Errorf("unknown hook type: %d", htype)
}

func (h *Hooks) HookDel(hh Hook) error {
	info, ok := hh.(hinfo)
	if !ok {
		return errors.Errorf("not a hook: %T", hh)
	}
	switch info.Type() {
	case HOOK_CODE:
		var tmp []*codeHook
		for _, v := range h.code {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.code = tmp
	case HOOK_INTR:
		var tmp []*intrHook
		for _, v := range h.intr {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.intr = tmp
	case HOOK_MEM_ERR:
		var tmp []*memFaultHook
		for _, v := range h.memFault {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.memFault = tmp
	}
	return nil
}

func (h *Hooks) OnCode(addr uint64, size uint32) {
	for _, v := range h.code {
		if v.Contains(addr) {
			v.cb(h.cpu, addr, size)
		}
	}
}

func (h *Hooks) OnIntr(intno uint32) {
	for _, v := range h.intr {
		v.cb(h.cpu, intno)
	}
}

// returns true if any hook handled the fault
func (h *Hooks) OnFault(access int, addr uint64, size int, val int64) bool {
	for _, v := range h.memFault {
		if v.Contains(addr) && v.cb(h.cpu, access, addr, size, val) {
			return true
		}
	}
	return false
}
