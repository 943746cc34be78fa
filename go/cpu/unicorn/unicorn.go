package unicorn

import (
	"github.com/pkg/errors"
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"

	"github.com/lunixbochs/doscorn/go/arch/x86_16"
	"github.com/lunixbochs/doscorn/go/models/cpu"
)

// x86_16 register enums to Unicorn's
var regMap = map[int]int{
	x86_16.IP:    uc.X86_REG_IP,
	x86_16.SP:    uc.X86_REG_SP,
	x86_16.BP:    uc.X86_REG_BP,
	x86_16.AX:    uc.X86_REG_AX,
	x86_16.BX:    uc.X86_REG_BX,
	x86_16.CX:    uc.X86_REG_CX,
	x86_16.DX:    uc.X86_REG_DX,
	x86_16.SI:    uc.X86_REG_SI,
	x86_16.DI:    uc.X86_REG_DI,
	x86_16.FLAGS: uc.X86_REG_EFLAGS,
	x86_16.CS:    uc.X86_REG_CS,
	x86_16.DS:    uc.X86_REG_DS,
	x86_16.ES:    uc.X86_REG_ES,
	x86_16.SS:    uc.X86_REG_SS,
}

type Builder struct {
	Arch, Mode int
}

// Real is a Builder for 16-bit real mode.
var Real = &Builder{Arch: uc.ARCH_X86, Mode: uc.MODE_16}

func (b *Builder) New() (cpu.Cpu, error) {
	u, err := uc.NewUnicorn(b.Arch, b.Mode)
	if err != nil {
		return nil, errors.Wrap(err, "NewUnicorn() failed")
	}
	return &UnicornCpu{u}, nil
}

type UnicornCpu struct {
	uc.Unicorn
}

func (u *UnicornCpu) Backend() interface{} {
	return u.Unicorn
}

func (u *UnicornCpu) reg(enum int) (int, error) {
	if r, ok := regMap[enum]; ok {
		return r, nil
	}
	return 0, errors.Errorf("unicorn: unknown register %d", enum)
}

func (u *UnicornCpu) RegRead(enum int) (uint64, error) {
	r, err := u.reg(enum)
	if err != nil {
		return 0, err
	}
	return u.Unicorn.RegRead(r)
}

func (u *UnicornCpu) RegWrite(enum int, val uint64) error {
	r, err := u.reg(enum)
	if err != nil {
		return err
	}
	return u.Unicorn.RegWrite(r, val)
}

func (u *UnicornCpu) ContextSave(reuse interface{}) (interface{}, error) {
	ctx, _ := reuse.(uc.Context)
	return u.Unicorn.ContextSave(ctx)
}

func (u *UnicornCpu) ContextRestore(ctx interface{}) error {
	return u.Unicorn.ContextRestore(ctx.(uc.Context))
}

func (u *UnicornCpu) HookAdd(htype int, cb interface{}, start uint64, end uint64, extra ...int) (cpu.Hook, error) {
	// hooks are wrapped so callbacks get this Cpu instead of the raw engine
	var wrap interface{}
	switch htype {
	case cpu.HOOK_CODE:
		cbc, ok := cb.(func(cpu.Cpu, uint64, uint32))
		if !ok {
			return nil, errors.Errorf("bad HOOK_CODE callback type %T", cb)
		}
		wrap = func(_ uc.Unicorn, addr uint64, size uint32) { cbc(u, addr, size) }

	case cpu.HOOK_INTR:
		cbc, ok := cb.(func(cpu.Cpu, uint32))
		if !ok {
			return nil, errors.Errorf("bad HOOK_INTR callback type %T", cb)
		}
		wrap = func(_ uc.Unicorn, intno uint32) { cbc(u, intno) }

	case cpu.HOOK_MEM_ERR:
		cbc, ok := cb.(func(cpu.Cpu, int, uint64, int, int64) bool)
		if !ok {
			return nil, errors.Errorf("bad HOOK_MEM_ERR callback type %T", cb)
		}
		wrap = func(_ uc.Unicorn, access int, addr uint64, size int, val int64) bool {
			return cbc(u, access, addr, size, val)
		}

	default:
		return nil, errors.Errorf("unknown hook type %d", htype)
	}
	return u.Unicorn.HookAdd(htype, wrap, start, end, extra...)
}

func (u *UnicornCpu) HookDel(hh cpu.Hook) error {
	return u.Unicorn.HookDel(hh.(uc.Hook))
}

func (u *UnicornCpu) MemProt(addr, size uint64, prot int) error {
	return u.Unicorn.MemProtect(addr, size, prot)
}
