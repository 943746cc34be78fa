package dos

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/arch/x86_16"
	"github.com/lunixbochs/doscorn/go/models"
)

// regs batches register access for a handler and keeps the first error.
type regs struct {
	t   models.Task
	err error
}

func (k *Kernel) regs() *regs {
	return &regs{t: k.Task}
}

func (r *regs) get(enum int) uint16 {
	if r.err != nil {
		return 0
	}
	val, err := r.t.RegRead(enum)
	r.err = err
	return uint16(val)
}

func (r *regs) set(enum int, val uint16) {
	if r.err == nil {
		r.err = r.t.RegWrite(enum, uint64(val))
	}
}

// ptr is the linear address of seg:off, with both read from registers.
func (r *regs) ptr(seg, off int) uint64 {
	return x86_16.Linear(r.get(seg), r.get(off))
}

const maxPath = 128

// readTerminated reads guest memory from addr up to but not including term.
func (k *Kernel) readTerminated(addr uint64, term byte, max int) ([]byte, error) {
	var out []byte
	buf := make([]byte, 64)
	for len(out) < max {
		n := uint64(len(buf))
		if addr+n > x86_16.MemSize {
			n = x86_16.MemSize - addr
		}
		if n == 0 {
			break
		}
		if err := k.Task.MemReadInto(buf[:n], addr); err != nil {
			return nil, err
		}
		if i := bytes.IndexByte(buf[:n], term); i >= 0 {
			return append(out, buf[:i]...), nil
		}
		out = append(out, buf[:n]...)
		addr += n
	}
	return nil, errors.Errorf("unterminated string at %#x", addr)
}

// hostPath maps a DOS path like C:\GAMES\SAVE.DAT below Config.Root.
func (k *Kernel) hostPath(name string) string {
	if len(name) >= 2 && name[1] == ':' {
		name = name[2:]
	}
	name = strings.ReplaceAll(name, "\\", "/")
	return filepath.Join(k.Config.Root, filepath.FromSlash(filepath.Clean("/"+name)))
}
