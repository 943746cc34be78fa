package dos

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/arch/x86_16"
	"github.com/lunixbochs/doscorn/go/models"
)

// DOS error codes returned in AX with CF set.
const (
	errInvalidFunction = 0x01
	errFileNotFound    = 0x02
	errPathNotFound    = 0x03
	errTooManyFiles    = 0x04
	errAccessDenied    = 0x05
	errInvalidHandle   = 0x06
	errInvalidAccess   = 0x0c
)

// drive C:
const currentDrive = 2

// dosError is an error that already is a DOS error code.
type dosError uint16

func (e dosError) Error() string {
	return fmt.Sprintf("DOS error %#04x", uint16(e))
}

func dosErrno(err error) uint16 {
	cause := errors.Cause(err)
	if code, ok := cause.(dosError); ok {
		return uint16(code)
	}
	switch {
	case cause == BadHandle:
		return errInvalidHandle
	case cause == NoHandles:
		return errTooManyFiles
	case os.IsNotExist(cause):
		return errFileNotFound
	case os.IsPermission(cause):
		return errAccessDenied
	}
	return errAccessDenied
}

// result sets CF and AX the way int 21h file services report errors.
// Host-side failures become guest error codes, register faults end the run.
func (k *Kernel) result(r *regs, ax uint16, err error) error {
	if r.err != nil {
		return r.err
	}
	if err != nil {
		k.log.Debug("service failed", "error", err)
		ax = dosErrno(err)
		if err := k.Flags.SetCF(); err != nil {
			return err
		}
	} else if err := k.Flags.ClearCF(); err != nil {
		return err
	}
	r.set(x86_16.AX, ax)
	return r.err
}

func int20(k *Kernel) error {
	return models.ExitStatus(0)
}

func int21Terminate(k *Kernel) error {
	return models.ExitStatus(0)
}

func int21Exit(k *Kernel) error {
	r := k.regs()
	code := r.get(x86_16.AL)
	if r.err != nil {
		return r.err
	}
	return models.ExitStatus(code)
}

func int21ReadChar(k *Kernel) error {
	key, err := k.getKey()
	if err != nil {
		return err
	}
	if err := k.putc(key.Ascii); err != nil {
		return err
	}
	r := k.regs()
	r.set(x86_16.AL, uint16(key.Ascii))
	return r.err
}

func int21WriteChar(k *Kernel) error {
	r := k.regs()
	dl := r.get(x86_16.DL)
	if r.err != nil {
		return r.err
	}
	if err := k.putc(byte(dl)); err != nil {
		return err
	}
	r.set(x86_16.AL, dl)
	return r.err
}

func int21DirectIO(k *Kernel) error {
	r := k.regs()
	dl := r.get(x86_16.DL)
	if r.err != nil {
		return r.err
	}
	if dl != 0xff {
		if err := k.putc(byte(dl)); err != nil {
			return err
		}
		r.set(x86_16.AL, dl)
		return r.err
	}
	key, ok, err := k.pollKey(true)
	if err != nil {
		return err
	}
	if !ok {
		r.set(x86_16.AL, 0)
		if r.err != nil {
			return r.err
		}
		return k.Flags.SetZF()
	}
	r.set(x86_16.AL, uint16(key.Ascii))
	if r.err != nil {
		return r.err
	}
	return k.Flags.ClearZF()
}

func int21WriteString(k *Kernel) error {
	r := k.regs()
	addr := r.ptr(x86_16.DS, x86_16.DX)
	if r.err != nil {
		return r.err
	}
	s, err := k.readTerminated(addr, '$', 0x10000)
	if err != nil {
		return err
	}
	for _, ch := range s {
		if err := k.putc(ch); err != nil {
			return err
		}
	}
	r.set(x86_16.AL, '$')
	return r.err
}

func int21GetDrive(k *Kernel) error {
	r := k.regs()
	r.set(x86_16.AL, currentDrive)
	return r.err
}

// vectors live in a real mode IVT at address 0
func int21SetVector(k *Kernel) error {
	r := k.regs()
	vec := uint64(r.get(x86_16.AL)) * 4
	off, seg := r.get(x86_16.DX), r.get(x86_16.DS)
	if r.err != nil {
		return r.err
	}
	return k.Task.MemWrite(vec, []byte{byte(off), byte(off >> 8), byte(seg), byte(seg >> 8)})
}

func int21GetVector(k *Kernel) error {
	r := k.regs()
	vec := uint64(r.get(x86_16.AL)) * 4
	if r.err != nil {
		return r.err
	}
	b, err := k.Task.MemRead(vec, 4)
	if err != nil {
		return err
	}
	r.set(x86_16.BX, uint16(b[0])|uint16(b[1])<<8)
	r.set(x86_16.ES, uint16(b[2])|uint16(b[3])<<8)
	return r.err
}

func int21GetDate(k *Kernel) error {
	now := k.Now()
	r := k.regs()
	r.set(x86_16.CX, uint16(now.Year()))
	r.set(x86_16.DH, uint16(now.Month()))
	r.set(x86_16.DL, uint16(now.Day()))
	r.set(x86_16.AL, uint16(now.Weekday()))
	return r.err
}

func int21GetTime(k *Kernel) error {
	now := k.Now()
	r := k.regs()
	r.set(x86_16.CH, uint16(now.Hour()))
	r.set(x86_16.CL, uint16(now.Minute()))
	r.set(x86_16.DH, uint16(now.Second()))
	r.set(x86_16.DL, uint16(now.Nanosecond()/10000000))
	return r.err
}

func int21GetVersion(k *Kernel) error {
	r := k.regs()
	r.set(x86_16.AX, k.Config.Profile.Kernel.Version)
	// OEM and serial number
	r.set(x86_16.BX, 0)
	r.set(x86_16.CX, 0)
	return r.err
}

func (k *Kernel) pathArg(r *regs) (string, error) {
	addr := r.ptr(x86_16.DS, x86_16.DX)
	if r.err != nil {
		return "", r.err
	}
	name, err := k.readTerminated(addr, 0, maxPath)
	if err != nil {
		return "", err
	}
	return string(name), nil
}

func (k *Kernel) openFile(r *regs, name string, flag int) error {
	path := k.hostPath(name)
	f, err := os.OpenFile(path, flag, 0644)
	if os.IsNotExist(err) {
		if _, serr := os.Stat(filepath.Dir(path)); serr != nil {
			err = dosError(errPathNotFound)
		}
	}
	if err != nil {
		return k.result(r, 0, err)
	}
	h, err := k.Files.Add(f)
	if err != nil {
		f.Close()
		return k.result(r, 0, err)
	}
	k.log.Debug("opened file", "name", name, "path", path, "handle", h)
	return k.result(r, h, nil)
}

func int21Create(k *Kernel) error {
	r := k.regs()
	name, err := k.pathArg(r)
	if err != nil {
		return err
	}
	return k.openFile(r, name, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
}

func int21Open(k *Kernel) error {
	r := k.regs()
	name, err := k.pathArg(r)
	if err != nil {
		return err
	}
	var flag int
	switch r.get(x86_16.AL) & 7 {
	case 0:
		flag = os.O_RDONLY
	case 1:
		flag = os.O_WRONLY
	case 2:
		flag = os.O_RDWR
	default:
		return k.result(r, 0, dosError(errInvalidAccess))
	}
	return k.openFile(r, name, flag)
}

func int21Close(k *Kernel) error {
	r := k.regs()
	h := r.get(x86_16.BX)
	if r.err != nil {
		return r.err
	}
	return k.result(r, 0, k.Files.Close(h))
}

func int21Read(k *Kernel) error {
	r := k.regs()
	h, count := r.get(x86_16.BX), r.get(x86_16.CX)
	addr := r.ptr(x86_16.DS, x86_16.DX)
	if r.err != nil {
		return r.err
	}
	rd, err := k.Files.Reader(h)
	if err != nil {
		return k.result(r, 0, err)
	}
	buf := make([]byte, count)
	n, err := io.ReadFull(rd, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil {
		return k.result(r, 0, err)
	}
	if err := k.Task.MemWrite(addr, buf[:n]); err != nil {
		return err
	}
	return k.result(r, uint16(n), nil)
}

func int21Write(k *Kernel) error {
	r := k.regs()
	h, count := r.get(x86_16.BX), r.get(x86_16.CX)
	addr := r.ptr(x86_16.DS, x86_16.DX)
	if r.err != nil {
		return r.err
	}
	w, err := k.Files.Writer(h)
	if err != nil {
		return k.result(r, 0, err)
	}
	buf, err := k.Task.MemRead(addr, uint64(count))
	if err != nil {
		return err
	}
	n, err := w.Write(buf)
	return k.result(r, uint16(n), err)
}

func int21Delete(k *Kernel) error {
	r := k.regs()
	name, err := k.pathArg(r)
	if err != nil {
		return err
	}
	return k.result(r, 0, os.Remove(k.hostPath(name)))
}

func int21Seek(k *Kernel) error {
	r := k.regs()
	h, whence := r.get(x86_16.BX), r.get(x86_16.AL)
	off := int64(int32(uint32(r.get(x86_16.CX))<<16 | uint32(r.get(x86_16.DX))))
	if r.err != nil {
		return r.err
	}
	if whence > io.SeekEnd {
		return k.result(r, 0, dosError(errInvalidFunction))
	}
	s, err := k.Files.Seeker(h)
	if err != nil {
		return k.result(r, 0, err)
	}
	pos, err := s.Seek(off, int(whence))
	if err != nil {
		return k.result(r, 0, err)
	}
	r.set(x86_16.DX, uint16(pos>>16))
	return k.result(r, uint16(pos), nil)
}
