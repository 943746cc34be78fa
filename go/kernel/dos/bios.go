package dos

import (
	"github.com/lunixbochs/doscorn/go/arch/x86_16"
)

func int10SetMode(k *Kernel) error {
	if k.display != nil {
		return k.display.Clear()
	}
	return nil
}

func int10SetCursor(k *Kernel) error {
	r := k.regs()
	row, col := r.get(x86_16.DH), r.get(x86_16.DL)
	if r.err != nil || k.display == nil {
		return r.err
	}
	return k.display.SetCursor(int(row), int(col))
}

func int10GetCursor(k *Kernel) error {
	var row, col int
	if k.display != nil {
		row, col = k.display.Cursor()
	}
	r := k.regs()
	r.set(x86_16.DH, uint16(row))
	r.set(x86_16.DL, uint16(col))
	// default underline cursor shape
	r.set(x86_16.CX, 0x0607)
	return r.err
}

func int10Teletype(k *Kernel) error {
	r := k.regs()
	al := r.get(x86_16.AL)
	if r.err != nil {
		return r.err
	}
	return k.putc(byte(al))
}

func int16ReadKey(k *Kernel) error {
	key, err := k.getKey()
	if err != nil {
		return err
	}
	r := k.regs()
	r.set(x86_16.AX, uint16(key.Scan)<<8|uint16(key.Ascii))
	return r.err
}

func int16CheckKey(k *Kernel) error {
	key, ok, err := k.pollKey(false)
	if err != nil {
		return err
	}
	if !ok {
		return k.Flags.SetZF()
	}
	r := k.regs()
	r.set(x86_16.AX, uint16(key.Scan)<<8|uint16(key.Ascii))
	if r.err != nil {
		return r.err
	}
	return k.Flags.ClearZF()
}

// ticks since the run started, at Kernel.TicksPerSecond
func int1aGetTicks(k *Kernel) error {
	elapsed := k.Now().Sub(k.start)
	ticks := uint32(elapsed.Seconds() * k.Config.Profile.Kernel.TicksPerSecond)
	r := k.regs()
	r.set(x86_16.CX, uint16(ticks>>16))
	r.set(x86_16.DX, uint16(ticks))
	r.set(x86_16.AL, 0)
	return r.err
}

// int 13h status codes in AH
const (
	diskOK          = 0x00
	diskBadCommand  = 0x01
	diskNotFound    = 0x04
	diskReadFailure = 0x20
)

// CHS geometry used to address images of any size
const (
	heads           = 16
	sectorsPerTrack = 63
)

func (k *Kernel) diskStatus(r *regs, status uint16) error {
	r.set(x86_16.AH, status)
	if r.err != nil {
		return r.err
	}
	if status != diskOK {
		return k.Flags.SetCF()
	}
	return k.Flags.ClearCF()
}

func int13Reset(k *Kernel) error {
	return k.diskStatus(k.regs(), diskOK)
}

func int13Read(k *Kernel) error {
	r := k.regs()
	count := r.get(x86_16.AL)
	ch, cl := r.get(x86_16.CH), r.get(x86_16.CL)
	head, drive := r.get(x86_16.DH), r.get(x86_16.DL)
	addr := r.ptr(x86_16.ES, x86_16.BX)
	if r.err != nil {
		return r.err
	}
	dev, ok := k.Disks.Mapping(int(drive))
	if !ok {
		return k.diskStatus(r, diskBadCommand)
	}
	cyl := uint64(ch) | uint64(cl&0xc0)<<2
	sector := uint64(cl & 0x3f)
	if sector == 0 {
		return k.diskStatus(r, diskNotFound)
	}
	lba := (cyl*heads+uint64(head))*sectorsPerTrack + sector - 1
	if lba+uint64(count) > dev.Sectors() {
		return k.diskStatus(r, diskNotFound)
	}
	size := dev.SectorSize()
	buf := make([]byte, int(count)*size)
	if n, err := dev.ReadAt(buf, int64(lba)*int64(size)); n < len(buf) && err != nil {
		// a short final sector of the image reads as zeros
		if lba+uint64(count) < dev.Sectors() {
			k.log.Debug("disk read failed", "drive", drive, "lba", lba, "error", err)
			return k.diskStatus(r, diskReadFailure)
		}
	}
	if err := k.Task.MemWrite(addr, buf); err != nil {
		return err
	}
	r.set(x86_16.AL, count)
	return k.diskStatus(r, diskOK)
}

