package loader

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/arch/x86_16"
	"github.com/lunixbochs/doscorn/go/disk"
	"github.com/lunixbochs/doscorn/go/models"
	"github.com/lunixbochs/doscorn/go/models/cpu"
)

var (
	UnsupportedFormat = errors.New("unsupported executable format")
	BadMagic          = errors.New("bad MZ magic")
	TruncatedHeader   = errors.New("truncated MZ header")
)

type Format int

const (
	COM Format = iota + 1
	EXE
	MBR
)

var formatNames = map[Format]string{COM: "com", EXE: "exe", MBR: "mbr"}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

const (
	BootDrive = 0x80
	mbrIP     = 0x7c00
	mbrSP     = 0xfff0
)

// DetectFormat picks the image format from the file name alone.
func DetectFormat(path string) (Format, error) {
	switch {
	case strings.HasSuffix(path, ".DOS_COM"):
		return COM, nil
	case strings.HasSuffix(path, ".DOS_EXE"):
		return EXE, nil
	case strings.HasSuffix(path, ".DOS_MBR"):
		return MBR, nil
	}
	return 0, errors.Wrapf(UnsupportedFormat, "%s", path)
}

type Options struct {
	Profile models.Profile
	// command tail for the PSP of flat images
	Args []string
	// MBR images register themselves here as the boot drive
	Disks models.DiskMapper
}

// Image is a parsed executable, ready to be written to memory.
type Image struct {
	Path     string
	Format   Format
	Header   *MZHeader
	State    models.StartState
	Segments []models.SegmentData
}

// Parse computes the start state and segments of an image without side effects.
func Parse(path string, data []byte, opts *Options) (*Image, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	img := &Image{Path: path, Format: format}
	prof := opts.Profile
	var cs, ip, ss, sp uint16
	switch format {
	case COM:
		cs, ip, sp = prof.COM.StartCS, prof.COM.StartIP, prof.COM.StartSP
		ss = cs
		img.State.Load = x86_16.Linear(cs, ip)
		if ip >= pspSize {
			psp, err := NewPSP(prof.Kernel.Version, opts.Args).Pack()
			if err != nil {
				return nil, errors.Wrap(err, "failed to pack PSP")
			}
			img.Segments = append(img.Segments, rawSegment(x86_16.Linear(cs, 0), 0, psp))
		}
		img.Segments = append(img.Segments, rawSegment(img.State.Load, 0, data))
	case EXE:
		h, err := ParseMZ(data)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", path)
		}
		img.Header = h
		cs, ip, ss, sp = h.CS, h.IP, h.SS, h.SP
		off := h.HeaderSize()
		img.Segments = append(img.Segments, rawSegment(0, off, data[off:]))
	case MBR:
		cs, ip, sp = 0, mbrIP, mbrSP
		ss = cs
		img.State.Load = x86_16.Linear(cs, ip)
		img.Segments = append(img.Segments, rawSegment(img.State.Load, 0, data))
	}
	img.State.CS, img.State.IP = cs, ip
	img.State.SS, img.State.SP = ss, sp
	img.State.Entry = x86_16.Linear(cs, ip)
	img.State.Stack = x86_16.Linear(ss, sp)
	img.State.StackSize = prof.COM.StackSize
	return img, nil
}

func rawSegment(addr, off uint64, data []byte) models.SegmentData {
	return models.SegmentData{
		Off:      off,
		Addr:     addr,
		Size:     uint64(len(data)),
		DataFunc: func() ([]byte, error) { return data, nil },
	}
}

// Load reads, parses and writes an image into task memory, then sets the
// segment registers, ip and sp. The format is checked before the file is read,
// and boot images are registered as a disk before memory is touched.
func Load(task models.Task, path string, opts *Options) (*Image, error) {
	if _, err := DetectFormat(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image")
	}
	img, err := Parse(path, data, opts)
	if err != nil {
		return nil, err
	}
	if img.Format == MBR {
		if err := registerBoot(path, opts.Disks); err != nil {
			return nil, err
		}
	}
	if err := img.Apply(task); err != nil {
		return nil, err
	}
	if img.Format == MBR {
		if err := task.RegWrite(x86_16.DX, BootDrive); err != nil {
			return nil, errors.Wrap(err, "failed to set boot drive")
		}
	}
	return img, nil
}

// registerBoot makes the boot image the first hard disk unless one is mapped.
func registerBoot(path string, disks models.DiskMapper) error {
	if disks == nil {
		return errors.New("boot images need a disk registry")
	}
	if disks.HasMapping(BootDrive) {
		return nil
	}
	dev, err := disk.Open(path)
	if err != nil {
		return err
	}
	if err := disks.AddMapping(BootDrive, dev); err != nil {
		dev.Close()
		return err
	}
	return nil
}

// Apply maps the whole address space and writes the image and initial registers.
func (img *Image) Apply(task models.Task) error {
	if err := task.Mmap(0, x86_16.MemSize, cpu.PROT_ALL, "[FULL]"); err != nil {
		return err
	}
	for _, seg := range img.Segments {
		data, err := seg.Data()
		if err != nil {
			return err
		}
		if err := task.MemWrite(seg.Addr, data); err != nil {
			return errors.Wrapf(err, "failed to write segment at %#x", seg.Addr)
		}
	}
	s := &img.State
	regs := []struct {
		enum int
		val  uint16
	}{
		{x86_16.CS, s.CS},
		{x86_16.DS, s.CS},
		{x86_16.ES, s.CS},
		{x86_16.SS, s.SS},
		{x86_16.IP, s.IP},
		{x86_16.SP, s.SP},
	}
	for _, r := range regs {
		if err := task.RegWrite(r.enum, uint64(r.val)); err != nil {
			return errors.Wrap(err, "failed to set initial registers")
		}
	}
	return nil
}
