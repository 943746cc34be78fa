package disk

import (
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/models"
)

const SectorSize = 512

// File is a raw disk image backed by a host file.
type File struct {
	*os.File
	sectors uint64
}

func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		// boot images are often read-only
		if f, err = os.Open(path); err != nil {
			return nil, errors.Wrap(err, "disk.Open() failed")
		}
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "disk.Open() failed")
	}
	sectors := (uint64(fi.Size()) + SectorSize - 1) / SectorSize
	return &File{File: f, sectors: sectors}, nil
}

func (f *File) SectorSize() int { return SectorSize }
func (f *File) Sectors() uint64 { return f.sectors }

// Disks is a DiskMapper keyed by BIOS drive number.
type Disks struct {
	mu   sync.Mutex
	devs map[int]models.BlockDevice
}

func NewDisks() *Disks {
	return &Disks{devs: make(map[int]models.BlockDevice)}
}

func (d *Disks) HasMapping(id int) bool {
	_, ok := d.Mapping(id)
	return ok
}

func (d *Disks) AddMapping(id int, dev models.BlockDevice) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.devs[id]; ok {
		return errors.Errorf("drive %#x already mapped", id)
	}
	d.devs[id] = dev
	return nil
}

func (d *Disks) Mapping(id int) (models.BlockDevice, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, ok := d.devs[id]
	return dev, ok
}

// Close closes every mapped device and empties the registry.
func (d *Disks) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var first error
	for id, dev := range d.devs {
		if err := dev.Close(); err != nil && first == nil {
			first = err
		}
		delete(d.devs, id)
	}
	return first
}
