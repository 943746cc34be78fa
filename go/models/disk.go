package models

import "io"

// BlockDevice is a sector-addressed guest disk.
type BlockDevice interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	SectorSize() int
	Sectors() uint64
}

// DiskMapper maps BIOS drive numbers (0x80 is the first hard disk) to devices.
type DiskMapper interface {
	HasMapping(id int) bool
	AddMapping(id int, dev BlockDevice) error
	Mapping(id int) (BlockDevice, bool)
}
