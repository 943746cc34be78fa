package loader

import (
	"bytes"
	"encoding/binary"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

const (
	mzHeaderLen = 28
	// the header is usable once the initial cs word at 22:24 is present
	mzMinLen  = 24
	blockSize = 512
)

var mzMagic = [2]byte{'M', 'Z'}

// MZHeader is the fixed part of a DOS executable header.
type MZHeader struct {
	Magic          [2]byte
	LastBlockBytes uint16
	Blocks         uint16
	Relocs         uint16
	HeaderUnits    uint16
	MinAlloc       uint16
	MaxAlloc       uint16
	SS             uint16
	SP             uint16
	Checksum       uint16
	IP             uint16
	CS             uint16
	RelocOffset    uint16
	Overlay        uint16
}

func ParseMZ(data []byte) (*MZHeader, error) {
	if len(data) < mzMinLen {
		return nil, errors.Wrapf(TruncatedHeader, "got %d bytes", len(data))
	}
	raw := data
	if len(raw) < mzHeaderLen {
		// relocation offset and overlay read as zero
		raw = make([]byte, mzHeaderLen)
		copy(raw, data)
	}
	var h MZHeader
	if err := struc.UnpackWithOrder(bytes.NewReader(raw), &h, binary.LittleEndian); err != nil {
		return nil, errors.Wrap(err, "struc.Unpack() failed")
	}
	if h.Magic != mzMagic {
		return nil, errors.Wrapf(BadMagic, "got %q", h.Magic[:])
	}
	if int(h.HeaderSize()) > len(data) {
		return nil, errors.Wrapf(TruncatedHeader, "header is %d bytes, file is %d", h.HeaderSize(), len(data))
	}
	return &h, nil
}

// Size is the image size the header claims, header included. A last block
// count of 0 means the last block is full.
func (h *MZHeader) Size() uint64 {
	if h.Blocks == 0 {
		return 0
	}
	last := uint64(h.LastBlockBytes)
	if last == 0 {
		last = blockSize
	}
	return uint64(h.Blocks-1)*blockSize + last
}

func (h *MZHeader) HeaderSize() uint64 {
	return uint64(h.HeaderUnits) * 16
}
