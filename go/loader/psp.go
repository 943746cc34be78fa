package loader

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/lunixbochs/struc"
)

const pspSize = 0x100

// PSP is the Program Segment Prefix DOS builds in front of a flat program.
type PSP struct {
	CPMExit                     [2]uint8
	FirstFreeSegment            uint16
	Reserved1                   uint8
	CPMCall5Compat              [5]uint8
	OldTSRAddress               uint32
	OldBreakAddress             uint32
	CriticalErrorHandlerAddress uint32
	CallerPSPSegment            uint16
	JobFileTable                [20]uint8
	EnvironmentSegment          uint16
	INT21SSSP                   uint32
	JobFileTableSize            uint16
	JobFileTablePointer         uint32
	PreviousPSP                 uint32
	Reserved2                   uint32
	DOSVersion                  uint16
	Reserved3                   [14]uint8
	DOSFarCall                  [3]uint8
	Reserved4                   uint16
	ExtendedFCB1                [7]uint8
	FCB1                        [16]uint8
	FCB2                        [20]uint8
	CommandLineLength           uint8
	CommandLine                 [127]byte
}

func NewPSP(version uint16, args []string) *PSP {
	p := &PSP{
		CPMExit:          [2]uint8{0xcd, 0x20},
		FirstFreeSegment: 0xa000,
		DOSVersion:       version,
		// int 21h; retf
		DOSFarCall: [3]uint8{0xcd, 0x21, 0xcb},
	}
	for i := range p.JobFileTable {
		p.JobFileTable[i] = 0xff
	}
	// stdin, stdout, stderr, aux, prn
	copy(p.JobFileTable[:], []uint8{0, 1, 2, 3, 4})
	p.JobFileTableSize = uint16(len(p.JobFileTable))

	var tail string
	if len(args) > 0 {
		tail = " " + strings.Join(args, " ")
	}
	// the tail is terminated by a CR which the length does not count
	if len(tail) > len(p.CommandLine)-1 {
		tail = tail[:len(p.CommandLine)-1]
	}
	n := copy(p.CommandLine[:], tail)
	p.CommandLine[n] = '\r'
	p.CommandLineLength = uint8(n)
	return p
}

func (p *PSP) Pack() ([]byte, error) {
	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, p, binary.LittleEndian); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
