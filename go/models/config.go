package models

import (
	"io"
	"os"
	"time"
)

// ComProfile holds the start values for flat images.
type ComProfile struct {
	StartCS   uint16
	StartIP   uint16
	StartSP   uint16
	StackSize uint64
}

type KernelProfile struct {
	Version        uint16
	TicksPerSecond float64
}

// Profile is the read-only OS profile consumed by the loader and the personality.
type Profile struct {
	COM    ComProfile
	Kernel KernelProfile
}

func DefaultProfile() Profile {
	return Profile{
		COM: ComProfile{
			StartCS:   0x1000,
			StartIP:   0x100,
			StartSP:   0xfffe,
			StackSize: 0x1000,
		},
		Kernel: KernelProfile{
			Version:        0x0700,
			TicksPerSecond: 18.2,
		},
	}
}

type Config struct {
	Verbose  bool
	TraceSys bool
	// enables the terminal display surface for video interrupts
	Display bool

	// host directory guest paths resolve against
	Root string

	// zero means unlimited
	Timeout time.Duration
	Count   uint64

	Output io.Writer
	Stdin  io.Reader
	Stdout io.Writer

	Profile Profile
}

func NewConfig() *Config {
	return &Config{
		Root:    ".",
		Output:  os.Stderr,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Profile: DefaultProfile(),
	}
}
