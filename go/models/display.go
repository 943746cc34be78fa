package models

// Key is a keystroke as BIOS keyboard services return it.
type Key struct {
	Ascii byte
	Scan  byte
}

// Display is an interactive text surface for video and keyboard services.
// A session acquires at most one and releases it when the run ends.
type Display interface {
	PutChar(ch byte) error
	SetCursor(row, col int) error
	Cursor() (row, col int)
	Clear() error

	// ReadKey blocks for a key and consumes it. PollKey peeks without
	// consuming and returns ok=false if no key is buffered.
	ReadKey() (Key, error)
	PollKey() (key Key, ok bool, err error)

	// Message shows out-of-band diagnostics without tearing down the surface.
	Message(msg string)
	Close() error
}
