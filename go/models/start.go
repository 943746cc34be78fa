package models

import "fmt"

// StartState is the initial machine state computed by a loader.
type StartState struct {
	Entry     uint64
	Stack     uint64
	Load      uint64
	StackSize uint64

	CS, IP uint16
	SS, SP uint16
}

func (s *StartState) String() string {
	return fmt.Sprintf("entry=%#x (%04x:%04x) stack=%#x (%04x:%04x) load=%#x stack_size=%#x",
		s.Entry, s.CS, s.IP, s.Stack, s.SS, s.SP, s.Load, s.StackSize)
}
