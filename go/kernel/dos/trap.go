package dos

import (
	"fmt"
	"sync"
)

// TrapKey identifies one interrupt service: the interrupt number and the
// leaf function selected by AH.
type TrapKey struct {
	Intno uint8
	Leaf  uint8
}

func (k TrapKey) String() string {
	return fmt.Sprintf("%02xh/0x%02x", k.Intno, k.Leaf)
}

// Handler implements or intercepts one service. Hooks and handlers share
// the live register and memory state of the kernel's task.
type Handler func(k *Kernel) error

// HandlerTable is a TrapKey -> Handler map that may be changed at any time,
// including by a handler that is currently running.
type HandlerTable struct {
	mu sync.RWMutex
	m  map[TrapKey]Handler
}

func NewHandlerTable() *HandlerTable {
	return &HandlerTable{m: make(map[TrapKey]Handler)}
}

func (t *HandlerTable) Set(key TrapKey, fn Handler) {
	t.mu.Lock()
	if fn == nil {
		delete(t.m, key)
	} else {
		t.m[key] = fn
	}
	t.mu.Unlock()
}

func (t *HandlerTable) Delete(key TrapKey) {
	t.Set(key, nil)
}

func (t *HandlerTable) Get(key TrapKey) Handler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m[key]
}

func (t *HandlerTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}

// UnimplementedTrap is returned when neither the override table nor the
// built-in services handle a trap. It ends the run.
type UnimplementedTrap struct {
	Intno uint8
	Leaf  uint8
}

func (e *UnimplementedTrap) Error() string {
	return fmt.Sprintf("DOS interrupt %02xh (leaf 0x%02x) is not implemented", e.Intno, e.Leaf)
}

// service is a built-in interrupt. Either every leaf goes to all, or AH
// selects one of leaves.
type service struct {
	all    Handler
	leaves map[uint8]Handler
}

func (s *service) resolve(leaf uint8) Handler {
	if s.all != nil {
		return s.all
	}
	return s.leaves[leaf]
}
