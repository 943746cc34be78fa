package dos

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

const (
	stdinHandle  = 0
	stdoutHandle = 1
	stderrHandle = 2
	// 3 and 4 are AUX and PRN
	firstHandle = 5
)

var BadHandle = errors.New("invalid handle")
var NoHandles = errors.New("too many open files")

type fileEntry struct {
	f interface{}
	// stdio belongs to the host and is never closed
	owned bool
}

// FileTable maps guest handles to host resources. Handles are allocated
// from a counter that only increases, so a closed handle is never reused.
type FileTable struct {
	mu    sync.Mutex
	next  uint32
	files map[uint16]fileEntry
}

func NewFileTable(stdin io.Reader, stdout, stderr io.Writer) *FileTable {
	t := &FileTable{next: firstHandle, files: make(map[uint16]fileEntry)}
	t.files[stdinHandle] = fileEntry{f: stdin}
	t.files[stdoutHandle] = fileEntry{f: stdout}
	t.files[stderrHandle] = fileEntry{f: stderr}
	return t
}

// Add takes ownership of f and returns its handle.
func (t *FileTable) Add(f io.Closer) (uint16, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.next > 0xffff {
		return 0, NoHandles
	}
	h := uint16(t.next)
	t.next++
	t.files[h] = fileEntry{f: f, owned: true}
	return h, nil
}

func (t *FileTable) Get(h uint16) (interface{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.files[h]
	if !ok {
		return nil, errors.Wrapf(BadHandle, "handle %d", h)
	}
	return e.f, nil
}

func (t *FileTable) Reader(h uint16) (io.Reader, error) {
	f, err := t.Get(h)
	if err != nil {
		return nil, err
	}
	if r, ok := f.(io.Reader); ok {
		return r, nil
	}
	return nil, errors.Wrapf(BadHandle, "handle %d is not readable", h)
}

func (t *FileTable) Writer(h uint16) (io.Writer, error) {
	f, err := t.Get(h)
	if err != nil {
		return nil, err
	}
	if w, ok := f.(io.Writer); ok {
		return w, nil
	}
	return nil, errors.Wrapf(BadHandle, "handle %d is not writable", h)
}

func (t *FileTable) Seeker(h uint16) (io.Seeker, error) {
	f, err := t.Get(h)
	if err != nil {
		return nil, err
	}
	if s, ok := f.(io.Seeker); ok {
		return s, nil
	}
	return nil, errors.Wrapf(BadHandle, "handle %d is not seekable", h)
}

// Close removes a handle, closing the resource if the table owns it.
func (t *FileTable) Close(h uint16) error {
	t.mu.Lock()
	e, ok := t.files[h]
	delete(t.files, h)
	t.mu.Unlock()
	if !ok {
		return errors.Wrapf(BadHandle, "handle %d", h)
	}
	if c, ok := e.f.(io.Closer); ok && e.owned {
		return c.Close()
	}
	return nil
}

// CloseAll closes every owned resource. Stdio handles stay open.
func (t *FileTable) CloseAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var first error
	for h, e := range t.files {
		if !e.owned {
			continue
		}
		if err := e.f.(io.Closer).Close(); err != nil && first == nil {
			first = err
		}
		delete(t.files, h)
	}
	return first
}

func (t *FileTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.files)
}
