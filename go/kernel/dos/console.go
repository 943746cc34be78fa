package dos

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// consoleInput is the guest's keyboard when no display is open. Files and
// pipes are read directly. A terminal is drained by a goroutine, started on
// first use, so a key check never blocks waiting for the user.
type consoleInput struct {
	r    io.Reader
	once sync.Once
	tty  *ttyReader
	eof  bool
}

func (c *consoleInput) start() {
	c.once.Do(func() {
		if f, ok := c.r.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			c.tty = newTTYReader(f)
		}
	})
}

func (c *consoleInput) Read(p []byte) (int, error) {
	c.start()
	if c.tty != nil {
		return c.tty.Read(p)
	}
	n, err := c.r.Read(p)
	if err == io.EOF {
		c.eof = true
	}
	return n, err
}

// ready reports whether a Read would return without waiting on a user.
func (c *consoleInput) ready() bool {
	c.start()
	if c.tty != nil {
		return c.tty.ready()
	}
	return !c.eof
}

type ttyReader struct {
	data chan byte
	// set before data is closed
	err error
}

func newTTYReader(r io.Reader) *ttyReader {
	t := &ttyReader{data: make(chan byte, 4096)}
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				t.data <- b
			}
			if err != nil {
				t.err = err
				close(t.data)
				return
			}
		}
	}()
	return t
}

func (t *ttyReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, ok := <-t.data
	if !ok {
		return 0, t.err
	}
	p[0] = b
	n := 1
	for n < len(p) {
		select {
		case b, ok := <-t.data:
			if !ok {
				return n, nil
			}
			p[n] = b
			n++
		default:
			return n, nil
		}
	}
	return n, nil
}

func (t *ttyReader) ready() bool {
	return len(t.data) > 0
}
