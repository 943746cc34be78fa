package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/nsf/termbox-go"
	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/models"
)

// Screen is a terminal Display drawn with termbox. Messages shown while it is
// open are printed again to Log after Close, since the terminal is restored.
type Screen struct {
	Log io.Writer

	mu      sync.Mutex
	g       grid
	keys    chan models.Key
	pending *models.Key
	msgs    []string
	done    chan struct{}
	closed  bool
}

func OpenScreen() (*Screen, error) {
	if err := termbox.Init(); err != nil {
		return nil, errors.Wrap(err, "termbox.Init() failed")
	}
	s := &Screen{
		Log:  os.Stderr,
		keys: make(chan models.Key, 64),
		done: make(chan struct{}),
	}
	s.g.clear()
	go s.poll()
	return s, s.flush()
}

func (s *Screen) poll() {
	defer close(s.done)
	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventInterrupt:
			return
		case termbox.EventKey:
			key, ok := keyFromEvent(ev)
			if !ok {
				continue
			}
			// drop keys while the buffer is full, like a BIOS keyboard buffer
			select {
			case s.keys <- key:
			default:
			}
		}
	}
}

// scan codes for keys without an ascii value
var scanCodes = map[termbox.Key]byte{
	termbox.KeyArrowUp:    0x48,
	termbox.KeyArrowDown:  0x50,
	termbox.KeyArrowLeft:  0x4b,
	termbox.KeyArrowRight: 0x4d,
	termbox.KeyHome:       0x47,
	termbox.KeyEnd:        0x4f,
	termbox.KeyPgup:       0x49,
	termbox.KeyPgdn:       0x51,
	termbox.KeyInsert:     0x52,
	termbox.KeyDelete:     0x53,
	termbox.KeyF1:         0x3b,
	termbox.KeyF2:         0x3c,
	termbox.KeyF3:         0x3d,
	termbox.KeyF4:         0x3e,
	termbox.KeyF5:         0x3f,
	termbox.KeyF6:         0x40,
	termbox.KeyF7:         0x41,
	termbox.KeyF8:         0x42,
	termbox.KeyF9:         0x43,
	termbox.KeyF10:        0x44,
}

func keyFromEvent(ev termbox.Event) (models.Key, bool) {
	if ev.Ch != 0 {
		if ev.Ch > 0x7f {
			return models.Key{}, false
		}
		return models.Key{Ascii: byte(ev.Ch)}, true
	}
	if scan, ok := scanCodes[ev.Key]; ok {
		return models.Key{Scan: scan}, true
	}
	switch ev.Key {
	case termbox.KeyEnter:
		return models.Key{Ascii: '\r', Scan: 0x1c}, true
	case termbox.KeyEsc:
		return models.Key{Ascii: 0x1b, Scan: 0x01}, true
	case termbox.KeyBackspace2:
		return models.Key{Ascii: '\b', Scan: 0x0e}, true
	case termbox.KeySpace:
		return models.Key{Ascii: ' ', Scan: 0x39}, true
	}
	if ev.Key < 0x80 {
		return models.Key{Ascii: byte(ev.Key)}, true
	}
	return models.Key{}, false
}

func (s *Screen) flush() error {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			termbox.SetCell(c, r, rune(s.g.cells[r][c]), termbox.ColorDefault, termbox.ColorDefault)
		}
	}
	termbox.SetCursor(s.g.col, s.g.row)
	return termbox.Flush()
}

func (s *Screen) PutChar(ch byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.put(ch)
	return s.flush()
}

func (s *Screen) SetCursor(row, col int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.setCursor(row, col)
	return s.flush()
}

func (s *Screen) Cursor() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.g.row, s.g.col
}

func (s *Screen) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.clear()
	return s.flush()
}

func (s *Screen) ReadKey() (models.Key, error) {
	s.mu.Lock()
	if p := s.pending; p != nil {
		s.pending = nil
		s.mu.Unlock()
		return *p, nil
	}
	s.mu.Unlock()
	select {
	case key := <-s.keys:
		return key, nil
	case <-s.done:
		return models.Key{}, errors.New("screen closed")
	}
}

func (s *Screen) PollKey() (models.Key, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return *s.pending, true, nil
	}
	select {
	case key := <-s.keys:
		s.pending = &key
		return key, true, nil
	default:
		return models.Key{}, false, nil
	}
}

// Message draws msg on the bottom row.
func (s *Screen) Message(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	for c := 0; c < Cols; c++ {
		ch := ' '
		if c < len(msg) {
			ch = rune(msg[c])
		}
		termbox.SetCell(c, Rows-1, ch, termbox.ColorWhite|termbox.AttrBold, termbox.ColorRed)
	}
	termbox.Flush()
}

func (s *Screen) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	msgs := s.msgs
	s.mu.Unlock()

	termbox.Interrupt()
	<-s.done
	termbox.Close()
	for _, msg := range msgs {
		fmt.Fprintln(s.Log, msg)
	}
	return nil
}
