package dos

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/arch/x86_16"
	"github.com/lunixbochs/doscorn/go/disk"
	"github.com/lunixbochs/doscorn/go/loader"
	"github.com/lunixbochs/doscorn/go/models"
)

// Kernel is the DOS personality for one task: built-in interrupt services,
// user override and hook tables, open files and disks.
type Kernel struct {
	Task   models.Task
	Config *models.Config
	Flags  *x86_16.Flags

	// Calls overrides built-in services. Enters and Exits run around
	// whichever handler a trap resolves to.
	Calls  *HandlerTable
	Enters *HandlerTable
	Exits  *HandlerTable

	Files   *FileTable
	Disks   *disk.Disks
	Reports *models.ReportChain
	Image   *loader.Image

	// OpenDisplay acquires a display surface for a run when Config.Display is set.
	OpenDisplay func() (models.Display, error)
	Now         func() time.Time

	log      hclog.Logger
	defaults map[uint8]*service
	display  models.Display
	stdin    *bufio.Reader
	input    *consoleInput

	start  time.Time
	icount uint64
	err    error
}

func NewKernel(task models.Task, config *models.Config, log hclog.Logger) *Kernel {
	if config == nil {
		config = models.NewConfig()
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	k := &Kernel{
		Task:   task,
		Config: config,
		Flags:  x86_16.NewFlags(task),
		Calls:  NewHandlerTable(),
		Enters: NewHandlerTable(),
		Exits:  NewHandlerTable(),
		Disks:  disk.NewDisks(),
		Now:    time.Now,
		log:    log.Named("dos"),
		input:  &consoleInput{r: config.Stdin},
	}
	k.stdin = bufio.NewReader(k.input)
	k.Files = NewFileTable(k.stdin, &consoleWriter{k, config.Stdout}, &consoleWriter{k, config.Output})
	k.Reports = models.NewReportChain(models.ReporterFunc(func(err error) {
		k.log.Error("run failed", "error", err)
	}))
	k.defaults = defaultServices()
	return k
}

// Load maps an image into the task and sets up its initial registers.
func (k *Kernel) Load(path string, args []string) error {
	img, err := loader.Load(k.Task, path, &loader.Options{
		Profile: k.Config.Profile,
		Args:    args,
		Disks:   k.Disks,
	})
	if err != nil {
		return err
	}
	k.Image = img
	k.log.Debug("loaded image", "path", path, "format", img.Format, "state", img.State.String())
	return nil
}

func (k *Kernel) RegisterCall(key TrapKey, fn Handler)  { k.Calls.Set(key, fn) }
func (k *Kernel) RegisterEnter(key TrapKey, fn Handler) { k.Enters.Set(key, fn) }
func (k *Kernel) RegisterExit(key TrapKey, fn Handler)  { k.Exits.Set(key, fn) }

func (k *Kernel) UnregisterCall(key TrapKey)  { k.Calls.Delete(key) }
func (k *Kernel) UnregisterEnter(key TrapKey) { k.Enters.Delete(key) }
func (k *Kernel) UnregisterExit(key TrapKey)  { k.Exits.Delete(key) }

// Resolve picks the handler for key from the current table contents.
func (k *Kernel) Resolve(key TrapKey) Handler {
	if fn := k.Calls.Get(key); fn != nil {
		return fn
	}
	if svc, ok := k.defaults[key.Intno]; ok {
		return svc.resolve(key.Leaf)
	}
	return nil
}

// Dispatch handles one trap. The leaf is read from AH now, and errors from
// hooks or the handler are returned unchanged. An ExitStatus from the
// handler is returned after the exit hook runs.
func (k *Kernel) Dispatch(intno uint32) error {
	ah, err := k.Task.RegRead(x86_16.AH)
	if err != nil {
		return err
	}
	key := TrapKey{Intno: uint8(intno), Leaf: uint8(ah)}
	fn := k.Resolve(key)
	if fn == nil {
		return &UnimplementedTrap{Intno: key.Intno, Leaf: key.Leaf}
	}
	k.log.Debug("handling interrupt", "intno", fmt.Sprintf("%02xh", key.Intno), "leaf", fmt.Sprintf("0x%02x", key.Leaf))
	if enter := k.Enters.Get(key); enter != nil {
		if err := enter(k); err != nil {
			return err
		}
	}
	err = fn(k)
	if _, exiting := err.(models.ExitStatus); err != nil && !exiting {
		return err
	}
	// terminate services still run their exit hook before the status is returned
	if exit := k.Exits.Get(key); exit != nil {
		if xerr := exit(k); xerr != nil {
			return xerr
		}
	}
	return err
}

// Display is the surface acquired for the current run, or nil.
func (k *Kernel) Display() models.Display {
	return k.display
}

// Instructions is the number of instructions executed so far in the current run.
func (k *Kernel) Instructions() uint64 {
	return k.icount
}

func (k *Kernel) putc(ch byte) error {
	if k.display != nil {
		return k.display.PutChar(ch)
	}
	_, err := k.Config.Stdout.Write([]byte{ch})
	return err
}

func (k *Kernel) getKey() (models.Key, error) {
	if k.display != nil {
		return k.display.ReadKey()
	}
	ch, err := k.stdin.ReadByte()
	if err != nil {
		return models.Key{}, errors.Wrap(err, "console read failed")
	}
	return models.Key{Ascii: ch}, nil
}

// pollKey does not wait for a user. Without a display, piped input is
// peeked and terminal input counts once it has arrived.
func (k *Kernel) pollKey(consume bool) (models.Key, bool, error) {
	var key models.Key
	if k.display != nil {
		var ok bool
		var err error
		if key, ok, err = k.display.PollKey(); err != nil || !ok {
			return key, false, err
		}
	} else {
		if k.stdin.Buffered() == 0 {
			if !k.input.ready() {
				return key, false, nil
			}
			if _, err := k.stdin.Peek(1); err == io.EOF {
				return key, false, nil
			} else if err != nil {
				return key, false, errors.Wrap(err, "console read failed")
			}
		}
		b, _ := k.stdin.Peek(1)
		key.Ascii = b[0]
	}
	if consume {
		key, err := k.getKey()
		return key, err == nil, err
	}
	return key, true, nil
}

var _ io.Writer = (*consoleWriter)(nil)

// consoleWriter sends guest output for stdout and stderr through the display when one is active.
type consoleWriter struct {
	k *Kernel
	w io.Writer
}

func (c *consoleWriter) Write(p []byte) (int, error) {
	if c.k.display == nil {
		return c.w.Write(p)
	}
	for i, ch := range p {
		if err := c.k.display.PutChar(ch); err != nil {
			return i, err
		}
	}
	return len(p), nil
}
