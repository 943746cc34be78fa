package debug

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/lunixbochs/readline"
	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"

	"github.com/lunixbochs/doscorn/go/debug/cmd"
	"github.com/lunixbochs/doscorn/go/debug/predict"
	"github.com/lunixbochs/doscorn/go/models"
)

// Debugger serves an inspection prompt for one task over a connection.
type Debugger struct {
	Task      models.Task
	Predictor predict.Predictor
	Log       io.Writer
}

func Accept(host, port string) (net.Conn, error) {
	addr := net.JoinHostPort(host, port)
	fmt.Fprintf(os.Stderr, "Waiting for connection on %s\n", addr)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "net.Listen() failed")
	}
	defer ln.Close()
	return ln.Accept()
}

func NewDebugger(task models.Task, predictor predict.Predictor) *Debugger {
	return &Debugger{Task: task, Predictor: predictor, Log: os.Stderr}
}

// HistoryPath is where prompt history is kept between sessions.
func HistoryPath() string {
	cacheDir := configdir.New("doscorn", "debug").QueryCacheFolder()
	if err := cacheDir.MkdirAll(); err != nil {
		return ""
	}
	return filepath.Join(cacheDir.Path, "history")
}

// Session reads commands from c until the client disconnects or continues.
func (d *Debugger) Session(c io.ReadWriteCloser, stdin io.ReadCloser) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: HistoryPath(),
		Stderr:      c,
		Stdin:       stdin,
		Stdout:      c,
	})
	if err != nil {
		return errors.Wrap(err, "error opening readline for debugger")
	}
	defer rl.Close()
	context := &cmd.Context{ReadWriter: c, Task: d.Task, Predictor: d.Predictor}
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			return errors.Wrap(err, "error in readline")
		}
		if err := cmd.Run(context, line); err == cmd.ErrQuit {
			return nil
		}
	}
}

// Run serves a TCP connection. The connection stays open so the caller can
// start another session after the program stops.
func (d *Debugger) Run(c net.Conn) error {
	fmt.Fprintf(d.Log, "Debug connection from %s\n", c.RemoteAddr())
	tcp, ok := c.(*net.TCPConn)
	if !ok {
		return d.Session(c, c)
	}
	stdin, err := tcp.File()
	if err != nil {
		return errors.Wrap(err, "error opening 'stdin' for debugger")
	}
	defer stdin.Close()
	return d.Session(c, stdin)
}
