package dos

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strconv"

	"github.com/pkg/errors"

	doscorn "github.com/lunixbochs/doscorn/go"
	"github.com/lunixbochs/doscorn/go/arch/x86_16"
	"github.com/lunixbochs/doscorn/go/cmd"
	"github.com/lunixbochs/doscorn/go/cpu"
	"github.com/lunixbochs/doscorn/go/cpu/unicorn"
	"github.com/lunixbochs/doscorn/go/debug"
	"github.com/lunixbochs/doscorn/go/debug/predict"
	kernel "github.com/lunixbochs/doscorn/go/kernel/dos"
	"github.com/lunixbochs/doscorn/go/models"
	"github.com/lunixbochs/doscorn/go/ui"
)

func newKernel(c *cmd.DosCmd, path string, args []string) (*kernel.Kernel, error) {
	eng, err := unicorn.Real.New()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cpu")
	}
	arch := *x86_16.Arch
	arch.Dis = cpu.NewCapstr16()
	arch.Asm = cpu.NewKeystone16()
	task := doscorn.NewTask(eng, &arch)

	k := kernel.NewKernel(task, c.Config, c.Logger())
	if c.Config.Display {
		k.OpenDisplay = func() (models.Display, error) {
			s, err := ui.OpenScreen()
			if err != nil {
				return nil, err
			}
			s.Log = c.Config.Output
			return s, nil
		}
	}
	if err := k.Load(path, args); err != nil {
		k.Close()
		return nil, err
	}
	return k, nil
}

// runSession runs k with the crash dump installed for this run only.
func runSession(ctx context.Context, k *kernel.Kernel, out io.Writer) error {
	uninstall := k.Reports.Install(crashDump(k.Task, out))
	defer uninstall()
	return k.Run(ctx)
}

func RunMain(argv []string) int {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c := cmd.NewDosCmd("run")
	c.Example = "-strace -root ./guest bins/hello.DOS_COM"
	args, err := c.Parse(argv)
	if err != nil {
		return 1
	}
	defer c.Close()

	k, err := newKernel(c, args[0], args[1:])
	if err != nil {
		cmd.PrintError(os.Stderr, err)
		return 1
	}
	defer k.Close()

	var conn net.Conn
	var dbg *debug.Debugger
	if c.Listen > 0 {
		conn, err = debug.Accept("localhost", strconv.Itoa(c.Listen))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error accepting conn on port %d: %v\n", c.Listen, err)
			return 1
		}
		defer conn.Close()
		dbg = debug.NewDebugger(k.Task, &predict.X86_16{Mem: k.Task})
		dbg.Log = c.Config.Output
		if err := dbg.Run(conn); err != nil {
			cmd.PrintError(os.Stderr, err)
			return 1
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err = runSession(ctx, k, c.Config.Output)
	if dbg != nil {
		fmt.Fprintf(conn, "guest stopped after %d instructions: %v\n", k.Instructions(), err)
		if derr := dbg.Run(conn); derr != nil {
			cmd.PrintError(os.Stderr, derr)
		}
	}
	if err != nil {
		if _, ok := errors.Cause(err).(models.ExitStatus); !ok && err != context.Canceled {
			cmd.PrintError(os.Stderr, err)
		}
	}
	return cmd.ExitCode(err)
}

func init() {
	cmd.Register("run", "execute a DOS image", func(args []string) { os.Exit(RunMain(args)) })
}
