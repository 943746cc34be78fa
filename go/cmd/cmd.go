package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/models"
)

// DosCmd parses the shared command line for commands that take an image.
type DosCmd struct {
	Config *models.Config
	Flags  *flag.FlagSet

	// debugger port, -1 when disabled
	Listen int
	// extra usage line printed after the options
	Example string
}

func NewDosCmd(name string) *DosCmd {
	return &DosCmd{
		Flags:  flag.NewFlagSet(name, flag.ExitOnError),
		Listen: -1,
	}
}

// Parse fills Config from argv and returns the image path followed by guest args.
func (c *DosCmd) Parse(argv []string) ([]string, error) {
	fs := c.Flags
	def := models.DefaultProfile()

	verbose := fs.Bool("v", false, "verbose output")
	strace := fs.Bool("strace", false, "trace interrupts")
	outfile := fs.String("o", "", "redirect debugging output to file (default stderr)")
	root := fs.String("root", ".", "host directory backing guest file names")
	display := fs.Bool("display", false, "open a terminal display for video and keyboard services")
	timeout := fs.Duration("timeout", 0, "stop the guest after this long (0 disables)")
	count := fs.Uint64("count", 0, "stop the guest after this many instructions (0 disables)")
	cs := fs.Uint("cs", uint(def.COM.StartCS), "start code segment for flat images")
	ip := fs.Uint("ip", uint(def.COM.StartIP), "start offset for flat images")
	sp := fs.Uint("sp", uint(def.COM.StartSP), "start stack pointer for flat images")
	stackSize := fs.Uint64("stacksize", def.COM.StackSize, "stack size recorded in the start state")
	dosver := fs.Uint("dosver", uint(def.Kernel.Version), "version reported by int 21h/30h")
	listen := fs.Int("listen", -1, "listen for debug connection on localhost:<port>")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <image> [args...]\n\nOptions:\n", argv[0])
		fs.PrintDefaults()
		if c.Example != "" {
			fmt.Fprintf(os.Stderr, "\nExample:\n  %s %s\n", argv[0], c.Example)
		}
	}
	if err := fs.Parse(argv[1:]); err != nil {
		return nil, err
	}
	args := fs.Args()
	if len(args) < 1 {
		fs.Usage()
		return nil, errors.New("missing image path")
	}
	for name, v := range map[string]uint{"cs": *cs, "ip": *ip, "sp": *sp, "dosver": *dosver} {
		if v > 0xffff {
			return nil, errors.Errorf("-%s %#x does not fit in 16 bits", name, v)
		}
	}

	config := models.NewConfig()
	config.Verbose = *verbose
	config.TraceSys = *strace || *verbose
	config.Display = *display
	config.Root = *root
	config.Timeout = *timeout
	config.Count = *count
	config.Profile.COM.StartCS = uint16(*cs)
	config.Profile.COM.StartIP = uint16(*ip)
	config.Profile.COM.StartSP = uint16(*sp)
	config.Profile.COM.StackSize = *stackSize
	config.Profile.Kernel.Version = uint16(*dosver)
	if *outfile != "" {
		out, err := os.OpenFile(*outfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open output file")
		}
		config.Output = out
	}
	c.Config = config
	c.Listen = *listen
	return args, nil
}

// Logger builds the session logger at the level the trace flags ask for.
func (c *DosCmd) Logger() hclog.Logger {
	level := hclog.Info
	if c.Config.Verbose {
		level = hclog.Trace
	} else if c.Config.TraceSys {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "doscorn",
		Level:  level,
		Output: c.Config.Output,
	})
}

// Close releases the output file opened by -o.
func (c *DosCmd) Close() {
	if c.Config == nil {
		return
	}
	if f, ok := c.Config.Output.(*os.File); ok && f != os.Stderr && f != os.Stdout {
		f.Close()
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func colorize(w io.Writer, s, style string) string {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return ansi.Color(s, style)
	}
	return s
}

// PrintError prints err and a stacktrace if one is attached.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "%s %s\n", colorize(w, "Error:", "red+b"), err)
	tracer, ok := err.(stackTracer)
	if !ok {
		return
	}
	// parse full path and method name for each stack frame
	var frames [][]string
	for _, f := range tracer.StackTrace() {
		fullpath := ""
		fileline := fmt.Sprintf("%s:%d", f, f)
		method := fmt.Sprintf("%n", f)

		frame := fmt.Sprintf("%+s", f)
		tmp := strings.SplitN(frame, "\n", 3)
		if len(tmp) == 2 {
			pathsplit := strings.Split(tmp[0], "/")
			method = pathsplit[len(pathsplit)-1]
			fullpath = strings.TrimSpace(tmp[1])
		}
		frames = append(frames, []string{fullpath, fileline, method})
		if method == "main.main" {
			break
		}
	}
	widths := make([]int, 3)
	for _, f := range frames {
		for i, s := range f {
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}
	for _, f := range frames {
		for i := 0; i < 2; i++ {
			if widths[i] > 0 {
				pad := strings.Repeat(" ", widths[i]-len(f[i]))
				fmt.Fprintf(w, "%s%s | ", f[i], pad)
			}
		}
		fmt.Fprintf(w, "%s()\n", f[2])
	}
}

// ExitCode maps a run result to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if e, ok := errors.Cause(err).(models.ExitStatus); ok {
		return int(e)
	}
	return 1
}
