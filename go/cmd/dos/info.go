package dos

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/cmd"
	"github.com/lunixbochs/doscorn/go/loader"
)

func describe(w io.Writer, img *loader.Image) {
	fmt.Fprintf(w, "%s: %s image\n", img.Path, img.Format)
	s := img.State
	fmt.Fprintf(w, "  entry      %#07x (%04x:%04x)\n", s.Entry, s.CS, s.IP)
	fmt.Fprintf(w, "  stack      %#07x (%04x:%04x)\n", s.Stack, s.SS, s.SP)
	fmt.Fprintf(w, "  load       %#07x\n", s.Load)
	fmt.Fprintf(w, "  stack size %#x\n", s.StackSize)
	if h := img.Header; h != nil {
		fmt.Fprintf(w, "  mz header  %d bytes, image %d bytes, %d relocations\n", h.HeaderSize(), h.Size(), h.Relocs)
	}
	for _, seg := range img.Segments {
		fmt.Fprintf(w, "  segment    %#07x-%#07x (file offset %#x)\n", seg.Addr, seg.Addr+seg.Size, seg.Off)
	}
}

func InfoMain(argv []string) int {
	c := cmd.NewDosCmd("info")
	c.Example = "bins/hello.DOS_EXE"
	args, err := c.Parse(argv)
	if err != nil {
		return 1
	}
	defer c.Close()
	path := args[0]
	if _, err := loader.DetectFormat(path); err != nil {
		cmd.PrintError(os.Stderr, err)
		return 1
	}
	data, err := os.ReadFile(path)
	if err != nil {
		cmd.PrintError(os.Stderr, errors.Wrap(err, "failed to read image"))
		return 1
	}
	img, err := loader.Parse(path, data, &loader.Options{Profile: c.Config.Profile, Args: args[1:]})
	if err != nil {
		cmd.PrintError(os.Stderr, err)
		return 1
	}
	describe(os.Stdout, img)
	return 0
}

func init() {
	cmd.Register("info", "print the start state of a DOS image", func(args []string) { os.Exit(InfoMain(args)) })
}
