package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/models"
)

func TestParseFlags(t *testing.T) {
	c := NewDosCmd("run")
	args, err := c.Parse([]string{"run", "-strace", "-cs", "0x2000", "-dosver", "0x0500",
		"-timeout", "2s", "-count", "100", "-listen", "1234", "game.DOS_COM", "/a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(args, " ") != "game.DOS_COM /a b" {
		t.Fatalf("bad args: %v", args)
	}
	cfg := c.Config
	if !cfg.TraceSys || cfg.Verbose {
		t.Fatal("-strace should only enable TraceSys")
	}
	if cfg.Profile.COM.StartCS != 0x2000 || cfg.Profile.COM.StartIP != 0x100 {
		t.Fatalf("bad profile: %+v", cfg.Profile.COM)
	}
	if cfg.Profile.Kernel.Version != 0x0500 {
		t.Fatalf("bad version %#x", cfg.Profile.Kernel.Version)
	}
	if cfg.Timeout != 2*time.Second || cfg.Count != 100 || c.Listen != 1234 {
		t.Fatalf("bad budget: %v %d %d", cfg.Timeout, cfg.Count, c.Listen)
	}
}

func TestParseRejectsWideSegment(t *testing.T) {
	c := NewDosCmd("run")
	if _, err := c.Parse([]string{"run", "-cs", "0x10000", "x.DOS_COM"}); err == nil {
		t.Fatal("expected error for 17-bit segment")
	}
}

func TestParseOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	c := NewDosCmd("run")
	if _, err := c.Parse([]string{"run", "-o", path, "x.DOS_COM"}); err != nil {
		t.Fatal(err)
	}
	c.Logger().Info("hello")
	c.Close()
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, 0},
		{models.ExitStatus(3), 3},
		{errors.Wrap(models.ExitStatus(7), "wrapped"), 7},
		{errors.New("boom"), 1},
	}
	for _, c := range cases {
		if got := ExitCode(c.err); got != c.code {
			t.Errorf("ExitCode(%v) = %d, want %d", c.err, got, c.code)
		}
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, errors.New("bad image"))
	out := buf.String()
	if !strings.Contains(out, "Error: bad image") {
		t.Fatalf("missing message:\n%s", out)
	}
	if !strings.Contains(out, "TestPrintError()") {
		t.Fatalf("missing stack frame:\n%s", out)
	}
}
