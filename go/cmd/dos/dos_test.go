package dos

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"

	doscorn "github.com/lunixbochs/doscorn/go"
	"github.com/lunixbochs/doscorn/go/arch/x86_16"
	kernel "github.com/lunixbochs/doscorn/go/kernel/dos"
	"github.com/lunixbochs/doscorn/go/loader"
	"github.com/lunixbochs/doscorn/go/models"
	"github.com/lunixbochs/doscorn/go/models/mock"
)

func TestDescribe(t *testing.T) {
	img, err := loader.Parse("hello.DOS_COM", []byte{0xcd, 0x20}, &loader.Options{Profile: models.DefaultProfile()})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	describe(&buf, img)
	out := buf.String()
	for _, want := range []string{"com image", "(1000:0100)", "(1000:fffe)", "stack size 0x1000"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestCrashDump(t *testing.T) {
	task := doscorn.NewTask(mock.NewCpu(32, x86_16.Arch.Enums()), x86_16.Arch)
	task.RegWrite(x86_16.CS, 0x1000)
	task.RegWrite(x86_16.IP, 0x0123)
	task.RegWrite(x86_16.AX, 0xbeef)

	var got error
	chain := models.NewReportChain(models.ReporterFunc(func(err error) { got = err }))
	var buf bytes.Buffer
	chain.Install(crashDump(task, &buf))

	fault := errors.New("fault")
	chain.Report(fault)
	if got != fault {
		t.Fatal("crash dump did not forward the error")
	}
	out := buf.String()
	for _, want := range []string{"ax 0xbeef", "[code at 1000:0123]", "no disassembler"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRunSessionScopesCrashDump(t *testing.T) {
	c := mock.NewCpu(32, x86_16.Arch.Enums())
	task := doscorn.NewTask(c, x86_16.Arch)
	config := models.NewConfig()
	config.Stdin = strings.NewReader("")
	config.Stdout = io.Discard
	config.Output = io.Discard
	k := kernel.NewKernel(task, config, nil)
	k.Image = &loader.Image{Format: loader.COM, State: models.StartState{Entry: 0x10100, CS: 0x1000, IP: 0x100}}

	fault := errors.New("bad opcode")
	c.Script = []mock.Step{{Fault: fault}}
	var buf bytes.Buffer
	if err := runSession(context.Background(), k, &buf); errors.Cause(err) != fault {
		t.Fatalf("got %v, want the fault", err)
	}
	if !strings.Contains(buf.String(), "[registers]") {
		t.Fatalf("no crash dump for a faulting run:\n%s", buf.String())
	}
	buf.Reset()
	k.Reports.Report(errors.New("after the run"))
	if buf.Len() != 0 {
		t.Fatalf("crash dump outlived its run:\n%s", buf.String())
	}
}
