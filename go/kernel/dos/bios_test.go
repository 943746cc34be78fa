package dos

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lunixbochs/doscorn/go/arch/x86_16"
	"github.com/lunixbochs/doscorn/go/disk"
	"github.com/lunixbochs/doscorn/go/models"
	"github.com/lunixbochs/doscorn/go/models/mock"
)

type fakeDisplay struct {
	out      bytes.Buffer
	row, col int
	keys     []models.Key
	messages []string
	clears   int
	closed   bool
}

func (d *fakeDisplay) PutChar(ch byte) error {
	d.out.WriteByte(ch)
	return nil
}

func (d *fakeDisplay) SetCursor(row, col int) error {
	d.row, d.col = row, col
	return nil
}

func (d *fakeDisplay) Cursor() (int, int) { return d.row, d.col }

func (d *fakeDisplay) Clear() error {
	d.clears++
	return nil
}

func (d *fakeDisplay) ReadKey() (models.Key, error) {
	key := d.keys[0]
	d.keys = d.keys[1:]
	return key, nil
}

func (d *fakeDisplay) PollKey() (models.Key, bool, error) {
	if len(d.keys) == 0 {
		return models.Key{}, false, nil
	}
	return d.keys[0], true, nil
}

func (d *fakeDisplay) Message(msg string) { d.messages = append(d.messages, msg) }

func (d *fakeDisplay) Close() error {
	d.closed = true
	return nil
}

func withDisplay(e *env) *fakeDisplay {
	d := &fakeDisplay{}
	e.k.display = d
	return d
}

func TestVideo(t *testing.T) {
	e := newEnv(t, "")
	d := withDisplay(e)
	if err := e.dispatch(0x10, 0x00); err != nil || d.clears != 1 {
		t.Fatalf("set mode: %v, clears=%d", err, d.clears)
	}
	e.set(map[int]uint64{x86_16.DH: 12, x86_16.DL: 40})
	if err := e.dispatch(0x10, 0x02); err != nil {
		t.Fatal(err)
	}
	e.set(map[int]uint64{x86_16.DX: 0})
	if err := e.dispatch(0x10, 0x03); err != nil {
		t.Fatal(err)
	}
	if e.get(x86_16.DH) != 12 || e.get(x86_16.DL) != 40 || e.get(x86_16.CX) != 0x0607 {
		t.Fatalf("cursor = %d,%d", e.get(x86_16.DH), e.get(x86_16.DL))
	}
	e.set(map[int]uint64{x86_16.AL: '!'})
	if err := e.dispatch(0x10, 0x0e); err != nil {
		t.Fatal(err)
	}
	if d.out.String() != "!" || e.out.Len() != 0 {
		t.Fatal("teletype output should go to the display")
	}
}

func TestTeletypeWithoutDisplay(t *testing.T) {
	e := newEnv(t, "")
	e.set(map[int]uint64{x86_16.AL: 'k'})
	if err := e.dispatch(0x10, 0x0e); err != nil {
		t.Fatal(err)
	}
	if e.out.String() != "k" {
		t.Fatalf("out = %q", e.out.String())
	}
}

func TestKeyboard(t *testing.T) {
	e := newEnv(t, "")
	d := withDisplay(e)
	if err := e.dispatch(0x16, 0x01); err != nil {
		t.Fatal(err)
	}
	if zf, _ := e.k.Flags.Test(x86_16.ZF); !zf {
		t.Fatal("ZF should be set with no key waiting")
	}
	d.keys = []models.Key{{Ascii: 'q', Scan: 0x10}}
	if err := e.dispatch(0x16, 0x01); err != nil {
		t.Fatal(err)
	}
	if zf, _ := e.k.Flags.Test(x86_16.ZF); zf || e.get(x86_16.AX) != 0x1071 {
		t.Fatalf("check key: zf=%v ax=%#x", zf, e.get(x86_16.AX))
	}
	if len(d.keys) != 1 {
		t.Fatal("check key consumed the key")
	}
	if err := e.dispatch(0x16, 0x00); err != nil {
		t.Fatal(err)
	}
	if e.get(x86_16.AX) != 0x1071 || len(d.keys) != 0 {
		t.Fatalf("read key: ax=%#x", e.get(x86_16.AX))
	}
}

func TestCheckKeyPipedInput(t *testing.T) {
	e := newEnv(t, "x")
	if err := e.dispatch(0x16, 0x01); err != nil {
		t.Fatal(err)
	}
	if zf, _ := e.k.Flags.Test(x86_16.ZF); zf || e.get(x86_16.AL) != 'x' {
		t.Fatalf("pending input: zf=%v al=%#x", zf, e.get(x86_16.AL))
	}
	if err := e.dispatch(0x16, 0x00); err != nil {
		t.Fatal(err)
	}
	if e.get(x86_16.AL) != 'x' {
		t.Fatalf("read key: al=%#x", e.get(x86_16.AL))
	}
	if err := e.dispatch(0x16, 0x01); err != nil {
		t.Fatal(err)
	}
	if zf, _ := e.k.Flags.Test(x86_16.ZF); !zf {
		t.Fatal("ZF should be set once input is exhausted")
	}
}

func TestDiskRead(t *testing.T) {
	e := newEnv(t, "")
	img := make([]byte, 3*disk.SectorSize)
	copy(img[disk.SectorSize:], "second sector")
	path := filepath.Join(t.TempDir(), "hd.img")
	if err := os.WriteFile(path, img, 0644); err != nil {
		t.Fatal(err)
	}
	dev, err := disk.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	e.k.Disks.AddMapping(0x80, dev)
	defer e.k.Close()

	e.set(map[int]uint64{x86_16.AL: 1, x86_16.CH: 0, x86_16.CL: 2, x86_16.DH: 0, x86_16.DL: 0x80, x86_16.ES: 0x2000, x86_16.BX: 0})
	if err := e.dispatch(0x13, 0x02); err != nil {
		t.Fatal(err)
	}
	if e.cf() || e.get(x86_16.AH) != diskOK || e.get(x86_16.AL) != 1 {
		t.Fatalf("read: cf=%v ax=%#x", e.cf(), e.get(x86_16.AX))
	}
	mem, _ := e.task.MemRead(0x20000, 13)
	if string(mem) != "second sector" {
		t.Fatalf("read %q", mem)
	}

	e.set(map[int]uint64{x86_16.AL: 1, x86_16.CL: 1, x86_16.DL: 0x81})
	if err := e.dispatch(0x13, 0x02); err != nil {
		t.Fatal(err)
	}
	if !e.cf() || e.get(x86_16.AH) != diskBadCommand {
		t.Fatal("read from an unmapped drive should fail")
	}
	e.set(map[int]uint64{x86_16.AL: 4, x86_16.CL: 1, x86_16.DL: 0x80})
	if err := e.dispatch(0x13, 0x02); err != nil {
		t.Fatal(err)
	}
	if !e.cf() || e.get(x86_16.AH) != diskNotFound {
		t.Fatal("read past the end should fail")
	}
	if err := e.dispatch(0x13, 0x00); err != nil || e.cf() {
		t.Fatal("reset failed")
	}
}

func TestCrashReportsToDisplay(t *testing.T) {
	e := newEnv(t, "")
	var reported []error
	e.k.Reports = models.NewReportChain(models.ReporterFunc(func(err error) {
		reported = append(reported, err)
	}))
	d := &fakeDisplay{}
	e.k.Config.Display = true
	e.k.OpenDisplay = func() (models.Display, error) { return d, nil }
	e.cpu.Script = []mock.Step{e.step(0x21, map[int]uint64{x86_16.AH: 0x4b})}

	err := e.k.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(d.messages) != 1 || !strings.Contains(d.messages[0], "not implemented") {
		t.Fatalf("display messages: %q", d.messages)
	}
	if len(reported) != 1 {
		t.Fatal("display interposer swallowed the error")
	}
	if !d.closed || e.k.Display() != nil {
		t.Fatal("display not released after the run")
	}

	// the interposer is gone once the run ends
	e.k.Reports.Report(err)
	if len(d.messages) != 1 || len(reported) != 2 {
		t.Fatal("interposer outlived the run")
	}
}
