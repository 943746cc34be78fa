package loader

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	doscorn "github.com/lunixbochs/doscorn/go"
	"github.com/lunixbochs/doscorn/go/arch/x86_16"
	"github.com/lunixbochs/doscorn/go/disk"
	"github.com/lunixbochs/doscorn/go/models"
	"github.com/lunixbochs/doscorn/go/models/mock"
)

type countingTask struct {
	*doscorn.Task
	mmaps int
}

func (c *countingTask) Mmap(addr, size uint64, prot int, desc string) error {
	c.mmaps++
	return c.Task.Mmap(addr, size, prot, desc)
}

func newTask() *countingTask {
	return &countingTask{Task: doscorn.NewTask(mock.NewCpu(32, x86_16.Arch.Enums()), x86_16.Arch)}
}

func newOpts() *Options {
	return &Options{Profile: models.DefaultProfile(), Disks: disk.NewDisks()}
}

func writeFile(t *testing.T, name string, data []byte) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func makeExe(t *testing.T, h MZHeader, body []byte) []byte {
	var buf bytes.Buffer
	if err := struc.PackWithOrder(&buf, &h, binary.LittleEndian); err != nil {
		t.Fatal(err)
	}
	hdr := make([]byte, h.HeaderSize())
	copy(hdr, buf.Bytes())
	return append(hdr, body...)
}

func reg(t *testing.T, task models.Task, enum int) uint64 {
	val, err := task.RegRead(enum)
	if err != nil {
		t.Fatal(err)
	}
	return val
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path   string
		format Format
		ok     bool
	}{
		{"a/HELLO.DOS_COM", COM, true},
		{"GAME.DOS_EXE", EXE, true},
		{"boot.DOS_MBR", MBR, true},
		{"prog.BIN", 0, false},
		{"prog.dos_com", 0, false},
		{"DOS_COM", 0, false},
	}
	for _, test := range tests {
		format, err := DetectFormat(test.path)
		if test.ok && (err != nil || format != test.format) {
			t.Errorf("DetectFormat(%q) = %v, %v; want %v", test.path, format, err, test.format)
		}
		if !test.ok && errors.Cause(err) != UnsupportedFormat {
			t.Errorf("DetectFormat(%q) error = %v, want UnsupportedFormat", test.path, err)
		}
	}
}

func TestUnsupportedMapsNothing(t *testing.T) {
	task := newTask()
	path := writeFile(t, "prog.BIN", []byte{0x90, 0xc3})
	_, err := Load(task, path, newOpts())
	if errors.Cause(err) != UnsupportedFormat {
		t.Fatalf("got %v, want UnsupportedFormat", err)
	}
	if task.mmaps != 0 || len(task.Mappings()) != 0 {
		t.Fatalf("unsupported image made %d Mmap calls", task.mmaps)
	}
}

func TestMZSize(t *testing.T) {
	tests := []struct {
		blocks, last uint16
		size         uint64
	}{
		{2, 0, 1024},
		{3, 100, 1124},
		{1, 0, 512},
		{1, 28, 28},
		{0, 0, 0},
	}
	for _, test := range tests {
		h := MZHeader{Blocks: test.blocks, LastBlockBytes: test.last}
		if size := h.Size(); size != test.size {
			t.Errorf("blocks=%d last=%d: size %d, want %d", test.blocks, test.last, size, test.size)
		}
	}
}

func TestParseMZ(t *testing.T) {
	data := makeExe(t, MZHeader{Magic: mzMagic, Blocks: 3, LastBlockBytes: 100, HeaderUnits: 2, SS: 0x2000, SP: 0x80, IP: 0x10, CS: 0x1000}, nil)
	h, err := ParseMZ(data)
	if err != nil {
		t.Fatal(err)
	}
	if h.Size() != 1124 || h.HeaderSize() != 32 || h.SS != 0x2000 || h.SP != 0x80 || h.IP != 0x10 || h.CS != 0x1000 {
		t.Fatalf("bad header: %+v", h)
	}
	if _, err := ParseMZ(append([]byte("ZM"), data[2:]...)); errors.Cause(err) != BadMagic {
		t.Fatalf("got %v, want BadMagic", err)
	}
	if _, err := ParseMZ(data[:10]); errors.Cause(err) != TruncatedHeader {
		t.Fatalf("got %v, want TruncatedHeader", err)
	}
	if _, err := ParseMZ(data[:23]); errors.Cause(err) != TruncatedHeader {
		t.Fatalf("got %v, want TruncatedHeader", err)
	}
	var full bytes.Buffer
	if err := struc.PackWithOrder(&full, &MZHeader{Magic: mzMagic, HeaderUnits: 1, IP: 0x10, CS: 0x20, Overlay: 7}, binary.LittleEndian); err != nil {
		t.Fatal(err)
	}
	h, err = ParseMZ(full.Bytes()[:24])
	if err != nil {
		t.Fatalf("24-byte header: %v", err)
	}
	if h.IP != 0x10 || h.CS != 0x20 || h.RelocOffset != 0 || h.Overlay != 0 {
		t.Fatalf("bad 24-byte header: %+v", h)
	}
	short := makeExe(t, MZHeader{Magic: mzMagic, HeaderUnits: 2}, nil)[:30]
	if _, err := ParseMZ(short); errors.Cause(err) != TruncatedHeader {
		t.Fatalf("got %v, want TruncatedHeader", err)
	}
}

func TestExeLoad(t *testing.T) {
	body := []byte{0xb4, 0x4c, 0xcd, 0x21}
	h := MZHeader{Magic: mzMagic, Blocks: 1, LastBlockBytes: 36, HeaderUnits: 2, SS: 0x2000, SP: 0xfffe, IP: 0x0100, CS: 0x1000}
	path := writeFile(t, "PROG.DOS_EXE", makeExe(t, h, body))
	task := newTask()
	img, err := Load(task, path, newOpts())
	if err != nil {
		t.Fatal(err)
	}
	s := img.State
	if s.Entry != 0x10100 || s.Entry != uint64(h.CS)*16+uint64(h.IP) {
		t.Fatalf("entry = %#x, want 0x10100", s.Entry)
	}
	if s.Stack != uint64(h.SS)*16+uint64(h.SP) {
		t.Fatalf("stack = %#x", s.Stack)
	}
	if s.Load != 0 {
		t.Fatalf("load = %#x, want 0", s.Load)
	}
	mem, err := task.MemRead(0, uint64(len(body))+4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(mem[:len(body)], body) {
		t.Fatalf("image start = % x, want % x", mem[:len(body)], body)
	}
	if !bytes.Equal(mem[len(body):], make([]byte, 4)) {
		t.Fatal("header bytes leaked past the image")
	}
	if len(img.Segments) != 1 || img.Segments[0].Size != uint64(len(body)) {
		t.Fatalf("wrote %d bytes, want %d", img.Segments[0].Size, len(body))
	}
	for _, r := range []struct {
		enum int
		val  uint64
	}{{x86_16.CS, 0x1000}, {x86_16.DS, 0x1000}, {x86_16.ES, 0x1000}, {x86_16.SS, 0x2000}, {x86_16.IP, 0x100}, {x86_16.SP, 0xfffe}} {
		if val := reg(t, task, r.enum); val != r.val {
			t.Errorf("%s = %#x, want %#x", x86_16.Arch.RegName(r.enum), val, r.val)
		}
	}
	maps := task.Mappings()
	if len(maps) != 1 || maps[0].Addr != 0 || maps[0].Size != x86_16.MemSize || maps[0].Desc != "[FULL]" {
		t.Fatalf("bad mappings:\n%s", maps)
	}
}

func TestComLoad(t *testing.T) {
	code := []byte{0xb4, 0x09, 0xcd, 0x21, 0xcd, 0x20}
	path := writeFile(t, "HELLO.DOS_COM", code)
	task := newTask()
	opts := newOpts()
	opts.Args = []string{"/q", "x.txt"}
	img, err := Load(task, path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if img.State.Entry != 0x10100 || img.State.Load != 0x10100 || img.State.Stack != 0x1fffe {
		t.Fatalf("bad state: %s", &img.State)
	}
	if img.State.StackSize != 0x1000 {
		t.Fatalf("stack size = %#x", img.State.StackSize)
	}
	mem, _ := task.MemRead(0x10100, uint64(len(code)))
	if !bytes.Equal(mem, code) {
		t.Fatalf("code = % x", mem)
	}
	psp, _ := task.MemRead(0x10000, pspSize)
	if psp[0] != 0xcd || psp[1] != 0x20 {
		t.Fatalf("PSP starts with % x, want cd 20", psp[:2])
	}
	if binary.LittleEndian.Uint16(psp[0x40:]) != 0x0700 {
		t.Fatalf("PSP version = %#x", binary.LittleEndian.Uint16(psp[0x40:]))
	}
	tail := " /q x.txt"
	if int(psp[0x80]) != len(tail) || string(psp[0x81:0x81+len(tail)]) != tail || psp[0x81+len(tail)] != '\r' {
		t.Fatalf("bad command tail % x", psp[0x80:0x90])
	}
	if reg(t, task, x86_16.SS) != 0x1000 || reg(t, task, x86_16.SP) != 0xfffe {
		t.Fatal("ss:sp not taken from the profile")
	}
}

func TestComNoPSP(t *testing.T) {
	opts := newOpts()
	opts.Profile.COM.StartIP = 0
	img, err := Parse("A.DOS_COM", []byte{0x90}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(img.Segments) != 1 || img.Segments[0].Addr != 0x10000 {
		t.Fatalf("got %d segments", len(img.Segments))
	}
}

func TestPSPSize(t *testing.T) {
	raw, err := NewPSP(0x0700, nil).Pack()
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != pspSize {
		t.Fatalf("PSP packs to %d bytes, want %d", len(raw), pspSize)
	}
	if raw[0x80] != 0 || raw[0x81] != '\r' {
		t.Fatal("empty tail should be a lone CR")
	}
}

func TestMbrLoad(t *testing.T) {
	sector := make([]byte, 512)
	sector[510], sector[511] = 0x55, 0xaa
	path := writeFile(t, "boot.DOS_MBR", sector)
	task := newTask()
	opts := newOpts()
	img, err := Load(task, path, opts)
	if err != nil {
		t.Fatal(err)
	}
	if img.State.Entry != 0x7c00 || img.State.Stack != 0xfff0 || img.State.Load != 0x7c00 {
		t.Fatalf("bad state: %s", &img.State)
	}
	if reg(t, task, x86_16.DX) != BootDrive {
		t.Fatal("dx should hold the boot drive")
	}
	dev, ok := opts.Disks.Mapping(BootDrive)
	if !ok {
		t.Fatal("boot image was not registered as a disk")
	}
	defer opts.Disks.(*disk.Disks).Close()

	// an existing mapping is kept
	if _, err := Load(newTask(), path, opts); err != nil {
		t.Fatal(err)
	}
	if again, _ := opts.Disks.Mapping(BootDrive); again != dev {
		t.Fatal("second load replaced the boot disk")
	}
	mem, _ := task.MemRead(0x7dfe, 2)
	if mem[0] != 0x55 || mem[1] != 0xaa {
		t.Fatalf("boot signature = % x", mem)
	}
}

type fullDisks struct{ *disk.Disks }

func (fullDisks) AddMapping(id int, dev models.BlockDevice) error {
	return errors.New("no free drives")
}

func TestMbrRegisterFailsFirst(t *testing.T) {
	path := writeFile(t, "boot.DOS_MBR", make([]byte, 512))
	task := newTask()
	opts := newOpts()
	opts.Disks = fullDisks{disk.NewDisks()}
	if _, err := Load(task, path, opts); err == nil {
		t.Fatal("expected registration error")
	}
	if task.mmaps != 0 || len(task.Mappings()) != 0 {
		t.Fatalf("failed boot load made %d Mmap calls", task.mmaps)
	}
	if _, err := Load(task, path, &Options{Profile: models.DefaultProfile()}); err == nil {
		t.Fatal("expected error without a disk registry")
	}
	if task.mmaps != 0 {
		t.Fatal("missing registry still mapped memory")
	}
}

func TestLoadDeterministic(t *testing.T) {
	body := bytes.Repeat([]byte{0x90, 0x41}, 300)
	h := MZHeader{Magic: mzMagic, Blocks: 2, LastBlockBytes: 120, HeaderUnits: 4, SS: 0x3000, SP: 0x100, IP: 0x20, CS: 0x1234}
	path := writeFile(t, "P.DOS_EXE", makeExe(t, h, body))
	var states []models.StartState
	var mems [][]byte
	for i := 0; i < 2; i++ {
		task := newTask()
		img, err := Load(task, path, newOpts())
		if err != nil {
			t.Fatal(err)
		}
		mem, err := task.MemRead(0, x86_16.MemSize)
		if err != nil {
			t.Fatal(err)
		}
		states = append(states, img.State)
		mems = append(mems, mem)
	}
	if states[0] != states[1] {
		t.Fatalf("start states differ: %s vs %s", &states[0], &states[1])
	}
	if !bytes.Equal(mems[0], mems[1]) {
		t.Fatal("memory contents differ between loads")
	}
}
