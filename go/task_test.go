package doscorn

import (
	"testing"

	"github.com/lunixbochs/doscorn/go/arch/x86_16"
	"github.com/lunixbochs/doscorn/go/models/cpu"
	"github.com/lunixbochs/doscorn/go/models/mock"
)

func newTask() *Task {
	return NewTask(mock.NewCpu(32, x86_16.Arch.Enums()), x86_16.Arch)
}

func TestSubRegs(t *testing.T) {
	task := newTask()
	if err := task.RegWrite(x86_16.AX, 0x1234); err != nil {
		t.Fatal(err)
	}
	if err := task.RegWrite(x86_16.AH, 0x4c); err != nil {
		t.Fatal(err)
	}
	ax, _ := task.RegRead(x86_16.AX)
	if ax != 0x4c34 {
		t.Fatalf("ax = %#x, want 0x4c34", ax)
	}
	al, _ := task.RegRead(x86_16.AL)
	if al != 0x34 {
		t.Fatalf("al = %#x, want 0x34", al)
	}
	if err := task.RegWriteName("DL", 0x180); err != nil {
		t.Fatal(err)
	}
	dx, _ := task.RegReadName("dx")
	if dx != 0x80 {
		t.Fatalf("dx = %#x, want 0x80", dx)
	}
	if _, err := task.RegReadName("eax"); err == nil {
		t.Fatal("eax should not resolve on x86_16")
	}
}

func TestMmapDesc(t *testing.T) {
	task := newTask()
	if err := task.Mmap(0x2000, 0x1000, cpu.PROT_ALL, "high"); err != nil {
		t.Fatal(err)
	}
	if err := task.Mmap(0, 0x1000, cpu.PROT_READ, "low"); err != nil {
		t.Fatal(err)
	}
	maps := task.Mappings()
	if len(maps) != 2 || maps[0].Desc != "low" || maps[1].Desc != "high" {
		t.Fatalf("bad mappings:\n%s", maps)
	}
	if err := task.Mmap(0x2800, 0x1000, cpu.PROT_ALL, "overlap"); err == nil {
		t.Fatal("overlapping Mmap should fail")
	}
	if err := task.MemUnmap(0, 0x1000); err != nil {
		t.Fatal(err)
	}
	if maps := task.Mappings(); len(maps) != 1 || maps[0].Desc != "high" {
		t.Fatalf("bad mappings after unmap:\n%s", maps)
	}
}

func TestRegDump(t *testing.T) {
	task := newTask()
	task.RegWrite(x86_16.CX, 7)
	regs, err := task.RegDump()
	if err != nil {
		t.Fatal(err)
	}
	if len(regs) != len(x86_16.Arch.Regs) {
		t.Fatalf("got %d regs, want %d", len(regs), len(x86_16.Arch.Regs))
	}
	for _, r := range regs {
		if r.Name == "cx" && r.Val != 7 {
			t.Fatalf("cx = %d, want 7", r.Val)
		}
	}
}

func TestNoDisassembler(t *testing.T) {
	task := newTask()
	task.Mmap(0, 0x1000, cpu.PROT_ALL, "")
	if _, err := task.Dis(0, 4, false); err == nil {
		t.Fatal("Dis without a disassembler should fail")
	}
}
