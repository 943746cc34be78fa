package disk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lunixbochs/doscorn/go/models"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boot.img")
	if err := os.WriteFile(path, make([]byte, 1000), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if f.Sectors() != 2 {
		t.Fatalf("got %d sectors, want 2", f.Sectors())
	}
}

func TestDisks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boot.img")
	os.WriteFile(path, make([]byte, SectorSize), 0644)
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	d := NewDisks()
	if d.HasMapping(0x80) {
		t.Fatal("empty registry has a mapping")
	}
	if err := d.AddMapping(0x80, f); err != nil {
		t.Fatal(err)
	}
	if err := d.AddMapping(0x80, f); err == nil {
		t.Fatal("second AddMapping for the same drive should fail")
	}
	if dev, ok := d.Mapping(0x80); !ok || dev != models.BlockDevice(f) {
		t.Fatal("Mapping did not return the added device")
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if d.HasMapping(0x80) {
		t.Fatal("Close left a mapping behind")
	}
}
