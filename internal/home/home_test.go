package home

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	d := New("/tmp/cqlc-test")
	if d.Root() != "/tmp/cqlc-test" {
		t.Errorf("expected root /tmp/cqlc-test, got %s", d.Root())
	}
}

func TestDefault(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if filepath.Base(d.Root()) != "cqlc" {
		t.Errorf("expected root to end with 'cqlc', got %s", d.Root())
	}
}

func TestMappingPath(t *testing.T) {
	d := New("/data")
	if got := d.MappingPath(); got != "/data/mapping.yaml" {
		t.Errorf("got %s", got)
	}
}

func TestEnsureExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "cqlc")
	d := New(root)
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory")
	}

	// Calling again should be idempotent.
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists (idempotent): %v", err)
	}
}

func TestWriteMapping(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "cqlc"))
	if d.HasMapping() {
		t.Fatal("fresh home should have no mapping")
	}

	if err := d.WriteMapping([]byte("version: one\n"), false); err != nil {
		t.Fatalf("WriteMapping: %v", err)
	}
	if !d.HasMapping() {
		t.Fatal("expected mapping after write")
	}

	err := d.WriteMapping([]byte("version: two\n"), false)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("second write: got %v, want ErrExists", err)
	}

	if err := d.WriteMapping([]byte("version: two\n"), true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	data, err := os.ReadFile(d.MappingPath())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "version: two\n" {
		t.Errorf("got %q", data)
	}
}
