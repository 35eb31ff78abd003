package artifacts

import (
	"io"
	"strings"
	"testing"
)

func TestStore_WriteAndOpen(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	name, err := store.Write("export.csv", []byte("id,status\nobs-1,final\n"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.HasSuffix(name, "_export.csv") {
		t.Errorf("expected stored name suffix _export.csv, got %q", name)
	}

	r, err := store.Open(name)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "id,status\nobs-1,final\n" {
		t.Errorf("unexpected artifact content: %q", data)
	}
}

func TestStore_OpenMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Open("nope.csv"); err != ErrArtifactNotFound {
		t.Errorf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestStore_RejectsEmptyName(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Write("   ", []byte("x")); err != ErrEmptyFileName {
		t.Errorf("expected ErrEmptyFileName, got %v", err)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"export.csv", "export.csv"},
		{"../../etc/passwd", "passwd"},
		{"day 1 report.csv", "day_1_report.csv"},
		{"..", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStore_RemoveIdempotent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	name, err := store.Write("a.json", []byte("{}"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := store.Remove(name); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Remove(name); err != nil {
		t.Errorf("second Remove should be a no-op, got %v", err)
	}
}
