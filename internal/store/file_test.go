package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileBackend(t *testing.T) {
	t.Run("get before put reports absent", func(t *testing.T) {
		t.Parallel()
		b := NewFileBackend(filepath.Join(t.TempDir(), "mapping.json"))

		var buf bytes.Buffer
		found, err := b.Get(&buf)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if found {
			t.Error("Get() found = true before any Put")
		}
	})

	t.Run("put creates parents and round-trips", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "a", "b", "mapping.json")
		b := NewFileBackend(path)

		data := []byte(`{"k":1}`)
		if err := b.Put(bytes.NewReader(data), int64(len(data))); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		var buf bytes.Buffer
		found, err := b.Get(&buf)
		if err != nil || !found {
			t.Fatalf("Get() = %v, %v", found, err)
		}
		if !bytes.Equal(buf.Bytes(), data) {
			t.Errorf("Get() = %q, want %q", buf.Bytes(), data)
		}
		if b.Location() != path {
			t.Errorf("Location() = %q, want %q", b.Location(), path)
		}
	})

	t.Run("size mismatch leaves previous content", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "mapping.json")
		b := NewFileBackend(path)

		old := []byte("old")
		if err := b.Put(bytes.NewReader(old), 3); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if err := b.Put(bytes.NewReader([]byte("new content")), 3); err == nil {
			t.Fatal("Put() expected size mismatch error")
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(got) != "old" {
			t.Errorf("content = %q, want %q", got, "old")
		}

		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("temp files left behind: %d entries", len(entries))
		}
	})

	t.Run("validate setup", func(t *testing.T) {
		t.Parallel()
		b := NewFileBackend(filepath.Join(t.TempDir(), "new", "mapping.json"))
		if err := b.ValidateSetup(); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})
}

func TestMemoryBackend(t *testing.T) {
	t.Parallel()
	m := NewMemoryBackend()

	var buf bytes.Buffer
	if found, err := m.Get(&buf); err != nil || found {
		t.Fatalf("Get() = %v, %v, want false, nil", found, err)
	}
	if err := m.Put(bytes.NewReader([]byte("abc")), 4); err == nil {
		t.Error("Put() expected size mismatch error")
	}
	if err := m.Put(bytes.NewReader([]byte("abc")), 3); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if found, err := m.Get(&buf); err != nil || !found || buf.String() != "abc" {
		t.Errorf("Get() = %v, %v, %q", found, err, buf.String())
	}
}
