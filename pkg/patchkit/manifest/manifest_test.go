package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/patchkit/pkg/patchkit/types"
)

func TestFileStore_Load(t *testing.T) {
	t.Parallel()

	t.Run("loads content entries in order", func(t *testing.T) {
		t.Parallel()
		path := writeManifest(t, "file1.txt\th1\t10\nsub/file2.txt\th2\t20\n")

		m, err := NewFileStore().Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if len(m) != 2 {
			t.Fatalf("len(m) = %d, want 2", len(m))
		}
		if m[0].Path != "file1.txt" || m[0].Fingerprint != "h1" || m[0].Size != 10 {
			t.Errorf("m[0] = %+v, want file1.txt/h1/10", m[0])
		}
		if m[1].Path != "sub/file2.txt" || m[1].Size != 20 {
			t.Errorf("m[1] = %+v, want sub/file2.txt/20", m[1])
		}
		if m[1].Kind != types.Content {
			t.Errorf("Kind = %v, want Content", m[1].Kind)
		}
	})

	t.Run("loads ledger entries", func(t *testing.T) {
		t.Parallel()
		path := writeManifest(t, "old/save.dat\thh\tdeleted\t1700000000\n")

		m, err := NewFileStore().Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if len(m) != 1 {
			t.Fatalf("len(m) = %d, want 1", len(m))
		}
		if m[0].Kind != types.Deleted {
			t.Errorf("Kind = %v, want Deleted", m[0].Kind)
		}
		if m[0].DeletedAt != 1700000000 {
			t.Errorf("DeletedAt = %d, want 1700000000", m[0].DeletedAt)
		}
	})

	t.Run("skips blank lines", func(t *testing.T) {
		t.Parallel()
		path := writeManifest(t, "a.txt\th1\t1\n\n\nb.txt\th2\t2\n")

		m, err := NewFileStore().Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(m) != 2 {
			t.Errorf("len(m) = %d, want 2", len(m))
		}
	})

	t.Run("missing file yields ErrNoManifest", func(t *testing.T) {
		t.Parallel()
		_, err := NewFileStore().Load(filepath.Join(t.TempDir(), "absent.txt"))
		if !errors.Is(err, ErrNoManifest) {
			t.Errorf("Load() error = %v, want ErrNoManifest", err)
		}
	})

	t.Run("malformed line yields ErrNoManifest", func(t *testing.T) {
		t.Parallel()
		path := writeManifest(t, "not a manifest line\n")

		_, err := NewFileStore().Load(path)
		if !errors.Is(err, ErrNoManifest) {
			t.Errorf("Load() error = %v, want ErrNoManifest", err)
		}
	})

	t.Run("non-numeric size yields ErrNoManifest", func(t *testing.T) {
		t.Parallel()
		path := writeManifest(t, "a.txt\th1\tbig\n")

		_, err := NewFileStore().Load(path)
		if !errors.Is(err, ErrNoManifest) {
			t.Errorf("Load() error = %v, want ErrNoManifest", err)
		}
	})

	t.Run("duplicate path yields ErrNoManifest", func(t *testing.T) {
		t.Parallel()
		path := writeManifest(t, "a.txt\th1\t1\na.txt\th2\t2\n")

		_, err := NewFileStore().Load(path)
		if !errors.Is(err, ErrNoManifest) {
			t.Errorf("Load() error = %v, want ErrNoManifest", err)
		}
	})
}

func TestFileStore_Write(t *testing.T) {
	t.Parallel()

	t.Run("round-trips entries", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "manifest.txt")
		store := NewFileStore()

		in := types.Manifest{
			types.NewContent("a.txt", "h1", 10),
			types.NewDeleted("gone.txt", "h2", 1700000001),
		}
		if err := store.Write(path, in); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		out, err := store.Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("len(out) = %d, want 2", len(out))
		}
		if out[0] != in[0] || out[1] != in[1] {
			t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
		}
	})

	t.Run("leaves no temp file behind", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "manifest.txt")

		if err := NewFileStore().Write(path, types.Manifest{types.NewContent("a", "h", 1)}); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
			t.Error("temp file still present after Write")
		}
	})
}

func TestDecodeLine_Errors(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		"a.txt\th1",
		"a.txt\th1\tremoved\t123",
		"a.txt\th1\tdeleted\tsoon",
		"a.txt\th1\t1\textra\tfields",
	} {
		if _, err := DecodeLine(line); err == nil {
			t.Errorf("DecodeLine(%q) error = nil, want parse error", line)
		}
	}
}

// writeManifest writes content to a fresh temp manifest file and returns its path.
func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}
