package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("writes to file when path set", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "logs", "patchkit.log")

		logger, closer, err := New("packager", Config{Level: "info", Path: path})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		logger.Info("patch generated", "files", 3)
		if err := closer.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading log file: %v", err)
		}
		if !strings.Contains(string(data), "patch generated") {
			t.Errorf("log file missing message, got %q", string(data))
		}
		if !strings.Contains(string(data), "packager") {
			t.Errorf("log file missing component prefix, got %q", string(data))
		}
	})

	t.Run("respects level", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "patchkit.log")

		logger, closer, err := New("reconciler", Config{Level: "warn", Path: path})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		logger.Info("suppressed")
		logger.Warn("kept")
		if err := closer.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading log file: %v", err)
		}
		if strings.Contains(string(data), "suppressed") {
			t.Error("info message logged at warn level")
		}
		if !strings.Contains(string(data), "kept") {
			t.Error("warn message missing")
		}
	})

	t.Run("rejects invalid level", func(t *testing.T) {
		t.Parallel()
		_, _, err := New("x", Config{Level: "loud"})
		if err == nil {
			t.Fatal("New() error = nil, want invalid level error")
		}
	})
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	// Must not panic or emit anywhere.
	Discard().Error("dropped")
}
