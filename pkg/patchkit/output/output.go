// Package output provides formatters for displaying patchkit run results
// in various output formats (pretty, plain, json).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Result contains the complete output data for formatting. One run of the
// packager or reconciler produces one Result.
type Result struct {
	// Operation is the run kind: "generate" or "reconcile".
	Operation string `json:"operation"`

	// Mode is the reconciliation mode, when Operation is "reconcile".
	Mode string `json:"mode,omitempty"`

	// Skipped indicates the run was a no-op for lack of input manifests.
	Skipped bool `json:"skipped"`

	// FilesStaged counts the files copied into staging.
	FilesStaged int `json:"files_staged"`

	// BytesStaged is the total size of the staged files.
	BytesStaged uint64 `json:"bytes_staged"`

	// FilesScanned counts the files enumerated during a full scan.
	FilesScanned int `json:"files_scanned"`

	// FilesDeleted counts ledger records added or files removed.
	FilesDeleted int `json:"files_deleted"`

	// DirsPruned counts the directories removed after deletions.
	DirsPruned int `json:"dirs_pruned"`

	// ArchivePath is the package artifact, when compression ran.
	ArchivePath string `json:"archive_path,omitempty"`

	// Elapsed is the wall time of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Formatter renders a Result into a buffer.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// factory creates a new Formatter instance.
type factory func() Formatter

var (
	registryMu sync.RWMutex
	registry   = make(map[string]factory)
)

// Register makes a formatter available under the given name.
func Register(name string, f factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Get returns a new formatter for the given name.
func Get(name string) (Formatter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %v)", name, names())
	}
	return f(), nil
}

// Names returns the registered formatter names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return names()
}

// names returns the registered formatter names. Callers hold registryMu.
func names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
