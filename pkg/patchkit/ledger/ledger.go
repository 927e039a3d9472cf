// Package ledger persists the deletion ledger: an append-accumulated record
// of paths known to have been removed between manifest snapshots, paired
// with a checksum artifact covering the ledger's full content.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jamesainslie/patchkit/pkg/patchkit/fingerprint"
	"github.com/jamesainslie/patchkit/pkg/patchkit/manifest"
	"github.com/jamesainslie/patchkit/pkg/patchkit/types"
)

const (
	// FileName is the ledger artifact's conventional name.
	FileName = "DeletedManifest.txt"

	// ChecksumFileName is the checksum artifact's conventional name.
	ChecksumFileName = "DeletedManifest.checksum"
)

// ErrNoLedger is returned when the ledger file is absent or malformed.
// Consumers treat both as an empty ledger.
var ErrNoLedger = errors.New("no deletion ledger")

// IsNoLedger reports whether err indicates an absent or malformed ledger.
func IsNoLedger(err error) bool {
	return errors.Is(err, ErrNoLedger)
}

// Ledger manages one ledger file and its checksum artifact.
type Ledger struct {
	path         string
	checksumPath string
	dedupe       bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithDedupe keeps only the newest record per path when prepending.
// The default preserves every record, duplicates included.
func WithDedupe() Option {
	return func(l *Ledger) { l.dedupe = true }
}

// New returns a Ledger over the given file path. The checksum artifact lives
// next to it with the ".checksum" suffix convention.
func New(path string, opts ...Option) *Ledger {
	l := &Ledger{
		path:         path,
		checksumPath: strings.TrimSuffix(path, ".txt") + ".checksum",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the ledger file path.
func (l *Ledger) Path() string { return l.path }

// ChecksumPath returns the checksum artifact path.
func (l *Ledger) ChecksumPath() string { return l.checksumPath }

// Read parses the ledger into entries. A missing or unparseable ledger yields
// ErrNoLedger; callers reconcile nothing in that case.
func (l *Ledger) Read() (types.Manifest, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoLedger, l.path)
		}
		return nil, fmt.Errorf("reading ledger %s: %w", l.path, err)
	}

	var m types.Manifest
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		entry, err := manifest.DecodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNoLedger, l.path, err)
		}
		m = append(m, entry)
	}
	return m, nil
}

// Prepend writes the given records ahead of any lines already on disk.
// Existing content is carried at the raw-line level so prior records survive
// byte-for-byte. With dedupe enabled, existing records for a path that gained
// a newer record are dropped instead.
func (l *Ledger) Prepend(entries []types.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	existing, err := l.readRawLines()
	if err != nil {
		return err
	}

	lines := make([]string, 0, len(entries)+len(existing))
	for _, e := range entries {
		lines = append(lines, manifest.EncodeLine(e))
	}

	if l.dedupe {
		existing = dropSuperseded(existing, entries)
	}
	lines = append(lines, existing...)

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(l.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing ledger %s: %w", l.path, err)
	}
	return nil
}

// WriteChecksum recomputes the digest of the ledger's full content and
// persists it as the single-line checksum artifact.
func (l *Ledger) WriteChecksum(fp fingerprint.Service) error {
	digest, err := fingerprint.SumFile(fp, l.path)
	if err != nil {
		return fmt.Errorf("checksumming ledger: %w", err)
	}
	if err := os.WriteFile(l.checksumPath, []byte(digest+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing ledger checksum: %w", err)
	}
	return nil
}

// readRawLines returns the existing ledger lines, or none when the file is
// absent.
func (l *Ledger) readRawLines() ([]string, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading ledger %s: %w", l.path, err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// dropSuperseded removes existing lines whose path gained a newer record,
// either from the incoming batch or from an earlier (newer) existing line.
// Lines that fail to parse are kept untouched.
func dropSuperseded(existing []string, incoming []types.Entry) []string {
	seen := make(map[string]struct{}, len(incoming))
	for _, e := range incoming {
		seen[e.Path] = struct{}{}
	}

	kept := existing[:0]
	for _, line := range existing {
		entry, err := manifest.DecodeLine(line)
		if err != nil {
			kept = append(kept, line)
			continue
		}
		if _, dup := seen[entry.Path]; dup {
			continue
		}
		seen[entry.Path] = struct{}{}
		kept = append(kept, line)
	}
	return kept
}
