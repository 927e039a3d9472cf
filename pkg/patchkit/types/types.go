// Package types provides core data types for the patchkit packaging engine.
// It defines manifest entries, the deletion-ledger record variant, and the
// reconciliation mode enum shared by the packager and reconciler.
package types

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Kind discriminates the payload a manifest entry carries.
type Kind int

const (
	// Content marks an ordinary manifest entry whose payload is a byte count.
	Content Kind = iota

	// Deleted marks a deletion-ledger entry whose payload is the epoch
	// second at which the deletion was recorded.
	Deleted
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case Content:
		return "content"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Entry is a single manifest record. An entry is an immutable value: the
// packager and reconciler never mutate entries they are handed.
//
// The payload is tagged by Kind: Size is meaningful only for Content entries
// and DeletedAt only for Deleted entries. The two are deliberately separate
// fields so a ledger record re-parsed as a manifest entry cannot be mistaken
// for a file of that byte size.
type Entry struct {
	// Path is the slash-separated path relative to the tree root.
	// It is the unique key within one manifest.
	Path string `json:"path"`

	// Fingerprint is the fixed-length hex digest of the file content.
	Fingerprint string `json:"fingerprint"`

	// Kind selects which payload field is meaningful.
	Kind Kind `json:"kind"`

	// Size is the file size in bytes. Valid when Kind == Content.
	Size uint64 `json:"size,omitempty"`

	// DeletedAt is the epoch second the deletion was recorded.
	// Valid when Kind == Deleted.
	DeletedAt int64 `json:"deleted_at,omitempty"`
}

// NewContent builds a Content entry for a file of the given size.
func NewContent(relPath, fingerprint string, size uint64) Entry {
	return Entry{
		Path:        NormalizePath(relPath),
		Fingerprint: fingerprint,
		Kind:        Content,
		Size:        size,
	}
}

// NewDeleted builds a Deleted ledger entry recorded at the given epoch second.
func NewDeleted(relPath, fingerprint string, deletedAt int64) Entry {
	return Entry{
		Path:        NormalizePath(relPath),
		Fingerprint: fingerprint,
		Kind:        Deleted,
		DeletedAt:   deletedAt,
	}
}

// Key is the comparable full-record identity of a Content entry. Two snapshots
// describe the same file state exactly when path, fingerprint, and size all
// match.
type Key struct {
	Path        string
	Fingerprint string
	Size        uint64
}

// Key returns the full-record identity of the entry.
func (e Entry) Key() Key {
	return Key{Path: e.Path, Fingerprint: e.Fingerprint, Size: e.Size}
}

// Manifest is an ordered sequence of entries. Order reflects load order only;
// no diff semantics depend on it. Path uniqueness within one manifest is an
// invariant of the producer.
type Manifest []Entry

// Paths returns the set of entry paths for presence tests.
func (m Manifest) Paths() map[string]struct{} {
	set := make(map[string]struct{}, len(m))
	for _, e := range m {
		set[e.Path] = struct{}{}
	}
	return set
}

// Keys returns the set of full-record keys for membership tests.
func (m Manifest) Keys() map[Key]struct{} {
	set := make(map[Key]struct{}, len(m))
	for _, e := range m {
		set[e.Key()] = struct{}{}
	}
	return set
}

// Validate checks the path-uniqueness invariant.
func (m Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m))
	for _, e := range m {
		if e.Path == "" {
			return errors.New("manifest entry with empty path")
		}
		if _, dup := seen[e.Path]; dup {
			return fmt.Errorf("duplicate manifest path %q", e.Path)
		}
		seen[e.Path] = struct{}{}
	}
	return nil
}

// NormalizePath converts a relative path to clean slash-separated form.
func NormalizePath(p string) string {
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

// Mode selects the reconciler's deletion policy.
type Mode int

const (
	// ModeDisabled performs no mutation at all.
	ModeDisabled Mode = iota

	// ModeLedgerOnly deletes exactly the paths listed in a deletion ledger.
	ModeLedgerOnly

	// ModeFullScan enumerates the whole tree and deletes every file whose
	// full record is absent from the manifest.
	ModeFullScan
)

// ErrInvalidMode is returned when a mode string is not recognized.
var ErrInvalidMode = errors.New("invalid reconciliation mode")

// ParseMode parses a string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "disabled", "off":
		return ModeDisabled, nil
	case "ledger", "ledger-only":
		return ModeLedgerOnly, nil
	case "full", "full-scan":
		return ModeFullScan, nil
	default:
		return ModeDisabled, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeLedgerOnly:
		return "ledger-only"
	case ModeFullScan:
		return "full-scan"
	default:
		return "unknown"
	}
}
