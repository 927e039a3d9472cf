// Package manifest loads and persists file-tree manifests.
//
// The on-disk form is newline-delimited text, one entry per line. Content
// entries serialize as "path<TAB>fingerprint<TAB>size"; deletion-ledger
// entries as "path<TAB>fingerprint<TAB>deleted<TAB>epoch". The Store
// interface keeps the format pluggable for callers that load manifests from
// elsewhere.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jamesainslie/patchkit/pkg/patchkit/types"
)

// ErrNoManifest is returned when the backing file is absent or malformed.
// Callers treat both conditions as "no manifest": there is nothing to diff
// or reconcile against.
var ErrNoManifest = errors.New("no manifest")

// IsNoManifest reports whether err indicates an absent or malformed manifest.
func IsNoManifest(err error) bool {
	return errors.Is(err, ErrNoManifest)
}

// deletedTag marks a ledger line's payload as an epoch timestamp.
const deletedTag = "deleted"

// Store loads a manifest from a path.
type Store interface {
	Load(path string) (types.Manifest, error)
}

// FileStore reads and writes the newline-delimited text format.
type FileStore struct{}

// NewFileStore returns a Store over the text format.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Load reads the manifest at path. A missing file or any unparseable line
// yields ErrNoManifest.
func (s *FileStore) Load(path string) (types.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, path)
		}
		return nil, fmt.Errorf("opening manifest %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var m types.Manifest
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		entry, err := DecodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNoManifest, path, err)
		}
		m = append(m, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoManifest, path, err)
	}
	return m, nil
}

// Write persists the manifest to path atomically via a temp file and rename.
func (s *FileStore) Write(path string, m types.Manifest) error {
	var sb strings.Builder
	for _, e := range m {
		sb.WriteString(EncodeLine(e))
		sb.WriteByte('\n')
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp manifest: %w", err)
	}
	return nil
}

// EncodeLine serializes one entry to its text line, without the newline.
func EncodeLine(e types.Entry) string {
	if e.Kind == types.Deleted {
		return strings.Join([]string{
			e.Path,
			e.Fingerprint,
			deletedTag,
			strconv.FormatInt(e.DeletedAt, 10),
		}, "\t")
	}
	return strings.Join([]string{
		e.Path,
		e.Fingerprint,
		strconv.FormatUint(e.Size, 10),
	}, "\t")
}

// DecodeLine parses one text line into an entry.
func DecodeLine(line string) (types.Entry, error) {
	fields := strings.Split(line, "\t")
	switch len(fields) {
	case 3:
		size, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return types.Entry{}, fmt.Errorf("bad size %q: %w", fields[2], err)
		}
		return types.NewContent(fields[0], fields[1], size), nil
	case 4:
		if fields[2] != deletedTag {
			return types.Entry{}, fmt.Errorf("bad entry tag %q", fields[2])
		}
		epoch, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			return types.Entry{}, fmt.Errorf("bad deletion epoch %q: %w", fields[3], err)
		}
		return types.NewDeleted(fields[0], fields[1], epoch), nil
	default:
		return types.Entry{}, fmt.Errorf("want 3 or 4 fields, got %d", len(fields))
	}
}
