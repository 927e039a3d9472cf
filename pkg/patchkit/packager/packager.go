// Package packager diffs two manifest snapshots of a source tree, stages
// every added or changed file into a distributable package, and records
// disappeared files in the deletion ledger.
package packager

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jamesainslie/patchkit/pkg/patchkit/archive"
	"github.com/jamesainslie/patchkit/pkg/patchkit/fingerprint"
	"github.com/jamesainslie/patchkit/pkg/patchkit/ledger"
	"github.com/jamesainslie/patchkit/pkg/patchkit/logging"
	"github.com/jamesainslie/patchkit/pkg/patchkit/manifest"
	"github.com/jamesainslie/patchkit/pkg/patchkit/types"
)

const (
	// StagingDirName is the ephemeral staging tree under the work directory.
	StagingDirName = "patch"

	// ArchiveName is the packaged artifact under the work directory.
	ArchiveName = StagingDirName + archive.Extension
)

// Options describe one packaging run.
type Options struct {
	// CurrentManifest is the path of the snapshot being shipped.
	CurrentManifest string

	// PreviousManifest is the path of the snapshot being patched from.
	PreviousManifest string

	// SourceRoot is the directory holding the current tree's files.
	SourceRoot string

	// WorkDir is the parent for the staging tree, the archive, and the
	// deletion ledger artifacts.
	WorkDir string

	// Compress archives the staging tree into one package file and removes
	// the staging tree afterwards.
	Compress bool

	// DedupeLedger keeps only the newest ledger record per path.
	DedupeLedger bool
}

// Result summarizes a packaging run.
type Result struct {
	// Skipped is true when either manifest was absent or unparseable and
	// the run was a silent no-op.
	Skipped bool `json:"skipped"`

	// FilesStaged counts the added or changed files copied into staging.
	FilesStaged int `json:"files_staged"`

	// BytesStaged is the total size of the staged files.
	BytesStaged uint64 `json:"bytes_staged"`

	// FilesDeleted counts the new records added to the deletion ledger.
	FilesDeleted int `json:"files_deleted"`

	// ArchivePath is the packaged artifact, when compression ran.
	ArchivePath string `json:"archive_path,omitempty"`

	// Elapsed is the wall time of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Packager generates patch packages. Runs are synchronous; callers must
// serialize concurrent runs against the same work directory.
type Packager struct {
	store  manifest.Store
	fp     fingerprint.Service
	logger *log.Logger
	now    func() time.Time
}

// Option configures a Packager.
type Option func(*Packager)

// WithLogger sets the injected logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Packager) { p.logger = logger }
}

// WithClock overrides the timestamp source for ledger records.
func WithClock(now func() time.Time) Option {
	return func(p *Packager) { p.now = now }
}

// New creates a Packager over the given manifest store and fingerprint
// service.
func New(store manifest.Store, fp fingerprint.Service, opts ...Option) *Packager {
	p := &Packager{
		store:  store,
		fp:     fp,
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate runs one packaging pass. A missing or unparseable manifest on
// either side makes the run a silent no-op: there is nothing to patch
// against. Any filesystem failure aborts the run; partial progress is left
// as-is and a rerun regenerates staging from scratch.
func (p *Packager) Generate(opts Options) (*Result, error) {
	start := p.now()

	current, err := p.store.Load(opts.CurrentManifest)
	if err != nil {
		return p.skip(opts.CurrentManifest, err)
	}
	previous, err := p.store.Load(opts.PreviousManifest)
	if err != nil {
		return p.skip(opts.PreviousManifest, err)
	}

	res := &Result{}

	changed := Changed(current, previous)
	if err := p.stage(changed, opts, res); err != nil {
		return nil, err
	}

	deleted := DeletedPaths(current, previous)
	if err := p.recordDeletions(deleted, opts, res); err != nil {
		return nil, err
	}

	if opts.Compress && res.FilesStaged > 0 {
		archivePath, err := p.compress(opts)
		if err != nil {
			return nil, err
		}
		res.ArchivePath = archivePath
	}

	res.Elapsed = p.now().Sub(start)
	p.logger.Info("patch generated",
		"staged", res.FilesStaged,
		"deleted", res.FilesDeleted,
		"archive", res.ArchivePath != "",
		"elapsed", res.Elapsed)
	return res, nil
}

// Changed returns the entries of current with no fully matching record in
// previous. A path whose fingerprint or size differs counts as changed even
// though the path is not new.
func Changed(current, previous types.Manifest) types.Manifest {
	prev := previous.Keys()

	var out types.Manifest
	for _, e := range current {
		if _, ok := prev[e.Key()]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// DeletedPaths returns the entries of previous whose path has no entry at
// all in current. Deletion is about presence, so this test is deliberately
// coarser than Changed's full-record equality.
func DeletedPaths(current, previous types.Manifest) types.Manifest {
	cur := current.Paths()

	var out types.Manifest
	for _, e := range previous {
		if _, ok := cur[e.Path]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// skip converts a missing-manifest condition into a silent no-op and
// propagates anything else.
func (p *Packager) skip(path string, err error) (*Result, error) {
	if !manifest.IsNoManifest(err) {
		return nil, err
	}
	p.logger.Debug("nothing to patch against", "manifest", path)
	return &Result{Skipped: true}, nil
}

// stage copies each changed entry from the source root into the staging
// tree, overwriting any existing destination. Staging is regenerated from
// scratch so a rerun after a crash starts clean.
func (p *Packager) stage(changed types.Manifest, opts Options, res *Result) error {
	stagingDir := filepath.Join(opts.WorkDir, StagingDirName)

	if err := os.RemoveAll(stagingDir); err != nil {
		return fmt.Errorf("clearing staging: %w", err)
	}

	for _, e := range changed {
		src := filepath.Join(opts.SourceRoot, filepath.FromSlash(e.Path))
		dst := filepath.Join(stagingDir, filepath.FromSlash(e.Path))

		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("staging %s: %w", e.Path, err)
		}
		res.FilesStaged++
		res.BytesStaged += e.Size
		p.logger.Debug("staged", "path", e.Path, "size", e.Size)
	}
	return nil
}

// recordDeletions prepends one ledger record per disappeared path, carrying
// the entry's original fingerprint and the run timestamp, then refreshes the
// ledger checksum. The checksum is only rewritten when records were added.
func (p *Packager) recordDeletions(deleted types.Manifest, opts Options, res *Result) error {
	if len(deleted) == 0 {
		return nil
	}

	epoch := p.now().Unix()
	records := make([]types.Entry, 0, len(deleted))
	for _, e := range deleted {
		records = append(records, types.NewDeleted(e.Path, e.Fingerprint, epoch))
		p.logger.Debug("recorded deletion", "path", e.Path)
	}

	var lopts []ledger.Option
	if opts.DedupeLedger {
		lopts = append(lopts, ledger.WithDedupe())
	}
	led := ledger.New(filepath.Join(opts.WorkDir, ledger.FileName), lopts...)

	if err := led.Prepend(records); err != nil {
		return err
	}
	if err := led.WriteChecksum(p.fp); err != nil {
		return err
	}
	res.FilesDeleted = len(records)
	return nil
}

// compress archives the staging tree and removes it: files first, then
// subdirectories deepest-first, then the staging directory itself. The two
// steps are not atomic; a rerun regenerates staging and replaces the archive.
func (p *Packager) compress(opts Options) (string, error) {
	stagingDir := filepath.Join(opts.WorkDir, StagingDirName)
	archivePath := filepath.Join(opts.WorkDir, ArchiveName)

	if err := archive.Create(stagingDir, archivePath); err != nil {
		return "", err
	}
	if err := removeTree(stagingDir); err != nil {
		return "", fmt.Errorf("cleaning staging: %w", err)
	}
	return archivePath, nil
}

// copyFile copies src to dst, creating intermediate directories and
// overwriting any existing destination.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// removeTree deletes every file under dir, then its directories
// deepest-first, then dir itself.
func removeTree(dir string) error {
	var files, dirs []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}
		if path == dir {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		} else {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return err
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		if err := os.Remove(d); err != nil {
			return err
		}
	}

	return os.Remove(dir)
}
