// Package reconciler mutates a live directory tree to match an authoritative
// manifest: files the manifest does not account for are deleted, and
// directories left empty by those deletions are pruned.
package reconciler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/charmbracelet/log"

	"github.com/jamesainslie/patchkit/pkg/patchkit/fingerprint"
	"github.com/jamesainslie/patchkit/pkg/patchkit/ledger"
	"github.com/jamesainslie/patchkit/pkg/patchkit/logging"
	"github.com/jamesainslie/patchkit/pkg/patchkit/manifest"
	"github.com/jamesainslie/patchkit/pkg/patchkit/types"
)

// Result summarizes a reconciliation run.
type Result struct {
	// Mode is the deletion policy that ran.
	Mode types.Mode `json:"mode"`

	// Skipped is true when the manifest or ledger was absent or
	// unparseable and the run was a silent no-op.
	Skipped bool `json:"skipped"`

	// FilesScanned counts the files enumerated (full-scan mode only).
	FilesScanned int `json:"files_scanned"`

	// FilesDeleted counts the files removed.
	FilesDeleted int `json:"files_deleted"`

	// DirsPruned counts the directories removed because deletions left
	// them empty.
	DirsPruned int `json:"dirs_pruned"`

	// Elapsed is the wall time of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Reconciler deletes files a manifest does not describe. Runs are
// synchronous and must complete before any subsequent content fetch, so a
// path that is both deleted here and reintroduced by the fetch ends up
// present. Callers serialize concurrent runs against the same root.
type Reconciler struct {
	store  manifest.Store
	fp     fingerprint.Service
	logger *log.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the injected logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

// New creates a Reconciler over the given manifest store and fingerprint
// service.
func New(store manifest.Store, fp fingerprint.Service, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		fp:     fp,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile applies the selected deletion policy to root. A missing or
// unparseable manifest is a silent no-op. An I/O error aborts the remaining
// scan; deletions already performed are not rolled back.
func (r *Reconciler) Reconcile(mode types.Mode, manifestPath, root string) (*Result, error) {
	start := time.Now()
	res := &Result{Mode: mode}

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	switch mode {
	case types.ModeDisabled:
		// No mutation at all.
	case types.ModeLedgerOnly:
		err = r.reconcileLedger(manifestPath, root, res)
	case types.ModeFullScan:
		err = r.reconcileFullScan(manifestPath, root, res)
	default:
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidMode, mode)
	}
	if err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	r.logger.Info("reconciliation complete",
		"mode", mode.String(),
		"deleted", res.FilesDeleted,
		"pruned", res.DirsPruned,
		"elapsed", res.Elapsed)
	return res, nil
}

// reconcileLedger interprets the manifest as a deletion ledger and deletes
// each listed path when present. No content comparison is performed;
// presence of the path is sufficient.
func (r *Reconciler) reconcileLedger(ledgerPath, root string, res *Result) error {
	records, err := ledger.New(ledgerPath).Read()
	if err != nil {
		if ledger.IsNoLedger(err) {
			r.logger.Debug("no ledger to reconcile", "path", ledgerPath)
			res.Skipped = true
			return nil
		}
		return err
	}

	for _, e := range records {
		target := filepath.Join(root, filepath.FromSlash(e.Path))
		deleted, err := r.deleteFile(target)
		if err != nil {
			return err
		}
		if !deleted {
			continue
		}
		res.FilesDeleted++
		if err := r.pruneUpward(filepath.Dir(target), root, res); err != nil {
			return err
		}
	}
	return nil
}

// reconcileFullScan enumerates every file under root and deletes those whose
// computed (path, fingerprint, size) record is absent from the manifest.
// That includes new, modified, and orphaned files; the caller's subsequent
// fetch step restores files deleted merely for being out of date.
func (r *Reconciler) reconcileFullScan(manifestPath, root string, res *Result) error {
	m, err := r.store.Load(manifestPath)
	if err != nil {
		if manifest.IsNoManifest(err) {
			r.logger.Debug("no manifest to reconcile", "path", manifestPath)
			res.Skipped = true
			return nil
		}
		return err
	}
	keys := m.Keys()

	paths, err := enumerate(root)
	if err != nil {
		return err
	}
	res.FilesScanned = len(paths)

	for _, rel := range paths {
		target := filepath.Join(root, filepath.FromSlash(rel))

		info, err := os.Stat(target)
		if err != nil {
			return fmt.Errorf("examining %s: %w", rel, err)
		}
		digest, err := fingerprint.SumFile(r.fp, target)
		if err != nil {
			return err
		}

		key := types.Key{Path: rel, Fingerprint: digest, Size: uint64(info.Size())}
		if _, ok := keys[key]; ok {
			continue
		}

		if _, err := r.deleteFile(target); err != nil {
			return err
		}
		r.logger.Debug("deleted unaccounted file", "path", rel)
		res.FilesDeleted++
		if err := r.pruneUpward(filepath.Dir(target), root, res); err != nil {
			return err
		}
	}
	return nil
}

// deleteFile removes target if it exists. It reports whether a deletion
// happened.
func (r *Reconciler) deleteFile(target string) (bool, error) {
	err := os.Remove(target)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("deleting %s: %w", target, err)
}

// pruneUpward removes dir and then each ancestor that deletion left empty,
// stopping at root and at the first non-empty directory. The listing is
// recomputed fresh at every level; a stale count could delete an ancestor
// that still holds content.
func (r *Reconciler) pruneUpward(dir, root string, res *Result) error {
	root = filepath.Clean(root)

	for {
		dir = filepath.Clean(dir)
		if dir == root || !within(dir, root) {
			return nil
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("listing %s: %w", dir, err)
		}
		if len(entries) > 0 {
			return nil
		}

		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("pruning %s: %w", dir, err)
		}
		r.logger.Debug("pruned empty directory", "path", dir)
		res.DirsPruned++

		dir = filepath.Dir(dir)
	}
}

// within reports whether path is strictly under root.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// enumerate walks root and returns the slash-separated relative path of
// every regular file, in sorted order so deletions happen deterministically.
func enumerate(root string) ([]string, error) {
	var (
		mu    sync.Mutex
		paths []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		mu.Lock()
		paths = append(paths, filepath.ToSlash(rel))
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}
