// Package archive packages a staging directory into a single compressed
// artifact. The format is a gzip-wrapped tar stream with slash-separated
// names relative to the staged root.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Extension is the archive file extension, including the leading dot.
const Extension = ".tar.gz"

// Create archives the contents of dir into a new file at out, replacing any
// file already there. Entries are written in lexical walk order so repeated
// runs over the same tree produce the same member sequence.
func Create(dir, out string) (err error) {
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale archive %s: %w", out, err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", out, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing archive: %w", cerr)
		}
	}()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}
		if d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil {
			return rerr
		}
		return addFile(tw, path, filepath.ToSlash(rel))
	})
	if walkErr != nil {
		_ = tw.Close()
		_ = gz.Close()
		return fmt.Errorf("archiving %s: %w", dir, walkErr)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalizing gzip stream: %w", err)
	}
	return nil
}

// addFile writes one regular file into the tar stream under name.
func addFile(tw *tar.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("copying %s into archive: %w", path, err)
	}
	return nil
}

// Extract unpacks an archive created by Create into dir, creating
// intermediate directories as needed. Member names escaping dir are rejected.
func Extract(archivePath, dir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", archivePath, err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading gzip stream: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar stream: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		dest, err := securePath(dir, hdr.Name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", dest, err)
		}
		if err := writeMember(tr, dest, hdr.FileInfo().Mode()); err != nil {
			return err
		}
	}
}

// writeMember copies one tar member to dest.
func writeMember(tr *tar.Reader, dest string, mode fs.FileMode) (err error) {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, tr); err != nil { //nolint:gosec // trusted self-produced archives
		return fmt.Errorf("extracting %s: %w", dest, err)
	}
	return nil
}

// securePath joins name under dir and rejects traversal outside it.
func securePath(dir, name string) (string, error) {
	dest := filepath.Join(dir, filepath.FromSlash(name))
	if !strings.HasPrefix(dest, filepath.Clean(dir)+string(filepath.Separator)) {
		return "", fmt.Errorf("archive member %q escapes destination", name)
	}
	return dest, nil
}
