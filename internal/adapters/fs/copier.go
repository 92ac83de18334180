package fs

import (
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"

	"github.com/stratabuild/strata/internal/core/ports"
)

var _ ports.TreeCopier = (*Copier)(nil)

// Copier copies directory trees using the same walk rules as the tree hasher,
// so the copied set and the hashed set never drift apart.
type Copier struct {
	walker *Walker
}

// NewCopier creates a new Copier.
func NewCopier(walker *Walker) *Copier {
	return &Copier{walker: walker}
}

// CopyTree copies all files under src into dest, preserving relative paths
// and file modes.
func (c *Copier) CopyTree(src, dest string, ignores []string) error {
	for path := range c.walker.WalkFiles(src, ignores) {
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to relativize source path"), "path", path)
		}
		if err := copyFile(path, filepath.Join(dest, rel)); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat source file"), "path", src)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create target directory"), "path", dest)
	}

	in, err := os.Open(src) //nolint:gosec // Path produced by the walker
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open source file"), "path", src)
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec // Target is confined to dest
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create target file"), "path", dest)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return zerr.With(zerr.Wrap(err, "failed to copy file"), "path", src)
	}
	return out.Close()
}
