// Package fs provides file system adapters for walking and hashing trees.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files under root in lexical order, skipping version
// control metadata and ignored names. Yielded paths include root.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if skip := w.skip(d, ignores); skip != nil {
				return skip
			}
			if d.IsDir() {
				return nil
			}
			if matchAny(ignores, d.Name()) {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// skip returns filepath.SkipDir for directories excluded from the walk.
func (w *Walker) skip(d fs.DirEntry, ignores []string) error {
	if !d.IsDir() {
		return nil
	}
	name := d.Name()
	if name == ".git" || name == ".jj" {
		return filepath.SkipDir
	}
	if matchAny(ignores, name) {
		return filepath.SkipDir
	}
	return nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
