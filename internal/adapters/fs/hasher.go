package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/stratabuild/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.TreeHasher = (*Hasher)(nil)

// Hasher computes xxhash content hashes over files and trees.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// HashFile computes the XXHash of a file's content.
func (h *Hasher) HashFile(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// HashTree computes a single hash over every file under root: relative path,
// mode bit, and content hash, combined in lexical path order. File contents
// are hashed concurrently; the combination stays deterministic.
func (h *Hasher) HashTree(root string, ignores []string) (string, error) {
	var paths []string
	for path := range h.walker.WalkFiles(root, ignores) {
		paths = append(paths, path)
	}

	hashes := make([]uint64, len(paths))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			sum, err := h.HashFile(path)
			if err != nil {
				return err
			}
			hashes[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	hasher := xxhash.New()
	for i, path := range paths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to relativize path"), "path", path)
		}
		_, _ = hasher.WriteString(filepath.ToSlash(rel))
		_, _ = hasher.Write([]byte{0})

		info, err := os.Stat(path)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
		}
		if info.Mode()&0o111 != 0 {
			_, _ = hasher.Write([]byte{'x'})
		}
		_, _ = hasher.Write([]byte{0})

		if err := binary.Write(hasher, binary.LittleEndian, hashes[i]); err != nil {
			return "", zerr.Wrap(err, "failed to write hash to digest")
		}
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}
