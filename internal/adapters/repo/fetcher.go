// Package repo implements artifact fetching from local package repositories.
package repo

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/zerr"

	"github.com/stratabuild/strata/internal/core/domain"
	"github.com/stratabuild/strata/internal/core/ports"
)

var _ ports.Fetcher = (*Fetcher)(nil)

// Fetcher resolves locked artifacts against an ordered list of repository
// directories and verifies their pinned digests before handing them out.
type Fetcher struct {
	roots []string
}

// NewFetcher creates a Fetcher searching the given repository roots in order.
func NewFetcher(roots []string) *Fetcher {
	return &Fetcher{roots: roots}
}

// Fetch returns the verified local path of the artifact for pkg.
func (f *Fetcher) Fetch(ctx context.Context, pkg domain.LockedPackage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if pkg.Artifact == "" || pkg.Artifact != filepath.Base(pkg.Artifact) {
		return "", zerr.With(zerr.New("invalid artifact name"), "artifact", pkg.Artifact)
	}

	for _, root := range f.roots {
		path := filepath.Join(root, pkg.Artifact)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", zerr.With(zerr.Wrap(err, "failed to stat artifact"), "path", path)
		}

		if err := f.verify(path, pkg.Digest); err != nil {
			return "", err
		}
		return path, nil
	}

	err := zerr.With(ErrNotFoundIn(f.roots), "package", pkg.Name.String())
	return "", zerr.With(err, "artifact", pkg.Artifact)
}

// ErrNotFoundIn decorates ErrPackageNotFound with the searched roots.
func ErrNotFoundIn(roots []string) error {
	return zerr.With(domain.ErrPackageNotFound, "repositories", strings.Join(roots, ":"))
}

// verify streams the artifact through a digest verifier for the pinned value.
func (f *Fetcher) verify(path, pinned string) error {
	d, err := digest.Parse(pinned)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "invalid pinned digest"), "digest", pinned)
	}

	file, err := os.Open(path) //nolint:gosec // Path assembled from configured roots
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open artifact"), "path", path)
	}
	defer file.Close() //nolint:errcheck // Best effort close in defer

	verifier := d.Verifier()
	if _, err := io.Copy(verifier, file); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read artifact"), "path", path)
	}
	if !verifier.Verified() {
		err := zerr.With(domain.ErrDigestMismatch, "path", path)
		return zerr.With(err, "pinned", pinned)
	}
	return nil
}
