// Package cas implements the content-addressed layer store and cache index.
package cas

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/zerr"

	"github.com/stratabuild/strata/internal/core/domain"
	"github.com/stratabuild/strata/internal/core/ports"
)

const indexFile = "layers.json"

var _ ports.LayerStore = (*Store)(nil)

// Store implements ports.LayerStore with blobs addressed by digest on disk and
// a flat JSON index mapping step cache keys to layer descriptors.
type Store struct {
	dir   string
	mu    sync.RWMutex
	index map[string]domain.Layer
}

// NewStore creates a layer store rooted at dir, loading any existing index.
func NewStore(dir string) (*Store, error) {
	s := &Store{
		dir:   filepath.Clean(dir),
		index: make(map[string]domain.Layer),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(err, "failed to read layer index")
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.index); err != nil {
		return zerr.Wrap(err, "failed to unmarshal layer index")
	}
	return nil
}

func (s *Store) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal layer index")
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return zerr.Wrap(err, "failed to create layer store directory")
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(filepath.Join(s.dir, indexFile), data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write layer index")
	}
	return nil
}

// Stat returns the cached layer descriptor for a step key, or nil on a miss.
func (s *Store) Stat(key string) (*domain.Layer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layer, ok := s.index[key]
	if !ok {
		return nil, nil
	}
	return &layer, nil
}

// Commit stores the compressed blob under its digest and indexes the resulting
// descriptor under key.
func (s *Store) Commit(key string, blob io.Reader, diffID digest.Digest, mediaType string) (domain.Layer, error) {
	if err := os.MkdirAll(s.blobDir(), 0o750); err != nil {
		return domain.Layer{}, zerr.Wrap(err, "failed to create blob directory")
	}

	tmp, err := os.CreateTemp(s.dir, "blob-*")
	if err != nil {
		return domain.Layer{}, zerr.Wrap(err, "failed to create temp blob")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Best effort cleanup

	digester := digest.Canonical.Digester()
	size, err := io.Copy(io.MultiWriter(tmp, digester.Hash()), blob)
	if err != nil {
		_ = tmp.Close()
		return domain.Layer{}, zerr.Wrap(err, "failed to write blob")
	}
	if err := tmp.Close(); err != nil {
		return domain.Layer{}, zerr.Wrap(err, "failed to close temp blob")
	}

	d := digester.Digest()
	if err := os.Rename(tmp.Name(), s.blobPath(d)); err != nil {
		return domain.Layer{}, zerr.Wrap(err, "failed to place blob")
	}

	layer := domain.Layer{
		MediaType: mediaType,
		Digest:    d,
		DiffID:    diffID,
		Size:      size,
	}

	s.mu.Lock()
	s.index[key] = layer
	s.mu.Unlock()

	if err := s.save(); err != nil {
		return domain.Layer{}, err
	}
	return layer, nil
}

// Blob opens the compressed blob for the given digest.
func (s *Store) Blob(d digest.Digest) (io.ReadCloser, error) {
	f, err := os.Open(s.blobPath(d)) //nolint:gosec // Path derived from validated digest
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open blob"), "digest", d.String())
	}
	return f, nil
}

func (s *Store) blobDir() string {
	return filepath.Join(s.dir, "blobs", string(digest.Canonical))
}

func (s *Store) blobPath(d digest.Digest) string {
	return filepath.Join(s.blobDir(), d.Encoded())
}
