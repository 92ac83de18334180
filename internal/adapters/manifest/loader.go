// Package manifest loads the dependency manifest and its lock file.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/opencontainers/go-digest"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/stratabuild/strata/internal/core/domain"
	"github.com/stratabuild/strata/internal/core/ports"
)

var _ ports.ManifestLoader = (*Loader)(nil)

// Loader implements ports.ManifestLoader over YAML files.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// manifestDTO is the on-disk shape of the dependency manifest.
type manifestDTO struct {
	Project struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"project"`
	Dependencies []struct {
		Name       string `yaml:"name"`
		Constraint string `yaml:"constraint"`
	} `yaml:"dependencies"`
}

// lockfileDTO is the on-disk shape of the lock file.
type lockfileDTO struct {
	Version        int                     `yaml:"version"`
	ManifestDigest string                  `yaml:"manifestDigest"`
	Packages       map[string]lockedPkgDTO `yaml:"packages"`
}

type lockedPkgDTO struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Artifact string `yaml:"artifact"`
	Digest   string `yaml:"digest"`
}

// LoadManifest parses the dependency manifest at the given path.
func (l *Loader) LoadManifest(path string) (*domain.Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", path)
	}

	var dto manifestDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse manifest"), "path", path)
	}
	if dto.Project.Name == "" {
		return nil, zerr.With(zerr.New("manifest missing project name"), "path", path)
	}

	m := &domain.Manifest{
		Project: domain.Project{
			Name:    domain.NewInternedString(dto.Project.Name),
			Version: domain.NewInternedString(dto.Project.Version),
		},
	}
	for _, dep := range dto.Dependencies {
		if dep.Name == "" {
			return nil, zerr.With(zerr.New("manifest dependency missing name"), "path", path)
		}
		m.Dependencies = append(m.Dependencies, domain.DependencyRequest{
			Name:       domain.NewInternedString(dep.Name),
			Constraint: domain.NewInternedString(dep.Constraint),
		})
	}
	return m, nil
}

// LoadLockfile parses the lock file at the given path. A missing file yields
// domain.ErrLockfileMissing so the frozen install aborts before any source
// handling.
func (l *Loader) LoadLockfile(path string) (*domain.Lockfile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrLockfileMissing, "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read lock file"), "path", path)
	}

	var dto lockfileDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse lock file"), "path", path)
	}
	if dto.Version < 1 {
		return nil, zerr.With(zerr.New("unsupported lock file version"), "version", dto.Version)
	}

	lock := &domain.Lockfile{
		Version:        dto.Version,
		ManifestDigest: dto.ManifestDigest,
		Digest:         fmt.Sprintf("%016x", xxhash.Sum64(data)),
		Packages:       make(map[string]domain.LockedPackage, len(dto.Packages)),
	}
	for name, pkg := range dto.Packages {
		if _, err := digest.Parse(pkg.Digest); err != nil {
			perr := zerr.With(zerr.Wrap(err, "invalid artifact digest"), "package", name)
			return nil, zerr.With(perr, "digest", pkg.Digest)
		}
		lock.Packages[name] = domain.LockedPackage{
			Name:     domain.NewInternedString(pkg.Name),
			Version:  domain.NewInternedString(pkg.Version),
			Artifact: pkg.Artifact,
			Digest:   pkg.Digest,
		}
	}
	return lock, nil
}
