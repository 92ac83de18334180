package ports

import "github.com/stratabuild/strata/internal/core/domain"

// ManifestLoader reads the dependency manifest and its lock file.
//
//go:generate go run go.uber.org/mock/mockgen -source=manifest_loader.go -destination=mocks/mock_manifest_loader.go -package=mocks
type ManifestLoader interface {
	// LoadManifest parses the dependency manifest at the given path.
	LoadManifest(path string) (*domain.Manifest, error)

	// LoadLockfile parses the lock file at the given path. A missing file
	// returns domain.ErrLockfileMissing: the frozen install refuses to proceed
	// without a pinned resolution.
	LoadLockfile(path string) (*domain.Lockfile, error)
}
