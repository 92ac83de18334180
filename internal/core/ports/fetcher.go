package ports

import (
	"context"

	"github.com/stratabuild/strata/internal/core/domain"
)

// Fetcher locates, verifies, and unpacks locked package artifacts.
//
//go:generate go run go.uber.org/mock/mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// Fetch returns a local path to the artifact for the given locked package,
	// verified against its pinned digest. It returns domain.ErrPackageNotFound
	// if no configured repository holds the artifact and
	// domain.ErrDigestMismatch if the contents do not match the pin.
	Fetch(ctx context.Context, pkg domain.LockedPackage) (string, error)

	// Unpack extracts a fetched artifact archive into dest.
	Unpack(artifact, dest string) error
}
