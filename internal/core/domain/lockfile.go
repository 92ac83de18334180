package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// LockedPackage is a fully pinned dependency as recorded in the lock file.
type LockedPackage struct {
	// Name is the canonical package name.
	Name InternedString

	// Version is the pinned version string.
	Version InternedString

	// Artifact is the archive file name within a package repository.
	Artifact string

	// Digest is the sha256 digest of the artifact (e.g., "sha256:ab12...").
	// Fetched artifacts are verified against it before unpacking.
	Digest string
}

// Lockfile is the pinned, resolved dependency set derived from a Manifest.
// It is the sole authority during a frozen install: no re-resolution against
// the manifest happens once a lock exists.
type Lockfile struct {
	// Version is the lockfile format version.
	Version int

	// ManifestDigest is the canonical digest of the manifest this lock was
	// resolved from. A mismatch with the manifest on disk marks the lock stale.
	ManifestDigest string

	// Digest is the digest of the raw lock file contents. It is set by the
	// loader and participates in layer cache keys.
	Digest string

	// Packages maps canonical package names to their pinned entries.
	Packages map[string]LockedPackage
}

// VerifyAgainst checks that the lock is a valid frozen resolution of the manifest:
// the recorded manifest digest matches, every declared dependency is pinned, and
// every pin satisfies its constraint. It never re-resolves anything.
func (l *Lockfile) VerifyAgainst(m *Manifest) error {
	if l.ManifestDigest != m.CanonicalDigest() {
		err := zerr.With(ErrLockfileStale, "locked_digest", l.ManifestDigest)
		return zerr.With(err, "manifest_digest", m.CanonicalDigest())
	}

	for _, dep := range m.Dependencies {
		pkg, ok := l.Packages[dep.Name.String()]
		if !ok {
			return zerr.With(ErrLockfileIncomplete, "dependency", dep.Name.String())
		}
		if !dep.satisfies(pkg.Version.String()) {
			err := zerr.With(ErrConstraintViolated, "dependency", dep.Name.String())
			err = zerr.With(err, "constraint", dep.Constraint.String())
			return zerr.With(err, "pinned", pkg.Version.String())
		}
	}

	return nil
}

// SortedPackages returns the locked packages ordered by name, for deterministic
// install order and layer serialization.
func (l *Lockfile) SortedPackages() []LockedPackage {
	names := make([]string, 0, len(l.Packages))
	for name := range l.Packages {
		names = append(names, name)
	}
	slices.Sort(names)

	pkgs := make([]LockedPackage, 0, len(names))
	for _, name := range names {
		pkgs = append(pkgs, l.Packages[name])
	}
	return pkgs
}
