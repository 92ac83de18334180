package domain

import "go.trai.ch/zerr"

var (
	// ErrLockfileMissing is returned when the frozen install cannot find a lock file.
	ErrLockfileMissing = zerr.New("lock file missing")

	// ErrLockfileStale is returned when the lock file was resolved from a different
	// manifest than the one on disk.
	ErrLockfileStale = zerr.New("lock file out of date with manifest")

	// ErrLockfileIncomplete is returned when a manifest dependency has no pinned
	// entry in the lock file.
	ErrLockfileIncomplete = zerr.New("lock file incomplete")

	// ErrConstraintViolated is returned when a pinned version does not satisfy the
	// manifest's constraint for that dependency.
	ErrConstraintViolated = zerr.New("pinned version violates constraint")

	// ErrIdentityExists is returned when the runtime identity collides with a user
	// or group already present in the base image.
	ErrIdentityExists = zerr.New("identity already exists in base image")

	// ErrRootIdentity is returned when the runtime identity resolves to root.
	ErrRootIdentity = zerr.New("runtime identity must not be root")

	// ErrPackageNotFound is returned when a locked artifact cannot be located in
	// any configured repository.
	ErrPackageNotFound = zerr.New("package artifact not found")

	// ErrDigestMismatch is returned when a fetched artifact does not match the
	// digest pinned in the lock file.
	ErrDigestMismatch = zerr.New("artifact digest mismatch")

	// ErrInvalidPlan is returned when the buildfile fails validation.
	ErrInvalidPlan = zerr.New("invalid build plan")

	// ErrBuildFailed wraps any step failure surfaced to the CLI exit path.
	ErrBuildFailed = zerr.New("build failed")
)
