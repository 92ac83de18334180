package domain

import "github.com/opencontainers/go-digest"

// ScratchRef is the base reference naming the empty image.
const ScratchRef = "scratch"

// Layer describes one serialized filesystem delta in the image layer stack.
type Layer struct {
	// MediaType is the OCI media type of the compressed blob.
	MediaType string `json:"mediaType"`

	// Digest addresses the compressed blob in a layer store or OCI layout.
	Digest digest.Digest `json:"digest"`

	// DiffID is the digest of the uncompressed tar stream, as referenced by an
	// image config's rootfs section.
	DiffID digest.Digest `json:"diffID"`

	// Size is the compressed blob size in bytes.
	Size int64 `json:"size"`
}

// BaseImage is a resolved base image: its layer stack, config-derived runtime
// defaults, and the user/group tables found in its filesystem (used for
// identity-conflict detection).
type BaseImage struct {
	// Ref is the reference the build plan named (a layout path or "scratch").
	Ref string

	// LayoutPath is the OCI layout directory the base was read from.
	// Empty for scratch.
	LayoutPath string

	// Digest is the base image's manifest digest. It participates in every
	// layer cache key so that rebuilding the base invalidates derived layers.
	Digest digest.Digest

	// Layers are the base's compressed layer descriptors, in stack order.
	Layers []Layer

	// Env holds the base config's environment.
	Env []string

	// WorkingDir and User carry the base config defaults, overridden later in
	// the build.
	WorkingDir string
	User       string

	// Users and Groups are the account tables parsed out of the base layers.
	Users  []PasswdEntry
	Groups []GroupEntry
}

// Scratch reports whether the base is the empty image.
func (b *BaseImage) Scratch() bool {
	return b.LayoutPath == ""
}
