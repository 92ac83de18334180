package domain

import (
	"net"
	"path/filepath"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// DefaultBind is the address the served process binds when the buildfile does
// not say otherwise.
const DefaultBind = "0.0.0.0:8000"

// ToolingPackage is a fully pinned OS-level utility installed into the base
// tooling layer (e.g., a network probe for health checks). Tooling is pinned in
// the buildfile itself since it is not part of the dependency manifest.
type ToolingPackage struct {
	Name     InternedString `yaml:"name"`
	Version  InternedString `yaml:"version"`
	Artifact string         `yaml:"artifact"`
	Digest   string         `yaml:"digest"`
}

// Locked converts the tooling pin into the locked-package form understood by
// artifact fetchers.
func (t ToolingPackage) Locked() LockedPackage {
	return LockedPackage{
		Name:     t.Name,
		Version:  t.Version,
		Artifact: t.Artifact,
		Digest:   t.Digest,
	}
}

// EntrypointSpec declares the command starting the served process. The bind
// address is appended as the command's final argument, following the serve
// commands the tool targets.
type EntrypointSpec struct {
	Command []string `yaml:"command"`
	Bind    string   `yaml:"bind"`
}

// Cmd returns the full argument vector for the image config.
func (e EntrypointSpec) Cmd() []string {
	cmd := make([]string, 0, len(e.Command)+1)
	cmd = append(cmd, e.Command...)
	return append(cmd, e.Bind)
}

// Port returns the TCP port of the bind address.
func (e EntrypointSpec) Port() (int, error) {
	_, portStr, err := net.SplitHostPort(e.Bind)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "invalid bind address"), "bind", e.Bind)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return 0, zerr.With(zerr.New("invalid bind port"), "bind", e.Bind)
	}
	return port, nil
}

// Plan is the validated buildfile: everything the pipeline needs to transform
// (base image, manifest, lock file, source tree) into a runnable image.
type Plan struct {
	// ContextDir is the build context; all relative input paths resolve
	// against it.
	ContextDir string

	// Base names the base image: a path to an OCI layout directory, or
	// "scratch" for the empty image.
	Base string

	// WorkDir is the absolute in-image application directory the source tree
	// is copied into.
	WorkDir string

	// EnvDir is the absolute in-image directory the dependency environment is
	// materialized into. It must live outside WorkDir so a development-time
	// bind mount of the source tree cannot shadow the installed environment.
	EnvDir string

	// Tooling lists pinned OS-level utilities for the tooling layer.
	Tooling []ToolingPackage

	// Identity is the non-privileged runtime identity.
	Identity Identity

	// ManifestPath and LockfilePath locate the dependency manifest and lock
	// file, relative to ContextDir.
	ManifestPath string
	LockfilePath string

	// Ignores are patterns excluded from the source copy and the tree hash.
	Ignores []string

	// Precompile enables bytecode pre-compilation during dependency install.
	Precompile bool

	// Env holds extra environment entries for the image config.
	Env map[string]string

	// Entrypoint declares the served process.
	Entrypoint EntrypointSpec

	// Output is the OCI layout directory to write, relative to ContextDir.
	Output string
}

// Validate checks the plan's structural invariants. Any violation aborts the
// build before the first step runs.
func (p *Plan) Validate() error {
	if p.Base == "" {
		return zerr.With(ErrInvalidPlan, "reason", "base image must be set")
	}
	if !filepath.IsAbs(p.WorkDir) {
		return zerr.With(zerr.With(ErrInvalidPlan, "reason", "workdir must be absolute"), "workdir", p.WorkDir)
	}
	if !filepath.IsAbs(p.EnvDir) {
		return zerr.With(zerr.With(ErrInvalidPlan, "reason", "envdir must be absolute"), "envdir", p.EnvDir)
	}
	if within(p.EnvDir, p.WorkDir) || within(p.WorkDir, p.EnvDir) {
		err := zerr.With(ErrInvalidPlan, "reason", "envdir and workdir must not nest")
		err = zerr.With(err, "workdir", p.WorkDir)
		return zerr.With(err, "envdir", p.EnvDir)
	}
	if err := p.Identity.Validate(); err != nil {
		return err
	}
	if p.ManifestPath == "" || p.LockfilePath == "" {
		return zerr.With(ErrInvalidPlan, "reason", "manifest and lockfile paths must be set")
	}
	if len(p.Entrypoint.Command) == 0 {
		return zerr.With(ErrInvalidPlan, "reason", "entrypoint command must be set")
	}
	if _, err := p.Entrypoint.Port(); err != nil {
		return err
	}
	if p.Output == "" {
		return zerr.With(ErrInvalidPlan, "reason", "output path must be set")
	}
	return nil
}

// within reports whether path sits at or below root, both absolute.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "")
}
