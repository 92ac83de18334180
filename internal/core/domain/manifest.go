package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Project identifies the unit being packaged. During the finalizing install phase
// the project itself becomes an installed unit under this name.
type Project struct {
	Name    InternedString
	Version InternedString
}

// Manifest declares a project's direct dependencies and version constraints.
// It is an immutable build input; resolution happens elsewhere and is recorded
// in a Lockfile.
type Manifest struct {
	Project      Project
	Dependencies []DependencyRequest
}

// CanonicalDigest computes a deterministic digest over the manifest contents.
// A lock file records this value at resolution time; the frozen install compares
// it against the manifest on disk to detect a stale lock.
func (m *Manifest) CanonicalDigest() string {
	lines := make([]string, 0, len(m.Dependencies)+1)
	lines = append(lines, "project:"+m.Project.Name.String()+"@"+m.Project.Version.String())
	for _, dep := range m.Dependencies {
		lines = append(lines, "dep:"+dep.Name.String()+":"+dep.Constraint.String())
	}
	slices.Sort(lines[1:])

	hasher := xxhash.New()
	for _, line := range lines {
		_, _ = hasher.WriteString(line)
		_, _ = hasher.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", hasher.Sum64())
}

// Request returns the dependency request for the given package name,
// or false if the manifest does not declare it.
func (m *Manifest) Request(name string) (DependencyRequest, bool) {
	for _, dep := range m.Dependencies {
		if dep.Name.String() == name {
			return dep, true
		}
	}
	return DependencyRequest{}, false
}

// satisfies reports whether a pinned version satisfies the constraint.
// Supported forms: empty (any), "==X" (exact), bare "X" (exact).
func (d DependencyRequest) satisfies(version string) bool {
	c := d.Constraint.String()
	if c == "" {
		return true
	}
	c = strings.TrimPrefix(c, "==")
	return c == version
}
