package domain

// DependencyRequest represents a project's intent to depend on a package.
// This is the input representation before resolution (e.g., from deps.yaml).
type DependencyRequest struct {
	// Name is the package name as requested (e.g., "flask", "gunicorn").
	Name InternedString

	// Constraint is the requested version constraint. An empty constraint accepts
	// any pinned version; "==1.2.3" requires an exact pin.
	Constraint InternedString
}
