package domain_test

import (
	"testing"

	"github.com/stratabuild/strata/internal/core/domain"
)

func dep(name, constraint string) domain.DependencyRequest {
	return domain.DependencyRequest{
		Name:       domain.NewInternedString(name),
		Constraint: domain.NewInternedString(constraint),
	}
}

func manifest(deps ...domain.DependencyRequest) *domain.Manifest {
	return &domain.Manifest{
		Project: domain.Project{
			Name:    domain.NewInternedString("webapp"),
			Version: domain.NewInternedString("1.0.0"),
		},
		Dependencies: deps,
	}
}

func TestManifest_CanonicalDigest_Deterministic(t *testing.T) {
	m1 := manifest(dep("flask", "==3.0.2"), dep("gunicorn", ""))
	m2 := manifest(dep("gunicorn", ""), dep("flask", "==3.0.2"))

	if m1.CanonicalDigest() != m2.CanonicalDigest() {
		t.Errorf("digest should not depend on declaration order: %q vs %q",
			m1.CanonicalDigest(), m2.CanonicalDigest())
	}
}

func TestManifest_CanonicalDigest_ChangesWithConstraint(t *testing.T) {
	m1 := manifest(dep("flask", "==3.0.2"))
	m2 := manifest(dep("flask", "==3.0.3"))

	if m1.CanonicalDigest() == m2.CanonicalDigest() {
		t.Error("digest should change when a constraint changes")
	}
}

func TestManifest_Request(t *testing.T) {
	m := manifest(dep("flask", "==3.0.2"))

	got, ok := m.Request("flask")
	if !ok {
		t.Fatal("expected flask to be declared")
	}
	if got.Constraint.String() != "==3.0.2" {
		t.Errorf("unexpected constraint %q", got.Constraint.String())
	}

	if _, ok := m.Request("django"); ok {
		t.Error("expected django to be undeclared")
	}
}
