package domain_test

import (
	"errors"
	"testing"

	"github.com/stratabuild/strata/internal/core/domain"
)

func appIdentity() domain.Identity {
	return domain.Identity{User: "appuser", UID: 1000, Group: "appgroup", GID: 1000}
}

func TestIdentity_Validate(t *testing.T) {
	if err := appIdentity().Validate(); err != nil {
		t.Fatalf("expected valid identity, got %v", err)
	}
}

func TestIdentity_Validate_RejectsRoot(t *testing.T) {
	id := domain.Identity{User: "root", UID: 0, Group: "root", GID: 0}
	if err := id.Validate(); !errors.Is(err, domain.ErrRootIdentity) {
		t.Fatalf("expected ErrRootIdentity, got %v", err)
	}
}

func TestIdentity_Validate_RejectsUnnamed(t *testing.T) {
	id := domain.Identity{UID: 1000, GID: 1000}
	if err := id.Validate(); !errors.Is(err, domain.ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
}

func TestIdentity_ConflictsWith(t *testing.T) {
	users := []domain.PasswdEntry{{Name: "daemon", UID: 1}}
	groups := []domain.GroupEntry{{Name: "daemon", GID: 1}}

	if err := appIdentity().ConflictsWith(users, groups); err != nil {
		t.Fatalf("expected no conflict, got %v", err)
	}

	byName := domain.Identity{User: "daemon", UID: 1000, Group: "appgroup", GID: 1000}
	if err := byName.ConflictsWith(users, groups); !errors.Is(err, domain.ErrIdentityExists) {
		t.Fatalf("expected name conflict, got %v", err)
	}

	byUID := domain.Identity{User: "appuser", UID: 1, Group: "appgroup", GID: 1000}
	if err := byUID.ConflictsWith(users, groups); !errors.Is(err, domain.ErrIdentityExists) {
		t.Fatalf("expected uid conflict, got %v", err)
	}

	byGID := domain.Identity{User: "appuser", UID: 1000, Group: "appgroup", GID: 1}
	if err := byGID.ConflictsWith(users, groups); !errors.Is(err, domain.ErrIdentityExists) {
		t.Fatalf("expected gid conflict, got %v", err)
	}
}

func TestIdentity_Spec(t *testing.T) {
	if got := appIdentity().Spec(); got != "appuser:appgroup" {
		t.Errorf("unexpected spec %q", got)
	}
}
