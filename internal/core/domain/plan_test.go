package domain_test

import (
	"errors"
	"testing"

	"github.com/stratabuild/strata/internal/core/domain"
)

func validPlan() *domain.Plan {
	return &domain.Plan{
		ContextDir:   ".",
		Base:         "scratch",
		WorkDir:      "/app",
		EnvDir:       "/opt/venv",
		Identity:     appIdentity(),
		ManifestPath: "deps.yaml",
		LockfilePath: "deps.lock.yaml",
		Entrypoint: domain.EntrypointSpec{
			Command: []string{"serve"},
			Bind:    "0.0.0.0:8000",
		},
		Output: "image",
	}
}

func TestPlan_Validate(t *testing.T) {
	if err := validPlan().Validate(); err != nil {
		t.Fatalf("expected valid plan, got %v", err)
	}
}

func TestPlan_Validate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Plan)
	}{
		{"no base", func(p *domain.Plan) { p.Base = "" }},
		{"relative workdir", func(p *domain.Plan) { p.WorkDir = "app" }},
		{"relative envdir", func(p *domain.Plan) { p.EnvDir = "opt/venv" }},
		{"envdir inside workdir", func(p *domain.Plan) { p.EnvDir = "/app/venv" }},
		{"workdir inside envdir", func(p *domain.Plan) { p.WorkDir = "/opt/venv/app" }},
		{"no manifest", func(p *domain.Plan) { p.ManifestPath = "" }},
		{"no lockfile", func(p *domain.Plan) { p.LockfilePath = "" }},
		{"no entrypoint", func(p *domain.Plan) { p.Entrypoint.Command = nil }},
		{"bad bind", func(p *domain.Plan) { p.Entrypoint.Bind = "nonsense" }},
		{"no output", func(p *domain.Plan) { p.Output = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlan()
			tt.mutate(p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPlan_Validate_RootIdentity(t *testing.T) {
	p := validPlan()
	p.Identity.UID = 0
	if err := p.Validate(); !errors.Is(err, domain.ErrRootIdentity) {
		t.Fatalf("expected ErrRootIdentity, got %v", err)
	}
}

func TestEntrypointSpec_Cmd(t *testing.T) {
	e := domain.EntrypointSpec{Command: []string{"gunicorn", "app.wsgi"}, Bind: "0.0.0.0:8000"}
	cmd := e.Cmd()
	want := []string{"gunicorn", "app.wsgi", "0.0.0.0:8000"}
	if len(cmd) != len(want) {
		t.Fatalf("unexpected cmd %v", cmd)
	}
	for i := range want {
		if cmd[i] != want[i] {
			t.Fatalf("unexpected cmd %v", cmd)
		}
	}
}

func TestEntrypointSpec_Port(t *testing.T) {
	e := domain.EntrypointSpec{Bind: "0.0.0.0:8000"}
	port, err := e.Port()
	if err != nil {
		t.Fatalf("Port failed: %v", err)
	}
	if port != 8000 {
		t.Errorf("expected port 8000, got %d", port)
	}

	e.Bind = "0.0.0.0:http"
	if _, err := e.Port(); err == nil {
		t.Error("expected error for non-numeric port")
	}
}
