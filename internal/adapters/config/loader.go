// Package config provides the buildfile loader for strata.
package config

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/stratabuild/strata/internal/core/domain"
	"github.com/stratabuild/strata/internal/core/ports"
)

// DefaultFilename is the buildfile name looked up in the context directory.
const DefaultFilename = "strata.yaml"

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader over a YAML buildfile.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Buildfile is the on-disk structure of strata.yaml.
type Buildfile struct {
	Version    string                  `yaml:"version"`
	Base       string                  `yaml:"base"`
	WorkDir    string                  `yaml:"workdir"`
	EnvDir     string                  `yaml:"envdir"`
	Manifest   string                  `yaml:"manifest"`
	Lockfile   string                  `yaml:"lockfile"`
	Precompile bool                    `yaml:"precompile"`
	Ignore     []string                `yaml:"ignore"`
	Env        map[string]string       `yaml:"env"`
	Tooling    []domain.ToolingPackage `yaml:"tooling"`
	Identity   domain.Identity         `yaml:"identity"`
	Entrypoint domain.EntrypointSpec   `yaml:"entrypoint"`
	Output     string                  `yaml:"output"`
}

// Load reads the named buildfile from the context directory and returns the
// validated plan. Unset fields receive conventional defaults before
// validation.
func (l *Loader) Load(contextDir, filename string) (*domain.Plan, error) {
	if filename == "" {
		filename = DefaultFilename
	}
	path := filepath.Join(contextDir, filename)

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read buildfile"), "path", path)
	}

	var bf Buildfile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse buildfile"), "path", path)
	}

	plan := &domain.Plan{
		ContextDir:   contextDir,
		Base:         bf.Base,
		WorkDir:      withDefault(bf.WorkDir, "/app"),
		EnvDir:       withDefault(bf.EnvDir, "/opt/venv"),
		Tooling:      bf.Tooling,
		Identity:     bf.Identity,
		ManifestPath: withDefault(bf.Manifest, "deps.yaml"),
		LockfilePath: withDefault(bf.Lockfile, "deps.lock.yaml"),
		Ignores:      bf.Ignore,
		Precompile:   bf.Precompile,
		Env:          bf.Env,
		Entrypoint:   bf.Entrypoint,
		Output:       withDefault(bf.Output, "image"),
	}
	if plan.Entrypoint.Bind == "" {
		plan.Entrypoint.Bind = domain.DefaultBind
	}

	// The buildfile, the output layout, and the state directory never belong
	// to the application source.
	for _, extra := range []string{filename, plan.Output, ".strata"} {
		if !slices.Contains(plan.Ignores, extra) {
			plan.Ignores = append(plan.Ignores, extra)
		}
	}

	if err := plan.Validate(); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return plan, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
