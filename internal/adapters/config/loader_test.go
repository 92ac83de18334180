package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratabuild/strata/internal/adapters/config"
	"github.com/stratabuild/strata/internal/core/domain"
)

const buildfileYAML = `version: "1"
base: ./base
workdir: /app
envdir: /opt/venv
manifest: deps.yaml
lockfile: deps.lock.yaml
precompile: true
identity:
  user: appuser
  uid: 1000
  group: appgroup
  gid: 1000
entrypoint:
  command: ["gunicorn", "config.wsgi"]
  bind: "0.0.0.0:8000"
output: image
`

func writeBuildfile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFilename), []byte(content), 0o644))
	return dir
}

func TestLoader_Load(t *testing.T) {
	dir := writeBuildfile(t, buildfileYAML)

	plan, err := config.NewLoader().Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, dir, plan.ContextDir)
	assert.Equal(t, "./base", plan.Base)
	assert.Equal(t, "/app", plan.WorkDir)
	assert.Equal(t, "/opt/venv", plan.EnvDir)
	assert.True(t, plan.Precompile)
	assert.Equal(t, "appuser", plan.Identity.User)
	assert.Equal(t, []string{"gunicorn", "config.wsgi", "0.0.0.0:8000"}, plan.Entrypoint.Cmd())
}

func TestLoader_Load_Defaults(t *testing.T) {
	dir := writeBuildfile(t, `base: scratch
identity:
  user: appuser
  uid: 1000
  group: appgroup
  gid: 1000
entrypoint:
  command: ["serve"]
`)

	plan, err := config.NewLoader().Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "/app", plan.WorkDir)
	assert.Equal(t, "/opt/venv", plan.EnvDir)
	assert.Equal(t, "deps.yaml", plan.ManifestPath)
	assert.Equal(t, "deps.lock.yaml", plan.LockfilePath)
	assert.Equal(t, domain.DefaultBind, plan.Entrypoint.Bind)
	assert.Equal(t, "image", plan.Output)

	port, err := plan.Entrypoint.Port()
	require.NoError(t, err)
	assert.Equal(t, 8000, port)
}

func TestLoader_Load_SelfIgnores(t *testing.T) {
	dir := writeBuildfile(t, buildfileYAML)

	plan, err := config.NewLoader().Load(dir, "")
	require.NoError(t, err)

	assert.Contains(t, plan.Ignores, config.DefaultFilename)
	assert.Contains(t, plan.Ignores, "image")
	assert.Contains(t, plan.Ignores, ".strata")
}

func TestLoader_Load_RootIdentityRejected(t *testing.T) {
	dir := writeBuildfile(t, `base: scratch
identity:
  user: root
  uid: 0
  group: root
  gid: 0
entrypoint:
  command: ["serve"]
`)

	_, err := config.NewLoader().Load(dir, "")
	assert.True(t, errors.Is(err, domain.ErrRootIdentity), "expected ErrRootIdentity, got %v", err)
}

func TestLoader_Load_MissingFile(t *testing.T) {
	_, err := config.NewLoader().Load(t.TempDir(), "")
	assert.Error(t, err)
}
