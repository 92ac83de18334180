package main

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratabuild/strata/internal/core/domain"
)

func writeTestArtifact(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for entry, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     entry,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
	return digest.FromBytes(buf.Bytes()).String()
}

func setupContext(t *testing.T, repoDir string) string {
	t.Helper()
	contextDir := t.TempDir()

	artifactDigest := writeTestArtifact(t, repoDir, "flask-3.0.0.tar.gz", map[string]string{
		"lib/flask/__init__.py": "version = '3.0.0'\n",
	})

	buildfile := strings.Join([]string{
		"version: \"1\"",
		"base: scratch",
		"identity:",
		"  user: app",
		"  uid: 1000",
		"  group: app",
		"  gid: 1000",
		"entrypoint:",
		"  command: [gunicorn, app.wsgi]",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(contextDir, "strata.yaml"), []byte(buildfile), 0o644))

	manifest := strings.Join([]string{
		"project:",
		"  name: webshop",
		"  version: 1.0.0",
		"dependencies:",
		"  - name: flask",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(contextDir, "deps.yaml"), []byte(manifest), 0o644))

	m := &domain.Manifest{
		Project: domain.Project{
			Name:    domain.NewInternedString("webshop"),
			Version: domain.NewInternedString("1.0.0"),
		},
		Dependencies: []domain.DependencyRequest{
			{Name: domain.NewInternedString("flask")},
		},
	}
	lock := strings.Join([]string{
		"version: 1",
		"manifestDigest: " + m.CanonicalDigest(),
		"packages:",
		"  flask:",
		"    name: flask",
		"    version: 3.0.0",
		"    artifact: flask-3.0.0.tar.gz",
		"    digest: " + artifactDigest,
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(contextDir, "deps.lock.yaml"), []byte(lock), 0o644))

	require.NoError(t, os.MkdirAll(filepath.Join(contextDir, "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(contextDir, "app", "main.py"), []byte("print('hello')\n"), 0o644))

	return contextDir
}

func TestRun(t *testing.T) {
	repoDir := t.TempDir()
	stateDir := t.TempDir()
	t.Setenv("STRATA_REPOSITORIES", repoDir)
	t.Setenv("STRATA_STATE_DIR", stateDir)
	t.Setenv("STRATA_LOG_LEVEL", "error")

	contextDir := setupContext(t, repoDir)

	exitCode := run([]string{"build", contextDir})
	require.Equal(t, 0, exitCode)

	layout := filepath.Join(contextDir, "image")
	assert.FileExists(t, filepath.Join(layout, "index.json"))
	assert.FileExists(t, filepath.Join(layout, "oci-layout"))
	assert.DirExists(t, filepath.Join(layout, "blobs", "sha256"))
}

func TestRunMissingBuildfile(t *testing.T) {
	t.Setenv("STRATA_REPOSITORIES", t.TempDir())
	t.Setenv("STRATA_STATE_DIR", t.TempDir())
	t.Setenv("STRATA_LOG_LEVEL", "error")

	exitCode := run([]string{"build", t.TempDir()})
	assert.Equal(t, 1, exitCode)
}
