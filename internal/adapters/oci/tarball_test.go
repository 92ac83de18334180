package oci

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratabuild/strata/internal/core/domain"
)

func stageTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestWriteLayerDeterministic(t *testing.T) {
	files := map[string]string{
		"app/main.py":     "print('hi')\n",
		"app/pkg/mod.py":  "pass\n",
		"etc/profile.env": "PATH=/opt/venv/bin\n",
	}

	var first, second bytes.Buffer
	firstID, err := WriteLayer(&first, stageTree(t, files), nil)
	require.NoError(t, err)
	secondID, err := WriteLayer(&second, stageTree(t, files), nil)
	require.NoError(t, err)

	assert.Equal(t, firstID, secondID)
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestWriteLayerOwnerChangesBytes(t *testing.T) {
	files := map[string]string{"app/main.py": "print('hi')\n"}
	owner := &domain.Identity{User: "app", UID: 1000, Group: "app", GID: 1000}

	var unowned, owned bytes.Buffer
	unownedID, err := WriteLayer(&unowned, stageTree(t, files), nil)
	require.NoError(t, err)
	ownedID, err := WriteLayer(&owned, stageTree(t, files), owner)
	require.NoError(t, err)

	assert.NotEqual(t, unownedID, ownedID)
}

func TestWriteLayerEntries(t *testing.T) {
	root := stageTree(t, map[string]string{
		"app/main.py": "print('hi')\n",
	})
	owner := &domain.Identity{User: "app", UID: 1000, Group: "app", GID: 1000}

	var buf bytes.Buffer
	_, err := WriteLayer(&buf, root, owner)
	require.NoError(t, err)

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
		assert.Equal(t, layerEpoch, hdr.ModTime.UTC())
		assert.Equal(t, 1000, hdr.Uid)
		assert.Equal(t, 1000, hdr.Gid)
	}
	assert.Equal(t, []string{"app/", "app/main.py"}, names)
}
