package oci

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	specs "github.com/opencontainers/image-spec/specs-go"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratabuild/strata/internal/adapters/cas"
	"github.com/stratabuild/strata/internal/core/domain"
)

// writeBaseLayout assembles a minimal single-layer OCI layout on disk and
// returns its directory.
func writeBaseLayout(t *testing.T) string {
	t.Helper()
	layout := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(layout, "blobs", "sha256"), 0o755))

	staging := stageTree(t, map[string]string{
		"etc/passwd": "root:x:0:0:root:/root:/bin/bash\nwww-data:x:33:33::/var/www:/usr/sbin/nologin\n",
		"etc/group":  "root:x:0:\nwww-data:x:33:\n",
		"bin/python": "#!/bin/fake\n",
	})
	var blob bytes.Buffer
	diffID, err := WriteLayer(&blob, staging, nil)
	require.NoError(t, err)
	layerDigest := digest.FromBytes(blob.Bytes())
	require.NoError(t, os.WriteFile(BlobPath(layout, layerDigest), blob.Bytes(), 0o644))

	config := v1.Image{
		Platform: v1.Platform{Architecture: "amd64", OS: "linux"},
		Config: v1.ImageConfig{
			User:       "root",
			Env:        []string{"PATH=/usr/local/bin:/usr/bin"},
			WorkingDir: "/",
		},
		RootFS: v1.RootFS{Type: "layers", DiffIDs: []digest.Digest{diffID}},
	}
	configRaw, err := json.Marshal(config)
	require.NoError(t, err)
	configDigest := digest.FromBytes(configRaw)
	require.NoError(t, os.WriteFile(BlobPath(layout, configDigest), configRaw, 0o644))

	manifest := v1.Manifest{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: v1.MediaTypeImageManifest,
		Config: v1.Descriptor{
			MediaType: v1.MediaTypeImageConfig,
			Digest:    configDigest,
			Size:      int64(len(configRaw)),
		},
		Layers: []v1.Descriptor{{
			MediaType: v1.MediaTypeImageLayerGzip,
			Digest:    layerDigest,
			Size:      int64(blob.Len()),
		}},
	}
	manifestRaw, err := json.Marshal(manifest)
	require.NoError(t, err)
	manifestDigest := digest.FromBytes(manifestRaw)
	require.NoError(t, os.WriteFile(BlobPath(layout, manifestDigest), manifestRaw, 0o644))

	index := v1.Index{
		Versioned: specs.Versioned{SchemaVersion: 2},
		Manifests: []v1.Descriptor{{
			MediaType: v1.MediaTypeImageManifest,
			Digest:    manifestDigest,
			Size:      int64(len(manifestRaw)),
		}},
	}
	indexRaw, err := json.Marshal(index)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(layout, "index.json"), indexRaw, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(layout, v1.ImageLayoutFile), []byte(`{"imageLayoutVersion":"1.0.0"}`), 0o644))

	return layout
}

func TestResolveScratch(t *testing.T) {
	base, err := NewBaseResolver().Resolve(context.Background(), ScratchRef)
	require.NoError(t, err)
	assert.True(t, base.Scratch())
	assert.Empty(t, base.Layers)
}

func TestResolveLayout(t *testing.T) {
	layout := writeBaseLayout(t)

	base, err := NewBaseResolver().Resolve(context.Background(), layout)
	require.NoError(t, err)

	assert.False(t, base.Scratch())
	assert.Equal(t, layout, base.LayoutPath)
	assert.NotEmpty(t, base.Digest)
	require.Len(t, base.Layers, 1)
	assert.Equal(t, []string{"PATH=/usr/local/bin:/usr/bin"}, base.Env)
	assert.Equal(t, "root", base.User)

	require.Len(t, base.Users, 2)
	assert.Equal(t, "www-data", base.Users[1].Name)
	assert.Equal(t, 33, base.Users[1].UID)
	require.Len(t, base.Groups, 2)
	assert.Equal(t, "www-data", base.Groups[1].Name)
}

func TestResolveMissingLayout(t *testing.T) {
	_, err := NewBaseResolver().Resolve(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestWriteRoundtrip(t *testing.T) {
	baseLayout := writeBaseLayout(t)
	base, err := NewBaseResolver().Resolve(context.Background(), baseLayout)
	require.NoError(t, err)

	store, err := cas.NewStore(t.TempDir())
	require.NoError(t, err)

	var blob bytes.Buffer
	staging := stageTree(t, map[string]string{"app/main.py": "print('hi')\n"})
	owner := &domain.Identity{User: "app", UID: 1000, Group: "app", GID: 1000}
	diffID, err := WriteLayer(&blob, staging, owner)
	require.NoError(t, err)
	layer, err := store.Commit("step.source", &blob, diffID, v1.MediaTypeImageLayerGzip)
	require.NoError(t, err)

	img := &domain.Image{
		Base:         base,
		Layers:       []domain.Layer{layer},
		Env:          append(base.Env, "VIRTUAL_ENV=/opt/venv"),
		User:         "app:app",
		WorkingDir:   "/app",
		Cmd:          []string{"serve", "0.0.0.0:8000"},
		ExposedPorts: []string{"8000/tcp"},
		History: []domain.HistoryEntry{
			{CreatedBy: "source", EmptyLayer: false},
			{CreatedBy: "entrypoint", EmptyLayer: true},
		},
		Created: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	out := filepath.Join(t.TempDir(), "image")
	require.NoError(t, NewWriter(store).Write(context.Background(), out, img))

	// The emitted layout must resolve back with the stacked layers and the
	// runtime identity intact.
	result, err := NewBaseResolver().Resolve(context.Background(), out)
	require.NoError(t, err)
	require.Len(t, result.Layers, 2)
	assert.Equal(t, base.Layers[0].Digest, result.Layers[0].Digest)
	assert.Equal(t, layer.Digest, result.Layers[1].Digest)
	assert.Equal(t, layer.DiffID, result.Layers[1].DiffID)
	assert.Equal(t, "app:app", result.User)
	assert.Contains(t, result.Env, "VIRTUAL_ENV=/opt/venv")

	var config v1.Image
	manifestDesc, err := readIndex(out)
	require.NoError(t, err)
	var manifest v1.Manifest
	require.NoError(t, readBlob(out, manifestDesc.Digest, &manifest))
	require.NoError(t, readBlob(out, manifest.Config.Digest, &config))
	assert.Contains(t, config.Config.ExposedPorts, "8000/tcp")
	assert.Equal(t, []string{"serve", "0.0.0.0:8000"}, config.Config.Cmd)
	require.Len(t, config.History, 3)
	assert.True(t, config.History[2].EmptyLayer)
}
