package oci

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/opencontainers/go-digest"
	specs "github.com/opencontainers/image-spec/specs-go"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"go.trai.ch/zerr"

	"github.com/stratabuild/strata/internal/core/domain"
	"github.com/stratabuild/strata/internal/core/ports"
)

var _ ports.ImageWriter = (*Writer)(nil)

// Writer serializes a finished build into an OCI image layout directory,
// carrying base layer blobs over from the base layout and build layer blobs
// out of the layer store.
type Writer struct {
	store ports.LayerStore
}

// NewWriter creates a Writer backed by the given layer store.
func NewWriter(store ports.LayerStore) *Writer {
	return &Writer{store: store}
}

// Write emits img as an OCI image layout rooted at dir.
func (w *Writer) Write(ctx context.Context, dir string, img *domain.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	blobDir := filepath.Join(dir, "blobs", digest.Canonical.String())
	if err := os.MkdirAll(blobDir, 0o755); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create output layout"), "dir", dir)
	}

	if err := w.copyLayers(dir, img); err != nil {
		return err
	}

	configDesc, err := writeJSONBlob(dir, v1.MediaTypeImageConfig, buildConfig(img))
	if err != nil {
		return err
	}

	manifest := v1.Manifest{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: v1.MediaTypeImageManifest,
		Config:    configDesc,
	}
	for _, layer := range img.AllLayers() {
		manifest.Layers = append(manifest.Layers, v1.Descriptor{
			MediaType: layer.MediaType,
			Digest:    layer.Digest,
			Size:      layer.Size,
		})
	}
	manifestDesc, err := writeJSONBlob(dir, v1.MediaTypeImageManifest, manifest)
	if err != nil {
		return err
	}

	index := v1.Index{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: v1.MediaTypeImageIndex,
		Manifests: []v1.Descriptor{manifestDesc},
	}
	if err := writeJSONFile(filepath.Join(dir, "index.json"), index); err != nil {
		return err
	}
	layout := v1.ImageLayout{Version: v1.ImageLayoutVersion}
	return writeJSONFile(filepath.Join(dir, v1.ImageLayoutFile), layout)
}

// copyLayers places every layer blob into the output layout: base layers are
// copied from the base's layout directory, build layers are streamed out of
// the layer store.
func (w *Writer) copyLayers(dir string, img *domain.Image) error {
	for _, layer := range img.Base.Layers {
		src := BlobPath(img.Base.LayoutPath, layer.Digest)
		if err := copyBlob(src, BlobPath(dir, layer.Digest)); err != nil {
			return err
		}
	}
	for _, layer := range img.Layers {
		blob, err := w.store.Blob(layer.Digest)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to open build layer"), "digest", layer.Digest.String())
		}
		err = writeBlobFrom(blob, BlobPath(dir, layer.Digest))
		if cerr := blob.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to copy build layer"), "digest", layer.Digest.String())
		}
	}
	return nil
}

// buildConfig assembles the image config: runtime defaults from the build
// plus one history line per step, with an extra line per base layer so the
// non-empty history entries line up with the rootfs diff ids.
func buildConfig(img *domain.Image) v1.Image {
	created := img.Created
	config := v1.Image{
		Created: &created,
		Platform: v1.Platform{
			Architecture: runtime.GOARCH,
			OS:           "linux",
		},
		Config: v1.ImageConfig{
			User:       img.User,
			Env:        img.Env,
			Cmd:        img.Cmd,
			WorkingDir: img.WorkingDir,
		},
		RootFS: v1.RootFS{Type: "layers"},
	}
	if len(img.ExposedPorts) > 0 {
		config.Config.ExposedPorts = make(map[string]struct{}, len(img.ExposedPorts))
		for _, port := range img.ExposedPorts {
			config.Config.ExposedPorts[port] = struct{}{}
		}
	}
	for _, layer := range img.AllLayers() {
		config.RootFS.DiffIDs = append(config.RootFS.DiffIDs, layer.DiffID)
	}
	for range img.Base.Layers {
		config.History = append(config.History, v1.History{
			Created:   &created,
			CreatedBy: "base " + img.Base.Ref,
		})
	}
	for _, entry := range img.History {
		config.History = append(config.History, v1.History{
			Created:    &created,
			CreatedBy:  entry.CreatedBy,
			EmptyLayer: entry.EmptyLayer,
		})
	}
	return config
}

// writeJSONBlob stores v as a canonical-digest-addressed blob and returns its
// descriptor.
func writeJSONBlob(dir, mediaType string, v any) (v1.Descriptor, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return v1.Descriptor{}, zerr.Wrap(err, "failed to encode image blob")
	}
	d := digest.FromBytes(raw)
	if err := os.WriteFile(BlobPath(dir, d), raw, 0o644); err != nil { //nolint:gosec // Layout blobs are world-readable
		return v1.Descriptor{}, zerr.With(zerr.Wrap(err, "failed to write image blob"), "digest", d.String())
	}
	return v1.Descriptor{
		MediaType: mediaType,
		Digest:    d,
		Size:      int64(len(raw)),
	}, nil
}

func writeJSONFile(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return zerr.Wrap(err, "failed to encode layout file")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil { //nolint:gosec // Layout files are world-readable
		return zerr.With(zerr.Wrap(err, "failed to write layout file"), "path", path)
	}
	return nil
}

func copyBlob(src, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	in, err := os.Open(src) //nolint:gosec // Path derived from a parsed digest
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open base blob"), "path", src)
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer
	return writeBlobFrom(in, dest)
}

func writeBlobFrom(r io.Reader, dest string) error {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //nolint:gosec // Layout blobs are world-readable
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create blob"), "path", dest)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return zerr.With(zerr.Wrap(err, "failed to write blob"), "path", dest)
	}
	return out.Close()
}
