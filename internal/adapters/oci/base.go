// Package oci reads and writes OCI image layouts and the deterministic layer
// tarballs the build appends to them.
package oci

import (
	"archive/tar"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/opencontainers/go-digest"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"go.trai.ch/zerr"

	"github.com/stratabuild/strata/internal/core/domain"
	"github.com/stratabuild/strata/internal/core/ports"
)

// ScratchRef names the empty base image.
const ScratchRef = domain.ScratchRef

var _ ports.BaseResolver = (*BaseResolver)(nil)

// BaseResolver reads base images out of OCI image layout directories.
type BaseResolver struct{}

// NewBaseResolver creates a BaseResolver.
func NewBaseResolver() *BaseResolver {
	return &BaseResolver{}
}

// Resolve reads the base image named by ref. "scratch" resolves to the empty
// image; any other ref is treated as a path to an OCI image layout directory.
func (r *BaseResolver) Resolve(ctx context.Context, ref string) (*domain.BaseImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ref == ScratchRef {
		return &domain.BaseImage{Ref: ScratchRef}, nil
	}

	manifestDesc, err := readIndex(ref)
	if err != nil {
		return nil, err
	}

	var manifest v1.Manifest
	if err := readBlob(ref, manifestDesc.Digest, &manifest); err != nil {
		return nil, err
	}
	var config v1.Image
	if err := readBlob(ref, manifest.Config.Digest, &config); err != nil {
		return nil, err
	}
	if len(manifest.Layers) != len(config.RootFS.DiffIDs) {
		err := zerr.New("base image layer and diff id counts differ")
		return nil, zerr.With(err, "layout", ref)
	}

	base := &domain.BaseImage{
		Ref:        ref,
		LayoutPath: ref,
		Digest:     manifestDesc.Digest,
		Env:        config.Config.Env,
		WorkingDir: config.Config.WorkingDir,
		User:       config.Config.User,
	}
	for i, desc := range manifest.Layers {
		base.Layers = append(base.Layers, domain.Layer{
			MediaType: desc.MediaType,
			Digest:    desc.Digest,
			DiffID:    config.RootFS.DiffIDs[i],
			Size:      desc.Size,
		})
	}

	if err := r.readAccounts(base); err != nil {
		return nil, err
	}
	return base, nil
}

// readIndex returns the first manifest descriptor of the layout's index.
func readIndex(layout string) (v1.Descriptor, error) {
	raw, err := os.ReadFile(filepath.Join(layout, "index.json")) //nolint:gosec // Layout path comes from the build plan
	if err != nil {
		return v1.Descriptor{}, zerr.With(zerr.Wrap(err, "failed to read image index"), "layout", layout)
	}
	var index v1.Index
	if err := json.Unmarshal(raw, &index); err != nil {
		return v1.Descriptor{}, zerr.With(zerr.Wrap(err, "failed to parse image index"), "layout", layout)
	}
	if len(index.Manifests) == 0 {
		return v1.Descriptor{}, zerr.With(zerr.New("image index holds no manifests"), "layout", layout)
	}
	return index.Manifests[0], nil
}

// readBlob parses the JSON blob addressed by d into out.
func readBlob(layout string, d digest.Digest, out any) error {
	raw, err := os.ReadFile(BlobPath(layout, d)) //nolint:gosec // Path derived from a parsed digest
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read image blob"), "digest", d.String())
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to parse image blob"), "digest", d.String())
	}
	return nil
}

// BlobPath returns the filesystem path of the blob addressed by d inside an
// OCI image layout directory.
func BlobPath(layout string, d digest.Digest) string {
	return filepath.Join(layout, "blobs", d.Algorithm().String(), d.Encoded())
}

// readAccounts scans the base layer stack for /etc/passwd and /etc/group and
// fills in the account tables. Layers are applied in stack order, so a later
// layer's copy of either file replaces the earlier one.
func (r *BaseResolver) readAccounts(base *domain.BaseImage) error {
	for _, layer := range base.Layers {
		if err := scanLayerAccounts(base, layer); err != nil {
			return err
		}
	}
	return nil
}

func scanLayerAccounts(base *domain.BaseImage, layer domain.Layer) error {
	file, err := os.Open(BlobPath(base.LayoutPath, layer.Digest)) //nolint:gosec // Path derived from a parsed digest
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open base layer"), "digest", layer.Digest.String())
	}
	defer file.Close() //nolint:errcheck // Best effort close in defer

	gz, err := gzip.NewReader(file)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "base layer is not gzip compressed"), "digest", layer.Digest.String())
	}
	defer gz.Close() //nolint:errcheck // Best effort close in defer

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read base layer entry"), "digest", layer.Digest.String())
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		switch filepath.Clean(hdr.Name) {
		case "etc/passwd":
			users, err := domain.ParsePasswd(tr)
			if err != nil {
				return zerr.Wrap(err, "failed to parse base passwd table")
			}
			base.Users = users
		case "etc/group":
			groups, err := domain.ParseGroup(tr)
			if err != nil {
				return zerr.Wrap(err, "failed to parse base group table")
			}
			base.Groups = groups
		}
	}
}
