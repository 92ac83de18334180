package oci

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/opencontainers/go-digest"
	"go.trai.ch/zerr"

	"github.com/stratabuild/strata/internal/core/domain"
)

// layerEpoch is the fixed timestamp stamped on every layer entry. Wall-clock
// mtimes would change the tar bytes between otherwise identical builds and
// defeat content addressing.
var layerEpoch = time.Unix(0, 0).UTC()

// WriteLayer serializes the staging tree rooted at root into a deterministic
// gzip-compressed tar stream on w and returns the diff ID of the uncompressed
// stream. Entries are emitted in sorted path order with the fixed epoch
// timestamp. When owner is non-nil every entry is stamped with its numeric
// uid and gid, so identity is part of the serialized bytes and thus of the
// layer's content address.
func WriteLayer(w io.Writer, root string, owner *domain.Identity) (digest.Digest, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to walk staging tree"), "root", root)
	}
	sort.Strings(paths)

	digester := digest.Canonical.Digester()
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(io.MultiWriter(gz, digester.Hash()))

	for _, path := range paths {
		if err := writeEntry(tw, root, path, owner); err != nil {
			return "", err
		}
	}

	if err := tw.Close(); err != nil {
		return "", zerr.Wrap(err, "failed to finalize layer tar")
	}
	if err := gz.Close(); err != nil {
		return "", zerr.Wrap(err, "failed to finalize layer compression")
	}
	return digester.Digest(), nil
}

func writeEntry(tw *tar.Writer, root, path string, owner *domain.Identity) error {
	info, err := os.Lstat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat staging entry"), "path", path)
	}

	var link string
	if info.Mode()&os.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read staging symlink"), "path", path)
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to build layer entry header"), "path", path)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return zerr.Wrap(err, "failed to relativize staging entry")
	}
	hdr.Name = filepath.ToSlash(rel)
	if info.IsDir() && !strings.HasSuffix(hdr.Name, "/") {
		hdr.Name += "/"
	}

	hdr.ModTime = layerEpoch
	hdr.AccessTime = time.Time{}
	hdr.ChangeTime = time.Time{}
	hdr.Uname = ""
	hdr.Gname = ""
	if owner != nil {
		hdr.Uid = owner.UID
		hdr.Gid = owner.GID
	} else {
		hdr.Uid = 0
		hdr.Gid = 0
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write layer entry header"), "path", path)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	file, err := os.Open(path) //nolint:gosec // Path produced by walking the staging tree
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open staging entry"), "path", path)
	}
	defer file.Close() //nolint:errcheck // Best effort close in defer

	if _, err := io.Copy(tw, file); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write layer entry"), "path", path)
	}
	return nil
}
