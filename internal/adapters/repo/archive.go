package repo

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.trai.ch/zerr"
)

// Unpack extracts a gzip-compressed tar artifact into dest. Entries escaping
// dest are rejected.
func (f *Fetcher) Unpack(artifact, dest string) error {
	file, err := os.Open(artifact) //nolint:gosec // Path produced by Fetch
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open artifact"), "path", artifact)
	}
	defer file.Close() //nolint:errcheck // Best effort close in defer

	gz, err := gzip.NewReader(file)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "artifact is not gzip compressed"), "path", artifact)
	}
	defer gz.Close() //nolint:errcheck // Best effort close in defer

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read artifact entry"), "path", artifact)
		}

		if err := extractEntry(tr, hdr, dest); err != nil {
			return zerr.With(err, "artifact", artifact)
		}
	}
}

func extractEntry(tr *tar.Reader, hdr *tar.Header, dest string) error {
	name := filepath.Clean(hdr.Name)
	if name == ".." || strings.HasPrefix(name, ".."+string(os.PathSeparator)) || filepath.IsAbs(name) {
		return zerr.With(zerr.New("artifact entry escapes destination"), "entry", hdr.Name)
	}
	target := filepath.Join(dest, name)

	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, fileMode(hdr, 0o755))
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return zerr.Wrap(err, "failed to create entry directory")
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode(hdr, 0o644)) //nolint:gosec // Target is confined to dest
		if err != nil {
			return zerr.Wrap(err, "failed to create entry file")
		}
		if _, err := io.Copy(out, tr); err != nil { //nolint:gosec // Size bounded by artifact contents
			_ = out.Close()
			return zerr.With(zerr.Wrap(err, "failed to extract entry"), "entry", hdr.Name)
		}
		return out.Close()
	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return zerr.Wrap(err, "failed to create entry directory")
		}
		return os.Symlink(hdr.Linkname, target)
	default:
		// Device and fifo entries have no place in package artifacts.
		return zerr.With(zerr.New("unsupported artifact entry type"), "entry", hdr.Name)
	}
}

func fileMode(hdr *tar.Header, def os.FileMode) os.FileMode {
	if hdr.Mode == 0 {
		return def
	}
	return os.FileMode(hdr.Mode).Perm() //nolint:gosec // Mode truncated to permission bits
}
