package cas_test

import (
	"io"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/stratabuild/strata/internal/adapters/cas"
)

func TestStore_CommitAndStat(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	blob := "compressed layer bytes"
	diffID := digest.FromString("uncompressed layer bytes")

	layer, err := store.Commit("deps:abc", strings.NewReader(blob), diffID, v1.MediaTypeImageLayerGzip)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if layer.Digest != digest.FromString(blob) {
		t.Errorf("unexpected blob digest %s", layer.Digest)
	}
	if layer.DiffID != diffID {
		t.Errorf("unexpected diff id %s", layer.DiffID)
	}
	if layer.Size != int64(len(blob)) {
		t.Errorf("unexpected size %d", layer.Size)
	}

	got, err := store.Stat("deps:abc")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if got == nil {
		t.Fatal("Stat returned nil for committed key")
	}
	if got.Digest != layer.Digest {
		t.Errorf("expected digest %s, got %s", layer.Digest, got.Digest)
	}
}

func TestStore_Stat_Miss(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	got, err := store.Stat("unknown")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown key, got %+v", got)
	}
}

func TestStore_Persistence(t *testing.T) {
	dir := t.TempDir()

	store1, err := cas.NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore 1 failed: %v", err)
	}

	diffID := digest.FromString("tar")
	if _, err := store1.Commit("source:xyz", strings.NewReader("gzip"), diffID, v1.MediaTypeImageLayerGzip); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// A fresh instance over the same directory sees the committed layer.
	store2, err := cas.NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore 2 failed: %v", err)
	}

	got, err := store2.Stat("source:xyz")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected layer to survive reload")
	}
	if got.DiffID != diffID {
		t.Errorf("expected diff id %s, got %s", diffID, got.DiffID)
	}
}

func TestStore_Blob(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	layer, err := store.Commit("tooling:k", strings.NewReader("blob body"), digest.FromString("diff"), v1.MediaTypeImageLayerGzip)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	rc, err := store.Blob(layer.Digest)
	if err != nil {
		t.Fatalf("Blob failed: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "blob body" {
		t.Errorf("unexpected blob contents %q", data)
	}
}
