package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"github.com/stratabuild/strata/internal/core/domain"
	"github.com/stratabuild/strata/internal/core/ports"
)

// defaultPath is the executable search path assumed when the base image
// config does not carry one.
const defaultPath = "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

// nologinShell is the login shell assigned to the runtime identity.
const nologinShell = "/usr/sbin/nologin"

// stepBase resolves the base image. Its manifest digest participates in every
// layer key after this point, so rebuilding the base invalidates all of them.
func (p *Pipeline) stepBase(ctx context.Context, st *buildState) (bool, error) {
	ref := st.plan.Base
	if ref != domain.ScratchRef && !filepath.IsAbs(ref) {
		ref = filepath.Join(st.plan.ContextDir, ref)
	}

	base, err := p.deps.Resolver.Resolve(ctx, ref)
	if err != nil {
		return false, err
	}
	st.base = base
	st.env = slices.Clone(base.Env)
	st.workDir = base.WorkingDir
	st.record("base "+st.plan.Base, true)
	return false, nil
}

// stepTooling materializes the pinned OS utilities into a layer. Package
// index metadata is written under a cache path that is scrubbed before
// serialization so it never bloats the layer.
func (p *Pipeline) stepTooling(ctx context.Context, st *buildState) (bool, error) {
	if len(st.plan.Tooling) == 0 {
		st.record("tooling (none)", true)
		return false, nil
	}

	parts := []string{"tooling", st.base.Digest.String()}
	for _, tool := range st.plan.Tooling {
		parts = append(parts, tool.Name.String()+"@"+tool.Version.String()+":"+tool.Digest)
	}

	layer, cached, err := p.materializeLayer(st, layerKey(parts...), nil, func(staging string) error {
		indexDir := filepath.Join(staging, "var", "cache", "strata")
		if err := os.MkdirAll(indexDir, 0o755); err != nil {
			return zerr.Wrap(err, "failed to create tooling index directory")
		}

		vertex := ports.VertexFromContext(ctx)
		for _, tool := range st.plan.Tooling {
			pkg := tool.Locked()
			path, err := p.deps.Fetcher.Fetch(ctx, pkg)
			if err != nil {
				return err
			}
			if err := p.deps.Fetcher.Unpack(path, staging); err != nil {
				return err
			}
			record := fmt.Sprintf("%s %s %s\n", pkg.Name.String(), pkg.Version.String(), pkg.Digest)
			if err := appendFile(filepath.Join(indexDir, "index.list"), record); err != nil {
				return err
			}
			if vertex != nil {
				fmt.Fprintf(vertex.Stdout(), "installed %s %s\n", pkg.Name.String(), pkg.Version.String())
			}
		}

		// The index is transient install metadata, not image content.
		return os.RemoveAll(filepath.Join(staging, "var", "cache"))
	})
	if err != nil {
		return false, err
	}

	st.layers = append(st.layers, layer)
	st.record("tooling", false)
	return cached, nil
}

// stepIdentity appends the runtime identity to the base account tables as a
// layer. Creation is not idempotent: a user or group already present in the
// base aborts the build.
func (p *Pipeline) stepIdentity(_ context.Context, st *buildState) (bool, error) {
	id := st.plan.Identity
	if err := id.ConflictsWith(st.base.Users, st.base.Groups); err != nil {
		return false, err
	}

	key := layerKey("identity", st.base.Digest.String(), identityKey(id))
	layer, cached, err := p.materializeLayer(st, key, nil, func(staging string) error {
		users := append(slices.Clone(st.base.Users), domain.PasswdEntry{
			Name:  id.User,
			UID:   id.UID,
			GID:   id.GID,
			Home:  st.plan.WorkDir,
			Shell: nologinShell,
		})
		groups := append(slices.Clone(st.base.Groups), domain.GroupEntry{
			Name: id.Group,
			GID:  id.GID,
		})

		etc := filepath.Join(staging, "etc")
		if err := os.MkdirAll(etc, 0o755); err != nil {
			return zerr.Wrap(err, "failed to create etc directory")
		}
		if err := os.WriteFile(filepath.Join(etc, "passwd"), []byte(domain.FormatPasswd(users)), 0o644); err != nil {
			return zerr.Wrap(err, "failed to write passwd table")
		}
		if err := os.WriteFile(filepath.Join(etc, "group"), []byte(domain.FormatGroup(groups)), 0o644); err != nil {
			return zerr.Wrap(err, "failed to write group table")
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	st.layers = append(st.layers, layer)
	st.record("identity "+id.Spec(), false)
	return cached, nil
}

// stepEnvConfig records the build and runtime environment: the environment
// directory selector, the precompile toggle, and a search path putting the
// environment's bin directory first. Config mutation only, no layer.
func (p *Pipeline) stepEnvConfig(_ context.Context, st *buildState) (bool, error) {
	st.setEnv("VIRTUAL_ENV", st.plan.EnvDir)

	path := st.getEnv("PATH")
	if path == "" {
		path = defaultPath
	}
	st.setEnv("PATH", st.plan.EnvDir+"/bin:"+path)

	if st.plan.Precompile {
		st.setEnv("COMPILE_BYTECODE", "1")
	}

	keys := make([]string, 0, len(st.plan.Env))
	for key := range st.plan.Env {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		st.setEnv(key, st.plan.Env[key])
	}

	st.record("envconfig "+st.plan.EnvDir, true)
	return false, nil
}

// stepDependencies is the frozen install: the lock file is the sole authority
// over what gets installed, verified against the manifest before any source
// step runs. The layer key never includes the source tree, so source-only
// changes reuse this layer.
func (p *Pipeline) stepDependencies(ctx context.Context, st *buildState) (bool, error) {
	m, err := p.deps.Manifests.LoadManifest(filepath.Join(st.plan.ContextDir, st.plan.ManifestPath))
	if err != nil {
		return false, err
	}
	lock, err := p.deps.Manifests.LoadLockfile(filepath.Join(st.plan.ContextDir, st.plan.LockfilePath))
	if err != nil {
		return false, err
	}
	if err := lock.VerifyAgainst(m); err != nil {
		return false, err
	}
	st.manifest = m
	st.lock = lock

	key := layerKey(
		"deps",
		st.base.Digest.String(),
		m.CanonicalDigest(),
		lock.Digest,
		st.plan.EnvDir,
		strconv.FormatBool(st.plan.Precompile),
		identityKey(st.plan.Identity),
	)

	layer, cached, err := p.materializeLayer(st, key, &st.plan.Identity, func(staging string) error {
		return p.installPackages(ctx, st, staging, lock.SortedPackages())
	})
	if err != nil {
		return false, err
	}

	st.layers = append(st.layers, layer)
	st.record("deps "+lock.Digest, false)
	return cached, nil
}

// installPackages fetches all locked artifacts with bounded parallelism, then
// unpacks them into the environment directory in name order so the layer
// bytes never depend on scheduling.
func (p *Pipeline) installPackages(ctx context.Context, st *buildState, staging string, pkgs []domain.LockedPackage) error {
	envRoot := filepath.Join(staging, st.plan.EnvDir)
	if err := os.MkdirAll(filepath.Join(envRoot, "bin"), 0o755); err != nil {
		return zerr.Wrap(err, "failed to create environment directory")
	}

	paths := make([]string, len(pkgs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.NumCPU())
	for i, pkg := range pkgs {
		group.Go(func() error {
			path, err := p.deps.Fetcher.Fetch(groupCtx, pkg)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	vertex := ports.VertexFromContext(ctx)
	for i, pkg := range pkgs {
		if err := p.deps.Fetcher.Unpack(paths[i], envRoot); err != nil {
			return err
		}
		if err := writeInstallRecord(envRoot, installRecord{
			Name:    pkg.Name.String(),
			Version: pkg.Version.String(),
			Digest:  pkg.Digest,
		}, st.plan.Precompile); err != nil {
			return err
		}
		if vertex != nil {
			fmt.Fprintf(vertex.Stdout(), "installed %s %s\n", pkg.Name.String(), pkg.Version.String())
		}
	}
	return nil
}

// stepSource copies the context tree, minus ignores, into the working
// directory. The tree hash keys the layer, so any source change invalidates
// it without touching the dependency layer.
func (p *Pipeline) stepSource(_ context.Context, st *buildState) (bool, error) {
	treeHash, err := p.deps.Hasher.HashTree(st.plan.ContextDir, st.plan.Ignores)
	if err != nil {
		return false, err
	}
	st.treeHash = treeHash

	key := layerKey("source", st.base.Digest.String(), treeHash, st.plan.WorkDir, identityKey(st.plan.Identity))
	layer, cached, err := p.materializeLayer(st, key, &st.plan.Identity, func(staging string) error {
		return p.deps.Copier.CopyTree(st.plan.ContextDir, filepath.Join(staging, st.plan.WorkDir), st.plan.Ignores)
	})
	if err != nil {
		return false, err
	}

	st.layers = append(st.layers, layer)
	st.record("source "+treeHash, false)
	return cached, nil
}

// stepFinalize is the second frozen-install phase: the lock is re-verified
// and the project itself is recorded as an installed unit in the
// environment's install index. The key includes the tree hash, deliberately
// isolating this cache-unfriendly phase from the dependency layer.
func (p *Pipeline) stepFinalize(_ context.Context, st *buildState) (bool, error) {
	if err := st.lock.VerifyAgainst(st.manifest); err != nil {
		return false, err
	}

	key := layerKey(
		"finalize",
		st.base.Digest.String(),
		st.manifest.CanonicalDigest(),
		st.lock.Digest,
		st.treeHash,
		st.plan.EnvDir,
		identityKey(st.plan.Identity),
	)

	layer, cached, err := p.materializeLayer(st, key, &st.plan.Identity, func(staging string) error {
		envRoot := filepath.Join(staging, st.plan.EnvDir)
		return writeInstallRecord(envRoot, installRecord{
			Name:    st.manifest.Project.Name.String(),
			Version: st.manifest.Project.Version.String(),
			Digest:  st.treeHash,
		}, st.plan.Precompile)
	})
	if err != nil {
		return false, err
	}

	st.layers = append(st.layers, layer)
	st.record("finalize "+st.manifest.Project.Name.String(), false)
	return cached, nil
}

// stepOwnership asserts that the runtime identity owns the working and
// environment directories. Ownership was stamped on the layer tar headers as
// those layers were serialized; identity is part of their keys, so a cached
// layer carries the right owner too.
func (p *Pipeline) stepOwnership(_ context.Context, st *buildState) (bool, error) {
	if len(st.layers) == 0 {
		return false, zerr.New("no layers to assign ownership over")
	}
	st.record(fmt.Sprintf("ownership %s %s %s", st.plan.Identity.Spec(), st.plan.WorkDir, st.plan.EnvDir), true)
	return false, nil
}

// stepUser drops privileges: the image config user becomes the runtime
// identity, never root.
func (p *Pipeline) stepUser(_ context.Context, st *buildState) (bool, error) {
	if err := st.plan.Identity.Validate(); err != nil {
		return false, err
	}
	st.user = st.plan.Identity.Spec()
	st.record("user "+st.user, true)
	return false, nil
}

// stepEntrypoint declares the served process: command with the bind address
// appended, the bound port exposed, and the working directory set.
func (p *Pipeline) stepEntrypoint(_ context.Context, st *buildState) (bool, error) {
	port, err := st.plan.Entrypoint.Port()
	if err != nil {
		return false, err
	}

	st.cmd = st.plan.Entrypoint.Cmd()
	st.exposed = []string{fmt.Sprintf("%d/tcp", port)}
	st.workDir = st.plan.WorkDir
	st.record(fmt.Sprintf("entrypoint %s (%d/tcp)", st.plan.Entrypoint.Bind, port), true)
	return false, nil
}

// identityKey folds the full identity into a layer key part.
func identityKey(id domain.Identity) string {
	return fmt.Sprintf("%s:%d:%s:%d", id.User, id.UID, id.Group, id.GID)
}

// installRecord is one unit in the environment's install index.
type installRecord struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Digest  string `json:"digest"`
}

// writeInstallRecord records an installed unit under <envRoot>/share/index,
// with a marker file when its bytecode was precompiled.
func writeInstallRecord(envRoot string, record installRecord, precompiled bool) error {
	indexDir := filepath.Join(envRoot, "share", "index")
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return zerr.Wrap(err, "failed to create install index directory")
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return zerr.Wrap(err, "failed to encode install record")
	}
	path := filepath.Join(indexDir, record.Name+".json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write install record"), "path", path)
	}

	if precompiled {
		marker := filepath.Join(indexDir, record.Name+".compiled")
		if err := os.WriteFile(marker, nil, 0o644); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to write precompile marker"), "path", marker)
		}
	}
	return nil
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // Path is confined to the staging tree
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open index file"), "path", path)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return zerr.With(zerr.Wrap(err, "failed to append index entry"), "path", path)
	}
	return f.Close()
}
