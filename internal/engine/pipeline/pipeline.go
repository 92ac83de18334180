// Package pipeline implements the linear build state machine that turns a
// validated plan into an image, one layer step at a time.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"go.trai.ch/zerr"

	"github.com/stratabuild/strata/internal/core/domain"
	"github.com/stratabuild/strata/internal/core/ports"
)

var _ ports.Builder = (*Pipeline)(nil)

// Deps bundles the ports the pipeline drives.
type Deps struct {
	Manifests  ports.ManifestLoader
	Resolver   ports.BaseResolver
	Fetcher    ports.Fetcher
	Hasher     ports.TreeHasher
	Copier     ports.TreeCopier
	Serializer ports.LayerSerializer
	Store      ports.LayerStore
	Telemetry  ports.Telemetry
	Logger     ports.Logger
}

// Pipeline executes the build steps strictly in order. Any step failure
// aborts the whole build; there are no retries and no rollback.
type Pipeline struct {
	deps Deps

	mu       sync.RWMutex
	statuses map[domain.StepName]domain.StepStatus
}

// New creates a Pipeline.
func New(deps Deps) *Pipeline {
	return &Pipeline{
		deps:     deps,
		statuses: make(map[domain.StepName]domain.StepStatus),
	}
}

// Status returns the current status of a step. Steps not yet reached report
// Pending.
func (p *Pipeline) Status(name domain.StepName) domain.StepStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if status, ok := p.statuses[name]; ok {
		return status
	}
	return domain.StepStatusPending
}

func (p *Pipeline) setStatus(name domain.StepName, status domain.StepStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses[name] = status
}

// step binds a step name to its implementation. run reports whether the
// step's layer came out of the store.
type step struct {
	name domain.StepName
	run  func(ctx context.Context, st *buildState) (bool, error)
}

func (p *Pipeline) steps() []step {
	return []step{
		{domain.StepBase, p.stepBase},
		{domain.StepTooling, p.stepTooling},
		{domain.StepIdentity, p.stepIdentity},
		{domain.StepEnvConfig, p.stepEnvConfig},
		{domain.StepDependencies, p.stepDependencies},
		{domain.StepSource, p.stepSource},
		{domain.StepFinalize, p.stepFinalize},
		{domain.StepOwnership, p.stepOwnership},
		{domain.StepUser, p.stepUser},
		{domain.StepEntrypoint, p.stepEntrypoint},
	}
}

// Build runs the pipeline for the plan and returns the finished image.
func (p *Pipeline) Build(ctx context.Context, plan *domain.Plan, opts ports.BuildOptions) (*domain.Image, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	steps := p.steps()
	p.mu.Lock()
	p.statuses = make(map[domain.StepName]domain.StepStatus, len(steps))
	for _, s := range steps {
		p.statuses[s.name] = domain.StepStatusPending
	}
	p.mu.Unlock()

	st := &buildState{
		plan:    plan,
		noCache: opts.NoCache,
		created: time.Now().UTC(),
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			p.setStatus(s.name, domain.StepStatusFailed)
			return nil, err
		}

		p.setStatus(s.name, domain.StepStatusRunning)
		stepCtx, vertex := p.deps.Telemetry.Record(ctx, "step."+string(s.name))

		cached, err := s.run(stepCtx, st)
		vertex.Complete(err)
		if err != nil {
			p.setStatus(s.name, domain.StepStatusFailed)
			p.deps.Logger.Error(err)
			return nil, zerr.With(zerr.Wrap(err, "build step failed"), "step", string(s.name))
		}

		if cached {
			vertex.Cached()
			p.setStatus(s.name, domain.StepStatusCached)
		} else {
			p.setStatus(s.name, domain.StepStatusCompleted)
		}
		p.deps.Logger.Info(fmt.Sprintf("step %s %s", s.name, p.Status(s.name)))
	}

	return &domain.Image{
		Base:         st.base,
		Layers:       st.layers,
		Env:          st.env,
		User:         st.user,
		WorkingDir:   st.workDir,
		Cmd:          st.cmd,
		ExposedPorts: st.exposed,
		History:      st.history,
		Created:      st.created,
	}, nil
}

// buildState carries the image under construction between steps.
type buildState struct {
	plan    *domain.Plan
	noCache bool
	created time.Time

	base     *domain.BaseImage
	manifest *domain.Manifest
	lock     *domain.Lockfile
	treeHash string

	layers  []domain.Layer
	env     []string
	user    string
	workDir string
	cmd     []string
	exposed []string
	history []domain.HistoryEntry
}

// setEnv sets or replaces an environment entry, preserving entry order.
func (st *buildState) setEnv(key, value string) {
	entry := key + "=" + value
	for i, existing := range st.env {
		if k, _, ok := cutEnv(existing); ok && k == key {
			st.env[i] = entry
			return
		}
	}
	st.env = append(st.env, entry)
}

// getEnv returns the value of an environment entry, or "".
func (st *buildState) getEnv(key string) string {
	for _, existing := range st.env {
		if k, v, ok := cutEnv(existing); ok && k == key {
			return v
		}
	}
	return ""
}

func cutEnv(entry string) (key, value string, ok bool) {
	for i := 0; i < len(entry); i++ {
		if entry[i] == '=' {
			return entry[:i], entry[i+1:], true
		}
	}
	return "", "", false
}

func (st *buildState) record(createdBy string, emptyLayer bool) {
	st.history = append(st.history, domain.HistoryEntry{
		CreatedBy:  createdBy,
		EmptyLayer: emptyLayer,
	})
}

// layerKey computes a step cache key over its input parts.
func layerKey(parts ...string) string {
	h := xxhash.New()
	for _, part := range parts {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// materializeLayer runs the cache protocol for one layer step: store lookup
// by key, otherwise fill a staging directory, serialize it deterministically,
// and commit the blob under the key.
func (p *Pipeline) materializeLayer(st *buildState, key string, owner *domain.Identity, fill func(staging string) error) (domain.Layer, bool, error) {
	if !st.noCache {
		layer, err := p.deps.Store.Stat(key)
		if err != nil {
			return domain.Layer{}, false, err
		}
		if layer != nil {
			return *layer, true, nil
		}
	}

	staging, err := os.MkdirTemp("", "strata-layer-")
	if err != nil {
		return domain.Layer{}, false, zerr.Wrap(err, "failed to create staging directory")
	}
	defer os.RemoveAll(staging) //nolint:errcheck // Best effort cleanup in defer

	if err := fill(staging); err != nil {
		return domain.Layer{}, false, err
	}

	blob, err := os.CreateTemp("", "strata-blob-")
	if err != nil {
		return domain.Layer{}, false, zerr.Wrap(err, "failed to create blob scratch file")
	}
	defer func() {
		_ = blob.Close()
		_ = os.Remove(blob.Name())
	}()

	diffID, err := p.deps.Serializer.Serialize(blob, staging, owner)
	if err != nil {
		return domain.Layer{}, false, err
	}
	if _, err := blob.Seek(0, io.SeekStart); err != nil {
		return domain.Layer{}, false, zerr.Wrap(err, "failed to rewind blob scratch file")
	}

	layer, err := p.deps.Store.Commit(key, blob, diffID, v1.MediaTypeImageLayerGzip)
	if err != nil {
		return domain.Layer{}, false, err
	}
	return layer, false, nil
}
