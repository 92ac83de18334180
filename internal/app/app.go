// Package app implements the application layer for strata.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.trai.ch/zerr"

	"github.com/stratabuild/strata/internal/core/domain"
	"github.com/stratabuild/strata/internal/core/ports"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	builder      ports.Builder
	writer       ports.ImageWriter
	logger       ports.Logger
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, builder ports.Builder, writer ports.ImageWriter, logger ports.Logger) *App {
	return &App{
		configLoader: loader,
		builder:      builder,
		writer:       writer,
		logger:       logger,
	}
}

// BuildRequest carries the CLI inputs for one build.
type BuildRequest struct {
	// ContextDir is the build context directory.
	ContextDir string

	// File is the buildfile name within the context directory.
	File string

	// Output overrides the plan's output directory when set.
	Output string

	// NoCache bypasses layer cache lookups.
	NoCache bool
}

// Build loads the buildfile, runs the pipeline, and writes the resulting
// image layout. Any failure is wrapped in domain.ErrBuildFailed for the CLI
// exit path.
func (a *App) Build(ctx context.Context, req BuildRequest) error {
	plan, err := a.configLoader.Load(req.ContextDir, req.File)
	if err != nil {
		return errors.Join(domain.ErrBuildFailed, zerr.Wrap(err, "failed to load buildfile"))
	}
	if req.Output != "" {
		plan.Output = req.Output
	}

	img, err := a.builder.Build(ctx, plan, ports.BuildOptions{NoCache: req.NoCache})
	if err != nil {
		return errors.Join(domain.ErrBuildFailed, err)
	}

	out := plan.Output
	if !filepath.IsAbs(out) {
		out = filepath.Join(plan.ContextDir, out)
	}
	if err := a.writer.Write(ctx, out, img); err != nil {
		return errors.Join(domain.ErrBuildFailed, zerr.Wrap(err, "failed to write image layout"))
	}

	a.logger.Info(fmt.Sprintf("image written to %s (%d layers)", out, len(img.AllLayers())))
	return nil
}
