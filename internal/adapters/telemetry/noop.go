// Package telemetry provides telemetry implementations shared across
// recording backends.
package telemetry

import (
	"context"
	"io"

	"github.com/stratabuild/strata/internal/core/ports"
)

// NoOp is a telemetry implementation that records nothing. It backs quiet
// builds and keeps tests free of progress output.
type NoOp struct{}

// NewNoOp creates a new NoOp telemetry.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Record returns a vertex that discards everything.
func (t *NoOp) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	v := &NoOpVertex{}
	return ports.ContextWithVertex(ctx, v), v
}

// Close does nothing.
func (t *NoOp) Close() error {
	return nil
}

// NoOpVertex is a vertex that discards everything.
type NoOpVertex struct{}

// Stdout returns a writer that discards its input.
func (v *NoOpVertex) Stdout() io.Writer {
	return io.Discard
}

// Stderr returns a writer that discards its input.
func (v *NoOpVertex) Stderr() io.Writer {
	return io.Discard
}

// Complete does nothing.
func (v *NoOpVertex) Complete(_ error) {}

// Cached does nothing.
func (v *NoOpVertex) Cached() {}
