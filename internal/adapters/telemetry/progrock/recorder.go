// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"

	"github.com/opencontainers/go-digest"
	"github.com/stratabuild/strata/internal/core/ports"
	"github.com/vito/progrock"
)

// Recorder implements the ports.Telemetry interface using the progrock library.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a new Recorder with a default tape.
func New() ports.Telemetry {
	tape := progrock.NewTape()
	return NewRecorder(tape)
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	rec := progrock.NewRecorder(w)
	return &Recorder{
		w:   w,
		rec: rec,
	}
}

// Record starts recording a new vertex for a build step.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	d := digest.FromString(name)
	v := r.rec.Vertex(d, name)
	vertex := &Vertex{vertex: v}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
