package ports

import (
	"context"
	"io"
)

// Telemetry records build progress as a sequence of vertices, one per step.
//
//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks
type Telemetry interface {
	// Record starts a new vertex for the named step.
	Record(ctx context.Context, name string) (context.Context, Vertex)

	// Close flushes and closes the recording session.
	Close() error
}

// Vertex represents one recorded build step.
type Vertex interface {
	// Stdout returns a writer capturing the step's output stream.
	Stdout() io.Writer

	// Stderr returns a writer capturing the step's error stream.
	Stderr() io.Writer

	// Complete marks the vertex as finished, successfully or with an error.
	Complete(err error)

	// Cached marks the vertex as a layer-cache hit.
	Cached()
}

type vertexKey struct{}

// ContextWithVertex attaches a vertex to the context for nested step logic.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex attached to the context, or nil.
func VertexFromContext(ctx context.Context) Vertex {
	v, _ := ctx.Value(vertexKey{}).(Vertex)
	return v
}
