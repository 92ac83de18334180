package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratabuild/strata/internal/adapters/telemetry"
	"github.com/stratabuild/strata/internal/core/ports"
)

func TestNoOp(t *testing.T) {
	rec := telemetry.NewNoOp()

	ctx, vertex := rec.Record(context.Background(), "step.base")
	require.NotNil(t, vertex)
	assert.Equal(t, vertex, ports.VertexFromContext(ctx))

	n, err := vertex.Stdout().Write([]byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	vertex.Cached()
	vertex.Complete(nil)
	assert.NoError(t, rec.Close())
}
