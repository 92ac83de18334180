package ports

import (
	"context"

	"github.com/stratabuild/strata/internal/core/domain"
)

// ImageWriter serializes a finished build into an OCI image layout directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=image_writer.go -destination=mocks/mock_image_writer.go -package=mocks
type ImageWriter interface {
	// Write emits the image to dir, carrying over base layer blobs and
	// appending the build's own layers.
	Write(ctx context.Context, dir string, img *domain.Image) error
}
