package ports

import (
	"context"

	"github.com/prakritea/artisan-studio/internal/domain/studio"
)

// StyleTransferBackend sends a content and style image to the processing
// endpoint and returns the generated image.
type StyleTransferBackend interface {
	StyleTransfer(ctx context.Context, content, style studio.Image) (studio.Image, error)
}

// FlowStore persists studio flows.
type FlowStore interface {
	Get(ctx context.Context, id string) (studio.Flow, error)
	// Update applies fn atomically. A missing flow starts empty. If fn returns
	// an error nothing is written and the error is returned unchanged.
	Update(ctx context.Context, id string, fn func(*studio.Flow) error) (studio.Flow, error)
	Delete(ctx context.Context, id string) error
}

// ImageStore holds uploaded and generated image bytes.
type ImageStore interface {
	Put(ctx context.Context, img studio.Image) error
	Get(ctx context.Context, id string) (studio.Image, error)
	Delete(ctx context.Context, ids ...string) error
}
