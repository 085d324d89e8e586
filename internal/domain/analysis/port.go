package analysis

import (
	"context"
	"time"
)

// Image is a decoded upload.
type Image struct {
	MIMEType string
	Data     []byte
}

// Model sends the fixed prompt plus image to a named vendor model and returns
// its raw text answer.
type Model interface {
	Generate(ctx context.Context, model, prompt string, img Image) (string, error)
}

// ModelInfo describes one vendor model for the diagnostic listing.
type ModelInfo struct {
	ID      string    `json:"id"`
	OwnedBy string    `json:"owned_by,omitempty"`
	Created time.Time `json:"created,omitempty"`
}

// ModelLister lists the models the vendor exposes to our key.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// ImageArchive keeps a copy of preprocessed uploads. Optional.
type ImageArchive interface {
	Put(ctx context.Context, key string, img Image) (string, error)
}
