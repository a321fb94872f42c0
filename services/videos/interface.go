package videos

import (
	"context"

	"vidlingo/models"
)

// AddPayload registers a video that already lives somewhere on disk.
type AddPayload struct {
	Title    string  `json:"title"`
	FilePath string  `json:"filePath"`
	Duration float64 `json:"duration,omitempty"`
}

// UpdatePayload carries the mutable fields of a library entry. Nil fields
// are left unchanged.
type UpdatePayload struct {
	Title    *string             `json:"title,omitempty"`
	Duration *float64            `json:"duration,omitempty"`
	Status   *models.VideoStatus `json:"status,omitempty"`
}

type Service interface {
	// Import copies the source file into the managed store directory and
	// registers the copy. Name collisions get a numeric suffix.
	Import(ctx context.Context, sourcePath string) (*models.Video, error)

	Add(ctx context.Context, payload AddPayload) (*models.Video, error)
	List(ctx context.Context) ([]models.Video, error)
	Get(ctx context.Context, id string) (*models.Video, error)
	Update(ctx context.Context, id string, payload UpdatePayload) (*models.Video, error)
	Remove(ctx context.Context, id string) error
}
