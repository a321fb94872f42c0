package repository

import (
	"context"

	"vidlingo/models"
)

type CardRepository interface {
	Save(ctx context.Context, card *models.Card) error
	SaveAll(ctx context.Context, cards []models.Card) error
	Find(ctx context.Context, id string) (*models.Card, error)
	All(ctx context.Context) ([]models.Card, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

type VideoRepository interface {
	Save(ctx context.Context, video *models.Video) error
	Find(ctx context.Context, id string) (*models.Video, error)
	All(ctx context.Context) ([]models.Video, error)
	Delete(ctx context.Context, id string) error
}
