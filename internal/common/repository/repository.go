// Package repository persists festivals and artists. The workers depend on
// the interfaces only.
package repository

import (
	"context"
	"errors"

	"festival-workers/internal/models"
)

var ErrNotFound = errors.New("record not found")

type FestivalRepository interface {
	GetByID(ctx context.Context, id string) (*models.Festival, error)
	GetAll(ctx context.Context) ([]models.Festival, error)
	SearchByName(ctx context.Context, name string) ([]models.Festival, error)
	// Save assigns an id when the record has none and upserts it.
	Save(ctx context.Context, f *models.Festival) error
}

type ArtistRepository interface {
	GetByID(ctx context.Context, id string) (*models.Artist, error)
	GetAll(ctx context.Context) ([]models.Artist, error)
	SearchByName(ctx context.Context, name string) ([]models.Artist, error)
	Save(ctx context.Context, a *models.Artist) error
}
