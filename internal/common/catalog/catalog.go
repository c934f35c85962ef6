// Package catalog looks artists up in an external music catalog.
package catalog

import (
	"context"
	"errors"

	"festival-workers/internal/models"
)

// ErrNotFound is returned when the catalog has no matching artist.
var ErrNotFound = errors.New("artist not found in catalog")

type Client interface {
	GetByID(ctx context.Context, id string) (*models.CatalogArtist, error)
	SearchByName(ctx context.Context, name string) (*models.CatalogArtist, error)
}
