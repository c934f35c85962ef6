package catalog

import (
	"context"
	"errors"

	"festival-workers/internal/common/resilience"
	"festival-workers/internal/models"
)

// BreakerClient wraps a Client in a circuit breaker. Not-found answers are
// healthy responses and do not count as failures.
type BreakerClient struct {
	client  Client
	breaker *resilience.Breaker[*models.CatalogArtist]
}

func NewBreakerClient(client Client, settings resilience.BreakerSettings) *BreakerClient {
	if settings.Name == "" {
		settings.Name = "catalog"
	}
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrNotFound)
	}
	return &BreakerClient{
		client:  client,
		breaker: resilience.NewBreaker[*models.CatalogArtist](settings),
	}
}

func (b *BreakerClient) GetByID(ctx context.Context, id string) (*models.CatalogArtist, error) {
	return b.breaker.Execute(ctx, func(ctx context.Context) (*models.CatalogArtist, error) {
		return b.client.GetByID(ctx, id)
	})
}

func (b *BreakerClient) SearchByName(ctx context.Context, name string) (*models.CatalogArtist, error) {
	return b.breaker.Execute(ctx, func(ctx context.Context) (*models.CatalogArtist, error) {
		return b.client.SearchByName(ctx, name)
	})
}

func (b *BreakerClient) State() resilience.State {
	return b.breaker.State()
}
