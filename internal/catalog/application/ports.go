package application

import (
	"context"

	"github.com/watchara-p/inventory-order-service/internal/catalog/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	Update(ctx context.Context, id string, patch domain.Patch) (domain.Product, error)
	Delete(ctx context.Context, id string) (domain.Product, error)
	// AdjustQuantity applies a signed stock delta in a single atomic
	// update. Negative deltas are guarded: the update only matches when
	// the stored quantity covers the decrement, so stock cannot go
	// below zero. A failed guard is reported as ErrInsufficientStock.
	AdjustQuantity(ctx context.Context, id string, delta int) error
}
