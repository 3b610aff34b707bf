package application

import (
	"context"

	catalog "github.com/watchara-p/inventory-order-service/internal/catalog/domain"
	"github.com/watchara-p/inventory-order-service/internal/order/domain"
)

type OrderRepository interface {
	Create(ctx context.Context, o domain.Order) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	Replace(ctx context.Context, o domain.Order) error
	Delete(ctx context.Context, id string) error
}

// ProductStore is the slice of the catalog the order workflow needs:
// lookup for validation/expansion and the atomic stock delta.
type ProductStore interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	AdjustQuantity(ctx context.Context, id string, delta int) error
}

// Locker serializes workflows touching overlapping product sets.
type Locker interface {
	Lock(keys ...string) func()
}

// EventSink records an order lifecycle event for asynchronous
// delivery. A nil sink is valid; events are then dropped.
type EventSink interface {
	Append(ctx context.Context, aggregateType, aggregateID, eventType string, payload []byte) error
}
