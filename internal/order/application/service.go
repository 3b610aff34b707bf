package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	catalogapp "github.com/watchara-p/inventory-order-service/internal/catalog/application"
	"github.com/watchara-p/inventory-order-service/internal/order/domain"
)

var ErrOrderNotFound = errors.New("order not found")

// Service runs the stock-adjustment workflow: every order create,
// update and delete keeps product stock consistent with order
// contents. Line items are aggregated first, validation covers every
// line before any mutation, and update/delete restore the stock a
// previous version of the order had claimed.
type Service struct {
	log      *slog.Logger
	repo     OrderRepository
	products ProductStore
	locks    Locker
	events   EventSink
}

func NewService(log *slog.Logger, repo OrderRepository, products ProductStore, locks Locker, events EventSink) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		products: products,
		locks:    locks,
		events:   events,
	}
}

// CreateOrder validates every aggregated line item against current
// stock, persists the order with the computed total and then
// decrements stock. No state changes until the whole order validates.
func (s *Service) CreateOrder(ctx context.Context, o domain.Order) (domain.Order, error) {
	o.Items = domain.AggregateItems(o.Items)
	if err := o.Validate(); err != nil {
		return domain.Order{}, err
	}

	release := s.locks.Lock(productKeys(o.Items)...)
	defer release()

	total, err := s.validateItems(ctx, o.Items)
	if err != nil {
		return domain.Order{}, err
	}
	o.Total = total
	o.CreatedAt = time.Now().UTC()

	created, err := s.repo.Create(ctx, o)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.applyDeltas(ctx, created.Items, -1); err != nil {
		// The order is already persisted; surface the failure instead
		// of pretending the decrement happened.
		s.log.Error("stock decrement failed after order create", "order_id", created.ID.Hex(), "err", err)
		return domain.Order{}, err
	}

	s.emit(ctx, "OrderCreated", created.ID.Hex(), domain.OrderCreated{
		OrderID:      created.ID.Hex(),
		CustomerName: created.CustomerName,
		Total:        created.Total,
		Items:        created.Items,
	})
	s.log.Info("order created", "order_id", created.ID.Hex(), "total", created.Total)
	return created, nil
}

// UpdateOrder is a full replacement. Stock held by the existing order
// is restored first so the new items validate against post-restoration
// levels; an order can therefore shrink a line item or re-request
// exactly what it already holds.
func (s *Service) UpdateOrder(ctx context.Context, id string, in domain.Order) (domain.Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	in.Items = domain.AggregateItems(in.Items)
	if err := in.Validate(); err != nil {
		return domain.Order{}, err
	}

	keys := append(productKeys(existing.Items), productKeys(in.Items)...)
	release := s.locks.Lock(keys...)
	defer release()

	if err := s.restoreStock(ctx, existing.Items); err != nil {
		return domain.Order{}, err
	}

	total, err := s.validateItems(ctx, in.Items)
	if err != nil {
		// Put the restored stock back so a rejected update leaves
		// stock exactly where it was.
		if rbErr := s.applyDeltas(ctx, existing.Items, -1); rbErr != nil {
			s.log.Error("stock rollback failed after rejected update", "order_id", id, "err", rbErr)
		}
		return domain.Order{}, err
	}

	updated := existing
	updated.CustomerName = in.CustomerName
	updated.PhoneNumber = in.PhoneNumber
	updated.Address = in.Address
	updated.CODService = in.CODService
	updated.Items = in.Items
	updated.Total = total

	if err := s.repo.Replace(ctx, updated); err != nil {
		return domain.Order{}, err
	}

	if err := s.applyDeltas(ctx, updated.Items, -1); err != nil {
		s.log.Error("stock decrement failed after order update", "order_id", id, "err", err)
		return domain.Order{}, err
	}

	s.emit(ctx, "OrderUpdated", updated.ID.Hex(), domain.OrderUpdated{
		OrderID: updated.ID.Hex(),
		Total:   updated.Total,
		Items:   updated.Items,
	})
	s.log.Info("order updated", "order_id", id, "total", updated.Total)
	return updated, nil
}

// DeleteOrder restores the stock the order held, then removes it.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	release := s.locks.Lock(productKeys(existing.Items)...)
	defer release()

	if err := s.restoreStock(ctx, existing.Items); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.emit(ctx, "OrderDeleted", id, domain.OrderDeleted{OrderID: id})
	s.log.Info("order deleted", "order_id", id)
	return nil
}

func (s *Service) ListOrders(ctx context.Context) ([]domain.ExpandedOrder, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	expanded := make([]domain.ExpandedOrder, 0, len(orders))
	for _, o := range orders {
		eo, err := s.expand(ctx, o)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, eo)
	}
	return expanded, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (domain.ExpandedOrder, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.ExpandedOrder{}, err
	}
	return s.expand(ctx, o)
}

// validateItems walks the aggregated items in order: every product
// must exist and cover the requested quantity. Returns the total
// computed from stored catalog prices. Exhaustive over all lines
// before the caller mutates anything.
func (s *Service) validateItems(ctx context.Context, items []domain.LineItem) (float64, error) {
	var total float64
	for _, item := range items {
		p, err := s.products.GetProduct(ctx, item.Product.Hex())
		if err != nil {
			if errors.Is(err, catalogapp.ErrProductNotFound) {
				return 0, fmt.Errorf("%w: %s", catalogapp.ErrProductNotFound, item.Product.Hex())
			}
			return 0, err
		}
		if p.Quantity < item.Quantity {
			return 0, fmt.Errorf("%w: insufficient quantity for product %s", catalogapp.ErrInsufficientStock, p.ProductName)
		}
		total += p.Price * float64(item.Quantity)
	}
	return total, nil
}

// restoreStock increments stock for each item. Dangling product
// references are skipped: the product was deleted after the order was
// placed and there is nothing left to restore.
func (s *Service) restoreStock(ctx context.Context, items []domain.LineItem) error {
	for _, item := range items {
		err := s.products.AdjustQuantity(ctx, item.Product.Hex(), item.Quantity)
		if errors.Is(err, catalogapp.ErrProductNotFound) {
			s.log.Debug("skipping stock restore for deleted product", "product_id", item.Product.Hex())
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// applyDeltas adjusts stock by sign*quantity for each item, skipping
// dangling references the same way restoration does.
func (s *Service) applyDeltas(ctx context.Context, items []domain.LineItem, sign int) error {
	for _, item := range items {
		err := s.products.AdjustQuantity(ctx, item.Product.Hex(), sign*item.Quantity)
		if errors.Is(err, catalogapp.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) expand(ctx context.Context, o domain.Order) (domain.ExpandedOrder, error) {
	eo := domain.ExpandedOrder{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		PhoneNumber:  o.PhoneNumber,
		Address:      o.Address,
		CODService:   o.CODService,
		Items:        make([]domain.ExpandedItem, 0, len(o.Items)),
		Total:        o.Total,
		CreatedAt:    o.CreatedAt,
	}
	for _, item := range o.Items {
		ei := domain.ExpandedItem{Quantity: item.Quantity}
		p, err := s.products.GetProduct(ctx, item.Product.Hex())
		switch {
		case err == nil:
			ei.Product = &p
		case errors.Is(err, catalogapp.ErrProductNotFound):
			// dangling reference: expand to null
		default:
			return domain.ExpandedOrder{}, err
		}
		eo.Items = append(eo.Items, ei)
	}
	return eo, nil
}

func (s *Service) emit(ctx context.Context, eventType, orderID string, event any) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Error("event marshal failed", "type", eventType, "err", err)
		return
	}
	if err := s.events.Append(ctx, "order", orderID, eventType, payload); err != nil {
		s.log.Error("event append failed", "type", eventType, "order_id", orderID, "err", err)
	}
}

func productKeys(items []domain.LineItem) []string {
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Product.Hex())
	}
	return keys
}
