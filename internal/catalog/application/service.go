package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/watchara-p/inventory-order-service/internal/catalog/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Service fronts the product catalog: CRUD plus the atomic stock
// delta the order workflow drives.
type Service struct {
	log  *slog.Logger
	repo ProductRepository
}

func NewService(log *slog.Logger, repo ProductRepository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product created", "id", created.ID.Hex(), "productId", created.ProductID)
	return created, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, patch domain.Patch) (domain.Product, error) {
	if err := patch.Validate(); err != nil {
		return domain.Product{}, err
	}
	if patch.Empty() {
		return s.repo.Get(ctx, id)
	}
	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product updated", "id", id)
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) (domain.Product, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product deleted", "id", id)
	return deleted, nil
}

// AdjustQuantity exposes the repository's atomic stock delta to the
// order workflow.
func (s *Service) AdjustQuantity(ctx context.Context, id string, delta int) error {
	return s.repo.AdjustQuantity(ctx, id, delta)
}
