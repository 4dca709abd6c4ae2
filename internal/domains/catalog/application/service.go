package application

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
)

// Service orchestrates catalog use cases.
type Service struct {
	repo  ports.Repository
	newID func() string
}

// NewService wires the catalog service with its repository.
func NewService(repo ports.Repository) *Service {
	return &Service{repo: repo, newID: uuid.NewString}
}

// CreateProduct validates and stores a new product with a generated id.
func (s *Service) CreateProduct(ctx context.Context, input ports.ProductInput) (*domain.Product, error) {
	product, err := domain.NewProduct(s.newID(), input.Name, input.Price, input.Stock)
	if err != nil {
		return nil, mapError(err)
	}
	product.Description = strings.TrimSpace(input.Description)
	product.ImageURL = strings.TrimSpace(input.ImageURL)
	product.Categories = normalizeCategories(input.Categories)
	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// GetProduct loads a single product.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

// ListProducts returns products matching the filter.
func (s *Service) ListProducts(ctx context.Context, filter ports.ListFilter) ([]*domain.Product, error) {
	filter.Category = strings.ToLower(strings.TrimSpace(filter.Category))
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return products, nil
}

// Restock adds inbound units to a product.
func (s *Service) Restock(ctx context.Context, id string, qty int) (*domain.Product, error) {
	if qty <= 0 {
		return nil, mapError(domain.ErrInvalidQuantity)
	}
	product, err := s.repo.Restock(ctx, strings.TrimSpace(id), qty)
	if err != nil {
		return nil, mapError(err)
	}
	return product, nil
}

func normalizeCategories(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

var _ ports.Service = (*Service)(nil)
