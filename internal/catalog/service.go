package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/genericsdirect/dealtracker/internal/allocation"
	"github.com/genericsdirect/dealtracker/pkg/db/models"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
)

// Service is the read-only catalog used to seed scenarios.
type Service interface {
	ListManufacturers(ctx context.Context) ([]allocation.Manufacturer, error)
	ListLineItemsForNewScenario(ctx context.Context) ([]allocation.LineItem, error)
	ListProducts(ctx context.Context) ([]ProductDTO, error)
}

type catalogRepository interface {
	ListManufacturers(ctx context.Context) ([]models.Manufacturer, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error)
}

type service struct {
	repo  catalogRepository
	newID func() uuid.UUID
}

// NewService constructs the catalog service.
func NewService(repo catalogRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, newID: uuid.New}, nil
}

func (s *service) ListManufacturers(ctx context.Context) ([]allocation.Manufacturer, error) {
	rows, err := s.repo.ListManufacturers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list manufacturers")
	}
	out := make([]allocation.Manufacturer, 0, len(rows))
	for _, row := range rows {
		out = append(out, toManufacturer(row))
	}
	return out, nil
}

// ListLineItemsForNewScenario mints one line item per active product. Each
// call returns fresh ids.
func (s *service) ListLineItemsForNewScenario(ctx context.Context) ([]allocation.LineItem, error) {
	rows, err := s.repo.ListProducts(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]allocation.LineItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, allocation.LineItem{
			ID:        s.newID(),
			ProductID: row.ID,
			Label:     ProductLabel(row),
			Value:     productValue(row),
		})
	}
	return out, nil
}

func (s *service) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toProductDTO(row))
	}
	return out, nil
}
