package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/genericsdirect/dealtracker/internal/repo"
	"github.com/genericsdirect/dealtracker/pkg/db/models"
)

// Repository reads the manufacturer and product reference tables.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListManufacturers returns every manufacturer ordered by id.
func (r *Repository) ListManufacturers(ctx context.Context) ([]models.Manufacturer, error) {
	var rows []models.Manufacturer
	if err := r.DB(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListProducts returns products ordered by id, optionally only active ones.
func (r *Repository) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	query := r.DB(ctx).Model(&models.Product{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Product
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
