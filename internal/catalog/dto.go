package catalog

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/genericsdirect/dealtracker/internal/allocation"
	"github.com/genericsdirect/dealtracker/pkg/db/models"
)

// ProductDTO is the API view of a catalog product.
type ProductDTO struct {
	ID           int64            `json:"id"`
	Label        string           `json:"label"`
	MoleculeName *string          `json:"molecule_name,omitempty"`
	Strength     *string          `json:"strength,omitempty"`
	Form         *string          `json:"form,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	IsActive     bool             `json:"is_active"`
}

func toManufacturer(m models.Manufacturer) allocation.Manufacturer {
	return allocation.Manufacturer{ID: m.ID, Name: m.Name}
}

func toProductDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		Label:        ProductLabel(p),
		MoleculeName: p.MoleculeName,
		Strength:     p.Strength,
		Form:         p.Form,
		Price:        p.Price,
		IsActive:     p.IsActive,
	}
}

// ProductLabel joins molecule name, strength and form, skipping blanks.
func ProductLabel(p models.Product) string {
	parts := make([]string, 0, 3)
	for _, part := range []*string{p.MoleculeName, p.Strength, p.Form} {
		if part == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

// productValue is the value a product contributes to a bucket; a missing
// price counts as zero.
func productValue(p models.Product) decimal.Decimal {
	if p.Price == nil {
		return decimal.Zero
	}
	return *p.Price
}
