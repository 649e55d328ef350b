package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry that becomes one line item in every new scenario.
type Product struct {
	ID           int64            `gorm:"column:id;primaryKey;autoIncrement"`
	MoleculeName *string          `gorm:"column:molecule_name"`
	Strength     *string          `gorm:"column:strength"`
	Form         *string          `gorm:"column:form"`
	Price        *decimal.Decimal `gorm:"column:price;type:numeric(18,2)"`
	IsActive     bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (Product) TableName() string { return "products" }
