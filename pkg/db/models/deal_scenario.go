package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DealScenario is one persisted allocation session.
type DealScenario struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Name      string               `gorm:"column:name;not null"`
	CreatedAt time.Time            `gorm:"column:created_at;not null"`
	SavedAt   *time.Time           `gorm:"column:saved_at"`
	Details   []DealScenarioDetail `gorm:"foreignKey:DealScenarioID;constraint:OnDelete:CASCADE"`
}

func (DealScenario) TableName() string { return "deal_scenarios" }

// DealScenarioDetail is one line item of a scenario and its manufacturer
// assignment; a nil ManufacturerID means unassigned.
type DealScenarioDetail struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	DealScenarioID uuid.UUID       `gorm:"column:deal_scenario_id;type:uuid;not null;index"`
	ProductID      int64           `gorm:"column:product_id;not null;index"`
	Product        *Product        `gorm:"foreignKey:ProductID"`
	ManufacturerID *int64          `gorm:"column:manufacturer_id;index"`
	Label          string          `gorm:"column:label;not null;default:''"`
	Value          decimal.Decimal `gorm:"column:value;type:numeric(18,2);not null"`
	Position       int             `gorm:"column:position;not null;default:0"`
}

func (DealScenarioDetail) TableName() string { return "deal_scenario_details" }
