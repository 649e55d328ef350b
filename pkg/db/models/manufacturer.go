package models

import "time"

// Manufacturer is read-only reference data; one allocation bucket per row.
type Manufacturer struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:manufacturer_name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Manufacturer) TableName() string { return "manufacturers" }
