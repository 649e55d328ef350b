package allocation

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/genericsdirect/dealtracker/pkg/enums"
)

// BucketID identifies a partition of a scenario's line items.
type BucketID string

// Unassigned is the bucket every line item starts in.
const Unassigned BucketID = "UNASSIGNED"

// ManufacturerBucket returns the bucket keyed by a manufacturer id.
func ManufacturerBucket(manufacturerID int64) BucketID {
	return BucketID(strconv.FormatInt(manufacturerID, 10))
}

// ManufacturerID parses the manufacturer id out of a bucket id. It reports
// false for the unassigned bucket and for malformed ids.
func (b BucketID) ManufacturerID() (int64, bool) {
	if b == Unassigned {
		return 0, false
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (b BucketID) String() string {
	return string(b)
}

// BucketForManufacturer maps an optional manufacturer id to its bucket.
func BucketForManufacturer(manufacturerID *int64) BucketID {
	if manufacturerID == nil {
		return Unassigned
	}
	return ManufacturerBucket(*manufacturerID)
}

// LineItem is an allocatable unit of a scenario.
type LineItem struct {
	ID        uuid.UUID       `json:"id"`
	ProductID int64           `json:"product_id"`
	Label     string          `json:"label"`
	Value     decimal.Decimal `json:"value"`
}

// Manufacturer is reference data keyed 1:1 with a bucket.
type Manufacturer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Assignment is one entry of a snapshot; a nil ManufacturerID means unassigned.
type Assignment struct {
	LineItemID     uuid.UUID `json:"line_item_id"`
	ManufacturerID *int64    `json:"manufacturer_id"`
}

// Bucket is the read view of one partition.
type Bucket struct {
	ID           BucketID        `json:"id"`
	Manufacturer *Manufacturer   `json:"manufacturer,omitempty"`
	Items        []LineItem      `json:"items"`
	Total        decimal.Decimal `json:"total"`
}

// Change is emitted after every successful mutation of a model.
type Change struct {
	Kind       enums.AllocationChangeKind   `json:"kind"`
	LineItemID uuid.UUID                    `json:"line_item_id"`
	Source     BucketID                     `json:"source,omitempty"`
	Target     BucketID                     `json:"target,omitempty"`
	Totals     map[BucketID]decimal.Decimal `json:"totals"`
}

// Listener receives changes synchronously, after the model is consistent.
type Listener func(Change)
