package scenarios

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/genericsdirect/dealtracker/internal/allocation"
	"github.com/genericsdirect/dealtracker/pkg/db/models"
	"github.com/genericsdirect/dealtracker/pkg/enums"
)

const unassignedName = "Unassigned"

// LineItemDTO is one allocatable line of the board.
type LineItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID int64           `json:"product_id"`
	Label     string          `json:"label"`
	Value     decimal.Decimal `json:"value"`
}

// BucketDTO is one column of the board.
type BucketDTO struct {
	ID             allocation.BucketID `json:"id"`
	ManufacturerID *int64              `json:"manufacturer_id,omitempty"`
	Name           string              `json:"name"`
	Total          decimal.Decimal     `json:"total"`
	ItemCount      int                 `json:"item_count"`
	Items          []LineItemDTO       `json:"items"`
}

// BoardDTO is the full read view of an open scenario.
type BoardDTO struct {
	ScenarioID uuid.UUID           `json:"scenario_id"`
	Name       string              `json:"name"`
	Phase      enums.ScenarioPhase `json:"phase"`
	CreatedAt  time.Time           `json:"created_at"`
	SavedAt    *time.Time          `json:"saved_at,omitempty"`
	GrandTotal decimal.Decimal     `json:"grand_total"`
	Buckets    []BucketDTO         `json:"buckets"`
}

// MoveInput describes one drag from source to target.
type MoveInput struct {
	LineItemID uuid.UUID
	Source     allocation.BucketID
	Target     allocation.BucketID
}

// SaveResult reports a successful save.
type SaveResult struct {
	ScenarioID  uuid.UUID               `json:"scenario_id"`
	SavedAt     time.Time               `json:"saved_at"`
	Allocations []allocation.Assignment `json:"allocations"`
}

// ScenarioSummaryDTO lists a persisted scenario.
type ScenarioSummaryDTO struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	SavedAt   *time.Time `json:"saved_at,omitempty"`
	Open      bool       `json:"open"`
}

// ScenarioPage is one page of persisted scenarios.
type ScenarioPage struct {
	Scenarios  []ScenarioSummaryDTO `json:"scenarios"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// DetailDTO is a persisted scenario line.
type DetailDTO struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      int64           `json:"product_id"`
	Label          string          `json:"label"`
	Value          decimal.Decimal `json:"value"`
	ManufacturerID *int64          `json:"manufacturer_id,omitempty"`
	Position       int             `json:"position"`
}

// ScenarioDTO is a persisted scenario with its lines.
type ScenarioDTO struct {
	ScenarioSummaryDTO
	Details []DetailDTO `json:"details"`
}

func boardFromWorkspace(ws *workspace) (*BoardDTO, error) {
	buckets, err := ws.model.Buckets()
	if err != nil {
		return nil, err
	}
	board := &BoardDTO{
		ScenarioID: ws.id,
		Name:       ws.name,
		Phase:      ws.phase,
		CreatedAt:  ws.createdAt,
		SavedAt:    ws.savedAt,
		GrandTotal: decimal.Zero,
		Buckets:    make([]BucketDTO, 0, len(buckets)),
	}
	for _, b := range buckets {
		view := BucketDTO{
			ID:        b.ID,
			Name:      unassignedName,
			Total:     b.Total,
			ItemCount: len(b.Items),
			Items:     make([]LineItemDTO, 0, len(b.Items)),
		}
		if b.Manufacturer != nil {
			id := b.Manufacturer.ID
			view.ManufacturerID = &id
			view.Name = b.Manufacturer.Name
		}
		for _, item := range b.Items {
			view.Items = append(view.Items, LineItemDTO(item))
		}
		board.GrandTotal = board.GrandTotal.Add(b.Total)
		board.Buckets = append(board.Buckets, view)
	}
	return board, nil
}

func summaryFromModel(row models.DealScenario, open bool) ScenarioSummaryDTO {
	return ScenarioSummaryDTO{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
		SavedAt:   row.SavedAt,
		Open:      open,
	}
}

func detailFromModel(row models.DealScenarioDetail) DetailDTO {
	return DetailDTO{
		ID:             row.ID,
		ProductID:      row.ProductID,
		Label:          row.Label,
		Value:          row.Value,
		ManufacturerID: row.ManufacturerID,
		Position:       row.Position,
	}
}

func lineItemFromDetail(row models.DealScenarioDetail) allocation.LineItem {
	return allocation.LineItem{
		ID:        row.ID,
		ProductID: row.ProductID,
		Label:     row.Label,
		Value:     row.Value,
	}
}
