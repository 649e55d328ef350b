package scenarios

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genericsdirect/dealtracker/internal/allocation"
	"github.com/genericsdirect/dealtracker/internal/repo"
	"github.com/genericsdirect/dealtracker/pkg/db"
	"github.com/genericsdirect/dealtracker/pkg/db/models"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
	"github.com/genericsdirect/dealtracker/pkg/pagination"
)

const detailBatchSize = 200

// Repository persists scenarios and their detail rows.
type Repository struct {
	repo.Base
	now func() time.Time
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn), now: time.Now}
}

// CreateScenario inserts the scenario and one unassigned detail row per line
// item. Detail ids are the line item ids.
func (r *Repository) CreateScenario(ctx context.Context, name string, items []allocation.LineItem) (uuid.UUID, error) {
	scenario := models.DealScenario{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: r.now().UTC(),
	}
	details := make([]models.DealScenarioDetail, 0, len(items))
	for i, item := range items {
		details = append(details, models.DealScenarioDetail{
			ID:             item.ID,
			DealScenarioID: scenario.ID,
			ProductID:      item.ProductID,
			Label:          item.Label,
			Value:          item.Value,
			Position:       i,
		})
	}

	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit("Details").Create(&scenario).Error; err != nil {
			return err
		}
		if len(details) == 0 {
			return nil
		}
		return tx.CreateInBatches(&details, detailBatchSize).Error
	})
	if err != nil {
		return uuid.Nil, storeError(err, "create scenario")
	}
	return scenario.ID, nil
}

// PersistAllocations writes every assignment and stamps saved_at in a single
// transaction; any failure leaves the stored allocation unchanged. The stamp
// is returned at the precision the database keeps.
func (r *Repository) PersistAllocations(ctx context.Context, scenarioID uuid.UUID, assignments []allocation.Assignment) (time.Time, error) {
	savedAt := r.now().UTC().Truncate(time.Microsecond)
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.DealScenario{}).Where("id = ?", scenarioID).Update("saved_at", savedAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "scenario not found").WithDetails(map[string]any{"scenario_id": scenarioID})
		}
		for _, entry := range assignments {
			res := tx.Model(&models.DealScenarioDetail{}).
				Where("id = ? AND deal_scenario_id = ?", entry.LineItemID, scenarioID).
				Update("manufacturer_id", entry.ManufacturerID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return pkgerrors.New(pkgerrors.CodeNotFound, "scenario detail not found").WithDetails(map[string]any{
					"scenario_id":  scenarioID,
					"line_item_id": entry.LineItemID,
				})
			}
		}
		return nil
	})
	if err != nil {
		return time.Time{}, storeError(err, "persist allocations")
	}
	return savedAt, nil
}

// GetScenario loads a scenario with its details in position order.
func (r *Repository) GetScenario(ctx context.Context, id uuid.UUID) (*models.DealScenario, error) {
	var scenario models.DealScenario
	err := r.DB(ctx).
		Preload("Details", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		First(&scenario, "id = ?", id).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "scenario not found").WithDetails(map[string]any{"scenario_id": id})
		}
		return nil, storeError(err, "get scenario")
	}
	return &scenario, nil
}

// ListScenarios pages through scenarios newest first. The second return is
// the cursor for the next page, empty on the last one.
func (r *Repository) ListScenarios(ctx context.Context, params pagination.Params) ([]models.DealScenario, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.DB(ctx).Model(&models.DealScenario{})
	if cursor != nil {
		at := cursor.CreatedAt.UTC()
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", at, at, cursor.ID)
	}
	var rows []models.DealScenario
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&rows).Error; err != nil {
		return nil, "", storeError(err, "list scenarios")
	}

	rows, next := pagination.Trim(rows, limit, func(row models.DealScenario) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return rows, next, nil
}

// ListDetailsByBucket returns the persisted details of one bucket: the
// unassigned rows when manufacturerID is nil, otherwise that manufacturer's.
func (r *Repository) ListDetailsByBucket(ctx context.Context, scenarioID uuid.UUID, manufacturerID *int64) ([]models.DealScenarioDetail, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.DealScenario{}).Where("id = ?", scenarioID).Count(&count).Error; err != nil {
		return nil, storeError(err, "check scenario")
	}
	if count == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scenario not found").WithDetails(map[string]any{"scenario_id": scenarioID})
	}

	query := r.DB(ctx).Preload("Product").Where("deal_scenario_id = ?", scenarioID)
	if manufacturerID == nil {
		query = query.Where("manufacturer_id IS NULL")
	} else {
		query = query.Where("manufacturer_id = ?", *manufacturerID)
	}
	var rows []models.DealScenarioDetail
	if err := query.Order("position ASC").Find(&rows).Error; err != nil {
		return nil, storeError(err, "list scenario details")
	}
	return rows, nil
}

// storeError keeps typed errors and reports anything else as the store being
// unavailable.
func storeError(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, message+": unknown reference")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
