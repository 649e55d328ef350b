package allocation

import (
	"github.com/google/uuid"

	"github.com/genericsdirect/dealtracker/pkg/enums"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
)

// Move transfers one line item from source to target and recomputes both
// totals before returning. A move onto the same bucket is a no-op: nothing is
// recomputed and no change is emitted.
func (m *Model) Move(itemID uuid.UUID, source, target BucketID) error {
	if !m.initialized {
		return invalidState("scenario not initialized")
	}
	current, ok := m.location[itemID]
	if !ok {
		return notFound("line item not found", map[string]any{"line_item_id": itemID})
	}
	from, ok := m.buckets[source]
	if !ok {
		return notFound("source bucket not found", map[string]any{"bucket": source})
	}
	to, ok := m.buckets[target]
	if !ok {
		return notFound("target bucket not found", map[string]any{"bucket": target})
	}
	if source == target {
		return nil
	}
	if current != source {
		return conflict("line item is not in the source bucket", map[string]any{
			"line_item_id": itemID,
			"source":       source,
			"actual":       current,
		})
	}

	delete(from.members, itemID)
	to.members[itemID] = struct{}{}
	m.location[itemID] = target
	m.recompute(from)
	m.recompute(to)

	m.emit(Change{
		Kind:       enums.AllocationChangeMoved,
		LineItemID: itemID,
		Source:     source,
		Target:     target,
	})
	return nil
}

// Apply replays a snapshot onto the model, moving each listed item from
// wherever it is to its recorded bucket. Entries are validated up front so a
// bad snapshot leaves the model untouched.
func (m *Model) Apply(assignments []Assignment) error {
	if !m.initialized {
		return invalidState("scenario not initialized")
	}
	seen := make(map[uuid.UUID]struct{}, len(assignments))
	for _, entry := range assignments {
		if _, ok := m.items[entry.LineItemID]; !ok {
			return notFound("line item not found", map[string]any{"line_item_id": entry.LineItemID})
		}
		if _, dup := seen[entry.LineItemID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item listed twice").WithDetails(map[string]any{"line_item_id": entry.LineItemID})
		}
		seen[entry.LineItemID] = struct{}{}
		if target := BucketForManufacturer(entry.ManufacturerID); !m.HasBucket(target) {
			return notFound("target bucket not found", map[string]any{"bucket": target})
		}
	}
	for _, entry := range assignments {
		source := m.location[entry.LineItemID]
		if err := m.Move(entry.LineItemID, source, BucketForManufacturer(entry.ManufacturerID)); err != nil {
			return err
		}
	}
	return nil
}
