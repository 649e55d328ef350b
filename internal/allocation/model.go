package allocation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/genericsdirect/dealtracker/pkg/enums"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
)

type bucket struct {
	id           BucketID
	manufacturer *Manufacturer
	members      map[uuid.UUID]struct{}
	total        decimal.Decimal
}

func newBucket(id BucketID, manufacturer *Manufacturer) *bucket {
	return &bucket{id: id, manufacturer: manufacturer, members: map[uuid.UUID]struct{}{}, total: decimal.Zero}
}

// Model holds one scenario's line items partitioned across the unassigned
// bucket and one bucket per manufacturer. It is not safe for concurrent use;
// callers serialize access per scenario.
type Model struct {
	initialized bool

	items    map[uuid.UUID]LineItem
	order    []uuid.UUID
	location map[uuid.UUID]BucketID

	buckets     map[BucketID]*bucket
	bucketOrder []BucketID

	listeners    map[int]Listener
	nextListener int
}

// NewModel returns an empty model; call Initialize before anything else.
func NewModel() *Model {
	return &Model{listeners: map[int]Listener{}}
}

// Initialize places every item in the unassigned bucket and creates one empty
// bucket per manufacturer. The bucket set is fixed from here on.
func (m *Model) Initialize(items []LineItem, manufacturers []Manufacturer) error {
	if m.initialized {
		return invalidState("scenario already initialized")
	}

	seenMakers := make(map[int64]struct{}, len(manufacturers))
	for _, mf := range manufacturers {
		if _, dup := seenMakers[mf.ID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate manufacturer id").WithDetails(map[string]any{"manufacturer_id": mf.ID})
		}
		seenMakers[mf.ID] = struct{}{}
	}
	seenItems := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if item.ID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item id is required")
		}
		if _, dup := seenItems[item.ID]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate line item id").WithDetails(map[string]any{"line_item_id": item.ID})
		}
		seenItems[item.ID] = struct{}{}
	}

	m.items = make(map[uuid.UUID]LineItem, len(items))
	m.order = make([]uuid.UUID, 0, len(items))
	m.location = make(map[uuid.UUID]BucketID, len(items))
	m.buckets = make(map[BucketID]*bucket, len(manufacturers)+1)
	m.bucketOrder = make([]BucketID, 0, len(manufacturers)+1)

	unassigned := newBucket(Unassigned, nil)
	m.buckets[Unassigned] = unassigned
	m.bucketOrder = append(m.bucketOrder, Unassigned)
	for i := range manufacturers {
		mf := manufacturers[i]
		id := ManufacturerBucket(mf.ID)
		m.buckets[id] = newBucket(id, &mf)
		m.bucketOrder = append(m.bucketOrder, id)
	}

	for _, item := range items {
		m.items[item.ID] = item
		m.order = append(m.order, item.ID)
		m.location[item.ID] = Unassigned
		unassigned.members[item.ID] = struct{}{}
	}
	m.recompute(unassigned)
	m.initialized = true

	m.emit(Change{Kind: enums.AllocationChangeInitialized})
	return nil
}

// Initialized reports whether Initialize has succeeded.
func (m *Model) Initialized() bool {
	return m.initialized
}

// BucketOf returns the bucket currently holding the item.
func (m *Model) BucketOf(itemID uuid.UUID) (BucketID, error) {
	if !m.initialized {
		return "", invalidState("scenario not initialized")
	}
	id, ok := m.location[itemID]
	if !ok {
		return "", notFound("line item not found", map[string]any{"line_item_id": itemID})
	}
	return id, nil
}

// HasBucket reports whether id names a bucket of this scenario.
func (m *Model) HasBucket(id BucketID) bool {
	_, ok := m.buckets[id]
	return ok
}

// Totals returns the current sum of every bucket, empty buckets included.
func (m *Model) Totals() map[BucketID]decimal.Decimal {
	totals := make(map[BucketID]decimal.Decimal, len(m.buckets))
	for id, b := range m.buckets {
		totals[id] = b.total
	}
	return totals
}

// ResetAll returns every item to the unassigned bucket.
func (m *Model) ResetAll() error {
	if !m.initialized {
		return invalidState("scenario not initialized")
	}
	unassigned := m.buckets[Unassigned]
	for _, id := range m.bucketOrder {
		if id == Unassigned {
			continue
		}
		b := m.buckets[id]
		for itemID := range b.members {
			delete(b.members, itemID)
			unassigned.members[itemID] = struct{}{}
			m.location[itemID] = Unassigned
		}
	}
	for _, b := range m.buckets {
		m.recompute(b)
	}

	m.emit(Change{Kind: enums.AllocationChangeReset})
	return nil
}

// Snapshot flattens the partition into one assignment per item, in the order
// the items were supplied to Initialize.
func (m *Model) Snapshot() ([]Assignment, error) {
	if !m.initialized {
		return nil, invalidState("scenario not initialized")
	}
	out := make([]Assignment, 0, len(m.order))
	for _, itemID := range m.order {
		entry := Assignment{LineItemID: itemID}
		if mfID, ok := m.location[itemID].ManufacturerID(); ok {
			id := mfID
			entry.ManufacturerID = &id
		}
		out = append(out, entry)
	}
	return out, nil
}

// Buckets returns every bucket with its members, unassigned first and then
// manufacturers in catalog order.
func (m *Model) Buckets() ([]Bucket, error) {
	if !m.initialized {
		return nil, invalidState("scenario not initialized")
	}
	members := make(map[BucketID][]LineItem, len(m.buckets))
	for _, itemID := range m.order {
		loc := m.location[itemID]
		members[loc] = append(members[loc], m.items[itemID])
	}
	out := make([]Bucket, 0, len(m.bucketOrder))
	for _, id := range m.bucketOrder {
		b := m.buckets[id]
		view := Bucket{ID: id, Items: members[id], Total: b.total}
		if view.Items == nil {
			view.Items = []LineItem{}
		}
		if b.manufacturer != nil {
			mf := *b.manufacturer
			view.Manufacturer = &mf
		}
		out = append(out, view)
	}
	return out, nil
}

// Manufacturers returns the manufacturers in catalog order.
func (m *Model) Manufacturers() []Manufacturer {
	out := make([]Manufacturer, 0, len(m.bucketOrder))
	for _, id := range m.bucketOrder {
		if mf := m.buckets[id].manufacturer; mf != nil {
			out = append(out, *mf)
		}
	}
	return out
}

// Subscribe registers a listener and returns its unsubscribe func.
func (m *Model) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	key := m.nextListener
	m.nextListener++
	m.listeners[key] = listener
	return func() { delete(m.listeners, key) }
}

func (m *Model) recompute(b *bucket) {
	total := decimal.Zero
	for itemID := range b.members {
		total = total.Add(m.items[itemID].Value)
	}
	b.total = total
}

func (m *Model) emit(change Change) {
	if len(m.listeners) == 0 {
		return
	}
	change.Totals = m.Totals()
	for _, listener := range m.listeners {
		listener(change)
	}
}
