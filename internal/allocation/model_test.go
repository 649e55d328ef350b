package allocation

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genericsdirect/dealtracker/pkg/enums"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func assertTotal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "expected total %s, got %s", want, got)
}

type fixture struct {
	model *Model
	a     LineItem
	b     LineItem
	c     LineItem
	m1    BucketID
	m2    BucketID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		model: NewModel(),
		a:     LineItem{ID: uuid.New(), ProductID: 1, Label: "A", Value: dec("10")},
		b:     LineItem{ID: uuid.New(), ProductID: 2, Label: "B", Value: dec("20")},
		c:     LineItem{ID: uuid.New(), ProductID: 3, Label: "C", Value: dec("30")},
		m1:    ManufacturerBucket(1),
		m2:    ManufacturerBucket(2),
	}
	err := f.model.Initialize(
		[]LineItem{f.a, f.b, f.c},
		[]Manufacturer{{ID: 1, Name: "Pfizer"}, {ID: 2, Name: "Merck"}},
	)
	require.NoError(t, err)
	return f
}

func TestInitializePlacesEverythingUnassigned(t *testing.T) {
	f := newFixture(t)

	totals := f.model.Totals()
	require.Len(t, totals, 3)
	assertTotal(t, "60", totals[Unassigned])
	assertTotal(t, "0", totals[f.m1])
	assertTotal(t, "0", totals[f.m2])

	for _, item := range []LineItem{f.a, f.b, f.c} {
		bucket, err := f.model.BucketOf(item.ID)
		require.NoError(t, err)
		assert.Equal(t, Unassigned, bucket)
	}
}

func TestInitializeTwiceIsInvalidState(t *testing.T) {
	f := newFixture(t)

	err := f.model.Initialize(nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestInitializeRejectsDuplicates(t *testing.T) {
	id := uuid.New()
	err := NewModel().Initialize([]LineItem{{ID: id, Value: dec("1")}, {ID: id, Value: dec("2")}}, nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	err = NewModel().Initialize(nil, []Manufacturer{{ID: 4}, {ID: 4}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestInitializeEmptyScenario(t *testing.T) {
	m := NewModel()
	require.NoError(t, m.Initialize(nil, []Manufacturer{{ID: 1, Name: "Pfizer"}}))

	totals := m.Totals()
	assertTotal(t, "0", totals[Unassigned])
	assertTotal(t, "0", totals[ManufacturerBucket(1)])

	snap, err := m.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestOperationsBeforeInitialize(t *testing.T) {
	m := NewModel()

	_, err := m.BucketOf(uuid.New())
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, m.ResetAll(), ErrInvalidState)
	assert.ErrorIs(t, m.Move(uuid.New(), Unassigned, Unassigned), ErrInvalidState)
	_, err = m.Snapshot()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = m.Buckets()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Empty(t, m.Totals())
}

func TestBucketOfUnknownItem(t *testing.T) {
	f := newFixture(t)

	_, err := f.model.BucketOf(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestResetAllReturnsEverything(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.model.Move(f.a.ID, Unassigned, f.m1))
	require.NoError(t, f.model.Move(f.c.ID, Unassigned, f.m2))

	require.NoError(t, f.model.ResetAll())
	totals := f.model.Totals()
	assertTotal(t, "60", totals[Unassigned])
	assertTotal(t, "0", totals[f.m1])
	assertTotal(t, "0", totals[f.m2])

	before, err := f.model.Snapshot()
	require.NoError(t, err)
	require.NoError(t, f.model.ResetAll())
	after, err := f.model.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSnapshotFollowsInitializeOrder(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.model.Move(f.b.ID, Unassigned, f.m2))

	snap, err := f.model.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap, 3)
	assert.Equal(t, f.a.ID, snap[0].LineItemID)
	assert.Nil(t, snap[0].ManufacturerID)
	assert.Equal(t, f.b.ID, snap[1].LineItemID)
	require.NotNil(t, snap[1].ManufacturerID)
	assert.Equal(t, int64(2), *snap[1].ManufacturerID)
	assert.Equal(t, f.c.ID, snap[2].LineItemID)
	assert.Nil(t, snap[2].ManufacturerID)
}

func TestBucketsView(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.model.Move(f.c.ID, Unassigned, f.m1))

	buckets, err := f.model.Buckets()
	require.NoError(t, err)
	require.Len(t, buckets, 3)

	assert.Equal(t, Unassigned, buckets[0].ID)
	assert.Nil(t, buckets[0].Manufacturer)
	assert.Equal(t, []LineItem{f.a, f.b}, buckets[0].Items)
	assertTotal(t, "30", buckets[0].Total)

	assert.Equal(t, f.m1, buckets[1].ID)
	require.NotNil(t, buckets[1].Manufacturer)
	assert.Equal(t, "Pfizer", buckets[1].Manufacturer.Name)
	assert.Equal(t, []LineItem{f.c}, buckets[1].Items)

	assert.Equal(t, f.m2, buckets[2].ID)
	assert.NotNil(t, buckets[2].Items)
	assert.Empty(t, buckets[2].Items)

	assert.Equal(t, []Manufacturer{{ID: 1, Name: "Pfizer"}, {ID: 2, Name: "Merck"}}, f.model.Manufacturers())
}

func TestSubscribeReceivesChanges(t *testing.T) {
	m := NewModel()
	var kinds []enums.AllocationChangeKind
	var last Change
	unsubscribe := m.Subscribe(func(c Change) {
		kinds = append(kinds, c.Kind)
		last = c
	})

	item := LineItem{ID: uuid.New(), Value: dec("5")}
	require.NoError(t, m.Initialize([]LineItem{item}, []Manufacturer{{ID: 9, Name: "Merck"}}))
	require.NoError(t, m.Move(item.ID, Unassigned, ManufacturerBucket(9)))

	assert.Equal(t, item.ID, last.LineItemID)
	assert.Equal(t, Unassigned, last.Source)
	assert.Equal(t, ManufacturerBucket(9), last.Target)
	assertTotal(t, "5", last.Totals[ManufacturerBucket(9)])

	require.NoError(t, m.ResetAll())
	assert.Equal(t, []enums.AllocationChangeKind{
		enums.AllocationChangeInitialized,
		enums.AllocationChangeMoved,
		enums.AllocationChangeReset,
	}, kinds)

	unsubscribe()
	require.NoError(t, m.ResetAll())
	assert.Len(t, kinds, 3)
}
