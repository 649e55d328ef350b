package allocation

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
)

func TestMoveUpdatesBothTotals(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.model.Move(f.a.ID, Unassigned, f.m1))
	totals := f.model.Totals()
	assertTotal(t, "50", totals[Unassigned])
	assertTotal(t, "10", totals[f.m1])
	assertTotal(t, "0", totals[f.m2])

	require.NoError(t, f.model.Move(f.b.ID, Unassigned, f.m1))
	totals = f.model.Totals()
	assertTotal(t, "30", totals[Unassigned])
	assertTotal(t, "30", totals[f.m1])
	assertTotal(t, "0", totals[f.m2])

	require.NoError(t, f.model.ResetAll())
	totals = f.model.Totals()
	assertTotal(t, "60", totals[Unassigned])
	assertTotal(t, "0", totals[f.m1])
	assertTotal(t, "0", totals[f.m2])
}

func TestMoveBetweenManufacturers(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.model.Move(f.c.ID, Unassigned, f.m1))
	require.NoError(t, f.model.Move(f.c.ID, f.m1, f.m2))

	bucket, err := f.model.BucketOf(f.c.ID)
	require.NoError(t, err)
	assert.Equal(t, f.m2, bucket)
	totals := f.model.Totals()
	assertTotal(t, "0", totals[f.m1])
	assertTotal(t, "30", totals[f.m2])
}

func TestMoveStaleSourceIsConflict(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.model.Move(f.a.ID, Unassigned, f.m1))
	before := f.model.Totals()

	err := f.model.Move(f.a.ID, f.m2, Unassigned)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	assert.Equal(t, before, f.model.Totals())
	bucket, err := f.model.BucketOf(f.a.ID)
	require.NoError(t, err)
	assert.Equal(t, f.m1, bucket)
}

func TestMoveUnknownIdsAreNotFound(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.model.Move(uuid.New(), Unassigned, f.m1), ErrNotFound)
	assert.ErrorIs(t, f.model.Move(f.a.ID, Unassigned, ManufacturerBucket(77)), ErrNotFound)
	assert.ErrorIs(t, f.model.Move(f.a.ID, BucketID("bogus"), f.m1), ErrNotFound)

	bucket, err := f.model.BucketOf(f.a.ID)
	require.NoError(t, err)
	assert.Equal(t, Unassigned, bucket)
}

func TestMoveOntoSameBucketIsNoop(t *testing.T) {
	f := newFixture(t)
	calls := 0
	f.model.Subscribe(func(Change) { calls++ })

	require.NoError(t, f.model.Move(f.a.ID, Unassigned, Unassigned))
	// source is checked only when the bucket actually changes
	require.NoError(t, f.model.Move(f.a.ID, f.m1, f.m1))

	assert.Zero(t, calls)
	assertTotal(t, "60", f.model.Totals()[Unassigned])
}

func TestApplyRestoresSnapshot(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.model.Move(f.a.ID, Unassigned, f.m1))
	require.NoError(t, f.model.Move(f.c.ID, Unassigned, f.m2))
	snap, err := f.model.Snapshot()
	require.NoError(t, err)

	restored := NewModel()
	require.NoError(t, restored.Initialize(
		[]LineItem{f.a, f.b, f.c},
		[]Manufacturer{{ID: 1, Name: "Pfizer"}, {ID: 2, Name: "Merck"}},
	))
	require.NoError(t, restored.Apply(snap))

	again, err := restored.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, snap, again)
	want := f.model.Totals()
	for id, total := range restored.Totals() {
		assertTotal(t, want[id].String(), total)
	}
}

func TestApplyRejectsBadSnapshotWithoutChanges(t *testing.T) {
	f := newFixture(t)
	unknown := int64(99)
	one := int64(1)

	err := f.model.Apply([]Assignment{
		{LineItemID: f.a.ID, ManufacturerID: &one},
		{LineItemID: f.b.ID, ManufacturerID: &unknown},
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assertTotal(t, "60", f.model.Totals()[Unassigned])

	err = f.model.Apply([]Assignment{{LineItemID: f.a.ID}, {LineItemID: f.a.ID, ManufacturerID: &one}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assertTotal(t, "60", f.model.Totals()[Unassigned])
}

func TestRandomMovesPreserveTotals(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	items := make([]LineItem, 0, 40)
	grand := decimal.Zero
	for i := 0; i < 40; i++ {
		value := decimal.New(int64(rng.Intn(10000)), -2)
		grand = grand.Add(value)
		items = append(items, LineItem{ID: uuid.New(), ProductID: int64(i), Value: value})
	}
	makers := []Manufacturer{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	buckets := []BucketID{Unassigned, ManufacturerBucket(1), ManufacturerBucket(2), ManufacturerBucket(3), ManufacturerBucket(4)}

	m := NewModel()
	require.NoError(t, m.Initialize(items, makers))

	for i := 0; i < 500; i++ {
		item := items[rng.Intn(len(items))]
		source := buckets[rng.Intn(len(buckets))]
		target := buckets[rng.Intn(len(buckets))]
		current, err := m.BucketOf(item.ID)
		require.NoError(t, err)

		err = m.Move(item.ID, source, target)
		if source != target && source != current {
			assert.ErrorIs(t, err, ErrConflict)
		} else {
			require.NoError(t, err)
		}

		sum := decimal.Zero
		for _, total := range m.Totals() {
			sum = sum.Add(total)
		}
		require.Truef(t, grand.Equal(sum), "iteration %d: totals sum %s, want %s", i, sum, grand)

		view, err := m.Buckets()
		require.NoError(t, err)
		count := 0
		for _, b := range view {
			count += len(b.Items)
			bucketSum := decimal.Zero
			for _, it := range b.Items {
				bucketSum = bucketSum.Add(it.Value)
			}
			require.True(t, bucketSum.Equal(b.Total))
		}
		require.Equal(t, len(items), count)
	}
}
