package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type qtySlot struct {
	Qty int
}

func TestSlotsAreIsolatedPerRecord(t *testing.T) {
	s := New[qtySlot]()
	a := s.Slot(Key{Scope: "change_quantity", ID: 1}, func() qtySlot { return qtySlot{Qty: 3} })
	b := s.Slot(Key{Scope: "change_quantity", ID: 2}, func() qtySlot { return qtySlot{Qty: 7} })
	a.Qty = 9

	got, ok := s.Get(Key{Scope: "change_quantity", ID: 2})
	require.True(t, ok)
	assert.Equal(t, 7, got.Qty)
	assert.Equal(t, 7, b.Qty)

	again := s.Slot(Key{Scope: "change_quantity", ID: 1}, func() qtySlot { return qtySlot{Qty: 100} })
	assert.Equal(t, 9, again.Qty, "existing slot is reused, not re-initialised")
}

func TestRetainDropsRecordsNoLongerShown(t *testing.T) {
	s := New[qtySlot]()
	for _, id := range []int{1, 2, 3} {
		s.Put(Key{Scope: "select_package", ID: id}, qtySlot{Qty: id})
	}
	s.Put(Key{Scope: "other", ID: 1}, qtySlot{})

	assert.Equal(t, 2, s.Retain("select_package", []int{2}))
	assert.Equal(t, 2, s.Size())
	_, ok := s.Get(Key{Scope: "select_package", ID: 1})
	assert.False(t, ok)

	assert.Equal(t, 1, s.DiscardScope("other"))
	assert.Equal(t, 1, s.Size())

	s.Discard(Key{Scope: "select_package", ID: 2})
	assert.Zero(t, s.Size())
}

func TestEachVisitsScope(t *testing.T) {
	s := New[qtySlot]()
	s.Put(Key{Scope: "a", ID: 1}, qtySlot{Qty: 1})
	s.Put(Key{Scope: "a", ID: 2}, qtySlot{Qty: 2})
	s.Put(Key{Scope: "b", ID: 3}, qtySlot{Qty: 3})

	sum := 0
	s.Each("a", func(_ int, v qtySlot) { sum += v.Qty })
	assert.Equal(t, 3, sum)
}
