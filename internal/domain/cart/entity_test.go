package cart

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string, qty int) LineItem {
	return LineItem{ProductID: id, Slug: id + "-slug", Name: "Name " + id, Price: 10, Quantity: qty}
}

func TestAdd_RepeatedAddsSumDeltas(t *testing.T) {
	s := Empty()
	deltas := []int{1, 3, 2, 1}
	var err error
	for _, d := range deltas {
		s, err = s.Add(item("A", d))
		require.NoError(t, err)
	}

	require.Len(t, s.Items, 1)
	assert.Equal(t, 7, s.Items[0].Quantity)
}

func TestAdd_KeepsDescriptiveFieldsOfExistingEntry(t *testing.T) {
	s, err := Empty().Add(LineItem{ProductID: "A", Name: "Strat", Price: 999, Quantity: 1})
	require.NoError(t, err)

	s, err = s.Add(LineItem{ProductID: "A", Name: "Other", Price: 1, Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, "Strat", s.Items[0].Name)
	assert.Equal(t, 999.0, s.Items[0].Price)
	assert.Equal(t, 3, s.Items[0].Quantity)
}

func TestAdd_AppendsInInsertionOrder(t *testing.T) {
	s := Empty()
	for _, id := range []string{"C", "A", "B"} {
		var err error
		s, err = s.Add(item(id, 1))
		require.NoError(t, err)
	}
	s, _ = s.Add(item("A", 1))

	got := []string{}
	for _, it := range s.Items {
		got = append(got, it.ProductID)
	}
	assert.Equal(t, []string{"C", "A", "B"}, got)
}

func TestAdd_RejectsInvalid(t *testing.T) {
	_, err := Empty().Add(item("", 1))
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = Empty().Add(item("A", 0))
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestAdd_DoesNotAliasReceiver(t *testing.T) {
	base, _ := Empty().Add(item("A", 1))
	next, _ := base.Add(item("A", 1))

	assert.Equal(t, 1, base.Items[0].Quantity)
	assert.Equal(t, 2, next.Items[0].Quantity)
}

func TestSetQuantity_NonPositiveRemoves(t *testing.T) {
	for _, q := range []int{0, -5} {
		s, _ := Empty().Add(item("A", 2))
		s, _ = s.Add(item("B", 1))

		got := s.SetQuantity("A", q)
		assert.Equal(t, -1, got.Find("A"), "qty=%d", q)
		assert.Equal(t, s.Remove("A"), got)
	}
}

func TestSetQuantity_SetsExactValue(t *testing.T) {
	s, _ := Empty().Add(item("A", 2))
	s = s.SetQuantity("A", 5)
	assert.Equal(t, 5, s.Items[0].Quantity)

	// absent id is a no-op
	same := s.SetQuantity("Z", 3)
	assert.Empty(t, cmp.Diff(s, same))
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	s, _ := Empty().Add(item("A", 2))
	got := s.Remove("nope")
	assert.Empty(t, cmp.Diff(s, got))
}

func TestCountAndIsEmpty(t *testing.T) {
	s := Empty()
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Count())

	s, _ = s.Add(item("A", 2))
	s, _ = s.Add(item("B", 3))
	assert.False(t, s.IsEmpty())
	assert.Equal(t, 5, s.Count())

	s = s.SetQuantity("A", 0)
	s = s.Remove("B")
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Count())
}

func TestValidate(t *testing.T) {
	ok := Snapshot{Items: []LineItem{item("A", 1), item("B", 2)}}
	assert.NoError(t, ok.Validate())

	dup := Snapshot{Items: []LineItem{item("A", 1), item("A", 2)}}
	assert.ErrorIs(t, dup.Validate(), ErrInvalidSnapshot)

	zero := Snapshot{Items: []LineItem{item("A", 0)}}
	assert.ErrorIs(t, zero.Validate(), ErrInvalidSnapshot)

	blank := Snapshot{Items: []LineItem{item(" ", 1)}}
	assert.ErrorIs(t, blank.Validate(), ErrInvalidSnapshot)
}

func TestReduceAndFromReduced(t *testing.T) {
	s, _ := Empty().Add(item("A", 2))
	s, _ = s.Add(item("B", 1))
	s.Seq = 42

	red := s.Reduce()
	assert.Equal(t, []ReducedItem{{ProductID: "A", Quantity: 2}, {ProductID: "B", Quantity: 1}}, red)

	back := FromReduced(append(red, ReducedItem{ProductID: "A", Quantity: 9}, ReducedItem{ProductID: "C"}), s.Seq)
	want := Snapshot{
		Items: []LineItem{{ProductID: "A", Quantity: 2}, {ProductID: "B", Quantity: 1}},
		Seq:   42,
	}
	assert.Empty(t, cmp.Diff(want, back))
}
