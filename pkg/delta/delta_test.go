package delta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/leech/pkg/state"
	"github.com/cuemby/leech/pkg/table"
	"github.com/cuemby/leech/pkg/wire"
)

func makeTable(rows map[string][]string) *table.Table {
	return &table.Table{Records: rows}
}

func makeState(tables map[string]*table.Table) *state.State {
	return &state.State{Tables: tables}
}

func key(parts ...string) string {
	return table.KeyOf(parts)
}

func findDelta(deltas []*Delta, name string) *Delta {
	for _, d := range deltas {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func TestComputeNoPreviousStateAllInserts(t *testing.T) {
	current := makeState(map[string]*table.Table{
		"users": makeTable(map[string][]string{
			key("1"): {"alice"},
			key("2"): {"bob"},
		}),
	})

	deltas := Compute(nil, current)

	require.Len(t, deltas, 1)
	d := findDelta(deltas, "users")
	require.NotNil(t, d)
	assert.Len(t, d.Inserts, 2)
	assert.Empty(t, d.Deletes)
	assert.Empty(t, d.Updates)
}

func TestComputeTableOnlyInPreviousAllDeletes(t *testing.T) {
	previous := makeState(map[string]*table.Table{
		"old_table": makeTable(map[string][]string{
			key("1"): {"data1"},
			key("2"): {"data2"},
		}),
	})
	current := makeState(map[string]*table.Table{})

	deltas := Compute(previous, current)

	require.Len(t, deltas, 1)
	d := findDelta(deltas, "old_table")
	require.NotNil(t, d)
	assert.Empty(t, d.Inserts)
	assert.Len(t, d.Deletes, 2)
	assert.Empty(t, d.Updates)
}

func TestComputeMixedChanges(t *testing.T) {
	previous := makeState(map[string]*table.Table{
		"users": makeTable(map[string][]string{
			key("1"): {"alice"},   // will be updated
			key("2"): {"bob"},     // will be deleted
			key("3"): {"charlie"}, // unchanged
		}),
	})
	current := makeState(map[string]*table.Table{
		"users": makeTable(map[string][]string{
			key("1"): {"alice_updated"},
			key("3"): {"charlie"},
			key("4"): {"dave"},
		}),
	})

	deltas := Compute(previous, current)

	require.Len(t, deltas, 1)
	d := findDelta(deltas, "users")
	require.NotNil(t, d)

	assert.Len(t, d.Inserts, 1)
	assert.Contains(t, d.Inserts, key("4"))

	assert.Len(t, d.Deletes, 1)
	assert.Contains(t, d.Deletes, key("2"))

	// Key "1" changed, key "3" is identical and skipped.
	assert.Len(t, d.Updates, 1)
	assert.Contains(t, d.Updates, key("1"))
}

func TestComputeMultipleTables(t *testing.T) {
	previous := makeState(map[string]*table.Table{
		"table_a": makeTable(map[string][]string{key("1"): {"a"}}),
		"table_b": makeTable(map[string][]string{key("1"): {"b"}}),
	})
	current := makeState(map[string]*table.Table{
		"table_b": makeTable(map[string][]string{key("2"): {"b2"}}),
		"table_c": makeTable(map[string][]string{key("1"): {"c"}}),
	})

	deltas := Compute(previous, current)
	require.Len(t, deltas, 3)

	da := findDelta(deltas, "table_a")
	require.NotNil(t, da)
	assert.Len(t, da.Deletes, 1)
	assert.Empty(t, da.Inserts)

	db := findDelta(deltas, "table_b")
	require.NotNil(t, db)
	assert.Contains(t, db.Deletes, key("1"))
	assert.Contains(t, db.Inserts, key("2"))

	dc := findDelta(deltas, "table_c")
	require.NotNil(t, dc)
	assert.Len(t, dc.Inserts, 1)
	assert.Empty(t, dc.Deletes)
}

func TestComputeEmptyStates(t *testing.T) {
	deltas := Compute(makeState(map[string]*table.Table{}), makeState(map[string]*table.Table{}))
	assert.Empty(t, deltas)
}

func TestComputeIdenticalStatesElided(t *testing.T) {
	rows := map[string][]string{
		key("1"): {"alice"},
		key("2"): {"bob"},
	}
	previous := makeState(map[string]*table.Table{
		"unchanged": makeTable(rows),
		"changed":   makeTable(map[string][]string{key("1"): {"old_value"}}),
	})
	current := makeState(map[string]*table.Table{
		"unchanged": makeTable(rows),
		"changed":   makeTable(map[string][]string{key("1"): {"new_value"}}),
	})

	deltas := Compute(previous, current)

	require.Len(t, deltas, 1)
	assert.NotNil(t, findDelta(deltas, "changed"))
	assert.Nil(t, findDelta(deltas, "unchanged"))
}

func TestComputeCompositeKey(t *testing.T) {
	previous := makeState(map[string]*table.Table{
		"orders": makeTable(map[string][]string{
			key("user1", "order1"): {"100"},
			key("user1", "order2"): {"200"},
		}),
	})
	current := makeState(map[string]*table.Table{
		"orders": makeTable(map[string][]string{
			key("user1", "order1"): {"150"},
			key("user2", "order1"): {"300"},
		}),
	})

	deltas := Compute(previous, current)

	d := findDelta(deltas, "orders")
	require.NotNil(t, d)
	assert.Contains(t, d.Inserts, key("user2", "order1"))
	assert.Contains(t, d.Deletes, key("user1", "order2"))
	assert.Contains(t, d.Updates, key("user1", "order1"))
}

// ---- Merge rule tests ----

func emptyDelta() *Delta {
	return New("t", nil)
}

// Rule 1: child insert, no parent entry
func TestMergeRule1InsertPassesThrough(t *testing.T) {
	parent := emptyDelta()
	child := emptyDelta()
	child.Inserts[key("3")] = []string{"Charlie"}

	require.NoError(t, parent.Merge(child))

	assert.Equal(t, []string{"Charlie"}, parent.Inserts[key("3")])
	assert.Empty(t, parent.Deletes)
	assert.Empty(t, parent.Updates)
}

// Rule 2: child delete, no parent entry
func TestMergeRule2DeletePassesThrough(t *testing.T) {
	parent := emptyDelta()
	child := emptyDelta()
	child.Deletes[key("2")] = []string{"Bob"}

	require.NoError(t, parent.Merge(child))

	assert.Equal(t, []string{"Bob"}, parent.Deletes[key("2")])
	assert.Empty(t, parent.Inserts)
	assert.Empty(t, parent.Updates)
}

// Rule 3: child update, no parent entry
func TestMergeRule3UpdatePassesThrough(t *testing.T) {
	parent := emptyDelta()
	child := emptyDelta()
	child.Updates[key("1")] = ValuePair{Old: []string{"Alice"}, New: []string{"Alicia"}}

	require.NoError(t, parent.Merge(child))

	require.Contains(t, parent.Updates, key("1"))
	assert.Equal(t, []string{"Alice"}, parent.Updates[key("1")].Old)
	assert.Equal(t, []string{"Alicia"}, parent.Updates[key("1")].New)
}

// Rule 4: parent insert survives an empty child
func TestMergeRule4ParentInsertStays(t *testing.T) {
	parent := emptyDelta()
	parent.Inserts[key("3")] = []string{"Charlie"}

	require.NoError(t, parent.Merge(emptyDelta()))

	assert.Equal(t, []string{"Charlie"}, parent.Inserts[key("3")])
}

// Rule 5: double insert conflicts
func TestMergeRule5DoubleInsert(t *testing.T) {
	parent := emptyDelta()
	parent.Inserts[key("3")] = []string{"Charlie"}
	child := emptyDelta()
	child.Inserts[key("3")] = []string{"Charles"}

	err := parent.Merge(child)
	require.Error(t, err)
	var conflict *MergeConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "5", conflict.Rule)
}

// Rule 6: insert then delete cancels out
func TestMergeRule6InsertThenDeleteCancels(t *testing.T) {
	parent := emptyDelta()
	parent.Inserts[key("3")] = []string{"Charlie"}
	child := emptyDelta()
	// The deleted value is deliberately not validated against the insert.
	child.Deletes[key("3")] = []string{"Charles"}

	require.NoError(t, parent.Merge(child))

	assert.Empty(t, parent.Inserts)
	assert.Empty(t, parent.Deletes)
	assert.Empty(t, parent.Updates)
}

// Rule 7: insert then update becomes insert of the new value
func TestMergeRule7InsertThenUpdate(t *testing.T) {
	parent := emptyDelta()
	parent.Inserts[key("3")] = []string{"Charlie"}
	child := emptyDelta()
	child.Updates[key("3")] = ValuePair{Old: []string{"Charlie"}, New: []string{"Charles"}}

	require.NoError(t, parent.Merge(child))

	assert.Equal(t, []string{"Charles"}, parent.Inserts[key("3")])
	assert.Empty(t, parent.Deletes)
	assert.Empty(t, parent.Updates)
}

// Rule 8: parent delete survives an empty child
func TestMergeRule8ParentDeleteStays(t *testing.T) {
	parent := emptyDelta()
	parent.Deletes[key("2")] = []string{"Bob"}

	require.NoError(t, parent.Merge(emptyDelta()))

	assert.Equal(t, []string{"Bob"}, parent.Deletes[key("2")])
}

// Rule 9a: delete then insert of the same value cancels out
func TestMergeRule9aDeleteThenInsertSameCancels(t *testing.T) {
	parent := emptyDelta()
	parent.Deletes[key("2")] = []string{"Bob"}
	child := emptyDelta()
	child.Inserts[key("2")] = []string{"Bob"}

	require.NoError(t, parent.Merge(child))

	assert.Empty(t, parent.Inserts)
	assert.Empty(t, parent.Deletes)
	assert.Empty(t, parent.Updates)
}

// Rule 9b: delete then insert of a different value becomes an update
func TestMergeRule9bDeleteThenInsertDifferentBecomesUpdate(t *testing.T) {
	parent := emptyDelta()
	parent.Deletes[key("2")] = []string{"Bob"}
	child := emptyDelta()
	child.Inserts[key("2")] = []string{"Robert"}

	require.NoError(t, parent.Merge(child))

	assert.Empty(t, parent.Inserts)
	assert.Empty(t, parent.Deletes)
	require.Contains(t, parent.Updates, key("2"))
	assert.Equal(t, []string{"Bob"}, parent.Updates[key("2")].Old)
	assert.Equal(t, []string{"Robert"}, parent.Updates[key("2")].New)
}

// Rule 10: double delete conflicts
func TestMergeRule10DoubleDelete(t *testing.T) {
	parent := emptyDelta()
	parent.Deletes[key("2")] = []string{"Bob"}
	child := emptyDelta()
	child.Deletes[key("2")] = []string{"Bob"}

	err := parent.Merge(child)
	require.Error(t, err)
	var conflict *MergeConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "10", conflict.Rule)
}

// Rule 11: delete then update conflicts
func TestMergeRule11DeleteThenUpdate(t *testing.T) {
	parent := emptyDelta()
	parent.Deletes[key("2")] = []string{"Bob"}
	child := emptyDelta()
	child.Updates[key("2")] = ValuePair{Old: []string{"Bob"}, New: []string{"Robert"}}

	err := parent.Merge(child)
	require.Error(t, err)
	var conflict *MergeConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "11", conflict.Rule)
}

// Rule 12: parent update survives an empty child
func TestMergeRule12ParentUpdateStays(t *testing.T) {
	parent := emptyDelta()
	parent.Updates[key("1")] = ValuePair{Old: []string{"Alice"}, New: []string{"Alicia"}}

	require.NoError(t, parent.Merge(emptyDelta()))

	require.Contains(t, parent.Updates, key("1"))
	assert.Equal(t, []string{"Alice"}, parent.Updates[key("1")].Old)
	assert.Equal(t, []string{"Alicia"}, parent.Updates[key("1")].New)
}

// Rule 13: update then insert conflicts
func TestMergeRule13UpdateThenInsert(t *testing.T) {
	parent := emptyDelta()
	parent.Updates[key("1")] = ValuePair{Old: []string{"Alice"}, New: []string{"Alicia"}}
	child := emptyDelta()
	child.Inserts[key("1")] = []string{"Alice"}

	err := parent.Merge(child)
	require.Error(t, err)
	var conflict *MergeConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "13", conflict.Rule)
}

// Rule 14a: update then matching delete becomes a delete of the old value
func TestMergeRule14aUpdateThenDeleteMatching(t *testing.T) {
	parent := emptyDelta()
	parent.Updates[key("1")] = ValuePair{Old: []string{"Alice"}, New: []string{"Alicia"}}
	child := emptyDelta()
	child.Deletes[key("1")] = []string{"Alicia"}

	require.NoError(t, parent.Merge(child))

	assert.Empty(t, parent.Inserts)
	assert.Empty(t, parent.Updates)
	assert.Equal(t, []string{"Alice"}, parent.Deletes[key("1")])
}

// Rule 14b: update then mismatched delete conflicts
func TestMergeRule14bUpdateThenDeleteMismatch(t *testing.T) {
	parent := emptyDelta()
	parent.Updates[key("1")] = ValuePair{Old: []string{"Alice"}, New: []string{"Alicia"}}
	child := emptyDelta()
	child.Deletes[key("1")] = []string{"Alice"}

	err := parent.Merge(child)
	require.Error(t, err)
	var conflict *MergeConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "14b", conflict.Rule)
}

// Rule 15: update then update chains old1 -> new2
func TestMergeRule15UpdateThenUpdate(t *testing.T) {
	parent := emptyDelta()
	parent.Updates[key("1")] = ValuePair{Old: []string{"Alice"}, New: []string{"Alicia"}}
	child := emptyDelta()
	child.Updates[key("1")] = ValuePair{Old: []string{"Alicia"}, New: []string{"Ali"}}

	require.NoError(t, parent.Merge(child))

	require.Contains(t, parent.Updates, key("1"))
	assert.Equal(t, []string{"Alice"}, parent.Updates[key("1")].Old)
	assert.Equal(t, []string{"Ali"}, parent.Updates[key("1")].New)
	assert.Empty(t, parent.Inserts)
	assert.Empty(t, parent.Deletes)
}

// Rule 15 per-column: the child's untouched positions keep the parent's
// values, and positions the parent never touched pick up the child's old
// value.
func TestMergeRule15PerColumn(t *testing.T) {
	parent := emptyDelta()
	// Parent changed column 0 only.
	parent.Updates[key("1")] = ValuePair{
		Old: []string{"a1", "b1", "c1"},
		New: []string{"a2", "b1", "c1"},
	}
	child := emptyDelta()
	// Child changed columns 1 and 2.
	child.Updates[key("1")] = ValuePair{
		Old: []string{"a2", "b1", "c1"},
		New: []string{"a2", "b2", "c2"},
	}

	require.NoError(t, parent.Merge(child))

	pair := parent.Updates[key("1")]
	assert.Equal(t, []string{"a1", "b1", "c1"}, pair.Old)
	assert.Equal(t, []string{"a2", "b2", "c2"}, pair.New)
}

func TestMergeMultipleKeysMixedRules(t *testing.T) {
	parent := emptyDelta()
	parent.Inserts[key("3")] = []string{"Charlie"} // rule 7 below
	parent.Deletes[key("2")] = []string{"Bob"}     // rule 9b below
	parent.Updates[key("1")] = ValuePair{Old: []string{"Alice"}, New: []string{"Alicia"}} // rule 15 below

	child := emptyDelta()
	child.Updates[key("3")] = ValuePair{Old: []string{"Charlie"}, New: []string{"Charles"}}
	child.Inserts[key("2")] = []string{"Robert"}
	child.Updates[key("1")] = ValuePair{Old: []string{"Alicia"}, New: []string{"Ali"}}
	child.Inserts[key("4")] = []string{"Dave"}

	require.NoError(t, parent.Merge(child))

	assert.Len(t, parent.Inserts, 2)
	assert.Equal(t, []string{"Charles"}, parent.Inserts[key("3")])
	assert.Equal(t, []string{"Dave"}, parent.Inserts[key("4")])

	assert.Len(t, parent.Updates, 2)
	assert.Equal(t, []string{"Bob"}, parent.Updates[key("2")].Old)
	assert.Equal(t, []string{"Robert"}, parent.Updates[key("2")].New)
	assert.Equal(t, []string{"Alice"}, parent.Updates[key("1")].Old)
	assert.Equal(t, []string{"Ali"}, parent.Updates[key("1")].New)

	assert.Empty(t, parent.Deletes)
}

// merge(merge(A,B),C) == merge(A, merge(B,C)) whenever both sides succeed.
func TestMergeAssociativity(t *testing.T) {
	build := func() (*Delta, *Delta, *Delta) {
		a := emptyDelta()
		a.Inserts[key("1")] = []string{"v1"}
		a.Deletes[key("2")] = []string{"w1"}
		b := emptyDelta()
		b.Updates[key("1")] = ValuePair{Old: []string{"v1"}, New: []string{"v2"}}
		b.Inserts[key("2")] = []string{"w2"}
		c := emptyDelta()
		c.Updates[key("1")] = ValuePair{Old: []string{"v2"}, New: []string{"v3"}}
		c.Updates[key("2")] = ValuePair{Old: []string{"w2"}, New: []string{"w3"}}
		return a, b, c
	}

	// Left fold.
	a1, b1, c1 := build()
	require.NoError(t, a1.Merge(b1))
	require.NoError(t, a1.Merge(c1))

	// Right fold.
	a2, b2, c2 := build()
	require.NoError(t, b2.Merge(c2))
	require.NoError(t, a2.Merge(b2))

	assert.Equal(t, a1.Inserts, a2.Inserts)
	assert.Equal(t, a1.Deletes, a2.Deletes)
	assert.Equal(t, a1.Updates, a2.Updates)
}

func TestMergeFieldMismatch(t *testing.T) {
	parent := New("t", []string{"id", "name"})
	child := New("t", []string{"id", "email"})

	err := parent.Merge(child)
	require.Error(t, err)
	var mismatch *SchemaMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestMergeCompositeKeys(t *testing.T) {
	parent := emptyDelta()
	parent.Inserts[key("u1", "o1")] = []string{"100"}
	child := emptyDelta()
	child.Updates[key("u1", "o1")] = ValuePair{Old: []string{"100"}, New: []string{"150"}}

	require.NoError(t, parent.Merge(child))

	assert.Equal(t, []string{"150"}, parent.Inserts[key("u1", "o1")])
	assert.Empty(t, parent.Updates)
}

// ---- Wire conversion ----

func TestWireRoundTripDense(t *testing.T) {
	d := New("users", []string{"id", "name", "email"})
	d.Inserts[key("1")] = []string{"alice", "a@x"}
	d.Deletes[key("2")] = []string{"bob", "b@x"}
	d.Updates[key("3")] = ValuePair{Old: []string{"carol", "c@x"}, New: []string{"carol", "c@y"}}

	got := FromWire(d.Wire())

	assert.Equal(t, d.Inserts, got.Inserts)
	assert.Equal(t, d.Deletes, got.Deletes)
	assert.Equal(t, d.Updates, got.Updates)
}

func TestSparsifyForPatch(t *testing.T) {
	d := New("users", []string{"id", "name", "email"})
	d.Deletes[key("2")] = []string{"bob", "b@x"}
	d.Updates[key("1")] = ValuePair{
		Old: []string{"alice", "a@x"},
		New: []string{"alice", "a@y"},
	}

	w := d.Wire()
	SparsifyForPatch(w)

	require.Len(t, w.Deletes, 1)
	assert.Empty(t, w.Deletes[0].Value)

	require.Len(t, w.Updates, 1)
	u := w.Updates[0]
	// Only the email column (subsidiary index 1) changed.
	assert.Equal(t, []uint32{1}, u.ChangedIndices)
	assert.Equal(t, []string{"a@y"}, u.NewValue)
	assert.Empty(t, u.OldValue)
}

func TestSparseUpdateExpansion(t *testing.T) {
	w := &wire.Delta{
		Name:   "users",
		Fields: []string{"id", "name", "email"},
		Updates: []wire.Update{{
			Key:            []string{"1"},
			ChangedIndices: []uint32{1},
			NewValue:       []string{"a@y"},
		}},
	}

	d := FromWire(w)

	require.Contains(t, d.Updates, key("1"))
	assert.Equal(t, []string{"", "a@y"}, d.Updates[key("1")].New)
	assert.Equal(t, []string{"", ""}, d.Updates[key("1")].Old)
}
