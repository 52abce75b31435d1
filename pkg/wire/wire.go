package wire

// Field numbers are assigned once and never reused. The canonical encoding
// emits fields in tag order with repeated elements sorted (entries and updates
// by key, tables and deltas by name) so that identical logical contents always
// yield identical bytes. Unknown fields survive a decode/encode round-trip:
// they are captured raw and re-emitted after all known fields.

// Entry is a key/value pair: primary-key tuple and subsidiary tuple.
type Entry struct {
	Key   []string // field 1
	Value []string // field 2

	unknown []byte
}

// Update records a modified row. Blocks store updates dense (OldValue and
// NewValue carry every subsidiary column, ChangedIndices empty); patches store
// them sparse (ChangedIndices lists the positions that differ, NewValue lists
// only those positions, OldValue is empty).
type Update struct {
	Key            []string // field 1
	ChangedIndices []uint32 // field 2, packed
	OldValue       []string // field 3
	NewValue       []string // field 4

	unknown []byte
}

// Delta is the per-table change set.
type Delta struct {
	Name    string   // field 1
	Fields  []string // field 2, primary-key columns first
	Inserts []Entry  // field 3
	Deletes []Entry  // field 4
	Updates []Update // field 5

	unknown []byte
}

// Table is a full snapshot of one table.
type Table struct {
	Name       string   // field 1
	Fields     []string // field 2, primary-key columns first
	NumPrimary uint32   // field 3, arity of the primary key
	Rows       []Entry  // field 4

	unknown []byte
}

// State is a snapshot of every configured table.
type State struct {
	Tables []Table // field 1

	unknown []byte
}

// Block is one link of the chain. Its identity is the digest of its canonical
// encoding.
type Block struct {
	Parent  string  // field 1, hex digest or the all-zero genesis sentinel
	Created int64   // field 2, unix seconds
	Payload []Delta // field 3, at most one delta per table

	unknown []byte
}

// Deltas wraps the merged delta list of a patch payload.
type Deltas struct {
	Items []Delta // field 1

	unknown []byte
}

// Patch is the self-describing diff shipped to a receiver. At most one of
// Deltas and State is set; both nil means there is nothing to apply.
// HeadCreated is zero when unknown (full-state fallback).
type Patch struct {
	HeadHash    string  // field 1
	HeadCreated int64   // field 2, unix seconds, 0 = absent
	NumBlocks   uint32  // field 3
	Deltas      *Deltas // field 4, oneof payload
	State       *State  // field 5, oneof payload

	unknown []byte
}

// NumSub returns the number of subsidiary columns of a delta, derived from the
// field list and the key arity of any present row.
func (d *Delta) NumSub() int {
	numPK := 0
	switch {
	case len(d.Inserts) > 0:
		numPK = len(d.Inserts[0].Key)
	case len(d.Deletes) > 0:
		numPK = len(d.Deletes[0].Key)
	case len(d.Updates) > 0:
		numPK = len(d.Updates[0].Key)
	}
	if n := len(d.Fields) - numPK; n > 0 {
		return n
	}
	return 0
}
