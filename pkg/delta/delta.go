package delta

import (
	"sort"

	"github.com/cuemby/leech/pkg/log"
	"github.com/cuemby/leech/pkg/state"
	"github.com/cuemby/leech/pkg/table"
	"github.com/cuemby/leech/pkg/wire"
)

// ValuePair holds the before and after subsidiary tuples of an updated row.
type ValuePair struct {
	Old []string
	New []string
}

// Delta is the change set of a single table between two snapshots. The three
// key sets are pairwise disjoint; every update differs from its old value at
// some position. Keys are joined primary-key tuples (see table.KeyOf).
type Delta struct {
	Name    string
	Fields  []string
	Inserts map[string][]string
	Deletes map[string][]string
	Updates map[string]ValuePair
}

// New returns an empty delta for the named table.
func New(name string, fields []string) *Delta {
	return &Delta{
		Name:    name,
		Fields:  fields,
		Inserts: make(map[string][]string),
		Deletes: make(map[string][]string),
		Updates: make(map[string]ValuePair),
	}
}

// Empty reports whether the delta carries no changes.
func (d *Delta) Empty() bool {
	return len(d.Inserts) == 0 && len(d.Deletes) == 0 && len(d.Updates) == 0
}

// Compute derives per-table deltas between two states. A table absent from
// previous contributes all rows as inserts; a table absent from current
// contributes all rows as deletes; unchanged tables are elided. previous may
// be nil on the first block. The result is sorted by table name.
func Compute(previous, current *state.State) []*Delta {
	var deltas []*Delta

	for name, cur := range current.Tables {
		var prev *table.Table
		if previous != nil {
			prev = previous.Tables[name]
		}

		d := computeTable(name, prev, cur)
		if d.Empty() {
			continue
		}
		log.Logger.Debug().
			Str("table", name).
			Int("inserts", len(d.Inserts)).
			Int("deletes", len(d.Deletes)).
			Int("updates", len(d.Updates)).
			Msg("Computed delta")
		deltas = append(deltas, d)
	}

	// Tables only in the previous state: every record is a delete.
	if previous != nil {
		for name, prev := range previous.Tables {
			if _, ok := current.Tables[name]; ok {
				continue
			}
			if len(prev.Records) == 0 {
				continue
			}
			d := New(name, prev.Fields)
			for key, value := range prev.Records {
				d.Deletes[key] = value
			}
			deltas = append(deltas, d)
		}
	}

	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Name < deltas[j].Name })
	return deltas
}

func computeTable(name string, prev, cur *table.Table) *Delta {
	d := New(name, cur.Fields)

	if prev == nil {
		for key, value := range cur.Records {
			d.Inserts[key] = value
		}
		return d
	}

	for key, value := range prev.Records {
		if _, ok := cur.Records[key]; !ok {
			d.Deletes[key] = value
		}
	}

	for key, curValue := range cur.Records {
		prevValue, ok := prev.Records[key]
		switch {
		case !ok:
			d.Inserts[key] = curValue
		case !equalValues(prevValue, curValue):
			d.Updates[key] = ValuePair{Old: prevValue, New: curValue}
		}
	}

	return d
}

func equalValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Wire converts the delta to its block-side wire form with dense updates.
func (d *Delta) Wire() *wire.Delta {
	w := &wire.Delta{
		Name:    d.Name,
		Fields:  d.Fields,
		Inserts: make([]wire.Entry, 0, len(d.Inserts)),
		Deletes: make([]wire.Entry, 0, len(d.Deletes)),
		Updates: make([]wire.Update, 0, len(d.Updates)),
	}
	for key, value := range d.Inserts {
		w.Inserts = append(w.Inserts, wire.Entry{Key: table.KeyParts(key), Value: value})
	}
	for key, value := range d.Deletes {
		w.Deletes = append(w.Deletes, wire.Entry{Key: table.KeyParts(key), Value: value})
	}
	for key, pair := range d.Updates {
		w.Updates = append(w.Updates, wire.Update{
			Key:      table.KeyParts(key),
			OldValue: pair.Old,
			NewValue: pair.New,
		})
	}
	return w
}

// FromWire rebuilds a delta from its wire form, expanding sparse updates to
// full-length tuples.
func FromWire(w *wire.Delta) *Delta {
	numSub := w.NumSub()
	d := New(w.Name, w.Fields)
	for i := range w.Inserts {
		d.Inserts[table.KeyOf(w.Inserts[i].Key)] = w.Inserts[i].Value
	}
	for i := range w.Deletes {
		d.Deletes[table.KeyOf(w.Deletes[i].Key)] = w.Deletes[i].Value
	}
	for i := range w.Updates {
		u := &w.Updates[i]
		d.Updates[table.KeyOf(u.Key)] = ValuePair{
			Old: expandSparse(u.ChangedIndices, u.OldValue, numSub),
			New: expandSparse(u.ChangedIndices, u.NewValue, numSub),
		}
	}
	return d
}

// expandSparse rebuilds a full-length tuple from sparse values. Positions not
// listed in indices are filled with empty strings. A dense tuple (no indices)
// passes through as a copy.
func expandSparse(indices []uint32, sparse []string, numSub int) []string {
	if len(indices) == 0 {
		out := make([]string, len(sparse))
		copy(out, sparse)
		return out
	}
	full := make([]string, numSub)
	for i, idx := range indices {
		if i < len(sparse) && int(idx) < numSub {
			full[idx] = sparse[i]
		}
	}
	return full
}

// SparsifyForPatch rewrites a dense wire delta into the compact patch form:
// delete rows lose their subsidiary values and updates are sparse-encoded to
// the changed positions and their new values only. The receiver applies a
// fully consolidated patch, so old values are never needed on the wire.
func SparsifyForPatch(w *wire.Delta) {
	for i := range w.Deletes {
		w.Deletes[i].Value = nil
	}
	for i := range w.Updates {
		u := &w.Updates[i]
		var indices []uint32
		var newValues []string
		n := len(u.OldValue)
		if len(u.NewValue) < n {
			n = len(u.NewValue)
		}
		for j := 0; j < n; j++ {
			if u.OldValue[j] != u.NewValue[j] {
				indices = append(indices, uint32(j))
				newValues = append(newValues, u.NewValue[j])
			}
		}
		u.ChangedIndices = indices
		u.OldValue = nil
		u.NewValue = newValues
	}
}
