package delta

import (
	"fmt"
	"strings"

	"github.com/cuemby/leech/pkg/table"
)

// SchemaMismatchError indicates two deltas with different column lists cannot
// merge.
type SchemaMismatchError struct {
	Table string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("cannot merge deltas for table '%s': field mismatch", e.Table)
}

// MergeConflictError reports one of the conflicting merge rules (5, 10, 11,
// 13, 14b) for a specific key.
type MergeConflictError struct {
	Table  string
	Key    []string
	Rule   string
	Reason string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("conflict in table '%s' for key (%s): %s (rule %s)",
		e.Table, strings.Join(e.Key, ", "), e.Reason, e.Rule)
}

// Merge folds a child delta into this one, producing a single delta with the
// combined effect. Both deltas must describe the same column list.
//
// The composition follows a closed set of fifteen rules over (parent op,
// child op) pairs; the conflicting combinations are double insert (5), double
// delete (10), update after delete (11), insert after update (13) and delete
// whose value does not match the parent update's result (14b). Insert
// followed by delete cancels without validating the deleted value against the
// inserted one.
func (d *Delta) Merge(child *Delta) error {
	if !equalValues(d.Fields, child.Fields) {
		return &SchemaMismatchError{Table: d.Name}
	}

	for key, value := range child.Inserts {
		if err := d.mergeInsert(key, value); err != nil {
			return err
		}
	}
	for key, value := range child.Deletes {
		if err := d.mergeDelete(key, value); err != nil {
			return err
		}
	}
	for key, pair := range child.Updates {
		if err := d.mergeUpdate(key, pair.Old, pair.New); err != nil {
			return err
		}
	}
	return nil
}

func (d *Delta) mergeInsert(key string, value []string) error {
	switch {
	case hasKey(d.Inserts, key):
		// Rule 5: double insert
		return &MergeConflictError{
			Table:  d.Name,
			Key:    table.KeyParts(key),
			Rule:   "5",
			Reason: "inserted in both blocks",
		}
	case hasKey(d.Deletes, key):
		deleted := d.Deletes[key]
		delete(d.Deletes, key)
		if equalValues(deleted, value) {
			// Rule 9a: delete then insert with the same value cancels out
			return nil
		}
		// Rule 9b: delete then insert with a different value becomes an update
		d.Updates[key] = ValuePair{Old: deleted, New: value}
	case hasUpdate(d.Updates, key):
		// Rule 13: insert after update
		return &MergeConflictError{
			Table:  d.Name,
			Key:    table.KeyParts(key),
			Rule:   "13",
			Reason: "updated in parent, inserted in child",
		}
	default:
		// Rule 1: pass through
		d.Inserts[key] = value
	}
	return nil
}

func (d *Delta) mergeDelete(key string, value []string) error {
	switch {
	case hasKey(d.Inserts, key):
		// Rule 6: insert then delete cancels out. The deleted value is not
		// validated against the inserted one.
		delete(d.Inserts, key)
	case hasKey(d.Deletes, key):
		// Rule 10: double delete
		return &MergeConflictError{
			Table:  d.Name,
			Key:    table.KeyParts(key),
			Rule:   "10",
			Reason: "deleted in both blocks",
		}
	case hasUpdate(d.Updates, key):
		pair := d.Updates[key]
		if !equalValues(value, pair.New) {
			// Rule 14b: delete value does not match the update's result
			return &MergeConflictError{
				Table:  d.Name,
				Key:    table.KeyParts(key),
				Rule:   "14b",
				Reason: "updated in parent, deleted with a different value",
			}
		}
		// Rule 14a: update then delete becomes a delete of the original value
		delete(d.Updates, key)
		d.Deletes[key] = pair.Old
	default:
		// Rule 2: pass through
		d.Deletes[key] = value
	}
	return nil
}

func (d *Delta) mergeUpdate(key string, oldValue, newValue []string) error {
	switch {
	case hasKey(d.Inserts, key):
		// Rule 7: insert then update becomes an insert of the new value
		d.Inserts[key] = newValue
	case hasKey(d.Deletes, key):
		// Rule 11: update after delete
		return &MergeConflictError{
			Table:  d.Name,
			Key:    table.KeyParts(key),
			Rule:   "11",
			Reason: "deleted in parent, updated in child",
		}
	case hasUpdate(d.Updates, key):
		// Rule 15: update then update. Only positions the child actually
		// changed move; the stored old value stays the value seen at the
		// start of the parent delta. An update left with no differing
		// position is a net no-op and is dropped.
		pair := d.Updates[key]
		for i := range pair.Old {
			if i >= len(oldValue) || i >= len(newValue) {
				break
			}
			parentChanged := pair.Old[i] != pair.New[i]
			childChanged := oldValue[i] != newValue[i]
			if childChanged {
				pair.New[i] = newValue[i]
				if !parentChanged {
					pair.Old[i] = oldValue[i]
				}
			}
		}
		if equalValues(pair.Old, pair.New) {
			delete(d.Updates, key)
			return nil
		}
		d.Updates[key] = pair
	default:
		// Rule 3: pass through
		d.Updates[key] = ValuePair{Old: oldValue, New: newValue}
	}
	return nil
}

func hasKey(m map[string][]string, key string) bool {
	_, ok := m[key]
	return ok
}

func hasUpdate(m map[string]ValuePair, key string) bool {
	_, ok := m[key]
	return ok
}
