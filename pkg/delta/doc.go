/*
Package delta computes and composes per-table change sets.

A Delta holds the inserts, deletes and updates that transform one table
snapshot into another. Deltas are computed between consecutive states at
block-create time and merged pairwise during patch consolidation.

# Merge Rules

Merging classifies every key of the child delta by the parent's operation for
the same key. The full grid:

	#   parent     child      result
	1   none       I(v)       insert passes through
	2   none       D(v)       delete passes through
	3   none       U(o,n)     update passes through
	4   I(v)       none       unchanged
	5   I(v1)      I(v2)      conflict (double insert)
	6   I(v1)      D(v2)      cancels out (v2 not validated)
	7   I(v1)      U(o,n)     insert of n
	8   D(v)       none       unchanged
	9a  D(v1)      I(v1)      cancels out
	9b  D(v1)      I(v2)      update (v1 -> v2)
	10  D(v1)      D(v2)      conflict (double delete)
	11  D(v)       U(o,n)     conflict (update after delete)
	12  U(o,n)     none       unchanged
	13  U(o,n)     I(v)       conflict (insert after update)
	14a U(o,n)     D(n)       delete of o
	14b U(o,n)     D(v), v≠n  conflict (value mismatch)
	15  U(o1,n1)   U(o2,n2)   per-column recombination

Rule 15 rewrites per column: positions the child changed take the child's new
value, and additionally take the child's old value when the parent had not
touched that position. The stored old value therefore remains the value seen
at the start of the parent delta and the new value the one at the end of the
child delta, even for sparse updates expanded from the wire. When the result
differs from its old value at no position (for example U(a,b) followed by
U(b,a)), the update is dropped.

# Wire Forms

Block deltas carry dense updates (full old and new tuples). Patch deltas are
compacted by SparsifyForPatch: deletes lose their subsidiary values and
updates keep only the changed positions. FromWire re-expands sparse updates
because merging operates on full tuples.
*/
package delta
