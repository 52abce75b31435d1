package wire

import (
	"fmt"
	"strings"
	"time"
)

// FormatTimestamp renders a block creation time for human output.
func FormatTimestamp(unixSeconds int64) string {
	return time.Unix(unixSeconds, 0).UTC().Format("2006-01-02 15:04:05")
}

func indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}

func (e *Entry) String() string {
	return fmt.Sprintf("(%s) %s", strings.Join(e.Key, ", "), strings.Join(e.Value, ", "))
}

// String renders a delta for `block show` and `patch show`. Dense updates
// (block side) are compared positionally; sparse updates (patch side) follow
// their changed indices. Untouched columns print as "_".
func (d *Delta) String() string {
	numSub := d.NumSub()

	var b strings.Builder
	fmt.Fprintf(&b, "'%s' [%s]", d.Name, strings.Join(d.Fields, ", "))

	if len(d.Inserts) > 0 {
		fmt.Fprintf(&b, "\n  Inserts (%d):", len(d.Inserts))
		for i := range d.Inserts {
			fmt.Fprintf(&b, "\n    %s", d.Inserts[i].String())
		}
	}
	if len(d.Deletes) > 0 {
		fmt.Fprintf(&b, "\n  Deletes (%d):", len(d.Deletes))
		for i := range d.Deletes {
			e := &d.Deletes[i]
			vals := strings.Join(e.Value, ", ")
			if len(e.Value) == 0 {
				vals = strings.Join(placeholders(numSub), ", ")
			}
			fmt.Fprintf(&b, "\n    (%s) %s", strings.Join(e.Key, ", "), vals)
		}
	}
	if len(d.Updates) > 0 {
		fmt.Fprintf(&b, "\n  Updates (%d):", len(d.Updates))
		for i := range d.Updates {
			u := &d.Updates[i]
			fmt.Fprintf(&b, "\n    (%s) %s", strings.Join(u.Key, ", "),
				strings.Join(formatUpdateColumns(u, numSub), ", "))
		}
	}
	return b.String()
}

func placeholders(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "_"
	}
	return out
}

func formatUpdateColumns(u *Update, numSub int) []string {
	isDense := len(u.ChangedIndices) == 0 && len(u.NewValue) > 0
	hasOld := len(u.OldValue) > 0

	cols := make([]string, 0, numSub)
	if isDense {
		for i := 0; i < numSub; i++ {
			newVal := valueAt(u.NewValue, i)
			if !hasOld {
				cols = append(cols, newVal)
				continue
			}
			oldVal := valueAt(u.OldValue, i)
			if oldVal != newVal {
				cols = append(cols, fmt.Sprintf("%s -> %s", oldVal, newVal))
			} else {
				cols = append(cols, "_")
			}
		}
		return cols
	}

	changed := make(map[uint32]bool, len(u.ChangedIndices))
	for _, idx := range u.ChangedIndices {
		changed[idx] = true
	}
	newPos, oldPos := 0, 0
	for i := 0; i < numSub; i++ {
		if !changed[uint32(i)] {
			cols = append(cols, "_")
			continue
		}
		newVal := valueAt(u.NewValue, newPos)
		newPos++
		if hasOld {
			oldVal := valueAt(u.OldValue, oldPos)
			oldPos++
			cols = append(cols, fmt.Sprintf("%s -> %s", oldVal, newVal))
		} else {
			cols = append(cols, newVal)
		}
	}
	return cols
}

func valueAt(vals []string, i int) string {
	if i < len(vals) {
		return vals[i]
	}
	return "?"
}

func (t *Table) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "'%s' [%s] (%d records)", t.Name, strings.Join(t.Fields, ", "), len(t.Rows))
	for i := range t.Rows {
		fmt.Fprintf(&b, "\n  %s", t.Rows[i].String())
	}
	return b.String()
}

func (s *State) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "State (%d tables):", len(s.Tables))
	for i := range s.Tables {
		fmt.Fprintf(&b, "\n  %s", indent(s.Tables[i].String(), "  "))
	}
	return b.String()
}

func (bl *Block) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Parent: %s", bl.Parent)
	fmt.Fprintf(&b, "\nCreated: %s", FormatTimestamp(bl.Created))
	fmt.Fprintf(&b, "\nDeltas (%d):", len(bl.Payload))
	for i := range bl.Payload {
		fmt.Fprintf(&b, "\n  %s", indent(bl.Payload[i].String(), "  "))
	}
	return b.String()
}

func (p *Patch) String() string {
	var b strings.Builder
	b.WriteString("Patch:")
	fmt.Fprintf(&b, "\n  Head: %s", p.HeadHash)
	if p.HeadCreated != 0 {
		fmt.Fprintf(&b, "\n  Created: %s", FormatTimestamp(p.HeadCreated))
	} else {
		b.WriteString("\n  Created: N/A")
	}
	fmt.Fprintf(&b, "\n  Blocks: %d", p.NumBlocks)
	switch {
	case p.Deltas != nil:
		fmt.Fprintf(&b, "\n  Payload (%d deltas):", len(p.Deltas.Items))
		for i := range p.Deltas.Items {
			fmt.Fprintf(&b, "\n    %s", indent(p.Deltas.Items[i].String(), "    "))
		}
	case p.State != nil:
		b.WriteString("\n  Payload (full state):")
		fmt.Fprintf(&b, "\n    %s", indent(p.State.String(), "    "))
	default:
		b.WriteString("\n  Payload: None")
	}
	return b.String()
}
