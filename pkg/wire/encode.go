package wire

import (
	"sort"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// appendStrings emits every element, including empty strings: repeated fields
// have no zero-value elision.
func appendStrings(b []byte, num protowire.Number, ss []string) []byte {
	for _, s := range ss {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	return b
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendPacked(b []byte, num protowire.Number, vs []uint32) []byte {
	if len(vs) == 0 {
		return b
	}
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, uint64(v))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func appendMessage(b []byte, num protowire.Number, enc []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, enc)
}

func keyLess(a, b []string) bool {
	return strings.Join(a, "\x1f") < strings.Join(b, "\x1f")
}

func sortedEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return keyLess(out[i].Key, out[j].Key) })
	return out
}

func sortedUpdates(updates []Update) []Update {
	out := make([]Update, len(updates))
	copy(out, updates)
	sort.Slice(out, func(i, j int) bool { return keyLess(out[i].Key, out[j].Key) })
	return out
}

func sortedDeltas(deltas []Delta) []Delta {
	out := make([]Delta, len(deltas))
	copy(out, deltas)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedTables(tables []Table) []Table {
	out := make([]Table, len(tables))
	copy(out, tables)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EncodeEntry returns the canonical encoding of e.
func EncodeEntry(e *Entry) []byte {
	var b []byte
	b = appendStrings(b, 1, e.Key)
	b = appendStrings(b, 2, e.Value)
	return append(b, e.unknown...)
}

// EncodeUpdate returns the canonical encoding of u.
func EncodeUpdate(u *Update) []byte {
	var b []byte
	b = appendStrings(b, 1, u.Key)
	b = appendPacked(b, 2, u.ChangedIndices)
	b = appendStrings(b, 3, u.OldValue)
	b = appendStrings(b, 4, u.NewValue)
	return append(b, u.unknown...)
}

// EncodeDelta returns the canonical encoding of d.
func EncodeDelta(d *Delta) []byte {
	var b []byte
	b = appendString(b, 1, d.Name)
	b = appendStrings(b, 2, d.Fields)
	for _, e := range sortedEntries(d.Inserts) {
		b = appendMessage(b, 3, EncodeEntry(&e))
	}
	for _, e := range sortedEntries(d.Deletes) {
		b = appendMessage(b, 4, EncodeEntry(&e))
	}
	for _, u := range sortedUpdates(d.Updates) {
		b = appendMessage(b, 5, EncodeUpdate(&u))
	}
	return append(b, d.unknown...)
}

// EncodeTable returns the canonical encoding of t.
func EncodeTable(t *Table) []byte {
	var b []byte
	b = appendString(b, 1, t.Name)
	b = appendStrings(b, 2, t.Fields)
	b = appendVarint(b, 3, uint64(t.NumPrimary))
	for _, e := range sortedEntries(t.Rows) {
		b = appendMessage(b, 4, EncodeEntry(&e))
	}
	return append(b, t.unknown...)
}

// EncodeState returns the canonical encoding of s.
func EncodeState(s *State) []byte {
	var b []byte
	for _, t := range sortedTables(s.Tables) {
		b = appendMessage(b, 1, EncodeTable(&t))
	}
	return append(b, s.unknown...)
}

// EncodeBlock returns the canonical encoding of bl. These are the bytes whose
// digest is the block's identity and on-disk name.
func EncodeBlock(bl *Block) []byte {
	var b []byte
	b = appendString(b, 1, bl.Parent)
	b = appendVarint(b, 2, uint64(bl.Created))
	for _, d := range sortedDeltas(bl.Payload) {
		b = appendMessage(b, 3, EncodeDelta(&d))
	}
	return append(b, bl.unknown...)
}

// EncodeDeltas returns the canonical encoding of ds.
func EncodeDeltas(ds *Deltas) []byte {
	var b []byte
	for _, d := range sortedDeltas(ds.Items) {
		b = appendMessage(b, 1, EncodeDelta(&d))
	}
	return append(b, ds.unknown...)
}

// EncodePatch returns the canonical encoding of p, without framing.
func EncodePatch(p *Patch) []byte {
	var b []byte
	b = appendString(b, 1, p.HeadHash)
	b = appendVarint(b, 2, uint64(p.HeadCreated))
	b = appendVarint(b, 3, uint64(p.NumBlocks))
	if p.Deltas != nil {
		b = appendMessage(b, 4, EncodeDeltas(p.Deltas))
	}
	if p.State != nil {
		b = appendMessage(b, 5, EncodeState(p.State))
	}
	return append(b, p.unknown...)
}
