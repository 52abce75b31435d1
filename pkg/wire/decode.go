package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// decoder walks a wire-format buffer field by field. Unrecognized fields are
// handed back raw so encoders can round-trip them.
type decoder struct {
	buf []byte
}

type field struct {
	num protowire.Number
	typ protowire.Type
	// val is the field payload for bytes fields, nil otherwise.
	val []byte
	// varint is the value for varint fields.
	varint uint64
	// raw is the full tag+value byte span, for unknown-field capture.
	raw []byte
}

func (d *decoder) next() (*field, error) {
	if len(d.buf) == 0 {
		return nil, nil
	}
	num, typ, n := protowire.ConsumeTag(d.buf)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	f := &field{num: num, typ: typ}
	rest := d.buf[n:]

	var vn int
	switch typ {
	case protowire.BytesType:
		var v []byte
		v, vn = protowire.ConsumeBytes(rest)
		if vn < 0 {
			return nil, protowire.ParseError(vn)
		}
		f.val = v
	case protowire.VarintType:
		var v uint64
		v, vn = protowire.ConsumeVarint(rest)
		if vn < 0 {
			return nil, protowire.ParseError(vn)
		}
		f.varint = v
	default:
		vn = protowire.ConsumeFieldValue(num, typ, rest)
		if vn < 0 {
			return nil, protowire.ParseError(vn)
		}
	}

	f.raw = d.buf[:n+vn]
	d.buf = d.buf[n+vn:]
	return f, nil
}

func (f *field) str() (string, error) {
	if f.typ != protowire.BytesType {
		return "", fmt.Errorf("field %d: expected length-delimited, got type %d", f.num, f.typ)
	}
	return string(f.val), nil
}

// packedUint32 accepts both packed and unpacked encodings of a repeated
// uint32 field.
func (f *field) packedUint32(into []uint32) ([]uint32, error) {
	if f.typ == protowire.VarintType {
		return append(into, uint32(f.varint)), nil
	}
	if f.typ != protowire.BytesType {
		return nil, fmt.Errorf("field %d: unexpected wire type %d", f.num, f.typ)
	}
	buf := f.val
	for len(buf) > 0 {
		v, n := protowire.ConsumeVarint(buf)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		into = append(into, uint32(v))
		buf = buf[n:]
	}
	return into, nil
}

// DecodeEntry decodes an Entry message.
func DecodeEntry(data []byte) (*Entry, error) {
	e := &Entry{}
	d := decoder{buf: data}
	for {
		f, err := d.next()
		if err != nil {
			return nil, err
		}
		if f == nil {
			return e, nil
		}
		switch f.num {
		case 1:
			s, err := f.str()
			if err != nil {
				return nil, err
			}
			e.Key = append(e.Key, s)
		case 2:
			s, err := f.str()
			if err != nil {
				return nil, err
			}
			e.Value = append(e.Value, s)
		default:
			e.unknown = append(e.unknown, f.raw...)
		}
	}
}

// DecodeUpdate decodes an Update message.
func DecodeUpdate(data []byte) (*Update, error) {
	u := &Update{}
	d := decoder{buf: data}
	for {
		f, err := d.next()
		if err != nil {
			return nil, err
		}
		if f == nil {
			return u, nil
		}
		switch f.num {
		case 1:
			s, err := f.str()
			if err != nil {
				return nil, err
			}
			u.Key = append(u.Key, s)
		case 2:
			u.ChangedIndices, err = f.packedUint32(u.ChangedIndices)
			if err != nil {
				return nil, err
			}
		case 3:
			s, err := f.str()
			if err != nil {
				return nil, err
			}
			u.OldValue = append(u.OldValue, s)
		case 4:
			s, err := f.str()
			if err != nil {
				return nil, err
			}
			u.NewValue = append(u.NewValue, s)
		default:
			u.unknown = append(u.unknown, f.raw...)
		}
	}
}

// DecodeDelta decodes a Delta message.
func DecodeDelta(data []byte) (*Delta, error) {
	dl := &Delta{}
	d := decoder{buf: data}
	for {
		f, err := d.next()
		if err != nil {
			return nil, err
		}
		if f == nil {
			return dl, nil
		}
		switch f.num {
		case 1:
			if dl.Name, err = f.str(); err != nil {
				return nil, err
			}
		case 2:
			s, err := f.str()
			if err != nil {
				return nil, err
			}
			dl.Fields = append(dl.Fields, s)
		case 3:
			e, err := DecodeEntry(f.val)
			if err != nil {
				return nil, err
			}
			dl.Inserts = append(dl.Inserts, *e)
		case 4:
			e, err := DecodeEntry(f.val)
			if err != nil {
				return nil, err
			}
			dl.Deletes = append(dl.Deletes, *e)
		case 5:
			u, err := DecodeUpdate(f.val)
			if err != nil {
				return nil, err
			}
			dl.Updates = append(dl.Updates, *u)
		default:
			dl.unknown = append(dl.unknown, f.raw...)
		}
	}
}

// DecodeTable decodes a Table message.
func DecodeTable(data []byte) (*Table, error) {
	t := &Table{}
	d := decoder{buf: data}
	for {
		f, err := d.next()
		if err != nil {
			return nil, err
		}
		if f == nil {
			return t, nil
		}
		switch f.num {
		case 1:
			if t.Name, err = f.str(); err != nil {
				return nil, err
			}
		case 2:
			s, err := f.str()
			if err != nil {
				return nil, err
			}
			t.Fields = append(t.Fields, s)
		case 3:
			t.NumPrimary = uint32(f.varint)
		case 4:
			e, err := DecodeEntry(f.val)
			if err != nil {
				return nil, err
			}
			t.Rows = append(t.Rows, *e)
		default:
			t.unknown = append(t.unknown, f.raw...)
		}
	}
}

// DecodeState decodes a State message.
func DecodeState(data []byte) (*State, error) {
	s := &State{}
	d := decoder{buf: data}
	for {
		f, err := d.next()
		if err != nil {
			return nil, err
		}
		if f == nil {
			return s, nil
		}
		switch f.num {
		case 1:
			t, err := DecodeTable(f.val)
			if err != nil {
				return nil, err
			}
			s.Tables = append(s.Tables, *t)
		default:
			s.unknown = append(s.unknown, f.raw...)
		}
	}
}

// DecodeBlock decodes a Block message.
func DecodeBlock(data []byte) (*Block, error) {
	b := &Block{}
	d := decoder{buf: data}
	for {
		f, err := d.next()
		if err != nil {
			return nil, err
		}
		if f == nil {
			return b, nil
		}
		switch f.num {
		case 1:
			if b.Parent, err = f.str(); err != nil {
				return nil, err
			}
		case 2:
			b.Created = int64(f.varint)
		case 3:
			dl, err := DecodeDelta(f.val)
			if err != nil {
				return nil, err
			}
			b.Payload = append(b.Payload, *dl)
		default:
			b.unknown = append(b.unknown, f.raw...)
		}
	}
}

// DecodeDeltas decodes a Deltas message.
func DecodeDeltas(data []byte) (*Deltas, error) {
	ds := &Deltas{}
	d := decoder{buf: data}
	for {
		f, err := d.next()
		if err != nil {
			return nil, err
		}
		if f == nil {
			return ds, nil
		}
		switch f.num {
		case 1:
			dl, err := DecodeDelta(f.val)
			if err != nil {
				return nil, err
			}
			ds.Items = append(ds.Items, *dl)
		default:
			ds.unknown = append(ds.unknown, f.raw...)
		}
	}
}

// DecodePatch decodes a Patch message, without framing.
func DecodePatch(data []byte) (*Patch, error) {
	p := &Patch{}
	d := decoder{buf: data}
	for {
		f, err := d.next()
		if err != nil {
			return nil, err
		}
		if f == nil {
			return p, nil
		}
		switch f.num {
		case 1:
			if p.HeadHash, err = f.str(); err != nil {
				return nil, err
			}
		case 2:
			p.HeadCreated = int64(f.varint)
		case 3:
			p.NumBlocks = uint32(f.varint)
		case 4:
			ds, err := DecodeDeltas(f.val)
			if err != nil {
				return nil, err
			}
			p.Deltas = ds
		case 5:
			s, err := DecodeState(f.val)
			if err != nil {
				return nil, err
			}
			p.State = s
		default:
			p.unknown = append(p.unknown, f.raw...)
		}
	}
}
