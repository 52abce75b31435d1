/*
Package wire implements the canonical binary encoding of every persisted leech
message: Entry, Update, Delta, Table, State, Block, Deltas and Patch.

The encoding is protobuf wire format, hand-assembled with
google.golang.org/protobuf/encoding/protowire rather than generated code,
because block identity is the SHA-1 digest of the encoded bytes and therefore
demands a single deterministic encoder. The determinism rules are:

  - fields are emitted in tag order
  - repeated entries and updates are sorted by primary-key tuple
  - tables and deltas are sorted by name
  - scalar zero values are elided (proto3 presence rules)

Identical logical contents always produce identical bytes. Unknown fields
encountered during decode are captured raw and re-emitted after all known
fields, so foreign extensions survive a decode/encode round-trip.

# Update Representations

Blocks store updates dense: OldValue and NewValue carry the full subsidiary
tuple. Patches store them sparse: ChangedIndices lists the column positions
that differ and NewValue lists only those positions. Conversion between the
two forms is mechanical and lives with the delta logic; this package only
moves bytes.

# Patch Framing

A framed patch blob optionally begins with the zstd magic 28 B5 2F FD. When
compression is enabled the canonical encoding is wrapped in a zstd frame;
decoders detect compression by prefix, so both forms decode transparently.
*/
package wire
