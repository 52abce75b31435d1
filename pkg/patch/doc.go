/*
Package patch consolidates a span of the block chain into a single diff.

A patch answers "what changed since the block I last applied?". Construction
walks the chain from the head toward the receiver-supplied ancestor, merging
block payloads pairwise, then compacts the result for the wire: delete rows
lose their subsidiary values and updates are sparse-encoded. If the persisted
full-state snapshot encodes smaller than the merged deltas it is shipped
instead, and when the walk cannot complete (a truncated or corrupt ancestor)
the full state is the fallback.

The ancestor reference is a hex prefix. It must resolve uniquely among the
blocks on disk; the all-zero genesis digest is always accepted and yields a
patch covering the whole chain.

Patches are framed per the compression config (zstd, detected by magic on
decode) and materialized under the fixed PATCH blob name by the CLI and
library entry points.
*/
package patch
