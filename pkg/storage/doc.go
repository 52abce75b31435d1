/*
Package storage provides the locked, content-addressed blob store backing a
leech work directory.

The storage package implements the Store interface over a plain directory of
files, providing atomic writes, advisory cross-process locking, and the named
pointers (HEAD, REPORTED) that anchor the block chain. Block blobs are named by
the lowercase hex SHA-1 digest of their canonical encoding; everything else
uses a fixed name.

# Architecture

	┌───────────────────── WORK DIRECTORY ─────────────────────┐
	│                                                           │
	│  <40-hex>          one file per block (canonical bytes)   │
	│  HEAD              ASCII digest of the chain tip          │
	│  REPORTED          ASCII digest of the last ack'd block   │
	│  STATE             canonical encoding of latest snapshot  │
	│  PATCH             most recently materialized patch       │
	│  .<name>.lock      zero-byte advisory lock, one per blob  │
	│  <name>.tmp        staging file for in-flight writes      │
	│                                                           │
	└───────────────────────────────────────────────────────────┘

Writes acquire an exclusive flock on the blob's lock file, stage the new bytes
in "<name>.tmp", and commit by renaming over the final path. Readers take a
shared flock and therefore observe either the previous or the new contents,
never a torn file. A crash between staging and rename leaves the previous
contents intact; the stray .tmp is swept by the next truncation pass.

Locks are advisory at the OS level. They serialize cooperating leech processes
sharing a work directory and are never acquired with a timeout; lock files are
created once and re-opened on each acquire, never renamed or replaced.

# Error Taxonomy

  - NotFoundError: a required blob is absent
  - CorruptError: a blob decoded with an unrecoverable error
  - LockError: an advisory lock could not be acquired
  - UnknownRefError / AmbiguousRefError: hash prefix resolution

I/O failures are wrapped with the offending path. Nothing in this package
retries; callers decide whether an absence is fatal.
*/
package storage
