/*
Package truncate garbage-collects the block chain.

Truncation runs best-effort after every successful block creation. It walks
the chain from HEAD, sweeps unreachable block files and stale lock files, and
then removes reachable blocks that fall outside the retention policy: beyond
the acknowledged (REPORTED) position, beyond the configured block count, or
older than the configured age. The head block is never removed.

Removing history is safe because patch consolidation detects a missing
ancestor and falls back to shipping the full state. A single process mutates
the work directory at a time (enforced by the advisory locks), so the orphan
sweep cannot clobber another writer's staged block.
*/
package truncate
