/*
Package state assembles and persists full table snapshots.

A State maps table names to table snapshots. During block creation the
previous persisted State is loaded, the current State is computed from the
configured CSV sources, deltas are derived from the pair, and the current
State then overwrites the persisted one under the fixed STATE blob name. The
persisted State also serves as the full-state fallback payload for patches
whose chain walk cannot complete.
*/
package state
