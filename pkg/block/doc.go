/*
Package block creates, loads and merges chain blocks.

A block records the deltas between two consecutive snapshots together with its
parent's digest and a creation timestamp. The first block's parent is the
all-zero genesis sentinel. Blocks are immutable once written; only truncation
removes them.

Block creation is ordered for crash consistency, taking its writes in the
fixed lock order block file, STATE, HEAD. HEAD moves last and is the commit
point: a crash at any earlier step leaves the previous HEAD intact, and a
block blob without a HEAD reference is an orphan swept by the next truncation
pass.
*/
package block
