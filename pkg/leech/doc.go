/*
Package leech exposes the stable operations a host program embeds: load a
configuration, create a block, create a patch, render it to SQL and mark it
applied.

# Architecture

	┌──────────────────────── LEECH CORE ────────────────────────┐
	│                                                             │
	│  CreateBlock                        CreatePatch             │
	│    load previous STATE                resolve last-known    │
	│    snapshot CSV sources               walk HEAD → ancestor  │
	│    compute deltas                     merge deltas pairwise │
	│    write block, overwrite STATE       pick deltas vs state  │
	│    move HEAD (commit point)           frame + store PATCH   │
	│    truncate (best-effort)                                   │
	│                                                             │
	│  RenderSQL                          MarkApplied             │
	│    patch → BEGIN…COMMIT               REPORTED := head      │
	│                                                             │
	└─────────────────────────────────────────────────────────────┘

Every operation takes the validated *config.Config and either returns a value
or a typed error; nothing retries internally. Operations are synchronous and
single-threaded; concurrent processes sharing a work directory serialize
through the storage layer's advisory locks.

# Usage

	cfg, err := leech.Init("/var/lib/leech")
	if err != nil { ... }

	hash, err := leech.CreateBlock(cfg)

	p, err := leech.CreatePatch(cfg, "")      // resume from REPORTED
	sql, ok, err := leech.RenderSQL(cfg, p)
	if ok {
		// ship sql downstream, then acknowledge:
		err = leech.MarkApplied(cfg, p)
	}
*/
package leech
