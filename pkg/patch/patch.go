package patch

import (
	"errors"
	"strings"

	"github.com/cuemby/leech/pkg/block"
	"github.com/cuemby/leech/pkg/config"
	"github.com/cuemby/leech/pkg/delta"
	"github.com/cuemby/leech/pkg/log"
	"github.com/cuemby/leech/pkg/metrics"
	"github.com/cuemby/leech/pkg/state"
	"github.com/cuemby/leech/pkg/storage"
	"github.com/cuemby/leech/pkg/wire"
)

type consolidation struct {
	created   int64
	numBlocks uint32
	deltas    *wire.Deltas
	state     *wire.State
}

// Create builds a patch describing the net difference between lastKnown and
// the current head. lastKnown is a hex prefix resolving to a block on disk or
// to the genesis sentinel.
//
// When the chain walk cannot complete because an ancestor block is missing or
// corrupt (typically after truncation), the patch falls back to a full-state
// payload. Even on a complete walk the smaller of the two encodings wins.
func Create(cfg *config.Config, s storage.Store, lastKnown string) (*wire.Patch, error) {
	if _, err := storage.ResolveRef(s, lastKnown); err != nil {
		return nil, err
	}

	head, err := storage.Head(s)
	if err != nil {
		return nil, err
	}

	if head == storage.Genesis {
		metrics.PatchesCreated.Inc()
		return &wire.Patch{HeadHash: head}, nil
	}

	c, err := tryConsolidate(s, head, lastKnown)
	if err != nil {
		if !isMissingOrCorrupt(err) {
			return nil, err
		}

		log.Logger.Warn().Err(err).Msg("Consolidation failed, falling back to full state")
		st, found, serr := state.Load(s)
		if serr != nil {
			return nil, serr
		}
		if !found {
			// Nothing to fall back to; surface the original failure.
			return nil, err
		}
		metrics.StateFallbacks.Inc()
		c = &consolidation{state: st.Wire()}
	}

	p := &wire.Patch{
		HeadHash:    head,
		HeadCreated: c.created,
		NumBlocks:   c.numBlocks,
		Deltas:      c.deltas,
		State:       c.state,
	}

	metrics.PatchesCreated.Inc()
	metrics.BlocksConsolidated.Observe(float64(c.numBlocks))
	log.Logger.Debug().Msg("Built patch:\n" + p.String())
	return p, nil
}

func tryConsolidate(s storage.Store, head, lastKnown string) (*consolidation, error) {
	headBlock, err := block.Load(s, head)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(head, lastKnown) {
		// Receiver already has the head; nothing to consolidate.
		return &consolidation{created: headBlock.Created}, nil
	}

	merged := headBlock
	currentHash := headBlock.Parent
	numBlocks := uint32(1)

	for currentHash != storage.Genesis && !strings.HasPrefix(currentHash, lastKnown) {
		b, err := block.Load(s, currentHash)
		if err != nil {
			return nil, err
		}
		parentHash := b.Parent
		if err := b.Merge(merged); err != nil {
			return nil, err
		}
		merged = b
		numBlocks++
		currentHash = parentHash
	}

	if !strings.HasPrefix(currentHash, lastKnown) {
		return nil, &storage.UnknownRefError{Prefix: lastKnown}
	}

	// Compact for the receiver: deletes need no subsidiary values and updates
	// only the changed positions.
	items := make([]wire.Delta, 0, len(merged.Payload))
	for _, d := range merged.Payload {
		w := d.Wire()
		delta.SparsifyForPatch(w)
		items = append(items, *w)
	}
	deltas := &wire.Deltas{Items: items}

	c := &consolidation{created: headBlock.Created, numBlocks: numBlocks, deltas: deltas}

	// A full-state payload can be smaller than heavily overlapping deltas.
	st, found, err := state.Load(s)
	if err != nil {
		return nil, err
	}
	if found {
		ws := st.Wire()
		if len(wire.EncodeState(ws)) < len(wire.EncodeDeltas(deltas)) {
			log.Logger.Info().Msg("Using full state (smaller than consolidated deltas)")
			c.deltas = nil
			c.state = ws
		}
	}

	return c, nil
}

func isMissingOrCorrupt(err error) bool {
	var nf *storage.NotFoundError
	var cor *storage.CorruptError
	return errors.As(err, &nf) || errors.As(err, &cor)
}

// Save frames the patch per the compression config and stores it under the
// fixed PATCH name.
func Save(cfg *config.Config, s storage.Store, p *wire.Patch) error {
	data, err := wire.FramePatch(p, cfg.Compression.Enable, cfg.Compression.Level)
	if err != nil {
		return err
	}
	return s.Store(storage.PatchName, data)
}

// LoadStored reads back the most recently materialized patch.
func LoadStored(s storage.Store) (*wire.Patch, error) {
	data, found, err := s.Load(storage.PatchName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &storage.NotFoundError{Name: storage.PatchName}
	}
	p, err := wire.UnframePatch(data)
	if err != nil {
		return nil, &storage.CorruptError{Name: storage.PatchName, Err: err}
	}
	return p, nil
}
