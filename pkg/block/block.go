package block

import (
	"time"

	"github.com/cuemby/leech/pkg/config"
	"github.com/cuemby/leech/pkg/delta"
	"github.com/cuemby/leech/pkg/log"
	"github.com/cuemby/leech/pkg/metrics"
	"github.com/cuemby/leech/pkg/state"
	"github.com/cuemby/leech/pkg/storage"
	"github.com/cuemby/leech/pkg/wire"
)

// Block is one link of the parent-hashed chain: a parent digest, a creation
// time and at most one delta per table. Its identity is the digest of its
// canonical encoding.
type Block struct {
	Parent  string
	Created int64
	Payload []*delta.Delta
}

// Create performs a full block-create: load the previous snapshot, read the
// current one from the data sources, derive deltas, persist the block and the
// new state snapshot, then advance HEAD. Write order is block file, STATE,
// HEAD; the HEAD write is the commit point, so a crash before it leaves the
// repository at its previous head.
func Create(cfg *config.Config, s storage.Store) (string, error) {
	previous, _, err := state.Load(s)
	if err != nil {
		return "", err
	}
	current, err := state.Compute(cfg)
	if err != nil {
		return "", err
	}
	payload := delta.Compute(previous, current)

	parent, err := storage.Head(s)
	if err != nil {
		return "", err
	}

	b := &Block{
		Parent:  parent,
		Created: time.Now().Unix(),
		Payload: payload,
	}

	buf := wire.EncodeBlock(b.Wire())
	hash := storage.Digest(buf)

	if err := s.Store(hash, buf); err != nil {
		return "", err
	}
	if err := current.Store(s); err != nil {
		return "", err
	}
	if err := storage.SetHead(s, hash); err != nil {
		return "", err
	}

	metrics.BlocksCreated.Inc()
	log.Logger.Info().
		Str("hash", hash[:7]+"...").
		Int("deltas", len(payload)).
		Msg("Created block")
	return hash, nil
}

// Load reads and decodes the block stored under hash.
func Load(s storage.Store, hash string) (*Block, error) {
	data, found, err := s.Load(hash)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &storage.NotFoundError{Name: hash}
	}
	w, err := wire.DecodeBlock(data)
	if err != nil {
		return nil, &storage.CorruptError{Name: hash, Err: err}
	}
	return FromWire(w), nil
}

// Merge folds a child block into this one: child deltas merge into the parent
// delta for the same table, or append when the table is new. The receiver
// keeps its own parent hash and creation time.
func (b *Block) Merge(child *Block) error {
	for _, cd := range child.Payload {
		merged := false
		for _, pd := range b.Payload {
			if pd.Name == cd.Name {
				if err := pd.Merge(cd); err != nil {
					return err
				}
				merged = true
				break
			}
		}
		if !merged {
			b.Payload = append(b.Payload, cd)
		}
	}
	return nil
}

// Hash returns the digest of the block's canonical encoding.
func (b *Block) Hash() string {
	return storage.Digest(wire.EncodeBlock(b.Wire()))
}

// Wire converts the block to its wire message.
func (b *Block) Wire() *wire.Block {
	w := &wire.Block{
		Parent:  b.Parent,
		Created: b.Created,
		Payload: make([]wire.Delta, 0, len(b.Payload)),
	}
	for _, d := range b.Payload {
		w.Payload = append(w.Payload, *d.Wire())
	}
	return w
}

// FromWire rebuilds a block from its wire message.
func FromWire(w *wire.Block) *Block {
	b := &Block{
		Parent:  w.Parent,
		Created: w.Created,
		Payload: make([]*delta.Delta, 0, len(w.Payload)),
	}
	for i := range w.Payload {
		b.Payload = append(b.Payload, delta.FromWire(&w.Payload[i]))
	}
	return b
}
