package leech

import (
	"fmt"

	"github.com/cuemby/leech/pkg/block"
	"github.com/cuemby/leech/pkg/config"
	"github.com/cuemby/leech/pkg/log"
	"github.com/cuemby/leech/pkg/patch"
	"github.com/cuemby/leech/pkg/sqlgen"
	"github.com/cuemby/leech/pkg/storage"
	"github.com/cuemby/leech/pkg/truncate"
	"github.com/cuemby/leech/pkg/wire"
)

// Init loads and validates the configuration of a work directory.
func Init(workDir string) (*config.Config, error) {
	return config.Load(workDir)
}

// CreateBlock snapshots the configured data sources, appends a block to the
// chain and advances HEAD. Truncation runs afterwards; its failures are
// logged and never fail the block creation.
func CreateBlock(cfg *config.Config) (string, error) {
	s := storage.NewFileStore(cfg.WorkDir)

	hash, err := block.Create(cfg, s)
	if err != nil {
		return "", err
	}

	if err := truncate.Run(cfg, s); err != nil {
		log.Logger.Warn().Err(err).Msg("Truncation failed")
	}

	return hash, nil
}

// CreatePatch builds a patch from lastKnown (a hash prefix, or the literal
// genesis digest) to HEAD and materializes it under the PATCH blob name.
// An empty lastKnown uses the stored REPORTED pointer, falling back to
// genesis when no acknowledgement has been received yet.
func CreatePatch(cfg *config.Config, lastKnown string) (*wire.Patch, error) {
	s := storage.NewFileStore(cfg.WorkDir)

	if lastKnown == "" {
		reported, ok, err := storage.Reported(s)
		if err != nil {
			return nil, err
		}
		if ok {
			lastKnown = reported
		} else {
			lastKnown = storage.Genesis
		}
	}

	p, err := patch.Create(cfg, s, lastKnown)
	if err != nil {
		return nil, err
	}
	if err := patch.Save(cfg, s, p); err != nil {
		return nil, err
	}
	return p, nil
}

// StoredPatch reads back the most recently materialized patch.
func StoredPatch(cfg *config.Config) (*wire.Patch, error) {
	return patch.LoadStored(storage.NewFileStore(cfg.WorkDir))
}

// RenderSQL converts a patch into a SQL transaction. The second return is
// false when the patch carries no changes.
func RenderSQL(cfg *config.Config, p *wire.Patch) (string, bool, error) {
	return sqlgen.Render(cfg, p)
}

// MarkApplied records the patch's head as acknowledged by storing it under
// REPORTED. Subsequent truncation may drop the blocks older than it, and
// subsequent CreatePatch calls with no explicit ref resume from it.
func MarkApplied(cfg *config.Config, p *wire.Patch) error {
	if p.HeadHash == "" {
		return fmt.Errorf("patch has no head hash")
	}
	return storage.SetReported(storage.NewFileStore(cfg.WorkDir), p.HeadHash)
}
