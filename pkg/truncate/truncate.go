package truncate

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cuemby/leech/pkg/block"
	"github.com/cuemby/leech/pkg/config"
	"github.com/cuemby/leech/pkg/log"
	"github.com/cuemby/leech/pkg/metrics"
	"github.com/cuemby/leech/pkg/storage"
)

type chainEntry struct {
	hash    string
	created int64
}

// Run garbage-collects the work directory: orphaned block files, stale lock
// files and stray .tmp staging files are swept, then blocks beyond the
// retention policy are removed.
// HEAD itself is never removed. Run after every successful block creation;
// failures should be logged by the caller, never propagated into the creating
// operation.
func Run(cfg *config.Config, s storage.Store) error {
	logger := log.WithComponent("truncate")

	head, err := storage.Head(s)
	if err != nil {
		return err
	}

	// Walk HEAD -> genesis, collecting the ordered chain and the reachable
	// set. The walk ends early at a previously truncated block.
	var chain []chainEntry
	reachable := make(map[string]bool)
	current := head
	for current != storage.Genesis {
		b, err := block.Load(s, current)
		if err != nil {
			logger.Debug().
				Str("hash", short(current)).
				Msg("Chain walk stopped at missing block")
			break
		}
		reachable[current] = true
		chain = append(chain, chainEntry{hash: current, created: b.Created})
		current = b.Parent
	}

	if err := sweep(s, reachable); err != nil {
		return err
	}

	if len(chain) == 0 {
		return nil
	}

	reportedPos := -1
	if reported, ok, err := storage.Reported(s); err != nil {
		return err
	} else if ok {
		for i, e := range chain {
			if e.hash == reported {
				reportedPos = i
				break
			}
		}
	}

	maxBlocks := -1
	var ageCutoff int64
	hasCutoff := false
	if cfg.Truncate != nil {
		if cfg.Truncate.MaxBlocks != nil {
			maxBlocks = int(*cfg.Truncate.MaxBlocks)
		}
		if cfg.Truncate.MaxAge != "" {
			maxAge, err := config.ParseDuration(cfg.Truncate.MaxAge)
			if err != nil {
				return err
			}
			ageCutoff = time.Now().Add(-maxAge).Unix()
			hasCutoff = true
		}
	}

	removed := 0
	for i, e := range chain {
		if i == 0 {
			continue // never remove HEAD
		}

		shouldRemove := (reportedPos >= 0 && i > reportedPos) ||
			(maxBlocks >= 0 && i >= maxBlocks) ||
			(hasCutoff && e.created < ageCutoff)
		if !shouldRemove {
			continue
		}

		logger.Info().Str("hash", short(e.hash)).Msg("Truncating block")
		if err := s.Remove(e.hash); err != nil {
			return err
		}
		metrics.BlocksTruncated.Inc()
		removed++
	}

	if removed > 0 {
		logger.Info().Int("blocks", removed).Msg("Truncated chain")
	}
	return nil
}

// sweep removes block files unreachable from HEAD, lock files whose block is
// no longer on disk, and .tmp staging files left by interrupted writes.
func sweep(s storage.Store, reachable map[string]bool) error {
	logger := log.WithComponent("truncate")

	names, err := s.List()
	if err != nil {
		return err
	}

	var onDisk []string
	var lockFiles []string
	var tmpFiles []string
	for _, name := range names {
		if storage.IsBlockName(name) {
			onDisk = append(onDisk, name)
		} else if _, ok := blockLockBase(name); ok {
			lockFiles = append(lockFiles, name)
		} else if strings.HasSuffix(name, ".tmp") {
			tmpFiles = append(tmpFiles, name)
		}
	}

	for _, hash := range onDisk {
		if reachable[hash] {
			continue
		}
		logger.Info().Str("hash", short(hash)).Msg("Removing orphaned block")
		if err := s.Remove(hash); err != nil {
			return err
		}
		metrics.OrphansRemoved.Inc()
	}

	// A lock file is stale when its block no longer exists on disk.
	for _, name := range lockFiles {
		base, _ := blockLockBase(name)
		if _, err := os.Stat(filepath.Join(s.Dir(), base)); err == nil {
			continue
		}
		logger.Info().Str("lock", name).Msg("Removing stale lock file")
		_ = os.Remove(filepath.Join(s.Dir(), name))
	}

	for _, name := range tmpFiles {
		logger.Info().Str("file", name).Msg("Removing stray staging file")
		_ = os.Remove(filepath.Join(s.Dir(), name))
	}

	return nil
}

// blockLockBase extracts the block hash from a ".<40-hex>.lock" file name.
func blockLockBase(name string) (string, bool) {
	if !strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".lock") {
		return "", false
	}
	base := strings.TrimSuffix(strings.TrimPrefix(name, "."), ".lock")
	if !storage.IsBlockName(base) {
		return "", false
	}
	return base, true
}

func short(hash string) string {
	if len(hash) > 7 {
		return hash[:7] + "..."
	}
	return hash
}
