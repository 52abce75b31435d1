package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/cuemby/leech/pkg/log"
)

// FileStore implements Store on a plain directory. Every blob is one file;
// every mutable blob is guarded by a zero-byte advisory lock file named
// ".<name>.lock". Writes go through a "<name>.tmp" staging file and commit by
// rename. Locks are advisory: they serialize cooperating processes only.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created lazily
// by the first Store call.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *FileStore) lockPath(name string) string {
	return filepath.Join(s.dir, "."+name+".lock")
}

// Store atomically writes data under name. Lock ordering: the exclusive lock
// is held across the tmp write and the rename; the rename is the commit point.
func (s *FileStore) Store(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create work directory '%s': %w", s.dir, err)
	}

	lock := flock.New(s.lockPath(name))
	if err := lock.Lock(); err != nil {
		return &LockError{Path: s.lockPath(name), Err: err}
	}
	defer func() { _ = lock.Unlock() }()

	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		return fmt.Errorf("failed to rename '%s': %w", tmp, err)
	}

	log.Logger.Debug().Str("name", name).Int("bytes", len(data)).Msg("Stored blob")
	return nil
}

// Load reads name under a shared lock. A missing work directory or blob is
// reported as absent, not as an error.
func (s *FileStore) Load(name string) ([]byte, bool, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return nil, false, nil
	}

	lock := flock.New(s.lockPath(name))
	if err := lock.RLock(); err != nil {
		return nil, false, &LockError{Path: s.lockPath(name), Err: err}
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read '%s': %w", s.path(name), err)
	}
	return data, true, nil
}

// Remove unlinks name under an exclusive lock, then best-effort unlinks the
// lock file after releasing it.
func (s *FileStore) Remove(name string) error {
	lock := flock.New(s.lockPath(name))
	if err := lock.Lock(); err != nil {
		return &LockError{Path: s.lockPath(name), Err: err}
	}

	err := os.Remove(s.path(name))
	_ = lock.Unlock()
	_ = os.Remove(s.lockPath(name))

	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove '%s': %w", s.path(name), err)
	}
	return nil
}

// List returns every entry name in the work directory. A missing directory
// yields an empty list.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read work directory '%s': %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
