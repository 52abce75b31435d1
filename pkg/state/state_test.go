package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/leech/pkg/config"
	"github.com/cuemby/leech/pkg/storage"
	"github.com/cuemby/leech/pkg/table"
)

func setup(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfgContent := `
[tables.users]
source = "users.csv"
fields = [
    { name = "id", type = "INTEGER", primary-key = true },
    { name = "name", type = "TEXT" },
]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(cfgContent), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.csv"), []byte("1,Alice\n2,Bob\n"), 0o644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	return cfg
}

func TestCompute(t *testing.T) {
	cfg := setup(t)

	st, err := Compute(cfg)
	require.NoError(t, err)

	users := st.Tables["users"]
	require.NotNil(t, users)
	assert.Equal(t, []string{"id", "name"}, users.Fields)
	assert.Len(t, users.Records, 2)
	assert.Equal(t, []string{"Alice"}, users.Records[table.KeyOf([]string{"1"})])
}

func TestComputeMissingSource(t *testing.T) {
	cfg := setup(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.WorkDir, "users.csv")))

	_, err := Compute(cfg)
	var missing *table.SourceMissingError
	require.ErrorAs(t, err, &missing)
}

func TestStoreLoadRoundTrip(t *testing.T) {
	cfg := setup(t)
	s := storage.NewFileStore(cfg.WorkDir)

	st, err := Compute(cfg)
	require.NoError(t, err)
	require.NoError(t, st.Store(s))

	got, found, err := Load(s)
	require.NoError(t, err)
	require.True(t, found)

	users := got.Tables["users"]
	require.NotNil(t, users)
	assert.Equal(t, []string{"id", "name"}, users.Fields)
	assert.Equal(t, 1, users.NumPrimary)
	assert.Equal(t, st.Tables["users"].Records, users.Records)
}

func TestLoadAbsent(t *testing.T) {
	s := storage.NewFileStore(t.TempDir())

	_, found, err := Load(s)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadCorrupt(t *testing.T) {
	s := storage.NewFileStore(t.TempDir())
	require.NoError(t, s.Store(storage.StateName, []byte{0xff, 0xff, 0xff, 0xff}))

	_, _, err := Load(s)
	var corrupt *storage.CorruptError
	require.ErrorAs(t, err, &corrupt)
}
