package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/itester/api"
	"github.com/programme-lv/itester/internal/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoad(t *testing.T) {
	c := New(t.TempDir())
	key := Key("task")
	summary := api.Summary{
		RunID:  "r1",
		Status: api.Success,
		Programs: []api.ProgramResult{{
			Name:      "sol.cpp",
			Verdict:   "OK",
			MaxMillis: 120,
			Batches:   []api.BatchResult{{Batch: "1", Verdict: "OK", MaxMillis: 120}},
		}},
	}
	require.NoError(t, c.Store(key, summary))

	e, err := c.Load(key)
	require.NoError(t, err)
	assert.Equal(t, key, e.Key)
	assert.Equal(t, summary, e.Summary)
	assert.False(t, e.Stored.IsZero())

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, key+".json.zst", entries[0].Name())
}

func TestStoreReplaces(t *testing.T) {
	c := New(t.TempDir())
	require.NoError(t, c.Store("k", api.Summary{RunID: "old"}))
	require.NoError(t, c.Store("k", api.Summary{RunID: "new"}))
	e, err := c.Load("k")
	require.NoError(t, err)
	assert.Equal(t, "new", e.Summary.RunID)
}

func TestLoadMissing(t *testing.T) {
	c := New(t.TempDir())
	_, err := c.Load("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadCorrupt(t *testing.T) {
	c := New(t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "bad.json.zst"), []byte("not zstd"), 0644))
	_, err := c.Load("bad")
	assert.Error(t, err)
}

func TestKeyIsStable(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	assert.Equal(t, Key("task"), Key(filepath.Join(dir, "task")))
	assert.NotEqual(t, Key("task"), Key("other"))
}

func TestOpen(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c, err := Open(xdg.For("itester"))
	require.NoError(t, err)
	assert.DirExists(t, c.Dir())
}
