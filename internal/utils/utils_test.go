package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/itester/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimToRect(t *testing.T) {
	assert.Equal(t, "", utils.TrimToRect("", 2, 2))
	assert.Equal(t, "ab[...]\ncd\n[...]", utils.TrimToRect("abc\ncd\nef", 2, 2))
	assert.Equal(t, "ok", utils.TrimToRect("ok", 5, 80))
	assert.Equal(t, "a\n[...]", utils.TrimToRect("a\nb\nc", 1, 1))
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), make([]byte, 10), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, 5), 0644))

	size, err := utils.DirSize(dir)
	require.NoError(t, err)
	assert.EqualValues(t, 15, size)
}
