package programs_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/itester/internal/programs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinDiffCommand(t *testing.T) {
	c, err := programs.NewChecker("diff", false, programs.DefaultBuildOptions())
	require.NoError(t, err)
	assert.Equal(t, "diff -q ref out", c.Command("in", "ref", "out"))

	c, err = programs.NewChecker("diff", true, programs.DefaultBuildOptions())
	require.NoError(t, err)
	assert.Equal(t, "diff -y -W 80 --strip-trailing-cr ref out", c.Command("in", "ref", "out"))

	_, err = programs.NewChecker("gen.py", false, programs.DefaultBuildOptions())
	require.ErrorIs(t, err, programs.ErrUnsupportedChecker)
}

func TestCheckerArgumentOrder(t *testing.T) {
	opts := programs.BuildOptions{Execute: true}
	for name, want := range map[string]string{
		"check":  "check in ref out",
		"chito":  "chito in out ref",
		"tester": "tester ./ ./ in ref out",
		"diffx":  "diffx ref out",
	} {
		c, err := programs.NewChecker(name, false, opts)
		require.NoError(t, err)
		assert.Equal(t, want, c.Command("in", "ref", "out"))
	}
}

func TestCheckExitCodes(t *testing.T) {
	f := newFixture(t, "1")
	script := filepath.Join(f.dir, "check.sh")
	// exit code is the first line of the produced output
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho from-checker >&2\nexit $(head -n1 \"$3\")\n"), 0755))

	c, err := programs.NewChecker(script, false, programs.BuildOptions{})
	require.NoError(t, err)

	_, err = c.Check(context.Background(), "in", "ref", "out", discard(), nil)
	require.Error(t, err)

	require.NoError(t, c.Build(context.Background(), discard(), nil))
	for _, code := range []int{0, 1, 7} {
		out := f.file("out", string(rune('0'+code))+"\n")
		var stderr bytes.Buffer
		got, err := c.Check(context.Background(), f.file("in", ""), f.file("ref", ""), out, discard(), &stderr)
		require.NoError(t, err)
		assert.Equal(t, code, got)
		assert.Equal(t, "from-checker\n", stderr.String())
	}
}
