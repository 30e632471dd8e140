package programs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/programme-lv/itester/internal/programs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatch(t *testing.T) {
	assert.Equal(t, "1", programs.ParseBatch("test/1.a.in"))
	assert.Equal(t, "02", programs.ParseBatch("02.c.in"))
	assert.Equal(t, "00.sample", programs.ParseBatch("test/00.sample.in"))
	assert.Equal(t, "0.sample", programs.ParseBatch("0.sample.a.in"))
	assert.Equal(t, "3", programs.ParseBatch("3.in"))
}

func TestValidatorArgs(t *testing.T) {
	assert.Equal(t, []string{"00", "sample", "a", "in"}, programs.ValidatorArgs("test/00.sample.a.in"))
}

func TestClassification(t *testing.T) {
	assert.Equal(t, "sol100janon2cpp", programs.BaseAlnum("dir/sol-100-jano-n2.cpp"))
	assert.True(t, programs.IsSolutionName("x/sol-4.py"))
	assert.True(t, programs.IsValidatorName("val.cpp"))
	assert.False(t, programs.IsValidatorName("sol.cpp"))

	for name, want := range map[string]programs.CheckerFormat{
		"diff":        programs.FormatDiff,
		"check.py":    programs.FormatCheck,
		"ch_ito_.cpp": programs.FormatChito,
		"tester.cpp":  programs.FormatTester,
		"test.sh":     programs.FormatTester,
	} {
		got, ok := programs.CheckerFormatOf(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := programs.CheckerFormatOf("gen.py")
	assert.False(t, ok)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"sol.cpp", "val.py", "gen.py", "check.cpp", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0644))
	}
	files, err := programs.Discover([]string{dir, "other/sol-2.py"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "check.cpp"),
		filepath.Join(dir, "sol.cpp"),
		filepath.Join(dir, "val.py"),
		"other/sol-2.py",
	}, files)

	assert.Equal(t, []string{"a", "b"}, programs.Dedup([]string{"a", "b", "a"}))
}

func TestSortByMask(t *testing.T) {
	opts := programs.BuildOptions{Execute: true}
	var list []programs.Testable
	for _, name := range []string{"sol-wa.cpp", "sol-40.py", "sol.cpp", "sol-vzor.cpp", "val.cpp", "sol-40.cpp"} {
		var p programs.Testable
		var err error
		if programs.IsValidatorName(name) {
			p, err = programs.NewValidator(name, opts)
		} else {
			p, err = programs.NewSolution(name, opts)
		}
		require.NoError(t, err)
		list = append(list, p)
	}
	programs.SortByMask(list)

	var names []string
	for _, p := range list {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"val.cpp", "sol-vzor.cpp", "sol.cpp", "sol-40.cpp", "sol-40.py", "sol-wa.cpp"}, names)
}

func TestTimeLimits(t *testing.T) {
	tl, err := programs.ParseTimeLimits("3,cpp=1,py=5")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, tl.Default())
	assert.Equal(t, time.Second, tl.For("cpp", programs.LangCpp))
	assert.Equal(t, time.Second, tl.For("cc", programs.LangCpp))
	assert.Equal(t, 5*time.Second, tl.For("py3", programs.LangPython3))
	assert.Equal(t, 3*time.Second, tl.For("java", programs.LangJava))
	assert.Equal(t, 3*time.Second, tl.For("", programs.LangUnknown))

	warn, err := programs.ParseWarnLimits("auto", tl)
	require.NoError(t, err)
	assert.Equal(t, time.Second, warn.Default())
	assert.Equal(t, time.Second/3, warn.For("cpp", programs.LangCpp))

	warn, err = programs.ParseWarnLimits("0.5", tl)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, warn.For("cpp", programs.LangCpp))

	unlimited, err := programs.ParseTimeLimits("0")
	require.NoError(t, err)
	assert.Zero(t, unlimited.For("cpp", programs.LangCpp))

	_, err = programs.ParseTimeLimits("cpp=x")
	require.Error(t, err)
}
