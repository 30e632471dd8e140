package execwrap_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/programme-lv/itester/internal/execwrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeFile(t *testing.T) {
	m, err := execwrap.ParseTimeFile([]byte("1000000000\n0.50 0.25 0.10\n1500000000\n"))
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, m.Wall)
	assert.Equal(t, 250*time.Millisecond, m.User)
	assert.Equal(t, 100*time.Millisecond, m.System)
	assert.True(t, m.HasCPU)

	m, err = execwrap.ParseTimeFile([]byte("10\n30\n"))
	require.NoError(t, err)
	assert.Equal(t, 20*time.Nanosecond, m.Wall)
	assert.False(t, m.HasCPU)

	for _, bad := range []string{"", "10\n", "x\n20\n", "30\n20\n", "1\n2\n3\n"} {
		_, err = execwrap.ParseTimeFile([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestScript(t *testing.T) {
	tools := execwrap.DefaultTools()
	tools.Date = "date"
	tools.Time = "/usr/bin/time"
	tools.Timeout = "timeout"
	tools.MemUnlimited = "unlimited"

	c := execwrap.Constraints{WallTime: 1500 * time.Millisecond, CPUTime: true}
	s := c.Script(tools, "/tmp/t", "./sol", []string{"00", "sample"}, "in file", "out")
	assert.Equal(t,
		`ulimit -s unlimited; date +%s%N >> /tmp/t; /usr/bin/time -f "%e %U %S" -a -o /tmp/t -q timeout --foreground 1.5 ./sol 00 sample < 'in file' > out; rc=$?; date +%s%N >> /tmp/t; exit $rc`,
		s)

	c = execwrap.Constraints{MemoryKiB: 1024}
	assert.Equal(t, "ulimit -v 1024; ulimit -d 1024; ulimit -s 1024", c.UlimitCmd(tools))
	assert.Empty(t, c.TimeoutCmd(tools))
	assert.Empty(t, c.TimeCmd(tools, "/tmp/t"))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "abc/d.in", execwrap.Quote("abc/d.in"))
	assert.Equal(t, "''", execwrap.Quote(""))
	assert.Equal(t, `'it'\''s'`, execwrap.Quote("it's"))
}

func requireTools(t *testing.T) execwrap.Tools {
	t.Helper()
	tools := execwrap.DefaultTools()
	for _, cmd := range []string{tools.Shell, tools.Date, tools.Timeout} {
		if _, err := exec.LookPath(cmd); err != nil {
			t.Skipf("%s not available", cmd)
		}
	}
	return tools
}

func TestRunEcho(t *testing.T) {
	tools := requireTools(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "1.in")
	out := filepath.Join(dir, "1.out")
	require.NoError(t, os.WriteFile(in, []byte("hello\n"), 0644))

	cmd, err := execwrap.Command(tools, execwrap.Constraints{WallTime: 5 * time.Second}, "cat", nil, in, out)
	require.NoError(t, err)
	defer cmd.Cleanup()

	require.NoError(t, cmd.Start())
	res, err := cmd.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(body))

	m, err := cmd.Metrics()
	require.NoError(t, err)
	assert.Greater(t, m.Wall, time.Duration(0))
}

func TestRunTimeout(t *testing.T) {
	tools := requireTools(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "1.in")
	require.NoError(t, os.WriteFile(in, nil, 0644))

	cmd, err := execwrap.Command(tools, execwrap.Constraints{WallTime: 200 * time.Millisecond}, "sleep 5", nil, in, filepath.Join(dir, "1.out"))
	require.NoError(t, err)
	defer cmd.Cleanup()

	start := time.Now()
	require.NoError(t, cmd.Start())
	res, err := cmd.Wait()
	require.NoError(t, err)
	assert.Equal(t, 124, res.ExitCode)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestKillProcessGroup(t *testing.T) {
	tools := requireTools(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "1.in")
	require.NoError(t, os.WriteFile(in, nil, 0644))

	cmd, err := execwrap.Command(tools, execwrap.Constraints{}, "sleep 5", nil, in, filepath.Join(dir, "1.out"))
	require.NoError(t, err)
	defer cmd.Cleanup()

	require.NoError(t, cmd.Start())
	start := time.Now()
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = cmd.Kill()
	}()
	res, err := cmd.Wait()
	require.NoError(t, err)
	assert.NotEqual(t, 0, res.ExitCode)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestDeadlineKillsSurvivors(t *testing.T) {
	tools := requireTools(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "1.in")
	require.NoError(t, os.WriteFile(in, nil, 0644))

	for name, body := range map[string]string{
		"forking":    "sleep 3 & wait",
		"ignoreterm": "trap '' TERM; sleep 3",
	} {
		t.Run(name, func(t *testing.T) {
			script := filepath.Join(dir, name+".sh")
			require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"+body+"\n"), 0755))

			cmd, err := execwrap.Command(tools, execwrap.Constraints{WallTime: 300 * time.Millisecond}, script, nil, in, filepath.Join(dir, name+".out"))
			require.NoError(t, err)
			defer cmd.Cleanup()

			start := time.Now()
			require.NoError(t, cmd.Start())
			res, err := cmd.Wait()
			require.NoError(t, err)
			assert.Less(t, time.Since(start), 2*time.Second)
			assert.True(t, res.TimedOut)
			assert.GreaterOrEqual(t, res.Elapsed, 300*time.Millisecond)
		})
	}
}

func TestDeadlineNotHitByFastProgram(t *testing.T) {
	tools := requireTools(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "1.in")
	require.NoError(t, os.WriteFile(in, nil, 0644))

	cmd, err := execwrap.Command(tools, execwrap.Constraints{WallTime: 2 * time.Second}, "true", nil, in, filepath.Join(dir, "1.out"))
	require.NoError(t, err)
	defer cmd.Cleanup()

	require.NoError(t, cmd.Start())
	res, err := cmd.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut)
}
