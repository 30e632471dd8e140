package execwrap

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"
)

// KillGrace is how long after the wall time limit the whole process
// group is killed, covering programs that survive timeout(1).
const KillGrace = 100 * time.Millisecond

// Result of a finished wrapper process.
type Result struct {
	ExitCode int
	Stderr   []byte
	// TimedOut is set when the group was killed at the wall time deadline.
	TimedOut bool
	// Elapsed is measured from Start to the end of Wait.
	Elapsed time.Duration
}

// Cmd runs one program under the shell wrapper in its own process group.
type Cmd struct {
	cmd          *exec.Cmd
	stderr       bytes.Buffer
	started      bool
	startedAt    time.Time
	deadline     *time.Timer
	timedOut     atomic.Bool
	timeFilePath string
	Constraints  Constraints
}

// Command prepares the wrapper for runCmd. stdin and stdout are file
// paths redirected by the shell.
func Command(tools Tools, constraints Constraints, runCmd string, args []string, stdin, stdout string) (*Cmd, error) {
	timeFilePath, err := newTempTimeFilePath()
	if err != nil {
		return nil, fmt.Errorf("failed to create time file: %w", err)
	}

	c := &Cmd{timeFilePath: timeFilePath, Constraints: constraints}
	script := constraints.Script(tools, timeFilePath, runCmd, args, stdin, stdout)
	c.cmd = exec.Command(tools.Shell, "-c", script)
	c.cmd.Stderr = &c.stderr
	c.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.cmd.WaitDelay = 2 * time.Second
	return c, nil
}

func newTempTimeFilePath() (string, error) {
	file, err := os.CreateTemp("", "itester.*.time")
	if err != nil {
		return "", err
	}
	err = file.Close()
	if err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (c *Cmd) Script() string {
	return c.cmd.Args[len(c.cmd.Args)-1]
}

func (c *Cmd) Start() error {
	if c.started {
		panic("process should not be started twice")
	}
	c.started = true
	if err := c.cmd.Start(); err != nil {
		return err
	}
	c.startedAt = time.Now()
	if c.Constraints.WallTime > 0 {
		c.deadline = time.AfterFunc(c.Constraints.WallTime+KillGrace, func() {
			c.timedOut.Store(true)
			_ = c.Kill()
		})
	}
	return nil
}

// Wait returns the exit status. A process terminated by a signal has
// ExitCode -1. Errors are reserved for failures of the wrapper itself.
func (c *Cmd) Wait() (*Result, error) {
	if !c.started {
		panic("process should be started before waiting")
	}

	err := c.cmd.Wait()
	if c.deadline != nil {
		c.deadline.Stop()
	}
	elapsed := time.Since(c.startedAt)
	// ErrWaitDelay: a process outside the group still holds stderr.
	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
	}
	return &Result{
		ExitCode: c.cmd.ProcessState.ExitCode(),
		Stderr:   c.stderr.Bytes(),
		TimedOut: c.timedOut.Load(),
		Elapsed:  elapsed,
	}, nil
}

// Kill terminates the whole process group.
func (c *Cmd) Kill() error {
	if c.cmd.Process == nil {
		return errors.New("process not started")
	}
	err := syscall.Kill(-c.cmd.Process.Pid, syscall.SIGKILL)
	if err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}

func (c *Cmd) Metrics() (*Metrics, error) {
	content, err := os.ReadFile(c.timeFilePath)
	if err != nil {
		return nil, err
	}
	return ParseTimeFile(content)
}

// Cleanup removes the time file.
func (c *Cmd) Cleanup() {
	_ = os.Remove(c.timeFilePath)
}
