package programs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/programme-lv/itester/internal/execwrap"
	"github.com/programme-lv/itester/internal/gate"
	"github.com/programme-lv/itester/internal/registry"
	"github.com/programme-lv/itester/internal/stats"
	"github.com/programme-lv/itester/internal/verdict"
)

// Env is shared by every unit of work of one run.
type Env struct {
	Registry   *registry.Registry
	Gates      *gate.Set
	Checker    *Checker
	Limits     TimeLimits
	WarnLimits TimeLimits
	// MemoryKiB is the address space limit, 0 for unlimited.
	MemoryKiB int64
	Tools     execwrap.Tools
	CPUTime   bool
	FailSkip  bool
	Quiet     bool
}

// Job is one program run on one input.
type Job struct {
	Input     string
	Reference string
	// Output is the file the program writes. It equals Reference when
	// the program generates the reference output.
	Output    string
	Batch     string
	Generator bool
	Logger    *slog.Logger
	// Out receives stderr of the program and the checker.
	Out io.Writer
}

func (j Job) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

type Outcome struct {
	Verdict verdict.Verdict
	Timing  *stats.Timing
	Skipped bool
}

// Runnable can be built once and then run on inputs.
type Runnable interface {
	Name() string
	Build(ctx context.Context, logger *slog.Logger, out io.Writer) error
	Ready() bool
	Cleanup(logger *slog.Logger)
}

// Scoreable owns statistics merged under its own policy.
type Scoreable interface {
	Statistics() *stats.Statistics
}

// Testable is a program tested against inputs.
type Testable interface {
	Runnable
	Scoreable
	Run(ctx context.Context, env *Env, job Job) (Outcome, error)
	IsValidator() bool
	// TimeLimit is the hard limit under env, zero when unlimited.
	TimeLimit(env *Env) time.Duration
	RunCommand() string
	CompareMask() CompareMask
}

func (p *Program) RunCommand() string { return p.RunCmd }

func (p *Program) TimeLimit(env *Env) time.Duration {
	return env.Limits.For(p.Ext, p.Lang)
}

func (p *Program) warnLimit(env *Env) time.Duration {
	return env.WarnLimits.For(p.Ext, p.Lang)
}

// execute runs the program once under the wrapper. It covers starting
// the process, cooperative kills and timing.
func (p *Program) execute(ctx context.Context, env *Env, job Job, h *registry.RunHandle, args []string) (verdict.Verdict, *stats.Timing, error) {
	logger := job.logger()
	if !p.ready {
		return verdict.New(verdict.InternalError), nil, fmt.Errorf("%s not prepared for execution", p.Name)
	}
	if h.IsKilled() {
		return verdict.New(verdict.Timeout), nil, nil
	}

	constraints := execwrap.Constraints{
		WallTime:  p.TimeLimit(env),
		MemoryKiB: env.MemoryKiB,
		CPUTime:   env.CPUTime,
	}
	cmd, err := execwrap.Command(env.Tools, constraints, p.RunCmd, args, job.Input, job.Output)
	if err != nil {
		return verdict.New(verdict.InternalError), nil, err
	}
	defer cmd.Cleanup()

	if err := cmd.Start(); err != nil {
		return verdict.New(verdict.InternalError), nil, fmt.Errorf("failed to start %s: %w", p.Name, err)
	}
	h.SetProcess(cmd)
	stop := context.AfterFunc(ctx, func() { _ = cmd.Kill() })
	res, err := cmd.Wait()
	stop()
	if h.IsKilled() {
		return verdict.New(verdict.Timeout), nil, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return verdict.New(verdict.Timeout), nil, ctxErr
	}
	if err != nil {
		return verdict.New(verdict.InternalError), nil, fmt.Errorf("failed to wait for %s: %w", p.Name, err)
	}
	h.End(false)

	if !p.opts.Quiet && job.Out != nil && len(res.Stderr) > 0 {
		_, _ = job.Out.Write(res.Stderr)
	}

	v := verdict.FromExitCode(res.ExitCode)
	if res.TimedOut {
		v = verdict.New(verdict.Timeout)
	}
	if v.Is(verdict.InternalError) {
		logger.Error("wrapper terminated abnormally", "program", p.Name, "input", filepath.Base(job.Input), "exit", res.ExitCode)
	}

	var timing *stats.Timing
	m, err := cmd.Metrics()
	switch {
	case err != nil && res.TimedOut:
		timing = &stats.Timing{Wall: res.Elapsed}
	case err != nil:
		logger.Warn("failed to read timing", "program", p.Name, "input", filepath.Base(job.Input), "error", err)
		if v.Is(verdict.Pass) {
			v = verdict.New(verdict.RuntimeError)
		}
	default:
		timing = &stats.Timing{Wall: m.Wall, User: m.User, System: m.System, HasCPU: m.HasCPU}
	}
	return v, timing, nil
}

func (p *Program) nearLimit(env *Env, v verdict.Verdict, timing *stats.Timing) verdict.Verdict {
	warn := p.warnLimit(env)
	return v.WithNearLimit(warn > 0 && timing != nil && timing.Wall >= warn)
}
