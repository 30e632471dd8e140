package programs

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/programme-lv/itester/internal/stats"
	"github.com/programme-lv/itester/internal/verdict"
)

type Solution struct {
	*Program
	stats *stats.Statistics
}

func NewSolution(name string, opts BuildOptions) (*Solution, error) {
	p, err := NewProgram(name, opts)
	if err != nil {
		return nil, err
	}
	return &Solution{Program: p, stats: stats.New(verdict.SolutionPolicy{})}, nil
}

func (s *Solution) Name() string                  { return s.Program.Name }
func (s *Solution) Statistics() *stats.Statistics { return s.stats }
func (s *Solution) IsValidator() bool             { return false }
func (s *Solution) CompareMask() CompareMask      { return solutionMask(s.Program.Name) }

// Run executes the solution on one input and records the verdict.
// A non-nil error means the run was interrupted or the tool failed; the
// outcome then carries InternalError or the verdict observed so far.
func (s *Solution) Run(ctx context.Context, env *Env, job Job) (Outcome, error) {
	logger := job.logger()
	h := env.Registry.Start(s.Program.Name, job.Batch, filepath.Base(job.Input))
	defer h.End(false)

	// The generator always runs, consumers of the input need its output.
	if env.FailSkip && !job.Generator && s.stats.HasFailed(job.Batch) {
		h.End(true)
		return Outcome{Verdict: verdict.New(verdict.Pass), Skipped: true}, nil
	}

	v, timing, err := s.execute(ctx, env, job, h, nil)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Verdict: v}, err
		}
		logger.Error("run failed", "program", s.Program.Name, "input", filepath.Base(job.Input), "error", err)
		v = verdict.New(verdict.InternalError)
	}

	if v.Is(verdict.Pass) && env.Checker != nil {
		if !job.Generator {
			if err := env.Gates.Wait(ctx, job.Input); err != nil {
				return Outcome{Verdict: v, Timing: timing}, err
			}
		}
		if !referenceExists(job.Reference) {
			logger.Warn("reference output missing", "input", filepath.Base(job.Input), "reference", job.Reference)
			v = verdict.New(verdict.WrongOutput)
		} else {
			code, err := env.Checker.Check(ctx, job.Input, job.Reference, job.Output, logger, job.Out)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return Outcome{Verdict: v, Timing: timing}, err
				}
				logger.Error("checker failed", "input", filepath.Base(job.Input), "error", err)
				v = verdict.New(verdict.InternalError)
			case code == 1:
				v = verdict.New(verdict.WrongOutput)
			}
		}
	}

	if v.Is(verdict.Timeout) {
		h.KillSiblings()
	}
	if !v.Is(verdict.Pass) {
		s.stats.MarkFailed(job.Batch)
	}

	v = s.nearLimit(env, v, timing)
	s.stats.Record(job.Batch, v, timing)
	return Outcome{Verdict: v, Timing: timing}, nil
}

func referenceExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
