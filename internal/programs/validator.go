package programs

import (
	"context"
	"path/filepath"

	"github.com/programme-lv/itester/internal/stats"
	"github.com/programme-lv/itester/internal/verdict"
)

// Validator checks that an input is well formed. It gets the input file
// name split by dots as arguments and is never compared by the checker.
type Validator struct {
	*Program
	stats *stats.Statistics
}

func NewValidator(name string, opts BuildOptions) (*Validator, error) {
	p, err := NewProgram(name, opts)
	if err != nil {
		return nil, err
	}
	return &Validator{Program: p, stats: stats.New(verdict.ValidatorPolicy{})}, nil
}

func (v *Validator) Name() string                  { return v.Program.Name }
func (v *Validator) Statistics() *stats.Statistics { return v.stats }
func (v *Validator) IsValidator() bool             { return true }
func (v *Validator) CompareMask() CompareMask      { return validatorMask(v.Program.Name) }

func (v *Validator) Run(ctx context.Context, env *Env, job Job) (Outcome, error) {
	logger := job.logger()
	h := env.Registry.Start(v.Program.Name, job.Batch, filepath.Base(job.Input))
	defer h.End(false)

	res, timing, err := v.execute(ctx, env, job, h, ValidatorArgs(job.Input))
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{Verdict: res}, err
		}
		logger.Error("run failed", "program", v.Program.Name, "input", filepath.Base(job.Input), "error", err)
		res = verdict.New(verdict.InternalError)
	}

	if !res.Is(verdict.Pass) {
		v.stats.MarkFailed(job.Batch)
	}
	if res.Is(verdict.Pass) || res.Is(verdict.WrongOutput) {
		res = verdict.New(verdict.ValidatorPass)
	}

	res = v.nearLimit(env, res, timing)
	v.stats.Record(job.Batch, res, timing)
	return Outcome{Verdict: res, Timing: timing}, nil
}
