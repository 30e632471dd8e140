package tester

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/programme-lv/itester/internal/programs"
	"github.com/programme-lv/itester/internal/verdict"
)

func (t *Tester) runUnit(ctx context.Context, gath ResultGatherer, p programs.Testable, unit UnitRef, job programs.Job, abort func(error)) {
	if unit.Generator {
		// consumers must not wait forever on a failed generator
		defer t.env.Gates.Open(job.Input)
	}
	if !t.opts.KeepTemp && job.Output != job.Reference {
		defer func() {
			if err := os.Remove(job.Output); err != nil && !errors.Is(err, os.ErrNotExist) {
				job.Logger.Warn("failed to remove temporary output", "file", job.Output, "error", err)
			}
		}()
	}
	if ctx.Err() != nil {
		return
	}

	gath.StartUnit(unit)
	out, err := p.Run(ctx, t.env, job)
	if err != nil && ctx.Err() != nil {
		return
	}
	if out.Skipped {
		gath.IgnoreUnit(unit)
		return
	}
	gath.FinishUnit(unit, UnitResult{Verdict: out.Verdict, Timing: out.Timing})

	if out.Verdict.Is(verdict.InternalError) {
		cause := fmt.Errorf("%w: %s on %s", ErrInternal, unit.Program, job.Input)
		if err != nil {
			cause = fmt.Errorf("%w: %s on %s: %v", ErrInternal, unit.Program, job.Input, err)
		}
		abort(cause)
	}
}
