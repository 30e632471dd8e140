package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/programme-lv/itester/internal/config"
	"github.com/programme-lv/itester/internal/programs"
)

var errMultipleCheckers = errors.New("more than one checker found")

// checkerRunnable lets the checker be built together with the programs.
type checkerRunnable struct {
	*programs.Checker
}

func (c checkerRunnable) Name() string { return c.Checker.Name }

type programSet struct {
	checker  *programs.Checker
	programs []programs.Testable
}

func (s programSet) runnables() []programs.Runnable {
	res := []programs.Runnable{checkerRunnable{s.checker}}
	for _, p := range s.programs {
		res = append(res, p)
	}
	return res
}

func createPrograms(args []string, cfg config.Config) (programSet, error) {
	files, err := programs.Discover(args)
	if err != nil {
		return programSet{}, err
	}
	if !cfg.DupProg {
		files = programs.Dedup(files)
	}

	opts := cfg.BuildOptions()
	var set programSet
	var checkerFiles []string
	for _, f := range files {
		var p programs.Testable
		switch {
		case programs.IsValidatorName(f):
			p, err = programs.NewValidator(f, opts)
		case isChecker(f):
			checkerFiles = append(checkerFiles, f)
			continue
		default:
			p, err = programs.NewSolution(f, opts)
		}
		if err != nil {
			return programSet{}, err
		}
		set.programs = append(set.programs, p)
	}

	checkerName := cfg.DiffCmd
	if checkerName == programs.BuiltinDiff {
		switch len(checkerFiles) {
		case 0:
		case 1:
			checkerName = checkerFiles[0]
		default:
			return programSet{}, fmt.Errorf("%w %v, set it explicitly with -d/--diff or leave only one checker in the directory", errMultipleCheckers, checkerFiles)
		}
	}
	set.checker, err = programs.NewChecker(checkerName, cfg.ShowDiff, opts)
	if err != nil {
		return programSet{}, err
	}

	if cfg.Sort {
		programs.SortByMask(set.programs)
	}
	if cfg.BestOnly {
		set.programs = bestOnly(set.programs)
	}
	return set, nil
}

func isChecker(path string) bool {
	_, ok := programs.CheckerFormatOf(path)
	return ok && !programs.IsSolutionName(path)
}

// bestOnly keeps validators and the first solution.
func bestOnly(progs []programs.Testable) []programs.Testable {
	var res []programs.Testable
	var best programs.Testable
	for _, p := range progs {
		if p.IsValidator() {
			res = append(res, p)
		} else if best == nil {
			best = p
		}
	}
	if best != nil {
		res = append(res, best)
	}
	return res
}

// dedupRunCommands drops programs that ended up with the run command of
// an earlier program.
func dedupRunCommands(progs []programs.Testable, logger *slog.Logger) []programs.Testable {
	seen := make(map[string]programs.Testable, len(progs))
	res := make([]programs.Testable, 0, len(progs))
	for _, p := range progs {
		if first, ok := seen[p.RunCommand()]; ok {
			logger.Warn(fmt.Sprintf("Solution %s and %s have the same run command. Keeping only first.", first.Name(), p.Name()))
			continue
		}
		seen[p.RunCommand()] = p
		res = append(res, p)
	}
	return res
}
