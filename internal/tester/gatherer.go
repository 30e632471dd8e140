package tester

import (
	"io"

	"github.com/programme-lv/itester/internal/stats"
	"github.com/programme-lv/itester/internal/verdict"
)

// JobInfo describes a run before any unit starts.
type JobInfo struct {
	RunID    string
	Programs []string
	Inputs   []string
	Threads  int
}

// InputRef is passed once per input, before its units are queued.
type InputRef struct {
	Input     string
	Reference string
	// Creating is set when a program will write the reference output.
	Creating bool
	Exists   bool
	// Out is the buffered sink of the input header.
	Out io.Writer
}

// UnitRef identifies one program run on one input.
type UnitRef struct {
	Program   string
	Input     string
	Batch     string
	Generator bool
	Validator bool
	// Out is the buffered sink of this unit.
	Out io.Writer
}

type UnitResult struct {
	Verdict verdict.Verdict
	Timing  *stats.Timing
}

type ProgramResult struct {
	Name      string
	RunCmd    string
	Validator bool
	Stats     stats.Snapshot
}

// ResultGatherer receives progress of a run. Methods may be called from
// several workers at once.
type ResultGatherer interface {
	StartJob(info JobInfo)
	ReachInput(input InputRef)
	StartUnit(unit UnitRef)
	FinishUnit(unit UnitRef, res UnitResult)
	IgnoreUnit(unit UnitRef)
	InternalError(msg string)
	FinishJob(results []ProgramResult)
}
