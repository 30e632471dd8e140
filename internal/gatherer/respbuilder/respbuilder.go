package respbuilder

import (
	"sync"
	"time"

	"github.com/programme-lv/itester/api"
	"github.com/programme-lv/itester/internal/stats"
	"github.com/programme-lv/itester/internal/tester"
)

// Builder gathers run events and builds a complete api.Summary.
type Builder struct {
	mu sync.Mutex

	runID    string
	started  time.Time
	finished *time.Time

	programs     []api.ProgramResult
	status       api.Status
	errorMessage *string
}

func New() *Builder {
	return &Builder{
		started: time.Now(),
		status:  api.Success,
	}
}

// StartJob implements tester.ResultGatherer.
func (b *Builder) StartJob(info tester.JobInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runID = info.RunID
}

func (b *Builder) ReachInput(tester.InputRef)                 {}
func (b *Builder) StartUnit(tester.UnitRef)                   {}
func (b *Builder) FinishUnit(tester.UnitRef, tester.UnitResult) {}
func (b *Builder) IgnoreUnit(tester.UnitRef)                  {}

// InternalError implements tester.ResultGatherer.
func (b *Builder) InternalError(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = api.InternalError
	b.errorMessage = &msg
	now := time.Now()
	b.finished = &now
}

// FinishJob implements tester.ResultGatherer.
func (b *Builder) FinishJob(results []tester.ProgramResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.programs = Programs(results)
	now := time.Now()
	b.finished = &now
}

// Summary builds the api.Summary from gathered data.
func (b *Builder) Summary() api.Summary {
	b.mu.Lock()
	defer b.mu.Unlock()
	start := b.started.Format(time.RFC3339)
	finish := start
	total := int64(0)
	if b.finished != nil {
		finish = b.finished.Format(time.RFC3339)
		total = b.finished.Sub(b.started).Milliseconds()
	}
	var msg *string
	if b.errorMessage != nil {
		v := *b.errorMessage
		msg = &v
	}
	return api.Summary{
		RunID:        b.runID,
		Status:       b.status,
		Programs:     append([]api.ProgramResult(nil), b.programs...),
		ErrorMessage: msg,
		StartTime:    start,
		FinishTime:   finish,
		TotalTimeMs:  total,
	}
}

// Programs converts per-program statistics to their api form.
func Programs(results []tester.ProgramResult) []api.ProgramResult {
	out := make([]api.ProgramResult, 0, len(results))
	for _, r := range results {
		out = append(out, Program(r))
	}
	return out
}

func Program(r tester.ProgramResult) api.ProgramResult {
	snap := r.Stats
	failed := make(map[string]bool, len(snap.FailedBatches))
	for _, b := range snap.FailedBatches {
		failed[b] = true
	}
	batches := make([]api.BatchResult, 0, len(snap.Batches))
	for _, b := range snap.Batches {
		batches = append(batches, api.BatchResult{
			Batch:     b,
			Verdict:   snap.BatchVerdicts[b].String(),
			MaxMillis: maxMillis(snap.BatchTimes[b]),
			Failed:    failed[b],
		})
	}
	return api.ProgramResult{
		Name:      r.Name,
		RunCmd:    r.RunCmd,
		Validator: r.Validator,
		Verdict:   snap.Overall.String(),
		MaxMillis: snap.MaxTime.Milliseconds(),
		SumMillis: snap.SumTime.Milliseconds(),
		Points:    snap.Points,
		MaxPoints: snap.MaxPoints,
		Batches:   batches,
	}
}

func maxMillis(times []*stats.Timing) int64 {
	res := int64(-1)
	for _, t := range times {
		if t != nil {
			res = max(res, t.Wall.Milliseconds())
		}
	}
	return res
}

// Timing converts a measured timing, nil stays nil.
func Timing(t *stats.Timing) *api.Timing {
	if t == nil {
		return nil
	}
	res := &api.Timing{WallMillis: t.Wall.Milliseconds()}
	if t.HasCPU {
		user := t.User.Milliseconds()
		sys := t.System.Milliseconds()
		res.UserMillis = &user
		res.SystemMillis = &sys
	}
	return res
}
