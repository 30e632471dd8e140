package tester

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/programme-lv/itester/internal/logsink"
	"github.com/programme-lv/itester/internal/programs"
	"github.com/programme-lv/itester/internal/queue"
	"github.com/programme-lv/itester/internal/stats"
	"golang.org/x/sync/errgroup"
)

// ErrInternal aborts the whole run. It means a tool or environment
// failure, not a contestant result.
var ErrInternal = errors.New("internal error")

type Options struct {
	Threads int
	// Reset regenerates reference outputs even if they exist.
	Reset    bool
	KeepTemp bool
	TempExt  string
	OutDir   string
	OutExt   string
}

func DefaultThreads() int {
	return max(1, runtime.NumCPU()/2)
}

// Input is one input file with its reference output path.
type Input struct {
	Path      string
	Reference string
}

type Tester struct {
	env    *programs.Env
	opts   Options
	sinks  *logsink.Manager
	logger *slog.Logger
	runID  string
}

func NewTester(env *programs.Env, opts Options, sinks *logsink.Manager, logger *slog.Logger) *Tester {
	if opts.Threads <= 0 {
		opts.Threads = DefaultThreads()
	}
	if opts.TempExt == "" {
		opts.TempExt = "temp"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tester{
		env:    env,
		opts:   opts,
		sinks:  sinks,
		logger: logger,
		runID:  uuid.NewString(),
	}
}

func (t *Tester) RunID() string { return t.runID }

// NewInput derives the reference output path of an input file.
func (t *Tester) NewInput(path string) Input {
	return Input{Path: path, Reference: t.referencePath(path)}
}

func (t *Tester) prefix(input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	dir := t.opts.OutDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base)
}

func (t *Tester) referencePath(input string) string {
	ext := t.opts.OutExt
	if ext == "" {
		ext = "out"
	}
	return t.prefix(input) + "." + ext
}

func (t *Tester) tempPath(input string, index int) string {
	return fmt.Sprintf("%s.s%02d.%s", t.prefix(input), index, t.opts.TempExt)
}

// resultFile picks where a program writes its output. The first
// solution writes the reference output when it is missing or reset.
func (t *Tester) resultFile(in Input, index int, validator, generating bool) string {
	if validator || generating {
		return t.tempPath(in.Path, index)
	}
	if t.opts.Reset || !fileExists(in.Reference) {
		return in.Reference
	}
	return t.tempPath(in.Path, index)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Run tests every program on every input and returns per-program
// statistics. Programs must be built. The returned error wraps
// ErrInternal when a unit hit an internal error.
func (t *Tester) Run(ctx context.Context, gath ResultGatherer, progs []programs.Testable, inputs []Input) (map[string]stats.Snapshot, error) {
	names := make([]string, len(progs))
	for i, p := range progs {
		if !p.Ready() {
			return nil, fmt.Errorf("%s not prepared for execution", p.Name())
		}
		names[i] = p.Name()
	}
	inputNames := make([]string, len(inputs))
	for i, in := range inputs {
		inputNames[i] = filepath.Base(in.Path)
	}
	gath.StartJob(JobInfo{RunID: t.runID, Programs: names, Inputs: inputNames, Threads: t.opts.Threads})

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	q := queue.New(t.env.Registry)
	var abortOnce sync.Once
	abort := func(cause error) {
		abortOnce.Do(func() {
			t.logger.Error("testing will not continue", "error", cause)
			gath.InternalError(cause.Error())
			cancel(cause)
			t.env.Registry.KillAll()
			t.env.Gates.OpenAll()
		})
	}

	flushed := make(chan struct{})
	go func() {
		t.sinks.Run()
		close(flushed)
	}()

	pending := make(map[*queue.Item]*logsink.Sink)
	for _, in := range inputs {
		t.enqueue(q, gath, progs, in, abort, pending)
	}
	t.sinks.Seal()
	q.Close()

	g, gctx := errgroup.WithContext(runCtx)
	for w := 0; w < t.opts.Threads; w++ {
		g.Go(func() error {
			for {
				item, ok := q.Pop(gctx)
				if !ok {
					return nil
				}
				item.Run(gctx)
			}
		})
	}
	_ = g.Wait()

	for _, item := range q.Drain() {
		if sink, ok := pending[item]; ok {
			sink.Close()
		}
	}
	t.sinks.CloseAll()
	<-flushed

	results := make(map[string]stats.Snapshot, len(progs))
	summary := make([]ProgramResult, 0, len(progs))
	for _, p := range progs {
		snap := p.Statistics().Snapshot()
		results[p.Name()] = snap
		summary = append(summary, ProgramResult{
			Name:      p.Name(),
			RunCmd:    p.RunCommand(),
			Validator: p.IsValidator(),
			Stats:     snap,
		})
	}

	if cause := context.Cause(runCtx); cause != nil && errors.Is(cause, ErrInternal) {
		return results, cause
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	gath.FinishJob(summary)
	return results, nil
}

// enqueue pushes one unit per program for the input and arms its gate.
func (t *Tester) enqueue(q *queue.Queue, gath ResultGatherer, progs []programs.Testable, in Input, abort func(error), pending map[*queue.Item]*logsink.Sink) {
	header := t.sinks.NewSink()
	t.env.Gates.Arm(in.Path)
	exists := fileExists(in.Reference)

	generating := false
	for i, p := range progs {
		output := t.resultFile(in, i, p.IsValidator(), generating)
		generator := output == in.Reference
		if generator {
			generating = true
			gath.ReachInput(InputRef{Input: in.Path, Reference: in.Reference, Creating: true, Exists: exists, Out: header})
		}

		sink := t.sinks.NewSink()
		unit := UnitRef{
			Program:   p.Name(),
			Input:     in.Path,
			Batch:     programs.ParseBatch(in.Path),
			Generator: generator,
			Validator: p.IsValidator(),
			Out:       sink,
		}
		job := programs.Job{
			Input:     in.Path,
			Reference: in.Reference,
			Output:    output,
			Batch:     unit.Batch,
			Generator: generator,
			Logger:    sink.Logger(),
			Out:       sink,
		}
		item := &queue.Item{
			Program:     p.Name(),
			Batch:       unit.Batch,
			Input:       filepath.Base(in.Path),
			TimeLimited: !p.IsValidator() && p.TimeLimit(t.env) > 0,
		}
		item.Run = func(ctx context.Context) {
			defer sink.Close()
			t.runUnit(ctx, gath, p, unit, job, abort)
		}
		pending[item] = sink
		if err := q.Push(item); err != nil {
			sink.Close()
		}
	}
	if !generating {
		gath.ReachInput(InputRef{Input: in.Path, Reference: in.Reference, Exists: exists, Out: header})
		t.env.Gates.Open(in.Path)
	}
	header.Close()
}
