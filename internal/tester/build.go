package tester

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/programme-lv/itester/internal/logsink"
	"github.com/programme-lv/itester/internal/programs"
	"golang.org/x/sync/errgroup"
)

// BuildAll compiles programs in parallel. Output of every build is
// printed in program order. All failures are joined into the result.
func BuildAll(ctx context.Context, progs []programs.Runnable, threads int, sinks *logsink.Manager) error {
	flushed := make(chan struct{})
	go func() {
		sinks.Run()
		close(flushed)
	}()

	errs := make([]error, len(progs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(4, threads))
	for i, p := range progs {
		sink := sinks.NewSink()
		g.Go(func() error {
			defer sink.Close()
			if err := p.Build(gctx, sink.Logger(), sink); err != nil {
				sink.Logger().Error("build failed", "program", p.Name(), "error", err)
				errs[i] = fmt.Errorf("%s: %w", p.Name(), err)
			}
			return nil
		})
	}
	sinks.Seal()
	_ = g.Wait()
	sinks.CloseAll()
	<-flushed
	return errors.Join(errs...)
}

// Cleanup removes build artifacts of every program.
func Cleanup(progs []programs.Runnable, logger *slog.Logger) {
	for _, p := range progs {
		p.Cleanup(logger)
	}
}
