package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		var exitErr cli.ExitCoder
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "itester",
		Usage:     "test solutions, validators and a checker against input files",
		ArgsUsage: "PROGRAMS...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "config file (default: ./itester.toml or the XDG config dir)"},
			&cli.StringFlag{Name: "input", Usage: "directory with input files"},
			&cli.StringFlag{Name: "output", Usage: "directory for output and temporary files"},
			&cli.StringFlag{Name: "progdir", Usage: "directory where programs compile to, empty for the source dir"},
			&cli.StringFlag{Name: "inext", Usage: "extension of input files"},
			&cli.StringFlag{Name: "outext", Usage: "extension of output files"},
			&cli.StringFlag{Name: "tempext", Usage: "extension of temporary files"},
			&cli.StringFlag{Name: "time", Aliases: []string{"t"}, Usage: "time limit, 0 means unlimited (e.g. 3,cpp=1,py=5)"},
			&cli.StringFlag{Name: "wtime", Usage: "tight time limit warning, auto is a third of the time limit"},
			&cli.Int64Flag{Name: "memory", Aliases: []string{"m"}, Usage: "memory limit in MB, 0 means unlimited"},
			&cli.IntFlag{Name: "threads", Aliases: []string{"j"}, Usage: "how many threads to use"},
			&cli.StringFlag{Name: "diff", Aliases: []string{"d"}, Usage: "program which checks correctness of output"},
			&cli.BoolFlag{Name: "show-diff", Aliases: []string{"D"}, Usage: "show shortened diff output on WA"},
			&cli.BoolFlag{Name: "no-fail-skip", Aliases: []string{"F"}, Usage: "don't skip the rest of inputs in a batch after a failure"},
			&cli.BoolFlag{Name: "no-sort", Aliases: []string{"S"}, Usage: "don't change order of programs"},
			&cli.BoolFlag{Name: "reset", Aliases: []string{"R"}, Usage: "recompute outputs"},
			&cli.BoolFlag{Name: "keep-temp", Usage: "don't remove temporary files after finishing"},
			&cli.BoolFlag{Name: "clear-bin", Usage: "remove binary files after finishing"},
			&cli.BoolFlag{Name: "best-only", Usage: "keep only the best program to generate outputs"},
			&cli.BoolFlag{Name: "dupprog", Usage: "keep duplicate programs"},
			&cli.BoolFlag{Name: "no-compile", Usage: "don't try to compile"},
			&cli.BoolFlag{Name: "execute", Usage: "treat programs as shell commands"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "don't let subprograms print stuff"},
			&cli.BoolFlag{Name: "boring", Usage: "turn colors off"},
			&cli.BoolFlag{Name: "no-statistics", Usage: "don't print statistics"},
			&cli.BoolFlag{Name: "rustime", Usage: "show real/user/system time"},
			&cli.StringFlag{Name: "pythoncmd", Usage: "command used to execute python"},
			&cli.StringFlag{Name: "json", Usage: "also write the summary in json format to file"},
			&cli.BoolFlag{Name: "cache", Usage: "store the summary in the result cache"},
			&cli.StringFlag{Name: "nats-url", Usage: "stream run events to this NATS server"},
			&cli.StringFlag{Name: "nats-subject", Usage: "subject of streamed run events"},
		},
		Action: run,
	}
}
