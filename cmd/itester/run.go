package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/programme-lv/itester/api"
	"github.com/programme-lv/itester/internal/cache"
	"github.com/programme-lv/itester/internal/config"
	"github.com/programme-lv/itester/internal/execwrap"
	"github.com/programme-lv/itester/internal/gate"
	"github.com/programme-lv/itester/internal/gatherer/multigath"
	"github.com/programme-lv/itester/internal/gatherer/natsgath"
	"github.com/programme-lv/itester/internal/gatherer/respbuilder"
	"github.com/programme-lv/itester/internal/gatherer/termgath"
	"github.com/programme-lv/itester/internal/logsink"
	"github.com/programme-lv/itester/internal/programs"
	"github.com/programme-lv/itester/internal/registry"
	"github.com/programme-lv/itester/internal/tester"
	"github.com/programme-lv/itester/internal/utils"
	"github.com/programme-lv/itester/internal/verdict"
	"github.com/programme-lv/itester/internal/xdg"
	"github.com/urfave/cli/v3"
)

const (
	maxDataSizeMB    = 42
	slowTestsWarning = time.Second
)

func run(ctx context.Context, cmd *cli.Command) error {
	dirs := xdg.For(config.AppName)
	cfg, file, err := config.Load(cmd.String("config"), &dirs)
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	colorful := cfg.Colorful && !color.NoColor
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.TimeOnly,
		NoColor:    !colorful,
	}))
	slog.SetDefault(logger)
	if file != "" {
		logger.Info("loaded config", "file", file)
	}

	tools := execwrap.DefaultTools()
	if missing := tools.Missing(); len(missing) > 0 {
		logger.Warn("missing utilities", "commands", missing)
	}
	cpuTime := cfg.RusTime && tools.HasTime()
	hard, warn, err := cfg.Limits()
	if err != nil {
		return err
	}

	set, err := createPrograms(cmd.Args().Slice(), cfg)
	if err != nil {
		return err
	}
	runnables := set.runnables()
	if cfg.ClearBin {
		defer tester.Cleanup(runnables, logger)
	}
	if err := tester.BuildAll(ctx, runnables, cfg.Threads, logsink.NewManager(os.Stdout, colorful)); err != nil {
		return err
	}
	progs := set.programs
	if !cfg.DupProg {
		progs = dedupRunCommands(progs, logger)
	}
	printRunCommands(progs, colorful)

	inputs, err := tester.ListInputs(cfg.InDir, cfg.InExt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if n, err := tester.ClearTemp(cfg.OutDir, cfg.TempExt); err != nil {
		logger.Warn("failed to clear temporary files", "error", err)
	} else if n > 0 {
		logger.Info("removed temporary files", "count", n)
	}

	env := &programs.Env{
		Registry:   registry.New(logger),
		Gates:      gate.NewSet(nil),
		Checker:    set.checker,
		Limits:     hard,
		WarnLimits: warn,
		MemoryKiB:  cfg.MemoryKiB(),
		Tools:      tools,
		CPUTime:    cpuTime,
		FailSkip:   cfg.FailSkip,
		Quiet:      cfg.Quiet,
	}
	t := tester.NewTester(env, tester.Options{
		Threads:  cfg.Threads,
		Reset:    cfg.Reset,
		KeepTemp: cfg.KeepTemp,
		TempExt:  cfg.TempExt,
		OutDir:   cfg.OutDir,
		OutExt:   cfg.OutExt,
	}, logsink.NewManager(os.Stdout, colorful), logger)

	term := termgath.New(os.Stdout, colorful, cpuTime)
	term.Summary = cfg.Stats
	builder := respbuilder.New()
	gatherers := []tester.ResultGatherer{term, builder}
	if cfg.NATSURL != "" {
		ng, closeConn, err := natsgath.Connect(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			logger.Warn("not streaming events", "url", cfg.NATSURL, "error", err)
		} else {
			defer closeConn()
			gatherers = append(gatherers, ng)
		}
	}

	testInputs := make([]tester.Input, 0, len(inputs))
	for _, in := range inputs {
		testInputs = append(testInputs, t.NewInput(in))
	}
	_, runErr := t.Run(ctx, multigath.New(gatherers...), progs, testInputs)

	summary := builder.Summary()
	if cfg.JSON != "" {
		if err := writeJSON(cfg.JSON, summary); err != nil {
			logger.Warn("failed to write json summary", "file", cfg.JSON, "error", err)
		}
	}
	if cfg.Cache {
		storeCache(dirs, cfg.OutDir, summary, logger)
	}
	if runErr != nil {
		return runErr
	}

	checkDataSize(cfg.OutDir, logger)
	checkSlowTests(summary, logger)
	return nil
}

// applyFlags overrides config values with flags given on the command line.
func applyFlags(cmd *cli.Command, cfg *config.Config) {
	strs := map[string]*string{
		"input":        &cfg.InDir,
		"output":       &cfg.OutDir,
		"progdir":      &cfg.ProgDir,
		"inext":        &cfg.InExt,
		"outext":       &cfg.OutExt,
		"tempext":      &cfg.TempExt,
		"time":         &cfg.TimeLimit,
		"wtime":        &cfg.WarnLimit,
		"diff":         &cfg.DiffCmd,
		"pythoncmd":    &cfg.PythonCmd,
		"json":         &cfg.JSON,
		"nats-url":     &cfg.NATSURL,
		"nats-subject": &cfg.NATSSubject,
	}
	for name, dst := range strs {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}
	if cmd.IsSet("memory") {
		cfg.MemoryMB = cmd.Int64("memory")
	}
	if cmd.IsSet("threads") {
		cfg.Threads = cmd.Int("threads")
	}

	bools := map[string]*bool{
		"show-diff": &cfg.ShowDiff,
		"reset":     &cfg.Reset,
		"keep-temp": &cfg.KeepTemp,
		"clear-bin": &cfg.ClearBin,
		"best-only": &cfg.BestOnly,
		"dupprog":   &cfg.DupProg,
		"execute":   &cfg.Execute,
		"quiet":     &cfg.Quiet,
		"rustime":   &cfg.RusTime,
		"cache":     &cfg.Cache,
	}
	for name, dst := range bools {
		if cmd.IsSet(name) {
			*dst = cmd.Bool(name)
		}
	}
	negated := map[string]*bool{
		"no-fail-skip":  &cfg.FailSkip,
		"no-sort":       &cfg.Sort,
		"no-compile":    &cfg.Compile,
		"boring":        &cfg.Colorful,
		"no-statistics": &cfg.Stats,
	}
	for name, dst := range negated {
		if cmd.IsSet(name) {
			*dst = !cmd.Bool(name)
		}
	}
}

func printRunCommands(progs []programs.Testable, colorful bool) {
	c := color.New(color.FgCyan)
	if colorful {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	width := len("Solution")
	for _, p := range progs {
		width = max(width, len(p.Name()))
	}
	c.Println("----- Run commands -----")
	for _, p := range progs {
		c.Printf("Program %-*s   is ran as `%s`\n", width, p.Name(), p.RunCommand())
	}
	c.Println("------------------------")
}

func writeJSON(path string, summary api.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func storeCache(dirs xdg.Dirs, taskDir string, summary api.Summary, logger *slog.Logger) {
	c, err := cache.Open(dirs)
	if err != nil {
		logger.Warn("result cache unavailable", "error", err)
		return
	}
	if err := c.Store(cache.Key(taskDir), summary); err != nil {
		logger.Warn("failed to store results in cache", "dir", c.Dir(), "error", err)
	}
}

func checkDataSize(dir string, logger *slog.Logger) {
	size, err := utils.DirSize(dir)
	if err != nil {
		return
	}
	mb := float64(size) / (1024 * 1024)
	if mb > maxDataSizeMB {
		logger.Warn(fmt.Sprintf("Data folder '%s' exceeds maximum recommended size: %.2f/%dMB", dir, mb, maxDataSizeMB))
	}
}

// checkSlowTests warns when even the fastest accepted solution is slow.
func checkSlowTests(summary api.Summary, logger *slog.Logger) {
	fastest := time.Duration(-1)
	for _, p := range summary.Programs {
		v, err := verdict.Parse(p.Verdict)
		if p.Validator || err != nil || !v.Is(verdict.Pass) {
			continue
		}
		d := time.Duration(p.MaxMillis) * time.Millisecond
		if fastest < 0 || d < fastest {
			fastest = d
		}
	}
	if fastest > slowTestsWarning {
		logger.Warn(fmt.Sprintf("Fastest solution took %.2f/%gs. Consider making smaller tests.", fastest.Seconds(), slowTestsWarning.Seconds()))
	}
}
