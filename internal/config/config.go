package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/programme-lv/itester/internal/programs"
	"github.com/programme-lv/itester/internal/xdg"
)

const (
	AppName  = "itester"
	FileName = "itester.toml"
	// EnvPrefix starts every environment override, e.g. ITESTER_THREADS.
	EnvPrefix = "ITESTER_"
)

// Config holds every setting of a run. Defaults are overridden by the
// config file, then the environment, then command line flags.
type Config struct {
	InDir   string `toml:"indir"`
	OutDir  string `toml:"outdir"`
	ProgDir string `toml:"progdir"`
	InExt   string `toml:"inext"`
	OutExt  string `toml:"outext"`
	TempExt string `toml:"tempext"`

	TimeLimit string `toml:"timelimit"`
	WarnLimit string `toml:"warntimelimit"`
	// MemoryMB limits the address space, 0 for unlimited.
	MemoryMB int64 `toml:"memorylimit"`
	Threads  int   `toml:"threads"`

	FailSkip bool `toml:"fail_skip"`
	Sort     bool `toml:"sort"`
	KeepTemp bool `toml:"keep_temp"`
	Reset    bool `toml:"reset"`
	RusTime  bool `toml:"rustime"`
	BestOnly bool `toml:"best_only"`
	DupProg  bool `toml:"dupprog"`
	ClearBin bool `toml:"clearbin"`
	Compile  bool `toml:"compile"`
	Execute  bool `toml:"execute"`
	Quiet    bool `toml:"quiet"`
	Colorful bool `toml:"colorful"`
	ShowDiff bool `toml:"showdiff"`
	Stats    bool `toml:"stats"`

	PythonCmd string `toml:"pythoncmd"`
	DiffCmd   string `toml:"diffcmd"`

	JSON        string `toml:"json"`
	Cache       bool   `toml:"cache"`
	NATSURL     string `toml:"nats_url"`
	NATSSubject string `toml:"nats_subject"`
}

func Default() Config {
	return Config{
		InDir:       "test",
		OutDir:      "test",
		ProgDir:     "prog",
		InExt:       "in",
		OutExt:      "out",
		TempExt:     "temp",
		TimeLimit:   "3,cpp=1,py=5",
		WarnLimit:   "auto",
		Threads:     max(1, runtime.NumCPU()/2),
		FailSkip:    true,
		Sort:        true,
		RusTime:     true,
		Compile:     true,
		Colorful:    true,
		Stats:       true,
		PythonCmd:   "python3",
		DiffCmd:     programs.BuiltinDiff,
		NATSSubject: "itester.events",
	}
}

// Load applies the config file and the environment over the defaults.
// An explicit path must exist; otherwise ./itester.toml and the XDG
// config directories are tried.
func Load(path string, dirs *xdg.Dirs) (Config, string, error) {
	cfg := Default()
	file, err := resolveFile(path, dirs)
	if err != nil {
		return cfg, "", err
	}
	if file != "" {
		if err := cfg.ReadFile(file); err != nil {
			return cfg, file, err
		}
	}
	if err := cfg.ApplyEnv(".env"); err != nil {
		return cfg, file, err
	}
	return cfg, file, nil
}

func resolveFile(path string, dirs *xdg.Dirs) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
		return path, nil
	}
	if _, err := os.Stat(FileName); err == nil {
		return FileName, nil
	}
	if dirs != nil {
		if p, ok := dirs.FindConfig(FileName); ok {
			return p, nil
		}
	}
	return "", nil
}

// ReadFile overrides fields present in the TOML file.
func (c *Config) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var sErr *toml.StrictMissingError
		if errors.As(err, &sErr) {
			return fmt.Errorf("config %s: %s", path, sErr.String())
		}
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv loads dotenv (a missing file is fine) and then applies the
// ITESTER_* variables.
func (c *Config) ApplyEnv(dotenv string) error {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}
	for name, field := range c.fields() {
		value, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := field.set(value); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
	}
	return nil
}

type field struct {
	str *string
	b   *bool
	i   *int
	i64 *int64
}

func (f field) set(value string) error {
	switch {
	case f.str != nil:
		*f.str = value
	case f.b != nil:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*f.b = v
	case f.i != nil:
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*f.i = v
	case f.i64 != nil:
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		*f.i64 = v
	}
	return nil
}

func (c *Config) fields() map[string]field {
	return map[string]field{
		"INDIR":         {str: &c.InDir},
		"OUTDIR":        {str: &c.OutDir},
		"PROGDIR":       {str: &c.ProgDir},
		"INEXT":         {str: &c.InExt},
		"OUTEXT":        {str: &c.OutExt},
		"TEMPEXT":       {str: &c.TempExt},
		"TIMELIMIT":     {str: &c.TimeLimit},
		"WARNTIMELIMIT": {str: &c.WarnLimit},
		"MEMORYLIMIT":   {i64: &c.MemoryMB},
		"THREADS":       {i: &c.Threads},
		"FAIL_SKIP":     {b: &c.FailSkip},
		"SORT":          {b: &c.Sort},
		"KEEP_TEMP":     {b: &c.KeepTemp},
		"RESET":         {b: &c.Reset},
		"RUSTIME":       {b: &c.RusTime},
		"BEST_ONLY":     {b: &c.BestOnly},
		"DUPPROG":       {b: &c.DupProg},
		"CLEARBIN":      {b: &c.ClearBin},
		"COMPILE":       {b: &c.Compile},
		"EXECUTE":       {b: &c.Execute},
		"QUIET":         {b: &c.Quiet},
		"COLORFUL":      {b: &c.Colorful},
		"SHOWDIFF":      {b: &c.ShowDiff},
		"STATS":         {b: &c.Stats},
		"PYTHONCMD":     {str: &c.PythonCmd},
		"DIFFCMD":       {str: &c.DiffCmd},
		"JSON":          {str: &c.JSON},
		"CACHE":         {b: &c.Cache},
		"NATS_URL":      {str: &c.NATSURL},
		"NATS_SUBJECT":  {str: &c.NATSSubject},
	}
}

// Validate checks values that cannot be fixed by a default.
func (c Config) Validate() error {
	var errs []error
	if c.Threads < 1 {
		errs = append(errs, fmt.Errorf("threads must be positive, got %d", c.Threads))
	}
	if c.MemoryMB < 0 {
		errs = append(errs, fmt.Errorf("memory limit must not be negative, got %d", c.MemoryMB))
	}
	for _, ext := range []string{c.InExt, c.OutExt, c.TempExt} {
		if ext == "" || strings.Contains(ext, "/") {
			errs = append(errs, fmt.Errorf("invalid extension %q", ext))
		}
	}
	if c.TempExt == c.OutExt || c.TempExt == c.InExt {
		errs = append(errs, fmt.Errorf("temp extension %q collides with input or output extension", c.TempExt))
	}
	if _, _, err := c.Limits(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Limits parses the hard and warning time limits.
func (c Config) Limits() (programs.TimeLimits, programs.TimeLimits, error) {
	hard, err := programs.ParseTimeLimits(c.TimeLimit)
	if err != nil {
		return programs.TimeLimits{}, programs.TimeLimits{}, fmt.Errorf("time limit %q: %w", c.TimeLimit, err)
	}
	warn, err := programs.ParseWarnLimits(c.WarnLimit, hard)
	if err != nil {
		return programs.TimeLimits{}, programs.TimeLimits{}, fmt.Errorf("warn time limit %q: %w", c.WarnLimit, err)
	}
	return hard, warn, nil
}

// MemoryKiB converts the memory limit for the execution wrapper.
func (c Config) MemoryKiB() int64 {
	return c.MemoryMB * 1024
}

func (c Config) BuildOptions() programs.BuildOptions {
	opts := programs.DefaultBuildOptions()
	opts.ProgDir = c.ProgDir
	opts.PythonCmd = c.PythonCmd
	opts.Compile = c.Compile
	opts.Execute = c.Execute
	opts.Quiet = c.Quiet
	return opts
}
