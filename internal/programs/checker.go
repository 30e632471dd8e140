package programs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/programme-lv/itester/internal/execwrap"
	"github.com/programme-lv/itester/internal/utils"
)

var ErrUnsupportedChecker = errors.New("unsupported checker")

// CheckerFormat is the argument convention of a checker, chosen by the
// prefix of its file name.
type CheckerFormat string

const (
	// diff reference produced
	FormatDiff CheckerFormat = "diff"
	// check input reference produced
	FormatCheck CheckerFormat = "check"
	// chito input produced reference
	FormatChito CheckerFormat = "chito"
	// test ./ ./ input reference produced
	FormatTester CheckerFormat = "test"
)

func CheckerFormatOf(name string) (CheckerFormat, bool) {
	base := BaseAlnum(name)
	for _, f := range []CheckerFormat{FormatDiff, FormatCheck, FormatChito, FormatTester} {
		if strings.HasPrefix(base, string(f)) {
			return f, true
		}
	}
	return "", false
}

// Checker compares a produced output with the reference output.
type Checker struct {
	*Program
	format   CheckerFormat
	showDiff bool
}

// BuiltinDiff is the checker name that maps to diff(1).
const BuiltinDiff = "diff"

func NewChecker(name string, showDiff bool, opts BuildOptions) (*Checker, error) {
	format, ok := CheckerFormatOf(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChecker, name)
	}

	if name == BuiltinDiff {
		cmd := "diff -q"
		if showDiff {
			cmd = "diff -y -W 80 --strip-trailing-cr"
		}
		opts.Execute = true
		return &Checker{
			Program:  &Program{Name: name, RunCmd: cmd, opts: opts},
			format:   format,
			showDiff: showDiff,
		}, nil
	}

	p, err := NewProgram(name, opts)
	if err != nil {
		return nil, err
	}
	return &Checker{Program: p, format: format, showDiff: showDiff}, nil
}

func (c *Checker) Format() CheckerFormat { return c.format }

// Command is the shell command comparing the three files.
func (c *Checker) Command(input, reference, produced string) string {
	q := execwrap.Quote
	var args string
	switch c.format {
	case FormatDiff:
		args = fmt.Sprintf("%s %s", q(reference), q(produced))
	case FormatCheck:
		args = fmt.Sprintf("%s %s %s", q(input), q(reference), q(produced))
	case FormatChito:
		args = fmt.Sprintf("%s %s %s", q(input), q(produced), q(reference))
	case FormatTester:
		args = fmt.Sprintf("./ ./ %s %s %s", q(input), q(reference), q(produced))
	}
	return c.RunCmd + " " + args
}

// Check runs the checker and returns its exit code: 0 accepted,
// 1 rejected, anything else is a malfunction. err is set only when the
// checker could not be run at all.
func (c *Checker) Check(ctx context.Context, input, reference, produced string, logger *slog.Logger, out io.Writer) (int, error) {
	if !c.ready {
		return -1, fmt.Errorf("checker %s not prepared for execution", c.Name)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "bash", "-c", c.Command(input, reference, produced))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return -1, fmt.Errorf("failed to run checker: %w", err)
		}
	}
	code := cmd.ProcessState.ExitCode()

	if !c.opts.Quiet && out != nil && stderr.Len() > 0 {
		_, _ = out.Write(stderr.Bytes())
	}
	if code != 0 && code != 1 {
		logger.Warn("checker exited with unexpected status", "checker", c.Name, "status", code)
	}
	if c.showDiff && code != 0 && stdout.Len() > 0 {
		logger.Info("checker output\n" + utils.TrimToRect(stdout.String(), 5, 80))
	}
	return code, nil
}
