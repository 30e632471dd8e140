package programs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/shlex"
)

var ErrBuildFailed = errors.New("build failed")

// BuildOptions are shared by every program of one run.
type BuildOptions struct {
	// ProgDir receives compiled binaries. Empty compiles next to the source.
	ProgDir   string
	PythonCmd string
	// Compile allows running compilers.
	Compile bool
	// Execute runs every program name as a final command.
	Execute     bool
	CppCompiler string
	Quiet       bool
}

func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		ProgDir:   "prog",
		PythonCmd: "python3",
		Compile:   true,
	}
}

// Program is anything that can be started by a shell command. The run
// command is fixed by Build and never changes afterwards.
type Program struct {
	Name       string
	Source     string
	Ext        string
	Lang       Lang
	RunCmd     string
	CompileCmd string

	opts         BuildOptions
	classDir     string
	filesToClear []string
	ready        bool
}

// NewProgram derives source, language and commands from the name.
func NewProgram(name string, opts BuildOptions) (*Program, error) {
	p := &Program{Name: name, RunCmd: name, opts: opts}
	if opts.Execute {
		return p, nil
	}

	words, err := shlex.Split(name)
	if err != nil {
		return nil, fmt.Errorf("failed to split program %q: %w", name, err)
	}
	if len(words) > 1 {
		if fileExists(name) {
			return nil, fmt.Errorf("whitespace in file names is not supported [%s]", name)
		}
		return p, nil
	}

	if !strings.Contains(filepath.Base(name), ".") {
		var valid []string
		for _, langs := range [][]Lang{compiledLangs, scriptLangs} {
			for _, lang := range langs {
				for _, ext := range langExts[lang] {
					if fileExists(name + "." + ext) {
						valid = append(valid, ext)
					}
				}
			}
		}
		if len(valid) > 0 {
			p.Ext = valid[0]
			p.Source = name + "." + p.Ext
			if fileExists(name) {
				valid = append(valid, "<noextension>")
			}
		}
		if len(valid) > 1 {
			slog.Warn("multiple possible sources, using first", "program", name, "candidates", valid)
		}
	} else {
		p.Source = name
		idx := strings.LastIndex(name, ".")
		p.RunCmd, p.Ext = name[:idx], name[idx+1:]
	}

	p.Lang = LangFromExt(p.Ext)
	if p.Lang == LangUnknown || p.Source == "" {
		p.RunCmd = name
		return p, nil
	}

	if p.Lang.Script() {
		p.RunCmd = p.Source
	}

	doCompile := opts.Compile && p.Lang.Compiled() &&
		(p.Source == p.Name || !fileExists(p.RunCmd) || isNewer(p.Source, p.RunCmd))
	if doCompile {
		if err := p.setupCompile(); err != nil {
			return nil, err
		}
	}

	if !isExecutable(p.RunCmd) {
		switch p.Lang {
		case LangPython3:
			p.RunCmd = fmt.Sprintf("%s %s", opts.PythonCmd, p.Source)
		case LangPython2:
			p.RunCmd = fmt.Sprintf("python2 %s", p.Source)
		case LangJava:
			p.RunCmd = "java -Xss256m " + p.RunCmd
		}
	}
	return p, nil
}

func (p *Program) setupCompile() error {
	switch p.Lang {
	case LangC:
		p.setupMake(p.compilerOpt("CC"), `CFLAGS="-O2 -g -std=c17 $CFLAGS"`)
	case LangCpp:
		p.setupMake(p.compilerOpt("CXX"), `CXXFLAGS="-O2 -g -std=c++20 $CXXFLAGS"`)
	case LangPascal:
		p.setupMake(`PFLAGS="-O2 $PFLAGS"`)
	case LangJava:
		dir := p.opts.ProgDir
		if dir == "" {
			dir = "."
		}
		p.classDir = filepath.Join(dir, fmt.Sprintf(".classdir-%s-%d.tmp", BaseAlnum(p.Name), os.Getpid()))
		p.CompileCmd = fmt.Sprintf("javac %s -d %s", p.Source, p.classDir)
		p.filesToClear = append(p.filesToClear, p.classDir)
		p.RunCmd = fmt.Sprintf("-cp %s %s", p.classDir, filepath.Base(p.RunCmd))
	case LangRust:
		if p.opts.ProgDir == "" {
			p.CompileCmd = fmt.Sprintf("rustc -C opt-level=2 %s.rs", p.RunCmd)
		} else {
			p.CompileCmd = fmt.Sprintf("rustc -C opt-level=2 --out-dir %s %s.rs", p.opts.ProgDir, p.RunCmd)
			p.RunCmd = filepath.Join(p.opts.ProgDir, filepath.Base(p.RunCmd))
		}
		p.filesToClear = append(p.filesToClear, p.RunCmd)
	default:
		return fmt.Errorf("no compiler known for %s", p.Lang)
	}
	return nil
}

func (p *Program) compilerOpt(variable string) string {
	if p.opts.CppCompiler == "" {
		return ""
	}
	return fmt.Sprintf(`%s="%s"`, variable, p.opts.CppCompiler)
}

// setupMake compiles through make so that local includes and custom
// makefiles keep working.
func (p *Program) setupMake(options ...string) {
	option := joinWords(options)
	if p.opts.ProgDir == "" {
		p.CompileCmd = joinWords([]string{"make", option, p.RunCmd})
		p.filesToClear = append(p.filesToClear, p.RunCmd)
		return
	}

	dir, exe := filepath.Split(p.RunCmd)
	if dir == "" {
		dir = "."
	}
	vpath := dir
	if abs, err := filepath.Abs(dir); err == nil {
		vpath = abs
	}
	if progAbs, err := filepath.Abs(p.opts.ProgDir); err == nil {
		if rel, err := filepath.Rel(progAbs, vpath); err == nil && len(rel) < len(vpath) {
			vpath = rel
		}
	}
	p.CompileCmd = joinWords([]string{"cd", p.opts.ProgDir + ";", "make", fmt.Sprintf(`VPATH="%s"`, vpath), option, exe})
	p.RunCmd = filepath.Join(p.opts.ProgDir, exe)
	p.filesToClear = append(p.filesToClear, p.RunCmd)
}

func joinWords(words []string) string {
	res := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			res = append(res, w)
		}
	}
	return strings.Join(res, " ")
}

func (p *Program) Ready() bool { return p.ready }

// Build compiles the program if needed and fixes the run command.
// Compiler output goes to out unless quiet.
func (p *Program) Build(ctx context.Context, logger *slog.Logger, out io.Writer) error {
	if p.CompileCmd != "" {
		if p.opts.ProgDir != "" {
			if err := os.MkdirAll(p.opts.ProgDir, 0755); err != nil {
				return fmt.Errorf("failed to create program directory: %w", err)
			}
		}
		if p.classDir != "" {
			if err := os.MkdirAll(p.classDir, 0755); err != nil {
				return fmt.Errorf("failed to create class directory: %w", err)
			}
		}

		logger.Info("compiling", "program", p.Name, "cmd", p.CompileCmd)
		start := time.Now()
		var output bytes.Buffer
		cmd := exec.CommandContext(ctx, "bash", "-c", p.CompileCmd)
		cmd.Stdout = &output
		cmd.Stderr = &output
		err := cmd.Run()
		if !p.opts.Quiet && out != nil && output.Len() > 0 {
			_, _ = out.Write(output.Bytes())
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBuildFailed, p.Name, err)
		}
		logger.Debug("compiled", "program", p.Name, "elapsed", time.Since(start).Round(time.Millisecond))

		if p.Lang != LangJava {
			found := findExecutable(executableCandidates(p.RunCmd, p.Name))
			if found == "" {
				return fmt.Errorf("%w: no executable found for %s", ErrBuildFailed, p.Name)
			}
			if found != p.RunCmd {
				logger.Warn("executable not found where expected", "expected", p.RunCmd, "using", found)
				p.RunCmd = found
			}
		}
	}

	if !p.opts.Execute && isExecutable(p.RunCmd) && startsAlnum(p.RunCmd) {
		p.RunCmd = "./" + p.RunCmd
	}
	p.ready = true
	return nil
}

func executableCandidates(runCmd, source string) []string {
	sourceDir, sourceBase := filepath.Split(source)
	sourceName := strings.TrimSuffix(sourceBase, filepath.Ext(sourceBase))
	runBase := filepath.Base(runCmd)
	return Dedup([]string{
		runCmd,
		filepath.Join(sourceDir, runBase),
		filepath.Join(sourceDir, sourceName),
		filepath.Join(sourceDir, sourceBase),
		runBase,
		sourceName,
		sourceBase,
	})
}

func findExecutable(candidates []string) string {
	for _, c := range candidates {
		if isExecutable(c) {
			return c
		}
	}
	return ""
}

// Cleanup removes compiled artifacts.
func (p *Program) Cleanup(logger *slog.Logger) {
	for _, f := range p.filesToClear {
		if !fileExists(f) {
			logger.Warn("not found", "file", f)
			continue
		}
		if err := os.RemoveAll(f); err != nil {
			logger.Warn("failed to remove", "file", f, "error", err)
		}
	}
}

func startsAlnum(s string) bool {
	for _, r := range s {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}
	return false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

func isNewer(a, b string) bool {
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return ia.ModTime().After(ib.ModTime())
}
