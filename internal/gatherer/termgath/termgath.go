package termgath

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/programme-lv/itester/internal/programs"
	"github.com/programme-lv/itester/internal/stats"
	"github.com/programme-lv/itester/internal/tester"
	"github.com/programme-lv/itester/internal/verdict"
)

type TerminalGatherer struct {
	StartedAt time.Time
	// Summary enables the table printed by FinishJob.
	Summary bool

	out      io.Writer
	colorful bool
	cpuTimes bool

	mu         sync.Mutex
	cmdWidth   int
	inputWidth int
	oneline    bool
	inputs     []string
}

// New prints unit lines into the unit sinks and the summary into out.
// cpuTimes adds user and system time to every unit line.
func New(out io.Writer, colorful, cpuTimes bool) *TerminalGatherer {
	return &TerminalGatherer{
		StartedAt: time.Now(),
		out:       out,
		colorful:  colorful,
		cpuTimes:  cpuTimes,
		Summary:   true,
		cmdWidth:  len("Solution"),
	}
}

func (t *TerminalGatherer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if t.colorful {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (t *TerminalGatherer) verdictColor(v verdict.Verdict) *color.Color {
	switch v.Kind() {
	case verdict.Pass, verdict.ValidatorPass:
		return t.paint(color.FgGreen)
	case verdict.WrongOutput:
		return t.paint(color.FgRed)
	case verdict.Timeout:
		return t.paint(color.FgYellow)
	case verdict.RuntimeError:
		return t.paint(color.FgMagenta)
	case verdict.CompileError:
		return t.paint(color.FgCyan)
	default:
		return t.paint(color.FgRed, color.Bold)
	}
}

// scoreColor grades points out of maxPoints into five bands.
func (t *TerminalGatherer) scoreColor(points, maxPoints int) *color.Color {
	bounds := []int{0, 4, 7, 9, 10}
	p := 0
	for p < 4 && points*10 > maxPoints*bounds[p] {
		p++
	}
	return []*color.Color{
		t.paint(color.FgRed, color.Bold),
		t.paint(color.FgRed),
		t.paint(color.FgYellow),
		t.paint(color.FgHiGreen),
		t.paint(color.FgGreen, color.Bold),
	}[p]
}

func (t *TerminalGatherer) StartJob(info tester.JobInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range info.Programs {
		t.cmdWidth = max(t.cmdWidth, len(p))
	}
	for _, in := range info.Inputs {
		t.inputWidth = max(t.inputWidth, len(in))
	}
	t.oneline = len(info.Programs) <= 1
	t.inputs = info.Inputs
}

func (t *TerminalGatherer) ReachInput(in tester.InputRef) {
	if in.Creating {
		reason := "doesn't exist"
		if in.Exists {
			reason = "recompute"
		}
		t.paint(color.FgBlue).Fprintf(in.Out, "File %s will be created now (%s).\n", filepath.Base(in.Reference), reason)
	}
	t.mu.Lock()
	oneline := t.oneline
	t.mu.Unlock()
	if !oneline {
		t.paint(color.Faint).Fprintf(in.Out, "%s >\n", filepath.Base(in.Input))
	}
}

func (t *TerminalGatherer) StartUnit(tester.UnitRef) {}

func (t *TerminalGatherer) unitPrefix(u tester.UnitRef) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	name := fmt.Sprintf("%-*s", t.cmdWidth, u.Program)
	if t.oneline {
		return fmt.Sprintf("%s < %-*s", name, t.inputWidth, filepath.Base(u.Input))
	}
	return "    " + name + " "
}

func (t *TerminalGatherer) formatTiming(timing *stats.Timing) string {
	if timing == nil {
		if t.cpuTimes {
			return fmt.Sprintf("%-31s", " NO DATA")
		}
		return fmt.Sprintf("%-8s", " NO DATA")
	}
	ms := timing.Wall.Milliseconds()
	if !t.cpuTimes || !timing.HasCPU {
		return fmt.Sprintf("%6dms", ms)
	}
	user, sys := timing.User.Seconds(), timing.System.Seconds()
	return fmt.Sprintf("%6dms [%6.2f=%6.2f+%6.2f]", ms, user+sys, user, sys)
}

func (t *TerminalGatherer) FinishUnit(u tester.UnitRef, res tester.UnitResult) {
	good := res.Verdict.Is(verdict.Pass) || res.Verdict.Is(verdict.ValidatorPass)
	line := t.paint(color.FgRed)
	if good {
		line = t.paint(color.FgGreen)
	}
	summary := t.unitPrefix(u) + " " + t.formatTiming(res.Timing)
	fmt.Fprintf(u.Out, "%s %s\n", line.Sprint(summary), t.verdictColor(res.Verdict).Sprint(res.Verdict.String()))
}

func (t *TerminalGatherer) IgnoreUnit(u tester.UnitRef) {
	t.paint(color.Faint).Fprintf(u.Out, "%s skipped\n", t.unitPrefix(u))
}

func (t *TerminalGatherer) InternalError(msg string) {
	t.paint(color.FgRed, color.Bold).Fprintf(t.out, "Internal error. Testing will not continue: %s\n", msg)
}

func (t *TerminalGatherer) FinishJob(results []tester.ProgramResult) {
	if !t.Summary {
		return
	}
	t.mu.Lock()
	width := t.cmdWidth
	inputs := t.inputs
	t.mu.Unlock()

	table := t.paint(color.FgBlue)
	batches := map[string]bool{}
	for _, in := range inputs {
		if b := programs.ParseBatch(in); !stats.IsSample(b) {
			batches[b] = true
		}
	}

	fmt.Fprintln(t.out)
	table.Fprintf(t.out, "| %-*s | %8s | %9s | %6s | %-6s |\n", width, "Solution", "Max time", "Times sum", fmt.Sprintf("Pt %3d", len(batches)), "Status")
	table.Fprintf(t.out, "|%s|%s|%s|%s|%s|\n", strings.Repeat("-", width+2), strings.Repeat("-", 10), strings.Repeat("-", 11), strings.Repeat("-", 8), strings.Repeat("-", 8))
	for _, r := range results {
		fmt.Fprintln(t.out, t.row(r, width))
	}
	t.paint(color.Faint).Fprintf(t.out, "Finished in %s\n", time.Since(t.StartedAt).Round(time.Millisecond))
}

func (t *TerminalGatherer) row(r tester.ProgramResult, width int) string {
	snap := r.Stats
	table := t.paint(color.FgBlue)
	var score *color.Color
	points := ""
	if r.Validator {
		ok := 0
		if snap.Overall.Is(verdict.ValidatorPass) {
			ok = 1
		}
		score = t.scoreColor(ok, 1)
	} else {
		score = t.scoreColor(snap.Points, snap.MaxPoints)
		points = fmt.Sprint(snap.Points)
	}

	var letters strings.Builder
	for _, b := range snap.Batches {
		v := snap.BatchVerdicts[b]
		letters.WriteString(t.verdictColor(v).Sprint(v.Short()))
	}
	status := snap.Overall.String()

	cols := []string{
		score.Sprintf("%-*s", width, r.Name),
		score.Sprintf("%8d", snap.MaxTime.Milliseconds()),
		score.Sprintf("%9d", snap.SumTime.Milliseconds()),
		score.Sprintf("%6s", points),
		t.verdictColor(snap.Overall).Sprint(status) + strings.Repeat(" ", max(0, 6-len(status))),
		letters.String(),
	}
	sep := table.Sprint(" | ")
	return table.Sprint("| ") + strings.Join(cols, sep) + table.Sprint(" |")
}
