package termgath_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/programme-lv/itester/internal/gatherer/termgath"
	"github.com/programme-lv/itester/internal/stats"
	"github.com/programme-lv/itester/internal/tester"
	"github.com/programme-lv/itester/internal/verdict"
	"github.com/stretchr/testify/assert"
)

func TestFinishUnitOneline(t *testing.T) {
	var out, unit bytes.Buffer
	g := termgath.New(&out, false, false)
	g.StartJob(tester.JobInfo{Programs: []string{"sol"}, Inputs: []string{"1.in"}})

	g.FinishUnit(tester.UnitRef{Program: "sol", Input: "tests/1.in", Out: &unit}, tester.UnitResult{
		Verdict: verdict.New(verdict.Pass),
		Timing:  &stats.Timing{Wall: 10 * time.Millisecond},
	})
	assert.Equal(t, "sol      < 1.in     10ms OK\n", unit.String())
}

func TestFinishUnitPerInput(t *testing.T) {
	var out, header, unit bytes.Buffer
	g := termgath.New(&out, false, true)
	g.StartJob(tester.JobInfo{Programs: []string{"sol.cpp", "sol-wa.cpp"}, Inputs: []string{"1.in"}})

	g.ReachInput(tester.InputRef{Input: "tests/1.in", Reference: "tests/1.out", Creating: true, Out: &header})
	assert.Equal(t, "File 1.out will be created now (doesn't exist).\n1.in >\n", header.String())

	g.FinishUnit(tester.UnitRef{Program: "sol-wa.cpp", Input: "tests/1.in", Out: &unit}, tester.UnitResult{
		Verdict: verdict.New(verdict.WrongOutput),
	})
	assert.Contains(t, unit.String(), "    sol-wa.cpp ")
	assert.Contains(t, unit.String(), "NO DATA")
	assert.Contains(t, unit.String(), " WA\n")
}

func TestReachInputRecompute(t *testing.T) {
	var out, header bytes.Buffer
	g := termgath.New(&out, false, false)
	g.StartJob(tester.JobInfo{Programs: []string{"sol"}, Inputs: []string{"1.in"}})
	g.ReachInput(tester.InputRef{Input: "1.in", Reference: "1.out", Creating: true, Exists: true, Out: &header})
	assert.Equal(t, "File 1.out will be created now (recompute).\n", header.String())
}

func TestCPUTimes(t *testing.T) {
	var out, unit bytes.Buffer
	g := termgath.New(&out, false, true)
	g.StartJob(tester.JobInfo{Programs: []string{"sol"}, Inputs: []string{"1.in"}})
	g.FinishUnit(tester.UnitRef{Program: "sol", Input: "1.in", Out: &unit}, tester.UnitResult{
		Verdict: verdict.New(verdict.Pass),
		Timing: &stats.Timing{
			Wall:   1500 * time.Millisecond,
			User:   1000 * time.Millisecond,
			System: 250 * time.Millisecond,
			HasCPU: true,
		},
	})
	assert.Contains(t, unit.String(), "  1500ms [  1.25=  1.00+  0.25]")
}

func TestIgnoreUnit(t *testing.T) {
	var out, unit bytes.Buffer
	g := termgath.New(&out, false, false)
	g.StartJob(tester.JobInfo{Programs: []string{"a", "b"}, Inputs: []string{"1.in"}})
	g.IgnoreUnit(tester.UnitRef{Program: "a", Input: "1.in", Out: &unit})
	assert.Equal(t, "    a         skipped\n", unit.String())
}

func TestSummaryTable(t *testing.T) {
	var out bytes.Buffer
	g := termgath.New(&out, false, false)
	g.StartJob(tester.JobInfo{
		Programs: []string{"sol.cpp"},
		Inputs:   []string{"00.sample.in", "1.a.in", "1.b.in", "2.a.in"},
	})

	st := stats.New(verdict.SolutionPolicy{})
	st.Record("00.sample", verdict.New(verdict.Pass), &stats.Timing{Wall: 5 * time.Millisecond})
	st.Record("1", verdict.New(verdict.Pass), &stats.Timing{Wall: 20 * time.Millisecond})
	st.Record("2", verdict.New(verdict.WrongOutput), &stats.Timing{Wall: 30 * time.Millisecond})
	g.FinishJob([]tester.ProgramResult{{Name: "sol.cpp", Stats: st.Snapshot()}})

	s := out.String()
	assert.Contains(t, s, "| Solution | Max time | Times sum | Pt   2 | Status |")
	assert.Contains(t, s, "| sol.cpp  |       20 |        25 |      1 | WA     | OOW |")
	assert.Contains(t, s, "Finished in")
}
