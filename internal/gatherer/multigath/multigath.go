package multigath

import "github.com/programme-lv/itester/internal/tester"

// Gatherer forwards every event to all of its gatherers in order.
type Gatherer []tester.ResultGatherer

func New(gatherers ...tester.ResultGatherer) Gatherer {
	var g Gatherer
	for _, x := range gatherers {
		if x != nil {
			g = append(g, x)
		}
	}
	return g
}

func (g Gatherer) StartJob(info tester.JobInfo) {
	for _, x := range g {
		x.StartJob(info)
	}
}

func (g Gatherer) ReachInput(in tester.InputRef) {
	for _, x := range g {
		x.ReachInput(in)
	}
}

func (g Gatherer) StartUnit(u tester.UnitRef) {
	for _, x := range g {
		x.StartUnit(u)
	}
}

func (g Gatherer) FinishUnit(u tester.UnitRef, res tester.UnitResult) {
	for _, x := range g {
		x.FinishUnit(u, res)
	}
}

func (g Gatherer) IgnoreUnit(u tester.UnitRef) {
	for _, x := range g {
		x.IgnoreUnit(u)
	}
}

func (g Gatherer) InternalError(msg string) {
	for _, x := range g {
		x.InternalError(msg)
	}
}

func (g Gatherer) FinishJob(results []tester.ProgramResult) {
	for _, x := range g {
		x.FinishJob(results)
	}
}
