package natsgath

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/programme-lv/itester/api"
	"github.com/programme-lv/itester/internal/gatherer/respbuilder"
	"github.com/programme-lv/itester/internal/tester"
)

type natsGatherer struct {
	nc      Publisher
	subject string
	logger  *slog.Logger

	mu    sync.Mutex
	runID string
}

func (s *natsGatherer) id() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

func unit(u tester.UnitRef) api.Unit {
	return api.Unit{Program: u.Program, Input: filepath.Base(u.Input), Batch: u.Batch}
}

// StartJob implements tester.ResultGatherer.
func (s *natsGatherer) StartJob(info tester.JobInfo) {
	s.mu.Lock()
	s.runID = info.RunID
	s.mu.Unlock()
	s.send(api.NewStartJob(info.RunID, info.Programs, info.Inputs, info.Threads))
}

func (s *natsGatherer) ReachInput(in tester.InputRef) {
	s.send(api.NewReachInput(s.id(), filepath.Base(in.Input), in.Creating))
}

func (s *natsGatherer) StartUnit(u tester.UnitRef) {
	s.send(api.NewStartUnit(s.id(), unit(u)))
}

func (s *natsGatherer) FinishUnit(u tester.UnitRef, res tester.UnitResult) {
	s.send(api.NewFinishUnit(s.id(), unit(u), res.Verdict.String(), respbuilder.Timing(res.Timing)))
}

func (s *natsGatherer) IgnoreUnit(u tester.UnitRef) {
	s.send(api.NewIgnoreUnit(s.id(), unit(u)))
}

func (s *natsGatherer) InternalError(msg string) {
	s.send(api.NewFinishJob(s.id(), &msg, true, nil))
}

func (s *natsGatherer) FinishJob(results []tester.ProgramResult) {
	id := s.id()
	summary := &api.Summary{RunID: id, Status: api.Success, Programs: respbuilder.Programs(results)}
	s.send(api.NewFinishJob(id, nil, false, summary))
}
