package stats

import (
	"sort"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/programme-lv/itester/internal/verdict"
)

// Timing of one run. Wall is measured by timestamps around the process,
// User and System come from GNU time when it is available.
type Timing struct {
	Wall   time.Duration
	User   time.Duration
	System time.Duration
	HasCPU bool
}

// Statistics aggregates every recorded observation of one program.
type Statistics struct {
	policy verdict.Policy

	mu           sync.Mutex
	batchVerdict map[string]verdict.Verdict
	batchTimes   map[string][]*Timing
	batchOrder   []string
	overall      verdict.Verdict

	failedBatches mapset.Set[string]
}

func New(policy verdict.Policy) *Statistics {
	return &Statistics{
		policy:        policy,
		batchVerdict:  make(map[string]verdict.Verdict),
		batchTimes:    make(map[string][]*Timing),
		overall:       policy.Initial(),
		failedBatches: mapset.NewSet[string](),
	}
}

func (s *Statistics) Policy() verdict.Policy { return s.policy }

// Record folds one observation into its batch slot and into the overall
// verdict. timing is nil when the run produced no usable timing data.
func (s *Statistics) Record(batch string, v verdict.Verdict, timing *Timing) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, seen := s.batchVerdict[batch]
	if !seen {
		current = s.policy.Initial()
		s.batchOrder = append(s.batchOrder, batch)
	}
	s.batchVerdict[batch] = s.policy.Merge(current, v)
	s.batchTimes[batch] = append(s.batchTimes[batch], timing)
	s.overall = verdict.Fold(s.policy, s.overall, v)
}

func (s *Statistics) MarkFailed(batch string) {
	s.failedBatches.Add(batch)
}

func (s *Statistics) HasFailed(batch string) bool {
	return s.failedBatches.Contains(batch)
}

func (s *Statistics) Overall() verdict.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overall
}

func (s *Statistics) BatchVerdict(batch string) (verdict.Verdict, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.batchVerdict[batch]
	return v, ok
}

// Snapshot is an immutable copy used by reporting.
type Snapshot struct {
	MaxTime       time.Duration
	SumTime       time.Duration
	Points        int
	MaxPoints     int
	Overall       verdict.Verdict
	Batches       []string
	BatchVerdicts map[string]verdict.Verdict
	BatchTimes    map[string][]*Timing
	FailedBatches []string
}

// IsSample reports whether a batch id is excluded from scoring.
func IsSample(batch string) bool {
	return strings.Contains(batch, "sample")
}

// Snapshot computes time totals over passing batches and points over
// non-sample batches. MaxTime is -1ms when nothing passed.
func (s *Statistics) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		MaxTime:       -time.Millisecond,
		Overall:       s.overall,
		BatchVerdicts: make(map[string]verdict.Verdict, len(s.batchVerdict)),
		BatchTimes:    make(map[string][]*Timing, len(s.batchTimes)),
	}
	snap.Batches = append(snap.Batches, s.batchOrder...)
	sort.Strings(snap.Batches)

	for _, batch := range snap.Batches {
		v := s.batchVerdict[batch]
		snap.BatchVerdicts[batch] = v
		snap.BatchTimes[batch] = append([]*Timing(nil), s.batchTimes[batch]...)

		if !IsSample(batch) {
			snap.MaxPoints++
			if v.Is(verdict.Pass) {
				snap.Points++
			}
		}
		if !v.Is(verdict.Pass) {
			continue
		}
		for _, t := range s.batchTimes[batch] {
			if t == nil {
				continue
			}
			snap.MaxTime = max(snap.MaxTime, t.Wall)
			snap.SumTime += t.Wall
		}
	}

	snap.FailedBatches = s.failedBatches.ToSlice()
	sort.Strings(snap.FailedBatches)
	return snap
}
