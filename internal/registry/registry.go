package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

var ErrUnknownTask = errors.New("unknown task")

// Key identifies one unit of work.
type Key struct {
	Program string
	Batch   string
	Input   string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Program, k.Batch, k.Input)
}

type group struct {
	program string
	batch   string
}

// Killer is a live OS process that can be terminated.
type Killer interface {
	Kill() error
}

// Record is a read-only view of one registry entry.
type Record struct {
	Start   time.Time
	End     time.Time
	Ended   bool
	Killed  bool
	Skipped bool
	HasProc bool
}

type record struct {
	key     Key
	start   time.Time
	end     time.Time
	ended   bool
	proc    Killer
	killed  bool
	skipped bool
}

func (r *record) view() Record {
	return Record{
		Start:   r.start,
		End:     r.end,
		Ended:   r.ended,
		Killed:  r.killed,
		Skipped: r.skipped,
		HasProc: r.proc != nil,
	}
}

// Registry tracks every started unit of work for the duration of one
// run. Records are never deleted.
type Registry struct {
	mu      sync.Mutex
	records map[Key]*record
	running map[group]int
	now     func() time.Time
	logger  *slog.Logger
}

func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		records: make(map[Key]*record),
		running: make(map[group]int),
		now:     time.Now,
		logger:  logger,
	}
}

// Start inserts a fresh record for the unit and returns its handle.
// Restarting a key replaces the previous record.
func (r *Registry) Start(program, batch, input string) *RunHandle {
	key := Key{Program: program, Batch: batch, Input: input}
	rec := &record{key: key, start: r.now()}

	r.mu.Lock()
	if old, ok := r.records[key]; ok {
		r.endLocked(old, false)
	}
	r.records[key] = rec
	r.running[group{program, batch}]++
	r.mu.Unlock()

	return &RunHandle{reg: r, rec: rec}
}

// End marks the unit finished. Ending an unknown or already ended unit
// is a no-op.
func (r *Registry) End(key Key, skipped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return
	}
	r.endLocked(rec, skipped)
}

func (r *Registry) endLocked(rec *record, skipped bool) {
	if rec.ended {
		return
	}
	rec.ended = true
	rec.end = r.now()
	rec.skipped = skipped
	r.running[group{rec.key.Program, rec.key.Batch}]--
}

// Handle returns the handle bound to an existing record.
func (r *Registry) Handle(key Key) (*RunHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, key)
	}
	return &RunHandle{reg: r, rec: rec}, nil
}

// Running is the number of unfinished units of (program, batch).
func (r *Registry) Running(program, batch string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running[group{program, batch}]
}

func (r *Registry) Get(key Key) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return Record{}, false
	}
	return rec.view(), true
}

type Entry struct {
	Key
	Record
}

// All returns every record ordered by start time.
func (r *Registry) All() []Entry {
	r.mu.Lock()
	res := make([]Entry, 0, len(r.records))
	for key, rec := range r.records {
		res = append(res, Entry{Key: key, Record: rec.view()})
	}
	r.mu.Unlock()

	sort.Slice(res, func(i, j int) bool {
		return res[i].Start.Before(res[j].Start)
	})
	return res
}

// KillAll terminates every unfinished unit.
func (r *Registry) KillAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if !rec.ended {
			r.killLocked(rec)
		}
	}
}

func (r *Registry) killLocked(rec *record) {
	rec.killed = true
	if rec.proc == nil {
		return
	}
	if err := rec.proc.Kill(); err != nil {
		r.logger.Warn("failed to kill process", "task", rec.key.String(), "error", err)
	}
}

// RunHandle is bound to one registry record.
type RunHandle struct {
	reg *Registry
	rec *record
}

func (h *RunHandle) Key() Key { return h.rec.key }

// SetProcess attaches the spawned process. A unit already marked as
// killed has its process terminated right away.
func (h *RunHandle) SetProcess(proc Killer) {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	h.rec.proc = proc
	if h.rec.killed && !h.rec.ended {
		h.reg.killLocked(h.rec)
	}
}

func (h *RunHandle) IsKilled() bool {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	return h.rec.killed
}

// KillSiblings kills every other unfinished unit of the same program and
// batch. Units without a process yet are only marked.
func (h *RunHandle) KillSiblings() {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	for key, rec := range h.reg.records {
		if rec == h.rec || rec.ended {
			continue
		}
		if key.Program != h.rec.key.Program || key.Batch != h.rec.key.Batch {
			continue
		}
		h.reg.killLocked(rec)
	}
}

func (h *RunHandle) End(skipped bool) {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	h.reg.endLocked(h.rec, skipped)
}
