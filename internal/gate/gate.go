package gate

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// Gate is a one-shot latch. Once open it stays open.
type Gate struct {
	once sync.Once
	ch   chan struct{}
}

func newGate(open bool) *Gate {
	g := &Gate{ch: make(chan struct{})}
	if open {
		g.Open()
	}
	return g
}

func (g *Gate) Open() {
	g.once.Do(func() { close(g.ch) })
}

func (g *Gate) IsOpen() bool {
	select {
	case <-g.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the gate opens or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Set holds one gate per input file, created on first use.
type Set struct {
	gates       *xsync.MapOf[string, *Gate]
	defaultOpen func(input string) bool
}

// NewSet creates a gate set. defaultOpen decides the state of a lazily
// created gate, typically whether the reference output already exists.
// A nil defaultOpen creates gates closed.
func NewSet(defaultOpen func(input string) bool) *Set {
	return &Set{
		gates:       xsync.NewMapOf[string, *Gate](),
		defaultOpen: defaultOpen,
	}
}

func (s *Set) Get(input string) *Gate {
	g, _ := s.gates.LoadOrCompute(input, func() *Gate {
		return newGate(s.defaultOpen != nil && s.defaultOpen(input))
	})
	return g
}

// Arm replaces the gate for input with a closed one. Waiters on the
// previous gate are not affected.
func (s *Set) Arm(input string) *Gate {
	g := newGate(false)
	s.gates.Store(input, g)
	return g
}

func (s *Set) Open(input string) {
	s.Get(input).Open()
}

func (s *Set) Wait(ctx context.Context, input string) error {
	return s.Get(input).Wait(ctx)
}

// OpenAll releases every waiter. Used when a run is aborted.
func (s *Set) OpenAll() {
	s.gates.Range(func(_ string, g *Gate) bool {
		g.Open()
		return true
	})
}
