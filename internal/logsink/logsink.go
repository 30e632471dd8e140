package logsink

import (
	"bytes"
	"io"
	"log/slog"
	"sync"

	"github.com/lmittmann/tint"
)

// Manager hands out buffered sinks and copies closed ones to the output
// in the order they were created. Only the goroutine running Run writes
// to the output.
type Manager struct {
	out io.Writer

	mu     sync.Mutex
	sinks  []*Sink
	next   int
	sealed bool

	signal chan struct{}
	color  bool
}

func NewManager(out io.Writer, color bool) *Manager {
	return &Manager{
		out:    out,
		signal: make(chan struct{}, 1),
		color:  color,
	}
}

// Sink buffers the output of one unit of work.
type Sink struct {
	m      *Manager
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
	logger *slog.Logger
}

func (m *Manager) NewSink() *Sink {
	s := &Sink{m: m}
	s.logger = slog.New(tint.NewHandler(s, &tint.Options{
		Level:   slog.LevelInfo,
		NoColor: !m.color,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))

	m.mu.Lock()
	m.sinks = append(m.sinks, s)
	m.mu.Unlock()
	return s
}

func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

// Logger writes structured lines into the sink.
func (s *Sink) Logger() *slog.Logger { return s.logger }

// Close marks the buffer complete. Writes after Close are still kept
// until the sink is flushed.
func (s *Sink) Close() {
	s.mu.Lock()
	already := s.closed
	s.closed = true
	s.mu.Unlock()
	if !already {
		s.m.wake()
	}
}

func (s *Sink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Sink) drain() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := append([]byte(nil), s.buf.Bytes()...)
	s.buf.Reset()
	return b
}

func (m *Manager) wake() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Flush writes every closed sink at the head of the list.
func (m *Manager) Flush() {
	for {
		m.mu.Lock()
		if m.next >= len(m.sinks) || !m.sinks[m.next].isClosed() {
			m.mu.Unlock()
			return
		}
		s := m.sinks[m.next]
		m.next++
		m.mu.Unlock()

		if b := s.drain(); len(b) > 0 {
			_, _ = m.out.Write(b)
		}
	}
}

func (m *Manager) done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sealed && m.next >= len(m.sinks)
}

// Seal announces that no more sinks will be created.
func (m *Manager) Seal() {
	m.mu.Lock()
	m.sealed = true
	m.mu.Unlock()
	m.wake()
}

// CloseAll closes every sink. Used on abort so that buffered output is
// still shown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sinks := append([]*Sink(nil), m.sinks...)
	m.mu.Unlock()
	for _, s := range sinks {
		s.Close()
	}
}

// Run flushes sinks as they close until the manager is sealed and
// everything was written.
func (m *Manager) Run() {
	for {
		m.Flush()
		if m.done() {
			return
		}
		<-m.signal
	}
}
