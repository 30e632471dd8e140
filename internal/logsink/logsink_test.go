package logsink_test

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/programme-lv/itester/internal/logsink"
	"github.com/stretchr/testify/assert"
)

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFlushInCreationOrder(t *testing.T) {
	var out safeBuffer
	m := logsink.NewManager(&out, false)
	a, b, c := m.NewSink(), m.NewSink(), m.NewSink()

	fmt.Fprint(c, "c")
	c.Close()
	fmt.Fprint(b, "b")
	b.Close()
	m.Flush()
	assert.Empty(t, out.String())

	fmt.Fprint(a, "a")
	a.Close()
	m.Flush()
	assert.Equal(t, "abc", out.String())
}

func TestRunUntilSealed(t *testing.T) {
	var out safeBuffer
	m := logsink.NewManager(&out, false)
	done := make(chan struct{})
	go func() {
		m.Run()
		close(done)
	}()

	var wg sync.WaitGroup
	sinks := make([]*logsink.Sink, 20)
	for i := range sinks {
		sinks[i] = m.NewSink()
	}
	m.Seal()
	for i, s := range sinks {
		wg.Add(1)
		go func(i int, s *logsink.Sink) {
			defer wg.Done()
			time.Sleep(time.Duration(20-i) * time.Millisecond)
			fmt.Fprintf(s, "%02d;", i)
			s.Close()
		}(i, s)
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not finish")
	}
	var want string
	for i := range sinks {
		want += fmt.Sprintf("%02d;", i)
	}
	assert.Equal(t, want, out.String())
}

func TestCloseAllReleasesRun(t *testing.T) {
	var out safeBuffer
	m := logsink.NewManager(&out, false)
	s := m.NewSink()
	s.Logger().Warn("checker exited with unexpected status", "status", 3)
	m.NewSink()
	m.Seal()

	done := make(chan struct{})
	go func() {
		m.Run()
		close(done)
	}()
	m.CloseAll()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not finish")
	}
	assert.Contains(t, out.String(), "WRN checker exited with unexpected status status=3")
}
