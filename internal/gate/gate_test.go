package gate_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/programme-lv/itester/internal/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyDefaultState(t *testing.T) {
	var calls atomic.Int32
	set := gate.NewSet(func(input string) bool {
		calls.Add(1)
		return input == "exists.in"
	})
	assert.True(t, set.Get("exists.in").IsOpen())
	assert.False(t, set.Get("missing.in").IsOpen())
	set.Get("exists.in")
	assert.EqualValues(t, 2, calls.Load())
}

func TestNilDefaultIsClosed(t *testing.T) {
	set := gate.NewSet(nil)
	assert.False(t, set.Get("a").IsOpen())
}

func TestWaitUnblocksOnOpen(t *testing.T) {
	set := gate.NewSet(nil)
	g := set.Arm("1.a.in")

	done := make(chan error, 1)
	go func() { done <- set.Wait(context.Background(), "1.a.in") }()

	select {
	case <-done:
		t.Fatal("wait returned before open")
	case <-time.After(30 * time.Millisecond):
	}

	set.Open("1.a.in")
	set.Open("1.a.in")
	require.NoError(t, <-done)
	assert.True(t, g.IsOpen())
}

func TestArmClosesAnOpenGate(t *testing.T) {
	set := gate.NewSet(func(string) bool { return true })
	assert.True(t, set.Get("x").IsOpen())
	set.Arm("x")
	assert.False(t, set.Get("x").IsOpen())
}

func TestWaitCancelled(t *testing.T) {
	set := gate.NewSet(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, set.Wait(ctx, "y"), context.DeadlineExceeded)
}

func TestOpenAll(t *testing.T) {
	set := gate.NewSet(nil)
	a, b := set.Arm("a"), set.Arm("b")
	set.OpenAll()
	assert.True(t, a.IsOpen())
	assert.True(t, b.IsOpen())
}
