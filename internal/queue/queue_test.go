package queue_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/programme-lv/itester/internal/queue"
	"github.com/programme-lv/itester/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(program, batch, input string, limited bool) *queue.Item {
	return &queue.Item{Program: program, Batch: batch, Input: input, TimeLimited: limited}
}

func pop(t *testing.T, q *queue.Queue) *queue.Item {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	it, ok := q.Pop(ctx)
	require.True(t, ok)
	return it
}

func TestFIFOWithoutRunningTasks(t *testing.T) {
	q := queue.New(registry.New(nil))
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(item("sol", "1", fmt.Sprint(i), true)))
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprint(i), pop(t, q).Input)
	}
}

func TestSkipAheadOfRunningBatch(t *testing.T) {
	reg := registry.New(nil)
	q := queue.New(reg)
	require.NoError(t, q.Push(item("sol", "1", "1.b.in", true)))
	require.NoError(t, q.Push(item("sol", "1", "1.c.in", true)))
	require.NoError(t, q.Push(item("sol", "2", "2.a.in", true)))
	require.NoError(t, q.Push(item("sol2", "1", "1.b.in", true)))

	h := reg.Start("sol", "1", "1.a.in")

	assert.Equal(t, "2.a.in", pop(t, q).Input)
	assert.Equal(t, "sol2", pop(t, q).Program)
	// only skippable items left, fall back to the earliest
	assert.Equal(t, "1.b.in", pop(t, q).Input)

	h.End(false)
	assert.Equal(t, "1.c.in", pop(t, q).Input)
}

func TestUnlimitedItemsAreNotSkipped(t *testing.T) {
	reg := registry.New(nil)
	q := queue.New(reg)
	require.NoError(t, q.Push(item("sol", "1", "1.b.in", false)))
	require.NoError(t, q.Push(item("sol", "2", "2.a.in", true)))
	reg.Start("sol", "1", "1.a.in")
	assert.Equal(t, "1.b.in", pop(t, q).Input)
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := queue.New(nil)
	got := make(chan *queue.Item)
	go func() {
		it, ok := q.Pop(context.Background())
		if ok {
			got <- it
		}
		close(got)
	}()

	select {
	case <-got:
		t.Fatal("pop returned before push")
	case <-time.After(50 * time.Millisecond):
	}
	require.NoError(t, q.Push(item("sol", "1", "x", true)))
	it := <-got
	require.NotNil(t, it)
	assert.Equal(t, "x", it.Input)
}

func TestCloseDrainsThenStops(t *testing.T) {
	q := queue.New(nil)
	require.NoError(t, q.Push(item("sol", "1", "a", true)))
	q.Close()
	q.Close()
	require.ErrorIs(t, q.Push(item("sol", "1", "b", true)), queue.ErrClosed)

	assert.Equal(t, "a", pop(t, q).Input)
	_, ok := q.Pop(context.Background())
	assert.False(t, ok)
}

func TestCloseWakesWaiters(t *testing.T) {
	q := queue.New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.Pop(context.Background())
			assert.False(t, ok)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	q.Close()
	wg.Wait()
}

func TestPopHonoursContext(t *testing.T) {
	q := queue.New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, ok := q.Pop(ctx)
	assert.False(t, ok)
}

func TestDrainReturnsPending(t *testing.T) {
	q := queue.New(nil)
	require.NoError(t, q.Push(item("sol", "1", "a", true)))
	require.NoError(t, q.Push(item("sol", "1", "b", true)))
	left := q.Drain()
	assert.Len(t, left, 2)
	assert.Zero(t, q.Len())
	_, ok := q.Pop(context.Background())
	assert.False(t, ok)
}

// Every pushed item is popped exactly once, even while the registry
// reports running tasks for all of them.
func TestNoStarvation(t *testing.T) {
	reg := registry.New(nil)
	q := queue.New(reg)
	const n = 200
	for i := 0; i < n; i++ {
		require.NoError(t, q.Push(item(fmt.Sprintf("sol%d", i%3), fmt.Sprint(i%5), fmt.Sprint(i), true)))
	}
	for p := 0; p < 3; p++ {
		for b := 0; b < 5; b++ {
			reg.Start(fmt.Sprintf("sol%d", p), fmt.Sprint(b), "busy")
		}
	}
	q.Close()

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				it, ok := q.Pop(context.Background())
				if !ok {
					return
				}
				mu.Lock()
				seen[it.Input]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, n)
	for _, c := range seen {
		assert.Equal(t, 1, c)
	}
}
