package queue

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("queue closed")

// Item is one pending unit of work. It must not be modified after Push.
type Item struct {
	Program string
	Batch   string
	Input   string
	// TimeLimited is false when the program runs without a time limit.
	// Such items are never skipped.
	TimeLimited bool
	Run         func(ctx context.Context)
}

// RunningCounter reports unfinished units of (program, batch).
type RunningCounter interface {
	Running(program, batch string) int
}

// Queue is a usually-FIFO queue. Pop prefers the earliest item whose
// program and batch has nothing running, and falls back to the earliest
// item when every pending one would be skipped.
type Queue struct {
	mu      sync.Mutex
	items   []*Item
	closed  bool
	notify  chan struct{}
	done    chan struct{}
	running RunningCounter
}

func New(running RunningCounter) *Queue {
	return &Queue{
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		running: running,
	}
}

// Push appends an item. It never blocks.
func (q *Queue) Push(item *Item) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.wake()
	return nil
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop blocks until an item is available. It returns false once the
// queue is closed and drained, or when ctx is done.
func (q *Queue) Pop(ctx context.Context) (*Item, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.takeLocked()
			remaining := len(q.items)
			q.mu.Unlock()
			if remaining > 0 {
				q.wake()
			}
			return item, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, false
		}

		select {
		case <-ctx.Done():
			return nil, false
		case <-q.done:
		case <-q.notify:
		}
	}
}

func (q *Queue) takeLocked() *Item {
	idx := 0
	for i, item := range q.items {
		if !q.skip(item) {
			idx = i
			break
		}
	}
	item := q.items[idx]
	copy(q.items[idx:], q.items[idx+1:])
	q.items[len(q.items)-1] = nil
	q.items = q.items[:len(q.items)-1]
	return item
}

func (q *Queue) skip(item *Item) bool {
	if !item.TimeLimited || q.running == nil {
		return false
	}
	return q.running.Running(item.Program, item.Batch) > 0
}

// Close stops accepting items. Pending items are still handed out.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Drain closes the queue and returns the items that were never popped.
func (q *Queue) Drain() []*Item {
	q.Close()
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
