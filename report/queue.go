package report

import (
	"sync"
	"sync/atomic"
)

// DefaultQueueLimit is about two seconds of frames at 30 fps.
const DefaultQueueLimit = 64

// Queue is a serial FIFO executor backed by one goroutine. Submit never
// blocks. When the observer falls behind by more than the limit, the oldest
// pending functions are dropped.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []func()
	limit   int
	closed  bool
	done    chan struct{}

	dropped atomic.Uint64
}

func NewQueue() *Queue {
	return NewQueueLimit(DefaultQueueLimit)
}

// NewQueueLimit returns a queue holding at most limit pending functions.
func NewQueueLimit(limit int) *Queue {
	if limit < 1 {
		limit = 1
	}
	q := &Queue{limit: limit, done: make(chan struct{})}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// Submit enqueues fn. It is dropped after Close.
func (q *Queue) Submit(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	if over := len(q.pending) + 1 - q.limit; over > 0 {
		q.pending = append(q.pending[:0], q.pending[over:]...)
		q.dropped.Add(uint64(over))
	}
	q.pending = append(q.pending, fn)
	q.cond.Signal()
}

// Dropped counts functions discarded because the queue was full.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }

// Close stops accepting work, runs what is already queued and waits for the
// delivery goroutine to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
	}
}
