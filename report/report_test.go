package report

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"weak"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abihf/faceguard/face"
)

type recorder struct {
	mu     sync.Mutex
	states []face.State
}

func (r *recorder) OnFaceState(s face.State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []face.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]face.State(nil), r.states...)
}

type inline struct{}

func (inline) Submit(fn func()) { fn() }

func TestReportPreservesOrder(t *testing.T) {
	q := NewQueueLimit(256)
	r := New(q)
	rec := &recorder{}
	r.SetObserver(rec)

	var want []face.State
	for i := 0; i < 200; i++ {
		s := face.State(i % 9)
		want = append(want, s)
		r.Report(s)
	}
	q.Close()

	assert.Equal(t, want, rec.snapshot())
}

func TestReportWithoutObserver(t *testing.T) {
	r := New(inline{})
	assert.NotPanics(t, func() { r.Report(face.NotFound) })

	rec := &recorder{}
	r.SetObserver(rec)
	r.Report(face.NoFault)
	r.SetObserver(nil)
	r.Report(face.TooFar)

	assert.Equal(t, []face.State{face.NoFault}, rec.snapshot())
}

func TestReportResolvesObserverOnDelivery(t *testing.T) {
	var held []func()
	r := New(executorFunc(func(fn func()) { held = append(held, fn) }))
	first, second := &recorder{}, &recorder{}

	r.SetObserver(first)
	r.Report(face.Multiple)
	r.SetObserver(second)
	for _, fn := range held {
		fn()
	}

	assert.Empty(t, first.snapshot())
	assert.Equal(t, []face.State{face.Multiple}, second.snapshot())
}

type executorFunc func(func())

func (f executorFunc) Submit(fn func()) { f(fn) }

func TestQueueDropsAfterClose(t *testing.T) {
	q := NewQueue()
	q.Close()

	ran := false
	q.Submit(func() { ran = true })
	time.Sleep(10 * time.Millisecond)
	assert.False(t, ran)
	assert.NotPanics(t, q.Close)
}

func TestQueueDropsOldestWhenFull(t *testing.T) {
	q := NewQueueLimit(4)
	defer q.Close()

	started, release := make(chan struct{}), make(chan struct{})
	q.Submit(func() {
		close(started)
		<-release
	})
	<-started

	var mu sync.Mutex
	var ran []int
	for i := 0; i < 10; i++ {
		i := i
		q.Submit(func() {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
		})
	}
	assert.Equal(t, uint64(6), q.Dropped())
	close(release)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ran) == 4
	}, time.Second, time.Millisecond)
	mu.Lock()
	assert.Equal(t, []int{6, 7, 8, 9}, ran)
	mu.Unlock()
}

type screen struct {
	last face.State
	// keeps the allocation out of the tiny allocator so it can be collected
	title *string
}

func TestWeakObserver(t *testing.T) {
	s := &screen{}
	o := Weak(s, func(s *screen, st face.State) { s.last = st })

	o.OnFaceState(face.TooRight)
	require.Equal(t, face.TooRight, s.last)
	runtime.KeepAlive(s)
}

//go:noinline
func weakScreen(calls *atomic.Int32) (Observer, weak.Pointer[screen]) {
	s := &screen{}
	o := Weak(s, func(*screen, face.State) { calls.Add(1) })
	return o, weak.Make(s)
}

func TestWeakObserverCollected(t *testing.T) {
	var calls atomic.Int32
	o, target := weakScreen(&calls)

	for i := 0; i < 20 && target.Value() != nil; i++ {
		runtime.GC()
	}
	require.Nil(t, target.Value(), "screen was not collected")

	o.OnFaceState(face.NotFound)
	o.OnFaceState(face.NoFault)
	assert.Zero(t, calls.Load())
}
