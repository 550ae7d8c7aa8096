// Package report delivers frame states to the registered observer on a
// context other than the frame loop.
package report

import (
	"sync/atomic"
	"weak"

	"github.com/abihf/faceguard/face"
)

// Observer receives one state per processed video frame.
type Observer interface {
	OnFaceState(state face.State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(face.State)

func (f ObserverFunc) OnFaceState(state face.State) { f(state) }

// Executor runs fn on the delivery context. It must not block the caller and
// must run functions in submission order.
type Executor interface {
	Submit(fn func())
}

type observerBox struct {
	observer Observer
}

// Reporter forwards states from the frame loop to an observer through an
// executor. The observer is resolved when the state is delivered, not when
// it is reported.
type Reporter struct {
	exec     Executor
	observer atomic.Pointer[observerBox]
}

func New(exec Executor) *Reporter {
	return &Reporter{exec: exec}
}

// SetObserver registers o. A nil o unregisters the current observer.
func (r *Reporter) SetObserver(o Observer) {
	if o == nil {
		r.observer.Store(nil)
		return
	}
	r.observer.Store(&observerBox{observer: o})
}

// Report hands state to the executor and returns immediately.
func (r *Reporter) Report(state face.State) {
	r.exec.Submit(func() {
		if box := r.observer.Load(); box != nil {
			box.observer.OnFaceState(state)
		}
	})
}

// Weak returns an Observer that holds p weakly. Once p is collected the
// observer does nothing.
func Weak[T any](p *T, fn func(*T, face.State)) Observer {
	wp := weak.Make(p)
	return ObserverFunc(func(state face.State) {
		if v := wp.Value(); v != nil {
			fn(v, state)
		}
	})
}
