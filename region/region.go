// Package region keeps the legal region the face must stay inside.
//
// Writers come from the host UI and are rare; the frame loop reads once per
// frame. The current value is an immutable face.Layout swapped atomically, so
// readers never lock.
package region

import (
	"sync"
	"sync/atomic"

	"github.com/abihf/faceguard/face"
)

type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[face.Layout]
}

// New returns a store seeded with initial, which may be nil.
func New(initial *face.Layout) *Store {
	s := &Store{}
	if initial != nil {
		s.current.Store(clone(initial))
	}
	return s
}

// Load returns the latest layout or nil if nothing was configured. The
// returned value must not be modified.
func (s *Store) Load() *face.Layout {
	return s.current.Load()
}

// SetRegion replaces the legal region. A nil rect clears it.
func (s *Store) SetRegion(rect *face.Rect) {
	s.Update(func(l *face.Layout) {
		if rect == nil {
			l.Region = nil
			return
		}
		r := *rect
		l.Region = &r
	})
}

// SetView records the size of the view the region is expressed in.
func (s *Store) SetView(width, height float64) {
	s.Update(func(l *face.Layout) {
		l.ViewWidth = width
		l.ViewHeight = height
	})
}

// Set replaces region and view size at once.
func (s *Store) Set(layout *face.Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if layout == nil {
		s.current.Store(nil)
		return
	}
	s.current.Store(clone(layout))
}

// Update applies fn to a copy of the current layout (an empty one if unset)
// and publishes the result as one snapshot.
func (s *Store) Update(fn func(*face.Layout)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := &face.Layout{}
	if cur := s.current.Load(); cur != nil {
		next = clone(cur)
	}
	fn(next)
	s.current.Store(next)
}

func clone(l *face.Layout) *face.Layout {
	c := *l
	if l.Region != nil {
		r := *l.Region
		c.Region = &r
	}
	return &c
}
