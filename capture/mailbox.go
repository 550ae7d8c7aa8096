package capture

import (
	"sync"
	"sync/atomic"
)

// Mailbox is a Source fed by a host that receives frames through a callback,
// such as a mobile capture delegate.
type Mailbox struct {
	frame chan *Frame
	done  chan struct{}
	once  sync.Once

	dropped atomic.Uint64
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		frame: make(chan *Frame, 1),
		done:  make(chan struct{}),
	}
}

// Push offers a frame without blocking. It reports false when the frame was
// dropped because another one is still pending or the mailbox is closed.
func (m *Mailbox) Push(frame *Frame) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.frame <- frame:
		return true
	default:
		m.dropped.Add(1)
		return false
	}
}

func (m *Mailbox) Frames() <-chan *Frame { return m.frame }

func (m *Mailbox) Done() <-chan struct{} { return m.done }

func (m *Mailbox) Err() error { return nil }

func (m *Mailbox) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *Mailbox) Dropped() uint64 { return m.dropped.Load() }
