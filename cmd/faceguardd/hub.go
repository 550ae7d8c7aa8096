package main

import (
	"sync/atomic"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/abihf/faceguard/face"
	"github.com/abihf/faceguard/protocol"
)

// subscriberBuffer is how many events a slow client may lag behind before
// events are dropped for it.
const subscriberBuffer = 8

// hub fans frame states out to the connected clients.
type hub struct {
	seq  atomic.Uint64
	subs cmap.ConcurrentMap[string, chan protocol.Event]
}

func newHub() *hub {
	return &hub{subs: cmap.New[chan protocol.Event]()}
}

// OnFaceState runs on the reporter queue.
func (h *hub) OnFaceState(state face.State) {
	ev := protocol.NewEvent(h.seq.Add(1), state)
	h.subs.IterCb(func(_ string, ch chan protocol.Event) {
		select {
		case ch <- ev:
		default:
		}
	})
}

func (h *hub) subscribe() (<-chan protocol.Event, func()) {
	id := uuid.NewString()
	ch := make(chan protocol.Event, subscriberBuffer)
	h.subs.Set(id, ch)
	return ch, func() { h.subs.Remove(id) }
}

func (h *hub) count() int { return h.subs.Count() }
