// Package broadcast fans committed game events out to subscribers in
// commit order. The broadcaster owns the per-game sequence counter:
// an event's Seq is assigned here, exactly once, at publish time.
package broadcast

import (
	"sync"

	"github.com/starfall-games/starfall/pkg/events"
	"github.com/starfall-games/starfall/pkg/log"
)

const defaultSubscriberBuffer = 64

type subscriber struct {
	gameID string
	ch     chan *events.Event
}

// Broadcaster delivers events for a game to all of its subscribers in
// the order they were published. A subscriber that cannot keep up is
// dropped rather than allowed to stall the fanout; a dropped client
// must resynchronize from a full snapshot.
type Broadcaster struct {
	mu      sync.Mutex
	nextSeq map[string]uint64
	subs    map[string]map[*subscriber]struct{}
	buffer  int
}

type NewBroadcasterOptions struct {
	// SubscriberBuffer is the per-subscriber channel capacity.
	SubscriberBuffer int
}

func NewBroadcaster(opts NewBroadcasterOptions) *Broadcaster {
	buffer := opts.SubscriberBuffer
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Broadcaster{
		nextSeq: make(map[string]uint64),
		subs:    make(map[string]map[*subscriber]struct{}),
		buffer:  buffer,
	}
}

// Subscribe registers for a game's event stream. The returned cancel
// function must be called when the subscriber goes away.
func (b *Broadcaster) Subscribe(gameID string) (<-chan *events.Event, func()) {
	sub := &subscriber{
		gameID: gameID,
		ch:     make(chan *events.Event, b.buffer),
	}

	b.mu.Lock()
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[*subscriber]struct{})
	}
	b.subs[gameID][sub] = struct{}{}
	b.mu.Unlock()

	return sub.ch, func() { b.unsubscribe(sub) }
}

func (b *Broadcaster) unsubscribe(sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[sub.gameID]; ok {
		if _, ok := set[sub]; ok {
			delete(set, sub)
			close(sub.ch)
		}
		if len(set) == 0 {
			delete(b.subs, sub.gameID)
		}
	}
}

// Publish assigns the event's sequence number and delivers it to every
// subscriber of the game. It returns the assigned sequence.
func (b *Broadcaster) Publish(ev *events.Event) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq[ev.GameID]++
	ev.Seq = b.nextSeq[ev.GameID]

	b.deliverLocked(ev)
	return ev.Seq
}

// Deliver forwards an event that already carries a sequence number,
// such as one relayed from another node. The local counter advances so
// locally published events never reuse a relayed sequence.
func (b *Broadcaster) Deliver(ev *events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ev.Seq > b.nextSeq[ev.GameID] {
		b.nextSeq[ev.GameID] = ev.Seq
	}

	b.deliverLocked(ev)
}

func (b *Broadcaster) deliverLocked(ev *events.Event) {
	for sub := range b.subs[ev.GameID] {
		select {
		case sub.ch <- ev:
		default:
			log.Warn("Dropping slow subscriber for game %s at seq %d", ev.GameID, ev.Seq)
			delete(b.subs[ev.GameID], sub)
			close(sub.ch)
		}
	}
}

// Seq returns the last sequence number published for the game, so new
// subscribers can be told where their snapshot stands.
func (b *Broadcaster) Seq(gameID string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nextSeq[gameID]
}

// SetSeq fast-forwards a game's counter, used when a node restarts and
// resumes a stream at a known position.
func (b *Broadcaster) SetSeq(gameID string, seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if seq > b.nextSeq[gameID] {
		b.nextSeq[gameID] = seq
	}
}
