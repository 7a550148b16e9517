// Package push tracks which observers watch which character and fans
// events out to them. The hub is the only piece of in-process mutable
// shared state in the service; all membership changes and broadcast reads
// go through its lock.
package push

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/louisbranch/dungeonsheet/internal/sheet/event"
)

// Encoder writes one JSON value per call. The websocket transport supplies
// a json.Encoder over the connection.
type Encoder interface {
	Encode(v any) error
}

// Peer is one live observer channel. A mutex serializes writes so frames
// from overlapping broadcasts never interleave on the wire.
type Peer struct {
	mu      sync.Mutex
	encoder Encoder
}

// NewPeer wraps an encoder as an observer peer.
func NewPeer(encoder Encoder) *Peer {
	return &Peer{encoder: encoder}
}

func (p *Peer) send(frame json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// Hub is the subscription registry: character id to the set of live peers.
// Membership is keyed by peer identity, so registering the same peer twice
// keeps a single entry (each connection owns exactly one peer). An entry is
// created lazily on first subscribe and pruned the moment its set becomes
// empty: the key set always equals the characters with at least one live
// observer.
type Hub struct {
	mu        sync.Mutex
	observers map[string]map[*Peer]struct{}
}

// NewHub creates an empty subscription registry.
func NewHub() *Hub {
	return &Hub{observers: make(map[string]map[*Peer]struct{})}
}

// Subscribe registers peer as an observer of characterID.
func (h *Hub) Subscribe(characterID string, peer *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.observers[characterID]
	if !ok {
		set = make(map[*Peer]struct{})
		h.observers[characterID] = set
	}
	set[peer] = struct{}{}
	log.Printf("sheet: observer subscribed characterID=%s total=%d", characterID, len(set))
}

// Unsubscribe removes peer from characterID's observer set. It is a no-op
// when the peer or character is absent, so every connection exit path can
// call it unconditionally.
func (h *Hub) Unsubscribe(characterID string, peer *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.observers[characterID]
	if !ok {
		return
	}
	if _, ok := set[peer]; !ok {
		return
	}
	delete(set, peer)
	if len(set) == 0 {
		delete(h.observers, characterID)
	}
	log.Printf("sheet: observer unsubscribed characterID=%s total=%d", characterID, len(set))
}

// SubscriberCount reports the live observer count for a character. It is
// diagnostic only; no correctness decision depends on it.
func (h *Hub) SubscriberCount(characterID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers[characterID])
}

// Snapshot returns a copy of characterID's observer set taken under the
// lock. A broadcast iterating the copy sees either the pre- or
// post-mutation membership, never a partially-updated set.
func (h *Hub) Snapshot(characterID string) []*Peer {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.observers[characterID]
	peers := make([]*Peer, 0, len(set))
	for peer := range set {
		peers = append(peers, peer)
	}
	return peers
}

// Broadcaster delivers events to every current observer of a character.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a broadcaster over the given registry.
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// Broadcast sends one event to every observer of characterID. Delivery is
// best-effort: a failed peer is logged and skipped without aborting the
// remaining deliveries, and nothing propagates to the caller. Zero
// observers is a silent no-op.
func (b *Broadcaster) Broadcast(characterID string, envelope event.Envelope) {
	peers := b.hub.Snapshot(characterID)
	if len(peers) == 0 {
		return
	}

	frame, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("sheet: encode %s event for characterID=%s: %v", envelope.Type, characterID, err)
		return
	}

	for _, peer := range peers {
		if err := peer.send(frame); err != nil {
			// Usually the observer hung up mid-broadcast; its read loop
			// handles the unsubscribe.
			log.Printf("sheet: deliver %s event to observer of characterID=%s: %v", envelope.Type, characterID, err)
		}
	}
}
