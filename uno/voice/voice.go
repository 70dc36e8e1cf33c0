// Package voice tracks voice-chat participation per room for the
// signaling relay. It holds connection identifiers only; handshake
// payloads pass through the relay opaque and unvalidated, and no media
// ever touches the server.
package voice

import (
	"sync"
)

// Peer identifies one voice participant to the others.
type Peer struct {
	ID   string `json:"peerId"`
	Name string `json:"peerName"`
}

// Relay is the per-room participant registry. Purely ephemeral, never
// persisted.
type Relay struct {
	mu    sync.Mutex
	rooms map[string]map[string]string // room -> connID -> display name
}

func NewRelay() *Relay {
	return &Relay{rooms: make(map[string]map[string]string)}
}

// Join registers a participant and returns the peers that were already
// present, in no particular order. The caller forwards that list to the
// joiner and announces the joiner to each of them.
func (r *Relay) Join(room, connID, name string) []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	participants := r.rooms[room]
	if participants == nil {
		participants = make(map[string]string)
		r.rooms[room] = participants
	}
	existing := make([]Peer, 0, len(participants))
	for id, n := range participants {
		if id == connID {
			continue
		}
		existing = append(existing, Peer{ID: id, Name: n})
	}
	participants[connID] = name
	return existing
}

// Leave removes a participant and reports whether it was present.
// Also called on ungraceful disconnect so the peerLeft notification
// always goes out.
func (r *Relay) Leave(room, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	participants, ok := r.rooms[room]
	if !ok {
		return false
	}
	if _, present := participants[connID]; !present {
		return false
	}
	delete(participants, connID)
	if len(participants) == 0 {
		delete(r.rooms, room)
	}
	return true
}

// Participants returns the current participant set of a room.
func (r *Relay) Participants(room string) []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	participants := r.rooms[room]
	out := make([]Peer, 0, len(participants))
	for id, n := range participants {
		out = append(out, Peer{ID: id, Name: n})
	}
	return out
}
