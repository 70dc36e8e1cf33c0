// Package registry tracks which connection belongs to which room under
// which display name, and decides host status.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"unoserver/models"
)

// MaxRoomSize bounds room membership.
const MaxRoomSize = 10

// MaxNameLen caps display names after trimming.
const MaxNameLen = 16

// ErrRoomFull rejects a join to a room at capacity. Reported to the
// joiner only.
var ErrRoomFull = errors.New("room full")

// Registry is the single in-memory membership directory. One mutex
// linearizes all operations so capacity, host and name-uniqueness
// checks are race-free across concurrent joins.
type Registry struct {
	mu     sync.Mutex
	byID   map[string]*models.Client
	byRoom map[string][]*models.Client
}

func New() *Registry {
	return &Registry{
		byID:   make(map[string]*models.Client),
		byRoom: make(map[string][]*models.Client),
	}
}

// Join adds the client to a room, assigning its final display name and
// host flag. The first member of an empty room becomes host; the host
// flag is sticky and never reassigned while that player remains.
func (r *Registry) Join(client *models.Client, room, requestedName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inRoom := r.byRoom[room]
	if len(inRoom) >= MaxRoomSize {
		return ErrRoomFull
	}

	baseName := strings.TrimSpace(requestedName)
	if runes := []rune(baseName); len(runes) > MaxNameLen {
		baseName = string(runes[:MaxNameLen])
	}
	if baseName == "" {
		baseName = fmt.Sprintf("Player %d", len(inRoom)+1)
	}

	assigned := baseName
	for suffix := 2; r.nameTaken(inRoom, assigned); suffix++ {
		assigned = fmt.Sprintf("%s %d", baseName, suffix)
	}

	client.Room = room
	client.Name = assigned
	client.IsHost = len(inRoom) == 0

	r.byID[client.ID] = client
	r.byRoom[room] = append(inRoom, client)
	return nil
}

func (r *Registry) nameTaken(inRoom []*models.Client, name string) bool {
	for _, c := range inRoom {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Leave removes the connection and returns the departing client, or
// nil if it never joined a room.
func (r *Registry) Leave(connID string) *models.Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.byID[connID]
	if !ok {
		return nil
	}
	delete(r.byID, connID)

	inRoom := r.byRoom[client.Room]
	for i, c := range inRoom {
		if c.ID == connID {
			r.byRoom[client.Room] = append(inRoom[:i], inRoom[i+1:]...)
			break
		}
	}
	if len(r.byRoom[client.Room]) == 0 {
		delete(r.byRoom, client.Room)
	}
	return client
}

// Find returns the client for a connection ID, or nil.
func (r *Registry) Find(connID string) *models.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[connID]
}

// ListRoom returns the room members in join order. The returned slice
// is a copy; the underlying membership may change after return.
func (r *Registry) ListRoom(room string) []*models.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	inRoom := r.byRoom[room]
	out := make([]*models.Client, len(inRoom))
	copy(out, inRoom)
	return out
}
