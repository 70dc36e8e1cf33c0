package actions

import (
	"encoding/json"
	"time"

	"unoserver/models"
	"unoserver/uno/broadcast"

	"go.uber.org/zap"
)

// The client-computed state path. updateGameState carries an already
// computed next state (possibly partial) that is trusted verbatim:
// re-broadcast to the room, merged into the authoritative session and
// persisted. This is a known trust boundary: the intent handlers in
// game.go are the validated path, this one exists for clients that run
// the transition themselves.

func handleClientInitState(client *models.Client, msg map[string]interface{}, deps *Deps) {
	applyClientState(client, msg, deps, true)
}

func handleClientUpdateState(client *models.Client, msg map[string]interface{}, deps *Deps) {
	applyClientState(client, msg, deps, false)
}

func applyClientState(client *models.Client, msg map[string]interface{}, deps *Deps, replace bool) {
	raw, err := json.Marshal(msg)
	if err != nil {
		deps.Logger.Error("Failed to re-encode client state", zap.String("room", client.Room), zap.Error(err))
		return
	}

	members := deps.Registry.ListRoom(client.Room)
	s := deps.Sessions.Get(client.Room)

	s.Mu.Lock()
	if replace {
		s.State = models.GameState{Room: client.Room, Direction: 1}
	}
	// Unmarshalling over the existing struct applies only the fields
	// present in the message, which is exactly the client's merge
	// semantics.
	if err := json.Unmarshal(raw, &s.State); err != nil {
		s.Mu.Unlock()
		deps.Logger.Error("Rejecting undecodable client state", zap.String("room", client.Room), zap.Error(err))
		broadcast.SendError(client, "Unrecognized game state", deps.Logger)
		return
	}
	s.State.Room = client.Room
	s.State.LastActivity = time.Now()
	s.ResetTurnFlags()
	state := s.State.Clone()

	eventType := "updateGameState"
	if replace {
		eventType = "initGameState"
	}
	msg["type"] = eventType
	broadcast.Event(members, msg, deps.Logger)
	s.Mu.Unlock()

	persistAfter(state, deps)
}
