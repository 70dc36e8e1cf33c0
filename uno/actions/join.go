package actions

import (
	"context"
	"errors"

	"unoserver/models"
	"unoserver/uno/broadcast"
	"unoserver/uno/registry"

	"go.uber.org/zap"
)

// handleJoin registers the connection in a room, announces the updated
// membership, and replays a restorable persisted game to the joiner.
func handleJoin(ctx context.Context, client *models.Client, msg map[string]interface{}, deps *Deps) {
	if client.Room != "" {
		deps.Logger.Info("Duplicate join ignored", zap.String("conn", client.ID))
		return
	}

	room, _ := msg["room"].(string)
	name, _ := msg["name"].(string)
	if room == "" {
		broadcast.SendError(client, "Room code is required", deps.Logger)
		return
	}

	if err := deps.Registry.Join(client, room, name); err != nil {
		if errors.Is(err, registry.ErrRoomFull) {
			if sendErr := client.Send(map[string]string{"type": "joinError", "error": "Room full"}); sendErr != nil {
				deps.Logger.Error("Failed to send join rejection", zap.String("conn", client.ID), zap.Error(sendErr))
			}
			return
		}
		broadcast.SendError(client, err.Error(), deps.Logger)
		return
	}

	deps.Logger.Info("Client joined room",
		zap.String("conn", client.ID),
		zap.String("room", room),
		zap.String("name", client.Name),
		zap.Bool("isHost", client.IsHost),
	)

	members := deps.Registry.ListRoom(room)
	broadcast.RoomData(room, members, deps.Logger)
	broadcast.CurrentUserData(client, deps.Logger)

	if client.IsHost {
		// A fresh host always starts clean: wipe any stale snapshot
		// left over from an earlier life of this room code.
		go deps.Store.DeleteRoom(context.Background(), room)
		return
	}

	// Reconciliation: a joiner of a running room gets the live state;
	// after a process restart the live state is an empty lobby, so the
	// persisted snapshot rehydrates it first.
	if s := deps.Sessions.Lookup(room); s != nil {
		s.Mu.Lock()
		state := s.State.Clone()
		s.Mu.Unlock()
		if state.Restorable() {
			broadcast.InitGameStateTo(client, state, deps.Logger)
			return
		}
	}

	snapshot := deps.Store.FetchActive(ctx, room)
	if snapshot == nil {
		return
	}

	s := deps.Sessions.Get(room)
	s.Mu.Lock()
	if s.State.InLobby() {
		s.State = *snapshot
		s.ResetTurnFlags()
	}
	state := s.State.Clone()
	s.Mu.Unlock()

	if state.Restorable() {
		broadcast.InitGameStateTo(client, state, deps.Logger)
	}
}
