package actions

import (
	"context"

	"unoserver/models"
	"unoserver/uno/broadcast"

	"go.uber.org/zap"
)

// handleDisconnect cleans up after a dropped connection: membership,
// voice presence and, for the last member out, the persisted snapshot.
// Game state is never rolled back: a mid-turn disconnect leaves the
// session exactly as last committed.
func handleDisconnect(client *models.Client, deps *Deps) {
	client.Conn.Close()

	left := deps.Registry.Leave(client.ID)
	if left == nil || left.Room == "" {
		deps.Logger.Info("Client disconnected", zap.String("conn", client.ID))
		return
	}
	room := left.Room

	// Voice presence must not outlive the connection; the notification
	// goes out whether or not the peer ever said leaveVoice.
	deps.Voice.Leave(room, client.ID)
	notifyVoicePeerLeft(client, deps)

	members := deps.Registry.ListRoom(room)
	broadcast.RoomData(room, members, deps.Logger)

	if len(members) == 0 {
		deps.Sessions.Drop(room)
		go deps.Store.DeleteRoom(context.Background(), room)
		deps.Logger.Info("Room emptied", zap.String("room", room))
	}

	deps.Logger.Info("Client disconnected",
		zap.String("conn", client.ID),
		zap.String("room", room),
		zap.String("name", left.Name),
	)
}
