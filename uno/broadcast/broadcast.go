// Package broadcast holds the helpers that fan server events out to
// room members. All sends are fire-and-forget: a failed write is
// logged and the loop moves on, delivery is the transport's problem.
package broadcast

import (
	"unoserver/models"

	"go.uber.org/zap"
)

type stateEnvelope struct {
	Type string `json:"type"`
	models.GameState
}

// RoomUser is the projection of a member sent in roomData.
type RoomUser struct {
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

// Event sends an arbitrary typed payload to every member.
func Event(members []*models.Client, payload map[string]interface{}, logger *zap.Logger) {
	for _, c := range members {
		if err := c.Send(payload); err != nil {
			logger.Error("Failed to send event",
				zap.Any("type", payload["type"]),
				zap.String("to", c.ID),
				zap.Error(err),
			)
		}
	}
}

// RoomData tells every member who is currently in the room.
func RoomData(room string, members []*models.Client, logger *zap.Logger) {
	users := make([]RoomUser, len(members))
	for i, c := range members {
		users[i] = RoomUser{Name: c.Name, IsHost: c.IsHost}
	}
	Event(members, map[string]interface{}{
		"type":  "roomData",
		"room":  room,
		"users": users,
	}, logger)
}

// CurrentUserData tells one client its assigned name and host flag.
func CurrentUserData(client *models.Client, logger *zap.Logger) {
	err := client.Send(map[string]interface{}{
		"type":   "currentUserData",
		"name":   client.Name,
		"isHost": client.IsHost,
	})
	if err != nil {
		logger.Error("Failed to send currentUserData", zap.String("to", client.ID), zap.Error(err))
	}
}

// InitGameState replaces every member's replica with a full snapshot.
func InitGameState(members []*models.Client, state models.GameState, logger *zap.Logger) {
	send(members, stateEnvelope{Type: "initGameState", GameState: state}, logger)
}

// InitGameStateTo unicasts a full snapshot, used for restore-on-join.
func InitGameStateTo(client *models.Client, state models.GameState, logger *zap.Logger) {
	if err := client.Send(stateEnvelope{Type: "initGameState", GameState: state}); err != nil {
		logger.Error("Failed to send initGameState", zap.String("to", client.ID), zap.Error(err))
	}
}

// UpdateGameState sends the post-transition snapshot to every member.
func UpdateGameState(members []*models.Client, state models.GameState, logger *zap.Logger) {
	send(members, stateEnvelope{Type: "updateGameState", GameState: state}, logger)
}

// SendError reports a rejected action to the acting client only.
func SendError(client *models.Client, message string, logger *zap.Logger) {
	if err := client.Send(map[string]string{"type": "error", "error": message}); err != nil {
		logger.Error("Failed to send error message", zap.String("to", client.ID), zap.Error(err))
	}
}

func send(members []*models.Client, payload interface{}, logger *zap.Logger) {
	for _, c := range members {
		if err := c.Send(payload); err != nil {
			logger.Error("Failed to broadcast game state", zap.String("to", c.ID), zap.Error(err))
		}
	}
}
