// Package actions wires incoming client intents to the registry, the
// turn engine, the store bridge and the room broadcast. One HandleClient
// loop runs per connection; per-room ordering comes from the session
// mutex, so handlers from different connections never interleave their
// transitions within a room.
package actions

import (
	"context"
	"encoding/json"
	"math/rand"

	"unoserver/models"
	"unoserver/uno/engine"
	"unoserver/uno/registry"
	"unoserver/uno/store"
	"unoserver/uno/voice"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Deps bundles the shared server components handed to every handler.
type Deps struct {
	Registry *registry.Registry
	Sessions *engine.Manager
	Store    *store.SessionStore
	Voice    *voice.Relay
	Logger   *zap.Logger
}

// HandleClient reads and dispatches messages for one connection until
// it drops, then runs the disconnect cleanup.
func HandleClient(ctx context.Context, client *models.Client, deps *Deps, randGen *rand.Rand) {
	defer handleDisconnect(client, deps)

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				deps.Logger.Error("WebSocket read error", zap.String("conn", client.ID), zap.Error(err))
			}
			break
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err != nil {
			deps.Logger.Error("Error decoding message", zap.String("conn", client.ID), zap.Error(err))
			continue
		}

		msgType, _ := msg["type"].(string)

		// Everything except join requires room membership.
		if msgType != "join" && client.Room == "" {
			deps.Logger.Info("Message before join ignored", zap.String("type", msgType), zap.String("conn", client.ID))
			continue
		}

		switch msgType {
		case "join":
			handleJoin(ctx, client, msg, deps)
		case "startGame":
			handleStartGame(client, deps, randGen)
		case "restartGame":
			handleRestartGame(client, deps, randGen)
		case "playCard":
			handlePlayCard(client, msg, deps, randGen)
		case "drawCard":
			handleDrawCard(client, deps, randGen)
		case "passTurn":
			handlePassTurn(client, deps)
		case "takeStackedPenalty":
			handleTakeStackedPenalty(client, deps, randGen)
		case "unoAnnouncement":
			handleUnoAnnouncement(client, deps)
		case "initGameState":
			handleClientInitState(client, msg, deps)
		case "updateGameState":
			handleClientUpdateState(client, msg, deps)
		case "sendMessage":
			handleSendMessage(client, msg, deps)
		case "emojiReaction":
			handleEmojiReaction(client, msg, deps)
		case "joinVoice":
			handleJoinVoice(client, deps)
		case "leaveVoice":
			handleLeaveVoice(client, deps)
		case "voiceOffer", "voiceAnswer", "voiceIceCandidate":
			handleVoiceRelay(client, msgType, msg, deps)
		default:
			deps.Logger.Info("Received unknown message type", zap.String("type", msgType), zap.String("conn", client.ID))
		}
	}
}
