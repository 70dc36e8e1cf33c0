package actions

import (
	"unoserver/models"

	"go.uber.org/zap"
)

// Voice signaling bypasses the turn engine entirely: the server only
// pairs peers up and forwards their opaque handshake payloads.

func handleJoinVoice(client *models.Client, deps *Deps) {
	existing := deps.Voice.Join(client.Room, client.ID, client.Name)

	// The joiner learns who is already in voice and will offer to each.
	err := client.Send(map[string]interface{}{
		"type":  "voiceExistingPeers",
		"peers": existing,
	})
	if err != nil {
		deps.Logger.Error("Failed to send voice peer list", zap.String("to", client.ID), zap.Error(err))
	}

	for _, peer := range existing {
		target := deps.Registry.Find(peer.ID)
		if target == nil {
			continue
		}
		err := target.Send(map[string]interface{}{
			"type":     "voicePeerJoined",
			"peerId":   client.ID,
			"peerName": client.Name,
		})
		if err != nil {
			deps.Logger.Error("Failed to announce voice joiner", zap.String("to", target.ID), zap.Error(err))
		}
	}
}

func handleLeaveVoice(client *models.Client, deps *Deps) {
	if !deps.Voice.Leave(client.Room, client.ID) {
		return
	}
	notifyVoicePeerLeft(client, deps)
}

// notifyVoicePeerLeft tells the rest of the room a peer is gone. Called
// on explicit leave and on disconnect, graceful or not.
func notifyVoicePeerLeft(client *models.Client, deps *Deps) {
	for _, member := range deps.Registry.ListRoom(client.Room) {
		if member.ID == client.ID {
			continue
		}
		err := member.Send(map[string]interface{}{
			"type":   "voicePeerLeft",
			"peerId": client.ID,
		})
		if err != nil {
			deps.Logger.Error("Failed to announce voice leaver", zap.String("to", member.ID), zap.Error(err))
		}
	}
}

// handleVoiceRelay forwards one handshake message (offer, answer or ICE
// candidate) to exactly one target connection, retagged with the
// sender's peer ID. The payload is never inspected.
func handleVoiceRelay(client *models.Client, kind string, msg map[string]interface{}, deps *Deps) {
	targetID, _ := msg["targetId"].(string)
	target := deps.Registry.Find(targetID)
	if target == nil || target.Room != client.Room {
		return
	}
	err := target.Send(map[string]interface{}{
		"type":    kind,
		"peerId":  client.ID,
		"payload": msg["payload"],
	})
	if err != nil {
		deps.Logger.Error("Failed to relay voice signaling",
			zap.String("kind", kind),
			zap.String("to", target.ID),
			zap.Error(err),
		)
	}
}
