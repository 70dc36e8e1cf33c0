package actions

import (
	"context"

	"unoserver/models"
	"unoserver/uno/broadcast"
)

func handleSendMessage(client *models.Client, msg map[string]interface{}, deps *Deps) {
	text, _ := msg["message"].(string)
	if text == "" {
		return
	}

	members := deps.Registry.ListRoom(client.Room)
	broadcast.Event(members, map[string]interface{}{
		"type": "message",
		"user": client.Name,
		"text": text,
	}, deps.Logger)

	go deps.Store.ArchiveMessage(context.Background(), client.Room, client.Name, text)
}

func handleEmojiReaction(client *models.Client, msg map[string]interface{}, deps *Deps) {
	emoji, _ := msg["emoji"].(string)
	if emoji == "" {
		return
	}

	members := deps.Registry.ListRoom(client.Room)
	broadcast.Event(members, map[string]interface{}{
		"type":  "emojiReaction",
		"name":  client.Name,
		"emoji": emoji,
	}, deps.Logger)
}
