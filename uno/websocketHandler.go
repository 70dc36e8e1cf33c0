// Package uno is the session coordinator's connection entry point: it
// upgrades HTTP requests to WebSocket, assigns connection identities
// and hands the socket to the per-connection message loop.
package uno

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"unoserver/models"
	"unoserver/uno/actions"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pingPeriod   = 10 * time.Second
	pongDeadline = 60 * time.Second
)

func createLocalRandGenerator() *rand.Rand {
	source := rand.NewSource(time.Now().UnixNano())
	return rand.New(source)
}

// HandleConnections upgrades the request and runs the connection until
// it drops. The connection ID doubles as the voice peer ID.
func HandleConnections(ctx context.Context, w http.ResponseWriter, r *http.Request, deps *actions.Deps, upgrader websocket.Upgrader, logger *zap.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Error upgrading WebSocket", zap.Error(err))
		return
	}

	client := &models.Client{
		Conn: conn,
		ID:   uuid.New().String(),
	}
	logger.Info("New client connected", zap.String("conn", client.ID))

	// Tell the client its connection ID before anything else; voice
	// signaling addresses peers by it.
	if err := client.Send(map[string]string{"type": "connected", "connectionId": client.ID}); err != nil {
		logger.Error("Failed to send connection ID", zap.String("conn", client.ID), zap.Error(err))
		conn.Close()
		return
	}

	conn.SetReadDeadline(time.Now().Add(pongDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongDeadline))
		return nil
	})

	// Ping until the connection dies; the read loop notices the drop
	// and runs the disconnect cleanup.
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for range ticker.C {
			if err := client.Ping(); err != nil {
				return
			}
		}
	}()

	randGen := createLocalRandGenerator()
	actions.HandleClient(ctx, client, deps, randGen)
}
