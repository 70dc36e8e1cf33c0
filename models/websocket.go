package models

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one WebSocket connection. A client belongs to at most one
// room; Name/Room/IsHost are assigned by the membership registry on
// join and never change for the lifetime of the connection.
type Client struct {
	Conn   *websocket.Conn
	ID     string // connection ID, also the voice peer ID
	Name   string
	Room   string
	IsHost bool

	writeMu sync.Mutex
}

// Send writes one JSON message to the client. gorilla/websocket allows
// only one concurrent writer per connection, so every outbound message
// goes through this lock. Delivery is fire-and-forget: a failed write
// is returned for logging only, never retried.
func (c *Client) Send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}

// Ping sends a websocket ping control frame under the same write lock.
func (c *Client) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(websocket.PingMessage, nil)
}
