package websocket

import (
	"context"

	"flowershop-chat-be/pkg/store"

	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches the connection to sessionID and blocks until it closes.
func ServeWs(ctx context.Context, hub *Hub, c *websocket.Conn, sessionID string, turn TurnFunc) {
	if sessionID == "" {
		sessionID = store.DefaultSessionID
	}
	client := &Client{
		Hub:       hub,
		Conn:      c,
		SessionID: sessionID,
		Send:      make(chan []byte, 256),
		turn:      turn,
		pending:   make(chan []byte, maxPendingTurns),
	}
	client.Hub.register <- client

	go client.writePump()
	go client.turnPump(ctx)
	client.readPump(ctx)
}
