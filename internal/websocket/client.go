package websocket

import (
	"context"
	"encoding/json"
	"time"

	"flowershop-chat-be/internal/dto"
	"flowershop-chat-be/internal/pkg/serverutils"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024

	// frames accepted while a turn is still running
	maxPendingTurns = 8
)

// TurnFunc runs one chat turn; the chatbot service's SendChat fits.
type TurnFunc func(ctx context.Context, request *dto.SendChatRequest) (*dto.SendChatResponse, error)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	// SessionID is the chat session this socket is attached to.
	SessionID string

	// Buffered channel of outbound messages. Closed by the hub.
	Send chan []byte

	closed bool // guarded by Hub.mu
	turn   TurnFunc

	// inbound frames waiting for turnPump
	pending chan []byte
}

type errorFrame struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// readPump keeps reading while turns run in turnPump, so pongs extend the
// read deadline however long a turn takes. Frames are handed over in arrival
// order and the turns of a socket run one after another.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		close(c.pending)
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn(hubModule, "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.pongWait))

		select {
		case c.pending <- data:
		default:
			c.reply(errorFrame{Error: "too many messages in flight", Code: 429})
		}
	}
}

// turnPump runs the queued frames until readPump closes the queue.
func (c *Client) turnPump(ctx context.Context) {
	for data := range c.pending {
		c.handleFrame(ctx, data)
	}
}

func (c *Client) handleFrame(ctx context.Context, data []byte) {
	var req dto.SendChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply(errorFrame{Error: "invalid message: " + err.Error(), Code: 400})
		return
	}
	if req.SessionId == "" {
		req.SessionId = c.SessionID
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		c.reply(errorFrame{Error: err.Error(), Code: 400})
		return
	}

	res, err := c.turn(ctx, &req)
	if err != nil {
		c.reply(errorFrame{Error: err.Error(), Code: serverutils.StatusFor(err)})
		return
	}

	out, err := json.Marshal(res)
	if err != nil {
		return
	}
	if req.SessionId == c.SessionID {
		c.Hub.Send(ctx, c.SessionID, out)
		return
	}
	// frame addressed another session: answer only this socket
	c.enqueue(out)
}

func (c *Client) reply(frame errorFrame) {
	out, err := json.Marshal(frame)
	if err != nil {
		return
	}
	c.enqueue(out)
}

func (c *Client) enqueue(data []byte) {
	c.Hub.sendTo(c, data)
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.Hub.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// one reply per frame, no batching
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
