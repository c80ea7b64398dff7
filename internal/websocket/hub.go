package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"flowershop-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	hubModule    = "Hub"
	redisChannel = "chat_replies"
)

// Hub tracks the sockets attached to each chat session. A session may be
// open in several tabs or on several instances; replies are fanned out to
// all of them, across instances through Redis pub/sub.
type Hub struct {
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb        *redis.Client
	instanceID string

	pongWait   time.Duration
	pingPeriod time.Duration

	logger logger.ILogger
}

// clusterMessage is what travels over Redis. Origin lets an instance skip
// its own publications, which were already delivered locally.
type clusterMessage struct {
	Origin    string          `json:"origin"`
	SessionID string          `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

// NewHub accepts a nil rdb for single-instance deployments.
func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info(hubModule, "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
			client.closed = true
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.SessionID]) == 0 {
		delete(h.clients, client.SessionID)
		h.logger.Info(hubModule, "Session has no more sockets", map[string]interface{}{"session_id": client.SessionID})
	}
}

// ClientCount returns the number of local sockets of a session.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Send delivers data to every local socket of the session and publishes it
// for the other instances.
func (h *Hub) Send(ctx context.Context, sessionID string, data []byte) {
	h.deliverLocal(sessionID, data)

	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(clusterMessage{Origin: h.instanceID, SessionID: sessionID, Message: data})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(ctx, redisChannel, payload).Err(); err != nil {
		h.logger.Warn(hubModule, "Redis publish failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}

// deliverLocal holds the read lock while sending so removeClient cannot
// close a channel underneath it.
func (h *Hub) deliverLocal(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[sessionID] {
		h.trySend(client, data)
	}
}

// trySend must be called with h.mu held.
func (h *Hub) trySend(client *Client, data []byte) {
	if client.closed {
		return
	}
	select {
	case client.Send <- data:
	default:
		h.logger.Warn(hubModule, "Client Send buffer full, dropping socket", map[string]interface{}{"session_id": client.SessionID})
		go func(c *Client) { h.unregister <- c }(client)
	}
}

func (h *Hub) sendTo(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.trySend(client, data)
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn(hubModule, "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instanceID {
				continue
			}
			h.deliverLocal(payload.SessionID, payload.Message)
		}
	}
}
