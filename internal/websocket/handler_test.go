package websocket

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"flowershop-chat-be/internal/dto"
	"flowershop-chat-be/internal/pkg/logger"
	"flowershop-chat-be/pkg/rag"

	fws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFastHub shortens the keepalive so a turn can outlive pongWait quickly.
func newFastHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	hub.pongWait = 200 * time.Millisecond
	hub.pingPeriod = 50 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func serveChat(t *testing.T, hub *Hub, turn TurnFunc) string {
	t.Helper()
	app := fiber.New()
	app.Get("/ws/chat", websocket.New(func(c *websocket.Conn) {
		ServeWs(context.Background(), hub, c, c.Query("sessionId"), turn)
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "ws://" + ln.Addr().String() + "/ws/chat?sessionId=s1"
}

func dial(t *testing.T, url string) *fws.Conn {
	t.Helper()
	conn, _, err := fws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *fws.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func echoTurn(delay time.Duration) TurnFunc {
	return func(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
		time.Sleep(delay)
		return &dto.SendChatResponse{Content: "re: " + req.Message.Content, Role: "assistant"}, nil
	}
}

func TestServeWs_TurnLongerThanPongWaitStillReplies(t *testing.T) {
	hub := newFastHub(t)
	conn := dial(t, serveChat(t, hub, echoTurn(5*hub.pongWait)))

	require.NoError(t, conn.WriteMessage(fws.TextMessage, []byte(`{"message":{"content":"one"}}`)))
	assert.JSONEq(t, `{"content":"re: one","role":"assistant"}`, readFrame(t, conn))

	// the socket survives for the next turn
	require.NoError(t, conn.WriteMessage(fws.TextMessage, []byte(`{"message":{"content":"two"}}`)))
	assert.JSONEq(t, `{"content":"re: two","role":"assistant"}`, readFrame(t, conn))
}

func TestServeWs_TurnsOfSocketRunInArrivalOrder(t *testing.T) {
	hub := newFastHub(t)
	var mu sync.Mutex
	var seen []string
	turn := func(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
		mu.Lock()
		seen = append(seen, req.Message.Content)
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		return &dto.SendChatResponse{Content: req.Message.Content, Role: "assistant"}, nil
	}
	conn := dial(t, serveChat(t, hub, turn))

	for _, m := range []string{"a", "b", "c"} {
		require.NoError(t, conn.WriteMessage(fws.TextMessage, []byte(`{"message":{"content":"`+m+`"}}`)))
	}

	assert.JSONEq(t, `{"content":"a","role":"assistant"}`, readFrame(t, conn))
	assert.JSONEq(t, `{"content":"b","role":"assistant"}`, readFrame(t, conn))
	assert.JSONEq(t, `{"content":"c","role":"assistant"}`, readFrame(t, conn))
	mu.Lock()
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	mu.Unlock()
}

func TestServeWs_ErrorFrames(t *testing.T) {
	hub := newFastHub(t)
	turn := func(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
		return nil, rag.Wrap(rag.ErrModelInvocation, errors.New("quota"))
	}
	conn := dial(t, serveChat(t, hub, turn))

	require.NoError(t, conn.WriteMessage(fws.TextMessage, []byte(`{"message":`)))
	assert.Contains(t, readFrame(t, conn), `"code":400`)

	require.NoError(t, conn.WriteMessage(fws.TextMessage, []byte(`{"message":{"content":"hi"}}`)))
	assert.Contains(t, readFrame(t, conn), `"code":502`)
}
