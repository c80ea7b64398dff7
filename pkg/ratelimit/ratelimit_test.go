package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionKey(t *testing.T) {
	app := fiber.New()
	var got []string
	app.Post("/chat", func(c *fiber.Ctx) error {
		got = append(got, SessionKey(c))
		return nil
	})

	post := func(body, query string) {
		req := httptest.NewRequest(http.MethodPost, "/chat"+query, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		_, err := app.Test(req)
		require.NoError(t, err)
	}

	post(`{"message":{"content":"hi"},"sessionId":"abc"}`, "")
	post(`{"message":{"content":"hi"}}`, "?sessionId=q1")
	post(`not json`, "")

	require.Len(t, got, 3)
	assert.Equal(t, "session:abc", got[0])
	assert.Equal(t, "session:q1", got[1])
	assert.True(t, strings.HasPrefix(got[2], "ip:"))
}

func TestLimiterPerSession(t *testing.T) {
	app := fiber.New()
	app.Post("/chat", limiter.New(limiter.Config{
		Max:          2,
		Expiration:   time.Minute,
		KeyGenerator: SessionKey,
	}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	post := func(session string) int {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"sessionId":"`+session+`"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, 200, post("a"))
	assert.Equal(t, 200, post("a"))
	assert.Equal(t, 429, post("a"))
	assert.Equal(t, 200, post("b"))
}

func TestRedisStorage_EmptyKeysAreNoops(t *testing.T) {
	// never dialled: empty keys return before touching the client
	s := NewRedisStorage(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "limiter:")

	val, err := s.Get("")
	assert.NoError(t, err)
	assert.Nil(t, val)
	assert.NoError(t, s.Set("", []byte("x"), time.Second))
	assert.NoError(t, s.Set("k", nil, time.Second))
	assert.NoError(t, s.Delete(""))
	assert.NoError(t, s.Close())
	assert.Equal(t, "limiter:k", s.key("k"))
}
