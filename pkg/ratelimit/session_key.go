package ratelimit

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
)

// SessionKey keys the limiter by the sessionId of a /chat body, falling back
// to the client IP when the body carries none.
func SessionKey(c *fiber.Ctx) string {
	var body struct {
		SessionId string `json:"sessionId"`
	}
	if err := json.Unmarshal(c.Body(), &body); err == nil && body.SessionId != "" {
		return "session:" + body.SessionId
	}
	if q := c.Query("sessionId"); q != "" {
		return "session:" + q
	}
	return "ip:" + c.IP()
}
