package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTurnCompleted_Payload(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	e := TurnCompleted{
		SessionID:     "s1",
		MessageChars:  12,
		ReplyChars:    40,
		ProductsFound: 10,
		ProductsShown: 7,
		Duration:      1500 * time.Millisecond,
		OccurredAt:    at,
	}

	var ev Event = e
	assert.Equal(t, "chat.TURN_COMPLETED", ev.EventType())
	assert.Equal(t, at, ev.Timestamp())

	p := ev.Payload()
	assert.Equal(t, "s1", p["session_id"])
	assert.Equal(t, int64(1500), p["duration_ms"])
	assert.Equal(t, 7, p["products_shown"])
	assert.NotContains(t, p, "message")
}

func TestRecordIndexed(t *testing.T) {
	at := time.Now()
	e := RecordIndexed("id-1", "https://shop/rose", at)

	assert.Equal(t, CatalogRecordAdded, e.EventType())
	assert.Equal(t, "https://shop/rose", e.Payload()["url"])
}
