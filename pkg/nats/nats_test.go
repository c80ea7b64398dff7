package nats

import (
	"testing"
	"time"

	"flowershop-chat-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.chat.TURN_COMPLETED", Subject(events.TurnCompleted{}))
}

func TestDecodeEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	ev, err := DecodeEvent("events.chat.TURN_COMPLETED", []byte(`{"session_id":"s1","occurred_at":"`+at.Format(time.RFC3339Nano)+`"}`))
	require.NoError(t, err)

	assert.Equal(t, events.ChatTurnCompleted, ev.EventType())
	assert.Equal(t, "s1", ev.Payload()["session_id"])
	assert.True(t, at.Equal(ev.Timestamp()))
}

func TestDecodeEvent_InvalidJSON(t *testing.T) {
	_, err := DecodeEvent("events.x", []byte("not json"))
	assert.Error(t, err)
}
