package events

import "time"

const (
	ChatTurnCompleted  = "chat.TURN_COMPLETED"
	CatalogRecordAdded = "catalog.RECORD_INDEXED"
)

// TurnCompleted describes a finished conversation turn. Message bodies are
// not included, only sizes and timings.
type TurnCompleted struct {
	SessionID     string
	MessageChars  int
	ReplyChars    int
	ProductsFound int
	ProductsShown int
	Duration      time.Duration
	OccurredAt    time.Time
}

func (e TurnCompleted) EventType() string {
	return ChatTurnCompleted
}

func (e TurnCompleted) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id":     e.SessionID,
		"message_chars":  e.MessageChars,
		"reply_chars":    e.ReplyChars,
		"products_found": e.ProductsFound,
		"products_shown": e.ProductsShown,
		"duration_ms":    e.Duration.Milliseconds(),
		"occurred_at":    e.OccurredAt.Format(time.RFC3339Nano),
	}
}

func (e TurnCompleted) Timestamp() time.Time {
	return e.OccurredAt
}

// RecordIndexed is emitted once per catalog record stored by ingestion.
func RecordIndexed(id, url string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: CatalogRecordAdded,
		Data: map[string]interface{}{
			"id":          id,
			"url":         url,
			"occurred_at": at.Format(time.RFC3339Nano),
		},
		OccurredAt: at,
	}
}
