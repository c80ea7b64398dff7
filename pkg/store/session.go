package store

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// DefaultSessionID is used when the caller does not supply a session.
	DefaultSessionID = "default"
)

// Turn is one role-tagged message inside a session history
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// History is the ordered, append-only list of turns of a session.
type History struct {
	SessionID string `json:"session_id"`
	Turns     []Turn `json:"turns"`
	CreatedAt time.Time
}

// Snapshot returns a copy of the turns so callers never alias the stored slice.
func (h *History) Snapshot() []Turn {
	out := make([]Turn, len(h.Turns))
	copy(out, h.Turns)
	return out
}
