package memory

import (
	"testing"

	"flowershop-chat-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_SaveAndGet(t *testing.T) {
	repo := NewSessionRepository()

	_, found := repo.Get("abc")
	assert.False(t, found)

	repo.Save(&store.History{SessionID: "abc", Turns: []store.Turn{{Role: store.RoleUser, Content: "hi"}}})

	h, found := repo.Get("abc")
	require.True(t, found)
	assert.Len(t, h.Turns, 1)
	assert.Equal(t, 1, repo.Count())
}
