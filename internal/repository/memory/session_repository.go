package memory

import (
	"flowershop-chat-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps conversation histories for the process lifetime.
// Items never expire and the janitor is disabled.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *SessionRepository) Save(history *store.History) {
	r.cache.Set(history.SessionID, history, cache.NoExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.History, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.History), true
	}
	return nil, false
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
