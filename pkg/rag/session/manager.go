package session

import (
	"context"
	"sync"
	"time"

	"flowershop-chat-be/pkg/store"
)

// Store is the backing map of histories. Implementations must be safe for
// concurrent use; the manager adds the read-modify-write atomicity.
type Store interface {
	Get(sessionID string) (*store.History, bool)
	Save(history *store.History)
}

// GrowthPolicy decides which turns are kept after an append.
type GrowthPolicy func(turns []store.Turn) []store.Turn

// Unbounded keeps every turn.
func Unbounded(turns []store.Turn) []store.Turn {
	return turns
}

// KeepLast keeps the most recent n turns.
func KeepLast(n int) GrowthPolicy {
	return func(turns []store.Turn) []store.Turn {
		if n <= 0 || len(turns) <= n {
			return turns
		}
		return append([]store.Turn(nil), turns[len(turns)-n:]...)
	}
}

// Manager owns session histories and the per-session turn locks.
type Manager struct {
	store  Store
	policy GrowthPolicy

	mu sync.Mutex

	locksMu sync.Mutex
	locks   map[string]*turnLock
}

// turnLock hands the session over to waiters in the order they called Lock.
// All fields are guarded by Manager.locksMu.
type turnLock struct {
	held    bool
	waiters []chan struct{}
	refs    int // holder plus waiters; the entry is dropped at zero
}

func NewManager(s Store) *Manager {
	return NewManagerWithPolicy(s, Unbounded)
}

func NewManagerWithPolicy(s Store, policy GrowthPolicy) *Manager {
	if policy == nil {
		policy = Unbounded
	}
	return &Manager{
		store:  s,
		policy: policy,
		locks:  make(map[string]*turnLock),
	}
}

func normalize(sessionID string) string {
	if sessionID == "" {
		return store.DefaultSessionID
	}
	return sessionID
}

// loadOrCreate must be called with m.mu held.
func (m *Manager) loadOrCreate(sessionID string) *store.History {
	h, found := m.store.Get(sessionID)
	if !found {
		h = &store.History{
			SessionID: sessionID,
			Turns:     []store.Turn{},
			CreatedAt: time.Now(),
		}
		m.store.Save(h)
	}
	return h
}

// History returns a copy of the session turns, creating the session if it
// does not exist yet.
func (m *Manager) History(sessionID string) []store.Turn {
	sessionID = normalize(sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadOrCreate(sessionID).Snapshot()
}

// Append adds the turns as one batch; readers see all of them or none.
func (m *Manager) Append(sessionID string, turns ...store.Turn) {
	sessionID = normalize(sessionID)
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.loadOrCreate(sessionID)
	next := make([]store.Turn, len(h.Turns), len(h.Turns)+len(turns))
	copy(next, h.Turns)
	for _, t := range turns {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		next = append(next, t)
	}

	m.store.Save(&store.History{
		SessionID: h.SessionID,
		Turns:     m.policy(next),
		CreatedAt: h.CreatedAt,
	})
}

// Lock serializes whole turns of one session. It waits behind earlier
// callers until the lock is handed over or ctx is done, in which case it
// returns ctx.Err() and holds nothing. The returned func releases the lock.
// Lock entries exist only while a turn holds or waits for the session.
func (m *Manager) Lock(ctx context.Context, sessionID string) (func(), error) {
	sessionID = normalize(sessionID)

	m.locksMu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &turnLock{}
		m.locks[sessionID] = l
	}
	l.refs++

	if !l.held {
		l.held = true
		m.locksMu.Unlock()
		return m.releaser(sessionID, l), nil
	}

	ready := make(chan struct{})
	l.waiters = append(l.waiters, ready)
	m.locksMu.Unlock()

	select {
	case <-ready:
		return m.releaser(sessionID, l), nil
	case <-ctx.Done():
	}

	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	select {
	case <-ready:
		// handed over while giving up: pass it on
		m.releaseLocked(sessionID, l)
	default:
		for i, w := range l.waiters {
			if w == ready {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				break
			}
		}
		m.dropRefLocked(sessionID, l)
	}
	return nil, ctx.Err()
}

func (m *Manager) releaser(sessionID string, l *turnLock) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			m.locksMu.Lock()
			m.releaseLocked(sessionID, l)
			m.locksMu.Unlock()
		})
	}
}

// releaseLocked must be called with m.locksMu held.
func (m *Manager) releaseLocked(sessionID string, l *turnLock) {
	if len(l.waiters) > 0 {
		next := l.waiters[0]
		l.waiters = l.waiters[1:]
		close(next)
	} else {
		l.held = false
	}
	m.dropRefLocked(sessionID, l)
}

// dropRefLocked must be called with m.locksMu held.
func (m *Manager) dropRefLocked(sessionID string, l *turnLock) {
	l.refs--
	if l.refs == 0 {
		delete(m.locks, sessionID)
	}
}
