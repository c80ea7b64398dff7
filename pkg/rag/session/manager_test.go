package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"flowershop-chat-be/internal/repository/memory"
	"flowershop-chat-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turnPair(user, reply string) []store.Turn {
	return []store.Turn{
		{Role: store.RoleUser, Content: user},
		{Role: store.RoleAssistant, Content: reply},
	}
}

func TestManager_HistoryCreatesEmptySession(t *testing.T) {
	repo := memory.NewSessionRepository()
	m := NewManager(repo)

	h := m.History("new-session")
	assert.Empty(t, h)

	_, found := repo.Get("new-session")
	assert.True(t, found)
}

func TestManager_EmptyIDUsesDefault(t *testing.T) {
	m := NewManager(memory.NewSessionRepository())

	m.Append("", turnPair("hello", "hi")...)

	assert.Len(t, m.History(store.DefaultSessionID), 2)
}

func TestManager_HistoryIsSnapshot(t *testing.T) {
	m := NewManager(memory.NewSessionRepository())
	m.Append("s", turnPair("a", "b")...)

	h := m.History("s")
	h[0].Content = "mutated"

	assert.Equal(t, "a", m.History("s")[0].Content)
}

func TestManager_NTurnsGive2NEntries(t *testing.T) {
	m := NewManager(memory.NewSessionRepository())

	for i := 0; i < 5; i++ {
		m.Append("s", turnPair(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))...)
	}

	h := m.History("s")
	require.Len(t, h, 10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, store.RoleUser, h[2*i].Role)
		assert.Equal(t, fmt.Sprintf("q%d", i), h[2*i].Content)
		assert.Equal(t, store.RoleAssistant, h[2*i+1].Role)
		assert.Equal(t, fmt.Sprintf("a%d", i), h[2*i+1].Content)
		assert.False(t, h[2*i].CreatedAt.IsZero())
	}
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := NewManager(memory.NewSessionRepository())

	m.Append("a", turnPair("x", "y")...)

	assert.Len(t, m.History("a"), 2)
	assert.Empty(t, m.History("b"))
}

func TestManager_KeepLastPolicy(t *testing.T) {
	m := NewManagerWithPolicy(memory.NewSessionRepository(), KeepLast(4))

	for i := 0; i < 3; i++ {
		m.Append("s", turnPair(fmt.Sprintf("q%d", i), "a")...)
	}

	h := m.History("s")
	require.Len(t, h, 4)
	assert.Equal(t, "q1", h[0].Content)
}

func TestManager_ConcurrentAppendsKeepPairsTogether(t *testing.T) {
	m := NewManager(memory.NewSessionRepository())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Append("s", turnPair(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))...)
		}(i)
	}
	wg.Wait()

	h := m.History("s")
	require.Len(t, h, 100)
	for i := 0; i < len(h); i += 2 {
		assert.Equal(t, store.RoleUser, h[i].Role)
		assert.Equal(t, store.RoleAssistant, h[i+1].Role)
		assert.Equal(t, h[i].Content[1:], h[i+1].Content[1:])
	}
}

func TestManager_LockAdmitsInArrivalOrder(t *testing.T) {
	m := NewManager(memory.NewSessionRepository())

	unlock := lock(t, m, "s")

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			release := lock(t, m, "s")
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			release()
		}(i)
		// let goroutine i take its ticket before i+1 starts
		time.Sleep(20 * time.Millisecond)
	}

	unlock()
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestManager_LockDifferentSessionsDoNotBlock(t *testing.T) {
	m := NewManager(memory.NewSessionRepository())

	unlockA := lock(t, m, "a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := lock(t, m, "b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on session b blocked behind session a")
	}
}

func TestManager_UnlockIsIdempotent(t *testing.T) {
	m := NewManager(memory.NewSessionRepository())

	unlock := lock(t, m, "s")
	unlock()
	unlock()

	done := make(chan struct{})
	go func() {
		lock(t, m, "s")()
		lock(t, m, "s")()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock not released")
	}
}

func lock(t *testing.T, m *Manager, sessionID string) func() {
	t.Helper()
	unlock, err := m.Lock(context.Background(), sessionID)
	require.NoError(t, err)
	return unlock
}

func TestManager_LockGivesUpWhenContextDone(t *testing.T) {
	m := NewManager(memory.NewSessionRepository())
	unlock := lock(t, m, "s")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	release, err := m.Lock(ctx, "s")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, release)

	// the abandoned wait does not hold up the next caller
	unlock()
	done := make(chan struct{})
	go func() {
		lock(t, m, "s")()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock not handed over after a waiter gave up")
	}
}

func TestManager_CancelledWaiterKeepsQueueOrder(t *testing.T) {
	m := NewManager(memory.NewSessionRepository())
	unlock := lock(t, m, "s")

	ctx, cancel := context.WithCancel(context.Background())
	gaveUp := make(chan error, 1)
	go func() {
		_, err := m.Lock(ctx, "s")
		gaveUp <- err
	}()
	time.Sleep(20 * time.Millisecond)

	acquired := make(chan struct{})
	go func() {
		lock(t, m, "s")()
		close(acquired)
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-gaveUp, context.Canceled)

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter behind the cancelled one never acquired")
	}
}

func TestManager_LockEntriesArePruned(t *testing.T) {
	m := NewManager(memory.NewSessionRepository())

	for _, id := range []string{"a", "b", "c"} {
		lock(t, m, id)()
	}
	ctx, cancel := context.WithCancel(context.Background())
	unlock := lock(t, m, "d")
	cancel()
	_, err := m.Lock(ctx, "d")
	require.Error(t, err)
	unlock()

	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	assert.Empty(t, m.locks)
}
