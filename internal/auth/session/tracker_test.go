package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialclone/go-social-backend/internal/auth/domain"
)

func sessionFor(uid string) *domain.Session {
	return &domain.Session{User: domain.User{UID: uid}}
}

func recvSession(t *testing.T, ch <-chan *domain.Session) *domain.Session {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session notification")
		return nil
	}
}

func TestCurrentStartsSignedOut(t *testing.T) {
	tracker := NewTracker()
	assert.Nil(t, tracker.Current())
}

func TestSetAndCurrent(t *testing.T) {
	tracker := NewTracker()

	tracker.Set(sessionFor("u1"))
	require.NotNil(t, tracker.Current())
	assert.Equal(t, "u1", tracker.Current().User.UID)

	tracker.Set(nil)
	assert.Nil(t, tracker.Current())
}

func TestSubscribeObservesChanges(t *testing.T) {
	tracker := NewTracker()
	ch, cancel := tracker.Subscribe()
	defer cancel()

	tracker.Set(sessionFor("u1"))
	got := recvSession(t, ch)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.User.UID)

	tracker.Set(nil)
	assert.Nil(t, recvSession(t, ch))
}

func TestSubscribeCoalescesToLatest(t *testing.T) {
	tracker := NewTracker()
	ch, cancel := tracker.Subscribe()
	defer cancel()

	// Burst without draining: only the final state must be readable.
	for i := 0; i < 10; i++ {
		tracker.Set(sessionFor("intermediate"))
	}
	tracker.Set(sessionFor("final"))

	got := recvSession(t, ch)
	require.NotNil(t, got)
	assert.Equal(t, "final", got.User.UID)
}

func TestCancelStopsNotifications(t *testing.T) {
	tracker := NewTracker()
	ch, cancel := tracker.Subscribe()
	cancel()
	cancel() // idempotent

	tracker.Set(sessionFor("u1"))

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after cancel")
}

func TestIndependentSubscribers(t *testing.T) {
	tracker := NewTracker()
	a, cancelA := tracker.Subscribe()
	b, cancelB := tracker.Subscribe()
	defer cancelB()

	cancelA()
	tracker.Set(sessionFor("u1"))

	got := recvSession(t, b)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.User.UID)

	_, ok := <-a
	assert.False(t, ok)
}

func TestConcurrentSetAndSubscribe(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cancel := tracker.Subscribe()
			tracker.Set(sessionFor("race"))
			_ = ch
			cancel()
		}()
	}
	wg.Wait()

	require.NotNil(t, tracker.Current())
	assert.Equal(t, "race", tracker.Current().User.UID)
}
