package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/retro-desktop/internal/content"
	"github.com/Zachkp/retro-desktop/internal/desktop"
	"github.com/Zachkp/retro-desktop/internal/playback"
)

func newTestStore(t *testing.T, idle time.Duration) (*sessionStore, *time.Time) {
	t.Helper()

	layout, err := desktop.DefaultLayout()
	require.NoError(t, err)

	st := newSessionStore(t.Context(), sessionDeps{
		layout:     layout,
		client:     content.NewClient("", "", nil),
		collection: "portfolio",
		wait:       playback.WaitOptions{Timeout: 50 * time.Millisecond, Interval: 5 * time.Millisecond},
		logger:     zerolog.Nop(),
	}, idle, 100)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }
	t.Cleanup(st.closeAll)
	return st, &now
}

func mustCreate(t *testing.T, st *sessionStore) *session {
	t.Helper()

	s, err := mustCreate(t, st)
	require.NoError(t, err)
	return s
}

func TestSessionStoreGetTouches(t *testing.T) {
	st, now := newTestStore(t, 30*time.Minute)

	s := mustCreate(t, st)
	*now = now.Add(20 * time.Minute)
	got, ok := st.get(s.id)
	require.True(t, ok)
	assert.Same(t, s, got)

	*now = now.Add(20 * time.Minute)
	assert.Zero(t, st.reap(), "the get above kept the session alive")

	_, ok = st.get("unknown")
	assert.False(t, ok)
}

func TestSessionStoreReapClosesDesktop(t *testing.T) {
	st, now := newTestStore(t, 30*time.Minute)

	idle := mustCreate(t, st)
	*now = now.Add(25 * time.Minute)
	active := mustCreate(t, st)

	*now = now.Add(10 * time.Minute)
	assert.Equal(t, 1, st.reap())
	assert.Equal(t, 1, st.len())

	_, ok := st.get(idle.id)
	assert.False(t, ok)
	_, ok = st.get(active.id)
	assert.True(t, ok)

	assert.ErrorIs(t, idle.ctx.Err(), context.Canceled)

	// A closed manager ignores raises.
	wm := idle.desktop.Manager()
	before := wm.Order()
	assert.False(t, wm.BringToFront(desktop.AboutMe))
	assert.Equal(t, before, wm.Order())
}

func TestSessionStoreRunClosesAllOnShutdown(t *testing.T) {
	st, _ := newTestStore(t, time.Hour)
	s := mustCreate(t, st)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- st.run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}

	assert.Zero(t, st.len())
	assert.Error(t, s.ctx.Err())
}

func TestSessionStoreBounded(t *testing.T) {
	st, now := newTestStore(t, 30*time.Minute)
	st.max = 2

	first := mustCreate(t, st)
	*now = now.Add(10 * time.Minute)
	mustCreate(t, st)

	_, err := st.create()
	assert.ErrorIs(t, err, errTooManySessions)
	assert.Equal(t, 2, st.len())

	// A full store makes room by evicting idle sessions.
	*now = now.Add(25 * time.Minute)
	s, err := st.create()
	require.NoError(t, err)
	assert.Equal(t, 2, st.len())
	_, ok := st.get(first.id)
	assert.False(t, ok)
	_, ok = st.get(s.id)
	assert.True(t, ok)
}

func TestNewSessionMountsVisibleWindows(t *testing.T) {
	st, _ := newTestStore(t, time.Hour)
	s := mustCreate(t, st)

	assert.Equal(t, []desktop.WindowID{desktop.MediaPlayer}, s.desktop.Manager().Order())

	// Without an upstream the songs fail without touching the queue.
	require.Eventually(t, func() bool {
		return s.songs.View().Failed()
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, s.queue.State().Tracks)
}

func TestAudioURL(t *testing.T) {
	assert.Empty(t, audioURL("portfolio", nil))

	u := audioURL("my mix", &content.Song{ID: "a/b"})
	assert.Contains(t, u, "/api/songs/my%20mix/a%2Fb/audio?t=")
}
