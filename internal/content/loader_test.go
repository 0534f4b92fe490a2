package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", srv.Client())
}

func TestLoaderSuccess(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get(APIKeyHeader))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]Project{
			{ID: "1", Name: "retro-desktop", Technologies: []string{"Go", "gin"}, Year: 2025},
		})
	})

	l := NewLoader[[]Project](client, "/projects", nil, "projects", zerolog.Nop())

	status, _, _ := l.State()
	assert.Equal(t, StatusLoading, status)

	l.Load(context.Background())

	status, projects, msg := l.State()
	require.Equal(t, StatusLoaded, status)
	assert.Empty(t, msg)
	require.Len(t, projects, 1)
	assert.Equal(t, "retro-desktop", projects[0].Name)

	v := l.View()
	assert.False(t, v.Loading())
	assert.False(t, v.Failed())
	assert.NotNil(t, v.Data)
}

func TestLoaderUpstreamError(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	l := NewLoader[[]Project](client, "/projects", nil, "projects", zerolog.Nop())
	l.Load(context.Background())

	v := l.View()
	assert.True(t, v.Failed())
	assert.Equal(t, "Failed to fetch projects", v.Err)
	assert.Nil(t, v.Data)
}

func TestLoaderBadJSON(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})

	l := NewLoader[[]Experience](client, "/experiences", nil, "experiences", zerolog.Nop())
	l.Load(context.Background())

	assert.Equal(t, "Failed to fetch experiences", l.View().Err)
}

func TestLoaderNotConfigured(t *testing.T) {
	l := NewLoader[ContactInfo](NewClient("", "", nil), "/contact", nil, "contact details", zerolog.Nop())
	l.Load(context.Background())

	assert.Equal(t, StatusFailed, l.View().Status)
}

func TestLoaderQueryAndRecovery(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/songs/study", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("noshuffle"))
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]Song{{ID: "a", Title: "Track A"}})
	})

	l := NewLoader[[]Song](client, SongsPath("study"), url.Values{"noshuffle": {"false"}}, "songs", zerolog.Nop())
	l.Load(context.Background())
	assert.True(t, l.View().Failed())

	fail.Store(false)
	l.Load(context.Background())
	status, songs, msg := l.State()
	assert.Equal(t, StatusLoaded, status)
	assert.Empty(t, msg)
	assert.Len(t, songs, 1)
}

func TestLoaderCancelledContext(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"email":"me@example.com"}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader[ContactInfo](client, "/contact", nil, "contact details", zerolog.Nop())
	l.Load(ctx)
	assert.True(t, l.View().Failed())
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/songs/lo%20fi", SongsPath("lo fi"))
	assert.Equal(t, "/songs/study/abc%2F1/audio", AudioPath("study", "abc/1"))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "loaded", StatusLoaded.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", Status(42).String())
}
