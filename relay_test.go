package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bareWrite answers without a content type so the relay default applies.
func bareWrite(w http.ResponseWriter, status int, body string) {
	w.Header()["Content-Type"] = nil
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestRelayMissingConfig(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, path := range []string{"/api/projects", "/api/songs/portfolio", "/api/resume/download"} {
		rec := ts.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Equal(t, "Missing API_URL or API_KEY", rec.Body.String(), path)
	}
}

func TestRelayForwardsWithKey(t *testing.T) {
	var gotKey, gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`[{"id":"1","name":"Desktop"}]`))
	}))
	defer upstream.Close()

	ts := newTestServer(t, upstreamEnv(upstream.URL))
	rec := ts.do(http.MethodGet, "/api/projects", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "/projects", gotPath)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `[{"id":"1","name":"Desktop"}]`, rec.Body.String())
}

func TestRelayDefaultContentTypes(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bareWrite(w, http.StatusOK, "payload")
	}))
	defer upstream.Close()

	ts := newTestServer(t, upstreamEnv(upstream.URL))

	tests := []struct {
		path string
		want string
	}{
		{"/api/experiences", "application/json"},
		{"/api/contact", "application/json"},
		{"/api/songs/portfolio", "application/json"},
		{"/api/songs/portfolio/abc/audio", "audio/mpeg"},
		{"/api/resume/view", "application/pdf"},
		{"/api/resume/download", "application/pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := ts.do(http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Content-Type"))
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			assert.Equal(t, "payload", rec.Body.String())
		})
	}
}

func TestRelaySongsQuery(t *testing.T) {
	var gotPath, gotShuffle string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotShuffle = r.URL.Query().Get("noshuffle")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer upstream.Close()

	ts := newTestServer(t, upstreamEnv(upstream.URL))

	ts.do(http.MethodGet, "/api/songs/portfolio", nil)
	assert.Equal(t, "/songs/portfolio", gotPath)
	assert.Equal(t, "false", gotShuffle)

	ts.do(http.MethodGet, "/api/songs/portfolio?noshuffle=true", nil)
	assert.Equal(t, "true", gotShuffle)

	ts.do(http.MethodGet, "/api/songs/my%20mix/t%201/audio", nil)
	assert.Equal(t, "/songs/my%20mix/t%201/audio", gotPath)
}

func TestRelayCopiesStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bareWrite(w, http.StatusNotFound, "no such track")
	}))
	defer upstream.Close()

	ts := newTestServer(t, upstreamEnv(upstream.URL))
	rec := ts.do(http.MethodGet, "/api/songs/portfolio/missing/audio", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no such track", rec.Body.String())
}

func TestRelayDownloadDisposition(t *testing.T) {
	disposition := `attachment; filename="resume.pdf"`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("named") == "" {
			w.Header().Set("Content-Disposition", disposition)
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF"))
	}))
	defer upstream.Close()

	ts := newTestServer(t, upstreamEnv(upstream.URL))

	rec := ts.do(http.MethodGet, "/api/resume/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, disposition, rec.Header().Get("Content-Disposition"))

	view := ts.do(http.MethodGet, "/api/resume/view", nil)
	assert.Empty(t, view.Header().Get("Content-Disposition"))
}

func TestRelayDownloadDefaultDisposition(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bareWrite(w, http.StatusOK, "%PDF")
	}))
	defer upstream.Close()

	ts := newTestServer(t, upstreamEnv(upstream.URL))
	rec := ts.do(http.MethodGet, "/api/resume/download", nil)

	assert.Equal(t, "attachment", rec.Header().Get("Content-Disposition"))
}

func TestRelayUpstreamUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	ts := newTestServer(t, upstreamEnv(url))
	rec := ts.do(http.MethodGet, "/api/projects", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
