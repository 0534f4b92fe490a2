package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/retro-desktop/internal/config"
	"github.com/Zachkp/retro-desktop/internal/desktop"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	app    *app
	router *gin.Engine
}

// testDefaults lifts the desktop rate limit out of the way of tests that
// poll; env can still set it.
var testDefaults = map[string]string{"DESKTOP_RPS": "1000", "DESKTOP_BURST": "1000"}

// newTestServer builds the full router over an in-memory database. env
// overrides the configuration.
func newTestServer(t *testing.T, env map[string]string) *testServer {
	t.Helper()

	cfg, err := config.LoadFrom(func(key string) string {
		if v, ok := env[key]; ok {
			return v
		}
		return testDefaults[key]
	})
	require.NoError(t, err)

	db, err := openDB(t.Context(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a, err := newApp(t.Context(), cfg, db, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(a.sessions.closeAll)

	r, err := newRouter(a)
	require.NoError(t, err)

	return &testServer{app: a, router: r}
}

func upstreamEnv(url string) map[string]string {
	return map[string]string{"API_URL": url, "API_KEY": "test-key"}
}

// do sends one request, carrying cookies from earlier responses.
func (ts *testServer) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// startSession loads the page, which opens a desktop session, and returns
// the session cookie.
func (ts *testServer) startSession(t *testing.T) *http.Cookie {
	t.Helper()

	rec := ts.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := cookieNamed(rec, sessionCookie)
	require.NotNil(t, cookie)
	return cookie
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) desktop.Snapshot {
	t.Helper()

	var snap desktop.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func windowSnap(snap desktop.Snapshot, id desktop.WindowID) desktop.WindowSnapshot {
	for _, w := range snap.Windows {
		if w.ID == id {
			return w
		}
	}
	return desktop.WindowSnapshot{}
}
