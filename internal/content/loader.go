package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog"
)

// Status is the phase of a window's content fetch.
type Status int

const (
	// StatusLoading means a fetch is in flight or has not started yet.
	StatusLoading Status = iota
	// StatusLoaded means the last fetch succeeded.
	StatusLoaded
	// StatusFailed means the last fetch failed; View.Err says why.
	StatusFailed
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// View is a loader's state with its data erased to any, for templates.
type View struct {
	Status Status `json:"status"`
	Data   any    `json:"data,omitempty"`
	Err    string `json:"error,omitempty"`
}

// Loading reports whether the content is still being fetched.
func (v View) Loading() bool { return v.Status == StatusLoading }

// Failed reports whether the last fetch failed.
func (v View) Failed() bool { return v.Status == StatusFailed }

// Source is the content behind one window.
type Source interface {
	Load(ctx context.Context)
	View() View
}

// Loader fetches one JSON document into T. Each window owns its own loader;
// nothing is cached or shared between windows.
type Loader[T any] struct {
	client *Client
	path   string
	query  url.Values
	what   string
	logger zerolog.Logger

	mu     sync.Mutex
	seq    uint64
	status Status
	data   T
	err    string
}

// NewLoader returns a loader for GET path. what names the content in error
// messages ("projects", "experiences").
func NewLoader[T any](client *Client, path string, query url.Values, what string, logger zerolog.Logger) *Loader[T] {
	return &Loader[T]{
		client: client,
		path:   path,
		query:  query,
		what:   what,
		logger: logger.With().Str("content", what).Logger(),
	}
}

// Load fetches the document and records the outcome. When loads overlap
// only the most recent one is recorded.
func (l *Loader[T]) Load(ctx context.Context) {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.status = StatusLoading
	l.err = ""
	l.mu.Unlock()

	data, err := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if seq != l.seq {
		return
	}
	if err != nil {
		l.logger.Warn().Err(err).Str("path", l.path).Msg("content fetch failed")
		l.status = StatusFailed
		l.err = fmt.Sprintf("Failed to fetch %s", l.what)
		return
	}
	l.status = StatusLoaded
	l.data = data
}

func (l *Loader[T]) fetch(ctx context.Context) (T, error) {
	var data T

	resp, err := l.client.Get(ctx, l.path, l.query)
	if err != nil {
		return data, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return data, fmt.Errorf("upstream %s returned %d", l.path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return data, fmt.Errorf("failed to decode %s: %w", l.path, err)
	}
	return data, nil
}

// State returns the current status, data and error message.
func (l *Loader[T]) State() (Status, T, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status, l.data, l.err
}

// View returns the current state for rendering.
func (l *Loader[T]) View() View {
	status, data, err := l.State()
	v := View{Status: status, Err: err}
	if status == StatusLoaded {
		v.Data = data
	}
	return v
}
