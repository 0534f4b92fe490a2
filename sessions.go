package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Zachkp/retro-desktop/internal/content"
	"github.com/Zachkp/retro-desktop/internal/desktop"
	"github.com/Zachkp/retro-desktop/internal/playback"
)

const (
	sessionCookie = "desktop_session"
	sessionKey    = "session"
)

var errTooManySessions = errors.New("too many desktop sessions")

// session is one visitor's desktop and everything hanging off it. It lives
// until the visitor has been idle for the configured period.
type session struct {
	id       string
	desktop  *desktop.Desktop
	sources  map[desktop.WindowID]content.Source
	songs    *content.Loader[[]content.Song]
	queue    *playback.Queue
	duration *playback.ReportedDuration
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	lastSeen time.Time
}

// sessionDeps is what every new session is built from.
type sessionDeps struct {
	layout     *desktop.Layout
	client     *content.Client
	collection string
	wait       playback.WaitOptions
	logger     zerolog.Logger
}

func newSession(parent context.Context, id string, deps sessionDeps, now time.Time) *session {
	ctx, cancel := context.WithCancel(parent)
	logger := deps.logger.With().Str("session", id[:8]).Logger()

	songs := content.NewLoader[[]content.Song](deps.client, content.SongsPath(deps.collection),
		url.Values{"noshuffle": {"false"}}, "songs", logger)

	s := &session{
		id:      id,
		desktop: desktop.New(deps.layout),
		sources: map[desktop.WindowID]content.Source{
			desktop.ProjectList: content.NewLoader[[]content.Project](deps.client, "/projects", nil, "projects", logger),
			desktop.Experience:  content.NewLoader[[]content.Experience](deps.client, "/experiences", nil, "experiences", logger),
			desktop.Contact:     content.NewLoader[content.ContactInfo](deps.client, "/contact", nil, "contact details", logger),
			desktop.Resume:      content.NewLoader[content.ResumeMetadata](deps.client, "/resume", nil, "resume", logger),
			desktop.MediaPlayer: songs,
		},
		songs:    songs,
		queue:    playback.NewQueue(deps.wait, logger),
		duration: &playback.ReportedDuration{},
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		lastSeen: now,
	}

	// Windows that start visible have been mounted by desktop.New; their
	// content is fetched now.
	for _, win := range s.desktop.Windows() {
		if win.Visible() {
			s.refresh(win.ID())
		}
	}
	return s
}

// refresh refetches the content behind id, if it has any. Loads run on the
// session's context so they stop when the session is evicted.
func (s *session) refresh(id desktop.WindowID) {
	if id == desktop.MediaPlayer {
		go s.loadSongs()
		return
	}
	if src, ok := s.sources[id]; ok {
		go src.Load(s.ctx)
	}
}

// loadSongs fetches the track list and cues the first track without
// starting it.
func (s *session) loadSongs() {
	s.songs.Load(s.ctx)

	status, songs, _ := s.songs.State()
	if status != content.StatusLoaded {
		return
	}
	s.queue.SetTracks(songs)
	s.logger.Debug().Int("tracks", len(songs)).Msg("track list loaded")
	if len(songs) > 0 {
		s.startTrack(0, false)
	}
}

// startTrack cues track i and waits in the background for the browser to
// report its duration.
func (s *session) startTrack(i int, autoplay bool) error {
	token, err := s.queue.Begin(i, autoplay)
	if err != nil {
		return err
	}
	s.duration.Expect(token)
	go func() {
		_ = s.queue.Await(s.ctx, token, s.duration)
	}()
	return nil
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// close tears the session's desktop down and stops its background work.
func (s *session) close() {
	s.cancel()
	s.desktop.Close()
}

// sessionStore maps session cookies to live sessions. It holds at most max
// sessions at a time.
type sessionStore struct {
	deps sessionDeps
	idle time.Duration
	max  int
	now  func() time.Time

	ctx context.Context

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore(ctx context.Context, deps sessionDeps, idle time.Duration, limit int) *sessionStore {
	return &sessionStore{
		deps:     deps,
		idle:     idle,
		max:      limit,
		now:      time.Now,
		ctx:      ctx,
		sessions: make(map[string]*session),
	}
}

// get returns the live session for id and marks it as seen.
func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()

	if ok {
		s.touch(st.now())
	}
	return s, ok
}

// create starts a new session under a fresh id. When the store is full it
// reaps idle sessions first and fails with errTooManySessions if that frees
// nothing.
func (st *sessionStore) create() (*session, error) {
	if st.len() >= st.max && st.reap() == 0 {
		return nil, errTooManySessions
	}

	st.mu.Lock()
	if len(st.sessions) >= st.max {
		st.mu.Unlock()
		return nil, errTooManySessions
	}
	s := newSession(st.ctx, uuid.NewString(), st.deps, st.now())
	st.sessions[s.id] = s
	st.mu.Unlock()

	st.deps.logger.Debug().Str("session", s.id[:8]).Msg("desktop session started")
	return s, nil
}

// reap evicts sessions idle for longer than the idle period.
func (st *sessionStore) reap() int {
	now := st.now()

	st.mu.Lock()
	var expired []*session
	for id, s := range st.sessions {
		if s.idleSince(now) > st.idle {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		st.deps.logger.Info().Int("count", len(expired)).Msg("evicted idle desktop sessions")
	}
	return len(expired)
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// run reaps idle sessions until ctx is done, then closes the rest.
func (st *sessionStore) run(ctx context.Context) error {
	ticker := time.NewTicker(min(st.idle, time.Minute))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			st.closeAll()
			return nil
		case <-ticker.C:
			st.reap()
		}
	}
}

func (st *sessionStore) closeAll() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

// cookieSession returns the live session named by the request's cookie.
func cookieSession(c *gin.Context, st *sessionStore) (*session, bool) {
	id, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	return st.get(id)
}

// startSession attaches the visitor's session to the page request, starting
// one when the cookie is missing or refers to an evicted session.
func startSession(st *sessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s, ok := cookieSession(c, st); ok {
			c.Set(sessionKey, s)
			c.Next()
			return
		}

		s, err := st.create()
		if err != nil {
			st.deps.logger.Warn().Err(err).Int("max", st.max).Msg("refusing new desktop session")
			c.Header("Retry-After", "60")
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, s.id, 0, "/", "", false, true)
		c.Set(sessionKey, s)
		c.Next()
	}
}

// requireSession attaches the visitor's session to a desktop API request.
// Only the page starts sessions, so a missing or evicted one is a 401 and
// the page reloads.
func requireSession(st *sessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := cookieSession(c, st)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "desktop session expired"})
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session {
	return c.MustGet(sessionKey).(*session)
}

func audioURL(collection string, song *content.Song) string {
	if song == nil {
		return ""
	}
	return "/api" + content.AudioPath(collection, song.ID) + "?t=" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}
