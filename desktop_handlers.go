package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/retro-desktop/internal/content"
	"github.com/Zachkp/retro-desktop/internal/desktop"
	"github.com/Zachkp/retro-desktop/internal/playback"
)

const (
	noticeCookie = "hideMobileAlert"
	windowKey    = "window"
)

type viewportRequest struct {
	Width  int `json:"width" binding:"required,gt=0"`
	Height int `json:"height" binding:"required,gt=0"`
}

type pointerRequest struct {
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Region desktop.Region `json:"region"`
}

type trackRequest struct {
	Index int `json:"index"`
}

type durationRequest struct {
	Seconds float64 `json:"seconds"`
	Load    uint64  `json:"load" binding:"required"`
}

// playerView is the media player's render state.
type playerView struct {
	playback.State
	AudioURL string       `json:"audio_url,omitempty"`
	Songs    content.View `json:"songs"`
}

func (a *app) player(s *session) playerView {
	state := s.queue.State()
	return playerView{
		State:    state,
		AudioURL: audioURL(a.cfg.SongCollection, state.Current),
		Songs:    s.songs.View(),
	}
}

func bindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).desktop.Snapshot())
}

// resolveWindow loads the :id window into the context or answers 404.
func resolveWindow(c *gin.Context) {
	win, err := currentSession(c).desktop.Window(desktop.WindowID(c.Param("id")))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Set(windowKey, win)
	c.Next()
}

func currentWindow(c *gin.Context) *desktop.Window {
	return c.MustGet(windowKey).(*desktop.Window)
}

func (a *app) handleIndex(c *gin.Context) {
	s := currentSession(c)
	hideNotice, _ := c.Cookie(noticeCookie)

	c.HTML(http.StatusOK, "index.html", gin.H{
		"desktop":         s.desktop.Snapshot(),
		"showNotice":      hideNotice != "true",
		"aboutMeGreeting": AboutMeGreeting,
		"aboutMeContent":  AboutMe,
		"infoTitle":       InfoPanelTitle,
		"infoContent":     InfoPanel,
	})
}

func handleDismissNotice(c *gin.Context) {
	c.SetCookie(noticeCookie, "true", 86400, "/", "", false, false)
	c.Status(http.StatusNoContent)
}

func handleViewport(c *gin.Context) {
	var req viewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	currentSession(c).desktop.SetViewport(desktop.Viewport{Width: req.Width, Height: req.Height})
	snapshot(c)
}

func handleBoot(c *gin.Context) {
	currentSession(c).desktop.Boot()
	snapshot(c)
}

func (a *app) handleOpen(c *gin.Context) {
	s, win := currentSession(c), currentWindow(c)
	if win.Open() {
		s.refresh(win.ID())
		a.analytics.recordWindowOpen(c, win.ID())
	}
	snapshot(c)
}

// windowAction applies a plain state change to the :id window.
func windowAction(action func(*desktop.Window)) gin.HandlerFunc {
	return func(c *gin.Context) {
		action(currentWindow(c))
		snapshot(c)
	}
}

func handleMaximize(c *gin.Context) {
	currentWindow(c).ToggleMaximize(currentSession(c).desktop.Viewport())
	snapshot(c)
}

func handlePointerDown(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	vp := currentSession(c).desktop.Viewport()
	currentWindow(c).PointerDown(desktop.Point{X: req.X, Y: req.Y}, req.Region, vp)
	snapshot(c)
}

func handlePointerMove(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	vp := currentSession(c).desktop.Viewport()
	currentWindow(c).PointerMove(desktop.Point{X: req.X, Y: req.Y}, vp)
	snapshot(c)
}

// handleContent renders the window's body: static copy, the loader state of
// its upstream content, or the player.
func (a *app) handleContent(c *gin.Context) {
	s, win := currentSession(c), currentWindow(c)

	data := gin.H{"id": string(win.ID()), "title": win.Title()}
	switch win.ID() {
	case desktop.AboutMe:
		data["greeting"] = AboutMeGreeting
		data["paragraphs"] = AboutMe
	case desktop.InfoPanel:
		data["greeting"] = InfoPanelTitle
		data["paragraphs"] = InfoPanel
	case desktop.MediaPlayer:
		data["player"] = a.player(s)
	}
	if src, ok := s.sources[win.ID()]; ok {
		data["view"] = src.View()
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, data)
		return
	}
	c.HTML(http.StatusOK, "window-content.html", data)
}

// playerError maps queue errors onto status codes.
func playerError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, playback.ErrNoTracks), errors.Is(err, playback.ErrNotReady):
		status = http.StatusConflict
	case errors.Is(err, playback.ErrTrackIndex):
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (a *app) respondPlayer(c *gin.Context) {
	c.JSON(http.StatusOK, a.player(currentSession(c)))
}

func (a *app) handleLoadTrack(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := currentSession(c).startTrack(req.Index, true); err != nil {
		playerError(c, err)
		return
	}
	a.respondPlayer(c)
}

// stepTrack moves to the track chosen by step and cues it.
func (a *app) stepTrack(step func(*playback.Queue) (int, bool, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := currentSession(c)
		i, autoplay, err := step(s.queue)
		if errors.Is(err, playback.ErrSingleTrack) {
			a.respondPlayer(c)
			return
		}
		if err == nil {
			err = s.startTrack(i, autoplay)
		}
		if err != nil {
			playerError(c, err)
			return
		}
		a.respondPlayer(c)
	}
}

func (a *app) transport(action func(*playback.Queue) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := action(currentSession(c).queue); err != nil {
			playerError(c, err)
			return
		}
		a.respondPlayer(c)
	}
}

func (a *app) handleDuration(c *gin.Context) {
	var req durationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !currentSession(c).duration.Report(req.Load, req.Seconds) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duration reported for an earlier track"})
		return
	}
	a.respondPlayer(c)
}

// setupDesktopRoutes mounts the desktop shell and its interaction API.
func setupDesktopRoutes(r *gin.Engine, a *app) {
	limit := a.desktopRL.middleware()

	r.GET("/", limit, startSession(a.sessions), a.handleIndex)
	r.POST("/notice/dismiss", handleDismissNotice)
	r.POST("/contact", limit, a.mailer.handleContact)

	d := r.Group("/desktop", limit, requireSession(a.sessions))
	d.GET("", snapshot)
	d.POST("/viewport", handleViewport)
	d.POST("/boot", handleBoot)

	w := d.Group("/windows/:id", resolveWindow)
	w.POST("/open", a.handleOpen)
	w.POST("/minimize", windowAction((*desktop.Window).Minimize))
	w.POST("/close", windowAction((*desktop.Window).Close))
	w.POST("/maximize", handleMaximize)
	w.POST("/mounted", windowAction((*desktop.Window).Mount))
	w.POST("/pointer/down", handlePointerDown)
	w.POST("/pointer/move", handlePointerMove)
	w.POST("/pointer/up", windowAction((*desktop.Window).PointerUp))
	w.GET("/content", a.handleContent)

	p := d.Group("/player")
	p.GET("", a.respondPlayer)
	p.POST("/load", a.handleLoadTrack)
	p.POST("/next", a.stepTrack((*playback.Queue).Next))
	p.POST("/prev", a.stepTrack((*playback.Queue).Prev))
	p.POST("/finished", a.stepTrack((*playback.Queue).Finished))
	p.POST("/play", a.transport((*playback.Queue).Play))
	p.POST("/pause", a.transport((*playback.Queue).Pause))
	p.POST("/duration", a.handleDuration)
}
