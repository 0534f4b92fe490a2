package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/Zachkp/retro-desktop/internal/config"
	"github.com/Zachkp/retro-desktop/internal/content"
	"github.com/Zachkp/retro-desktop/internal/desktop"
	"github.com/Zachkp/retro-desktop/internal/logging"
	"github.com/Zachkp/retro-desktop/internal/playback"
)

//go:embed templates/*.html
var templateFS embed.FS

// app wires the desktop sessions, the relay and the site's side services.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	client    *content.Client
	sessions  *sessionStore
	limiter   *ipRateLimiter
	desktopRL *ipRateLimiter
	analytics *analytics
	admin     *admin
	mailer    *mailer
}

func loadTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"ago":   humanize.Time,
		"comma": humanize.Comma,
	}
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

func newApp(ctx context.Context, cfg *config.Config, db *sql.DB, logger zerolog.Logger) (*app, error) {
	layout, err := desktop.LoadLayout(cfg.LayoutFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}

	stats, err := newAnalytics(ctx, db, logger)
	if err != nil {
		return nil, err
	}
	ad, err := newAdmin(cfg.Admin, stats, logger)
	if err != nil {
		return nil, err
	}

	client := content.NewClient(cfg.APIURL, cfg.APIKey, nil)
	if !client.Configured() {
		logger.Warn().Msg("API_URL or API_KEY not set; content windows will show errors")
	}

	sessions := newSessionStore(ctx, sessionDeps{
		layout:     layout,
		client:     client,
		collection: cfg.SongCollection,
		wait:       playback.DefaultWait,
		logger:     logger.With().Str("component", "desktop").Logger(),
	}, cfg.SessionIdle, cfg.MaxSessions)

	return &app{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		sessions:  sessions,
		limiter:   newIPRateLimiter(cfg.RelayRPS, cfg.RelayBurst),
		desktopRL: newIPRateLimiter(cfg.DesktopRPS, cfg.DesktopBurst),
		analytics: stats,
		admin:     ad,
		mailer:    newMailer(cfg.SMTP, logger),
	}, nil
}

func newRouter(a *app) (*gin.Engine, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	r := gin.New()
	r.Use(logging.Middleware(a.logger), gin.Recovery())
	r.Use(a.analytics.visitorTrackingMiddleware())
	r.SetHTMLTemplate(tmpl)

	r.Static("/static", "./static")

	setupDesktopRoutes(r, a)
	setupRelayRoutes(r, a.client, a.limiter, a.logger)
	setupAdminRoutes(r, a.admin)

	return r, nil
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return db, nil
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	db, err := openDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := newApp(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	router, err := newRouter(a)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return a.sessions.run(gctx) })
	g.Go(func() error { return a.limiter.run(gctx) })
	g.Go(func() error { return a.desktopRL.run(gctx) })
	g.Go(func() error { return a.analytics.run(gctx) })

	return g.Wait()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.NewFromValues(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("server stopped")
}
