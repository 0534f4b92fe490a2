// admin.go - privacy-conscious analytics and the admin dashboard
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Zachkp/retro-desktop/internal/config"
	"github.com/Zachkp/retro-desktop/internal/desktop"
)

const (
	adminCookie    = "admin_token"
	retention      = 12 // months
	sqliteTimeFmt  = "2006-01-02 15:04:05"
	recentVisitors = 50
)

// VisitorMetric is one tracked page view. The client IP is never stored,
// only its salted hash.
type VisitorMetric struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// WindowStat counts how often a panel was opened.
type WindowStat struct {
	WindowID string `json:"window_id"`
	Opens    int64  `json:"opens"`
}

type AdminStats struct {
	TotalVisitors    int64           `json:"total_visitors"`
	UniqueVisitors   int64           `json:"unique_visitors"`
	VisitorsToday    int64           `json:"visitors_today"`
	VisitorsThisWeek int64           `json:"visitors_this_week"`
	TotalWindowOpens int64           `json:"total_window_opens"`
	TopWindows       []WindowStat    `json:"top_windows"`
	RecentVisitors   []VisitorMetric `json:"recent_visitors"`
}

// analytics records page views and panel opens in SQLite.
type analytics struct {
	db     *sql.DB
	salt   string
	logger zerolog.Logger
	now    func() time.Time
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// newAnalytics creates the tables if needed. The IP salt is fresh per
// process, so hashes cannot be joined across restarts.
func newAnalytics(ctx context.Context, db *sql.DB, logger zerolog.Logger) (*analytics, error) {
	salt, err := generateToken()
	if err != nil {
		return nil, err
	}

	a := &analytics{
		db:     db,
		salt:   salt,
		logger: logger.With().Str("component", "analytics").Logger(),
		now:    time.Now,
	}
	if err := a.migrate(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *analytics) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS visitors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hashed_ip TEXT NOT NULL,
			user_agent TEXT,
			path TEXT,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visitors_timestamp ON visitors(timestamp)`,
		`CREATE TABLE IF NOT EXISTS window_opens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			window_id TEXT NOT NULL,
			hashed_ip TEXT NOT NULL,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_window_opens_timestamp ON window_opens(timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate analytics tables: %w", err)
		}
	}
	return nil
}

// Hash IP address for privacy compliance (consistent per IP)
func (a *analytics) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + a.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

func (a *analytics) stamp() string {
	return a.now().UTC().Format(sqliteTimeFmt)
}

func (a *analytics) trackVisit(ip, userAgent, path string) {
	_, err := a.db.Exec(`INSERT INTO visitors (hashed_ip, user_agent, path, timestamp) VALUES (?, ?, ?, ?)`,
		a.hashIP(ip), userAgent, path, a.stamp())
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to record visitor")
	}
}

func (a *analytics) trackWindowOpen(id desktop.WindowID, ip string) {
	_, err := a.db.Exec(`INSERT INTO window_opens (window_id, hashed_ip, timestamp) VALUES (?, ?, ?)`,
		string(id), a.hashIP(ip), a.stamp())
	if err != nil {
		a.logger.Error().Err(err).Str("window", string(id)).Msg("failed to record window open")
	}
}

func skipTracking(path string) bool {
	for _, prefix := range []string{"/static/", "/images/", "/admin", "/api/", "/desktop", "/notice/", "/favicon", "/privacy"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// visitorTrackingMiddleware records page views in the background. Assets,
// admin pages, API relays and desktop interactions are not page views, and
// DNT is honoured.
func (a *analytics) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skipTracking(path) || c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		go a.trackVisit(c.ClientIP(), c.GetHeader("User-Agent"), path)
		c.Next()
	}
}

// recordWindowOpen is called when a visitor opens a panel.
func (a *analytics) recordWindowOpen(c *gin.Context, id desktop.WindowID) {
	if c.GetHeader("DNT") == "1" {
		return
	}
	go a.trackWindowOpen(id, c.ClientIP())
}

// cleanup removes rows older than the retention period.
func (a *analytics) cleanup(ctx context.Context) (int64, error) {
	cutoff := a.now().UTC().AddDate(0, -retention, 0).Format(sqliteTimeFmt)

	var total int64
	for _, table := range []string{"visitors", "window_opens"} {
		result, err := a.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE timestamp < ?", cutoff)
		if err != nil {
			return total, fmt.Errorf("failed to clean up %s: %w", table, err)
		}
		n, _ := result.RowsAffected()
		total += n
	}

	if total > 0 {
		a.logger.Info().Int64("rows", total).Int("months", retention).Msg("privacy cleanup removed old records")
	}
	return total, nil
}

// run cleans up once at start and then daily until ctx is done.
func (a *analytics) run(ctx context.Context) error {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		if _, err := a.cleanup(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error().Err(err).Msg("privacy cleanup failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func parseStamp(s string) time.Time {
	t, err := time.Parse(sqliteTimeFmt, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (a *analytics) visitors(ctx context.Context, limit int) ([]VisitorMetric, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visitors []VisitorMetric
	for rows.Next() {
		var v VisitorMetric
		var ts string
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &ts); err != nil {
			continue
		}
		v.Timestamp = parseStamp(ts)
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

// stats gathers everything the dashboard shows.
func (a *analytics) stats(ctx context.Context) (*AdminStats, error) {
	now := a.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Format(sqliteTimeFmt)
	week := now.AddDate(0, 0, -7).Format(sqliteTimeFmt)

	stats := &AdminStats{}
	counts := []struct {
		query string
		args  []any
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM visitors", nil, &stats.TotalVisitors},
		{"SELECT COUNT(DISTINCT hashed_ip) FROM visitors", nil, &stats.UniqueVisitors},
		{"SELECT COUNT(*) FROM visitors WHERE timestamp >= ?", []any{today}, &stats.VisitorsToday},
		{"SELECT COUNT(*) FROM visitors WHERE timestamp >= ?", []any{week}, &stats.VisitorsThisWeek},
		{"SELECT COUNT(*) FROM window_opens", nil, &stats.TotalWindowOpens},
	}
	for _, q := range counts {
		if err := a.db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT window_id, COUNT(*) AS opens
		FROM window_opens
		GROUP BY window_id
		ORDER BY opens DESC, window_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var w WindowStat
		if err := rows.Scan(&w.WindowID, &w.Opens); err != nil {
			continue
		}
		stats.TopWindows = append(stats.TopWindows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.RecentVisitors, err = a.visitors(ctx, recentVisitors)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// admin guards the dashboard with a per-process token cookie.
type admin struct {
	creds     config.AdminConfig
	token     string
	analytics *analytics
	logger    zerolog.Logger
}

func newAdmin(creds config.AdminConfig, a *analytics, logger zerolog.Logger) (*admin, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	logger = logger.With().Str("component", "admin").Logger()
	logger.Info().Msg("admin access available at /admin/login")
	if creds.Defaulted {
		logger.Warn().Msg("using default admin credentials; set ADMIN_USERNAME and ADMIN_PASSWORD")
	}
	if gin.Mode() == gin.DebugMode {
		logger.Debug().Str("token", token).Msg("admin token (dev only)")
	}

	return &admin{creds: creds, token: token, analytics: a, logger: logger}, nil
}

func (ad *admin) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(ad.token)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (ad *admin) validCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(ad.creds.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(ad.creds.Password)) == 1
	return userOK && passOK
}

// setupAdminRoutes mounts the privacy page and the admin dashboard.
func setupAdminRoutes(r *gin.Engine, ad *admin) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title":  "Privacy Policy",
			"months": retention,
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		visitor := ad.analytics.hashIP(c.ClientIP())

		if !ad.validCredentials(c.PostForm("username"), c.PostForm("password")) {
			ad.logger.Warn().Str("visitor", visitor).Msg("failed admin login attempt")
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"title": "Admin Login",
				"error": "Invalid credentials",
			})
			return
		}

		c.SetCookie(adminCookie, ad.token, 3600*24, "/admin", "", false, true)
		ad.logger.Info().Str("visitor", visitor).Msg("admin login successful")
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		ad.logger.Info().Str("visitor", ad.analytics.hashIP(c.ClientIP())).Msg("admin logout")
		c.Redirect(http.StatusFound, "/admin/login")
	})

	group := r.Group("/admin")
	group.Use(ad.authMiddleware())

	group.GET("/dashboard", func(c *gin.Context) {
		stats, err := ad.analytics.stats(c.Request.Context())
		if err != nil {
			ad.logger.Error().Err(err).Msg("failed to load admin stats")
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats": stats,
		})
	})

	group.GET("/api/stats", func(c *gin.Context) {
		stats, err := ad.analytics.stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	group.GET("/visitors", func(c *gin.Context) {
		visitors, err := ad.analytics.visitors(c.Request.Context(), 200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load visitors",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
			"visitors": visitors,
		})
	})

	group.POST("/privacy/delete-visitor-data", func(c *gin.Context) {
		removed, err := ad.analytics.cleanup(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Privacy cleanup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "removed": removed})
	})

	group.GET("/export/stats", func(c *gin.Context) {
		stats, err := ad.analytics.stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		ad.logger.Info().Str("visitor", ad.analytics.hashIP(c.ClientIP())).Msg("admin stats exported")
		c.JSON(http.StatusOK, stats)
	})
}
