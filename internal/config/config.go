package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is everything the server reads from its environment. Values come
// from the process environment, with a .env file loaded first if present.
type Config struct {
	Port string

	// Upstream content API. Either may be empty; the relay routes report
	// that per request instead of refusing to start.
	APIURL         string
	APIKey         string
	SongCollection string

	DBPath      string
	LayoutFile  string
	SessionIdle time.Duration
	MaxSessions int

	RelayRPS   int
	RelayBurst int

	// Per-IP budget for the page and the desktop interaction API.
	DesktopRPS   int
	DesktopBurst int

	LogLevel  string
	LogFormat string

	SMTP  SMTPConfig
	Admin AdminConfig
}

// SMTPConfig configures the contact form mailer.
type SMTPConfig struct {
	Host    string
	Port    string
	User    string
	Pass    string
	ToEmail string
}

// AdminConfig holds the dashboard credentials.
type AdminConfig struct {
	Username string
	Password string
	// Defaulted is set when either credential fell back to its development
	// value.
	Defaulted bool
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv.
func LoadFrom(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:           get("PORT", "8080"),
		APIURL:         strings.TrimRight(get("API_URL", ""), "/"),
		APIKey:         get("API_KEY", ""),
		SongCollection: get("SONG_COLLECTION", "portfolio"),
		DBPath:         get("DB_PATH", "portfolio.db"),
		LayoutFile:     get("LAYOUT_FILE", ""),
		LogLevel:       get("LOG_LEVEL", "info"),
		LogFormat:      get("LOG_FORMAT", "console"),
		SMTP: SMTPConfig{
			Host:    get("SMTP_HOST", "smtp.gmail.com"),
			Port:    get("SMTP_PORT", "587"),
			User:    get("SMTP_USER", ""),
			Pass:    get("SMTP_PASS", ""),
			ToEmail: get("TO_EMAIL", ""),
		},
		Admin: AdminConfig{
			Username: get("ADMIN_USERNAME", ""),
			Password: get("ADMIN_PASSWORD", ""),
		},
	}

	if cfg.Admin.Username == "" {
		cfg.Admin.Username = "admin"
		cfg.Admin.Defaulted = true
	}
	if cfg.Admin.Password == "" {
		cfg.Admin.Password = "admin123"
		cfg.Admin.Defaulted = true
	}

	var err error
	if cfg.SessionIdle, err = time.ParseDuration(get("SESSION_IDLE", "30m")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_IDLE: %w", err)
	}
	if cfg.SessionIdle <= 0 {
		return nil, fmt.Errorf("invalid SESSION_IDLE: must be positive")
	}
	if cfg.RelayRPS, err = positiveInt(get("RELAY_RPS", "10")); err != nil {
		return nil, fmt.Errorf("invalid RELAY_RPS: %w", err)
	}
	if cfg.RelayBurst, err = positiveInt(get("RELAY_BURST", "20")); err != nil {
		return nil, fmt.Errorf("invalid RELAY_BURST: %w", err)
	}
	if cfg.MaxSessions, err = positiveInt(get("MAX_SESSIONS", "1000")); err != nil {
		return nil, fmt.Errorf("invalid MAX_SESSIONS: %w", err)
	}
	if cfg.DesktopRPS, err = positiveInt(get("DESKTOP_RPS", "30")); err != nil {
		return nil, fmt.Errorf("invalid DESKTOP_RPS: %w", err)
	}
	if cfg.DesktopBurst, err = positiveInt(get("DESKTOP_BURST", "60")); err != nil {
		return nil, fmt.Errorf("invalid DESKTOP_BURST: %w", err)
	}

	return cfg, nil
}

// UpstreamConfigured reports whether both the API URL and key are set.
func (c *Config) UpstreamConfigured() bool {
	return c.APIURL != "" && c.APIKey != ""
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
