package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ClientConfig holds the terminal client settings.
type ClientConfig struct {
	BaseURL string
	Token   string
	UserID  int64

	HTTPTimeout    time.Duration
	SearchDebounce time.Duration

	ReconnectDelay       time.Duration
	ReconnectMaxDelay    time.Duration
	ReconnectMultiplier  float64
	ReconnectMaxAttempts int
	PingPeriod           time.Duration

	SessionDir string

	LogLevel  string
	LogPretty bool
}

// Session is the login state persisted by "inbox login".
type Session struct {
	BaseURL  string `json:"base_url"`
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// LoadClient reads the client configuration. Values missing from the
// environment are filled from the saved session, if any.
func LoadClient() (*ClientConfig, error) {
	loadDotEnv()

	cfg := &ClientConfig{
		BaseURL: getEnv("INBOX_BASE_URL", "http://localhost:8000"),
		Token:   os.Getenv("INBOX_TOKEN"),
		UserID:  getEnvAsInt64("INBOX_USER_ID", 0),

		HTTPTimeout:    getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),
		SearchDebounce: getEnvAsDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),

		ReconnectDelay:       getEnvAsDuration("WS_RECONNECT_DELAY", time.Second),
		ReconnectMaxDelay:    getEnvAsDuration("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		ReconnectMultiplier:  getEnvAsFloat("WS_RECONNECT_MULTIPLIER", 2),
		ReconnectMaxAttempts: getEnvAsInt("WS_RECONNECT_MAX_ATTEMPTS", 10),
		PingPeriod:           getEnvAsDuration("WS_PING_PERIOD", 30*time.Second),

		SessionDir: getEnv("INBOX_SESSION_DIR", defaultSessionDir()),

		LogLevel:  getEnv("LOG_LEVEL", "warn"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
	}

	if s, err := cfg.LoadSession(); err == nil && s != nil {
		if cfg.Token == "" {
			cfg.Token = s.Token
		}
		if cfg.UserID == 0 {
			cfg.UserID = s.UserID
		}
		if os.Getenv("INBOX_BASE_URL") == "" && s.BaseURL != "" {
			cfg.BaseURL = s.BaseURL
		}
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("INBOX_BASE_URL must be an absolute URL, got %q", cfg.BaseURL)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.SearchDebounce <= 0 {
		return nil, fmt.Errorf("SEARCH_DEBOUNCE must be positive")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.ReconnectMultiplier < 1 {
		cfg.ReconnectMultiplier = 1
	}
	return cfg, nil
}

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "elearning-inbox")
}

func (c *ClientConfig) sessionPath() string {
	if c.SessionDir == "" {
		return ""
	}
	return filepath.Join(c.SessionDir, "session.json")
}

// LoadSession returns the saved session, or nil when none exists.
func (c *ClientConfig) LoadSession() (*Session, error) {
	p := c.sessionPath()
	if p == "" {
		return nil, nil
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// SaveSession persists s with owner-only permissions.
func (c *ClientConfig) SaveSession(s Session) error {
	p := c.sessionPath()
	if p == "" {
		return fmt.Errorf("no session directory available")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}

// ClearSession removes the saved session.
func (c *ClientConfig) ClearSession() error {
	p := c.sessionPath()
	if p == "" {
		return nil
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
