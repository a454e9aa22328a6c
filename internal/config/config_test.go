package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENCRYPTION_KEY", "k")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENCRYPTION_KEY", "key")
	t.Setenv("CORS_ORIGINS", " http://a.test , http://b.test ")
	t.Setenv("HTTP_PORT", "9001")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SEARCH_LIMIT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, "0.0.0.0:9001", cfg.HTTPAddr())
	assert.Equal(t, 10, cfg.SearchLimit)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENCRYPTION_KEY", "key")
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadClientUsesSavedSession(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("INBOX_SESSION_DIR", dir)
	t.Setenv("INBOX_TOKEN", "")
	t.Setenv("INBOX_USER_ID", "")
	t.Setenv("INBOX_BASE_URL", "")

	seed := &ClientConfig{SessionDir: dir}
	require.NoError(t, seed.SaveSession(Session{BaseURL: "http://example.test:9000/", Token: "tok", UserID: 42}))

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.Token)
	assert.Equal(t, int64(42), cfg.UserID)
	assert.Equal(t, "http://example.test:9000", cfg.BaseURL)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)

	require.NoError(t, cfg.ClearSession())
	s, err := cfg.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestLoadClientRejectsRelativeURL(t *testing.T) {
	t.Setenv("INBOX_SESSION_DIR", t.TempDir())
	t.Setenv("INBOX_BASE_URL", "localhost")
	_, err := LoadClient()
	assert.Error(t, err)
}

func TestLoadClientDefaultsNonPositiveReconnectDelay(t *testing.T) {
	t.Setenv("INBOX_SESSION_DIR", t.TempDir())
	t.Setenv("INBOX_BASE_URL", "http://localhost:8000")
	t.Setenv("WS_RECONNECT_DELAY", "0s")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.ReconnectDelay)
}
