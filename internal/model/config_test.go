package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Poll.Interval())
	assert.Equal(t, 30*time.Second, cfg.Poll.FetchTimeout())
	assert.Equal(t, "TempMail", cfg.Archive.Folder)
	assert.True(t, cfg.Archive.TLS)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "backend:\n  base_url: https://mail.example.com/\npoll:\n  interval_sec: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://mail.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval())
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TEMPMAIL_BACKEND_BASE_URL", "http://env.test")
	t.Setenv("TEMPMAIL_ARCHIVE_IMAP_HOST", "imap.env.test")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://env.test", cfg.Backend.BaseURL)
	assert.Equal(t, "imap.env.test", cfg.Archive.IMAPHost)
	assert.Equal(t, "imap.env.test:993", cfg.Archive.Addr())
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	in := &AppConfig{
		Backend: BackendConfig{BaseURL: "http://saved.test", TimeoutSec: 7},
		Poll:    PollConfig{IntervalSec: 15, FetchTimeoutSec: 20},
		Archive: ArchiveConfig{IMAPHost: "imap.test", IMAPPort: 1143, Folder: "Keep"},
		Display: DisplayConfig{Theme: "default"},
	}
	require.NoError(t, SaveConfig(path, in))

	out, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://saved.test", out.Backend.BaseURL)
	assert.Equal(t, 7*time.Second, out.Backend.Timeout())
	assert.Equal(t, 15*time.Second, out.Poll.Interval())
	assert.Equal(t, "imap.test:1143", out.Archive.Addr())
	assert.Equal(t, "Keep", out.Archive.Folder)
}
