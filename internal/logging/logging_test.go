package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/tempmail/internal/model"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "tempmail.log")

	logger, err := New(model.LogConfig{Level: "info", Path: path}, false)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("mailbox session started", zap.String("mailbox", "a@tmp.test"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mailbox":"a@tmp.test"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(model.LogConfig{Level: "loud", Path: filepath.Join(t.TempDir(), "x.log")}, false)
	assert.Error(t, err)
}

func TestNewDebugIgnoresLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	logger, err := New(model.LogConfig{Level: "error", Path: path}, true)
	require.NoError(t, err)
	logger.Debug("visible")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
}
