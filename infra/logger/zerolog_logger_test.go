package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/lineloss/config"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	require.NotNil(t, l)
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestConfigureWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lineloss.log")
	require.NoError(t, Configure(config.LoggingConfig{Level: "info", Path: path, MaxSizeMB: 1}))
	t.Cleanup(func() {
		_ = Close()
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	})

	l := New("file-test")
	l.Debugf("hidden")
	l.Infof("cycle %d done", 7)
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"file-test"`)
	assert.Contains(t, string(data), "cycle 7 done")
	assert.NotContains(t, string(data), "hidden")
}

func TestConfigureRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Configure(config.LoggingConfig{Level: "loud"}))
}
