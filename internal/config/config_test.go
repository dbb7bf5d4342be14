package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults fill what the file leaves out", func(t *testing.T) {
		// Given: a config file with only the log level
		path := writeConfig(t, "log-level: debug\n")

		// When: loading it
		conf, err := Load(path)

		// Then: every other field has its default
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "8080", conf.SocketPort)
		assert.Equal(t, []string{"*"}, conf.AllowedOrigins)
		assert.True(t, conf.Matchmaking.QuickEnabled)
		assert.True(t, conf.Matchmaking.RoomEnabled)
		assert.Equal(t, "quick", conf.Matchmaking.DefaultMode)
		assert.Equal(t, 32, conf.Matchmaking.CodeAttempts)
		assert.Equal(t, 30*time.Second, conf.Liveness.Interval)
		assert.Equal(t, 10*time.Second, conf.Liveness.WriteTimeout)
		assert.Equal(t, 32, conf.Connection.SendBuffer)
		assert.Equal(t, int64(4096), conf.Connection.ReadLimit)
		assert.False(t, conf.Redis.Enabled)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		// Given: a file port and a PORT variable
		path := writeConfig(t, "socket-port: \"7000\"\n")
		t.Setenv("PORT", "7001")
		t.Setenv("LIVENESS_INTERVAL", "5s")

		// When: loading
		conf, err := Load(path)

		// Then: the environment wins
		require.NoError(t, err)
		assert.Equal(t, "7001", conf.SocketPort)
		assert.Equal(t, 5*time.Second, conf.Liveness.Interval)
	})

	t.Run("Disabled default mode is rejected", func(t *testing.T) {
		path := writeConfig(t, "matchmaking:\n  quick-enabled: false\n  default-mode: quick\n")

		_, err := Load(path)

		require.Error(t, err)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))

		require.Error(t, err)
		assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "nope.yml")) })
	})
}

func TestMatchmaking_Enabled(t *testing.T) {
	m := Matchmaking{QuickEnabled: true}

	assert.True(t, m.Enabled("quick"))
	assert.False(t, m.Enabled("room"))
	assert.False(t, m.Enabled("ranked"))
}
