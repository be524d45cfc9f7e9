package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := loadConfig(t.Context(), filepath.Join(t.TempDir(), "missing.env"), envconfig.MapLookuper(nil))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Servers:        []string{"127.0.0.1:7000"},
		ConnectTimeout: 5 * time.Second,
		PoolSize:       4,
		LogLevel:       "warn",
		Output:         "text",
	}, config)
}

func TestLoadConfig_Environment(t *testing.T) {
	config, err := loadConfig(t.Context(), filepath.Join(t.TempDir(), "missing.env"), envconfig.MapLookuper(map[string]string{
		"KV_SERVERS":         "10.0.0.1:7000,10.0.0.2:7000",
		"KV_CONNECT_TIMEOUT": "250ms",
		"KV_POOL_SIZE":       "16",
		"KV_OUTPUT":          "json",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.1:7000", "10.0.0.2:7000"}, config.Servers)
	assert.Equal(t, 250*time.Millisecond, config.ConnectTimeout)
	assert.EqualValues(t, 16, config.PoolSize)
	assert.Equal(t, "json", config.Output)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")
	require.NoError(t, os.WriteFile(path, []byte("KV_TEST_DOTENV_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("KV_TEST_DOTENV_LEVEL") })

	_, err := loadConfig(t.Context(), path, envconfig.MapLookuper(nil))
	require.NoError(t, err)
	assert.Equal(t, "debug", os.Getenv("KV_TEST_DOTENV_LEVEL"))
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadConfig(t.Context(), filepath.Join(t.TempDir(), "missing.env"), envconfig.MapLookuper(map[string]string{
		"KV_POOL_SIZE": "many",
	}))
	require.Error(t, err)
}

func TestMakeLogger(t *testing.T) {
	logger, err := MakeLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = MakeLogger("")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = MakeLogger("loud")
	require.Error(t, err)
}
