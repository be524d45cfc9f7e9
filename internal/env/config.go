// Package env loads the command line tool settings from the environment.
package env

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// DotEnvFile is loaded, when present, before the environment is read.
// Variables already set in the environment win.
const DotEnvFile = ".env.local"

type Config struct {
	Servers        []string      `env:"KV_SERVERS, default=127.0.0.1:7000"`
	ConnectTimeout time.Duration `env:"KV_CONNECT_TIMEOUT, default=5s"`
	PoolSize       int32         `env:"KV_POOL_SIZE, default=4"`
	LogLevel       string        `env:"KV_LOG_LEVEL, default=warn"`
	Output         string        `env:"KV_OUTPUT, default=text"`
}

func LoadConfig(ctx context.Context) (*Config, error) {
	return loadConfig(ctx, DotEnvFile, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, dotEnv string, lookuper envconfig.Lookuper) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(dotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &config,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}

	return &config, nil
}
