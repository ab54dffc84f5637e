// Package config loads process configuration for relayd.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/objrelay/pkg/logger"
)

// Config is the relayd process configuration.
// Storage settings are resolved separately by storage.New.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`
	HTTP   HTTPConfig
	Log    logger.Config
}

// HTTPConfig configures the HTTP server and API.
type HTTPConfig struct {
	Addr               string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout        time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout       time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"2m"`
	ShutdownTimeout    time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxUploadSize      int64         `env:"HTTP_MAX_UPLOAD" envDefault:"52428800"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads .env.<APP_ENV> and .env when present, then parses the environment.
// Variables already set in the process win over file values.
func Load() (*Config, error) {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "local"
	}

	for _, file := range []string{".env." + appEnv, ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	return parse(nil)
}

// parse parses environment into a Config; nil means the process environment.
func parse(environment map[string]string) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: environment})
	if err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return &cfg, nil
}
