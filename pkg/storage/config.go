package storage

import (
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds S3-compatible storage configuration.
// Any field left at its zero value is resolved from the environment when the
// Relay is constructed, and never re-read afterwards.
type Config struct {
	// Endpoint is the custom S3 endpoint URL (R2, MinIO, ...).
	// Empty means the default AWS endpoint resolution.
	Endpoint string `env:"STORAGE_ENDPOINT"`

	// Region is the signing region (default: auto).
	Region string `env:"STORAGE_REGION" envDefault:"auto"`

	AccessKey string `env:"STORAGE_ACCESS_KEY"`
	SecretKey string `env:"STORAGE_SECRET_KEY"`

	// Bucket is the default bucket used when a request does not name one.
	Bucket string `env:"STORAGE_BUCKET"`

	// PublicDomain is the CDN or custom domain that public URLs are built on.
	// When set it takes precedence over the endpoint for every derived URL.
	PublicDomain string `env:"STORAGE_DOMAIN"`

	// PathStyle enables path-style addressing on the S3 client (MinIO).
	PathStyle bool `env:"STORAGE_PATH_STYLE"`

	// MaxDownloadSize caps the body buffered by DownloadAndUpload, in bytes.
	// Negative disables the cap.
	MaxDownloadSize int64 `env:"STORAGE_MAX_DOWNLOAD" envDefault:"52428800"`
}

// Default configuration values.
const (
	DefaultRegion          = "auto"
	DefaultMaxDownloadSize = 50 << 20 // 50MB
)

// ConfigFromEnv parses storage configuration from the given environment.
// A nil environment means the process environment.
func ConfigFromEnv(environment map[string]string) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: environment})
	if err != nil {
		return Config{}, &ConfigurationError{Field: "environment", Err: err}
	}
	return cfg, nil
}

// resolve fills every unset field of c from fromEnv and applies defaults.
func (c Config) resolve(fromEnv Config) Config {
	c.Endpoint = firstNonEmpty(c.Endpoint, fromEnv.Endpoint)
	c.Region = firstNonEmpty(c.Region, fromEnv.Region, DefaultRegion)
	c.AccessKey = firstNonEmpty(c.AccessKey, fromEnv.AccessKey)
	c.SecretKey = firstNonEmpty(c.SecretKey, fromEnv.SecretKey)
	c.Bucket = firstNonEmpty(c.Bucket, fromEnv.Bucket)
	c.PublicDomain = firstNonEmpty(c.PublicDomain, fromEnv.PublicDomain)
	c.PathStyle = c.PathStyle || fromEnv.PathStyle

	if c.MaxDownloadSize == 0 {
		c.MaxDownloadSize = fromEnv.MaxDownloadSize
	}
	if c.MaxDownloadSize == 0 {
		c.MaxDownloadSize = DefaultMaxDownloadSize
	}
	return c
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
