package testsupport

import (
	"path/filepath"
	"testing"

	"rewind/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and placeholder credentials. It defaults common fields and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.TMDB.APIKey = "test"
	cfg.Serializd.Email = "user@example.com"
	cfg.Serializd.Password = "hunter2"
	cfg.Import.WriteDelayMS = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithTMDBBaseURL points TMDB requests at a test server.
func WithTMDBBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.TMDB.BaseURL = url
	}
}

// WithSerializdBaseURL points Serializd requests at a test server.
func WithSerializdBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Serializd.BaseURL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
