package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"rewind/internal/config"
)

func setCredentialEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TMDB_API_KEY", "test-key")
	t.Setenv("SERIALIZD_EMAIL", "user@example.com")
	t.Setenv("SERIALIZD_PASSWORD", "secret")
}

func TestLoadDefaultConfigUsesEnvCredentialsAndExpandsPaths(t *testing.T) {
	setCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "rewind")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.LogDir != filepath.Join(wantState, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Serializd.Email != "user@example.com" {
		t.Fatalf("expected Serializd email from env, got %q", cfg.Serializd.Email)
	}
	if cfg.TMDB.BaseURL != config.Default().TMDB.BaseURL {
		t.Fatalf("unexpected TMDB base url: %q", cfg.TMDB.BaseURL)
	}
	if cfg.Import.DedupWindowDays != 3 {
		t.Fatalf("expected default dedup window of 3 days, got %d", cfg.Import.DedupWindowDays)
	}
	if cfg.Import.Order != "oldest" {
		t.Fatalf("expected default order oldest, got %q", cfg.Import.Order)
	}
	if cfg.Import.WriteDelayMS != 500 {
		t.Fatalf("expected default write delay 500ms, got %d", cfg.Import.WriteDelayMS)
	}
	if !filepath.IsAbs(cfg.Import.OverridesPath) {
		t.Fatalf("expected expanded overrides path, got %q", cfg.Import.OverridesPath)
	}
	if cfg.LockPath() != filepath.Join(wantState, "rewind.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	setCredentialEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "rewind.toml")

	type payload struct {
		TMDB struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"tmdb"`
		Import struct {
			DedupWindowDays int    `toml:"dedup_window_days"`
			Order           string `toml:"order"`
		} `toml:"import"`
	}
	custom := payload{}
	custom.TMDB.APIKey = "abc123"
	custom.TMDB.BaseURL = "https://example.com/tmdb"
	custom.Import.DedupWindowDays = 7
	custom.Import.Order = "newest"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.TMDB.APIKey != "abc123" {
		t.Fatalf("expected TMDB key from file, got %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.BaseURL != "https://example.com/tmdb" {
		t.Fatalf("expected TMDB base url override, got %q", cfg.TMDB.BaseURL)
	}
	if cfg.Import.DedupWindowDays != 7 {
		t.Fatalf("expected dedup window 7, got %d", cfg.Import.DedupWindowDays)
	}
	if cfg.Import.Order != "newest" {
		t.Fatalf("expected order newest, got %q", cfg.Import.Order)
	}
}

func TestEnvCredentialsFillEmptyFileValues(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "rewind.toml")

	type payload struct {
		TMDB struct {
			APIKey string `toml:"api_key"`
		} `toml:"tmdb"`
	}
	custom := payload{}
	custom.TMDB.APIKey = "file-tmdb"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("TMDB_API_KEY", "env-tmdb")
	t.Setenv("SERIALIZD_EMAIL", "env@example.com")
	t.Setenv("SERIALIZD_PASSWORD", "env-secret")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.TMDB.APIKey != "file-tmdb" {
		t.Errorf("expected file value to win for TMDB key, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Serializd.Email != "env@example.com" {
		t.Errorf("expected Serializd email from env, got %q", cfg.Serializd.Email)
	}
	if cfg.Serializd.Password != "env-secret" {
		t.Errorf("expected Serializd password from env, got %q", cfg.Serializd.Password)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_tmdb_api_key_here") {
		t.Fatalf("sample config missing placeholder TMDB key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StateDir, "rewind") {
		t.Fatalf("expected state dir to contain rewind, got %q", cfg.Paths.StateDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.TMDB.APIKey = "key"
		cfg.Serializd.Email = "user@example.com"
		cfg.Serializd.Password = "secret"
		return cfg
	}

	cfg := base()
	cfg.TMDB.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing TMDB key")
	}

	cfg = base()
	cfg.Serializd.Password = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing Serializd password")
	}

	cfg = base()
	cfg.Import.DedupWindowDays = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative dedup window")
	}

	cfg = base()
	cfg.Import.Order = "sideways"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown order")
	}

	cfg = base()
	cfg.Serializd.RequestTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive request timeout")
	}
}
