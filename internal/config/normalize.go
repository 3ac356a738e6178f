package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeSerializd()
	if err := c.normalizeImport(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeSerializd() {
	if c.Serializd.Email == "" {
		if value, ok := os.LookupEnv("SERIALIZD_EMAIL"); ok {
			c.Serializd.Email = strings.TrimSpace(value)
		}
	}
	if c.Serializd.Password == "" {
		if value, ok := os.LookupEnv("SERIALIZD_PASSWORD"); ok {
			c.Serializd.Password = value
		}
	}
	c.Serializd.Email = strings.TrimSpace(c.Serializd.Email)
	c.Serializd.BaseURL = strings.TrimSpace(c.Serializd.BaseURL)
	if c.Serializd.BaseURL == "" {
		c.Serializd.BaseURL = defaultSerializdBaseURL
	}
	if c.Serializd.RequestTimeout <= 0 {
		c.Serializd.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeImport() error {
	var err error
	if c.Import.DedupWindowDays == 0 {
		c.Import.DedupWindowDays = defaultDedupWindowDays
	}
	c.Import.Order = strings.ToLower(strings.TrimSpace(c.Import.Order))
	if c.Import.Order == "" {
		c.Import.Order = defaultOrder
	}
	if c.Import.WriteDelayMS < 0 {
		c.Import.WriteDelayMS = defaultWriteDelayMS
	}
	if strings.TrimSpace(c.Import.OverridesPath) == "" {
		c.Import.OverridesPath = defaultOverridesPath
	}
	if c.Import.OverridesPath, err = expandPath(c.Import.OverridesPath); err != nil {
		return fmt.Errorf("import.overrides_path: %w", err)
	}
	if strings.TrimSpace(c.Import.ExcludePath) != "" {
		if c.Import.ExcludePath, err = expandPath(c.Import.ExcludePath); err != nil {
			return fmt.Errorf("import.exclude_path: %w", err)
		}
	} else {
		c.Import.ExcludePath = ""
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
