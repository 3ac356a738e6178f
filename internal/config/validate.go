package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateSerializd(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/rewind/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'rewind config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateSerializd() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/rewind/config.toml"
	}
	if c.Serializd.Email == "" {
		return fmt.Errorf("serializd.email is required. Set SERIALIZD_EMAIL env var or edit %s", defaultPath)
	}
	if c.Serializd.Password == "" {
		return fmt.Errorf("serializd.password is required. Set SERIALIZD_PASSWORD env var or edit %s", defaultPath)
	}
	if c.Serializd.RequestTimeout <= 0 {
		return errors.New("serializd.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateImport() error {
	if c.Import.DedupWindowDays <= 0 {
		return errors.New("import.dedup_window_days must be positive")
	}
	switch c.Import.Order {
	case "oldest", "newest":
	default:
		return fmt.Errorf("import.order must be %q or %q", "oldest", "newest")
	}
	if c.Import.WriteDelayMS < 0 {
		return errors.New("import.write_delay_ms must be >= 0")
	}
	return nil
}
