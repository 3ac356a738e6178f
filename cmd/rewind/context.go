package main

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"rewind/internal/config"
	"rewind/internal/identification"
	"rewind/internal/identification/tmdb"
	"rewind/internal/logging"
	"rewind/internal/services/serializd"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger builds the run logger from config, honoring a verbose override.
func (c *commandContext) newLogger(cfg *config.Config, verbose bool) (*slog.Logger, error) {
	if verbose {
		override := *cfg
		override.Logging.Level = "debug"
		return logging.NewFromConfig(&override)
	}
	return logging.NewFromConfig(cfg)
}

// newResolver wires the TMDB client and the override table into a per-run
// show resolver.
func (c *commandContext) newResolver(cfg *config.Config, logger *slog.Logger) (*identification.Resolver, error) {
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		return nil, err
	}
	overrides, err := identification.LoadOverrides(cfg.Import.OverridesPath)
	if err != nil {
		return nil, err
	}
	return identification.NewResolver(client, overrides, logger), nil
}

// newDiary builds the Serializd client from config.
func (c *commandContext) newDiary(cfg *config.Config) (*serializd.Client, error) {
	return serializd.New(serializd.Config{
		Email:      cfg.Serializd.Email,
		Password:   cfg.Serializd.Password,
		BaseURL:    cfg.Serializd.BaseURL,
		WriteDelay: time.Duration(cfg.Import.WriteDelayMS) * time.Millisecond,
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.Serializd.RequestTimeout) * time.Second},
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
