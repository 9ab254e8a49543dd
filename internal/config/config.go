// Package config loads pagedeco settings from an optional YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/pagedeco/internal/origin"
	"github.com/pfrederiksen/pagedeco/internal/schedule"
	"github.com/pfrederiksen/pagedeco/internal/seo"
)

const (
	configPathEnv      = "PAGEDECO_CONFIG"
	originEnv          = "PAGEDECO_ORIGIN"
	siteDirEnv         = "PAGEDECO_SITE_DIR"
	logLevelEnv        = "PAGEDECO_LOG_LEVEL"
	sanitizeColumnsEnv = "PAGEDECO_SANITIZE_COLUMNS"

	defaultLogLevel = "info"
)

// Config holds everything needed to build a page pipeline.
type Config struct {
	// Origin is the base URL pages, schedules and fragments are fetched from.
	Origin string `yaml:"origin"`
	// SiteDir serves the same resources from a local export instead. It wins
	// over Origin when both are set.
	SiteDir string `yaml:"site_dir"`

	GlobalSchedule  string        `yaml:"global_schedule"`
	SEOFeed         string        `yaml:"seo_feed"`
	TitleSuffix     string        `yaml:"title_suffix"`
	SanitizeColumns bool          `yaml:"sanitize_columns"`
	Timeout         time.Duration `yaml:"timeout"`
	UserAgent       string        `yaml:"user_agent"`
	LogLevel        string        `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		GlobalSchedule: schedule.GlobalPath,
		SEOFeed:        seo.FeedPath,
		TitleSuffix:    seo.TitleSuffix,
		Timeout:        origin.Timeout,
		UserAgent:      origin.UserAgent,
		LogLevel:       defaultLogLevel,
	}
}

// Load reads the YAML file at path, or at $PAGEDECO_CONFIG when path is
// empty, over the defaults and then applies environment overrides. No file at
// all is fine; a named file that cannot be read is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
		cfg = merge(cfg, fileCfg)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(originEnv); v != "" {
		c.Origin = v
	}
	if v := os.Getenv(siteDirEnv); v != "" {
		c.SiteDir = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(sanitizeColumnsEnv); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", sanitizeColumnsEnv, err)
		}
		c.SanitizeColumns = b
	}
	return nil
}

func merge(base, override Config) Config {
	if override.Origin != "" {
		base.Origin = override.Origin
	}
	if override.SiteDir != "" {
		base.SiteDir = override.SiteDir
	}
	if override.GlobalSchedule != "" {
		base.GlobalSchedule = override.GlobalSchedule
	}
	if override.SEOFeed != "" {
		base.SEOFeed = override.SEOFeed
	}
	if override.TitleSuffix != "" {
		base.TitleSuffix = override.TitleSuffix
	}
	if override.SanitizeColumns {
		base.SanitizeColumns = true
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}
	if override.UserAgent != "" {
		base.UserAgent = override.UserAgent
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	return base
}

// NewOrigin builds the origin the config points at.
func (c Config) NewOrigin() (origin.Origin, error) {
	if c.SiteDir != "" {
		dir, err := origin.NewDir(c.SiteDir)
		if err != nil {
			return nil, err
		}
		return dir, nil
	}
	if c.Origin == "" {
		return nil, fmt.Errorf("no origin configured: set origin or site_dir")
	}
	h, err := origin.NewHTTP(c.Origin,
		origin.WithTimeout(c.Timeout),
		origin.WithUserAgent(c.UserAgent),
	)
	if err != nil {
		return nil, err
	}
	return h, nil
}
