// Package config provides configuration loading and validation for the CLI.
// Values resolve in order: defaults, JSON config file, DSTPLOT_* environment
// variables, then command-line flags on top.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Config holds every tunable of the tool. All fields are optional; missing
// values use defaults or come from CLI flags.
type Config struct {
	// CacheDir is the directory holding downloaded month pages.
	CacheDir string `json:"cache_dir,omitempty"`
	// BaseURL overrides the archive root, mainly for tests and mirrors.
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`
	// UserAgent is sent on every request.
	UserAgent string `json:"user_agent,omitempty"`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" validate:"min=0,max=600"`
	// Concurrency bounds parallel month downloads.
	Concurrency int `json:"concurrency,omitempty" validate:"min=0,max=16"`
	// MaxProvisionalAgeHours bounds how long provisional and real-time
	// cache entries are served before re-download. Zero keeps the default;
	// negative disables expiry.
	MaxProvisionalAgeHours int `json:"max_provisional_age_hours,omitempty"`

	// Chart geometry in pixels.
	Width  int `json:"width,omitempty" validate:"min=0,max=8192"`
	Height int `json:"height,omitempty" validate:"min=0,max=8192"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CacheDir:    "cache",
		Concurrency: 4,
		Width:       1280,
		Height:      720,
	}
}

// Load reads a JSON config file over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DSTPLOT_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("DSTPLOT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("DSTPLOT_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("DSTPLOT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("DSTPLOT_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("config error: field %q fails rule %q", f.Field(), f.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	if c.CacheDir == "" {
		return fmt.Errorf("config error: 'cache_dir' must not be empty")
	}
	return nil
}

var validate = validator.New()
