package main

import (
	"time"

	"github.com/jonathan/dstplot/internal/assemble"
	"github.com/jonathan/dstplot/internal/cache"
	"github.com/jonathan/dstplot/internal/config"
	"github.com/jonathan/dstplot/internal/dst"
	"github.com/jonathan/dstplot/internal/fetch"
)

// newPipeline wires config -> cache -> fetcher -> assembler for one run.
// cacheDir overrides the configured cache directory when non-empty.
func newPipeline(configPath, cacheDir string, refresh bool) (*assemble.Assembler, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}

	var cacheOpts []cache.Option
	if cfg.MaxProvisionalAgeHours != 0 {
		age := time.Duration(cfg.MaxProvisionalAgeHours) * time.Hour
		if cfg.MaxProvisionalAgeHours < 0 {
			age = 0
		}
		cacheOpts = append(cacheOpts, cache.WithMaxProvisionalAge(age))
	}
	store := cache.New(cfg.CacheDir, cacheOpts...)

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Refresh = refresh
	if cfg.BaseURL != "" {
		fetchOpts.BaseURL = cfg.BaseURL
	}
	if cfg.UserAgent != "" {
		fetchOpts.UserAgent = cfg.UserAgent
	}
	if cfg.TimeoutSeconds > 0 {
		fetchOpts.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	fetcher := fetch.New(store, fetchOpts)
	return assemble.New(fetcher, cfg.Concurrency), cfg, nil
}

// parseRange validates the start/end date flags.
func parseRange(startStr, endStr string) (dst.DateRange, error) {
	start, err := dst.ParseDate(startStr)
	if err != nil {
		return dst.DateRange{}, err
	}
	end, err := dst.ParseDate(endStr)
	if err != nil {
		return dst.DateRange{}, err
	}
	return dst.NewDateRange(start, end)
}
