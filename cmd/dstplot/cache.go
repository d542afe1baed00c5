package main

import (
	"fmt"
	"os"

	"github.com/jonathan/dstplot/internal/cache"
	"github.com/jonathan/dstplot/internal/config"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or empty the page cache",
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached month pages",
	RunE:  runCacheLs,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached month pages",
	RunE:  runCacheClear,
}

var (
	cacheDirFlag    string
	cacheConfigFlag string
)

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "", "Cache directory for downloaded pages (default: cache)")
	cacheCmd.PersistentFlags().StringVar(&cacheConfigFlag, "config", "", "Path to JSON config file")

	cacheCmd.AddCommand(cacheLsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openCache() (*cache.Cache, error) {
	cfg, err := config.Load(cacheConfigFlag)
	if err != nil {
		return nil, err
	}
	dir := cfg.CacheDir
	if cacheDirFlag != "" {
		dir = cacheDirFlag
	}
	return cache.New(dir), nil
}

func runCacheLs(_ *cobra.Command, _ []string) error {
	store, err := openCache()
	if err != nil {
		return err
	}
	entries, err := store.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(os.Stdout, "%s  %-11s  %7d bytes  fetched %s\n",
			e.Month, e.Variant, e.Size, e.ModTime.Format("2006-01-02 15:04"))
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "cache is empty")
	}
	return nil
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	store, err := openCache()
	if err != nil {
		return err
	}
	removed, err := store.Clear()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stdout, "Removed %d cached pages\n", removed)
	return nil
}
