// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr   string
	DBPath       string
	ExportDir    string
	IndexTimeout time.Duration
}

// Load reads configuration from environment variables and returns a
// validated Config. All variables are optional and have defaults:
// PKGPANEL_LISTEN_ADDR (127.0.0.1:8420), PKGPANEL_DB_PATH (pkgpanel.db),
// PKGPANEL_EXPORT_DIR (exports), PKGPANEL_INDEX_TIMEOUT (30s).
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8420"
	if v, ok := os.LookupEnv("PKGPANEL_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "pkgpanel.db"
	if v, ok := os.LookupEnv("PKGPANEL_DB_PATH"); ok {
		dbPath = v
	}

	exportDir := "exports"
	if v, ok := os.LookupEnv("PKGPANEL_EXPORT_DIR"); ok {
		exportDir = v
	}

	indexTimeout := 30 * time.Second
	if v, ok := os.LookupEnv("PKGPANEL_INDEX_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PKGPANEL_INDEX_TIMEOUT has invalid duration %q: %w", v, err)
		}
		indexTimeout = parsed
	}

	return &Config{
		ListenAddr:   listenAddr,
		DBPath:       dbPath,
		ExportDir:    exportDir,
		IndexTimeout: indexTimeout,
	}, nil
}
