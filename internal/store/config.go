// File path: internal/store/config.go
package store

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config controls the SQLite-backed catalog connection.
type Config struct {
	Path string `json:"path"`

	MaxOpenConns int `json:"max_open_conns"`
	MaxIdleConns int `json:"max_idle_conns"`

	ConnMaxLifetime time.Duration `json:"-"`
	BusyTimeout     time.Duration `json:"-"`
}

// Merge overlays non-zero override fields onto the base configuration.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.Path) != "" {
		result.Path = strings.TrimSpace(override.Path)
	}
	if override.MaxOpenConns > 0 {
		result.MaxOpenConns = override.MaxOpenConns
	}
	if override.MaxIdleConns > 0 {
		result.MaxIdleConns = override.MaxIdleConns
	}
	if override.ConnMaxLifetime > 0 {
		result.ConnMaxLifetime = override.ConnMaxLifetime
	}
	if override.BusyTimeout > 0 {
		result.BusyTimeout = override.BusyTimeout
	}
	return result
}

// LoadConfig builds a Config from defaults overlaid with JOURNEY_DB_*
// environment variables.
func LoadConfig() (Config, error) {
	cfg := Config{
		Path:            defaultPath(),
		MaxOpenConns:    8,
		MaxIdleConns:    4,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     5 * time.Second,
	}
	env := Config{Path: strings.TrimSpace(os.Getenv("JOURNEY_DB_PATH"))}
	if raw := strings.TrimSpace(os.Getenv("JOURNEY_DB_MAX_OPEN_CONNS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			env.MaxOpenConns = parsed
		}
	}
	if raw := strings.TrimSpace(os.Getenv("JOURNEY_DB_BUSY_TIMEOUT")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			env.BusyTimeout = parsed
		}
	}
	return cfg.Merge(env), nil
}

func defaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".guestjourney", "catalog.db")
	}
	return filepath.Join(os.TempDir(), "guestjourney-catalog.db")
}
