package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the snipbin CLI.
//
// Fields:
//   - ServerURL: base URL of the snipbin HTTP API.
//   - SessionDB: SQLite file that keeps the access credential between runs.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	ServerURL      string
	SessionDB      string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.SessionDB = defaultSessionDB()
	c.RequestTimeout = 10 * time.Second
}

func defaultSessionDB() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "snipbin-session.db"
	}
	return filepath.Join(dir, "snipbin", "session.db")
}

// LoadConfig applies defaults and then the JSON file at jsonPath, if any.
func LoadConfig(jsonPath string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, jsonPath); err != nil {
		return nil, err
	}
	return cfg, nil
}
