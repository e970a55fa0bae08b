package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	defaultAPIURL  = "http://localhost:8000/api/"
	defaultProfile = "default"
)

type Config struct {
	APIBaseURL     string
	Profile        string
	ConfigDir      string
	DBPath         string
	SessionPath    string
	LogPath        string
	RequestTimeout time.Duration
	ProfileRefresh time.Duration
}

func Default() Config {
	configDir := filepath.Join(userConfigDir(), "votedesk")
	return Config{
		APIBaseURL:     envOr("VOTEDESK_API_URL", defaultAPIURL),
		Profile:        envOr("VOTEDESK_PROFILE", defaultProfile),
		ConfigDir:      configDir,
		DBPath:         filepath.Join(configDir, "votedesk.db"),
		SessionPath:    filepath.Join(configDir, "session.json"),
		LogPath:        filepath.Join(configDir, "debug.log"),
		RequestTimeout: 15 * time.Second,
		ProfileRefresh: 2 * time.Minute,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
