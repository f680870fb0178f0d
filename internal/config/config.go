package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	AppEnv           string
	Port             int
	DataDir          string
	CharactersPath   string
	SettingsPath     string
	UploadsDir       string
	LogLevel         string
	LogFormat        string
	MaxWSConnections int64
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		DataDir:        getEnv("DATA_DIR", "./data"),
		CharactersPath: getEnv("CHARACTERS_PATH", ""),
		SettingsPath:   getEnv("SETTINGS_PATH", ""),
		UploadsDir:     getEnv("UPLOADS_DIR", "./uploads"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}

	port, err := strconv.Atoi(getEnv("PORT", "3000"))
	if err != nil {
		return nil, fmt.Errorf("PORT must be a number: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
	}
	cfg.Port = port

	maxConns, err := strconv.ParseInt(getEnv("MAX_WS_CONNECTIONS", "256"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MAX_WS_CONNECTIONS must be a number: %w", err)
	}
	if maxConns < 1 {
		return nil, fmt.Errorf("MAX_WS_CONNECTIONS must be positive, got %d", maxConns)
	}
	cfg.MaxWSConnections = maxConns

	if cfg.CharactersPath == "" {
		cfg.CharactersPath = filepath.Join(cfg.DataDir, "characters.json")
	}
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = filepath.Join(cfg.DataDir, "settings.json")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
