// Package config loads the notes API configuration from flags, environment variables and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Note-scoped rename modes.
const (
	RenameModeRelink = "relink"
	RenameModeGlobal = "global"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Server  ServerConfig
	Auth    AuthConfig
	Tags    TagsConfig
	Suggest SuggestConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	// DataPath holds the SQLite database, the tag index and the suggestion cache.
	DataPath string
}

// DatabasePath returns the SQLite database file.
func (s StorageConfig) DatabasePath() string { return filepath.Join(s.DataPath, "notes.db") }

// IndexPath returns the directory of the tag name index.
func (s StorageConfig) IndexPath() string { return filepath.Join(s.DataPath, "search") }

// CachePath returns the directory of the suggestion cache.
func (s StorageConfig) CachePath() string { return filepath.Join(s.DataPath, "cache", "suggest") }

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port               string        // Server port (default: 8080)
	ReadTimeout        time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout       time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout        time.Duration // HTTP idle timeout (default: 60s)
	CORSAllowedOrigins []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key for access tokens (32 bytes).
	// Set by auth.LoadOrGenerateKey during startup.
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration
	// TrustUserHeader accepts X-User-Id from an authenticating gateway.
	TrustUserHeader bool
	RateLimit       int // requests per minute per client
	RateBurst       int
}

// TagsConfig holds tag subsystem behaviour.
type TagsConfig struct {
	MaxNameLength  int
	NoteRenameMode string
	DeleteOrphans  bool
}

// SuggestConfig holds suggestion engine configuration.
type SuggestConfig struct {
	DefaultTags  int
	MaxTags      int
	CacheEnabled bool
	CacheTTL     time.Duration
	RateLimit    int // requests per minute per client
	RateBurst    int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("notes-api", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the database, index and cache")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-allowed-origins", "", "Comma separated CORS origins (default: *)")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (default: 24h)")
	trustUserHeader := fs.String("trust-user-header", "", "Accept X-User-Id from a gateway (default: true)")

	renameMode := fs.String("note-rename-mode", "", "Note-scoped rename: relink or global (default: relink)")
	deleteOrphans := fs.String("delete-orphan-tags", "", "Delete tags left without notes (default: true)")

	suggestCache := fs.String("suggest-cache", "", "Cache suggestion results (default: true)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:               getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSAllowedOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			TrustUserHeader: getBoolConfigValue(*trustUserHeader, "AUTH_TRUST_USER_HEADER", true),
			RateLimit:       getIntConfigValue("", "AUTH_RATE_LIMIT", 20),
			RateBurst:       getIntConfigValue("", "AUTH_RATE_BURST", 10),
		},
		Tags: TagsConfig{
			MaxNameLength:  getIntConfigValue("", "TAGS_MAX_NAME_LENGTH", 64),
			NoteRenameMode: strings.ToLower(getConfigValue(*renameMode, "TAGS_NOTE_RENAME_MODE", RenameModeRelink)),
			DeleteOrphans:  getBoolConfigValue(*deleteOrphans, "TAGS_DELETE_ORPHANS", true),
		},
		Suggest: SuggestConfig{
			DefaultTags:  getIntConfigValue("", "SUGGEST_DEFAULT_TAGS", 5),
			MaxTags:      getIntConfigValue("", "SUGGEST_MAX_TAGS", 100),
			CacheEnabled: getBoolConfigValue(*suggestCache, "SUGGEST_CACHE_ENABLED", true),
			RateLimit:    getIntConfigValue("", "SUGGEST_RATE_LIMIT", 120),
			RateBurst:    getIntConfigValue("", "SUGGEST_RATE_BURST", 30),
		},
	}

	var err error
	durations := []struct {
		dst          *time.Duration
		flagValue    string
		envKey       string
		defaultValue string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Auth.AccessTokenDuration, *accessTokenDuration, "ACCESS_TOKEN_DURATION", "24h"},
		{&cfg.Suggest.CacheTTL, "", "SUGGEST_CACHE_TTL", "24h"},
	}
	for _, d := range durations {
		*d.dst, err = getDurationConfigValue(d.flagValue, d.envKey, d.defaultValue)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Tags.NoteRenameMode {
	case RenameModeRelink, RenameModeGlobal:
	default:
		return fmt.Errorf("invalid note rename mode: %s (must be relink or global)", c.Tags.NoteRenameMode)
	}

	if c.Tags.MaxNameLength < 1 {
		return fmt.Errorf("tag name length limit must be positive, got %d", c.Tags.MaxNameLength)
	}

	if c.Suggest.MaxTags < 1 {
		return fmt.Errorf("suggest max tags must be positive, got %d", c.Suggest.MaxTags)
	}
	if c.Suggest.DefaultTags < 1 || c.Suggest.DefaultTags > c.Suggest.MaxTags {
		return fmt.Errorf("suggest default tags must be between 1 and %d, got %d", c.Suggest.MaxTags, c.Suggest.DefaultTags)
	}

	if c.Auth.RateLimit < 1 || c.Suggest.RateLimit < 1 {
		return errors.New("rate limits must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults to ~/Archipelago/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Archipelago", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return d, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real env vars win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
