// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Metadata providers.
const (
	ProviderGoogleBooks = "googlebooks"
	ProviderOpenLibrary = "openlibrary"
	ProviderITunes      = "itunes"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Store    StoreConfig
	Server   ServerConfig
	Resolver ResolverConfig
	Inbox    InboxConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StoreConfig holds catalog persistence configuration.
type StoreConfig struct {
	// DataPath is the root directory for the catalog database and search index.
	DataPath string
	Backend  string        // badger (default) or sqlite
	Timeout  time.Duration // per-call store timeout (default: 15s)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 0, SSE streams are long-lived)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string
}

// ResolverConfig holds metadata lookup configuration.
type ResolverConfig struct {
	Timeout           time.Duration // per-lookup timeout (default: 10s)
	CacheTTL          time.Duration // how long matches are remembered (default: 30m)
	ISBNProvider      string        // googlebooks, openlibrary or itunes
	TitleProvider     string        // googlebooks, openlibrary or itunes
	GoogleBooksAPIKey string        // Optional
}

// InboxConfig holds the drop-directory token source configuration.
type InboxConfig struct {
	// Path is watched for *.json token files. Empty disables the watcher.
	Path string
	// UserID owns tokens dropped into the inbox.
	UserID string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	dataPath := flag.String("data-path", "", "Base path for catalog storage")
	storeBackend := flag.String("store-backend", "", "Catalog backend (badger, sqlite)")
	storeTimeout := flag.String("store-timeout", "", "Catalog call timeout (default: 15s)")

	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 0)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")

	resolverTimeout := flag.String("resolver-timeout", "", "Metadata lookup timeout (default: 10s)")
	resolverCacheTTL := flag.String("resolver-cache-ttl", "", "Metadata match cache TTL (default: 30m)")
	isbnProvider := flag.String("isbn-provider", "", "Provider for ISBN lookups (googlebooks, openlibrary, itunes)")
	titleProvider := flag.String("title-provider", "", "Provider for title lookups (googlebooks, openlibrary, itunes)")

	inboxPath := flag.String("inbox-path", "", "Directory watched for token files")
	inboxUser := flag.String("inbox-user", "", "User that owns inbox tokens")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
			Backend:  strings.ToLower(getConfigValue(*storeBackend, "STORE_BACKEND", BackendBadger)),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
		},
		Resolver: ResolverConfig{
			ISBNProvider:      strings.ToLower(getConfigValue(*isbnProvider, "RESOLVER_ISBN_PROVIDER", ProviderGoogleBooks)),
			TitleProvider:     strings.ToLower(getConfigValue(*titleProvider, "RESOLVER_TITLE_PROVIDER", ProviderGoogleBooks)),
			GoogleBooksAPIKey: getConfigValue("", "GOOGLE_BOOKS_API_KEY", ""),
		},
		Inbox: InboxConfig{
			Path:   getConfigValue(*inboxPath, "INBOX_PATH", ""),
			UserID: getConfigValue(*inboxUser, "INBOX_USER", "default"),
		},
	}

	durations := []struct {
		flagValue string
		envKey    string
		def       string
		dst       *time.Duration
	}{
		{*storeTimeout, "STORE_TIMEOUT", "15s", &cfg.Store.Timeout},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "0s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*resolverTimeout, "RESOLVER_TIMEOUT", "10s", &cfg.Resolver.Timeout},
		{*resolverCacheTTL, "RESOLVER_CACHE_TTL", "30m", &cfg.Resolver.CacheTTL},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.expandInboxPath(); err != nil {
		return nil, fmt.Errorf("invalid inbox path: %w", err)
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

	if c.Store.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Store.Backend {
	case BackendBadger, BackendSQLite:
	default:
		return fmt.Errorf("invalid store backend: %s (must be badger or sqlite)", c.Store.Backend)
	}

	if c.Store.Timeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if c.Resolver.Timeout <= 0 {
		return errors.New("RESOLVER_TIMEOUT must be positive")
	}

	for _, p := range []string{c.Resolver.ISBNProvider, c.Resolver.TitleProvider} {
		switch p {
		case ProviderGoogleBooks, ProviderOpenLibrary, ProviderITunes:
		default:
			return fmt.Errorf("invalid metadata provider: %s (must be googlebooks, openlibrary or itunes)", p)
		}
	}

	if c.Inbox.Path != "" && c.Inbox.UserID == "" {
		return errors.New("INBOX_USER is required when INBOX_PATH is set")
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

// expandDataPath defaults to ~/Shelf/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Shelf", "data")

	expanded, err := expandPath(c.Store.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Store.DataPath = expanded
	return nil
}

// expandInboxPath leaves an empty inbox path empty (watcher disabled).
func (c *Config) expandInboxPath() error {
	if c.Inbox.Path == "" {
		return nil
	}
	expanded, err := expandPath(c.Inbox.Path, "")
	if err != nil {
		return err
	}
	c.Inbox.Path = expanded
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
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

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Env vars already set take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
