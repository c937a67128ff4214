// Package config provides configuration management for Rolo.
// Settings are resolved in three layers: built-in defaults, an optional
// YAML config file, then environment variables with the ROLO_ prefix.
// Later layers win.
//
// User settings (e.g., user_name) are persisted to the settings table in
// the database. LoadConfigFromDB reads from the database first and falls back
// to environment variables. SaveConfig writes user settings to the database.
package config

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Rolo application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Security SecurityConfig `yaml:"security"`
	Notify   NotifyConfig   `yaml:"notify"`
	Backup   BackupConfig   `yaml:"backup"`
	Features FeaturesConfig `yaml:"features"`
	User     UserConfig     `yaml:"user"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // Server port (default: 7380)
	Host string `yaml:"host"` // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string `yaml:"engine"`       // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string `yaml:"data_path"`    // Path to data directory (default: ./data)
	PostgresDSN   string `yaml:"postgres_dsn"` // Postgres connection string, required when engine is postgres
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode   string `yaml:"mode"`             // Security mode: development, production (default: development)
	APIToken       string `yaml:"api_token"`        // API authentication token
	RateLimitRPS   int    `yaml:"rate_limit_rps"`   // Requests per second per client (default: 20)
	RateLimitBurst int    `yaml:"rate_limit_burst"` // Burst allowance above the sustained rate (default: 40)
}

// NotifyConfig contains follow-up reminder and inbox watcher settings.
type NotifyConfig struct {
	ReminderEnabled  bool   `yaml:"reminder_enabled"`  // Enable the follow-up reminder loop (default: false)
	ReminderWebhook  string `yaml:"reminder_webhook"`  // Webhook URL reminders are POSTed to
	ReminderInterval string `yaml:"reminder_interval"` // Reminder sweep interval duration (default: 1h)
	InboxEnabled     bool   `yaml:"inbox_enabled"`     // Watch {data}/inbox for dropped contact files (default: false)
}

// BackupConfig contains automated database backup settings.
// Backups only apply to the sqlite storage engine.
type BackupConfig struct {
	Enabled  bool   `yaml:"enabled"`  // Enable periodic database backups (default: false)
	Dir      string `yaml:"dir"`      // Backup directory (default: {data_path}/backups)
	Interval string `yaml:"interval"` // Backup interval duration (default: 1h)
	Verify   bool   `yaml:"verify"`   // Run an integrity check after each backup (default: true)
}

// FeaturesConfig contains feature flags.
type FeaturesConfig struct {
	EnableWebUI     bool `yaml:"enable_web_ui"`    // Enable web UI (default: true)
	EnableExport    bool `yaml:"enable_export"`    // Enable CSV/vCard export endpoints (default: true)
	EnableWebSocket bool `yaml:"enable_websocket"` // Enable the /ws change feed (default: true)
}

// UserConfig holds per-user settings. Unlike the rest of the config these
// survive restarts via the settings table rather than the file/env layers.
type UserConfig struct {
	// UserName is the display name shown on the dashboard.
	// Set via ROLO_USER_NAME or persisted under the user_name settings key.
	UserName string `yaml:"user_name"`
}

// LoadConfig loads configuration from the file named by ROLO_CONFIG_FILE
// (when set) and from environment variables, with env vars taking precedence.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(os.Getenv("ROLO_CONFIG_FILE"))
}

// LoadConfigFile loads configuration from the given YAML file plus environment
// variables. An empty path skips the file layer. Environment variables
// override file values, which override built-in defaults.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// LoadConfigFromDB resolves the file/env layers, then overlays persisted
// user settings from the settings table. A stored value beats the
// environment variable; absent keys leave the env value in place.
// Returns an error if db is nil.
func LoadConfigFromDB(db *sql.DB) (*Config, error) {
	if db == nil {
		return nil, errors.New("config: database connection is required")
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	// Persisted user_name wins over ROLO_USER_NAME
	userName, err := getSetting(db, "user_name")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("config: failed to load user_name from database: %w", err)
	}

	if userName != "" {
		cfg.User.UserName = userName
	}

	return cfg, nil
}

// SaveConfig upserts the user settings into the settings table so they
// survive restarts. Returns an error if db is nil.
func (c *Config) SaveConfig(db *sql.DB) error {
	if db == nil {
		return errors.New("config: database connection is required")
	}

	if err := setSetting(db, "user_name", c.User.UserName); err != nil {
		return fmt.Errorf("config: failed to save user_name: %w", err)
	}

	return nil
}

// getSetting reads one settings-table value. Missing keys surface as
// sql.ErrNoRows with an empty value.
func getSetting(db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// setSetting inserts or updates one settings-table key.
func setSetting(db *sql.DB, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// defaultConfig returns a Config populated with built-in defaults only.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 7380,
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			StorageEngine: "sqlite",
			DataPath:      "./data",
		},
		Security: SecurityConfig{
			SecurityMode:   "development",
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Notify: NotifyConfig{
			ReminderInterval: "1h",
		},
		Backup: BackupConfig{
			Interval: "1h",
			Verify:   true,
		},
		Features: FeaturesConfig{
			EnableWebUI:     true,
			EnableExport:    true,
			EnableWebSocket: true,
		},
	}
}

// applyEnv overlays ROLO_-prefixed environment variables onto cfg. Each
// current value doubles as the default so unset variables leave the
// file/default layer untouched.
func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvInt("ROLO_PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("ROLO_HOST", cfg.Server.Host)

	cfg.Storage.StorageEngine = getEnv("ROLO_STORAGE_ENGINE", cfg.Storage.StorageEngine)
	cfg.Storage.DataPath = getEnv("ROLO_DATA_PATH", cfg.Storage.DataPath)
	cfg.Storage.PostgresDSN = getEnv("ROLO_POSTGRES_DSN", cfg.Storage.PostgresDSN)

	cfg.Security.SecurityMode = getEnv("ROLO_SECURITY_MODE", cfg.Security.SecurityMode)
	cfg.Security.APIToken = getEnv("ROLO_API_TOKEN", cfg.Security.APIToken)
	cfg.Security.RateLimitRPS = getEnvInt("ROLO_RATE_LIMIT_RPS", cfg.Security.RateLimitRPS)
	cfg.Security.RateLimitBurst = getEnvInt("ROLO_RATE_LIMIT_BURST", cfg.Security.RateLimitBurst)

	cfg.Notify.ReminderEnabled = getEnvBool("ROLO_REMINDER_ENABLED", cfg.Notify.ReminderEnabled)
	cfg.Notify.ReminderWebhook = getEnv("ROLO_REMINDER_WEBHOOK", cfg.Notify.ReminderWebhook)
	cfg.Notify.ReminderInterval = getEnv("ROLO_REMINDER_INTERVAL", cfg.Notify.ReminderInterval)
	cfg.Notify.InboxEnabled = getEnvBool("ROLO_INBOX_ENABLED", cfg.Notify.InboxEnabled)

	cfg.Backup.Enabled = getEnvBool("ROLO_BACKUP_ENABLED", cfg.Backup.Enabled)
	cfg.Backup.Dir = getEnv("ROLO_BACKUP_DIR", cfg.Backup.Dir)
	cfg.Backup.Interval = getEnv("ROLO_BACKUP_INTERVAL", cfg.Backup.Interval)
	cfg.Backup.Verify = getEnvBool("ROLO_BACKUP_VERIFY", cfg.Backup.Verify)

	cfg.Features.EnableWebUI = getEnvBool("ROLO_ENABLE_WEB_UI", cfg.Features.EnableWebUI)
	cfg.Features.EnableExport = getEnvBool("ROLO_ENABLE_EXPORT", cfg.Features.EnableExport)
	cfg.Features.EnableWebSocket = getEnvBool("ROLO_ENABLE_WEBSOCKET", cfg.Features.EnableWebSocket)

	cfg.User.UserName = getEnv("ROLO_USER_NAME", cfg.User.UserName)
}

// getEnv returns the named environment variable, or defaultValue when unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt is getEnv for integers. Unparsable values fall back to the
// default rather than erroring.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool is getEnv for booleans. Accepts true/1/yes and false/0/no in
// any casing; anything else falls back to the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
