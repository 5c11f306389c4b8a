// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/morganforge/tutor/internal/storage"
)

// CurrentVersion is the config file format version.
const CurrentVersion = "1"

// DirName is the name of the per-user directory under $HOME.
const DirName = ".tutor"

// FileName is the name of the config file inside the config directory.
const FileName = "config.toml"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tutor configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Server is the tutor backend the client talks to.
	Server ServerConfig `toml:"server" json:"server"`

	// Storage selects where sessions and the document library are kept.
	Storage StorageConfig `toml:"storage" json:"storage"`

	Chat ChatConfig `toml:"chat" json:"chat"`

	Log LogConfig `toml:"log" json:"log"`

	UI UIConfig `toml:"ui" json:"ui"`

	// Serve configures the local development backend ("tutor serve").
	Serve ServeConfig `toml:"serve" json:"serve"`
}

// ServerConfig contains backend connection settings.
type ServerConfig struct {
	// URL is the base URL; /api/chat and /api/upload are resolved against it.
	URL string `toml:"url" json:"url" env:"TUTOR_SERVER_URL"`
	// TimeoutSecs bounds each request. 0 waits as long as the server does.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" env:"TUTOR_TIMEOUT_SECS"`
}

// Timeout returns TimeoutSecs as a duration.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// StorageConfig contains local persistence settings.
type StorageConfig struct {
	// Backend is "file" (default), "sqlite" or "memory".
	Backend string `toml:"backend" json:"backend" env:"TUTOR_STORAGE_BACKEND"`
	// DataDir holds the state file. Empty means the config directory.
	DataDir string `toml:"data_dir" json:"data_dir" env:"TUTOR_DATA_DIR"`
}

// ChatConfig contains conversation defaults.
type ChatConfig struct {
	// UseAI is the initial state of the AI toggle.
	UseAI bool `toml:"use_ai" json:"use_ai" env:"TUTOR_USE_AI"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level" env:"TUTOR_LOG_LEVEL"`
	// File is the log file. Empty means <config dir>/logs/tutor.log.
	File string `toml:"file" json:"file" env:"TUTOR_LOG_FILE"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// DesktopNotifications mirrors toasts as desktop notifications.
	DesktopNotifications bool `toml:"desktop_notifications" json:"desktop_notifications" env:"TUTOR_DESKTOP_NOTIFICATIONS"`
	// SidebarOpen is the initial sidebar state.
	SidebarOpen bool `toml:"sidebar_open" json:"sidebar_open" env:"TUTOR_SIDEBAR_OPEN"`
	// WordWrap is the markdown wrap width for the line-oriented commands.
	WordWrap int `toml:"word_wrap" json:"word_wrap" env:"TUTOR_WORD_WRAP"`
}

// ServeConfig contains settings for the local development backend.
type ServeConfig struct {
	Addr string `toml:"addr" json:"addr" env:"TUTOR_SERVE_ADDR"`
	// UploadDir holds uploaded documents. Empty means <data dir>/uploads.
	UploadDir string `toml:"upload_dir" json:"upload_dir" env:"TUTOR_UPLOAD_DIR"`
	// MaxUploadMB caps the size of one upload.
	MaxUploadMB int `toml:"max_upload_mb" json:"max_upload_mb" env:"TUTOR_MAX_UPLOAD_MB"`
	// RateLimit is the sustained requests per second allowed per client.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit" env:"TUTOR_RATE_LIMIT"`
	// RateBurst is the burst size allowed per client.
	RateBurst int `toml:"rate_burst" json:"rate_burst" env:"TUTOR_RATE_BURST"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			URL:         "http://localhost:8000",
			TimeoutSecs: 0,
		},
		Storage: StorageConfig{
			Backend: string(storage.BackendFile),
		},
		Chat: ChatConfig{
			UseAI: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			DesktopNotifications: false,
			SidebarOpen:          true,
			WordWrap:             80,
		},
		Serve: ServeConfig{
			Addr:        "127.0.0.1:8000",
			MaxUploadMB: 20,
			RateLimit:   5,
			RateBurst:   10,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tutor configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// DataDir returns the directory holding local state.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return expandHome(c.Storage.DataDir)
	}
	return ConfigDir()
}

// LogFile returns the log file path.
func (c *Config) LogFile() (string, error) {
	if c.Log.File != "" {
		return expandHome(c.Log.File)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "tutor.log"), nil
}

// UploadDir returns the directory the development backend stores uploads in.
func (c *Config) UploadDir() (string, error) {
	if c.Serve.UploadDir != "" {
		return expandHome(c.Serve.UploadDir)
	}
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "uploads"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.tutor/config.toml over the defaults, then applies
// environment overrides. A missing config file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath is Load with an explicit config file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, statErr)
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path into cfg. Keys absent from the
// file keep the values already in cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables that are already set win; a missing file is ignored.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides overlays TUTOR_* environment variables. Unset variables
// leave the current value alone.
func (c *Config) ApplyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// SetDefaults fills zero values that would otherwise be invalid.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.UI.WordWrap == 0 {
		c.UI.WordWrap = defaults.UI.WordWrap
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = defaults.Serve.Addr
	}
	if c.Serve.MaxUploadMB == 0 {
		c.Serve.MaxUploadMB = defaults.Serve.MaxUploadMB
	}
	if c.Serve.RateLimit == 0 {
		c.Serve.RateLimit = defaults.Serve.RateLimit
	}
	if c.Serve.RateBurst == 0 {
		c.Serve.RateBurst = defaults.Serve.RateBurst
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to the default config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# tutor configuration file")
	fmt.Fprintln(file, "# Environment variables (TUTOR_*) override these values.")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Server.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "server.url",
			Message: fmt.Sprintf("invalid URL '%s', must be absolute (e.g. http://localhost:8000)", c.Server.URL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "server.url",
			Message: fmt.Sprintf("unsupported scheme '%s', must be http or https", u.Scheme),
		})
	}

	if c.Server.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_secs",
			Message: "timeout cannot be negative",
		})
	}

	if _, err := storage.ParseBackend(c.Storage.Backend); err != nil {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: err.Error(),
		})
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if c.UI.WordWrap < 20 {
		errs = append(errs, ValidationError{
			Field:   "ui.word_wrap",
			Message: "word wrap must be at least 20 columns",
		})
	}

	if c.Serve.MaxUploadMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "serve.max_upload_mb",
			Message: "max upload must be at least 1 MB",
		})
	}
	if c.Serve.RateLimit <= 0 {
		errs = append(errs, ValidationError{
			Field:   "serve.rate_limit",
			Message: "rate limit must be positive",
		})
	}
	if c.Serve.RateBurst < 1 {
		errs = append(errs, ValidationError{
			Field:   "serve.rate_burst",
			Message: "rate burst must be at least 1",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "server.url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "chat.use_ai").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a setting", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strings.ToLower(strVal))
			if err != nil {
				boolVal = strings.EqualFold(strVal, "yes") || strings.EqualFold(strVal, "on")
				if !boolVal && !strings.EqualFold(strVal, "no") && !strings.EqualFold(strVal, "off") {
					return fmt.Errorf("invalid boolean value: %q", strVal)
				}
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"server.url",
		"server.timeout_secs",
		"storage.backend",
		"storage.data_dir",
		"chat.use_ai",
		"log.level",
		"log.file",
		"ui.desktop_notifications",
		"ui.sidebar_open",
		"ui.word_wrap",
		"serve.addr",
		"serve.upload_dir",
		"serve.max_upload_mb",
		"serve.rate_limit",
		"serve.rate_burst",
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
