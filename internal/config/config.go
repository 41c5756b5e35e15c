// Package config provides Viper-based configuration loading for the summon
// beast service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Host backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// FileLogConfig holds rotating log file settings.
type FileLogConfig struct {
	// Enabled tees log output into Path in addition to stdout.
	Enabled bool `mapstructure:"enabled"`
	// Path is the log file location.
	Path string `mapstructure:"path"`
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups"`
	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int `mapstructure:"max_age_days"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File configures the optional rotating log file.
	File FileLogConfig `mapstructure:"file"`
}

// CommandConfig holds chat command settings.
type CommandConfig struct {
	// Trigger is the chat word that invokes the summon command, e.g. "!summon-beast".
	Trigger string `mapstructure:"trigger"`
	// Aliases are alternate triggers.
	Aliases []string `mapstructure:"aliases"`
	// Speaker is the name the handler posts to chat as.
	Speaker string `mapstructure:"speaker"`
	// TargetName is the sheet-name fragment identifying a Bestial Spirit.
	TargetName string `mapstructure:"target_name"`
}

// TrackingConfig holds active-target tracking settings.
type TrackingConfig struct {
	// StrictRemove clears the target only when the removed token represents it.
	StrictRemove bool `mapstructure:"strict_remove"`
}

// HostConfig selects and seeds the tabletop host backend.
type HostConfig struct {
	// Backend is "memory" or "postgres".
	Backend string `mapstructure:"backend"`
	// SheetsDir holds YAML sheet fixtures loaded into the memory backend.
	SheetsDir string `mapstructure:"sheets_dir"`
	// Scene is the scene id console and script events are routed to.
	Scene string `mapstructure:"scene"`
}

// ScriptingConfig holds Lua scene-script settings.
type ScriptingConfig struct {
	// InstructionLimit caps the VM instructions one script may execute.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Command   CommandConfig   `mapstructure:"command"`
	Tracking  TrackingConfig  `mapstructure:"tracking"`
	Host      HostConfig      `mapstructure:"host"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateLogging(c.Logging),
		validateCommand(c.Command),
		validateHost(c.Host),
		validateDatabase(c.Database),
		validateScripting(c.Scripting),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	if l.File.Enabled {
		if l.File.Path == "" {
			errs = append(errs, "logging.file.path must not be empty when logging.file.enabled is set")
		}
		if l.File.MaxSizeMB < 1 {
			errs = append(errs, fmt.Sprintf("logging.file.max_size_mb must be >= 1, got %d", l.File.MaxSizeMB))
		}
		if l.File.MaxBackups < 0 || l.File.MaxAgeDays < 0 {
			errs = append(errs, "logging.file.max_backups and logging.file.max_age_days must not be negative")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCommand(c CommandConfig) error {
	var errs []string
	if !strings.HasPrefix(c.Trigger, "!") || strings.ContainsAny(c.Trigger, " \t") {
		errs = append(errs, fmt.Sprintf("command.trigger must start with \"!\" and contain no spaces, got %q", c.Trigger))
	}
	for _, a := range c.Aliases {
		if !strings.HasPrefix(a, "!") || strings.ContainsAny(a, " \t") {
			errs = append(errs, fmt.Sprintf("command.aliases entries must start with \"!\" and contain no spaces, got %q", a))
		}
	}
	if c.Speaker == "" {
		errs = append(errs, "command.speaker must not be empty")
	}
	if strings.TrimSpace(c.TargetName) == "" {
		errs = append(errs, "command.target_name must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateHost(h HostConfig) error {
	var errs []string
	if h.Backend != BackendMemory && h.Backend != BackendPostgres {
		errs = append(errs, fmt.Sprintf("host.backend must be one of [memory, postgres], got %q", h.Backend))
	}
	if h.Scene == "" {
		errs = append(errs, "host.scene must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 1 {
		return errors.New("scripting.instruction_limit must be >= 1")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SUMMON_ prefix
	v.SetEnvPrefix("SUMMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "logs/summonbeast.log")
	v.SetDefault("logging.file.max_size_mb", 10)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age_days", 28)

	v.SetDefault("command.trigger", "!summon-beast")
	v.SetDefault("command.aliases", []string{"!summon_beast"})
	v.SetDefault("command.speaker", "Summon Beast API")
	v.SetDefault("command.target_name", "bestial spirit")

	v.SetDefault("tracking.strict_remove", false)

	v.SetDefault("host.backend", BackendMemory)
	v.SetDefault("host.sheets_dir", "content/sheets")
	v.SetDefault("host.scene", "default")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "summon")
	v.SetDefault("database.password", "summon")
	v.SetDefault("database.name", "summonbeast")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("scripting.instruction_limit", 100000)
}
