// Package config provides Viper-based configuration loading for the simulator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File configures an optional rotating log file written alongside stderr.
	File LogFileConfig `mapstructure:"file"`
}

// LogFileConfig holds rotating log file settings.
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SimulationConfig holds the default budget applied to simulation jobs.
type SimulationConfig struct {
	// Workers is the size of the fixed simulation worker pool.
	Workers int `mapstructure:"workers"`
	// Trials is the number of Monte Carlo encounters per monster stage.
	Trials int `mapstructure:"trials"`
	// MaxEncounterMs caps the simulated duration of a single encounter.
	MaxEncounterMs int64 `mapstructure:"max_encounter_ms"`
	// SpawnDelayMs is the idle time between consecutive encounters.
	SpawnDelayMs int64 `mapstructure:"spawn_delay_ms"`
	// ProgressEvery is the number of encounters between progress reports.
	ProgressEvery int `mapstructure:"progress_every"`
	// Seed fixes the random seed; 0 draws a fresh seed per job.
	Seed uint64 `mapstructure:"seed"`
	// Mode selects the aggregation method: "auto", "montecarlo" or "analytical".
	Mode string `mapstructure:"mode"`
	// DevMode enables diagnostic collection for unrecognised modifiers.
	DevMode bool `mapstructure:"dev_mode"`
}

// SchedulerConfig holds job scheduler settings.
type SchedulerConfig struct {
	// DuplicatePolicy is "reject" or "supersede".
	DuplicatePolicy string `mapstructure:"duplicate_policy"`
	// MessageBuffer is the capacity of each job's message channel.
	MessageBuffer int `mapstructure:"message_buffer"`
}

// ServerConfig holds the coordinator websocket listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ContentConfig locates the read-only game data.
type ContentConfig struct {
	// Dir is the root directory of the YAML content files.
	Dir string `mapstructure:"dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Server     ServerConfig     `mapstructure:"server"`
	Content    ContentConfig    `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScheduler(c.Scheduler); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Content.Dir == "" {
		errs = append(errs, "content.dir must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.File.Enabled && l.File.Path == "" {
		return errors.New("logging.file.path must not be empty when logging.file.enabled is set")
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.Workers < 1 {
		errs = append(errs, fmt.Sprintf("simulation.workers must be >= 1, got %d", s.Workers))
	}
	if s.Trials < 1 {
		errs = append(errs, fmt.Sprintf("simulation.trials must be >= 1, got %d", s.Trials))
	}
	if s.MaxEncounterMs < 1000 {
		errs = append(errs, fmt.Sprintf("simulation.max_encounter_ms must be >= 1000, got %d", s.MaxEncounterMs))
	}
	if s.SpawnDelayMs < 0 {
		errs = append(errs, fmt.Sprintf("simulation.spawn_delay_ms must be >= 0, got %d", s.SpawnDelayMs))
	}
	if s.ProgressEvery < 1 {
		errs = append(errs, fmt.Sprintf("simulation.progress_every must be >= 1, got %d", s.ProgressEvery))
	}
	validModes := map[string]bool{"auto": true, "montecarlo": true, "analytical": true}
	if !validModes[s.Mode] {
		errs = append(errs, fmt.Sprintf("simulation.mode must be one of [auto, montecarlo, analytical], got %q", s.Mode))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScheduler(s SchedulerConfig) error {
	var errs []string
	validPolicies := map[string]bool{"reject": true, "supersede": true}
	if !validPolicies[s.DuplicatePolicy] {
		errs = append(errs, fmt.Sprintf("scheduler.duplicate_policy must be one of [reject, supersede], got %q", s.DuplicatePolicy))
	}
	if s.MessageBuffer < 1 {
		errs = append(errs, fmt.Sprintf("scheduler.message_buffer must be >= 1, got %d", s.MessageBuffer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.ShutdownTimeout < 0 {
		errs = append(errs, "server.shutdown_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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

	// Environment variable overrides with SIM_ prefix
	v.SetEnvPrefix("SIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// Default returns the configuration produced by defaults alone.
//
// Postcondition: Returns a Config that passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := LoadFromViper(v)
	if err != nil {
		panic(fmt.Sprintf("config: defaults do not validate: %v", err))
	}
	return cfg
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "logs/idlesim.log")
	v.SetDefault("logging.file.max_size_mb", 50)
	v.SetDefault("logging.file.max_backups", 5)
	v.SetDefault("logging.file.max_age_days", 14)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("simulation.workers", 4)
	v.SetDefault("simulation.trials", 1000)
	v.SetDefault("simulation.max_encounter_ms", 3_600_000)
	v.SetDefault("simulation.spawn_delay_ms", 3000)
	v.SetDefault("simulation.progress_every", 100)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.mode", "auto")
	v.SetDefault("simulation.dev_mode", false)

	v.SetDefault("scheduler.duplicate_policy", "reject")
	v.SetDefault("scheduler.message_buffer", 256)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8085)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("content.dir", "content")
}
