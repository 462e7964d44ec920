// Package config loads the council engine's configuration: database
// connection settings, LLM provider settings, and the orchestrator's
// scheduling/threshold knobs.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pantheonelite/gocouncil/database/drivers"
)

func newEnvReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// DatabaseConfig covers the persistence connection settings.
type DatabaseConfig struct {
	Driver            string        `mapstructure:"driver"`
	DSN               string        `mapstructure:"dsn"`
	PoolSize          int           `mapstructure:"pool_size"`
	PoolMaxOverflow   int           `mapstructure:"pool_max_overflow"`
	PoolRecycleSecs   int           `mapstructure:"pool_recycle_seconds"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	StatementTimeout  time.Duration `mapstructure:"statement_timeout"`
	LockTimeout       time.Duration `mapstructure:"lock_timeout"`
	MigrationsDir     string        `mapstructure:"migrations_dir"`
}

// ConnectionDetails turns DSN into the structured shape the store
// drivers expect: for sqlite, DSN is the database file path; for
// postgres, a postgres:// URL.
func (c DatabaseConfig) ConnectionDetails() (drivers.ConnectionDetails, error) {
	switch c.Driver {
	case "sqlite3", "sqlite":
		return drivers.ConnectionDetails{Database: c.DSN}, nil
	case "postgres":
		if c.DSN == "" {
			return drivers.ConnectionDetails{}, nil
		}
		u, err := url.Parse(c.DSN)
		if err != nil {
			return drivers.ConnectionDetails{}, fmt.Errorf("config: parse postgres dsn: %w", err)
		}
		password, _ := u.User.Password()
		port, _ := strconv.ParseUint(u.Port(), 10, 16)
		return drivers.ConnectionDetails{
			Host:     u.Hostname(),
			Port:     uint16(port),
			Username: u.User.Username(),
			Password: password,
			Database: strings.TrimPrefix(u.Path, "/"),
			SSLMode:  u.Query().Get("sslmode"),
		}, nil
	default:
		return drivers.ConnectionDetails{}, fmt.Errorf("config: unsupported database driver %q", c.Driver)
	}
}

// LLMConfig covers structured-output provider settings.
type LLMConfig struct {
	APIKeys        map[string]string `mapstructure:"api_keys"`
	DefaultModel   string            `mapstructure:"default_model"`
	DefaultProvider string           `mapstructure:"default_provider"`
	RequestTimeout time.Duration     `mapstructure:"request_timeout"`
	MaxTokens      int               `mapstructure:"max_tokens"`
	Temperature    float64           `mapstructure:"temperature"`
}

// OrchestratorConfig covers the per-cycle scheduling and decision
// knobs.
type OrchestratorConfig struct {
	ScheduleIntervalSeconds int     `mapstructure:"schedule_interval_seconds"`
	ConsensusThreshold      float64 `mapstructure:"consensus_threshold"`
	MinConfidenceForTrade   float64 `mapstructure:"min_confidence_for_trade"`
	MaxPositionPct          float64 `mapstructure:"max_position_pct"`
	ErrorBackoffSeconds     int     `mapstructure:"error_backoff_seconds"`
}

// Config is the top-level configuration object.
type Config struct {
	Database     DatabaseConfig     `mapstructure:"database"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
}

// ScheduleInterval returns the orchestrator schedule interval as a
// time.Duration.
func (c OrchestratorConfig) ScheduleInterval() time.Duration {
	return time.Duration(c.ScheduleIntervalSeconds) * time.Second
}

// ErrorBackoff returns the orchestrator's per-cycle failure backoff as
// a time.Duration.
func (c OrchestratorConfig) ErrorBackoff() time.Duration {
	return time.Duration(c.ErrorBackoffSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.pool_max_overflow", 5)
	v.SetDefault("database.pool_recycle_seconds", 3600)
	v.SetDefault("database.connect_timeout", 10*time.Second)
	v.SetDefault("database.statement_timeout", 30*time.Second)
	v.SetDefault("database.lock_timeout", 10*time.Second)
	v.SetDefault("database.migrations_dir", "database/migrations")

	v.SetDefault("llm.default_provider", "anthropic")
	v.SetDefault("llm.request_timeout", 30*time.Second)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.2)

	v.SetDefault("orchestrator.schedule_interval_seconds", 14400)
	v.SetDefault("orchestrator.consensus_threshold", 0.6)
	v.SetDefault("orchestrator.min_confidence_for_trade", 0.5)
	v.SetDefault("orchestrator.max_position_pct", 0.2)
	v.SetDefault("orchestrator.error_backoff_seconds", 60)
}

// Load reads configuration from configPath (if non-empty), environment
// variables prefixed GOCOUNCIL_ (nested keys joined by underscore, e.g.
// GOCOUNCIL_ORCHESTRATOR_CONSENSUS_THRESHOLD), and defaults, in that
// precedence order (env overrides file, file overrides defaults).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GOCOUNCIL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(newEnvReplacer())

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration satisfies the invariants the
// pipeline depends on.
func (c *Config) Validate() error {
	if c.Orchestrator.ConsensusThreshold <= 0 || c.Orchestrator.ConsensusThreshold > 1 {
		return fmt.Errorf("config: consensus_threshold must be in (0,1], got %v", c.Orchestrator.ConsensusThreshold)
	}
	if c.Orchestrator.MaxPositionPct <= 0 || c.Orchestrator.MaxPositionPct > 1 {
		return fmt.Errorf("config: max_position_pct must be in (0,1], got %v", c.Orchestrator.MaxPositionPct)
	}
	if c.Orchestrator.MinConfidenceForTrade < 0 || c.Orchestrator.MinConfidenceForTrade > 1 {
		return fmt.Errorf("config: min_confidence_for_trade must be in [0,1], got %v", c.Orchestrator.MinConfidenceForTrade)
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("config: database.driver is required")
	}
	return nil
}
