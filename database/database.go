// Package database holds the single package-level connection handle
// (database.DB) and configuration shared by every repository package.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/pantheonelite/gocouncil/database/drivers"
	"github.com/pantheonelite/gocouncil/log"
)

// Recognised driver identifiers.
const (
	DBPostgreSQL    = "postgres"
	DBSQLite3       = "sqlite3"
	DBSQLite        = "sqlite"
	DBInvalidDriver = "invalid"
)

// Config is the connection configuration for the store.
type Config struct {
	Enabled          bool
	Driver           string
	ConnectionDetails drivers.ConnectionDetails
	PoolSize         int
	PoolMaxOverflow  int
	PoolRecycleSecs  int
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration
	LockTimeout      time.Duration
}

// Database returns the configured database name/file, promoted from
// ConnectionDetails for callers that only care about the store name.
func (c Config) Database() string { return c.ConnectionDetails.Database }

// Instance wraps an open *sql.DB along with its configuration and
// connectedness flag.
type Instance struct {
	mu        sync.RWMutex
	SQL       *sql.DB
	config    *Config
	connected bool
	DataPath  string
}

// DB is the package-level instance whose stored Config selects the SQL
// dialect every repository uses. Repositories work on the *sql.Tx they
// are given, and the orchestrator on the *Instance it is built with.
var DB = &Instance{}

// SetConfig stores the connection configuration on the instance.
func (i *Instance) SetConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("database: nil config")
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.config = cfg
	return nil
}

// Config returns the stored connection configuration, or nil if unset.
func (i *Instance) Config() *Config {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.config
}

// SetConnected marks the instance connected or disconnected.
func (i *Instance) SetConnected(connected bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.connected = connected
}

// IsConnected reports whether the instance currently holds a live
// connection.
func (i *Instance) IsConnected() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.connected
}

// SetSQLDB attaches the opened *sql.DB, applying pool size/recycle
// settings from the stored config.
func (i *Instance) SetSQLDB(db *sql.DB) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.SQL = db
	if i.config != nil {
		if i.config.PoolSize > 0 {
			db.SetMaxOpenConns(i.config.PoolSize + i.config.PoolMaxOverflow)
		}
		if i.config.PoolRecycleSecs > 0 {
			db.SetConnMaxLifetime(time.Duration(i.config.PoolRecycleSecs) * time.Second)
		}
	}
}

// Ping pre-pings the connection with the configured connect timeout.
func (i *Instance) Ping(ctx context.Context) error {
	i.mu.RLock()
	db := i.SQL
	cfg := i.config
	i.mu.RUnlock()
	if db == nil {
		return fmt.Errorf("database: not connected")
	}
	if cfg != nil && cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}

// GetSQLite3Instance returns a fresh, unconnected sqlite3 instance
// (used by tests that need their own handle independent of the
// package singleton).
func GetSQLite3Instance() *Instance {
	return &Instance{config: &Config{Driver: DBSQLite3}}
}

// GetPostgresInstance returns a fresh, unconnected postgres instance.
func GetPostgresInstance() *Instance {
	return &Instance{config: &Config{Driver: DBPostgreSQL}}
}

// Logger adapts the database subsystem's query tracing to the log
// package, used as a debug sink for verbose SQL tracing in tests.
type Logger struct{}

// Write implements io.Writer.
func (Logger) Write(p []byte) (int, error) {
	log.Database.Debug(context.Background(), "sql trace", "query", string(p))
	return len(p), nil
}
