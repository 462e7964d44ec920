// Package postgres opens the production store connection over
// github.com/lib/pq.
package postgres

import (
	"database/sql"
	"fmt"

	// pq registers the "postgres" database/sql driver.
	_ "github.com/lib/pq"

	"github.com/pantheonelite/gocouncil/database"
)

// Connect opens a *database.Instance backed by postgres using cfg's
// connection details, pre-pinging before returning.
func Connect(cfg *database.Config) (*database.Instance, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres: nil config")
	}
	dsn := buildDSN(cfg)
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	inst := &database.Instance{}
	if err := inst.SetConfig(cfg); err != nil {
		return nil, err
	}
	inst.SetSQLDB(sqlDB)
	return inst, nil
}

func buildDSN(cfg *database.Config) string {
	d := cfg.ConnectionDetails
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Database, sslMode,
	)
	if cfg.StatementTimeout > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", cfg.StatementTimeout.Milliseconds())
	}
	if cfg.LockTimeout > 0 {
		dsn += fmt.Sprintf(" lock_timeout=%d", cfg.LockTimeout.Milliseconds())
	}
	return dsn
}
