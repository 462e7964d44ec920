// Package sqlite3 opens the paper-mode / development store connection
// over github.com/mattn/go-sqlite3.
package sqlite3

import (
	"database/sql"
	"fmt"
	"path/filepath"

	// sqlite3 registers the "sqlite3" database/sql driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/pantheonelite/gocouncil/database"
)

// Connect opens a *database.Instance backed by a sqlite3 file named
// dbName under database.DB.DataPath.
func Connect(dbName string) (*database.Instance, error) {
	if dbName == "" {
		return nil, fmt.Errorf("sqlite3: empty database name")
	}
	path := dbName
	if database.DB.DataPath != "" {
		path = filepath.Join(database.DB.DataPath, dbName)
	}
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite3: open %q: %w", path, err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite3: ping: %w", err)
	}

	inst := &database.Instance{}
	inst.SetSQLDB(sqlDB)
	return inst, nil
}
