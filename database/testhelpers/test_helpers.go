// Package testhelpers wires up a throwaway database connection
// (postgres or sqlite3) and runs migrations against it, for use by
// repository package tests.
package testhelpers

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"

	"github.com/pantheonelite/gocouncil/database"
	"github.com/pantheonelite/gocouncil/database/drivers"
	psqlConn "github.com/pantheonelite/gocouncil/database/drivers/postgres"
	sqliteConn "github.com/pantheonelite/gocouncil/database/drivers/sqlite3"
	"github.com/pantheonelite/gocouncil/database/repository"
	"github.com/thrasher-corp/goose"
)

var (
	// TempDir is the temp folder used for the sqlite3 database file.
	TempDir string
	// PostgresTestDatabase holds connection details for CI postgres runs.
	PostgresTestDatabase *database.Config
	// MigrationDir is the default folder holding goose migrations,
	// located from this source file so that it names the same folder
	// for every test package that calls ConnectToDatabase.
	MigrationDir = func() string {
		_, file, _, ok := runtime.Caller(0)
		if !ok {
			return filepath.Join("..", "..", "migrations")
		}
		return filepath.Join(filepath.Dir(file), "..", "migrations")
	}()
)

// GetConnectionDetails returns connection details for CI or local test
// database instances.
func GetConnectionDetails() *database.Config {
	return &database.Config{
		Enabled: true,
		Driver:  database.DBPostgreSQL,
		ConnectionDetails: drivers.ConnectionDetails{
			// Host:     "",
			// Port:     5432,
			// Username: "",
			// Password: "",
			// Database: "",
			// SSLMode:  "",
		},
	}
}

// ConnectToDatabase opens a connection per conn's driver, runs
// migrations, and returns the resulting instance.
func ConnectToDatabase(conn *database.Config) (dbConn *database.Instance, err error) {
	if err := database.DB.SetConfig(conn); err != nil {
		return nil, err
	}

	switch conn.Driver {
	case database.DBPostgreSQL:
		dbConn, err = psqlConn.Connect(conn)
	case database.DBSQLite3, database.DBSQLite:
		database.DB.DataPath = TempDir
		dbConn, err = sqliteConn.Connect(conn.Database())
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", conn.Driver)
	}

	if err != nil {
		return nil, err
	}

	if err := migrateDB(dbConn.SQL); err != nil {
		return nil, err
	}

	database.DB.SetConnected(true)
	return
}

// CloseDatabase closes the connection held by conn.
func CloseDatabase(conn *database.Instance) (err error) {
	if conn != nil {
		return conn.SQL.Close()
	}
	return nil
}

// CheckValidConfig reports whether config holds non-zero connection
// details.
func CheckValidConfig(config *drivers.ConnectionDetails) bool {
	return !reflect.DeepEqual(drivers.ConnectionDetails{}, *config)
}

func migrateDB(db *sql.DB) error {
	return goose.Run("up", db, repository.GetSQLDialect(), MigrationDir, "")
}

// EnableVerboseTestOutput enables no SQL query tracing: it leaves the
// connection state of database.DB unchanged and returns nil.
func EnableVerboseTestOutput() error {
	database.DB.SetConnected(database.DB.IsConnected())
	return nil
}
