// Package repository holds the narrow, per-entity repositories that
// persist council state, plus the shared dialect lookup every
// repository package dispatches its parameterized SQL on.
package repository

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/pantheonelite/gocouncil/common/errs"
	"github.com/pantheonelite/gocouncil/database"
)

// Base is embedded by every entity repository: a transactional
// session plus the dialect it should rebind queries for. Write
// operations flush to tx but do not commit; the caller (Orchestrator
// or Metrics Engine) commits at cycle/snapshot boundaries.
type Base struct {
	Tx      *sql.Tx
	Dialect string
}

// NewBase builds a Base bound to tx, resolving the dialect from the
// package-level database.DB configuration.
func NewBase(tx *sql.Tx) Base {
	return Base{Tx: tx, Dialect: GetSQLDialect()}
}

// Rebind rewrites a "?"-placeholder query for b's dialect.
func (b Base) Rebind(query string) string {
	return Rebind(b.Dialect, query)
}

// GetSQLDialect maps the connected driver to the goose/SQL dialect
// name used for migrations and placeholder style.
func GetSQLDialect() string {
	cfg := database.DB.Config()
	if cfg == nil {
		return database.DBInvalidDriver
	}
	switch cfg.Driver {
	case database.DBPostgreSQL:
		return database.DBPostgreSQL
	case database.DBSQLite3, database.DBSQLite:
		return database.DBSQLite3
	default:
		return database.DBInvalidDriver
	}
}

// Rebind rewrites a query written with "?" placeholders into the
// placeholder style the given dialect expects. Every repository
// writes queries with "?" and calls Rebind before executing, so the
// same SQL text serves both postgres and sqlite3.
func Rebind(dialect, query string) string {
	if dialect != database.DBPostgreSQL {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// TranslateConstraint maps a driver-reported constraint violation to
// one of the distinct error kinds the repository layer's failure
// semantics call for: unique, foreign-key, or check.
// Errors that don't match a known constraint phrase pass through
// unchanged.
func TranslateConstraint(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case containsAny(msg, "UNIQUE constraint", "unique constraint", "duplicate key"):
		return fmt.Errorf("%w: %v", errs.ErrUniqueViolation, err)
	case containsAny(msg, "FOREIGN KEY constraint", "foreign key constraint", "violates foreign key"):
		return fmt.Errorf("%w: %v", errs.ErrForeignKeyViolation, err)
	case containsAny(msg, "CHECK constraint", "check constraint", "violates check"):
		return fmt.Errorf("%w: %v", errs.ErrCheckViolation, err)
	default:
		return err
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
