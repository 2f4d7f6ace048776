package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	// PostgreSQL uses $1, $2, etc. instead of ?
	return rewritePlaceholdersToNumbered(query)
}

func (d *PostgresDialect) SupportsLastInsertId() bool {
	// PostgreSQL doesn't support LastInsertId(), needs RETURNING clause
	return false
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for PostgreSQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// PostgreSQL has foreign keys enabled by default, no pragma needed
	return nil
}

func (d *PostgresDialect) MigrationsSubdir() string {
	return "postgres"
}

func (d *PostgresDialect) GooseDialect() goose.Dialect {
	return goose.DialectPostgres
}

// SQLSTATE class 23 codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

func (d *PostgresDialect) Constraint(err error) (ConstraintKind, bool) {
	var pe *pq.Error
	if !errors.As(err, &pe) {
		return 0, false
	}
	switch string(pe.Code) {
	case pgUniqueViolation:
		return ConstraintUnique, true
	case pgForeignKeyViolation:
		return ConstraintForeignKey, true
	case pgCheckViolation:
		return ConstraintCheck, true
	case pgNotNullViolation:
		return ConstraintNotNull, true
	}
	if pe.Code.Class() == "23" {
		return ConstraintOther, true
	}
	return 0, false
}

func (d *PostgresDialect) UpsertAttendance() string {
	return InsertAttendanceQuery +
		" ON CONFLICT (event_id, child_id) DO UPDATE SET present = EXCLUDED.present," +
		" note = EXCLUDED.note, marked_by = EXCLUDED.marked_by, marked_at = EXCLUDED.marked_at"
}
