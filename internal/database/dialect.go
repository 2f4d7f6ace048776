package database

import (
	"database/sql"
	"regexp"
	"strconv"

	"github.com/pressly/goose/v3"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// GooseDialect names the dialect for the migration provider
	GooseDialect() goose.Dialect

	// Constraint recognises a driver error as a constraint violation
	Constraint(err error) (ConstraintKind, bool)

	// UpsertAttendance returns an insert that replaces the row with the
	// same (event_id, child_id) pair. Arguments are event_id, child_id,
	// present, note, marked_by, marked_at.
	UpsertAttendance() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// InsertAttendanceQuery stores one mark; upserts extend it per dialect
const InsertAttendanceQuery = "INSERT INTO attendance (event_id, child_id, present, note, marked_by, marked_at) VALUES (?, ?, ?, ?, ?, ?)"
