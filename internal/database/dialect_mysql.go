package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN turns on clientFoundRows so that an UPDATE which matches a row but
// changes nothing still reports it as affected.
func (d *MySQLDialect) DSN(config DialectConfig) string {
	cfg, err := mysql.ParseDSN(config.URL)
	if err != nil {
		return config.URL
	}
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) SupportsLastInsertId() bool {
	return true
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for MySQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) GooseDialect() goose.Dialect {
	return goose.DialectMySQL
}

// Server error numbers
const (
	myDuplicateEntry     = 1062
	myNoReferencedRow    = 1452
	myRowIsReferenced    = 1451
	myCheckViolated      = 3819
	myColumnCannotBeNull = 1048
	myNoReferencedRowOld = 1216
	myRowIsReferencedOld = 1217
)

func (d *MySQLDialect) Constraint(err error) (ConstraintKind, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return 0, false
	}
	switch me.Number {
	case myDuplicateEntry:
		return ConstraintUnique, true
	case myNoReferencedRow, myRowIsReferenced, myNoReferencedRowOld, myRowIsReferencedOld:
		return ConstraintForeignKey, true
	case myCheckViolated:
		return ConstraintCheck, true
	case myColumnCannotBeNull:
		return ConstraintNotNull, true
	}
	return 0, false
}

func (d *MySQLDialect) UpsertAttendance() string {
	return InsertAttendanceQuery +
		" ON DUPLICATE KEY UPDATE present = VALUES(present), note = VALUES(note)," +
		" marked_by = VALUES(marked_by), marked_at = VALUES(marked_at)"
}
