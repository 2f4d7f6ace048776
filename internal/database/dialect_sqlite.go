package database

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

const sqliteDriverName = "sqlite3_unicode"

// SQLite's built-in lower() only folds ASCII. Searches over Cyrillic names
// need full Unicode folding, so connections opened through this driver
// replace it.
func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
}

// SQLiteDialect implements Dialect for SQLite
type SQLiteDialect struct{}

// NewSQLiteDialect creates a new SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) DriverName() string {
	return sqliteDriverName
}

// DSN enables foreign keys and WAL through connection parameters so that
// every pooled connection gets them, not only the first one.
func (d *SQLiteDialect) DSN(config DialectConfig) string {
	return config.Path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

func (d *SQLiteDialect) SupportsLastInsertId() bool {
	return true
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	// A single file has a single writer, a small pool is enough.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) GooseDialect() goose.Dialect {
	return goose.DialectSQLite3
}

func (d *SQLiteDialect) Constraint(err error) (ConstraintKind, bool) {
	var se sqlite3.Error
	if !errors.As(err, &se) || se.Code != sqlite3.ErrConstraint {
		return 0, false
	}
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return ConstraintUnique, true
	case sqlite3.ErrConstraintForeignKey:
		return ConstraintForeignKey, true
	case sqlite3.ErrConstraintCheck:
		return ConstraintCheck, true
	case sqlite3.ErrConstraintNotNull:
		return ConstraintNotNull, true
	}
	return ConstraintOther, true
}

func (d *SQLiteDialect) UpsertAttendance() string {
	return InsertAttendanceQuery +
		" ON CONFLICT (event_id, child_id) DO UPDATE SET present = excluded.present," +
		" note = excluded.note, marked_by = excluded.marked_by, marked_at = excluded.marked_at"
}
