// Package repository holds the query layer: one repository per entity over a
// dialect-aware database handle. Point lookups return (nil, nil) when the row
// does not exist. Every write notifies the change hub after it committed.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vozhatapp/internal/database"
)

// ErrNotFound is returned by updates that matched no row
var ErrNotFound = errors.New("record not found")

type rowScanner interface {
	Scan(dest ...any) error
}

// queryList runs query and scans every row with scan
func queryList[T any](ctx context.Context, q database.DBTX, scan func(rowScanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func requireAffected(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// likePattern builds a case-insensitive substring pattern for
// "LOWER(col) LIKE ? ESCAPE '!'".
func likePattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// wrapWrite classifies constraint failures and adds the operation name
func wrapWrite(d database.Dialect, what string, err error) error {
	return fmt.Errorf("failed to %s: %w", what, database.Classify(d, err))
}

// prefixed qualifies a comma separated column list with a table alias
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
