package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// migrationProvider builds a goose provider over the dialect's embedded migrations
func (db *DB) migrationProvider() (*goose.Provider, error) {
	sub, err := fs.Sub(migrationsFS, "migrations/"+db.Dialect.MigrationsSubdir())
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}
	provider, err := goose.NewProvider(db.Dialect.GooseDialect(), db.DB, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}

// Migrate applies all pending migrations for the connection's dialect
func (db *DB) Migrate(ctx context.Context, log *zap.Logger) error {
	provider, err := db.migrationProvider()
	if err != nil {
		return err
	}
	results, err := provider.Up(ctx)
	logResults(log, results)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// ResetSchema drops every table and recreates the schema. All data is lost.
func (db *DB) ResetSchema(ctx context.Context, log *zap.Logger) error {
	provider, err := db.migrationProvider()
	if err != nil {
		return err
	}
	results, err := provider.DownTo(ctx, 0)
	logResults(log, results)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	if err := db.Migrate(ctx, log); err != nil {
		return err
	}
	db.Changed(AllTables...)
	return nil
}

// SchemaVersion returns the highest applied migration
func (db *DB) SchemaVersion(ctx context.Context) (int64, error) {
	provider, err := db.migrationProvider()
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

// logResults logs each applied migration
func logResults(log *zap.Logger, results []*goose.MigrationResult) {
	if log == nil {
		return
	}
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		fields := []zap.Field{
			zap.Int64("version", r.Source.Version),
			zap.String("file", r.Source.Path),
			zap.String("direction", r.Direction),
			zap.Duration("took", r.Duration),
		}
		if r.Error != nil {
			log.Error("migration failed", append(fields, zap.Error(r.Error))...)
			continue
		}
		log.Info("migration applied", fields...)
	}
}

// Table names, as reported to Changed
const (
	TableUsers        = "users"
	TableChildren     = "children"
	TableEvents       = "events"
	TableAttendance   = "attendance"
	TableAchievements = "achievements"
	TableNotes        = "notes"
	TableGames        = "games"
)

// AllTables lists every table in dependency order, parents first
var AllTables = []string{
	TableUsers, TableChildren, TableEvents, TableAttendance,
	TableAchievements, TableNotes, TableGames,
}
