//go:build testutil
// +build testutil

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"vozhatapp/internal/database"
	"vozhatapp/internal/live"
)

type DBHandle struct {
	DB     *database.DB
	cancel func()
	stop   func(context.Context) error
}

// Close closes the connection and terminates the container
func (h *DBHandle) Close() {
	if h.DB != nil {
		_ = h.DB.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
	if h.cancel != nil {
		h.cancel()
	}
}

// StartPostgres runs a disposable PostgreSQL container and applies the
// migrations to it.
func StartPostgres(ctx context.Context) (*DBHandle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:17-alpine"),
		postgres.WithDatabase("vozhat"),
		postgres.WithUsername("vozhat"),
		postgres.WithPassword("vozhat"),
	)
	if err != nil {
		cancel()
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	raw, err := sql.Open("postgres", uri)
	if err != nil {
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}
	if err := waitReady(ctx, raw); err != nil {
		_ = raw.Close()
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	db, err := database.Wrap(raw, database.NewPostgresDialect())
	if err != nil {
		_ = raw.Close()
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}
	db.Hub = live.NewHub(10*time.Second, nil)

	if err := db.Migrate(ctx, nil); err != nil {
		_ = db.Close()
		_ = pg.Terminate(ctx)
		cancel()
		return nil, err
	}

	return &DBHandle{
		DB:     db,
		cancel: cancel,
		stop:   pg.Terminate,
	}, nil
}

// waitReady pings until the server accepts connections
func waitReady(ctx context.Context, db *sql.DB) error {
	dead := time.Now().Add(20 * time.Second)
	for time.Now().Before(dead) {
		if err := db.PingContext(ctx); err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("db not ready")
}
