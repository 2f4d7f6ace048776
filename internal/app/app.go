// Package app wires the data layer together.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"vozhatapp/internal/config"
	"vozhatapp/internal/database"
	"vozhatapp/internal/dispatch"
	"vozhatapp/internal/live"
	"vozhatapp/internal/metrics"
	"vozhatapp/internal/repository"
	"vozhatapp/internal/security"
	"vozhatapp/internal/service"
)

// App is the process-wide data layer: one database, one write pool, and the
// services built on them.
type App struct {
	Config   *config.Config
	Log      *zap.Logger
	DB       *database.DB
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Pool     *dispatch.Pool

	Children     *service.ChildService
	Events       *service.EventService
	Attendance   *service.AttendanceService
	Achievements *service.AchievementService
	Notes        *service.NoteService
	Games        *service.GameService
	Users        *service.UserService
	Backup       *service.BackupService
}

// New opens the configured database, migrates it and builds the services.
// Default games are seeded into an empty catalogue when cfg.SeedGames is set.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("database connection established", zap.String("type", cfg.DatabaseType))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	db.Hub = live.NewHub(cfg.OperationTimeout, m)

	if err := db.Migrate(ctx, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	if cfg.SeedGames {
		if err := db.SeedDefaultGames(ctx, log); err != nil {
			log.Warn("failed to seed default games", zap.Error(err))
		}
	}

	a := &App{Config: cfg, Log: log, DB: db, Metrics: m, Registry: reg}
	a.Pool = dispatch.New(cfg.WriteWorkers, cfg.OperationTimeout, log, m)
	run := service.NewRunner(a.Pool, cfg.OperationTimeout, log)

	children := repository.NewChildRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	a.Children = service.NewChildService(children, attendance, run)
	a.Events = service.NewEventService(repository.NewEventRepository(db), run, cfg.Location)
	a.Attendance = service.NewAttendanceService(attendance, children, run)
	a.Achievements = service.NewAchievementService(repository.NewAchievementRepository(db), run)
	a.Notes = service.NewNoteService(repository.NewNoteRepository(db), run)
	a.Games = service.NewGameService(repository.NewGameRepository(db), run)
	a.Users = service.NewUserService(repository.NewUserRepository(db), security.NewHasher(cfg.BcryptCost), run)
	a.Users.LimitAttempts(security.NewAttemptLimiter(cfg.LoginAttempts, cfg.LoginWindow))
	a.Backup = service.NewBackupService(db, run, log)
	return a, nil
}

// Close drains pending writes and closes the database
func (a *App) Close() error {
	a.Pool.Close()
	return a.DB.Close()
}
