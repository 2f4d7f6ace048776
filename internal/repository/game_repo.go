package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vozhatapp/internal/database"
	"vozhatapp/internal/live"
	"vozhatapp/internal/models"
)

const gameColumns = `id, title, description, category, min_age, max_age, min_players,
	max_players, duration_minutes, materials`

// GameRepository handles database operations for the game catalogue
type GameRepository struct {
	db *database.DB
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{db: db}
}

func scanGame(s rowScanner) (models.Game, error) {
	var (
		g                                  models.Game
		minAge, maxAge, minPlayers, maxPly sql.NullInt64
		duration                           sql.NullInt64
		materials                          sql.NullString
	)
	if err := s.Scan(&g.ID, &g.Title, &g.Description, &g.Category, &minAge, &maxAge,
		&minPlayers, &maxPly, &duration, &materials); err != nil {
		return g, fmt.Errorf("failed to scan game: %w", err)
	}
	g.MinAge = database.IntPtr(minAge)
	g.MaxAge = database.IntPtr(maxAge)
	g.MinPlayers = database.IntPtr(minPlayers)
	g.MaxPlayers = database.IntPtr(maxPly)
	g.DurationMinutes = database.IntPtr(duration)
	g.Materials = database.StringPtr(materials)
	return g, nil
}

func (r *GameRepository) list(ctx context.Context, what, where string, args ...any) ([]models.Game, error) {
	query := "SELECT " + gameColumns + " FROM games"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY title ASC, id ASC"
	games, err := queryList(ctx, r.db, scanGame, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	return games, nil
}

// All retrieves the whole catalogue
func (r *GameRepository) All(ctx context.Context) ([]models.Game, error) {
	return r.list(ctx, "games", "")
}

// ByID retrieves a game by ID
func (r *GameRepository) ByID(ctx context.Context, id int64) (*models.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx, "SELECT "+gameColumns+" FROM games WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &g, nil
}

// ByCategory retrieves the games of one category
func (r *GameRepository) ByCategory(ctx context.Context, category string) ([]models.Game, error) {
	return r.list(ctx, "games by category", "category = ?", category)
}

// Categories returns the distinct categories in alphabetical order
func (r *GameRepository) Categories(ctx context.Context) ([]string, error) {
	categories, err := queryList(ctx, r.db, func(s rowScanner) (string, error) {
		var c string
		err := s.Scan(&c)
		return c, err
	}, "SELECT DISTINCT category FROM games ORDER BY category ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query game categories: %w", err)
	}
	return categories, nil
}

// Search matches text against title or description, ignoring case
func (r *GameRepository) Search(ctx context.Context, text string) ([]models.Game, error) {
	p := likePattern(text)
	return r.list(ctx, "game search", "LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'", p, p)
}

// Suitable returns games whose bounds admit the given age and group size.
// A missing bound does not restrict.
func (r *GameRepository) Suitable(ctx context.Context, age, players int) ([]models.Game, error) {
	return r.list(ctx, "suitable games", `(min_age IS NULL OR min_age <= ?) AND (max_age IS NULL OR max_age >= ?)
		AND (min_players IS NULL OR min_players <= ?) AND (max_players IS NULL OR max_players >= ?)`,
		age, age, players, players)
}

// Count returns the number of games in the catalogue
func (r *GameRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}
	return n, nil
}

// Insert stores a new game and returns its ID
func (r *GameRepository) Insert(ctx context.Context, g *models.Game) (int64, error) {
	id, err := r.db.ExecReturningID(ctx, `INSERT INTO games (title, description, category, min_age,
		max_age, min_players, max_players, duration_minutes, materials) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Title, g.Description, g.Category, database.NullInt(g.MinAge), database.NullInt(g.MaxAge),
		database.NullInt(g.MinPlayers), database.NullInt(g.MaxPlayers), database.NullInt(g.DurationMinutes),
		database.NullString(g.Materials))
	if err != nil {
		return 0, wrapWrite(r.db.Dialect, "create game", err)
	}
	g.ID = id
	r.db.Changed(database.TableGames)
	return id, nil
}

// Update replaces a game's fields
func (r *GameRepository) Update(ctx context.Context, g *models.Game) error {
	res, err := r.db.ExecContext(ctx, `UPDATE games SET title = ?, description = ?, category = ?,
		min_age = ?, max_age = ?, min_players = ?, max_players = ?, duration_minutes = ?, materials = ?
		WHERE id = ?`,
		g.Title, g.Description, g.Category, database.NullInt(g.MinAge), database.NullInt(g.MaxAge),
		database.NullInt(g.MinPlayers), database.NullInt(g.MaxPlayers), database.NullInt(g.DurationMinutes),
		database.NullString(g.Materials), g.ID)
	if err != nil {
		return wrapWrite(r.db.Dialect, "update game", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("failed to update game %d: %w", g.ID, err)
	}
	r.db.Changed(database.TableGames)
	return nil
}

// Delete removes a game
func (r *GameRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM games WHERE id = ?", id); err != nil {
		return wrapWrite(r.db.Dialect, "delete game", err)
	}
	r.db.Changed(database.TableGames)
	return nil
}

// WatchAll streams the whole catalogue
func (r *GameRepository) WatchAll(ctx context.Context) *live.Stream[[]models.Game] {
	return live.Watch(ctx, r.db.Hub, r.All, database.TableGames)
}

// WatchByCategory streams the games of one category
func (r *GameRepository) WatchByCategory(ctx context.Context, category string) *live.Stream[[]models.Game] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Game, error) {
		return r.ByCategory(ctx, category)
	}, database.TableGames)
}

// WatchCategories streams the distinct categories
func (r *GameRepository) WatchCategories(ctx context.Context) *live.Stream[[]string] {
	return live.Watch(ctx, r.db.Hub, r.Categories, database.TableGames)
}

// WatchSearch streams the games matching text
func (r *GameRepository) WatchSearch(ctx context.Context, text string) *live.Stream[[]models.Game] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Game, error) {
		return r.Search(ctx, text)
	}, database.TableGames)
}

// WatchSuitable streams the games that fit age and players
func (r *GameRepository) WatchSuitable(ctx context.Context, age, players int) *live.Stream[[]models.Game] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Game, error) {
		return r.Suitable(ctx, age, players)
	}, database.TableGames)
}
