package service

import (
	"context"
	"strings"

	"vozhatapp/internal/live"
	"vozhatapp/internal/models"
	"vozhatapp/internal/repository"
	"vozhatapp/internal/validation"
)

// GameService manages the activity catalogue
type GameService struct {
	games *repository.GameRepository
	run   *Runner
}

// NewGameService creates a new game service
func NewGameService(games *repository.GameRepository, run *Runner) *GameService {
	return &GameService{games: games, run: run}
}

// WatchAll streams the whole catalogue
func (s *GameService) WatchAll(ctx context.Context) *live.Stream[[]models.Game] {
	return s.games.WatchAll(ctx)
}

// WatchCategories streams the distinct categories
func (s *GameService) WatchCategories(ctx context.Context) *live.Stream[[]string] {
	return s.games.WatchCategories(ctx)
}

// WatchFiltered watches games of one category, or all when category is empty
func (s *GameService) WatchFiltered(ctx context.Context, category string) *live.Stream[[]models.Game] {
	if category == "" {
		return s.games.WatchAll(ctx)
	}
	return s.games.WatchByCategory(ctx, category)
}

// WatchSearch streams games matching text; empty text streams all
func (s *GameService) WatchSearch(ctx context.Context, text string) *live.Stream[[]models.Game] {
	if strings.TrimSpace(text) == "" {
		return s.games.WatchAll(ctx)
	}
	return s.games.WatchSearch(ctx, text)
}

// WatchSuitable streams the games that fit age and players
func (s *GameService) WatchSuitable(ctx context.Context, age, players int) *live.Stream[[]models.Game] {
	return s.games.WatchSuitable(ctx, age, players)
}

// Get returns a game, or nil when it does not exist
func (s *GameService) Get(ctx context.Context, id int64) (*models.Game, error) {
	return read(ctx, s.run, "get game", func(ctx context.Context) (*models.Game, error) {
		return s.games.ByID(ctx, id)
	})
}

// Create validates and stores a new game
func (s *GameService) Create(ctx context.Context, g *models.Game) (int64, error) {
	const op = "create game"
	if err := validateGame(g); err != nil {
		return 0, s.run.fail(op, err)
	}
	return s.run.Insert(ctx, op, func(ctx context.Context) (int64, error) {
		return s.games.Insert(ctx, g)
	})
}

// Update validates and saves a game
func (s *GameService) Update(ctx context.Context, g *models.Game) error {
	const op = "update game"
	if err := validateGame(g); err != nil {
		return s.run.fail(op, err)
	}
	return s.run.Write(ctx, op, func(ctx context.Context) error {
		return s.games.Update(ctx, g)
	})
}

// Delete removes a game
func (s *GameService) Delete(ctx context.Context, id int64) error {
	return s.run.Write(ctx, "delete game", func(ctx context.Context) error {
		return s.games.Delete(ctx, id)
	})
}

func validateGame(g *models.Game) error {
	g.Title = strings.TrimSpace(g.Title)
	g.Category = strings.TrimSpace(g.Category)
	if err := validation.Struct(g); err != nil {
		return err
	}
	if g.MinAge != nil && g.MaxAge != nil && *g.MaxAge < *g.MinAge {
		return validation.ValidationError{Field: "MaxAge", Message: "maximum age is below minimum age"}
	}
	if g.MinPlayers != nil && g.MaxPlayers != nil && *g.MaxPlayers < *g.MinPlayers {
		return validation.ValidationError{Field: "MaxPlayers", Message: "maximum players is below minimum players"}
	}
	return nil
}
