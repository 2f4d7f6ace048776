package viewmodel

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"vozhatapp/internal/models"
	"vozhatapp/internal/service"
)

type gamesSource struct {
	Notice
	Query      string
	Category   string
	Games      []models.Game
	Categories []string
	Loaded     bool
}

type GamesState struct {
	Query      string
	Category   string
	Categories []string
	Games      []models.Game
	Loading    bool
	Empty      bool
	Message    string
}

// mergeGames narrows the search results to the selected category
func mergeGames(s gamesSource) GamesState {
	games := make([]models.Game, 0, len(s.Games))
	for _, g := range s.Games {
		if s.Category == "" || g.Category == s.Category {
			games = append(games, g)
		}
	}
	return GamesState{
		Query:      s.Query,
		Category:   s.Category,
		Categories: s.Categories,
		Games:      games,
		Loading:    !s.Loaded,
		Empty:      s.Loaded && len(games) == 0,
		Message:    s.Message,
	}
}

// Games is the activity catalogue with search and a category filter
type Games struct {
	*Store[gamesSource, GamesState]
	games *service.GameService
	log   *zap.Logger
}

// NewGames opens the catalogue with an empty search
func NewGames(ctx context.Context, games *service.GameService, log *zap.Logger) *Games {
	v := &Games{
		Store: NewStore(ctx, gamesSource{}, mergeGames),
		games: games,
		log:   orNop(log),
	}
	Bind(v.Store, "categories", games.WatchCategories(v.Context()), func(s *gamesSource, c []string, err error) {
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Categories = c
	})
	v.Search("")
	return v
}

// Search changes the search text. Results of the previous text are dropped.
func (v *Games) Search(query string) {
	query = strings.TrimSpace(query)
	reset := func(s *gamesSource) {
		s.Query = query
		s.Games = nil
		s.Loaded = false
	}
	Rebind(v.Store, "games", v.games.WatchSearch(v.Context(), query), reset, func(s *gamesSource, g []models.Game, err error) {
		s.Loaded = true
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Games = g
	})
}

// SelectCategory narrows the results to one category; empty shows all
func (v *Games) SelectCategory(category string) {
	v.Update(func(s *gamesSource) { s.Category = category })
}

func (v *Games) MessageShown() {
	v.Update(func(s *gamesSource) { s.clear() })
}
