package viewmodel

import (
	"context"

	"go.uber.org/zap"

	"vozhatapp/internal/models"
	"vozhatapp/internal/service"
)

type rankingSource struct {
	Notice
	Squad   string
	Squads  []string
	Ranking []models.ChildRanking
	Loaded  bool
}

// RankEntry is a leaderboard line. Equal points share a place.
type RankEntry struct {
	Place int
	models.ChildRanking
}

type RankingState struct {
	Squad   string
	Squads  []string
	Entries []RankEntry
	Loading bool
	Message string
}

// mergeRanking assigns places; equal points share one
func mergeRanking(s rankingSource) RankingState {
	entries := make([]RankEntry, len(s.Ranking))
	place := 0
	for i, r := range s.Ranking {
		if i == 0 || r.TotalPoints != s.Ranking[i-1].TotalPoints {
			place = i + 1
		}
		entries[i] = RankEntry{Place: place, ChildRanking: r}
	}
	return RankingState{
		Squad:   s.Squad,
		Squads:  s.Squads,
		Entries: entries,
		Loading: !s.Loaded,
		Message: s.Message,
	}
}

// Ranking is the points leaderboard of the camp or of one squad
type Ranking struct {
	*Store[rankingSource, RankingState]
	achievements *service.AchievementService
	log          *zap.Logger
}

// NewRanking opens the whole camp's leaderboard
func NewRanking(ctx context.Context, achievements *service.AchievementService, children *service.ChildService, log *zap.Logger) *Ranking {
	v := &Ranking{
		Store:        NewStore(ctx, rankingSource{}, mergeRanking),
		achievements: achievements,
		log:          orNop(log),
	}
	Bind(v.Store, "squads", children.WatchSquads(v.Context()), func(s *rankingSource, squads []string, err error) {
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Squads = squads
	})
	v.SelectSquad("")
	return v
}

// SelectSquad limits the leaderboard to squad; empty means the whole camp
func (v *Ranking) SelectSquad(squad string) {
	reset := func(s *rankingSource) {
		s.Squad = squad
		s.Ranking = nil
		s.Loaded = false
	}
	Rebind(v.Store, "ranking", v.achievements.WatchRanking(v.Context(), squad), reset, func(s *rankingSource, r []models.ChildRanking, err error) {
		s.Loaded = true
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Ranking = r
	})
}

func (v *Ranking) MessageShown() {
	v.Update(func(s *rankingSource) { s.clear() })
}
