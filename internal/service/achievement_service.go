package service

import (
	"context"
	"strings"

	"vozhatapp/internal/live"
	"vozhatapp/internal/models"
	"vozhatapp/internal/repository"
	"vozhatapp/internal/validation"
)

// AchievementService awards points and builds the leaderboard
type AchievementService struct {
	achievements *repository.AchievementRepository
	run          *Runner
}

// NewAchievementService creates a new achievement service
func NewAchievementService(achievements *repository.AchievementRepository, run *Runner) *AchievementService {
	return &AchievementService{achievements: achievements, run: run}
}

// WatchByChild streams a child's achievements
func (s *AchievementService) WatchByChild(ctx context.Context, childID int64) *live.Stream[[]models.Achievement] {
	return s.achievements.WatchByChild(ctx, childID)
}

// WatchTotalPoints streams a child's point total
func (s *AchievementService) WatchTotalPoints(ctx context.Context, childID int64) *live.Stream[int] {
	return s.achievements.WatchTotalPoints(ctx, childID)
}

// WatchRanking watches the leaderboard. An empty squad means the whole camp.
func (s *AchievementService) WatchRanking(ctx context.Context, squad string) *live.Stream[[]models.ChildRanking] {
	if squad == "" {
		return s.achievements.WatchRanking(ctx)
	}
	return s.achievements.WatchRankingBySquad(ctx, squad)
}

// Ranking returns every child with their total points, highest first
func (s *AchievementService) Ranking(ctx context.Context) ([]models.ChildRanking, error) {
	return read(ctx, s.run, "ranking", s.achievements.Ranking)
}

// RankingBySquad returns the leaderboard of one squad
func (s *AchievementService) RankingBySquad(ctx context.Context, squad string) ([]models.ChildRanking, error) {
	return read(ctx, s.run, "squad ranking", func(ctx context.Context) ([]models.ChildRanking, error) {
		return s.achievements.RankingBySquad(ctx, squad)
	})
}

// TotalPoints returns the sum of a child's points
func (s *AchievementService) TotalPoints(ctx context.Context, childID int64) (int, error) {
	return read(ctx, s.run, "total points", func(ctx context.Context) (int, error) {
		return s.achievements.TotalPointsForChild(ctx, childID)
	})
}

// Award validates and stores an achievement
func (s *AchievementService) Award(ctx context.Context, a *models.Achievement) (int64, error) {
	const op = "award achievement"
	a.Title = strings.TrimSpace(a.Title)
	if err := validation.Struct(a); err != nil {
		return 0, s.run.fail(op, err)
	}
	return s.run.Insert(ctx, op, func(ctx context.Context) (int64, error) {
		return s.achievements.Insert(ctx, a)
	})
}

// Update validates and saves an achievement
func (s *AchievementService) Update(ctx context.Context, a *models.Achievement) error {
	const op = "update achievement"
	a.Title = strings.TrimSpace(a.Title)
	if err := validation.Struct(a); err != nil {
		return s.run.fail(op, err)
	}
	return s.run.Write(ctx, op, func(ctx context.Context) error {
		return s.achievements.Update(ctx, a)
	})
}

// Delete removes an achievement
func (s *AchievementService) Delete(ctx context.Context, id int64) error {
	return s.run.Write(ctx, "delete achievement", func(ctx context.Context) error {
		return s.achievements.Delete(ctx, id)
	})
}
