package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vozhatapp/internal/database"
	"vozhatapp/internal/live"
	"vozhatapp/internal/models"
)

const achievementColumns = "id, child_id, title, description, points, achieved_at"

// AchievementRepository handles database operations for achievements
type AchievementRepository struct {
	db *database.DB
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *database.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

func scanAchievement(s rowScanner) (models.Achievement, error) {
	var (
		a           models.Achievement
		description sql.NullString
		date        int64
	)
	if err := s.Scan(&a.ID, &a.ChildID, &a.Title, &description, &a.Points, &date); err != nil {
		return a, fmt.Errorf("failed to scan achievement: %w", err)
	}
	a.Description = database.StringPtr(description)
	a.Date = database.FromMillis(date)
	return a, nil
}

// All retrieves every achievement, newest first
func (r *AchievementRepository) All(ctx context.Context) ([]models.Achievement, error) {
	items, err := queryList(ctx, r.db, scanAchievement,
		"SELECT "+achievementColumns+" FROM achievements ORDER BY achieved_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	return items, nil
}

// ByID retrieves an achievement by ID
func (r *AchievementRepository) ByID(ctx context.Context, id int64) (*models.Achievement, error) {
	a, err := scanAchievement(r.db.QueryRowContext(ctx,
		"SELECT "+achievementColumns+" FROM achievements WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get achievement: %w", err)
	}
	return &a, nil
}

// ByChild retrieves a child's achievements, newest first
func (r *AchievementRepository) ByChild(ctx context.Context, childID int64) ([]models.Achievement, error) {
	items, err := queryList(ctx, r.db, scanAchievement,
		"SELECT "+achievementColumns+" FROM achievements WHERE child_id = ? ORDER BY achieved_at DESC, id DESC", childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query child achievements: %w", err)
	}
	return items, nil
}

// Insert stores a new achievement and returns its ID
func (r *AchievementRepository) Insert(ctx context.Context, a *models.Achievement) (int64, error) {
	if a.Date.IsZero() {
		a.Date = time.Now()
	}
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO achievements (child_id, title, description, points, achieved_at) VALUES (?, ?, ?, ?, ?)",
		a.ChildID, a.Title, database.NullString(a.Description), a.Points, database.ToMillis(a.Date))
	if err != nil {
		return 0, wrapWrite(r.db.Dialect, "create achievement", err)
	}
	a.ID = id
	r.db.Changed(database.TableAchievements)
	return id, nil
}

// Update replaces an achievement's fields
func (r *AchievementRepository) Update(ctx context.Context, a *models.Achievement) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE achievements SET child_id = ?, title = ?, description = ?, points = ?, achieved_at = ? WHERE id = ?",
		a.ChildID, a.Title, database.NullString(a.Description), a.Points, database.ToMillis(a.Date), a.ID)
	if err != nil {
		return wrapWrite(r.db.Dialect, "update achievement", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("failed to update achievement %d: %w", a.ID, err)
	}
	r.db.Changed(database.TableAchievements)
	return nil
}

// Delete removes an achievement
func (r *AchievementRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM achievements WHERE id = ?", id); err != nil {
		return wrapWrite(r.db.Dialect, "delete achievement", err)
	}
	r.db.Changed(database.TableAchievements)
	return nil
}

// TotalPointsForChild sums a child's points, 0 when they have none
func (r *AchievementRepository) TotalPointsForChild(ctx context.Context, childID int64) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(points), 0) FROM achievements WHERE child_id = ?", childID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum points: %w", err)
	}
	return total, nil
}

const rankingQuery = `
	SELECT c.id, c.name, c.last_name, c.squad_name, COALESCE(SUM(a.points), 0) AS total_points, c.photo_url
	FROM children c
	LEFT JOIN achievements a ON a.child_id = c.id
	%s
	GROUP BY c.id, c.name, c.last_name, c.squad_name, c.photo_url
	ORDER BY total_points DESC, c.id ASC
`

func scanRanking(s rowScanner) (models.ChildRanking, error) {
	var (
		row   models.ChildRanking
		photo sql.NullString
	)
	if err := s.Scan(&row.ID, &row.Name, &row.LastName, &row.SquadName, &row.TotalPoints, &photo); err != nil {
		return row, fmt.Errorf("failed to scan ranking: %w", err)
	}
	row.PhotoURL = database.StringPtr(photo)
	return row, nil
}

// Ranking lists every child with their total points, highest first.
// Children without achievements appear with 0. Ties are ordered by child ID.
func (r *AchievementRepository) Ranking(ctx context.Context) ([]models.ChildRanking, error) {
	rows, err := queryList(ctx, r.db, scanRanking, fmt.Sprintf(rankingQuery, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}
	return rows, nil
}

// RankingBySquad is Ranking limited to one squad
func (r *AchievementRepository) RankingBySquad(ctx context.Context, squad string) ([]models.ChildRanking, error) {
	rows, err := queryList(ctx, r.db, scanRanking, fmt.Sprintf(rankingQuery, "WHERE c.squad_name = ?"), squad)
	if err != nil {
		return nil, fmt.Errorf("failed to query squad ranking: %w", err)
	}
	return rows, nil
}

// WatchByChild streams a child's achievements
func (r *AchievementRepository) WatchByChild(ctx context.Context, childID int64) *live.Stream[[]models.Achievement] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Achievement, error) {
		return r.ByChild(ctx, childID)
	}, database.TableAchievements)
}

// WatchTotalPoints streams the sum of a child's points
func (r *AchievementRepository) WatchTotalPoints(ctx context.Context, childID int64) *live.Stream[int] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) (int, error) {
		return r.TotalPointsForChild(ctx, childID)
	}, database.TableAchievements)
}

// WatchRanking streams the camp leaderboard
func (r *AchievementRepository) WatchRanking(ctx context.Context) *live.Stream[[]models.ChildRanking] {
	return live.Watch(ctx, r.db.Hub, r.Ranking, database.TableAchievements, database.TableChildren)
}

// WatchRankingBySquad streams the leaderboard of one squad
func (r *AchievementRepository) WatchRankingBySquad(ctx context.Context, squad string) *live.Stream[[]models.ChildRanking] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.ChildRanking, error) {
		return r.RankingBySquad(ctx, squad)
	}, database.TableAchievements, database.TableChildren)
}
