package service

import (
	"context"
	"strings"

	"vozhatapp/internal/live"
	"vozhatapp/internal/models"
	"vozhatapp/internal/repository"
	"vozhatapp/internal/validation"
)

// ChildService manages children and their derived statistics
type ChildService struct {
	children   *repository.ChildRepository
	attendance *repository.AttendanceRepository
	run        *Runner
}

// NewChildService creates a new child service
func NewChildService(children *repository.ChildRepository, attendance *repository.AttendanceRepository, run *Runner) *ChildService {
	return &ChildService{children: children, attendance: attendance, run: run}
}

// WatchAll streams every child
func (s *ChildService) WatchAll(ctx context.Context) *live.Stream[[]models.Child] {
	return s.children.WatchAll(ctx)
}

// WatchSearch watches children matching text. Blank text watches everyone.
func (s *ChildService) WatchSearch(ctx context.Context, text string) *live.Stream[[]models.Child] {
	if strings.TrimSpace(text) == "" {
		return s.children.WatchAll(ctx)
	}
	return s.children.WatchSearch(ctx, text)
}

// WatchBySquad streams the children of a squad
func (s *ChildService) WatchBySquad(ctx context.Context, squad string) *live.Stream[[]models.Child] {
	return s.children.WatchBySquad(ctx, squad)
}

// WatchSquads streams the distinct squad names
func (s *ChildService) WatchSquads(ctx context.Context) *live.Stream[[]string] {
	return s.children.WatchSquads(ctx)
}

// WatchDetails streams a child with notes and achievements
func (s *ChildService) WatchDetails(ctx context.Context, id int64) *live.Stream[*models.ChildWithDetails] {
	return s.children.WatchWithDetails(ctx, id)
}

// WatchAttendance streams a child's attendance totals
func (s *ChildService) WatchAttendance(ctx context.Context, id int64) *live.Stream[models.AttendanceStats] {
	return s.attendance.WatchCountForChild(ctx, id)
}

// Get returns the child or nil when it does not exist
func (s *ChildService) Get(ctx context.Context, id int64) (*models.Child, error) {
	return read(ctx, s.run, "get child", func(ctx context.Context) (*models.Child, error) {
		return s.children.ByID(ctx, id)
	})
}

// List returns every child ordered by name
func (s *ChildService) List(ctx context.Context) ([]models.Child, error) {
	return read(ctx, s.run, "list children", s.children.All)
}

// Search returns the children whose name or last name contains text
func (s *ChildService) Search(ctx context.Context, text string) ([]models.Child, error) {
	return read(ctx, s.run, "search children", func(ctx context.Context) ([]models.Child, error) {
		return s.children.Search(ctx, text)
	})
}

// Count returns the number of children
func (s *ChildService) Count(ctx context.Context) (int, error) {
	return read(ctx, s.run, "count children", s.children.Count)
}

// Create validates and stores a new child
func (s *ChildService) Create(ctx context.Context, c *models.Child) (int64, error) {
	const op = "create child"
	trimChild(c)
	if err := validation.Struct(c); err != nil {
		return 0, s.run.fail(op, err)
	}
	return s.run.Insert(ctx, op, func(ctx context.Context) (int64, error) {
		return s.children.Insert(ctx, c)
	})
}

// Update validates and replaces a child
func (s *ChildService) Update(ctx context.Context, c *models.Child) error {
	const op = "update child"
	trimChild(c)
	if err := validation.Struct(c); err != nil {
		return s.run.fail(op, err)
	}
	return s.run.Write(ctx, op, func(ctx context.Context) error {
		return s.children.Update(ctx, c)
	})
}

// Delete removes a child with everything recorded about them
func (s *ChildService) Delete(ctx context.Context, id int64) error {
	return s.run.Write(ctx, "delete child", func(ctx context.Context) error {
		return s.children.Delete(ctx, id)
	})
}

// AttendanceRate returns the share of events the child was present at,
// 0 when nothing was marked yet.
func (s *ChildService) AttendanceRate(ctx context.Context, id int64) (float64, error) {
	stats, err := read(ctx, s.run, "attendance rate", func(ctx context.Context) (models.AttendanceStats, error) {
		return s.attendance.CountForChild(ctx, id)
	})
	if err != nil {
		return 0, err
	}
	return stats.Rate(), nil
}

func trimChild(c *models.Child) {
	c.Name = strings.TrimSpace(c.Name)
	c.LastName = strings.TrimSpace(c.LastName)
	c.SquadName = strings.TrimSpace(c.SquadName)
}
