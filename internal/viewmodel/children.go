package viewmodel

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"vozhatapp/internal/models"
	"vozhatapp/internal/service"
)

type childrenSource struct {
	Notice
	Query    string
	Squad    string
	Children []models.Child
	Squads   []string
	Loaded   bool
}

// ChildrenListState is what the children list renders
type ChildrenListState struct {
	Query    string
	Squad    string
	Squads   []string
	Children []models.Child
	Loading  bool
	Empty    bool
	Message  string
}

func mergeChildren(s childrenSource) ChildrenListState {
	children := make([]models.Child, 0, len(s.Children))
	for _, c := range s.Children {
		if s.Squad == "" || c.SquadName == s.Squad {
			children = append(children, c)
		}
	}
	return ChildrenListState{
		Query:    s.Query,
		Squad:    s.Squad,
		Squads:   s.Squads,
		Children: children,
		Loading:  !s.Loaded,
		Empty:    s.Loaded && len(children) == 0,
		Message:  s.Message,
	}
}

// ChildrenList shows the camp's children with search and a squad filter
type ChildrenList struct {
	*Store[childrenSource, ChildrenListState]
	children *service.ChildService
	log      *zap.Logger
}

// NewChildrenList opens the list with an empty search
func NewChildrenList(ctx context.Context, children *service.ChildService, log *zap.Logger) *ChildrenList {
	v := &ChildrenList{
		Store:    NewStore(ctx, childrenSource{}, mergeChildren),
		children: children,
		log:      orNop(log),
	}
	Bind(v.Store, "squads", children.WatchSquads(v.Context()), func(s *childrenSource, squads []string, err error) {
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Squads = squads
	})
	v.Search("")
	return v
}

// Search changes the search text. Results of the previous text are dropped.
func (v *ChildrenList) Search(query string) {
	query = strings.TrimSpace(query)
	reset := func(s *childrenSource) {
		s.Query = query
		s.Children = nil
		s.Loaded = false
	}
	Rebind(v.Store, "children", v.children.WatchSearch(v.Context(), query), reset, func(s *childrenSource, children []models.Child, err error) {
		s.Loaded = true
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Children = children
	})
}

// FilterSquad narrows the list to one squad; empty shows every squad
func (v *ChildrenList) FilterSquad(squad string) {
	v.Update(func(s *childrenSource) { s.Squad = squad })
}

// Delete removes a child and everything recorded about them
func (v *ChildrenList) Delete(ctx context.Context, id int64) error {
	err := v.children.Delete(ctx, id)
	if err != nil {
		v.Update(func(s *childrenSource) { s.report(v.log, err) })
	}
	return err
}

// MessageShown dismisses the current message
func (v *ChildrenList) MessageShown() {
	v.Update(func(s *childrenSource) { s.clear() })
}

type childDetailSource struct {
	Notice
	Details       *models.ChildWithDetails
	Stats         models.AttendanceStats
	DetailsLoaded bool
}

// ChildDetailState is the child profile screen. NotFound is set once
// loading finished without a child, for example after deletion.
type ChildDetailState struct {
	Child          *models.Child
	Notes          []models.Note
	Achievements   []models.Achievement
	TotalPoints    int
	AttendanceRate float64
	Loading        bool
	NotFound       bool
	Message        string
}

// mergeChildDetail flattens the details and the attendance totals
func mergeChildDetail(s childDetailSource) ChildDetailState {
	st := ChildDetailState{
		AttendanceRate: s.Stats.Rate(),
		Loading:        !s.DetailsLoaded,
		Message:        s.Message,
	}
	if s.Details == nil {
		st.NotFound = s.DetailsLoaded
		return st
	}
	child := s.Details.Child
	st.Child = &child
	st.Notes = s.Details.Notes
	st.Achievements = s.Details.Achievements
	st.TotalPoints = s.Details.TotalPoints()
	return st
}

// ChildDetail shows one child with notes, achievements and attendance
type ChildDetail struct {
	*Store[childDetailSource, ChildDetailState]
	id           int64
	children     *service.ChildService
	notes        *service.NoteService
	achievements *service.AchievementService
	log          *zap.Logger
}

// NewChildDetail follows one child's profile, notes, achievements and attendance
func NewChildDetail(ctx context.Context, id int64, children *service.ChildService, notes *service.NoteService,
	achievements *service.AchievementService, log *zap.Logger) *ChildDetail {
	v := &ChildDetail{
		Store:        NewStore(ctx, childDetailSource{}, mergeChildDetail),
		id:           id,
		children:     children,
		notes:        notes,
		achievements: achievements,
		log:          orNop(log),
	}
	Bind(v.Store, "details", children.WatchDetails(v.Context(), id), func(s *childDetailSource, d *models.ChildWithDetails, err error) {
		s.DetailsLoaded = true
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Details = d
	})
	Bind(v.Store, "attendance", children.WatchAttendance(v.Context(), id), func(s *childDetailSource, stats models.AttendanceStats, err error) {
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.Stats = stats
	})
	return v
}

func (v *ChildDetail) fail(err error) error {
	if err != nil {
		v.Update(func(s *childDetailSource) { s.report(v.log, err) })
	}
	return err
}

// AddNote attaches a note to the child
func (v *ChildDetail) AddNote(ctx context.Context, n models.Note) error {
	n.ChildID = &v.id
	_, err := v.notes.Create(ctx, &n)
	return v.fail(err)
}

// Award gives the child an achievement
func (v *ChildDetail) Award(ctx context.Context, a models.Achievement) error {
	a.ChildID = v.id
	_, err := v.achievements.Award(ctx, &a)
	return v.fail(err)
}

// Save updates the child's profile
func (v *ChildDetail) Save(ctx context.Context, c models.Child) error {
	c.ID = v.id
	return v.fail(v.children.Update(ctx, &c))
}

// Delete removes the child. The screen then reports NotFound.
func (v *ChildDetail) Delete(ctx context.Context) error {
	return v.fail(v.children.Delete(ctx, v.id))
}

func (v *ChildDetail) MessageShown() {
	v.Update(func(s *childDetailSource) { s.clear() })
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
