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

const childColumns = `id, name, last_name, age, squad_name, photo_url, parent_phone,
	parent_email, address, medical_notes, created_at`

// ChildRepository handles database operations for children
type ChildRepository struct {
	db *database.DB
}

// NewChildRepository creates a new child repository
func NewChildRepository(db *database.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

func scanChild(s rowScanner) (models.Child, error) {
	var (
		c                                     models.Child
		photo, phone, email, address, medical sql.NullString
		createdAt                             int64
	)
	if err := s.Scan(&c.ID, &c.Name, &c.LastName, &c.Age, &c.SquadName,
		&photo, &phone, &email, &address, &medical, &createdAt); err != nil {
		return c, fmt.Errorf("failed to scan child: %w", err)
	}
	c.PhotoURL = database.StringPtr(photo)
	c.ParentPhone = database.StringPtr(phone)
	c.ParentEmail = database.StringPtr(email)
	c.Address = database.StringPtr(address)
	c.MedicalNotes = database.StringPtr(medical)
	c.CreatedAt = database.FromMillis(createdAt)
	return c, nil
}

// All returns every child ordered by name
func (r *ChildRepository) All(ctx context.Context) ([]models.Child, error) {
	query := "SELECT " + childColumns + " FROM children ORDER BY name ASC, last_name ASC, id ASC"
	children, err := queryList(ctx, r.db, scanChild, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	return children, nil
}

// ByID retrieves a child by ID
func (r *ChildRepository) ByID(ctx context.Context, id int64) (*models.Child, error) {
	query := "SELECT " + childColumns + " FROM children WHERE id = ?"
	c, err := scanChild(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return &c, nil
}

// BySquad returns the children of one squad
func (r *ChildRepository) BySquad(ctx context.Context, squad string) ([]models.Child, error) {
	query := "SELECT " + childColumns + " FROM children WHERE squad_name = ? ORDER BY name ASC, last_name ASC, id ASC"
	children, err := queryList(ctx, r.db, scanChild, query, squad)
	if err != nil {
		return nil, fmt.Errorf("failed to query squad: %w", err)
	}
	return children, nil
}

// Search matches text against first or last name, ignoring case
func (r *ChildRepository) Search(ctx context.Context, text string) ([]models.Child, error) {
	query := "SELECT " + childColumns + ` FROM children
		WHERE LOWER(name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!'
		ORDER BY name ASC, last_name ASC, id ASC`
	p := likePattern(text)
	children, err := queryList(ctx, r.db, scanChild, query, p, p)
	if err != nil {
		return nil, fmt.Errorf("failed to search children: %w", err)
	}
	return children, nil
}

// Squads returns the distinct squad names in alphabetical order
func (r *ChildRepository) Squads(ctx context.Context) ([]string, error) {
	squads, err := queryList(ctx, r.db, func(s rowScanner) (string, error) {
		var name string
		err := s.Scan(&name)
		return name, err
	}, "SELECT DISTINCT squad_name FROM children ORDER BY squad_name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query squads: %w", err)
	}
	return squads, nil
}

// Count returns the number of children
func (r *ChildRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM children").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count children: %w", err)
	}
	return n, nil
}

// Insert stores a new child and returns its ID. A zero CreatedAt is set to now.
func (r *ChildRepository) Insert(ctx context.Context, c *models.Child) (int64, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	query := `INSERT INTO children (name, last_name, age, squad_name, photo_url, parent_phone,
		parent_email, address, medical_notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(ctx, query, c.Name, c.LastName, c.Age, c.SquadName,
		database.NullString(c.PhotoURL), database.NullString(c.ParentPhone),
		database.NullString(c.ParentEmail), database.NullString(c.Address),
		database.NullString(c.MedicalNotes), database.ToMillis(c.CreatedAt))
	if err != nil {
		return 0, wrapWrite(r.db.Dialect, "create child", err)
	}
	c.ID = id
	r.db.Changed(database.TableChildren)
	return id, nil
}

// Update replaces every column of the child with the given ID
func (r *ChildRepository) Update(ctx context.Context, c *models.Child) error {
	query := `UPDATE children SET name = ?, last_name = ?, age = ?, squad_name = ?, photo_url = ?,
		parent_phone = ?, parent_email = ?, address = ?, medical_notes = ?, created_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, c.Name, c.LastName, c.Age, c.SquadName,
		database.NullString(c.PhotoURL), database.NullString(c.ParentPhone),
		database.NullString(c.ParentEmail), database.NullString(c.Address),
		database.NullString(c.MedicalNotes), database.ToMillis(c.CreatedAt), c.ID)
	if err != nil {
		return wrapWrite(r.db.Dialect, "update child", err)
	}
	if err := requireAffected(res); err != nil {
		return fmt.Errorf("failed to update child %d: %w", c.ID, err)
	}
	r.db.Changed(database.TableChildren)
	return nil
}

// Delete removes a child together with its attendance, achievements and
// notes in one transaction. Deleting a missing child is not an error.
func (r *ChildRepository) Delete(ctx context.Context, id int64) error {
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, q := range []string{
			"DELETE FROM attendance WHERE child_id = ?",
			"DELETE FROM achievements WHERE child_id = ?",
			"DELETE FROM notes WHERE child_id = ?",
			"DELETE FROM children WHERE id = ?",
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapWrite(r.db.Dialect, "delete child", err)
	}
	r.db.Changed(database.TableChildren, database.TableAttendance,
		database.TableAchievements, database.TableNotes)
	return nil
}

// WithDetails loads a child with their notes and achievements.
// Returns nil when the child does not exist.
func (r *ChildRepository) WithDetails(ctx context.Context, id int64) (*models.ChildWithDetails, error) {
	child, err := r.ByID(ctx, id)
	if err != nil || child == nil {
		return nil, err
	}
	notes, err := queryList(ctx, r.db, scanNote,
		"SELECT "+noteColumns+" FROM notes WHERE child_id = ? ORDER BY created_at DESC, id DESC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query child notes: %w", err)
	}
	achievements, err := queryList(ctx, r.db, scanAchievement,
		"SELECT "+achievementColumns+" FROM achievements WHERE child_id = ? ORDER BY achieved_at DESC, id DESC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query child achievements: %w", err)
	}
	return &models.ChildWithDetails{Child: *child, Notes: notes, Achievements: achievements}, nil
}

// WatchAll streams every child
func (r *ChildRepository) WatchAll(ctx context.Context) *live.Stream[[]models.Child] {
	return live.Watch(ctx, r.db.Hub, r.All, database.TableChildren)
}

// WatchByID streams one child; the value is nil once it is deleted
func (r *ChildRepository) WatchByID(ctx context.Context, id int64) *live.Stream[*models.Child] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) (*models.Child, error) {
		return r.ByID(ctx, id)
	}, database.TableChildren)
}

// WatchBySquad streams the children of a squad
func (r *ChildRepository) WatchBySquad(ctx context.Context, squad string) *live.Stream[[]models.Child] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Child, error) {
		return r.BySquad(ctx, squad)
	}, database.TableChildren)
}

// WatchSearch streams the children matching text
func (r *ChildRepository) WatchSearch(ctx context.Context, text string) *live.Stream[[]models.Child] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) ([]models.Child, error) {
		return r.Search(ctx, text)
	}, database.TableChildren)
}

// WatchSquads streams the distinct squad names
func (r *ChildRepository) WatchSquads(ctx context.Context) *live.Stream[[]string] {
	return live.Watch(ctx, r.db.Hub, r.Squads, database.TableChildren)
}

// WatchWithDetails re-emits when the child, their notes or achievements change
func (r *ChildRepository) WatchWithDetails(ctx context.Context, id int64) *live.Stream[*models.ChildWithDetails] {
	return live.Watch(ctx, r.db.Hub, func(ctx context.Context) (*models.ChildWithDetails, error) {
		return r.WithDetails(ctx, id)
	}, database.TableChildren, database.TableNotes, database.TableAchievements)
}
