package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/danang-adp/timetable-api/internal/models"
)

// TeacherRepository provides read access to teacher records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns every teacher ordered by name.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, school_id, email, full_name, phone, subject_ids, availability, active, created_at, updated_at FROM teachers ORDER BY full_name ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// ListActiveBySchool returns the active teachers of one school in roster
// order. The solver relies on this ordering for deterministic teacher picks.
func (r *TeacherRepository) ListActiveBySchool(ctx context.Context, schoolID string) ([]models.Teacher, error) {
	const query = `SELECT id, school_id, email, full_name, phone, subject_ids, availability, active, created_at, updated_at FROM teachers WHERE school_id = $1 AND active = TRUE ORDER BY full_name ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, schoolID); err != nil {
		return nil, fmt.Errorf("list active teachers by school: %w", err)
	}
	return teachers, nil
}
