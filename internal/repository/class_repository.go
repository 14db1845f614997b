package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/danang-adp/timetable-api/internal/models"
)

// ClassRepository provides read access to class records.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID loads a class by id.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, school_id, name, grade, homeroom_teacher_id, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// List returns every class ordered by grade and name.
func (r *ClassRepository) List(ctx context.Context) ([]models.Class, error) {
	const query = `SELECT id, school_id, name, grade, homeroom_teacher_id, created_at, updated_at FROM classes ORDER BY grade ASC, name ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// ListBySchool returns the classes of one school ordered by grade and name.
func (r *ClassRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.Class, error) {
	const query = `SELECT id, school_id, name, grade, homeroom_teacher_id, created_at, updated_at FROM classes WHERE school_id = $1 ORDER BY grade ASC, name ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, schoolID); err != nil {
		return nil, fmt.Errorf("list classes by school: %w", err)
	}
	return classes, nil
}
