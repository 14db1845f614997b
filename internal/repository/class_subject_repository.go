package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/danang-adp/timetable-api/internal/models"
)

// ClassSubjectRepository provides read access to class-subject assignments.
type ClassSubjectRepository struct {
	db *sqlx.DB
}

// NewClassSubjectRepository creates a new class-subject repository.
func NewClassSubjectRepository(db *sqlx.DB) *ClassSubjectRepository {
	return &ClassSubjectRepository{db: db}
}

// ListByClass returns the subject assignments of one class.
func (r *ClassSubjectRepository) ListByClass(ctx context.Context, classID string) ([]models.ClassSubject, error) {
	const query = `SELECT id, class_id, subject_id, weekly_frequency, teacher_id, created_at FROM class_subjects WHERE class_id = $1 ORDER BY created_at ASC`
	var assignments []models.ClassSubject
	if err := r.db.SelectContext(ctx, &assignments, query, classID); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return assignments, nil
}

// ListDetailByClass returns assignments enriched with subject and teacher
// names for list views.
func (r *ClassSubjectRepository) ListDetailByClass(ctx context.Context, classID string) ([]models.ClassSubjectDetail, error) {
	const query = `
SELECT cs.id, cs.class_id, cs.subject_id, cs.weekly_frequency, cs.teacher_id, cs.created_at,
       s.name AS subject_name, s.code AS subject_code, t.full_name AS teacher_name
FROM class_subjects cs
JOIN subjects s ON s.id = cs.subject_id
LEFT JOIN teachers t ON t.id = cs.teacher_id
WHERE cs.class_id = $1
ORDER BY s.name ASC`
	var assignments []models.ClassSubjectDetail
	if err := r.db.SelectContext(ctx, &assignments, query, classID); err != nil {
		return nil, fmt.Errorf("list class subject details: %w", err)
	}
	return assignments, nil
}
