package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/danang-adp/timetable-api/internal/models"
)

// SchoolRepository provides read access to school records.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository creates a new school repository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// FindByID loads a school by id.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT id, name, address, active, created_at, updated_at FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		return nil, err
	}
	return &school, nil
}
