package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/danang-adp/timetable-api/internal/models"
)

// StructureRepository provides read access to timetable grid configuration.
type StructureRepository struct {
	db *sqlx.DB
}

// NewStructureRepository creates a new structure repository.
func NewStructureRepository(db *sqlx.DB) *StructureRepository {
	return &StructureRepository{db: db}
}

// FindBySchool loads the grid configuration of one school. Absence is
// reported as sql.ErrNoRows; callers fall back to the default grid.
func (r *StructureRepository) FindBySchool(ctx context.Context, schoolID string) (*models.TimetableStructure, error) {
	const query = `SELECT id, school_id, working_days, periods, created_at, updated_at FROM timetable_structures WHERE school_id = $1`
	var structure models.TimetableStructure
	if err := r.db.GetContext(ctx, &structure, query, schoolID); err != nil {
		return nil, err
	}
	return &structure, nil
}
