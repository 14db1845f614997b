package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danang-adp/timetable-api/internal/models"
)

// TimetableVersionRepository persists timetable versions and manages the
// single-active invariant per class and week.
type TimetableVersionRepository struct {
	db *sqlx.DB
}

// NewTimetableVersionRepository creates a new version repository.
func NewTimetableVersionRepository(db *sqlx.DB) *TimetableVersionRepository {
	return &TimetableVersionRepository{db: db}
}

// Create inserts a version row. A missing id is generated here.
func (r *TimetableVersionRepository) Create(ctx context.Context, version *models.TimetableVersion) error {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	version.CreatedAt = now
	version.UpdatedAt = now

	const query = `
INSERT INTO timetable_versions (id, class_id, version, week_start, week_end, active, created_at, updated_at)
VALUES (:id, :class_id, :version, :week_start, :week_end, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, version); err != nil {
		return fmt.Errorf("create timetable version: %w", err)
	}
	return nil
}

// ListForClassWeek returns the versions of a class whose week overlaps the
// given range, oldest first.
func (r *TimetableVersionRepository) ListForClassWeek(ctx context.Context, classID string, weekStart, weekEnd time.Time) ([]models.TimetableVersion, error) {
	const query = `
SELECT id, class_id, version, week_start, week_end, active, created_at, updated_at
FROM timetable_versions
WHERE class_id = $1 AND week_start <= $3 AND week_end >= $2
ORDER BY created_at ASC`
	var versions []models.TimetableVersion
	if err := r.db.SelectContext(ctx, &versions, query, classID, weekStart, weekEnd); err != nil {
		return nil, fmt.Errorf("list timetable versions: %w", err)
	}
	return versions, nil
}

// CountActive counts the active versions of a class within a week range.
func (r *TimetableVersionRepository) CountActive(ctx context.Context, classID string, weekStart, weekEnd time.Time) (int, error) {
	const query = `
SELECT COUNT(*) FROM timetable_versions
WHERE class_id = $1 AND week_start <= $3 AND week_end >= $2 AND active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID, weekStart, weekEnd); err != nil {
		return 0, fmt.Errorf("count active timetable versions: %w", err)
	}
	return count, nil
}

// SetActive marks one version active and deactivates its siblings for the
// same class and week inside a single transaction.
func (r *TimetableVersionRepository) SetActive(ctx context.Context, versionID, classID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set active version: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version models.TimetableVersion
	const findQuery = `SELECT id, class_id, version, week_start, week_end, active, created_at, updated_at FROM timetable_versions WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &version, findQuery, versionID); err != nil {
		return fmt.Errorf("find timetable version: %w", err)
	}

	const deactivateQuery = `
UPDATE timetable_versions SET active = FALSE, updated_at = NOW()
WHERE class_id = $1 AND week_start <= $3 AND week_end >= $2 AND id <> $4 AND active = TRUE`
	if _, err := tx.ExecContext(ctx, deactivateQuery, classID, version.WeekStart, version.WeekEnd, version.ID); err != nil {
		return fmt.Errorf("deactivate sibling versions: %w", err)
	}

	const activateQuery = `UPDATE timetable_versions SET active = TRUE, updated_at = NOW() WHERE id = $1`
	res, err := tx.ExecContext(ctx, activateQuery, version.ID)
	if err != nil {
		return fmt.Errorf("activate timetable version: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set active version: %w", err)
	}
	return nil
}
