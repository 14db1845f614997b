package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/danang-adp/timetable-api/internal/models"
)

// TimetableEntryRepository persists scheduled lessons.
type TimetableEntryRepository struct {
	db *sqlx.DB
}

// NewTimetableEntryRepository creates a new entry repository.
func NewTimetableEntryRepository(db *sqlx.DB) *TimetableEntryRepository {
	return &TimetableEntryRepository{db: db}
}

// BulkCreate deactivates the previously active entries of every class in the
// batch and inserts the new entries as active, all in one transaction.
func (r *TimetableEntryRepository) BulkCreate(ctx context.Context, entries []models.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create entries: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	classIDs := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.ClassID]; ok {
			continue
		}
		seen[entry.ClassID] = struct{}{}
		classIDs = append(classIDs, entry.ClassID)
	}

	deactivateQuery, args, err := sqlx.In(`UPDATE timetable_entries SET active = FALSE, updated_at = NOW() WHERE class_id IN (?) AND active = TRUE`, classIDs)
	if err != nil {
		return fmt.Errorf("build deactivate entries query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(deactivateQuery), args...); err != nil {
		return fmt.Errorf("deactivate previous entries: %w", err)
	}

	const insertQuery = `
INSERT INTO timetable_entries (id, class_id, teacher_id, subject_id, day, period, start_time, end_time, room, version_id, active, created_at, updated_at)
VALUES (:id, :class_id, :teacher_id, :subject_id, :day, :period, :start_time, :end_time, :room, :version_id, :active, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		entries[i].Active = true
		entries[i].CreatedAt = now
		entries[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertQuery, entries[i]); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create entries: %w", err)
	}
	return nil
}

// ListActive returns every active entry ordered for display.
func (r *TimetableEntryRepository) ListActive(ctx context.Context) ([]models.TimetableEntry, error) {
	const query = `
SELECT id, class_id, teacher_id, subject_id, day, period, start_time, end_time, room, version_id, active, created_at, updated_at
FROM timetable_entries
WHERE active = TRUE
ORDER BY class_id ASC, day ASC, period ASC`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list active entries: %w", err)
	}
	return entries, nil
}

// ListActiveByClass returns the active entries of one class ordered for
// display.
func (r *TimetableEntryRepository) ListActiveByClass(ctx context.Context, classID string) ([]models.TimetableEntry, error) {
	const query = `
SELECT id, class_id, teacher_id, subject_id, day, period, start_time, end_time, room, version_id, active, created_at, updated_at
FROM timetable_entries
WHERE class_id = $1 AND active = TRUE
ORDER BY day ASC, period ASC`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, classID); err != nil {
		return nil, fmt.Errorf("list active entries by class: %w", err)
	}
	return entries, nil
}
