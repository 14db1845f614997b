package models

import "time"

// TimetableVersion is an immutable snapshot label for one class's weekly
// schedule. Exactly one version per (class, week) is active at a time; the
// toggle is the only mutation a version ever sees.
type TimetableVersion struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Version   string    `db:"version" json:"version"`
	WeekStart time.Time `db:"week_start" json:"week_start"`
	WeekEnd   time.Time `db:"week_end" json:"week_end"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableEntry is one scheduled lesson cell. Entries are created in bulk by
// the solver and only ever mutated by flipping Active to false when their
// version is superseded.
type TimetableEntry struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Day       string    `db:"day" json:"day"`
	Period    int       `db:"period" json:"period"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Room      *string   `db:"room" json:"room,omitempty"`
	VersionID string    `db:"version_id" json:"version_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Window formats the entry's wall-clock range as "start-end", matching the
// representation used by teacher availability windows.
func (e TimetableEntry) Window() string {
	return e.StartTime + "-" + e.EndTime
}
