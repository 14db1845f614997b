package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Teacher represents an instructor record. SubjectIDs and Availability are
// stored as JSONB columns and decoded on demand.
type Teacher struct {
	ID           string         `db:"id" json:"id"`
	SchoolID     string         `db:"school_id" json:"school_id"`
	Email        string         `db:"email" json:"email"`
	FullName     string         `db:"full_name" json:"full_name"`
	Phone        *string        `db:"phone" json:"phone,omitempty"`
	SubjectIDs   types.JSONText `db:"subject_ids" json:"subject_ids"`
	Availability types.JSONText `db:"availability" json:"availability"`
	Active       bool           `db:"active" json:"active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Subjects decodes the subject id list, returning nil on malformed payloads.
func (t Teacher) Subjects() []string {
	if len(t.SubjectIDs) == 0 {
		return nil
	}
	var ids []string
	_ = json.Unmarshal(t.SubjectIDs, &ids)
	return ids
}

// Teaches reports whether the teacher is qualified for the subject.
func (t Teacher) Teaches(subjectID string) bool {
	for _, id := range t.Subjects() {
		if id == subjectID {
			return true
		}
	}
	return false
}

// AvailabilityWindows decodes the per-day availability map.
func (t Teacher) AvailabilityWindows() TeacherAvailability {
	if len(t.Availability) == 0 {
		return nil
	}
	var windows TeacherAvailability
	_ = json.Unmarshal(t.Availability, &windows)
	return windows
}

// TeacherAvailability maps an uppercase day name to the "HH:MM-HH:MM" windows
// the teacher accepts on that day. A day with no windows is unrestricted:
// the teacher is treated as available for every slot of that day.
type TeacherAvailability map[string][]string

// Allows reports whether the teacher can take the given window on the day.
func (a TeacherAvailability) Allows(day, window string) bool {
	ranges := a[day]
	if len(ranges) == 0 {
		return true
	}
	for _, r := range ranges {
		if r == window {
			return true
		}
	}
	return false
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	SchoolID  string
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
