package dto

import "github.com/danang-adp/timetable-api/internal/models"

// GenerateTimetableRequest scopes a generation run to a school and optionally
// a single class.
type GenerateTimetableRequest struct {
	SchoolID string  `json:"schoolId" validate:"required"`
	ClassID  *string `json:"classId,omitempty" validate:"omitempty,min=1"`
}

// GenerateTimetableResult is the structured outcome of a generation run.
// Failures are reported through Success/Message rather than errors.
type GenerateTimetableResult struct {
	Success        bool                      `json:"success"`
	Message        string                    `json:"message"`
	EntriesCreated int                       `json:"entriesCreated,omitempty"`
	Versions       []models.TimetableVersion `json:"versions,omitempty"`
}

// ValidationResult reports conflicts found in the active timetable.
type ValidationResult struct {
	IsValid   bool     `json:"isValid"`
	Conflicts []string `json:"conflicts"`
}

// OptimizationResult carries advisory suggestions; it never blocks anything.
type OptimizationResult struct {
	Suggestions []string `json:"suggestions"`
}

// ActiveTimetableQuery filters the active entry set by class.
type ActiveTimetableQuery struct {
	ClassID string `form:"classId" json:"classId"`
}

// VersionHistoryQuery lists version records for a class's current week.
type VersionHistoryQuery struct {
	ClassID string `form:"classId" json:"classId"`
}
