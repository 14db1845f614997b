package service

import "github.com/danang-adp/timetable-api/internal/models"

// ScheduleConstraint is the weekly demand for one (class, subject) pair,
// optionally bound to a pre-assigned teacher. Constraints are rebuilt for
// every generation run and never persisted.
type ScheduleConstraint struct {
	ClassID             string
	SubjectID           string
	PeriodsNeeded       int
	PreferredTeacherIDs []string
}

// BuildConstraints converts class-subject assignment records into solver
// constraints. No filtering happens here: a zero frequency or dangling
// subject id passes through and is handled defensively by the solver.
func BuildConstraints(assignments []models.ClassSubject) []ScheduleConstraint {
	constraints := make([]ScheduleConstraint, 0, len(assignments))
	for _, assignment := range assignments {
		constraint := ScheduleConstraint{
			ClassID:       assignment.ClassID,
			SubjectID:     assignment.SubjectID,
			PeriodsNeeded: assignment.WeeklyFrequency,
		}
		if assignment.TeacherID != nil && *assignment.TeacherID != "" {
			constraint.PreferredTeacherIDs = []string{*assignment.TeacherID}
		}
		constraints = append(constraints, constraint)
	}
	return constraints
}
