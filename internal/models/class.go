package models

import "time"

// Class represents an academic class or section within a school.
type Class struct {
	ID                string    `db:"id" json:"id"`
	SchoolID          string    `db:"school_id" json:"school_id"`
	Name              string    `db:"name" json:"name"`
	Grade             string    `db:"grade" json:"grade"`
	HomeroomTeacherID *string   `db:"homeroom_teacher_id" json:"homeroom_teacher_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSubject binds a subject to a class with its weekly demand and an
// optional pre-assigned teacher.
type ClassSubject struct {
	ID              string    `db:"id" json:"id"`
	ClassID         string    `db:"class_id" json:"class_id"`
	SubjectID       string    `db:"subject_id" json:"subject_id"`
	WeeklyFrequency int       `db:"weekly_frequency" json:"weekly_frequency"`
	TeacherID       *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ClassSubjectDetail enriches an assignment with descriptive names for list views.
type ClassSubjectDetail struct {
	ClassSubject
	SubjectName string  `db:"subject_name" json:"subject_name"`
	SubjectCode string  `db:"subject_code" json:"subject_code"`
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
}
