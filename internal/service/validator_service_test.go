package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danang-adp/timetable-api/internal/models"
)

func TestValidatorValidateCleanTimetable(t *testing.T) {
	fx := newValidatorFixture()
	fx.entries.items = []models.TimetableEntry{
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 1},
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "TUESDAY", Period: 1},
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "WEDNESDAY", Period: 1},
	}
	svc := fx.build()

	result := svc.Validate(context.Background())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Conflicts)
}

func TestValidatorDetectsTeacherDoubleBooking(t *testing.T) {
	fx := newValidatorFixture()
	fx.entries.items = []models.TimetableEntry{
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 1},
		{ClassID: "class-2", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 1},
	}
	fx.assignments.byClass = map[string][]models.ClassSubject{
		"class-1": {{ClassID: "class-1", SubjectID: "math", WeeklyFrequency: 1}},
		"class-2": {{ClassID: "class-2", SubjectID: "math", WeeklyFrequency: 1}},
	}
	svc := fx.build()

	result := svc.Validate(context.Background())

	require.False(t, result.IsValid)
	require.Len(t, result.Conflicts, 1)
	assert.Contains(t, result.Conflicts[0], "Teacher Alice Rahma is double-booked on MONDAY period 1")
	assert.Contains(t, result.Conflicts[0], "7A")
	assert.Contains(t, result.Conflicts[0], "7B")
}

func TestValidatorDetectsRoomDoubleBooking(t *testing.T) {
	lab := "LAB-1"
	fx := newValidatorFixture()
	fx.entries.items = []models.TimetableEntry{
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 2, Room: &lab},
		{ClassID: "class-2", TeacherID: "t2", SubjectID: "math", Day: "MONDAY", Period: 2, Room: &lab},
	}
	fx.assignments.byClass = map[string][]models.ClassSubject{
		"class-1": {{ClassID: "class-1", SubjectID: "math", WeeklyFrequency: 1}},
		"class-2": {{ClassID: "class-2", SubjectID: "math", WeeklyFrequency: 1}},
	}
	svc := fx.build()

	result := svc.Validate(context.Background())

	require.False(t, result.IsValid)
	require.Len(t, result.Conflicts, 1)
	assert.Contains(t, result.Conflicts[0], "Room LAB-1 is double-booked on MONDAY period 2")
}

func TestValidatorDetectsFrequencyDrift(t *testing.T) {
	fx := newValidatorFixture()
	fx.entries.items = []models.TimetableEntry{
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 1},
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "TUESDAY", Period: 1},
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "WEDNESDAY", Period: 1},
	}
	fx.assignments.byClass = map[string][]models.ClassSubject{
		"class-1": {{ClassID: "class-1", SubjectID: "math", WeeklyFrequency: 5}},
	}
	svc := fx.build()

	result := svc.Validate(context.Background())

	require.False(t, result.IsValid)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "Insufficient periods for subject math in class 7A: 3 scheduled, 5 required", result.Conflicts[0])
}

func TestValidatorDetectsExcessPeriods(t *testing.T) {
	fx := newValidatorFixture()
	fx.entries.items = []models.TimetableEntry{
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 1},
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 2},
	}
	fx.assignments.byClass = map[string][]models.ClassSubject{
		"class-1": {{ClassID: "class-1", SubjectID: "math", WeeklyFrequency: 1}},
	}
	svc := fx.build()

	result := svc.Validate(context.Background())

	require.False(t, result.IsValid)
	require.Len(t, result.Conflicts, 1)
	assert.Contains(t, result.Conflicts[0], "Excess periods for subject math in class 7A: 2 scheduled, 1 required")
}

func TestValidatorIsIdempotent(t *testing.T) {
	fx := newValidatorFixture()
	fx.entries.items = []models.TimetableEntry{
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 1},
		{ClassID: "class-2", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 1},
		{ClassID: "class-1", TeacherID: "t2", SubjectID: "bio", Day: "TUESDAY", Period: 3},
		{ClassID: "class-2", TeacherID: "t2", SubjectID: "bio", Day: "TUESDAY", Period: 3},
	}
	fx.assignments.byClass = map[string][]models.ClassSubject{
		"class-1": {{ClassID: "class-1", SubjectID: "math", WeeklyFrequency: 1}},
		"class-2": {{ClassID: "class-2", SubjectID: "bio", WeeklyFrequency: 1}},
	}
	svc := fx.build()

	first := svc.Validate(context.Background())
	second := svc.Validate(context.Background())

	assert.Equal(t, first.Conflicts, second.Conflicts, "repeated runs report identical conflicts in identical order")
	assert.True(t, sort.StringsAreSorted(first.Conflicts))
}

func TestValidatorEntryLoadFailure(t *testing.T) {
	fx := newValidatorFixture()
	fx.entries.err = errors.New("connection reset")
	svc := fx.build()

	result := svc.Validate(context.Background())

	require.False(t, result.IsValid)
	require.Len(t, result.Conflicts, 1)
	assert.Contains(t, result.Conflicts[0], "unable to load timetable entries")
}

// --- Fixtures ---

type validatorFixture struct {
	entries     *activeEntryReaderStub
	classes     *allClassReaderStub
	teachers    *allTeacherReaderStub
	assignments *assignmentReaderStub
}

func newValidatorFixture() *validatorFixture {
	return &validatorFixture{
		entries: &activeEntryReaderStub{},
		classes: &allClassReaderStub{items: []models.Class{
			{ID: "class-1", SchoolID: "school-1", Name: "7A", Grade: "7"},
			{ID: "class-2", SchoolID: "school-1", Name: "7B", Grade: "7"},
		}},
		teachers: &allTeacherReaderStub{items: []models.Teacher{
			{ID: "t1", FullName: "Alice Rahma", Active: true},
			{ID: "t2", FullName: "Budi Santoso", Active: true},
		}},
		assignments: &assignmentReaderStub{byClass: map[string][]models.ClassSubject{
			"class-1": {{ClassID: "class-1", SubjectID: "math", WeeklyFrequency: 3}},
		}},
	}
}

func (fx *validatorFixture) build() *TimetableValidatorService {
	return NewTimetableValidatorService(fx.entries, fx.classes, fx.teachers, fx.assignments, nil, nil)
}

type activeEntryReaderStub struct {
	items []models.TimetableEntry
	err   error
}

func (s *activeEntryReaderStub) ListActive(_ context.Context) ([]models.TimetableEntry, error) {
	return s.items, s.err
}

type allClassReaderStub struct {
	items []models.Class
	err   error
}

func (s *allClassReaderStub) List(_ context.Context) ([]models.Class, error) {
	return s.items, s.err
}

type allTeacherReaderStub struct {
	items []models.Teacher
	err   error
}

func (s *allTeacherReaderStub) List(_ context.Context) ([]models.Teacher, error) {
	return s.items, s.err
}
