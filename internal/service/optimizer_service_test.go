package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danang-adp/timetable-api/internal/models"
)

func TestOptimizerSuggestBalanced(t *testing.T) {
	fx := newOptimizerFixture()
	fx.entries.items = []models.TimetableEntry{
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 1},
		{ClassID: "class-1", TeacherID: "t2", SubjectID: "bio", Day: "MONDAY", Period: 2},
	}
	svc := fx.build()

	suggestions := svc.Suggest(context.Background())

	require.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0], "Timetable looks balanced")
}

func TestOptimizerSuggestEmptyTimetable(t *testing.T) {
	fx := newOptimizerFixture()
	svc := fx.build()

	suggestions := svc.Suggest(context.Background())

	require.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0], "No active timetable entries")
}

func TestOptimizerSuggestUnavailableOnError(t *testing.T) {
	fx := newOptimizerFixture()
	fx.entries.err = errors.New("connection reset")
	svc := fx.build()

	suggestions := svc.Suggest(context.Background())

	require.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0], "temporarily unavailable")
}

func TestOptimizerFlagsUnevenWorkload(t *testing.T) {
	fx := newOptimizerFixture()
	var entries []models.TimetableEntry
	for period := 1; period <= 4; period++ {
		entries = append(entries, models.TimetableEntry{
			ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: period,
		})
	}
	entries = append(entries, models.TimetableEntry{
		ClassID: "class-2", TeacherID: "t2", SubjectID: "bio", Day: "TUESDAY", Period: 1,
	})
	fx.entries.items = entries
	svc := fx.build()

	suggestions := svc.Suggest(context.Background())

	require.NotEmpty(t, suggestions)
	assert.Contains(t, suggestions[0], "Teaching load is uneven")
	assert.Contains(t, suggestions[0], "Alice Rahma has 4 periods")
	assert.Contains(t, suggestions[0], "Budi Santoso has 1")
}

func TestOptimizerFlagsAfternoonSkew(t *testing.T) {
	fx := newOptimizerFixture()
	fx.entries.items = []models.TimetableEntry{
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 1},
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 5},
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "bio", Day: "MONDAY", Period: 6},
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "hist", Day: "MONDAY", Period: 7},
	}
	svc := fx.build()

	suggestions := svc.Suggest(context.Background())

	require.NotEmpty(t, suggestions)
	found := false
	for _, suggestion := range suggestions {
		if strings.Contains(suggestion, "afternoon") {
			found = true
		}
	}
	assert.True(t, found, "expected an afternoon skew suggestion, got %v", suggestions)
}

func TestOptimizerFlagsConsecutivePeriods(t *testing.T) {
	fx := newOptimizerFixture()
	fx.entries.items = []models.TimetableEntry{
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 1},
		{ClassID: "class-1", TeacherID: "t1", SubjectID: "math", Day: "MONDAY", Period: 2},
		{ClassID: "class-1", TeacherID: "t2", SubjectID: "bio", Day: "MONDAY", Period: 3},
		{ClassID: "class-1", TeacherID: "t2", SubjectID: "bio", Day: "TUESDAY", Period: 1},
	}
	svc := fx.build()

	suggestions := svc.Suggest(context.Background())

	require.NotEmpty(t, suggestions)
	assert.Contains(t, suggestions[0], "back-to-back Mathematics periods on MONDAY (periods 1-2)")
	assert.Contains(t, suggestions[0], "Class 7A")
}

// --- Fixtures ---

type optimizerFixture struct {
	entries  *activeEntryReaderStub
	classes  *allClassReaderStub
	teachers *allTeacherReaderStub
	subjects *allSubjectReaderStub
}

func newOptimizerFixture() *optimizerFixture {
	return &optimizerFixture{
		entries: &activeEntryReaderStub{},
		classes: &allClassReaderStub{items: []models.Class{
			{ID: "class-1", Name: "7A", Grade: "7"},
			{ID: "class-2", Name: "7B", Grade: "7"},
		}},
		teachers: &allTeacherReaderStub{items: []models.Teacher{
			{ID: "t1", FullName: "Alice Rahma", Active: true},
			{ID: "t2", FullName: "Budi Santoso", Active: true},
		}},
		subjects: &allSubjectReaderStub{items: []models.Subject{
			{ID: "math", Name: "Mathematics"},
			{ID: "bio", Name: "Biology"},
		}},
	}
}

func (fx *optimizerFixture) build() *OptimizerService {
	return NewOptimizerService(fx.entries, fx.classes, fx.teachers, fx.subjects, nil)
}

type allSubjectReaderStub struct {
	items []models.Subject
	err   error
}

func (s *allSubjectReaderStub) List(_ context.Context) ([]models.Subject, error) {
	return s.items, s.err
}
