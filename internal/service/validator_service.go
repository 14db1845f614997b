package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/danang-adp/timetable-api/internal/dto"
	"github.com/danang-adp/timetable-api/internal/models"
)

type activeEntryReader interface {
	ListActive(ctx context.Context) ([]models.TimetableEntry, error)
}

type allClassReader interface {
	List(ctx context.Context) ([]models.Class, error)
}

type allTeacherReader interface {
	List(ctx context.Context) ([]models.Teacher, error)
}

type validatorAssignmentReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.ClassSubject, error)
}

// TimetableValidatorService re-checks the committed active entry set for
// teacher double-booking, room double-booking, and weekly frequency drift.
// It is a pure read-side check and never mutates timetable state.
type TimetableValidatorService struct {
	entries     activeEntryReader
	classes     allClassReader
	teachers    allTeacherReader
	assignments validatorAssignmentReader
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewTimetableValidatorService wires validator dependencies.
func NewTimetableValidatorService(
	entries activeEntryReader,
	classes allClassReader,
	teachers allTeacherReader,
	assignments validatorAssignmentReader,
	metrics *MetricsService,
	logger *zap.Logger,
) *TimetableValidatorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableValidatorService{
		entries:     entries,
		classes:     classes,
		teachers:    teachers,
		assignments: assignments,
		metrics:     metrics,
		logger:      logger,
	}
}

// Validate inspects the entire active entry set. Unexpected persistence
// errors surface as an invalid result with a generic conflict message rather
// than an error.
func (s *TimetableValidatorService) Validate(ctx context.Context) *dto.ValidationResult {
	entries, err := s.entries.ListActive(ctx)
	if err != nil {
		s.logger.Error("validation failed to load entries", zap.Error(err))
		return &dto.ValidationResult{
			IsValid:   false,
			Conflicts: []string{"Validation failed: unable to load timetable entries."},
		}
	}

	classNames := s.classNameIndex(ctx)
	teacherNames := s.teacherNameIndex(ctx)

	conflicts := s.teacherConflicts(entries, classNames, teacherNames)
	conflicts = append(conflicts, s.roomConflicts(entries)...)

	frequency, err := s.frequencyConflicts(ctx, entries, classNames)
	if err != nil {
		s.logger.Error("validation failed to load assignments", zap.Error(err))
		conflicts = append(conflicts, "Validation failed: unable to load class subject assignments.")
	} else {
		conflicts = append(conflicts, frequency...)
	}

	// Sorted output keeps repeated validation runs byte-identical.
	sort.Strings(conflicts)

	if s.metrics != nil {
		s.metrics.SetValidationConflicts(len(conflicts))
	}
	return &dto.ValidationResult{IsValid: len(conflicts) == 0, Conflicts: conflicts}
}

func (s *TimetableValidatorService) teacherConflicts(entries []models.TimetableEntry, classNames, teacherNames map[string]string) []string {
	occupied := make(map[teacherSlotKey][]models.TimetableEntry)
	for _, entry := range entries {
		key := teacherSlotKey{entry.TeacherID, entry.Day, entry.Period}
		occupied[key] = append(occupied[key], entry)
	}

	var conflicts []string
	for key, clashing := range occupied {
		if len(clashing) < 2 {
			continue
		}
		names := make([]string, 0, len(clashing))
		for _, entry := range clashing {
			names = append(names, displayName(classNames, entry.ClassID))
		}
		sort.Strings(names)
		conflicts = append(conflicts, fmt.Sprintf(
			"Teacher %s is double-booked on %s period %d (classes: %s)",
			displayName(teacherNames, key.TeacherID), key.Day, key.Period, strings.Join(names, ", ")))
	}
	return conflicts
}

type roomSlotKey struct {
	Room   string
	Day    string
	Period int
}

func (s *TimetableValidatorService) roomConflicts(entries []models.TimetableEntry) []string {
	occupied := make(map[roomSlotKey]int)
	for _, entry := range entries {
		if entry.Room == nil || *entry.Room == "" {
			continue
		}
		occupied[roomSlotKey{*entry.Room, entry.Day, entry.Period}]++
	}

	var conflicts []string
	for key, count := range occupied {
		if count < 2 {
			continue
		}
		conflicts = append(conflicts, fmt.Sprintf(
			"Room %s is double-booked on %s period %d (%d entries)",
			key.Room, key.Day, key.Period, count))
	}
	return conflicts
}

func (s *TimetableValidatorService) frequencyConflicts(ctx context.Context, entries []models.TimetableEntry, classNames map[string]string) ([]string, error) {
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, err
	}

	scheduled := make(map[string]map[string]int)
	for _, entry := range entries {
		if scheduled[entry.ClassID] == nil {
			scheduled[entry.ClassID] = make(map[string]int)
		}
		scheduled[entry.ClassID][entry.SubjectID]++
	}

	var conflicts []string
	for _, class := range classes {
		assignments, err := s.assignments.ListByClass(ctx, class.ID)
		if err != nil {
			return nil, err
		}
		for _, assignment := range assignments {
			actual := scheduled[class.ID][assignment.SubjectID]
			switch {
			case actual < assignment.WeeklyFrequency:
				conflicts = append(conflicts, fmt.Sprintf(
					"Insufficient periods for subject %s in class %s: %d scheduled, %d required",
					assignment.SubjectID, displayName(classNames, class.ID), actual, assignment.WeeklyFrequency))
			case actual > assignment.WeeklyFrequency:
				conflicts = append(conflicts, fmt.Sprintf(
					"Excess periods for subject %s in class %s: %d scheduled, %d required",
					assignment.SubjectID, displayName(classNames, class.ID), actual, assignment.WeeklyFrequency))
			}
		}
	}
	return conflicts, nil
}

func (s *TimetableValidatorService) classNameIndex(ctx context.Context) map[string]string {
	names := make(map[string]string)
	classes, err := s.classes.List(ctx)
	if err != nil {
		s.logger.Warn("failed to load class names for validation", zap.Error(err))
		return names
	}
	for _, class := range classes {
		names[class.ID] = class.Name
	}
	return names
}

func (s *TimetableValidatorService) teacherNameIndex(ctx context.Context) map[string]string {
	names := make(map[string]string)
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		s.logger.Warn("failed to load teacher names for validation", zap.Error(err))
		return names
	}
	for _, teacher := range teachers {
		names[teacher.ID] = teacher.FullName
	}
	return names
}

func displayName(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id
}
