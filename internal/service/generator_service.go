package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/danang-adp/timetable-api/internal/dto"
	"github.com/danang-adp/timetable-api/internal/models"
)

type generatorSchoolReader interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

type generatorClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListBySchool(ctx context.Context, schoolID string) ([]models.Class, error)
}

type generatorSubjectReader interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.Subject, error)
}

type generatorTeacherReader interface {
	ListActiveBySchool(ctx context.Context, schoolID string) ([]models.Teacher, error)
}

type generatorAssignmentReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.ClassSubject, error)
}

type generatorStructureReader interface {
	FindBySchool(ctx context.Context, schoolID string) (*models.TimetableStructure, error)
}

type versionRepository interface {
	ListForClassWeek(ctx context.Context, classID string, weekStart, weekEnd time.Time) ([]models.TimetableVersion, error)
	Create(ctx context.Context, version *models.TimetableVersion) error
	SetActive(ctx context.Context, versionID, classID string) error
	CountActive(ctx context.Context, classID string, weekStart, weekEnd time.Time) (int, error)
}

type entryWriter interface {
	BulkCreate(ctx context.Context, entries []models.TimetableEntry) error
}

type timetableInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// GeneratorConfig tunes version labeling.
type GeneratorConfig struct {
	VersionPrefix string
}

// TimetableGeneratorService orchestrates a generation run: grid building,
// constraint building, solving, and version bookkeeping. All failures are
// reported through the structured result; callers never handle errors.
type TimetableGeneratorService struct {
	schools     generatorSchoolReader
	classes     generatorClassReader
	subjects    generatorSubjectReader
	teachers    generatorTeacherReader
	assignments generatorAssignmentReader
	structures  generatorStructureReader
	versions    versionRepository
	entries     entryWriter
	cache       timetableInvalidator
	solver      *Solver
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         GeneratorConfig
}

// NewTimetableGeneratorService wires generator dependencies.
func NewTimetableGeneratorService(
	schools generatorSchoolReader,
	classes generatorClassReader,
	subjects generatorSubjectReader,
	teachers generatorTeacherReader,
	assignments generatorAssignmentReader,
	structures generatorStructureReader,
	versions versionRepository,
	entries entryWriter,
	cache timetableInvalidator,
	solver *Solver,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GeneratorConfig,
) *TimetableGeneratorService {
	if solver == nil {
		solver = NewSolver(0, 0, logger)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.VersionPrefix == "" {
		cfg.VersionPrefix = "v0."
	}
	return &TimetableGeneratorService{
		schools:     schools,
		classes:     classes,
		subjects:    subjects,
		teachers:    teachers,
		assignments: assignments,
		structures:  structures,
		versions:    versions,
		entries:     entries,
		cache:       cache,
		solver:      solver,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate runs the full scheduling pipeline for one class or a whole school.
func (s *TimetableGeneratorService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) *dto.GenerateTimetableResult {
	started := time.Now()
	result := s.generate(ctx, req)

	outcome := "failure"
	if result.Success {
		outcome = "success"
	}
	if s.metrics != nil {
		s.metrics.ObserveGeneration(outcome, result.EntriesCreated, time.Since(started))
	}
	return result
}

func (s *TimetableGeneratorService) generate(ctx context.Context, req dto.GenerateTimetableRequest) *dto.GenerateTimetableResult {
	if err := s.validator.Struct(req); err != nil {
		return s.fail("A school id is required to generate a timetable.")
	}

	school, err := s.schools.FindByID(ctx, req.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.fail("School not found. Ensure the school exists before generating a timetable.")
		}
		return s.failSystem("load school", err)
	}

	classes, failure := s.resolveClasses(ctx, school.ID, req.ClassID)
	if failure != nil {
		return failure
	}

	subjects, err := s.subjects.ListBySchool(ctx, school.ID)
	if err != nil {
		return s.failSystem("load subjects", err)
	}
	if len(subjects) == 0 {
		return s.fail("No subjects found. Ensure you have added classes, subjects, and teachers.")
	}

	teachers, err := s.teachers.ListActiveBySchool(ctx, school.ID)
	if err != nil {
		return s.failSystem("load teachers", err)
	}
	if len(teachers) == 0 {
		return s.fail("No active teachers found. Ensure you have added classes, subjects, and teachers.")
	}

	structure, err := s.structures.FindBySchool(ctx, school.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return s.failSystem("load timetable structure", err)
	}
	grid := BuildTimeGrid(structure)

	var constraints []ScheduleConstraint
	for _, class := range classes {
		assignments, err := s.assignments.ListByClass(ctx, class.ID)
		if err != nil {
			return s.failSystem("load class subject assignments", err)
		}
		constraints = append(constraints, BuildConstraints(assignments)...)
	}

	weekStart, weekEnd := weekRange(time.Now())
	versions := make([]models.TimetableVersion, 0, len(classes))
	versionByClass := make(map[string]string, len(classes))
	for _, class := range classes {
		version, err := s.createVersion(ctx, class.ID, weekStart, weekEnd)
		if err != nil {
			return s.failSystem("create timetable version", err)
		}
		versions = append(versions, *version)
		versionByClass[class.ID] = version.ID
	}

	entries := s.solver.Solve(constraints, teachers, subjects, grid)
	if len(entries) == 0 {
		// Versions minted above stay committed even when the run places
		// nothing; the failure is reported through the result payload.
		s.logger.Warn("generation produced no entries",
			zap.String("school_id", school.ID),
			zap.Int("constraints", len(constraints)))
		return s.fail("Failed to generate any timetable entries. Check teacher availability and subject assignments.")
	}

	for i := range entries {
		entries[i].VersionID = versionByClass[entries[i].ClassID]
	}
	if err := s.entries.BulkCreate(ctx, entries); err != nil {
		return s.failSystem("persist timetable entries", err)
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "timetable:*"); err != nil {
			s.logger.Warn("failed to invalidate timetable cache", zap.Error(err))
		}
	}

	s.logger.Info("timetable generated",
		zap.String("school_id", school.ID),
		zap.Int("classes", len(classes)),
		zap.Int("entries", len(entries)))

	return &dto.GenerateTimetableResult{
		Success:        true,
		Message:        fmt.Sprintf("Generated %d timetable entries for %d class(es).", len(entries), len(classes)),
		EntriesCreated: len(entries),
		Versions:       versions,
	}
}

func (s *TimetableGeneratorService) resolveClasses(ctx context.Context, schoolID string, classID *string) ([]models.Class, *dto.GenerateTimetableResult) {
	if classID != nil {
		class, err := s.classes.FindByID(ctx, *classID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, s.fail("Class not found. Ensure the class exists before generating a timetable.")
			}
			return nil, s.failSystem("load class", err)
		}
		if class.SchoolID != schoolID {
			return nil, s.fail("Class does not belong to the requested school.")
		}
		return []models.Class{*class}, nil
	}

	classes, err := s.classes.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, s.failSystem("load classes", err)
	}
	if len(classes) == 0 {
		return nil, s.fail("No classes found. Ensure you have added classes, subjects, and teachers.")
	}
	return classes, nil
}

// createVersion mints the next version label for the class week, activates
// it, and re-checks that exactly one version stays active. The re-check is a
// mitigation for concurrent runs on the same class and week, not a
// transactional guarantee.
func (s *TimetableGeneratorService) createVersion(ctx context.Context, classID string, weekStart, weekEnd time.Time) (*models.TimetableVersion, error) {
	existing, err := s.versions.ListForClassWeek(ctx, classID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	version := &models.TimetableVersion{
		ClassID:   classID,
		Version:   fmt.Sprintf("%s%d", s.cfg.VersionPrefix, len(existing)+1),
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Active:    true,
	}
	if err := s.versions.Create(ctx, version); err != nil {
		return nil, fmt.Errorf("create version: %w", err)
	}
	if err := s.versions.SetActive(ctx, version.ID, classID); err != nil {
		return nil, fmt.Errorf("activate version: %w", err)
	}

	active, err := s.versions.CountActive(ctx, classID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("count active versions: %w", err)
	}
	if active != 1 {
		s.logger.Warn("active version count drifted, forcing single active",
			zap.String("class_id", classID),
			zap.Int("active", active))
		if err := s.versions.SetActive(ctx, version.ID, classID); err != nil {
			return nil, fmt.Errorf("force activate version: %w", err)
		}
	}
	return version, nil
}

func (s *TimetableGeneratorService) fail(message string) *dto.GenerateTimetableResult {
	return &dto.GenerateTimetableResult{Success: false, Message: message}
}

func (s *TimetableGeneratorService) failSystem(step string, err error) *dto.GenerateTimetableResult {
	s.logger.Error("timetable generation failed", zap.String("step", step), zap.Error(err))
	return s.fail("Failed to generate timetable. Please try again.")
}

// weekRange returns the Monday-to-Saturday window containing now, truncated
// to dates in UTC.
func weekRange(now time.Time) (time.Time, time.Time) {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	year, month, day := now.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	monday := today.AddDate(0, 0, 1-weekday)
	saturday := monday.AddDate(0, 0, 5)
	return monday, saturday
}
