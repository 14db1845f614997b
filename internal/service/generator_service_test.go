package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danang-adp/timetable-api/internal/dto"
	"github.com/danang-adp/timetable-api/internal/models"
)

func TestGeneratorGenerateSuccess(t *testing.T) {
	fx := newGeneratorFixture()
	svc := fx.build()

	result := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SchoolID: "school-1"})

	require.True(t, result.Success, result.Message)
	assert.Equal(t, 3, result.EntriesCreated)
	require.Len(t, result.Versions, 1)
	assert.Equal(t, "v0.1", result.Versions[0].Version)
	assert.True(t, result.Versions[0].Active)

	require.Len(t, fx.entries.created, 3)
	days := make(map[string]bool)
	for _, entry := range fx.entries.created {
		assert.Equal(t, fx.versions.created[0].ID, entry.VersionID, "entries are stamped with the minted version")
		days[entry.Day] = true
	}
	assert.Len(t, days, 3, "weekly periods spread across distinct days")
	assert.Equal(t, []string{"timetable:*"}, fx.cache.patterns, "generation invalidates the timetable cache")
}

func TestGeneratorGenerateSingleClass(t *testing.T) {
	fx := newGeneratorFixture()
	fx.classes.items = append(fx.classes.items, models.Class{ID: "class-2", SchoolID: "school-1", Name: "7B", Grade: "7"})
	svc := fx.build()

	classID := "class-1"
	result := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SchoolID: "school-1", ClassID: &classID})

	require.True(t, result.Success, result.Message)
	require.Len(t, result.Versions, 1)
	assert.Equal(t, "class-1", result.Versions[0].ClassID)
	for _, entry := range fx.entries.created {
		assert.Equal(t, "class-1", entry.ClassID)
	}
}

func TestGeneratorGenerateRequiresSchoolID(t *testing.T) {
	fx := newGeneratorFixture()
	svc := fx.build()

	result := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "school id")
}

func TestGeneratorGenerateSchoolNotFound(t *testing.T) {
	fx := newGeneratorFixture()
	fx.schools.err = sql.ErrNoRows
	svc := fx.build()

	result := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SchoolID: "missing"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "School not found")
}

func TestGeneratorGenerateClassOutsideSchool(t *testing.T) {
	fx := newGeneratorFixture()
	fx.classes.items = append(fx.classes.items, models.Class{ID: "class-9", SchoolID: "school-9", Name: "9Z", Grade: "9"})
	svc := fx.build()

	classID := "class-9"
	result := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SchoolID: "school-1", ClassID: &classID})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "does not belong")
}

func TestGeneratorGenerateNoClasses(t *testing.T) {
	fx := newGeneratorFixture()
	fx.classes.items = nil
	svc := fx.build()

	result := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SchoolID: "school-1"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "No classes found")
}

func TestGeneratorGenerateNoTeachers(t *testing.T) {
	fx := newGeneratorFixture()
	fx.teachers.items = nil
	svc := fx.build()

	result := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SchoolID: "school-1"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "No active teachers")
}

func TestGeneratorGenerateKeepsVersionsOnEmptySolve(t *testing.T) {
	fx := newGeneratorFixture()
	// The only teacher is unqualified for the only subject, so the solver
	// places nothing.
	fx.teachers.items = []models.Teacher{fixtureTeacher("t1", `["bio"]`)}
	svc := fx.build()

	result := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SchoolID: "school-1"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Failed to generate any timetable entries")
	assert.Len(t, fx.versions.created, 1, "minted version stays committed on failed runs")
	assert.Empty(t, fx.entries.created)
}

func TestGeneratorVersionLabelIncrements(t *testing.T) {
	fx := newGeneratorFixture()
	fx.versions.existing = []models.TimetableVersion{
		{ID: "v-a", ClassID: "class-1", Version: "v0.1"},
		{ID: "v-b", ClassID: "class-1", Version: "v0.2"},
	}
	svc := fx.build()

	result := svc.Generate(context.Background(), dto.GenerateTimetableRequest{SchoolID: "school-1"})

	require.True(t, result.Success, result.Message)
	require.Len(t, result.Versions, 1)
	assert.Equal(t, "v0.3", result.Versions[0].Version)
}

// --- Fixtures ---

type generatorFixture struct {
	schools     *schoolReaderStub
	classes     *classReaderStub
	subjects    *subjectReaderStub
	teachers    *teacherReaderStub
	assignments *assignmentReaderStub
	structures  *structureReaderStub
	versions    *versionRepoStub
	entries     *entryWriterStub
	cache       *cacheInvalidatorStub
}

func fixtureTeacher(id, subjectIDs string) models.Teacher {
	return models.Teacher{
		ID:         id,
		FullName:   "Teacher " + id,
		Active:     true,
		SubjectIDs: types.JSONText(subjectIDs),
	}
}

func newGeneratorFixture() *generatorFixture {
	return &generatorFixture{
		schools: &schoolReaderStub{school: &models.School{ID: "school-1", Name: "SMA 1"}},
		classes: &classReaderStub{items: []models.Class{
			{ID: "class-1", SchoolID: "school-1", Name: "7A", Grade: "7"},
		}},
		subjects: &subjectReaderStub{items: []models.Subject{
			{ID: "math", SchoolID: "school-1", Code: "MTK", Name: "Mathematics"},
		}},
		teachers: &teacherReaderStub{items: []models.Teacher{
			fixtureTeacher("t1", `["math"]`),
		}},
		assignments: &assignmentReaderStub{byClass: map[string][]models.ClassSubject{
			"class-1": {{ID: "cs-1", ClassID: "class-1", SubjectID: "math", WeeklyFrequency: 3}},
			"class-2": {{ID: "cs-2", ClassID: "class-2", SubjectID: "math", WeeklyFrequency: 2}},
		}},
		structures: &structureReaderStub{err: sql.ErrNoRows},
		versions:   &versionRepoStub{},
		entries:    &entryWriterStub{},
		cache:      &cacheInvalidatorStub{},
	}
}

func (fx *generatorFixture) build() *TimetableGeneratorService {
	return NewTimetableGeneratorService(
		fx.schools,
		fx.classes,
		fx.subjects,
		fx.teachers,
		fx.assignments,
		fx.structures,
		fx.versions,
		fx.entries,
		fx.cache,
		NewSolver(42, 2, nil),
		nil,
		nil,
		nil,
		GeneratorConfig{VersionPrefix: "v0."},
	)
}

type schoolReaderStub struct {
	school *models.School
	err    error
}

func (s *schoolReaderStub) FindByID(_ context.Context, _ string) (*models.School, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.school, nil
}

type classReaderStub struct {
	items []models.Class
	err   error
}

func (s *classReaderStub) FindByID(_ context.Context, id string) (*models.Class, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *classReaderStub) ListBySchool(_ context.Context, schoolID string) ([]models.Class, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Class
	for _, class := range s.items {
		if class.SchoolID == schoolID {
			out = append(out, class)
		}
	}
	return out, nil
}

type subjectReaderStub struct {
	items []models.Subject
	err   error
}

func (s *subjectReaderStub) ListBySchool(_ context.Context, _ string) ([]models.Subject, error) {
	return s.items, s.err
}

type teacherReaderStub struct {
	items []models.Teacher
	err   error
}

func (s *teacherReaderStub) ListActiveBySchool(_ context.Context, _ string) ([]models.Teacher, error) {
	return s.items, s.err
}

type assignmentReaderStub struct {
	byClass map[string][]models.ClassSubject
	err     error
}

func (s *assignmentReaderStub) ListByClass(_ context.Context, classID string) ([]models.ClassSubject, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byClass[classID], nil
}

type structureReaderStub struct {
	structure *models.TimetableStructure
	err       error
}

func (s *structureReaderStub) FindBySchool(_ context.Context, _ string) (*models.TimetableStructure, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.structure, nil
}

type versionRepoStub struct {
	existing []models.TimetableVersion
	created  []*models.TimetableVersion
	actives  []string
}

func (s *versionRepoStub) ListForClassWeek(_ context.Context, classID string, _, _ time.Time) ([]models.TimetableVersion, error) {
	var out []models.TimetableVersion
	for _, v := range s.existing {
		if v.ClassID == classID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *versionRepoStub) Create(_ context.Context, version *models.TimetableVersion) error {
	if version.ID == "" {
		version.ID = "version-" + version.ClassID
	}
	s.created = append(s.created, version)
	return nil
}

func (s *versionRepoStub) SetActive(_ context.Context, versionID, _ string) error {
	s.actives = append(s.actives, versionID)
	return nil
}

func (s *versionRepoStub) CountActive(_ context.Context, _ string, _, _ time.Time) (int, error) {
	return 1, nil
}

type entryWriterStub struct {
	created []models.TimetableEntry
	err     error
}

func (s *entryWriterStub) BulkCreate(_ context.Context, entries []models.TimetableEntry) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, entries...)
	return nil
}

type cacheInvalidatorStub struct {
	patterns []string
}

func (s *cacheInvalidatorStub) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}
