package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danang-adp/timetable-api/internal/models"
	appErrors "github.com/danang-adp/timetable-api/pkg/errors"
)

func TestTimetableActiveEntriesCacheMiss(t *testing.T) {
	fx := newTimetableFixture()
	fx.entries.all = []models.TimetableEntry{
		{ClassID: "class-1", SubjectID: "math", Day: "MONDAY", Period: 1},
	}
	svc := fx.build()

	entries, err := svc.ActiveEntries(context.Background(), "")

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, fx.cache.sets, "timetable:active:all", "miss populates the cache")
}

func TestTimetableActiveEntriesScopedKey(t *testing.T) {
	fx := newTimetableFixture()
	fx.entries.byClass = map[string][]models.TimetableEntry{
		"class-1": {{ClassID: "class-1", SubjectID: "math", Day: "MONDAY", Period: 1}},
	}
	svc := fx.build()

	entries, err := svc.ActiveEntries(context.Background(), "class-1")

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, fx.cache.sets, "timetable:active:class-1")
}

func TestTimetableActiveEntriesCacheHitSkipsRepository(t *testing.T) {
	fx := newTimetableFixture()
	fx.entries.err = errors.New("database down")
	fx.cache.seed(t, "timetable:active:all", []models.TimetableEntry{
		{ClassID: "class-1", SubjectID: "math", Day: "MONDAY", Period: 1},
	})
	svc := fx.build()

	entries, err := svc.ActiveEntries(context.Background(), "")

	require.NoError(t, err, "hit must not touch the repository")
	require.Len(t, entries, 1)
	assert.Equal(t, "math", entries[0].SubjectID)
}

func TestTimetableActiveEntriesRepositoryFailure(t *testing.T) {
	fx := newTimetableFixture()
	fx.entries.err = errors.New("database down")
	svc := fx.build()

	_, err := svc.ActiveEntries(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load timetable entries")
}

func TestTimetableVersionHistoryRequiresClassID(t *testing.T) {
	fx := newTimetableFixture()
	svc := fx.build()

	_, err := svc.VersionHistory(context.Background(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "classId is required")
}

func TestTimetableVersionHistoryReturnsWeekVersions(t *testing.T) {
	fx := newTimetableFixture()
	fx.versions.items = []models.TimetableVersion{
		{ID: "v-1", ClassID: "class-1", Version: "v0.1"},
		{ID: "v-2", ClassID: "class-1", Version: "v0.2", Active: true},
	}
	svc := fx.build()

	versions, err := svc.VersionHistory(context.Background(), "class-1")

	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "class-1", fx.versions.lastClassID)
	assert.Equal(t, time.Monday, fx.versions.lastWeekStart.Weekday(), "history spans the current monday-based week")
}

// --- Fixtures ---

type timetableFixture struct {
	entries  *timetableEntriesStub
	versions *versionReaderStub
	cache    *cacheStoreStub
}

func newTimetableFixture() *timetableFixture {
	return &timetableFixture{
		entries:  &timetableEntriesStub{},
		versions: &versionReaderStub{},
		cache:    &cacheStoreStub{values: map[string][]byte{}, sets: map[string]time.Duration{}},
	}
}

func (fx *timetableFixture) build() *TimetableService {
	return NewTimetableService(fx.entries, fx.versions, fx.cache, nil, nil, TimetableServiceConfig{})
}

type timetableEntriesStub struct {
	all     []models.TimetableEntry
	byClass map[string][]models.TimetableEntry
	err     error
}

func (s *timetableEntriesStub) ListActive(_ context.Context) ([]models.TimetableEntry, error) {
	return s.all, s.err
}

func (s *timetableEntriesStub) ListActiveByClass(_ context.Context, classID string) ([]models.TimetableEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byClass[classID], nil
}

type versionReaderStub struct {
	items         []models.TimetableVersion
	err           error
	lastClassID   string
	lastWeekStart time.Time
}

func (s *versionReaderStub) ListForClassWeek(_ context.Context, classID string, weekStart, _ time.Time) ([]models.TimetableVersion, error) {
	s.lastClassID = classID
	s.lastWeekStart = weekStart
	return s.items, s.err
}

type cacheStoreStub struct {
	values map[string][]byte
	sets   map[string]time.Duration
}

func (s *cacheStoreStub) seed(t *testing.T, key string, value interface{}) {
	t.Helper()
	payload, err := json.Marshal(value)
	require.NoError(t, err)
	s.values[key] = payload
}

func (s *cacheStoreStub) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *cacheStoreStub) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = payload
	s.sets[key] = ttl
	return nil
}
