package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/danang-adp/timetable-api/internal/models"
	appErrors "github.com/danang-adp/timetable-api/pkg/errors"
)

type timetableEntryReader interface {
	ListActive(ctx context.Context) ([]models.TimetableEntry, error)
	ListActiveByClass(ctx context.Context, classID string) ([]models.TimetableEntry, error)
}

type timetableVersionReader interface {
	ListForClassWeek(ctx context.Context, classID string, weekStart, weekEnd time.Time) ([]models.TimetableVersion, error)
}

type timetableCacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// TimetableServiceConfig tunes read-side caching.
type TimetableServiceConfig struct {
	CacheTTL time.Duration
}

// TimetableService serves the committed timetable for display: the active
// entry set (optionally scoped to a class) and the version history of the
// current week. Reads go through the cache when one is configured.
type TimetableService struct {
	entries  timetableEntryReader
	versions timetableVersionReader
	cache    timetableCacheStore
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      TimetableServiceConfig
}

// NewTimetableService wires timetable read dependencies.
func NewTimetableService(
	entries timetableEntryReader,
	versions timetableVersionReader,
	cache timetableCacheStore,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &TimetableService{
		entries:  entries,
		versions: versions,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// ActiveEntries returns the live entry set, scoped to a class when classID is
// non-empty.
func (s *TimetableService) ActiveEntries(ctx context.Context, classID string) ([]models.TimetableEntry, error) {
	key := "timetable:active:all"
	if classID != "" {
		key = "timetable:active:" + classID
	}

	if s.cache != nil {
		var cached []models.TimetableEntry
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.CacheHit()
			}
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("timetable cache read failed", zap.String("key", key), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.CacheMiss()
		}
	}

	var (
		entries []models.TimetableEntry
		err     error
	)
	if classID != "" {
		entries, err = s.entries.ListActiveByClass(ctx, classID)
	} else {
		entries, err = s.entries.ListActive(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, entries, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("timetable cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return entries, nil
}

// VersionHistory lists the version records of the class's current week,
// newest first.
func (s *TimetableService) VersionHistory(ctx context.Context, classID string) ([]models.TimetableVersion, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classId is required")
	}
	weekStart, weekEnd := weekRange(time.Now())
	versions, err := s.versions.ListForClassWeek(ctx, classID, weekStart, weekEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable versions")
	}
	return versions, nil
}
