package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/danang-adp/timetable-api/internal/models"
)

type allSubjectReader interface {
	List(ctx context.Context) ([]models.Subject, error)
}

// OptimizerService computes coarse heuristics over the active entry set and
// emits human-readable suggestions. It is advisory only: it never fails
// validation and never mutates timetable state.
type OptimizerService struct {
	entries  activeEntryReader
	classes  allClassReader
	teachers allTeacherReader
	subjects allSubjectReader
	logger   *zap.Logger
}

// NewOptimizerService wires optimizer dependencies.
func NewOptimizerService(
	entries activeEntryReader,
	classes allClassReader,
	teachers allTeacherReader,
	subjects allSubjectReader,
	logger *zap.Logger,
) *OptimizerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptimizerService{
		entries:  entries,
		classes:  classes,
		teachers: teachers,
		subjects: subjects,
		logger:   logger,
	}
}

// Workload is flagged when the max-minus-min per-teacher period count exceeds
// this share of the mean; afternoon skew when periods >=5 outnumber periods
// <=4 by more than this factor.
const (
	workloadSpreadThreshold = 0.3
	afternoonSkewFactor     = 1.5
	afternoonFirstPeriod    = 5
)

// Suggest analyses the active timetable and returns free-text suggestions.
// With nothing to flag it returns a single reassuring message.
func (s *OptimizerService) Suggest(ctx context.Context) []string {
	entries, err := s.entries.ListActive(ctx)
	if err != nil {
		s.logger.Error("optimizer failed to load entries", zap.Error(err))
		return []string{"Timetable analysis is temporarily unavailable."}
	}
	if len(entries) == 0 {
		return []string{"No active timetable entries to analyse yet. Generate a timetable first."}
	}

	var suggestions []string
	suggestions = append(suggestions, s.workloadSuggestions(ctx, entries)...)
	suggestions = append(suggestions, skewSuggestions(entries)...)
	suggestions = append(suggestions, s.consecutiveSuggestions(ctx, entries)...)

	if len(suggestions) == 0 {
		return []string{"Timetable looks balanced. No optimization suggestions at this time."}
	}
	return suggestions
}

func (s *OptimizerService) workloadSuggestions(ctx context.Context, entries []models.TimetableEntry) []string {
	counts := make(map[string]int)
	for _, entry := range entries {
		counts[entry.TeacherID]++
	}
	if len(counts) < 2 {
		return nil
	}

	total := 0
	min, max := -1, 0
	var minID, maxID string
	for id, count := range counts {
		total += count
		if min == -1 || count < min || (count == min && id < minID) {
			min, minID = count, id
		}
		if count > max || (count == max && id < maxID) {
			max, maxID = count, id
		}
	}
	mean := float64(total) / float64(len(counts))
	if float64(max-min) <= workloadSpreadThreshold*mean {
		return nil
	}

	names := s.teacherNames(ctx)
	return []string{fmt.Sprintf(
		"Teaching load is uneven: %s has %d periods while %s has %d. Consider rebalancing subject assignments.",
		displayName(names, maxID), max, displayName(names, minID), min)}
}

func skewSuggestions(entries []models.TimetableEntry) []string {
	morning, afternoon := 0, 0
	for _, entry := range entries {
		if entry.Period >= afternoonFirstPeriod {
			afternoon++
		} else {
			morning++
		}
	}
	if float64(afternoon) > afternoonSkewFactor*float64(morning) {
		return []string{fmt.Sprintf(
			"Lessons lean heavily into the afternoon (%d afternoon vs %d morning periods). Consider shifting some subjects earlier.",
			afternoon, morning)}
	}
	return nil
}

func (s *OptimizerService) consecutiveSuggestions(ctx context.Context, entries []models.TimetableEntry) []string {
	type classDay struct {
		ClassID string
		Day     string
	}
	byDay := make(map[classDay][]models.TimetableEntry)
	for _, entry := range entries {
		key := classDay{entry.ClassID, entry.Day}
		byDay[key] = append(byDay[key], entry)
	}

	keys := make([]classDay, 0, len(byDay))
	for key := range byDay {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ClassID == keys[j].ClassID {
			return dayOrder[keys[i].Day] < dayOrder[keys[j].Day]
		}
		return keys[i].ClassID < keys[j].ClassID
	})

	classNames := s.classNames(ctx)
	subjectNames := s.subjectNames(ctx)

	var suggestions []string
	for _, key := range keys {
		sequence := byDay[key]
		sort.Slice(sequence, func(i, j int) bool { return sequence[i].Period < sequence[j].Period })
		for i := 1; i < len(sequence); i++ {
			prev, curr := sequence[i-1], sequence[i]
			if curr.SubjectID == prev.SubjectID && curr.Period == prev.Period+1 {
				suggestions = append(suggestions, fmt.Sprintf(
					"Class %s has back-to-back %s periods on %s (periods %d-%d). Consider spacing them out.",
					displayName(classNames, key.ClassID), displayName(subjectNames, curr.SubjectID),
					key.Day, prev.Period, curr.Period))
			}
		}
	}
	return suggestions
}

func (s *OptimizerService) teacherNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		s.logger.Warn("failed to load teacher names for suggestions", zap.Error(err))
		return names
	}
	for _, teacher := range teachers {
		names[teacher.ID] = teacher.FullName
	}
	return names
}

func (s *OptimizerService) classNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	classes, err := s.classes.List(ctx)
	if err != nil {
		s.logger.Warn("failed to load class names for suggestions", zap.Error(err))
		return names
	}
	for _, class := range classes {
		names[class.ID] = class.Name
	}
	return names
}

func (s *OptimizerService) subjectNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		s.logger.Warn("failed to load subject names for suggestions", zap.Error(err))
		return names
	}
	for _, subject := range subjects {
		names[subject.ID] = subject.Name
	}
	return names
}
