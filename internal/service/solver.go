package service

import (
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/danang-adp/timetable-api/internal/models"
)

// Occupation maps are keyed by explicit composite tuples rather than
// concatenated strings so collisions between ids containing separators are
// impossible.
type classSlotKey struct {
	ClassID string
	Day     string
	Period  int
}

type teacherSlotKey struct {
	TeacherID string
	Day       string
	Period    int
}

type dailySubjectKey struct {
	ClassID   string
	Day       string
	SubjectID string
}

// Solver places schedule constraints onto a weekly grid using a greedy pass
// with randomized tie-breaking. The shuffle keeps later constraints from
// being systematically starved when slots run out; re-running generation
// yields a different layout. Hard guarantees hold on every run: no teacher or
// class double-booking and at most dailyCap periods of one subject per class
// per day. Full satisfaction of every constraint is best-effort only.
type Solver struct {
	rng      *rand.Rand
	dailyCap int
	logger   *zap.Logger
}

// NewSolver builds a solver. A non-zero seed pins the random source for
// reproducible runs; zero seeds from the clock.
func NewSolver(seed int64, dailyCap int, logger *zap.Logger) *Solver {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if dailyCap <= 0 {
		dailyCap = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{
		rng:      rand.New(rand.NewSource(seed)),
		dailyCap: dailyCap,
		logger:   logger,
	}
}

// Solve produces timetable entries honoring teacher availability,
// conflict-freedom and the daily repetition cap. Returned entries carry no
// version id; the generator stamps them before persistence. Constraints that
// cannot be fully satisfied are logged and partially placed.
func (s *Solver) Solve(
	constraints []ScheduleConstraint,
	teachers []models.Teacher,
	subjects []models.Subject,
	grid []TimeSlot,
) []models.TimetableEntry {
	subjectsByID := make(map[string]models.Subject, len(subjects))
	for _, subject := range subjects {
		subjectsByID[subject.ID] = subject
	}
	availability := make(map[string]models.TeacherAvailability, len(teachers))
	for _, teacher := range teachers {
		availability[teacher.ID] = teacher.AvailabilityWindows()
	}

	shuffled := make([]ScheduleConstraint, len(constraints))
	copy(shuffled, constraints)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	classSlots := make(map[classSlotKey]bool)
	teacherSlots := make(map[teacherSlotKey]bool)
	dailyCounts := make(map[dailySubjectKey]int)

	var entries []models.TimetableEntry
	for _, constraint := range shuffled {
		subject, ok := subjectsByID[constraint.SubjectID]
		if !ok {
			s.logger.Warn("skipping constraint: subject not found",
				zap.String("subject_id", constraint.SubjectID),
				zap.String("class_id", constraint.ClassID))
			continue
		}

		eligible := eligibleTeachers(teachers, constraint)
		if len(eligible) == 0 {
			s.logger.Warn("skipping constraint: no eligible teacher",
				zap.String("subject_id", constraint.SubjectID),
				zap.String("class_id", constraint.ClassID))
			continue
		}

		placed := 0
		for _, slot := range s.prioritizeSlots(grid, constraint, dailyCounts) {
			if placed >= constraint.PeriodsNeeded {
				break
			}
			if classSlots[classSlotKey{constraint.ClassID, slot.Day, slot.Period}] {
				continue
			}
			countKey := dailySubjectKey{constraint.ClassID, slot.Day, constraint.SubjectID}
			if dailyCounts[countKey] >= s.dailyCap {
				continue
			}

			teacher := pickTeacher(eligible, availability, teacherSlots, slot)
			if teacher == nil {
				continue
			}

			classSlots[classSlotKey{constraint.ClassID, slot.Day, slot.Period}] = true
			teacherSlots[teacherSlotKey{teacher.ID, slot.Day, slot.Period}] = true
			dailyCounts[countKey]++

			entries = append(entries, models.TimetableEntry{
				ClassID:   constraint.ClassID,
				TeacherID: teacher.ID,
				SubjectID: subject.ID,
				Day:       slot.Day,
				Period:    slot.Period,
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				Active:    true,
			})
			placed++
		}

		if placed < constraint.PeriodsNeeded {
			s.logger.Warn("constraint under-filled",
				zap.String("class_id", constraint.ClassID),
				zap.String("subject_id", constraint.SubjectID),
				zap.Int("placed", placed),
				zap.Int("needed", constraint.PeriodsNeeded))
		}
	}
	return entries
}

// prioritizeSlots returns a private copy of the grid ordered so that days
// with fewer placements of this constraint's subject come first, spreading a
// subject across the week before doubling up. Ties break randomly.
func (s *Solver) prioritizeSlots(
	grid []TimeSlot,
	constraint ScheduleConstraint,
	dailyCounts map[dailySubjectKey]int,
) []TimeSlot {
	slots := make([]TimeSlot, len(grid))
	copy(slots, grid)
	s.rng.Shuffle(len(slots), func(i, j int) {
		slots[i], slots[j] = slots[j], slots[i]
	})
	sort.SliceStable(slots, func(i, j int) bool {
		left := dailyCounts[dailySubjectKey{constraint.ClassID, slots[i].Day, constraint.SubjectID}]
		right := dailyCounts[dailySubjectKey{constraint.ClassID, slots[j].Day, constraint.SubjectID}]
		return left < right
	})
	return slots
}

// eligibleTeachers filters the roster to active teachers qualified for the
// constraint's subject. A valid preferred teacher narrows the pool to exactly
// that intersection; an invalid or unqualified assignment is ignored in
// favour of the full qualified pool.
func eligibleTeachers(teachers []models.Teacher, constraint ScheduleConstraint) []models.Teacher {
	var qualified []models.Teacher
	for _, teacher := range teachers {
		if teacher.Active && teacher.Teaches(constraint.SubjectID) {
			qualified = append(qualified, teacher)
		}
	}
	if len(constraint.PreferredTeacherIDs) == 0 {
		return qualified
	}

	preferred := make(map[string]bool, len(constraint.PreferredTeacherIDs))
	for _, id := range constraint.PreferredTeacherIDs {
		preferred[id] = true
	}
	var narrowed []models.Teacher
	for _, teacher := range qualified {
		if preferred[teacher.ID] {
			narrowed = append(narrowed, teacher)
		}
	}
	if len(narrowed) > 0 {
		return narrowed
	}
	return qualified
}

// pickTeacher returns the first eligible teacher, in roster order, who is
// available for the slot's window and not already booked anywhere at that
// (day, period). Load balancing is deliberately not considered here; it is
// advisory-only and handled by the optimizer.
func pickTeacher(
	eligible []models.Teacher,
	availability map[string]models.TeacherAvailability,
	teacherSlots map[teacherSlotKey]bool,
	slot TimeSlot,
) *models.Teacher {
	for i := range eligible {
		teacher := &eligible[i]
		if !availability[teacher.ID].Allows(slot.Day, slot.Window()) {
			continue
		}
		if teacherSlots[teacherSlotKey{teacher.ID, slot.Day, slot.Period}] {
			continue
		}
		return teacher
	}
	return nil
}
