package service

import (
	"sort"

	"github.com/danang-adp/timetable-api/internal/models"
)

// TimeSlot is one schedulable cell of the weekly grid with fixed wall-clock
// times. Slots are rebuilt per school per generation run and never persisted.
type TimeSlot struct {
	Day       string
	Period    int
	StartTime string
	EndTime   string
}

// Window formats the slot's wall-clock range as "start-end".
func (s TimeSlot) Window() string {
	return s.StartTime + "-" + s.EndTime
}

var dayOrder = map[string]int{
	"MONDAY":    1,
	"TUESDAY":   2,
	"WEDNESDAY": 3,
	"THURSDAY":  4,
	"FRIDAY":    5,
	"SATURDAY":  6,
	"SUNDAY":    7,
}

var defaultWorkingDays = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"}

var defaultPeriods = []models.PeriodConfig{
	{Period: 1, StartTime: "08:00", EndTime: "08:45"},
	{Period: 2, StartTime: "08:45", EndTime: "09:30"},
	{Period: 3, StartTime: "09:30", EndTime: "10:15"},
	{Period: 4, StartTime: "10:15", EndTime: "11:00"},
	{Period: 5, StartTime: "11:00", EndTime: "11:45"},
	{Period: 6, StartTime: "11:45", EndTime: "12:30"},
	{Period: 7, StartTime: "12:45", EndTime: "13:30"},
	{Period: 8, StartTime: "13:30", EndTime: "14:15"},
}

// BuildTimeGrid derives the ordered slot sequence for a school from its
// configured structure, excluding breaks. A missing or empty structure is not
// an error: the canonical five-day, eight-period grid is used instead.
func BuildTimeGrid(structure *models.TimetableStructure) []TimeSlot {
	days := defaultWorkingDays
	periods := defaultPeriods

	if structure != nil {
		if configured := structure.Days(); len(configured) > 0 {
			days = configured
		}
		if configured := structure.PeriodConfigs(); len(configured) > 0 {
			periods = configured
		}
	}

	slots := make([]TimeSlot, 0, len(days)*len(periods))
	for _, day := range days {
		for _, period := range periods {
			if period.IsBreak {
				continue
			}
			slots = append(slots, TimeSlot{
				Day:       day,
				Period:    period.Period,
				StartTime: period.StartTime,
				EndTime:   period.EndTime,
			})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Day == slots[j].Day {
			return slots[i].Period < slots[j].Period
		}
		return dayOrder[slots[i].Day] < dayOrder[slots[j].Day]
	})
	return slots
}
