package service

import (
	"testing"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danang-adp/timetable-api/internal/models"
)

func TestBuildTimeGridDefault(t *testing.T) {
	grid := BuildTimeGrid(nil)
	require.Len(t, grid, 40, "five days of eight periods")

	assert.Equal(t, "MONDAY", grid[0].Day)
	assert.Equal(t, 1, grid[0].Period)
	assert.Equal(t, "08:00-08:45", grid[0].Window())
	assert.Equal(t, "FRIDAY", grid[39].Day)
	assert.Equal(t, 8, grid[39].Period)
}

func TestBuildTimeGridFromStructure(t *testing.T) {
	structure := &models.TimetableStructure{
		WorkingDays: types.JSONText(`["WEDNESDAY","MONDAY"]`),
		Periods: types.JSONText(`[
			{"period":1,"startTime":"07:30","endTime":"08:15"},
			{"period":2,"startTime":"08:15","endTime":"09:00"},
			{"period":3,"startTime":"09:00","endTime":"09:20","isBreak":true},
			{"period":4,"startTime":"09:20","endTime":"10:05"}
		]`),
	}

	grid := BuildTimeGrid(structure)
	require.Len(t, grid, 6, "breaks are excluded")

	assert.Equal(t, "MONDAY", grid[0].Day, "days are ordered monday-first regardless of config order")
	for _, slot := range grid {
		assert.NotEqual(t, 3, slot.Period, "break period must not be schedulable")
	}
	assert.Equal(t, "07:30-08:15", grid[0].Window())
}

func TestBuildTimeGridPartialStructureFallsBack(t *testing.T) {
	structure := &models.TimetableStructure{
		WorkingDays: types.JSONText(`["SATURDAY"]`),
	}

	grid := BuildTimeGrid(structure)
	require.Len(t, grid, 8, "configured day with default periods")
	for _, slot := range grid {
		assert.Equal(t, "SATURDAY", slot.Day)
	}
}
