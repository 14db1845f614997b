package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStructure configures a school's weekly grid: which days lessons
// run and how each period maps to wall-clock times.
type TimetableStructure struct {
	ID          string         `db:"id" json:"id"`
	SchoolID    string         `db:"school_id" json:"school_id"`
	WorkingDays types.JSONText `db:"working_days" json:"working_days"`
	Periods     types.JSONText `db:"periods" json:"periods"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// PeriodConfig describes a single period of the configured grid.
type PeriodConfig struct {
	Period    int    `json:"period"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsBreak   bool   `json:"isBreak,omitempty"`
}

// Days decodes the configured working day names.
func (s TimetableStructure) Days() []string {
	if len(s.WorkingDays) == 0 {
		return nil
	}
	var days []string
	_ = json.Unmarshal(s.WorkingDays, &days)
	return days
}

// PeriodConfigs decodes the configured period list.
func (s TimetableStructure) PeriodConfigs() []PeriodConfig {
	if len(s.Periods) == 0 {
		return nil
	}
	var periods []PeriodConfig
	_ = json.Unmarshal(s.Periods, &periods)
	return periods
}
