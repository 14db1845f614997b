package dto

import "time"

// ExportTimetableRequest asks for an asynchronous export of a class's active
// timetable.
type ExportTimetableRequest struct {
	ClassID string `json:"classId" validate:"required"`
	Format  string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse reports job state to polling clients.
type ExportJobResponse struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	Format       string     `json:"format"`
	ClassID      string     `json:"classId"`
	ResultURL    *string    `json:"resultUrl,omitempty"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
}
