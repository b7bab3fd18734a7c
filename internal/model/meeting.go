package model

import "time"

// Meeting is the kickoff call a client books at the end of the intake.
// ScheduledDate is YYYY-MM-DD and TimeSlot is HH:MM in Timezone.
type Meeting struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	JobID         *string   `json:"job_id,omitempty"`
	ScheduledDate string    `json:"scheduled_date"`
	TimeSlot      string    `json:"time_slot"`
	Timezone      string    `json:"timezone"`
	CreatedAt     time.Time `json:"created_at"`
}
