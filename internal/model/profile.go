// Package model defines the data structures used throughout the application.
//
// Every table the dashboard reads lives behind the backend service; these
// structs are the shapes that cross that boundary. JSON tags use snake_case
// because that is how the backend names its columns.
package model

import "time"

// Role is the application-level permission level of a profile.
type Role string

const (
	RoleClient Role = "Client"
	RoleAdmin  Role = "Admin"
)

// HiringStatus drives which dashboard tabs a client sees.
//
// It is not a state machine enforced anywhere: services read it to decide
// what to show and write it when the matching business event happens.
type HiringStatus string

const (
	StatusNotStarted   HiringStatus = "Not Started"
	StatusJobPosting   HiringStatus = "Job Posting"
	StatusInterviewing HiringStatus = "Interviewing"
	StatusVideosReady  HiringStatus = "Videos Ready"
	StatusPicked       HiringStatus = "Picked"
)

// HiringStatuses lists every status in pipeline order.
var HiringStatuses = []HiringStatus{
	StatusNotStarted,
	StatusJobPosting,
	StatusInterviewing,
	StatusVideosReady,
	StatusPicked,
}

// Valid reports whether s is one of the known statuses.
func (s HiringStatus) Valid() bool {
	for _, known := range HiringStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Profile is the application user record, distinct from the auth identity.
//
// One profile per identity (1:1). The backend creates it on sign-up; this
// application only ever updates HiringStatus on it.
type Profile struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Email        string       `json:"email"`
	FullName     string       `json:"full_name"`
	Role         Role         `json:"role"`
	HiringStatus HiringStatus `json:"hiring_status"`
	Company      *string      `json:"company,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsAdmin is true only for a non-nil profile with the Admin role.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
