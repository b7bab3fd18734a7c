package model

import "time"

// CandidateStatus is the review state of one candidate video.
type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "pending"
	CandidateReady    CandidateStatus = "ready"
	CandidateSelected CandidateStatus = "selected"
	CandidateRejected CandidateStatus = "rejected"
)

// Valid reports whether s is a known candidate status.
func (s CandidateStatus) Valid() bool {
	switch s {
	case CandidatePending, CandidateReady, CandidateSelected, CandidateRejected:
		return true
	}
	return false
}

// Candidate belongs to exactly one job posting. Admin uploads replace the
// whole set for a job rather than appending to it.
type Candidate struct {
	ID        string          `json:"id"`
	JobID     string          `json:"job_id"`
	Name      string          `json:"name"`
	Headline  string          `json:"headline"`
	VideoURL  string          `json:"video_url"`
	Notes     string          `json:"notes"`
	Status    CandidateStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
