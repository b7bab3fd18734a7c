// Package repository declares the data-store contracts the services depend on.
//
// Each interface mirrors one collection of the backend service
// (user_profiles, job_postings, candidates, meetings) plus the identity table
// the auth side owns and the two stored procedures the admin view calls.
// repository/sqlite implements all of them on one *DB.
package repository

import (
	"context"

	"github.com/sakif/asynchire/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// IdentityRepository is the auth service's user table.
type IdentityRepository interface {
	// RegisterIdentity inserts identity and its profile atomically.
	RegisterIdentity(ctx context.Context, identity *model.Identity, profile *model.Profile) error
	GetIdentityByEmail(ctx context.Context, email string) (*model.Identity, error)
	GetIdentityByID(ctx context.Context, id string) (*model.Identity, error)
	GetIdentityByGitHubID(ctx context.Context, githubID int64) (*model.Identity, error)
}

type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *model.Profile) error
	GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error)
	UpdateHiringStatus(ctx context.Context, userID string, status model.HiringStatus) error
	ListProfilesByRole(ctx context.Context, role model.Role, opts ListOptions) ([]model.Profile, error)
}

type JobRepository interface {
	CreateJob(ctx context.Context, job *model.JobPosting) error
	GetJobByID(ctx context.Context, id string) (*model.JobPosting, error)
	ListJobsByUser(ctx context.Context, userID string) ([]model.JobPosting, error)
	UpdateJobStatus(ctx context.Context, id string, status model.JobStatus) error
}

type CandidateRepository interface {
	// ReplaceCandidates deletes every candidate of jobID, inserts batch and
	// sets the job owner's hiring status, atomically. A filled job is a
	// Conflict.
	ReplaceCandidates(ctx context.Context, jobID string, batch []model.Candidate, ownerStatus model.HiringStatus) error
	// SelectCandidate marks the candidate selected, fills its job and moves
	// the owner to Picked, atomically. An already filled job is a Conflict.
	SelectCandidate(ctx context.Context, candidateID string) error
	GetCandidateByID(ctx context.Context, id string) (*model.Candidate, error)
	ListCandidatesByJob(ctx context.Context, jobID string) ([]model.Candidate, error)
	UpdateCandidateStatus(ctx context.Context, id string, status model.CandidateStatus) error
}

type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting *model.Meeting) error
	ListMeetingsByUser(ctx context.Context, userID string) ([]model.Meeting, error)
}

// StatsRepository exposes the two stored procedures behind the admin
// statistics panel.
type StatsRepository interface {
	AdminDashboardStats(ctx context.Context) (*model.AdminStats, error)
	HiringStatusBreakdown(ctx context.Context) ([]model.HiringStatusCount, error)
}
