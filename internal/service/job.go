// Package service holds the business rules that sit between the HTTP
// handlers and the repositories.
//
// Handler → Service → Repository. Services take repository interfaces, never
// *sqlite.DB, so tests pass in-memory fakes.
//
// Every operation that changes a client's hiring_status lives here (or in
// intake.Submitter) next to the row change it describes, so the status and
// the dashboard content move together.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/repository"
)

type JobService struct {
	jobs   repository.JobRepository
	logger *slog.Logger

	// createMu makes the active-posting check and the insert one step.
	createMu sync.Mutex
}

func NewJobService(jobs repository.JobRepository, logger *slog.Logger) *JobService {
	return &JobService{jobs: jobs, logger: logger}
}

// CanCreateNewJob reports whether userID has no active job posting.
func (s *JobService) CanCreateNewJob(ctx context.Context, userID string) (bool, error) {
	jobs, err := s.jobs.ListJobsByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("listing jobs: %w", err)
	}
	return model.CanCreateNewJob(jobs), nil
}

// Create inserts job for job.UserID. A client may only have one active
// posting at a time; a second one is a Conflict.
func (s *JobService) Create(ctx context.Context, job *model.JobPosting) error {
	if strings.TrimSpace(job.UserID) == "" {
		return apperror.ValidationFailed("user_id", "user ID is required")
	}
	if job.SalaryMin < 0 || job.SalaryMax < 0 {
		return apperror.ValidationFailed("salary", "salary cannot be negative")
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	ok, err := s.CanCreateNewJob(ctx, job.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Conflict("job posting", "an active job posting already exists")
	}

	if err := s.jobs.CreateJob(ctx, job); err != nil {
		s.logger.Error("failed to create job posting",
			slog.String("userID", job.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("creating job posting: %w", err)
	}

	s.logger.Info("job posting created",
		slog.String("id", job.ID),
		slog.String("userID", job.UserID),
	)
	return nil
}

// ListForUser returns the user's postings, newest first.
func (s *JobService) ListForUser(ctx context.Context, userID string) ([]model.JobPosting, error) {
	jobs, err := s.jobs.ListJobsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jobs, nil
}

// Get returns one posting owned by userID. Someone else's posting is
// reported as not found.
func (s *JobService) Get(ctx context.Context, userID, jobID string) (*model.JobPosting, error) {
	if jobID == "" {
		return nil, apperror.ValidationFailed("id", "job ID is required")
	}
	job, err := s.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, apperror.NotFound("job posting", jobID)
	}
	return job, nil
}
