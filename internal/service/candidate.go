package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/repository"
)

// CandidateService is the client side of the candidate pipeline: viewing the
// shortlist and picking a hire.
type CandidateService struct {
	candidates repository.CandidateRepository
	jobs       repository.JobRepository
	logger     *slog.Logger
}

func NewCandidateService(
	candidates repository.CandidateRepository,
	jobs repository.JobRepository,
	logger *slog.Logger,
) *CandidateService {
	return &CandidateService{candidates: candidates, jobs: jobs, logger: logger}
}

// ListForJob returns the candidates of a posting owned by userID.
func (s *CandidateService) ListForJob(ctx context.Context, userID, jobID string) ([]model.Candidate, error) {
	job, err := s.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, apperror.NotFound("job posting", jobID)
	}

	candidates, err := s.candidates.ListCandidatesByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}
	return candidates, nil
}

// ListForUser returns the user's newest posting and its candidates. Both are
// nil when the user has never submitted an intake.
func (s *CandidateService) ListForUser(ctx context.Context, userID string) (*model.JobPosting, []model.Candidate, error) {
	jobs, err := s.jobs.ListJobsByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil, nil, nil
	}

	job := jobs[0]
	candidates, err := s.candidates.ListCandidatesByJob(ctx, job.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing candidates: %w", err)
	}
	return &job, candidates, nil
}

// Select picks candidateID as the hire: the candidate becomes selected, its
// posting filled and the owner's hiring status Picked. The three writes
// commit together, and only one pick per posting can win.
//
// Selecting the already-selected candidate again is a no-op success.
func (s *CandidateService) Select(ctx context.Context, userID, candidateID string) (*model.Candidate, error) {
	if candidateID == "" {
		return nil, apperror.ValidationFailed("id", "candidate ID is required")
	}

	candidate, err := s.candidates.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.GetJobByID(ctx, candidate.JobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, apperror.NotFound("candidate", candidateID)
	}

	switch candidate.Status {
	case model.CandidateSelected:
		return candidate, nil
	case model.CandidatePending, model.CandidateRejected:
		return nil, apperror.ValidationFailed("status",
			fmt.Sprintf("candidate is %s and cannot be selected", candidate.Status))
	}
	if job.Status == model.JobFilled {
		return nil, apperror.Conflict("job posting", "a candidate has already been picked")
	}

	if err := s.candidates.SelectCandidate(ctx, candidateID); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("selecting candidate: %w", err)
	}

	s.logger.Info("candidate selected",
		slog.String("candidateID", candidateID),
		slog.String("jobID", job.ID),
		slog.String("userID", userID),
	)

	candidate.Status = model.CandidateSelected
	return candidate, nil
}
