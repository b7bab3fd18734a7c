package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/repository"
)

const (
	DefaultListLimit       = 20
	MaxListLimit           = 100
	MaxCandidatesPerUpload = 50
	MaxCandidateNameLength = 100
)

// AdminService backs the admin dashboard. Every method re-reads the caller's
// profile first: the role on a cached session is not trusted.
type AdminService struct {
	profiles   repository.ProfileRepository
	jobs       repository.JobRepository
	candidates repository.CandidateRepository
	stats      repository.StatsRepository
	logger     *slog.Logger
}

func NewAdminService(
	profiles repository.ProfileRepository,
	jobs repository.JobRepository,
	candidates repository.CandidateRepository,
	stats repository.StatsRepository,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		profiles:   profiles,
		jobs:       jobs,
		candidates: candidates,
		stats:      stats,
		logger:     logger,
	}
}

// DashboardStats is what the statistics panel renders.
type DashboardStats struct {
	Totals    model.AdminStats          `json:"totals"`
	Breakdown []model.HiringStatusCount `json:"breakdown"`
}

func (s *AdminService) requireAdmin(ctx context.Context, callerID string) error {
	if callerID == "" {
		return apperror.AdminRequired()
	}
	profile, err := s.profiles.GetProfileByUserID(ctx, callerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.AdminRequired()
		}
		return fmt.Errorf("checking admin role: %w", err)
	}
	if !profile.IsAdmin() {
		s.logger.Warn("admin access denied", slog.String("userID", callerID))
		return apperror.AdminRequired()
	}
	return nil
}

// ListClients returns one page of client profiles, each with the posting the
// admin works on: the active one if any, else the newest.
func (s *AdminService) ListClients(ctx context.Context, callerID string, opts repository.ListOptions) ([]model.ClientOverview, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	profiles, err := s.profiles.ListProfilesByRole(ctx, model.RoleClient, opts)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}

	out := make([]model.ClientOverview, 0, len(profiles))
	for _, p := range profiles {
		jobs, err := s.jobs.ListJobsByUser(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("listing jobs for %s: %w", p.UserID, err)
		}
		out = append(out, model.ClientOverview{Profile: p, ActiveJob: currentJob(jobs)})
	}
	return out, nil
}

// currentJob picks the active posting, falling back to the newest one.
// jobs is newest first.
func currentJob(jobs []model.JobPosting) *model.JobPosting {
	if len(jobs) == 0 {
		return nil
	}
	for i := range jobs {
		if jobs[i].Status == model.JobActive {
			return &jobs[i]
		}
	}
	return &jobs[0]
}

// UploadCandidates replaces the candidate list of jobID with batch and moves
// the posting's owner to Videos Ready, in one transaction. Uploading twice
// replaces, it never appends. The batch must hold at least one ready
// candidate, and a filled posting is a Conflict: its hire is already made.
func (s *AdminService) UploadCandidates(ctx context.Context, callerID, jobID string, batch []model.Candidate) ([]model.Candidate, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if len(batch) > MaxCandidatesPerUpload {
		return nil, apperror.ValidationFailed("candidates",
			fmt.Sprintf("at most %d candidates per upload", MaxCandidatesPerUpload))
	}

	clean := make([]model.Candidate, len(batch))
	for i, c := range batch {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("candidate %d: name is required", i+1))
		}
		if len(c.Name) > MaxCandidateNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("candidate %d: name must be at most %d characters", i+1, MaxCandidateNameLength))
		}
		if c.Status == "" {
			c.Status = model.CandidateReady
		}
		if !c.Status.Valid() {
			return nil, apperror.ValidationFailed("status",
				fmt.Sprintf("candidate %d: unknown status %q", i+1, c.Status))
		}
		c.JobID = jobID
		clean[i] = c
	}
	if !hasReady(clean) {
		return nil, apperror.ValidationFailed("candidates", "at least one candidate must be ready for review")
	}

	job, err := s.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == model.JobFilled {
		return nil, apperror.Conflict("job posting", "a candidate has already been picked")
	}

	if err := s.candidates.ReplaceCandidates(ctx, jobID, clean, model.StatusVideosReady); err != nil {
		if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to upload candidates",
			slog.String("jobID", jobID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("replacing candidates: %w", err)
	}

	s.logger.Info("candidates uploaded",
		slog.String("jobID", jobID),
		slog.String("userID", job.UserID),
		slog.Int("count", len(clean)),
	)

	return s.candidates.ListCandidatesByJob(ctx, jobID)
}

func hasReady(batch []model.Candidate) bool {
	for _, c := range batch {
		if c.Status == model.CandidateReady {
			return true
		}
	}
	return false
}

// SetHiringStatus moves a client along the pipeline by hand, e.g. to
// Interviewing once sourcing starts.
func (s *AdminService) SetHiringStatus(ctx context.Context, callerID, userID string, status model.HiringStatus) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if !status.Valid() {
		return apperror.ValidationFailed("hiring_status", fmt.Sprintf("unknown hiring status %q", status))
	}
	if err := s.profiles.UpdateHiringStatus(ctx, userID, status); err != nil {
		return err
	}
	s.logger.Info("hiring status set",
		slog.String("userID", userID),
		slog.String("status", string(status)),
		slog.String("by", callerID),
	)
	return nil
}

// Stats runs both statistics procedures concurrently.
func (s *AdminService) Stats(ctx context.Context, callerID string) (*DashboardStats, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	var (
		totals    *model.AdminStats
		breakdown []model.HiringStatusCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.stats.AdminDashboardStats(gctx)
		if err != nil {
			return fmt.Errorf("admin_dashboard_stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		breakdown, err = s.stats.HiringStatusBreakdown(gctx)
		if err != nil {
			return fmt.Errorf("hiring_status_breakdown: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load admin stats", slog.String("error", err.Error()))
		return nil, err
	}

	return &DashboardStats{Totals: *totals, Breakdown: breakdown}, nil
}
