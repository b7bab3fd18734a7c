package intake

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/asynchire/internal/model"
)

// JobCreator inserts a job posting. *service.JobService satisfies it and
// refuses a second active posting.
type JobCreator interface {
	Create(ctx context.Context, job *model.JobPosting) error
}

type MeetingCreator interface {
	CreateMeeting(ctx context.Context, meeting *model.Meeting) error
}

type StatusUpdater interface {
	UpdateHiringStatus(ctx context.Context, userID string, status model.HiringStatus) error
}

// Submitter turns a finished form into rows.
type Submitter struct {
	jobs     JobCreator
	meetings MeetingCreator
	profiles StatusUpdater
	logger   *slog.Logger
}

func NewSubmitter(jobs JobCreator, meetings MeetingCreator, profiles StatusUpdater, logger *slog.Logger) *Submitter {
	return &Submitter{jobs: jobs, meetings: meetings, profiles: profiles, logger: logger}
}

// Submit inserts the job posting, books the kickoff meeting when both a date
// and a time were chosen, then moves the profile to Job Posting.
//
// A failed job insert aborts everything. A failed meeting insert is logged
// and skipped; the status update still happens.
func (s *Submitter) Submit(ctx context.Context, userID string, form Form) (*model.JobPosting, error) {
	job := form.Payload(userID)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("intake: creating job posting: %w", err)
	}

	if form.HasMeeting() {
		jobID := job.ID
		meeting := &model.Meeting{
			UserID:        userID,
			JobID:         &jobID,
			ScheduledDate: form.Schedule.Date,
			TimeSlot:      form.Schedule.TimeSlot,
			Timezone:      form.Schedule.Timezone,
		}
		if err := s.meetings.CreateMeeting(ctx, meeting); err != nil {
			s.logger.Error("booking kickoff meeting",
				slog.String("userID", userID),
				slog.String("jobID", job.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.profiles.UpdateHiringStatus(ctx, userID, model.StatusJobPosting); err != nil {
		return job, fmt.Errorf("intake: updating hiring status: %w", err)
	}

	s.logger.Info("intake submitted",
		slog.String("userID", userID),
		slog.String("jobID", job.ID),
		slog.Bool("meeting", form.HasMeeting()),
	)
	return job, nil
}
