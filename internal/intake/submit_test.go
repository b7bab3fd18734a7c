package intake

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================

type fakeJobs struct {
	created []*model.JobPosting
	err     error
}

func (f *fakeJobs) Create(ctx context.Context, job *model.JobPosting) error {
	if f.err != nil {
		return f.err
	}
	job.ID = "job-1"
	f.created = append(f.created, job)
	return nil
}

type fakeMeetings struct {
	created []*model.Meeting
	err     error
}

func (f *fakeMeetings) CreateMeeting(ctx context.Context, m *model.Meeting) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, m)
	return nil
}

type fakeStatuses struct {
	updates map[string]model.HiringStatus
}

func (f *fakeStatuses) UpdateHiringStatus(ctx context.Context, userID string, status model.HiringStatus) error {
	if f.updates == nil {
		f.updates = map[string]model.HiringStatus{}
	}
	f.updates[userID] = status
	return nil
}

func newTestSubmitter() (*Submitter, *fakeJobs, *fakeMeetings, *fakeStatuses) {
	jobs, meetings, statuses := &fakeJobs{}, &fakeMeetings{}, &fakeStatuses{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewSubmitter(jobs, meetings, statuses, logger), jobs, meetings, statuses
}

func filledForm() Form {
	return Form{
		CompanyRole:    CompanyRole{CompanyName: "Acme", JobTitle: "Backend Engineer"},
		Requirements:   Requirements{Languages: []string{"Go"}, SalaryMin: 1, SalaryMax: 2},
		ChallengesTeam: ChallengesTeam{Challenges: []string{"Shipping faster"}},
		Schedule:       Schedule{Date: "2026-10-20", TimeSlot: "10:00", Timezone: "UTC"},
	}
}

// =========================================================================
// SUBMIT
// =========================================================================

func TestSubmit_AllSteps(t *testing.T) {
	s, jobs, meetings, statuses := newTestSubmitter()

	job, err := s.Submit(context.Background(), "user-1", filledForm())
	require.NoError(t, err)

	require.Len(t, jobs.created, 1)
	assert.Equal(t, "user-1", job.UserID)
	assert.Equal(t, model.JobActive, job.Status)
	assert.Equal(t, []string{"Go"}, job.Languages)

	require.Len(t, meetings.created, 1)
	assert.Equal(t, "job-1", *meetings.created[0].JobID)
	assert.Equal(t, "10:00", meetings.created[0].TimeSlot)

	assert.Equal(t, model.StatusJobPosting, statuses.updates["user-1"])
}

func TestSubmit_NoMeetingWithoutBothDateAndTime(t *testing.T) {
	s, _, meetings, statuses := newTestSubmitter()
	form := filledForm()
	form.Schedule.TimeSlot = ""

	_, err := s.Submit(context.Background(), "user-1", form)
	require.NoError(t, err)

	assert.Empty(t, meetings.created)
	assert.Equal(t, model.StatusJobPosting, statuses.updates["user-1"])
}

func TestSubmit_MeetingFailureStillUpdatesStatus(t *testing.T) {
	s, jobs, meetings, statuses := newTestSubmitter()
	meetings.err = errors.New("meetings table unavailable")

	job, err := s.Submit(context.Background(), "user-1", filledForm())
	require.NoError(t, err)
	assert.NotNil(t, job)

	assert.Len(t, jobs.created, 1)
	assert.Equal(t, model.StatusJobPosting, statuses.updates["user-1"])
}

func TestSubmit_JobFailureAborts(t *testing.T) {
	s, jobs, meetings, statuses := newTestSubmitter()
	jobs.err = apperror.Conflict("job posting", "an active job posting already exists")

	job, err := s.Submit(context.Background(), "user-1", filledForm())
	assert.Nil(t, job)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	assert.Empty(t, meetings.created)
	assert.Empty(t, statuses.updates)
}
