package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/repository"
)

// =========================================================================
// FAKE STORE
// =========================================================================

// fakeStore implements the job, candidate, profile and stats repositories
// over maps. Jobs get increasing CreatedAt so newest-first ordering is stable.
type fakeStore struct {
	mu         sync.Mutex
	seq        int
	clock      time.Time
	profiles   map[string]*model.Profile // by user ID
	jobs       map[string]*model.JobPosting
	candidates map[string]*model.Candidate

	statsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:      time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		profiles:   make(map[string]*model.Profile),
		jobs:       make(map[string]*model.JobPosting),
		candidates: make(map[string]*model.Candidate),
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fakeStore) addProfile(userID string, role model.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[userID] = &model.Profile{
		ID:           "p-" + userID,
		UserID:       userID,
		Email:        userID + "@example.com",
		Role:         role,
		HiringStatus: model.StatusNotStarted,
	}
}

func (f *fakeStore) status(userID string) model.HiringStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profiles[userID].HiringStatus
}

// --- ProfileRepository ---

func (f *fakeStore) CreateProfile(_ context.Context, p *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *p
	f.profiles[p.UserID] = &stored
	return nil
}

func (f *fakeStore) GetProfileByUserID(_ context.Context, userID string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	out := *p
	return &out, nil
}

func (f *fakeStore) UpdateHiringStatus(_ context.Context, userID string, status model.HiringStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return apperror.NotFound("profile", userID)
	}
	p.HiringStatus = status
	return nil
}

func (f *fakeStore) ListProfilesByRole(_ context.Context, role model.Role, opts repository.ListOptions) ([]model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Profile
	for _, p := range f.profiles {
		if p.Role == role {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	if opts.Offset >= len(out) {
		return []model.Profile{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// --- JobRepository ---

func (f *fakeStore) CreateJob(_ context.Context, job *model.JobPosting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.ID = f.nextID("job")
	if job.Status == "" {
		job.Status = model.JobActive
	}
	job.CreatedAt = f.tick()
	job.UpdatedAt = job.CreatedAt
	stored := *job
	f.jobs[job.ID] = &stored
	return nil
}

func (f *fakeStore) GetJobByID(_ context.Context, id string) (*model.JobPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, apperror.NotFound("job posting", id)
	}
	out := *j
	return &out, nil
}

func (f *fakeStore) ListJobsByUser(_ context.Context, userID string) ([]model.JobPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.JobPosting{}
	for _, j := range f.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) UpdateJobStatus(_ context.Context, id string, status model.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return apperror.NotFound("job posting", id)
	}
	j.Status = status
	return nil
}

// --- CandidateRepository ---

func (f *fakeStore) ReplaceCandidates(_ context.Context, jobID string, batch []model.Candidate, ownerStatus model.HiringStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok {
		return apperror.NotFound("job posting", jobID)
	}
	if j.Status == model.JobFilled {
		return apperror.Conflict("job posting", "a candidate has already been picked")
	}
	owner, ok := f.profiles[j.UserID]
	if !ok {
		return apperror.NotFound("profile", j.UserID)
	}
	for id, c := range f.candidates {
		if c.JobID == jobID {
			delete(f.candidates, id)
		}
	}
	for _, c := range batch {
		c.ID = f.nextID("cand")
		c.JobID = jobID
		c.CreatedAt = f.tick()
		stored := c
		f.candidates[c.ID] = &stored
	}
	owner.HiringStatus = ownerStatus
	return nil
}

func (f *fakeStore) SelectCandidate(_ context.Context, candidateID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[candidateID]
	if !ok {
		return apperror.NotFound("candidate", candidateID)
	}
	j := f.jobs[c.JobID]
	if j.Status == model.JobFilled {
		return apperror.Conflict("job posting", "a candidate has already been picked")
	}
	owner, ok := f.profiles[j.UserID]
	if !ok {
		return apperror.NotFound("profile", j.UserID)
	}
	c.Status = model.CandidateSelected
	j.Status = model.JobFilled
	owner.HiringStatus = model.StatusPicked
	return nil
}

func (f *fakeStore) GetCandidateByID(_ context.Context, id string) (*model.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[id]
	if !ok {
		return nil, apperror.NotFound("candidate", id)
	}
	out := *c
	return &out, nil
}

func (f *fakeStore) ListCandidatesByJob(_ context.Context, jobID string) ([]model.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Candidate{}
	for _, c := range f.candidates {
		if c.JobID == jobID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) UpdateCandidateStatus(_ context.Context, id string, status model.CandidateStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[id]
	if !ok {
		return apperror.NotFound("candidate", id)
	}
	c.Status = status
	return nil
}

// --- StatsRepository ---

func (f *fakeStore) AdminDashboardStats(_ context.Context) (*model.AdminStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	var s model.AdminStats
	for _, p := range f.profiles {
		if p.Role == model.RoleClient {
			s.TotalClients++
		}
	}
	for _, j := range f.jobs {
		if j.Status == model.JobActive {
			s.ActiveJobs++
		}
	}
	for _, c := range f.candidates {
		s.TotalCandidates++
		if c.Status == model.CandidateSelected {
			s.SelectedCandidates++
		}
	}
	return &s, nil
}

func (f *fakeStore) HiringStatusBreakdown(_ context.Context) ([]model.HiringStatusCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.HiringStatusCount, 0, len(model.HiringStatuses))
	for _, st := range model.HiringStatuses {
		n := 0
		for _, p := range f.profiles {
			if p.Role == model.RoleClient && p.HiringStatus == st {
				n++
			}
		}
		out = append(out, model.HiringStatusCount{Status: st, Count: n})
	}
	return out, nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type services struct {
	store      *fakeStore
	jobs       *JobService
	candidates *CandidateService
	admin      *AdminService
}

func newTestServices(t *testing.T) services {
	t.Helper()
	store := newFakeStore()
	logger := quietLogger()
	return services{
		store:      store,
		jobs:       NewJobService(store, logger),
		candidates: NewCandidateService(store, store, logger),
		admin:      NewAdminService(store, store, store, store, logger),
	}
}
