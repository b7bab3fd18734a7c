package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/model"
)

func TestJobCreate_Success(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	job := &model.JobPosting{UserID: "u1", JobTitle: "Backend Engineer"}
	if err := s.jobs.Create(ctx, job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if job.ID == "" {
		t.Error("expected job to have an ID")
	}
	if job.Status != model.JobActive {
		t.Errorf("Status = %q, want %q", job.Status, model.JobActive)
	}
}

func TestJobCreate_RequiresUser(t *testing.T) {
	s := newTestServices(t)

	err := s.jobs.Create(context.Background(), &model.JobPosting{JobTitle: "x"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestJobCreate_NegativeSalary(t *testing.T) {
	s := newTestServices(t)

	err := s.jobs.Create(context.Background(), &model.JobPosting{UserID: "u1", SalaryMin: -1})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestJobCreate_SecondActiveIsConflict(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	if err := s.jobs.Create(ctx, &model.JobPosting{UserID: "u1"}); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	err := s.jobs.Create(ctx, &model.JobPosting{UserID: "u1"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Create() error = %v, want ErrConflict", err)
	}

	// Another user is unaffected.
	if err := s.jobs.Create(ctx, &model.JobPosting{UserID: "u2"}); err != nil {
		t.Errorf("Create() for other user error = %v", err)
	}
}

func TestJobCreate_AllowedAfterFilled(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	first := &model.JobPosting{UserID: "u1"}
	if err := s.jobs.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.store.UpdateJobStatus(ctx, first.ID, model.JobFilled); err != nil {
		t.Fatal(err)
	}

	ok, err := s.jobs.CanCreateNewJob(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("CanCreateNewJob() = %v, %v; want true, nil", ok, err)
	}
	if err := s.jobs.Create(ctx, &model.JobPosting{UserID: "u1"}); err != nil {
		t.Errorf("Create() after fill error = %v", err)
	}
}

func TestJobCanCreateNewJob(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	ok, err := s.jobs.CanCreateNewJob(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("CanCreateNewJob() with no jobs = %v, %v; want true", ok, err)
	}

	if err := s.jobs.Create(ctx, &model.JobPosting{UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	ok, err = s.jobs.CanCreateNewJob(ctx, "u1")
	if err != nil || ok {
		t.Errorf("CanCreateNewJob() with active job = %v, %v; want false", ok, err)
	}
}

func TestJobGet_Ownership(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	job := &model.JobPosting{UserID: "u1"}
	if err := s.jobs.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	got, err := s.jobs.Get(ctx, "u1", job.ID)
	if err != nil {
		t.Fatalf("Get() own job error = %v", err)
	}
	if got.ID != job.ID {
		t.Errorf("ID = %q, want %q", got.ID, job.ID)
	}

	_, err = s.jobs.Get(ctx, "intruder", job.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() other user's job error = %v, want ErrNotFound", err)
	}

	_, err = s.jobs.Get(ctx, "u1", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Get() empty id error = %v, want ErrValidation", err)
	}
}

func TestJobListForUser_NewestFirst(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	first := &model.JobPosting{UserID: "u1", JobTitle: "first"}
	if err := s.jobs.Create(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.store.UpdateJobStatus(ctx, first.ID, model.JobClosed); err != nil {
		t.Fatal(err)
	}
	if err := s.jobs.Create(ctx, &model.JobPosting{UserID: "u1", JobTitle: "second"}); err != nil {
		t.Fatal(err)
	}

	jobs, err := s.jobs.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len = %d, want 2", len(jobs))
	}
	if jobs[0].JobTitle != "second" {
		t.Errorf("jobs[0] = %q, want newest first", jobs[0].JobTitle)
	}
}
