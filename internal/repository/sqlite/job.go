package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/repository"
)

var _ repository.JobRepository = (*DB)(nil)

const jobColumns = `id, user_id, status, company_name, job_title, department, employment_type,
	location, remote_policy, experience_level, languages, skills, salary_min, salary_max,
	challenges, team_size, description, timezone, contact_notes, created_at, updated_at`

// CreateJob inserts a job posting. Multi-select answers (languages,
// challenges) are stored as JSON arrays in TEXT columns.
func (db *DB) CreateJob(ctx context.Context, job *model.JobPosting) error {
	now := time.Now()
	job.ID = xid.New().String()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = model.JobActive
	}

	languages, err := encodeList(job.Languages)
	if err != nil {
		return fmt.Errorf("sqlite: encoding languages: %w", err)
	}
	challenges, err := encodeList(job.Challenges)
	if err != nil {
		return fmt.Errorf("sqlite: encoding challenges: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO job_postings (`+jobColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.UserID, string(job.Status), job.CompanyName, job.JobTitle, job.Department,
		job.EmploymentType, job.Location, job.RemotePolicy, job.ExperienceLevel, languages,
		job.Skills, job.SalaryMin, job.SalaryMax, challenges, job.TeamSize, job.Description,
		job.Timezone, job.ContactNotes, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting job posting for %s: %w", job.UserID, translate("job_postings", err))
	}
	return nil
}

func (db *DB) GetJobByID(ctx context.Context, id string) (*model.JobPosting, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM job_postings WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("job posting", id)
		}
		return nil, fmt.Errorf("sqlite: getting job posting %s: %w", id, translate("job_postings", err))
	}
	return job, nil
}

// ListJobsByUser returns the user's postings, newest first.
func (db *DB) ListJobsByUser(ctx context.Context, userID string) ([]model.JobPosting, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM job_postings
		 WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing job postings for %s: %w", userID, translate("job_postings", err))
	}
	defer rows.Close()

	var jobs []model.JobPosting
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning job posting row: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating job postings: %w", err)
	}
	return jobs, nil
}

func (db *DB) UpdateJobStatus(ctx context.Context, id string, status model.JobStatus) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE job_postings SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating job posting %s: %w", id, translate("job_postings", err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("job posting", id)
	}
	return nil
}

func scanJob(s scanner) (*model.JobPosting, error) {
	var (
		job        model.JobPosting
		status     string
		languages  string
		challenges string
	)
	if err := s.Scan(
		&job.ID, &job.UserID, &status, &job.CompanyName, &job.JobTitle, &job.Department,
		&job.EmploymentType, &job.Location, &job.RemotePolicy, &job.ExperienceLevel, &languages,
		&job.Skills, &job.SalaryMin, &job.SalaryMax, &challenges, &job.TeamSize, &job.Description,
		&job.Timezone, &job.ContactNotes, &job.CreatedAt, &job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = model.JobStatus(status)
	if err := json.Unmarshal([]byte(languages), &job.Languages); err != nil {
		return nil, fmt.Errorf("decoding languages: %w", err)
	}
	if err := json.Unmarshal([]byte(challenges), &job.Challenges); err != nil {
		return nil, fmt.Errorf("decoding challenges: %w", err)
	}
	return &job, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	return string(b), err
}
