package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/repository"
)

var _ repository.CandidateRepository = (*DB)(nil)

const candidateColumns = `id, job_id, name, headline, video_url, notes, status, created_at, updated_at`

// ReplaceCandidates swaps the whole candidate set of a job and moves the
// job's owner to ownerStatus, in one transaction: DELETE everything for
// jobID, INSERT batch, UPDATE the owner's profile. Uploading 5 candidates to
// a job that had 3 leaves exactly 5. A filled job is a Conflict.
//
// IDs and timestamps are assigned on the caller's slice elements.
func (db *DB) ReplaceCandidates(ctx context.Context, jobID string, batch []model.Candidate, ownerStatus model.HiringStatus) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var owner, status string
		err := tx.QueryRowContext(ctx,
			`SELECT user_id, status FROM job_postings WHERE id = ?`, jobID).Scan(&owner, &status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("job posting", jobID)
			}
			return fmt.Errorf("sqlite: checking job posting %s: %w", jobID, translate("job_postings", err))
		}
		if model.JobStatus(status) == model.JobFilled {
			return apperror.Conflict("job posting", "a candidate has already been picked")
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM candidates WHERE job_id = ?`, jobID); err != nil {
			return fmt.Errorf("sqlite: clearing candidates of %s: %w", jobID, translate("candidates", err))
		}

		now := time.Now()
		for i := range batch {
			c := &batch[i]
			c.ID = xid.New().String()
			c.JobID = jobID
			c.CreatedAt = now
			c.UpdatedAt = now
			if c.Status == "" {
				c.Status = model.CandidateReady
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO candidates (`+candidateColumns+`)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				c.ID, c.JobID, c.Name, c.Headline, c.VideoURL, c.Notes, string(c.Status),
				c.CreatedAt, c.UpdatedAt,
			); err != nil {
				return fmt.Errorf("sqlite: inserting candidate %q: %w", c.Name, translate("candidates", err))
			}
		}
		return updateHiringStatus(ctx, tx, owner, ownerStatus)
	})
}

// SelectCandidate marks candidateID selected, fills its job and moves the
// job's owner to Picked, in one transaction. The job is filled with a
// conditional UPDATE, so of two concurrent selections on one job exactly
// one succeeds; the other gets a Conflict.
func (db *DB) SelectCandidate(ctx context.Context, candidateID string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var jobID, owner string
		err := tx.QueryRowContext(ctx,
			`SELECT c.job_id, j.user_id
			 FROM candidates c JOIN job_postings j ON j.id = c.job_id
			 WHERE c.id = ?`, candidateID).Scan(&jobID, &owner)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperror.NotFound("candidate", candidateID)
			}
			return fmt.Errorf("sqlite: looking up candidate %s: %w", candidateID, translate("candidates", err))
		}

		now := time.Now()
		result, err := tx.ExecContext(ctx,
			`UPDATE job_postings SET status = ?, updated_at = ? WHERE id = ? AND status != ?`,
			string(model.JobFilled), now, jobID, string(model.JobFilled),
		)
		if err != nil {
			return fmt.Errorf("sqlite: filling job posting %s: %w", jobID, translate("job_postings", err))
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.Conflict("job posting", "a candidate has already been picked")
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE candidates SET status = ?, updated_at = ? WHERE id = ?`,
			string(model.CandidateSelected), now, candidateID,
		); err != nil {
			return fmt.Errorf("sqlite: selecting candidate %s: %w", candidateID, translate("candidates", err))
		}
		return updateHiringStatus(ctx, tx, owner, model.StatusPicked)
	})
}

func (db *DB) GetCandidateByID(ctx context.Context, id string) (*model.Candidate, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id)
	c, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("candidate", id)
		}
		return nil, fmt.Errorf("sqlite: getting candidate %s: %w", id, translate("candidates", err))
	}
	return c, nil
}

func (db *DB) ListCandidatesByJob(ctx context.Context, jobID string) ([]model.Candidate, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates
		 WHERE job_id = ?
		 ORDER BY created_at, name`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing candidates of %s: %w", jobID, translate("candidates", err))
	}
	defer rows.Close()

	var candidates []model.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning candidate row: %w", err)
		}
		candidates = append(candidates, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating candidates: %w", err)
	}
	return candidates, nil
}

func (db *DB) UpdateCandidateStatus(ctx context.Context, id string, status model.CandidateStatus) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE candidates SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating candidate %s: %w", id, translate("candidates", err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("candidate", id)
	}
	return nil
}

func scanCandidate(s scanner) (*model.Candidate, error) {
	var (
		c      model.Candidate
		status string
	)
	if err := s.Scan(&c.ID, &c.JobID, &c.Name, &c.Headline, &c.VideoURL, &c.Notes,
		&status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = model.CandidateStatus(status)
	return &c, nil
}
