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

var _ repository.ProfileRepository = (*DB)(nil)

const profileColumns = `id, user_id, email, full_name, role, hiring_status, company, created_at, updated_at`

// CreateProfile inserts the profile row that accompanies a new identity.
// Role and HiringStatus default to Client / Not Started when left empty.
func (db *DB) CreateProfile(ctx context.Context, p *model.Profile) error {
	return insertProfile(ctx, db.conn, p)
}

func insertProfile(ctx context.Context, ex execer, p *model.Profile) error {
	now := time.Now()
	p.ID = xid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Role == "" {
		p.Role = model.RoleClient
	}
	if p.HiringStatus == "" {
		p.HiringStatus = model.StatusNotStarted
	}

	_, err := ex.ExecContext(ctx,
		`INSERT INTO user_profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Email, p.FullName, string(p.Role), string(p.HiringStatus),
		nullString(p.Company), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("profile", "user already has a profile")
		}
		return fmt.Errorf("sqlite: inserting profile for %s: %w", p.UserID, translate("user_profiles", err))
	}
	return nil
}

// GetProfileByUserID returns apperror.ErrNotFound when the user has no
// profile and apperror.ErrMissingRelation when the table itself is missing.
func (db *DB) GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE user_id = ?`, userID)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", userID, translate("user_profiles", err))
	}
	return p, nil
}

func (db *DB) UpdateHiringStatus(ctx context.Context, userID string, status model.HiringStatus) error {
	return updateHiringStatus(ctx, db.conn, userID, status)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateHiringStatus(ctx context.Context, ex execer, userID string, status model.HiringStatus) error {
	result, err := ex.ExecContext(ctx,
		`UPDATE user_profiles SET hiring_status = ?, updated_at = ? WHERE user_id = ?`,
		string(status), time.Now(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating hiring status for %s: %w", userID, translate("user_profiles", err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("profile", userID)
	}
	return nil
}

func (db *DB) ListProfilesByRole(ctx context.Context, role model.Role, opts repository.ListOptions) ([]model.Profile, error) {
	limit, offset := clampPage(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM user_profiles
		 WHERE role = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		string(role), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing profiles: %w", translate("user_profiles", err))
	}
	defer rows.Close()

	profiles := make([]model.Profile, 0, limit)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning profile row: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating profiles: %w", err)
	}
	return profiles, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*model.Profile, error) {
	var (
		p       model.Profile
		role    string
		status  string
		company sql.NullString
	)
	if err := s.Scan(&p.ID, &p.UserID, &p.Email, &p.FullName, &role, &status,
		&company, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = model.Role(role)
	p.HiringStatus = model.HiringStatus(status)
	if company.Valid {
		p.Company = &company.String
	}
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// clampPage applies the default (20) and maximum (100) page sizes.
func clampPage(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
