package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/repository"
)

var _ repository.IdentityRepository = (*DB)(nil)

// CreateIdentity inserts a new auth identity. Emails are stored lower-cased
// so lookups are case-insensitive. A duplicate email is a Conflict.
func (db *DB) CreateIdentity(ctx context.Context, identity *model.Identity) error {
	return insertIdentity(ctx, db.conn, identity)
}

// RegisterIdentity inserts identity and its profile in one transaction, so
// an identity never exists without a profile. The profile's UserID and Email
// are taken from identity.
func (db *DB) RegisterIdentity(ctx context.Context, identity *model.Identity, profile *model.Profile) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertIdentity(ctx, tx, identity); err != nil {
			return err
		}
		profile.UserID = identity.ID
		profile.Email = identity.Email
		return insertProfile(ctx, tx, profile)
	})
}

func insertIdentity(ctx context.Context, ex execer, identity *model.Identity) error {
	identity.ID = xid.New().String()
	identity.Email = strings.ToLower(strings.TrimSpace(identity.Email))
	identity.CreatedAt = time.Now()

	var githubID sql.NullInt64
	if identity.GitHubID != nil {
		githubID = sql.NullInt64{Int64: *identity.GitHubID, Valid: true}
	}

	_, err := ex.ExecContext(ctx,
		`INSERT INTO identities (id, email, password_hash, github_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		identity.ID,
		identity.Email,
		identity.PasswordHash,
		githubID,
		identity.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("identity", "email already registered")
		}
		return fmt.Errorf("sqlite: inserting identity %s: %w", identity.Email, translate("identities", err))
	}
	return nil
}

func (db *DB) GetIdentityByEmail(ctx context.Context, email string) (*model.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return db.getIdentity(ctx, "email = ?", email, email)
}

func (db *DB) GetIdentityByID(ctx context.Context, id string) (*model.Identity, error) {
	return db.getIdentity(ctx, "id = ?", id, id)
}

func (db *DB) GetIdentityByGitHubID(ctx context.Context, githubID int64) (*model.Identity, error) {
	return db.getIdentity(ctx, "github_id = ?", githubID, strconv.FormatInt(githubID, 10))
}

func (db *DB) getIdentity(ctx context.Context, where string, arg any, label string) (*model.Identity, error) {
	var (
		identity model.Identity
		githubID sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, github_id, created_at
		 FROM identities WHERE `+where,
		arg,
	).Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&githubID,
		&identity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("identity", label)
		}
		return nil, fmt.Errorf("sqlite: getting identity %s: %w", label, translate("identities", err))
	}
	if githubID.Valid {
		identity.GitHubID = &githubID.Int64
	}
	return &identity, nil
}
