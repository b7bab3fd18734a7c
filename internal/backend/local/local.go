// Package local implements backend.AuthClient in-process, over the sqlite
// identity and profile tables and the auth token/password primitives.
//
// A Service is shared by the whole process. Each browser gets its own Client
// from Service.NewClient, holding that browser's session the way a hosted
// SDK instance would.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/asynchire/internal/apperror"
	"github.com/sakif/asynchire/internal/auth"
	"github.com/sakif/asynchire/internal/model"
	"github.com/sakif/asynchire/internal/repository"
)

// invalidCredentials is the message for both unknown email and bad password.
const invalidCredentials = "Invalid login credentials"

// GitHubExchanger turns an OAuth callback code into a GitHub user.
// *auth.GitHubProvider satisfies it.
type GitHubExchanger interface {
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// Service holds what every Client shares.
type Service struct {
	identities  repository.IdentityRepository
	tokens      *auth.TokenService
	passwords   *auth.PasswordService
	github      GitHubExchanger
	adminEmails map[string]struct{}
	logger      *slog.Logger
}

// NewService wires the local auth service. github may be nil, in which case
// SignInWithGitHub fails. Emails in adminEmails get the Admin role at sign-up.
func NewService(
	identities repository.IdentityRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	github GitHubExchanger,
	adminEmails []string,
	logger *slog.Logger,
) *Service {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &Service{
		identities:  identities,
		tokens:      tokens,
		passwords:   passwords,
		github:      github,
		adminEmails: admins,
		logger:      logger,
	}
}

// NewClient returns a client for one browser. persistedToken is the access
// token the browser kept from an earlier visit ("" for none); it is checked
// lazily on the first GetSession.
func (s *Service) NewClient(persistedToken string) *Client {
	return &Client{svc: s, stored: persistedToken}
}

func (s *Service) roleFor(email string) model.Role {
	if _, ok := s.adminEmails[normalizeEmail(email)]; ok {
		return model.RoleAdmin
	}
	return model.RoleClient
}

// authenticate checks an email/password pair against the identity table.
func (s *Service) authenticate(ctx context.Context, email, password string) (*model.Identity, error) {
	identity, err := s.identities.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("local: looking up identity: %w", err)
	}
	if err := s.passwords.Verify(identity.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("local: verifying password: %w", err)
	}
	return identity, nil
}

// register creates an identity plus the profile the backend owns for it,
// both or neither.
func (s *Service) register(ctx context.Context, identity *model.Identity, fullName string) error {
	profile := &model.Profile{
		FullName:     strings.TrimSpace(fullName),
		Role:         s.roleFor(identity.Email),
		HiringStatus: model.StatusNotStarted,
	}
	if err := s.identities.RegisterIdentity(ctx, identity, profile); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return apperror.Conflict("identity", "User already registered")
		}
		return fmt.Errorf("local: registering identity: %w", err)
	}

	s.logger.Info("identity registered",
		slog.String("userID", identity.ID),
		slog.String("role", string(profile.Role)),
	)
	return nil
}

// githubIdentity finds or creates the identity behind a GitHub account.
// An email already registered with a password is not linked automatically.
func (s *Service) githubIdentity(ctx context.Context, gh *auth.GitHubUser) (*model.Identity, error) {
	identity, err := s.identities.GetIdentityByGitHubID(ctx, gh.ID)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("local: looking up GitHub identity: %w", err)
	}

	if _, err := s.identities.GetIdentityByEmail(ctx, gh.Email); err == nil {
		return nil, apperror.Conflict("identity", "email already registered with a password")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("local: looking up identity: %w", err)
	}

	ghID := gh.ID
	identity = &model.Identity{Email: gh.Email, GitHubID: &ghID}
	name := gh.Name
	if name == "" {
		name = gh.Login
	}
	if err := s.register(ctx, identity, name); err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *Service) issue(identity *model.Identity) (*model.Session, error) {
	token, expiresAt, err := s.tokens.Generate(identity.ID, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("local: issuing session: %w", err)
	}
	return &model.Session{
		AccessToken: token,
		UserID:      identity.ID,
		Email:       identity.Email,
		ExpiresAt:   expiresAt,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
