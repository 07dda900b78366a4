// Package identity maps authenticated emails to users. It owns the bootstrap
// rule that promotes the configured admin email to ADMIN on login.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/natebrady-cyera/deep-thought/internal/apperrors"
	"github.com/natebrady-cyera/deep-thought/internal/auth"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/natebrady-cyera/deep-thought/internal/repository"
	"github.com/natebrady-cyera/deep-thought/internal/telemetry"
)

// LoginInput is the identity asserted by the SAML collaborator.
type LoginInput struct {
	Email            string
	FullName         string
	SAMLNameID       string
	SAMLSessionIndex string
}

// Service resolves and manages users.
type Service struct {
	users          repository.UserRepository
	evaluator      *auth.Evaluator
	bootstrapEmail string
	logger         zerolog.Logger
}

// NewService constructs an identity Service. bootstrapAdminEmail may be empty,
// in which case nobody is promoted automatically.
func NewService(users repository.UserRepository, evaluator *auth.Evaluator, bootstrapAdminEmail string) *Service {
	return &Service{
		users:          users,
		evaluator:      evaluator,
		bootstrapEmail: models.NormalizeEmail(bootstrapAdminEmail),
		logger:         zerolog.Nop(),
	}
}

// WithLogger sets the logger used for account events.
func (s *Service) WithLogger(logger zerolog.Logger) *Service {
	s.logger = logger.With().Str("service", "identity").Logger()
	return s
}

func (s *Service) isBootstrapAdmin(email string) bool {
	return s.bootstrapEmail != "" && email == s.bootstrapEmail
}

// BootstrapOrGet returns the user for email, creating it on first sight. The
// bootstrap admin email is created as ADMIN, or promoted in place if it exists
// with another role. Repeated calls have no further effect.
func (s *Service) BootstrapOrGet(ctx context.Context, email, fullName string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.Validation("email is required")
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIdentity, "identity.BootstrapOrGet",
		attribute.Bool(telemetry.AttrBootstrapAdmin, s.isBootstrapAdmin(email)),
	)
	defer span.End()

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		user, err = s.create(ctx, email, fullName)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	case err != nil:
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.isBootstrapAdmin(email) && user.Role != models.RoleAdmin {
		previous := user.Role
		user.Role = models.RoleAdmin
		if err := s.users.Update(ctx, user); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("promote bootstrap admin: %w", err)
		}
		s.logger.Warn().Str("user_id", user.ID).Str("previous_role", string(previous)).Msg("bootstrap admin promoted")
	}

	span.SetAttributes(
		attribute.String(telemetry.AttrUserID, user.ID),
		attribute.String(telemetry.AttrUserRole, string(user.Role)),
	)
	return user, nil
}

func (s *Service) create(ctx context.Context, email, fullName string) (*models.User, error) {
	role := models.RoleUser
	if s.isBootstrapAdmin(email) {
		role = models.RoleAdmin
	}

	user := &models.User{Email: email, Role: role, IsActive: true}
	if fullName != "" {
		user.FullName = &fullName
	}

	err := s.users.Create(ctx, user)
	if errors.Is(err, apperrors.ErrConflict) {
		// another request created the same email first
		return s.users.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user created on first login")
	return user, nil
}

// Login resolves the user for an authenticated identity and refreshes the
// SAML linkage. Empty input fields never overwrite stored values. Inactive
// users are rejected.
func (s *Service) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	user, err := s.BootstrapOrGet(ctx, in.Email, in.FullName)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.Denied("user account is disabled")
	}

	changed := false
	if in.FullName != "" && (user.FullName == nil || *user.FullName != in.FullName) {
		name := in.FullName
		user.FullName = &name
		changed = true
	}
	if in.SAMLNameID != "" && (user.SAMLNameID == nil || *user.SAMLNameID != in.SAMLNameID) {
		id := in.SAMLNameID
		user.SAMLNameID = &id
		changed = true
	}
	if in.SAMLSessionIndex != "" && (user.SAMLSessionIndex == nil || *user.SAMLSessionIndex != in.SAMLSessionIndex) {
		idx := in.SAMLSessionIndex
		user.SAMLSessionIndex = &idx
		changed = true
	}

	if changed {
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("refresh login details: %w", err)
		}
	}
	return user, nil
}

// GetByID returns a user by id.
func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns every user. Requires the user-management right.
func (s *Service) List(ctx context.Context, actor *models.User) ([]models.User, error) {
	if !s.evaluator.CanManageUsers(actor) {
		return nil, apperrors.Denied("admin role required")
	}
	return s.users.List(ctx)
}

// SetRole changes a user's role. Requires the user-management right.
func (s *Service) SetRole(ctx context.Context, actor *models.User, userID string, role models.Role) (*models.User, error) {
	if !s.evaluator.CanManageUsers(actor) {
		return nil, apperrors.Denied("admin role required")
	}
	return s.AssignRole(ctx, userID, role)
}

// AssignRole changes a user's role without an actor check. Used by the CLI.
func (s *Service) AssignRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid role %q", role))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}

	previous := user.Role
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("previous_role", string(previous)).Str("role", string(role)).Msg("user role changed")
	return user, nil
}
