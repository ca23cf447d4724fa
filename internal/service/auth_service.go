package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/authz"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

const minPasswordLength = 8

// AuthService coordinates registration, login and actor administration.
// Self-signup always yields a CLIENT; staff accounts are provisioned by an
// admin through CreateActor.
type AuthService struct {
	store      repository.Store
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService creates the service.
func NewAuthService(store repository.Store, tokenMgr *auth.TokenManager, cfg config.AuthConfig) *AuthService {
	cost := cfg.BcryptCost
	if cost <= 0 {
		cost = 12
	}
	return &AuthService{store: store, tokenMgr: tokenMgr, bcryptCost: cost}
}

// AuthResult carries an issued token plus the authenticated actor.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Actor     *domain.Actor
}

// RegisterInput describes a self-signup request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a CLIENT account and issues a token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}

	if _, err := s.store.Actors().GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	actor := &domain.Actor{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleClient,
		Active:       true,
	}
	if err := s.store.Actors().Create(ctx, actor); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.issue(actor)
}

// Login verifies credentials and issues a token. Deactivated accounts are
// rejected with the same message as bad credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	actor, err := s.store.Actors().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(actor.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !actor.Active {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(actor)
}

// CreateActorInput describes an admin-provisioned account.
type CreateActorInput struct {
	Name         string
	Email        string
	Password     string
	Role         domain.Role
	DepartmentID *string
}

// CreateActor provisions an account with an explicit role. Requires the
// users.manage capability. Department heads and agents must carry a valid
// department.
func (s *AuthService) CreateActor(ctx context.Context, actor *domain.Actor, input CreateActorInput) (*domain.Actor, error) {
	if !authz.Can(actor, domain.CapUsersManage) {
		return nil, apperrors.NewForbidden("access denied")
	}
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 8 characters", nil)
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	if input.Role.RequiresDepartment() {
		if input.DepartmentID == nil {
			return nil, apperrors.NewValidationError("department required for this role", map[string]any{"role": input.Role})
		}
		if _, err := s.store.Departments().GetByID(ctx, *input.DepartmentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewNotFound("department", map[string]any{"department_id": *input.DepartmentID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	if _, err := s.store.Actors().GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	created := &domain.Actor{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		DepartmentID: input.DepartmentID,
		Active:       true,
	}
	if err := s.store.Actors().Create(ctx, created); err != nil {
		return nil, apperrors.MapError(err)
	}
	return created, nil
}

// SetActorActive activates or deactivates an account. Requires the
// users.manage capability. Deactivation takes effect on the target's next
// request because the middleware reloads the actor.
func (s *AuthService) SetActorActive(ctx context.Context, actor *domain.Actor, targetID string, active bool) (*domain.Actor, error) {
	if !authz.Can(actor, domain.CapUsersManage) {
		return nil, apperrors.NewForbidden("access denied")
	}
	target, err := s.store.Actors().GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("actor", map[string]any{"actor_id": targetID})
		}
		return nil, apperrors.MapError(err)
	}
	if target.ID == actor.ID && !active {
		return nil, apperrors.NewConflict("cannot deactivate own account", nil)
	}
	target.Active = active
	if err := s.store.Actors().Update(ctx, target); err != nil {
		return nil, apperrors.MapError(err)
	}
	return target, nil
}

// ListActors returns accounts matching the filter. Requires users.manage.
func (s *AuthService) ListActors(ctx context.Context, actor *domain.Actor, filter repository.ActorFilter) ([]domain.Actor, error) {
	if !authz.Can(actor, domain.CapUsersManage) {
		return nil, apperrors.NewForbidden("access denied")
	}
	actors, err := s.store.Actors().List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return actors, nil
}

func (s *AuthService) issue(actor *domain.Actor) (*AuthResult, error) {
	token, expiresAt, err := s.tokenMgr.GenerateToken(actor.ID, actor.Role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, Actor: actor}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.NewValidationError("invalid email", map[string]any{"email": email})
	}
	return nil
}
