package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

func newAuthService(store *repository.MemoryStore) *AuthService {
	tokens := auth.NewTokenManager("test-secret", 60)
	// low cost keeps the test fast
	return NewAuthService(store, tokens, config.AuthConfig{BcryptCost: 4})
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env.store)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{
		Name:     "New Client",
		Email:    "New.Client@Example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, result.Actor.Role, "self-signup always yields a client")
	assert.Equal(t, "new.client@example.com", result.Actor.Email)
	assert.NotEmpty(t, result.Token)

	t.Run("login with normalized email", func(t *testing.T) {
		logged, err := svc.Login(ctx, "new.client@example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, result.Actor.ID, logged.Actor.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "new.client@example.com", "nope")
		requireDomainCode(t, err, "UNAUTHORIZED")
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "stranger@example.com", "whatever")
		requireDomainCode(t, err, "UNAUTHORIZED")
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{
			Name:     "Clone",
			Email:    "new.client@example.com",
			Password: "another-pass",
		})
		requireDomainCode(t, err, "CONFLICT")
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{
			Name:     "Short",
			Email:    "short@example.com",
			Password: "tiny",
		})
		requireDomainCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("deactivated account cannot log in", func(t *testing.T) {
		_, err := svc.SetActorActive(ctx, env.admin, result.Actor.ID, false)
		require.NoError(t, err)
		_, err = svc.Login(ctx, "new.client@example.com", "s3cret-pass")
		requireDomainCode(t, err, "UNAUTHORIZED")
	})
}

func TestCreateActor(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env.store)
	ctx := context.Background()
	dept := testDeptID

	t.Run("admin provisions an agent", func(t *testing.T) {
		created, err := svc.CreateActor(ctx, env.admin, CreateActorInput{
			Name:         "Fresh Agent",
			Email:        "fresh@example.com",
			Password:     "agent-pass-1",
			Role:         domain.RoleAgent,
			DepartmentID: &dept,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAgent, created.Role)
		assert.True(t, created.Active)
	})

	t.Run("agent role requires a department", func(t *testing.T) {
		_, err := svc.CreateActor(ctx, env.admin, CreateActorInput{
			Name:     "Lost Agent",
			Email:    "lost@example.com",
			Password: "agent-pass-1",
			Role:     domain.RoleAgent,
		})
		requireDomainCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := svc.CreateActor(ctx, env.admin, CreateActorInput{
			Name:     "Odd",
			Email:    "odd@example.com",
			Password: "agent-pass-1",
			Role:     domain.Role("AUDITOR"),
		})
		requireDomainCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("non-admins cannot provision accounts", func(t *testing.T) {
		for _, actor := range []*domain.Actor{env.head, env.agent, env.client} {
			_, err := svc.CreateActor(ctx, actor, CreateActorInput{
				Name:     "Nope",
				Email:    "nope@example.com",
				Password: "some-pass-1",
				Role:     domain.RoleClient,
			})
			requireDomainCode(t, err, "FORBIDDEN")
		}
	})
}

func TestSetActorActive(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env.store)
	ctx := context.Background()

	t.Run("admin deactivates and reactivates", func(t *testing.T) {
		updated, err := svc.SetActorActive(ctx, env.admin, env.agent.ID, false)
		require.NoError(t, err)
		assert.False(t, updated.Active)

		updated, err = svc.SetActorActive(ctx, env.admin, env.agent.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.Active)
	})

	t.Run("admin cannot deactivate self", func(t *testing.T) {
		_, err := svc.SetActorActive(ctx, env.admin, env.admin.ID, false)
		requireDomainCode(t, err, "CONFLICT")
	})

	t.Run("head cannot manage accounts", func(t *testing.T) {
		_, err := svc.SetActorActive(ctx, env.head, env.agent.ID, false)
		requireDomainCode(t, err, "FORBIDDEN")
	})
}

func TestListActors(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthService(env.store)
	ctx := context.Background()

	role := domain.RoleAgent
	agents, err := svc.ListActors(ctx, env.admin, repository.ActorFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, agents, 2)

	_, err = svc.ListActors(ctx, env.client, repository.ActorFilter{})
	requireDomainCode(t, err, "FORBIDDEN")
}
