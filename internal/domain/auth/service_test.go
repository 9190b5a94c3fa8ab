package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/domain/auth"
	"payflow/internal/platform/db/dbtest"
)

func newService(t *testing.T) *auth.Service {
	t.Helper()
	return auth.NewService(auth.NewStore(dbtest.Open(t)), "test-secret", time.Hour)
}

func TestSetupOnlyOnce(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	needed, err := svc.NeedsSetup(ctx)
	require.NoError(t, err)
	assert.True(t, needed)

	admin, err := svc.Setup(ctx, auth.CreateUserInput{Username: "owner", Email: "Owner@Example.com", Password: "ChangeMe123!", Role: auth.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, admin.Role)
	assert.Equal(t, "owner@example.com", admin.Email)

	_, err = svc.Setup(ctx, auth.CreateUserInput{Username: "second", Email: "second@example.com", Password: "ChangeMe123!"})
	assert.ErrorIs(t, err, auth.ErrSetupComplete)
}

func TestLoginByUsernameOrEmail(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.CreateUser(ctx, auth.CreateUserInput{Username: "clerk", Email: "clerk@example.com", Password: "Password1", Role: auth.RoleManager})
	require.NoError(t, err)

	for _, login := range []string{"clerk", "CLERK@example.com"} {
		res, err := svc.Login(ctx, login, "Password1")
		require.NoError(t, err, login)
		assert.NotEmpty(t, res.Token)
		claims, err := auth.ParseToken("test-secret", res.Token)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleManager, claims.Role)
	}

	_, err = svc.Login(ctx, "clerk", "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "Password1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestCreateUserValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, auth.CreateUserInput{Username: "a", Email: "a@example.com", Password: "short"})
	assert.ErrorIs(t, err, auth.ErrWeakPassword)
	_, err = svc.CreateUser(ctx, auth.CreateUserInput{Username: "a", Email: "a@example.com", Password: "Password1", Role: "root"})
	assert.ErrorIs(t, err, auth.ErrInvalidRole)

	_, err = svc.CreateUser(ctx, auth.CreateUserInput{Username: "a", Email: "a@example.com", Password: "Password1"})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, auth.CreateUserInput{Username: "b", Email: "a@example.com", Password: "Password1"})
	assert.ErrorIs(t, err, auth.ErrDuplicateUser)
}

func TestUpdateAndDeleteProtectLastAdmin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	admin, err := svc.CreateUser(ctx, auth.CreateUserInput{Username: "root", Email: "root@example.com", Password: "Password1", Role: auth.RoleAdmin})
	require.NoError(t, err)

	demote := auth.RoleUser
	_, err = svc.UpdateUser(ctx, admin.ID, auth.UpdateUserInput{Role: &demote})
	assert.ErrorIs(t, err, auth.ErrLastAdmin)
	assert.ErrorIs(t, svc.DeleteUser(ctx, admin.ID), auth.ErrLastAdmin)

	newPassword := "Rotated123"
	name := "Root User"
	updated, err := svc.UpdateUser(ctx, admin.ID, auth.UpdateUserInput{Password: &newPassword, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Root User", updated.Name)
	_, err = svc.ValidateCredentials(ctx, "root", "Rotated123")
	require.NoError(t, err)

	_, err = svc.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin@example.com", "ChangeMe123!"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin@example.com", "ChangeMe123!"))
	require.NoError(t, svc.EnsureAdmin(ctx, "", "", ""))

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, auth.RoleAdmin, users[0].Role)
}
