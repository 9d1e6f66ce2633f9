package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "userdir/backend/internal/domain/auth"
	userdomain "userdir/backend/internal/domain/user"
	"userdir/backend/internal/infrastructure/memory"
	"userdir/backend/internal/infrastructure/token"
	"userdir/backend/internal/usecase/auth"
)

var issuedAt = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, now time.Time) (*auth.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	tokens, err := token.NewJWTManager("secret", 10*time.Minute, "userdir", "userdir-api",
		token.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	svc := auth.NewService(store.Users(), tokens)
	auth.SetNowFunc(svc, func() time.Time { return issuedAt })
	return svc, store
}

func seedUser(t *testing.T, store *memory.Store, email string, roles ...string) string {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, store.Users().Create(ctx, &userdomain.User{ID: id, Name: "n", Email: email, Age: 30}))
	for _, name := range roles {
		roleID := uuid.NewString()
		require.NoError(t, store.Roles().Create(ctx, &userdomain.Role{ID: roleID, Name: name}))
		require.NoError(t, store.Roles().Assign(ctx, id, roleID))
	}
	return id
}

func TestIssueTokenUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t, issuedAt)

	tok, err := svc.IssueToken(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)
	assert.Empty(t, tok.Value)
}

func TestIssueTokenBlankEmail(t *testing.T) {
	svc, _ := newTestService(t, issuedAt)

	_, err := svc.IssueToken(context.Background(), "   ")
	assert.ErrorIs(t, err, userdomain.ErrValidation)
}

func TestIssueTokenEmbedsRolesAndExpiry(t *testing.T) {
	svc, store := newTestService(t, issuedAt.Add(time.Minute))
	id := seedUser(t, store, "boss@example.com", "Admin", "SuperAdmin")

	tok, err := svc.IssueToken(context.Background(), "boss@example.com")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Admin", "SuperAdmin"}, tok.Roles)
	assert.Equal(t, issuedAt, tok.IssuedAt)
	assert.Equal(t, issuedAt.Add(10*time.Minute), tok.ExpiresAt)

	p, err := svc.Authenticate(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, id, p.UserID)
	assert.ElementsMatch(t, []string{"Admin", "SuperAdmin"}, p.Roles)
}

func TestIssueTokenWithoutRoles(t *testing.T) {
	svc, store := newTestService(t, issuedAt)
	seedUser(t, store, "plain@example.com")

	tok, err := svc.IssueToken(context.Background(), "plain@example.com")
	require.NoError(t, err)
	assert.Empty(t, tok.Roles)

	p, err := svc.Authenticate(tok.Value)
	require.NoError(t, err)
	assert.NoError(t, auth.Authorize(p))
	assert.ErrorIs(t, auth.Authorize(p, "Admin"), domain.ErrForbidden)
}

func TestRevokedRoleStaysInIssuedToken(t *testing.T) {
	svc, store := newTestService(t, issuedAt)
	ctx := context.Background()
	id := seedUser(t, store, "ops@example.com", "Support")

	tok, err := svc.IssueToken(ctx, "ops@example.com")
	require.NoError(t, err)

	roles, err := store.Roles().List(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Roles().Revoke(ctx, id, roles[0].ID))

	p, err := svc.Authenticate(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, []string{"Support"}, p.Roles)
}

func TestAuthenticateStates(t *testing.T) {
	svc, store := newTestService(t, issuedAt.Add(20*time.Minute))
	seedUser(t, store, "late@example.com", "User")

	_, err := svc.Authenticate("")
	assert.ErrorIs(t, err, domain.ErrTokenMissing)

	_, err = svc.Authenticate("garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	tok, err := svc.IssueToken(context.Background(), "late@example.com")
	require.NoError(t, err)
	_, err = svc.Authenticate(tok.Value)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestAuthorize(t *testing.T) {
	p := &domain.Principal{Roles: []string{"Support"}}

	assert.NoError(t, auth.Authorize(p))
	assert.NoError(t, auth.Authorize(p, "Admin", "support"))
	assert.ErrorIs(t, auth.Authorize(p, "SuperAdmin"), domain.ErrForbidden)
	assert.ErrorIs(t, auth.Authorize(nil), domain.ErrTokenMissing)
}
