package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "userdir/backend/internal/domain/auth"
)

var issued = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newManager(t *testing.T, now time.Time) *JWTManager {
	t.Helper()
	m, err := NewJWTManager("test-secret", 10*time.Minute, "userdir", "userdir-api", WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return m
}

func TestGenerateAndValidate(t *testing.T) {
	m := newManager(t, issued.Add(time.Minute))

	tok, err := m.Generate(domain.Principal{UserID: "u-1", Email: "a@b.io", Roles: []string{"Admin", "SuperAdmin"}}, issued)
	require.NoError(t, err)
	assert.Equal(t, issued.Add(10*time.Minute), tok.ExpiresAt)
	assert.Equal(t, []string{"Admin", "SuperAdmin"}, tok.Roles)

	p, err := m.Validate(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.UserID)
	assert.Equal(t, "a@b.io", p.Email)
	assert.ElementsMatch(t, []string{"Admin", "SuperAdmin"}, p.Roles)
	assert.Equal(t, tok.ExpiresAt, p.ExpiresAt.UTC())
}

func TestGenerateWithoutRolesOmitsClaim(t *testing.T) {
	m := newManager(t, issued)

	tok, err := m.Generate(domain.Principal{UserID: "u-2"}, issued)
	require.NoError(t, err)
	assert.Empty(t, tok.Roles)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok.Value, claims)
	require.NoError(t, err)
	assert.Nil(t, claims.Roles)

	p, err := m.Validate(tok.Value)
	require.NoError(t, err)
	assert.Empty(t, p.Roles)
}

func TestValidateExpired(t *testing.T) {
	m := newManager(t, issued.Add(11*time.Minute))

	tok, err := m.Generate(domain.Principal{UserID: "u-1"}, issued)
	require.NoError(t, err)

	_, err = m.Validate(tok.Value)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	m := newManager(t, issued)
	other, err := NewJWTManager("other-secret", 10*time.Minute, "userdir", "userdir-api")
	require.NoError(t, err)

	tok, err := other.Generate(domain.Principal{UserID: "u-1"}, issued)
	require.NoError(t, err)

	_, err = m.Validate(tok.Value)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestValidateRejectsWrongAudience(t *testing.T) {
	m := newManager(t, issued)
	other, err := NewJWTManager("test-secret", 10*time.Minute, "userdir", "someone-else")
	require.NoError(t, err)

	tok, err := other.Generate(domain.Principal{UserID: "u-1"}, issued)
	require.NoError(t, err)

	_, err = m.Validate(tok.Value)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestValidateMalformedAndMissing(t *testing.T) {
	m := newManager(t, issued)

	_, err := m.Validate("not.a.token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = m.Validate("")
	assert.ErrorIs(t, err, domain.ErrTokenMissing)
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager("", time.Minute, "", "")
	assert.Error(t, err)

	_, err = NewJWTManager("s", 0, "", "")
	assert.Error(t, err)
}
