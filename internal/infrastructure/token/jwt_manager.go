package token

import (
	"errors"
	"fmt"
	"time"

	domain "userdir/backend/internal/domain/auth"
	usecase "userdir/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager issues and validates HS256 JWT tokens carrying role claims.
type JWTManager struct {
	secret     []byte
	expiration time.Duration
	issuer     string
	audience   string
	now        func() time.Time
}

// Option customises a JWTManager.
type Option func(*JWTManager)

// WithClock replaces the clock used to validate expiry.
func WithClock(now func() time.Time) Option {
	return func(m *JWTManager) {
		m.now = now
	}
}

// NewJWTManager constructs a manager with the provided secret and expiration.
func NewJWTManager(secret string, expiration time.Duration, issuer, audience string, opts ...Option) (*JWTManager, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	if expiration <= 0 {
		return nil, fmt.Errorf("token: expiration must be positive, got %s", expiration)
	}
	m := &JWTManager{
		secret:     []byte(secret),
		expiration: expiration,
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Ensure JWTManager implements the TokenManager interface.
var _ usecase.TokenManager = (*JWTManager)(nil)

// Claims represents token claims.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Generate creates a signed JWT with one role entry per resolved role.
func (m *JWTManager) Generate(p domain.Principal, issuedAt time.Time) (domain.Token, error) {
	issuedAt = issuedAt.UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.expiration)
	claims := Claims{
		Email: p.Email,
		Roles: p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("token: sign: %w", err)
	}
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	return domain.Token{Value: signed, IssuedAt: issuedAt, ExpiresAt: expiresAt, Roles: roles}, nil
}

// Validate parses and validates the token returning its principal when valid.
func (m *JWTManager) Validate(tokenString string) (*domain.Principal, error) {
	if tokenString == "" {
		return nil, domain.ErrTokenMissing
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrTokenInvalid
	}
	p := &domain.Principal{
		UserID: claims.Subject,
		Email:  claims.Email,
		Roles:  claims.Roles,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}
