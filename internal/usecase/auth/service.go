package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "userdir/backend/internal/domain/auth"
	userdomain "userdir/backend/internal/domain/user"
)

// Service coordinates token issuance and verification.
//
// Roles are resolved once, when the token is issued, and travel inside it.
// Revoking a role therefore only takes effect for tokens issued afterwards;
// tokens already handed out keep their roles until they expire.
type Service struct {
	users   domain.UserLookup
	tokens  TokenManager
	nowFunc func() time.Time
}

// NewService constructs an auth service.
func NewService(users domain.UserLookup, tokens TokenManager) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		nowFunc: time.Now,
	}
}

// IssueToken resolves the user owning email and signs a credential with
// one role claim per distinct role it holds.
func (s *Service) IssueToken(ctx context.Context, email string) (domain.Token, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Token{}, fmt.Errorf("%w: email is required", userdomain.ErrValidation)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return domain.Token{}, err
	}

	return s.tokens.Generate(domain.Principal{
		UserID: u.ID,
		Email:  u.Email,
		Roles:  u.RoleNames(),
	}, s.nowFunc())
}

// Authenticate validates a bearer token and returns its principal.
// The result is one of ErrTokenMissing, ErrTokenExpired or ErrTokenInvalid
// on failure.
func (s *Service) Authenticate(token string) (*domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrTokenMissing
	}
	p, err := s.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) || errors.Is(err, domain.ErrTokenInvalid) || errors.Is(err, domain.ErrTokenMissing) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	return p, nil
}

// Authorize checks that p holds any of the required roles.
func Authorize(p *domain.Principal, required ...string) error {
	if p == nil {
		return domain.ErrTokenMissing
	}
	if !p.HasAnyRole(required...) {
		return domain.ErrForbidden
	}
	return nil
}
