package auth

import (
	"time"

	domain "userdir/backend/internal/domain/auth"
)

// TokenManager abstracts token issuance and verification.
type TokenManager interface {
	// Generate signs a credential for p that is valid from issuedAt until
	// issuedAt plus the manager's lifetime.
	Generate(p domain.Principal, issuedAt time.Time) (domain.Token, error)
	// Validate verifies signature, issuer, audience and expiry.
	Validate(token string) (*domain.Principal, error)
}
