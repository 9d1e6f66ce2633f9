package auth

import (
	"context"

	"userdir/backend/internal/domain/user"
)

// UserLookup resolves a principal and its roles at issuance time.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}
