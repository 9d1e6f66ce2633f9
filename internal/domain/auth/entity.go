package auth

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrTokenMissing means no bearer token accompanied the request.
	ErrTokenMissing = errors.New("authorization token required")
	// ErrTokenInvalid means a supplied token is malformed or its signature does not verify.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired means the token verified but is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrForbidden means the caller holds none of the required roles.
	ErrForbidden = errors.New("insufficient role")
)

// Principal is the identity and role claim set carried by a verified token.
type Principal struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HasAnyRole reports whether the principal holds one of required.
// No required roles means any authenticated principal is accepted.
func (p *Principal) HasAnyRole(required ...string) bool {
	if p == nil {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, held := range p.Roles {
		for _, want := range required {
			if strings.EqualFold(held, want) {
				return true
			}
		}
	}
	return false
}

// Token is an issued credential.
type Token struct {
	Value     string    `json:"token"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Roles     []string  `json:"roles"`
}
