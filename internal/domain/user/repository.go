package user

import "context"

// Repository defines persistence operations for users.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	// Delete removes the user and its role associations as one unit.
	Delete(ctx context.Context, id string) error
	// EmailTaken reports whether a user other than excludeID holds email.
	// An empty excludeID checks globally.
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	Search(ctx context.Context, query Query) (*Result, error)
	Count(ctx context.Context) (int, error)
}

// RoleRepository defines persistence operations for the role catalog and
// the user to role association.
type RoleRepository interface {
	List(ctx context.Context) ([]Role, error)
	GetByID(ctx context.Context, id string) (*Role, error)
	Create(ctx context.Context, role *Role) error
	// Assign grants the role; granting a held role is a no-op.
	Assign(ctx context.Context, userID, roleID string) error
	// Revoke removes the grant; revoking an absent grant is a no-op.
	Revoke(ctx context.Context, userID, roleID string) error
	Count(ctx context.Context) (int, error)
}
