package postgres

import (
	"context"
	"errors"

	domain "userdir/backend/internal/domain/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RoleRepository persists the role catalog and user grants in PostgreSQL.
type RoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository constructs a repository.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

var _ domain.RoleRepository = (*RoleRepository)(nil)

// List returns all roles sorted by name.
func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, name FROM roles ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []domain.Role{}
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetByID fetches a role by id.
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	var role domain.Role
	err := r.pool.QueryRow(ctx, `SELECT id::text, name FROM roles WHERE id = $1`, id).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

// Create inserts a role.
func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO roles (id, name) VALUES ($1, $2)`, role.ID, role.Name)
	return err
}

// Assign grants roleID to userID. An existing grant is left untouched.
func (r *RoleRepository) Assign(ctx context.Context, userID, roleID string) error {
	const query = `
INSERT INTO user_roles (id, user_id, role_id)
VALUES ($1, $2, $3)
ON CONFLICT ON CONSTRAINT user_roles_user_id_role_id_key DO NOTHING
`
	_, err := r.pool.Exec(ctx, query, uuid.NewString(), userID, roleID)
	if constraint, ok := foreignKeyConstraint(err); ok {
		switch constraint {
		case "user_roles_user_id_fkey":
			return domain.ErrUserNotFound
		case "user_roles_role_id_fkey":
			return domain.ErrRoleNotFound
		}
	}
	return err
}

// Revoke removes the grant. Removing an absent grant succeeds.
func (r *RoleRepository) Revoke(ctx context.Context, userID, roleID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return err
}

// Count returns the catalog size.
func (r *RoleRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM roles`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
