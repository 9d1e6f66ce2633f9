package postgres

import (
	"context"
	"errors"
	"strings"

	domain "userdir/backend/internal/domain/user"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository persists users in PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ domain.Repository = (*UserRepository)(nil)

const selectUsers = `
SELECT u.id::text, u.name, u.email, u.age, u.created_at
FROM users u`

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
INSERT INTO users (id, name, email, age, created_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Age,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailNotUnique
		}
		return err
	}
	return nil
}

// GetByID retrieves a user and its roles by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, selectUsers+` WHERE u.id = $1`, id)
}

// GetByEmail fetches a user and its roles by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, selectUsers+` WHERE lower(u.email) = lower($1)`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if err := attachRoles(ctx, r.pool, []*domain.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// Update replaces name, email and age.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
UPDATE users
SET name = $2, email = $3, age = $4
WHERE id = $1
`
	ct, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Age,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailNotUnique
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes the user's role grants and then the user in one transaction.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return WithTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
			return err
		}
		ct, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

// EmailTaken reports whether a user other than excludeID holds email.
func (r *UserRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`
	args := []any{email}
	if excludeID != "" {
		query = `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1) AND id <> $2)`
		args = append(args, excludeID)
	}
	var taken bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// Search counts the filtered set and reads one page of it from the same
// snapshot.
func (r *UserRepository) Search(ctx context.Context, q domain.Query) (*domain.Result, error) {
	clauses := buildSearch(q)
	var result *domain.Result
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := WithTx(ctx, r.pool, opts, func(tx pgx.Tx) error {
		var total int
		countSQL := `SELECT count(*) FROM users u ` + clauses.where
		if err := tx.QueryRow(ctx, countSQL, clauses.args...).Scan(&total); err != nil {
			return err
		}

		limit, args := clauses.page(q.Page)
		pageSQL := strings.Join([]string{selectUsers, clauses.where, clauses.orderBy, limit}, "\n")
		users, err := queryUsers(ctx, tx, pageSQL, args...)
		if err != nil {
			return err
		}
		if err := attachRoles(ctx, tx, users); err != nil {
			return err
		}
		result = domain.NewResult(users, q.Page, total)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func queryUsers(ctx context.Context, q querier, sql string, args ...any) ([]*domain.User, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// attachRoles loads the distinct roles of every user in one round trip.
func attachRoles(ctx context.Context, q querier, users []*domain.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, 0, len(users))
	byID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		u.Roles = []domain.Role{}
		ids = append(ids, u.ID)
		byID[u.ID] = u
	}

	const query = `
SELECT DISTINCT ur.user_id::text, r.id::text, r.name
FROM user_roles ur
JOIN roles r ON r.id = ur.role_id
WHERE ur.user_id = ANY($1::uuid[])
ORDER BY r.name
`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID string
			role   domain.Role
		)
		if err := rows.Scan(&userID, &role.ID, &role.Name); err != nil {
			return err
		}
		if u, ok := byID[userID]; ok {
			u.Roles = append(u.Roles, role)
		}
	}
	return rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Age,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
