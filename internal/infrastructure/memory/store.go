// Package memory provides process-local user and role stores. Every
// operation runs under a single store lock, so multi-step writes such as
// delete-with-cascade are atomic.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	domain "userdir/backend/internal/domain/user"

	"github.com/google/uuid"
)

type userRecord struct {
	user domain.User
	seq  int64
}

// Store holds users, roles and their associations.
type Store struct {
	mu     sync.RWMutex
	seq    int64
	users  map[string]*userRecord
	roles  map[string]domain.Role
	grants []domain.UserRole
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users: make(map[string]*userRecord),
		roles: make(map[string]domain.Role),
	}
}

// Users exposes the store as a user repository.
func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

// Roles exposes the store as a role repository.
func (s *Store) Roles() *RoleRepository {
	return &RoleRepository{store: s}
}

// resolve copies the record and attaches its roles ordered by name.
// Callers must hold at least a read lock.
func (s *Store) resolve(rec *userRecord) *domain.User {
	u := rec.user
	roles := make([]domain.Role, 0)
	for _, g := range s.grants {
		if g.UserID != u.ID {
			continue
		}
		if r, ok := s.roles[g.RoleID]; ok {
			roles = append(roles, r)
		}
	}
	roles = domain.DedupeRoles(roles)
	slices.SortStableFunc(roles, func(a, b domain.Role) int { return strings.Compare(a.Name, b.Name) })
	u.Roles = roles
	return &u
}

func (s *Store) ordered() []*userRecord {
	recs := make([]*userRecord, 0, len(s.users))
	for _, rec := range s.users {
		recs = append(recs, rec)
	}
	slices.SortFunc(recs, func(a, b *userRecord) int { return cmp.Compare(a.seq, b.seq) })
	return recs
}

func (s *Store) emailTaken(email, excludeID string) bool {
	for id, rec := range s.users {
		if id != excludeID && strings.EqualFold(rec.user.Email, email) {
			return true
		}
	}
	return false
}

// UserRepository implements domain.Repository over a Store.
type UserRepository struct {
	store *Store
}

var _ domain.Repository = (*UserRepository)(nil)

// Create inserts a new user record.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("memory: user %s already exists", user.ID)
	}
	if s.emailTaken(user.Email, "") {
		return domain.ErrEmailNotUnique
	}
	s.seq++
	stored := *user
	stored.Roles = nil
	s.users[user.ID] = &userRecord{user: stored, seq: s.seq}
	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return s.resolve(rec), nil
}

// GetByEmail fetches a user by email, ignoring case.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.users {
		if strings.EqualFold(rec.user.Email, email) {
			return s.resolve(rec), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Update replaces name, email and age of an existing user.
func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if s.emailTaken(user.Email, user.ID) {
		return domain.ErrEmailNotUnique
	}
	rec.user.Name = user.Name
	rec.user.Email = user.Email
	rec.user.Age = user.Age
	return nil
}

// Delete removes a user and all of its role associations.
func (r *UserRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	s.grants = slices.DeleteFunc(s.grants, func(g domain.UserRole) bool { return g.UserID == id })
	delete(s.users, id)
	return nil
}

// EmailTaken reports whether another user holds email.
func (r *UserRepository) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emailTaken(email, excludeID), nil
}

// Search filters, orders and pages the directory.
func (r *UserRepository) Search(_ context.Context, query domain.Query) (*domain.Result, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	match := query.Predicate()
	var matched []*domain.User
	for _, rec := range s.ordered() {
		u := s.resolve(rec)
		if match(u) {
			matched = append(matched, u)
		}
	}
	if query.Sort != nil {
		sort := *query.Sort
		slices.SortStableFunc(matched, sort.Compare)
	}

	total := len(matched)
	start := min(query.Page.Offset(), total)
	end := start + min(query.Page.Size, total-start)
	return domain.NewResult(matched[start:end], query.Page, total), nil
}

// Count returns the number of users.
func (r *UserRepository) Count(_ context.Context) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// RoleRepository implements domain.RoleRepository over a Store.
type RoleRepository struct {
	store *Store
}

var _ domain.RoleRepository = (*RoleRepository)(nil)

// List returns every role ordered by name.
func (r *RoleRepository) List(_ context.Context) ([]domain.Role, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	roles := make([]domain.Role, 0, len(s.roles))
	for _, role := range s.roles {
		roles = append(roles, role)
	}
	slices.SortFunc(roles, func(a, b domain.Role) int { return strings.Compare(a.Name, b.Name) })
	return roles, nil
}

// GetByID fetches a role by id.
func (r *RoleRepository) GetByID(_ context.Context, id string) (*domain.Role, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &role, nil
}

// Create inserts a role.
func (r *RoleRepository) Create(_ context.Context, role *domain.Role) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[role.ID] = *role
	return nil
}

// Assign grants roleID to userID.
func (r *RoleRepository) Assign(_ context.Context, userID, roleID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	if _, ok := s.roles[roleID]; !ok {
		return domain.ErrRoleNotFound
	}
	for _, g := range s.grants {
		if g.UserID == userID && g.RoleID == roleID {
			return nil
		}
	}
	s.grants = append(s.grants, domain.UserRole{ID: uuid.NewString(), UserID: userID, RoleID: roleID})
	return nil
}

// Revoke removes the grant if present.
func (r *RoleRepository) Revoke(_ context.Context, userID, roleID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants = slices.DeleteFunc(s.grants, func(g domain.UserRole) bool {
		return g.UserID == userID && g.RoleID == roleID
	})
	return nil
}

// Count returns the catalog size.
func (r *RoleRepository) Count(_ context.Context) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roles), nil
}
