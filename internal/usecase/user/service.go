package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domain "userdir/backend/internal/domain/user"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Service provides directory use cases: CRUD, role grants and the
// filter/sort/page query engine.
type Service struct {
	users    domain.Repository
	roles    domain.RoleRepository
	validate *validator.Validate
	logger   *slog.Logger
	nowFunc  func() time.Time
}

// NewService constructs a user service around the provided repositories.
func NewService(users domain.Repository, roles domain.RoleRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		roles:    roles,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// CreateInput defines the payload to create a new user.
type CreateInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"min=0"`
}

// EditInput replaces name, email and age of an existing user. Every field
// is mandatory.
type EditInput struct {
	ID    string  `json:"id" validate:"required"`
	Name  *string `json:"name" validate:"required"`
	Email *string `json:"email" validate:"required,email"`
	Age   *int    `json:"age" validate:"required,min=0"`
}

// RoleGrantInput names one user to role association.
type RoleGrantInput struct {
	UserID string `json:"userId" validate:"required"`
	RoleID string `json:"roleId" validate:"required"`
}

// FilterSortInput drives the range-filter query.
type FilterSortInput struct {
	Filters       []domain.FilterParam `json:"filters"`
	SortField     string               `json:"sortField"`
	SortDirection domain.SortDirection `json:"sortDirection"`
	PageNumber    int                  `json:"pageNumber"`
	PageSize      int                  `json:"pageSize"`
}

// FilterSortRolesInput drives the role-selection query.
type FilterSortRolesInput struct {
	SelectedRoles []string             `json:"selectedRoles"`
	SortField     string               `json:"sortField"`
	SortDirection domain.SortDirection `json:"sortDirection"`
	PageNumber    int                  `json:"pageNumber"`
	PageSize      int                  `json:"pageSize"`
}

// Create persists a new user with no roles.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := s.check(input); err != nil {
		return nil, err
	}

	taken, err := s.users.EmailTaken(ctx, input.Email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrEmailNotUnique
	}

	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Email:     input.Email,
		Age:       input.Age,
		Roles:     []domain.Role{},
		CreatedAt: s.nowFunc().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user created", slog.String("id", user.ID), slog.String("email", user.Email))
	return user, nil
}

// Edit replaces name, email and age of the identified user.
func (s *Service) Edit(ctx context.Context, input EditInput) (*domain.User, error) {
	if err := s.check(input); err != nil {
		return nil, err
	}
	id, err := parseID("user id", input.ID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(*input.Name)
	email := strings.TrimSpace(*input.Email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	taken, err := s.users.EmailTaken(ctx, email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrEmailNotUnique
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Email = email
	user.Age = *input.Age
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user updated", slog.String("id", id))
	return user, nil
}

// Delete removes the user together with its role associations.
func (s *Service) Delete(ctx context.Context, id string) error {
	id, err := parseID("user id", id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.String("id", id))
	return nil
}

// Get retrieves a single user with its roles.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	id, err := parseID("user id", id)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// List returns one page of all users in creation order.
func (s *Service) List(ctx context.Context, pageNumber, pageSize int) (*domain.Result, error) {
	page, err := domain.NewPage(pageNumber, pageSize)
	if err != nil {
		return nil, err
	}
	return s.users.Search(ctx, domain.Query{Page: page})
}

// AddRole grants a role to a user. Granting a held role is a no-op.
func (s *Service) AddRole(ctx context.Context, input RoleGrantInput) error {
	userID, roleID, err := s.grantIDs(input)
	if err != nil {
		return err
	}
	return s.roles.Assign(ctx, userID, roleID)
}

// RemoveRole revokes a role from a user. Revoking an absent grant is a no-op.
func (s *Service) RemoveRole(ctx context.Context, input RoleGrantInput) error {
	userID, roleID, err := s.grantIDs(input)
	if err != nil {
		return err
	}
	return s.roles.Revoke(ctx, userID, roleID)
}

// FilterSort returns the requested page of users satisfying every valid
// range filter, ordered by the sort field. Malformed filters are ignored
// and an unknown sort field keeps creation order.
func (s *Service) FilterSort(ctx context.Context, input FilterSortInput) (*domain.Result, error) {
	page, err := domain.NewPage(input.PageNumber, input.PageSize)
	if err != nil {
		return nil, err
	}
	query := domain.Query{
		Filters: domain.ParseFilters(input.Filters),
		Sort:    s.sort(input.SortField, input.SortDirection),
		Page:    page,
	}
	if dropped := len(input.Filters) - len(query.Filters); dropped > 0 {
		s.logger.Debug("ignored malformed filters", slog.Int("count", dropped))
	}
	return s.users.Search(ctx, query)
}

// FilterSortRoles returns the requested page of users holding any of the
// selected roles. No selection means every user.
func (s *Service) FilterSortRoles(ctx context.Context, input FilterSortRolesInput) (*domain.Result, error) {
	page, err := domain.NewPage(input.PageNumber, input.PageSize)
	if err != nil {
		return nil, err
	}
	var selected []string
	for _, name := range input.SelectedRoles {
		if name = strings.TrimSpace(name); name != "" {
			selected = append(selected, name)
		}
	}
	return s.users.Search(ctx, domain.Query{
		Roles: selected,
		Sort:  s.sort(input.SortField, input.SortDirection),
		Page:  page,
	})
}

type seedUser struct {
	name  string
	email string
	age   int
	roles []string
}

var seedUsers = []seedUser{
	{name: "name1", email: "email1@gmail.com", age: 14, roles: []string{domain.RoleUser}},
	{name: "name2", email: "email2@gmail.com", age: 34, roles: []string{domain.RoleAdmin, domain.RoleSuperAdmin}},
	{name: "name3", email: "email3@gmail.com", age: 33, roles: []string{domain.RoleAdmin, domain.RoleSupport}},
}

// Seed inserts the sample directory when no users exist yet. The role
// catalog must already be seeded.
func (s *Service) Seed(ctx context.Context) error {
	n, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	catalog, err := s.roles.List(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(catalog))
	for _, r := range catalog {
		byName[strings.ToLower(r.Name)] = r.ID
	}

	for _, su := range seedUsers {
		created, err := s.Create(ctx, CreateInput{Name: su.name, Email: su.email, Age: su.age})
		if err != nil {
			return fmt.Errorf("seed user %s: %w", su.email, err)
		}
		for _, name := range su.roles {
			roleID, ok := byName[strings.ToLower(name)]
			if !ok {
				continue
			}
			if err := s.roles.Assign(ctx, created.ID, roleID); err != nil {
				return fmt.Errorf("seed role %s for %s: %w", name, su.email, err)
			}
		}
	}
	s.logger.Info("seeded users", slog.Int("count", len(seedUsers)))
	return nil
}

func (s *Service) sort(field string, direction domain.SortDirection) *domain.Sort {
	sort := domain.ParseSort(field, direction)
	if sort == nil && strings.TrimSpace(field) != "" {
		s.logger.Debug("ignored unknown sort field", slog.String("field", field))
	}
	return sort
}

func (s *Service) grantIDs(input RoleGrantInput) (string, string, error) {
	if err := s.check(input); err != nil {
		return "", "", err
	}
	userID, err := parseID("user id", input.UserID)
	if err != nil {
		return "", "", err
	}
	roleID, err := parseID("role id", input.RoleID)
	if err != nil {
		return "", "", err
	}
	return userID, roleID, nil
}

func (s *Service) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: fill in all details, %s is required", domain.ErrValidation, field)
	case "email":
		return fmt.Errorf("%w: invalid email format", domain.ErrValidation)
	case "min":
		if field == "age" {
			return fmt.Errorf("%w: age must be positive number", domain.ErrValidation)
		}
		return fmt.Errorf("%w: %s must be at least %s", domain.ErrValidation, field, fe.Param())
	default:
		return fmt.Errorf("%w: %s is invalid", domain.ErrValidation, field)
	}
}

func parseID(label, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: %s must be not null", domain.ErrValidation, label)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not a valid id", domain.ErrValidation, label)
	}
	return id.String(), nil
}
