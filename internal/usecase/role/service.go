package role

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	domain "userdir/backend/internal/domain/user"

	"github.com/google/uuid"
)

// DefaultCatalog is the role set inserted into an empty store.
var DefaultCatalog = []string{
	domain.RoleUser,
	domain.RoleAdmin,
	domain.RoleSupport,
	domain.RoleSuperAdmin,
}

// Service encapsulates role catalog use cases.
type Service struct {
	repo   domain.RoleRepository
	logger *slog.Logger
}

// NewService constructs a role service.
func NewService(repo domain.RoleRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// List returns the whole catalog ordered by name.
func (s *Service) List(ctx context.Context) ([]domain.Role, error) {
	return s.repo.List(ctx)
}

// Get fetches one role.
func (s *Service) Get(ctx context.Context, id string) (*domain.Role, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%w: role id is not a valid id", domain.ErrValidation)
	}
	return s.repo.GetByID(ctx, parsed.String())
}

// Seed inserts names when the catalog is empty. A nil names seeds the
// default catalog.
func (s *Service) Seed(ctx context.Context, names []string) error {
	if names == nil {
		names = DefaultCatalog
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := s.repo.Create(ctx, &domain.Role{ID: uuid.NewString(), Name: name}); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	s.logger.Info("seeded role catalog", slog.Int("count", len(names)))
	return nil
}
