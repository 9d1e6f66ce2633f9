package role_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "userdir/backend/internal/domain/user"
	"userdir/backend/internal/infrastructure/memory"
	"userdir/backend/internal/usecase/role"
)

func TestSeedDefaultCatalogOnce(t *testing.T) {
	repo := memory.New().Roles()
	svc := role.NewService(repo, nil)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx, nil))
	require.NoError(t, svc.Seed(ctx, []string{"Auditor"}))

	roles, err := svc.List(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Admin", "SuperAdmin", "Support", "User"}, names)
}

func TestSeedCustomCatalogSkipsBlank(t *testing.T) {
	svc := role.NewService(memory.New().Roles(), nil)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx, []string{"Auditor", " ", "Owner", "Guest", "Viewer", "Editor"}))
	roles, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 5)
}

func TestGet(t *testing.T) {
	svc := role.NewService(memory.New().Roles(), nil)
	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx, nil))
	roles, err := svc.List(ctx)
	require.NoError(t, err)

	got, err := svc.Get(ctx, roles[0].ID)
	require.NoError(t, err)
	assert.Equal(t, roles[0], *got)

	_, err = svc.Get(ctx, "bogus")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrRoleNotFound)
}
