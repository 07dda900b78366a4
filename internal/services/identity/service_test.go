package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natebrady-cyera/deep-thought/internal/apperrors"
	"github.com/natebrady-cyera/deep-thought/internal/auth"
	"github.com/natebrady-cyera/deep-thought/internal/db/models"
	"github.com/natebrady-cyera/deep-thought/internal/repository"
	"github.com/natebrady-cyera/deep-thought/internal/testutil"
)

func newService(t *testing.T, bootstrapEmail string) (*Service, *repository.BunUserRepository) {
	t.Helper()
	users := repository.NewBunUserRepository(testutil.NewDB(t))
	policy, err := auth.NewDefaultRolePolicy()
	require.NoError(t, err)
	return NewService(users, auth.NewEvaluator(policy), bootstrapEmail), users
}

func TestBootstrapOrGet_NormalizesEmail(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t, "admin@x.com")

	first, err := svc.BootstrapOrGet(ctx, "Admin@X.com", "Ada Admin")
	require.NoError(t, err)
	second, err := svc.BootstrapOrGet(ctx, "ADMIN@x.COM ", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "admin@x.com", second.Email)
	assert.Equal(t, models.RoleAdmin, second.Role)

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBootstrapOrGet_RegularUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, "admin@x.com")

	u, err := svc.BootstrapOrGet(ctx, "seller@x.com", "Sam Seller")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	require.NotNil(t, u.FullName)
	assert.Equal(t, "Sam Seller", *u.FullName)

	_, err = svc.BootstrapOrGet(ctx, "  ", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBootstrapOrGet_PromotesExistingUser(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t, "Boss@X.com")

	existing := &models.User{Email: "boss@x.com", Role: models.RoleSalesManager, IsActive: true}
	require.NoError(t, users.Create(ctx, existing))

	u, err := svc.BootstrapOrGet(ctx, "boss@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, u.ID)
	assert.Equal(t, models.RoleAdmin, u.Role)

	stored, err := users.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Role)
}

func TestBootstrapOrGet_NoBootstrapEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, "")

	u, err := svc.BootstrapOrGet(ctx, "admin@x.com", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
}

func TestLogin_RefreshesSAMLFields(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t, "")

	u, err := svc.Login(ctx, LoginInput{Email: "jane@x.com", FullName: "Jane", SAMLNameID: "nid-1", SAMLSessionIndex: "s-1"})
	require.NoError(t, err)
	require.NotNil(t, u.SAMLNameID)
	assert.Equal(t, "nid-1", *u.SAMLNameID)

	u, err = svc.Login(ctx, LoginInput{Email: "JANE@x.com", SAMLSessionIndex: "s-2"})
	require.NoError(t, err)

	stored, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FullName)
	assert.Equal(t, "Jane", *stored.FullName)
	assert.Equal(t, "nid-1", *stored.SAMLNameID)
	assert.Equal(t, "s-2", *stored.SAMLSessionIndex)
}

func TestLogin_RejectsInactiveUser(t *testing.T) {
	ctx := context.Background()
	svc, users := newService(t, "")

	u, err := svc.BootstrapOrGet(ctx, "gone@x.com", "")
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, users.Update(ctx, u))

	_, err = svc.Login(ctx, LoginInput{Email: "gone@x.com"})
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)
}

func TestSetRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, "admin@x.com")

	admin, err := svc.BootstrapOrGet(ctx, "admin@x.com", "")
	require.NoError(t, err)
	seller, err := svc.BootstrapOrGet(ctx, "seller@x.com", "")
	require.NoError(t, err)

	_, err = svc.SetRole(ctx, seller, admin.ID, models.RoleUser)
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)

	_, err = svc.SetRole(ctx, admin, seller.ID, "KING")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	updated, err := svc.SetRole(ctx, admin, seller.ID, models.RoleSalesManager)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSalesManager, updated.Role)

	_, err = svc.List(ctx, seller)
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)
	all, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
