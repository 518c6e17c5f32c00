//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/dimitrije/passop-api/internal/models"
	"github.com/dimitrije/passop-api/internal/oauth"
	"github.com/dimitrije/passop-api/internal/services"
	"github.com/dimitrije/passop-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Integration_RegisterAndAuthenticate(t *testing.T) {
	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Alice@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.ProviderCredentials, user.Provider)
	require.NotNil(t, user.PasswordHash)
	assert.NotEqual(t, "correct horse", *user.PasswordHash)

	signedIn, err := svc.Authenticate(ctx, "ALICE@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrong password")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestUserService_Integration_DuplicateEmail(t *testing.T) {
	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Alice@example.com", "another password")
	assert.ErrorIs(t, err, services.ErrEmailTaken)
}

func TestUserService_Integration_OAuthAccountHasNoPassword(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewUserService(tdb.DB)

	user := fixtures.CreateUser(t, testutil.WithEmail("gh@example.com"), testutil.WithOAuthProvider(models.ProviderGitHub))

	_, err := svc.Authenticate(context.Background(), user.Email, "")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestUserService_Integration_FindOrCreateFromOAuth(t *testing.T) {
	tdb := setupTest(t)
	fixtures := testutil.NewFixtures(tdb.DB)
	svc := services.NewUserService(tdb.DB)
	ctx := context.Background()

	existing := fixtures.CreateUser(t, testutil.WithEmail("alice@example.com"))

	// A provider sign-in with a known email lands on the same owner.
	linked, err := svc.FindOrCreateFromOAuth(ctx, &oauth.UserInfo{Email: "alice@example.com", Provider: models.ProviderGitHub})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)

	created, err := svc.FindOrCreateFromOAuth(ctx, &oauth.UserInfo{Email: "bob@example.com", Provider: models.ProviderGitHub})
	require.NoError(t, err)
	assert.NotEqual(t, existing.ID, created.ID)
	assert.Equal(t, models.ProviderGitHub, created.Provider)
	assert.Nil(t, created.PasswordHash)

	found, err := svc.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}
