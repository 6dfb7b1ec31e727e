package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/busseva/busseva-backend/internal/model"
	"github.com/busseva/busseva-backend/internal/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*AuthService, *testutil.MemoryAdminStore) {
	t.Helper()
	cfg := testutil.Config(t.TempDir())
	store := testutil.NewMemoryAdminStore()
	admins := NewAdminService(cfg, store, zerolog.Nop())
	require.NoError(t, admins.EnsureDefaultAdmin(context.Background()))
	return NewAuthService(cfg, store), store
}

func TestIssueThenVerify_RoundTrip(t *testing.T) {
	auth, _ := newAuthFixture(t)

	issued, err := auth.IssueToken(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)

	id, err := auth.VerifyToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, issued.Admin.ID, id.ID)
	assert.Equal(t, "admin", id.Username)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), id.ExpiresAt, time.Minute)
}

func TestIssueToken_BadCredentials(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := auth.IssueToken(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.IssueToken(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyToken_ExpiresAfter24h(t *testing.T) {
	auth, _ := newAuthFixture(t)

	issuedAt := time.Now()
	auth.now = func() time.Time { return issuedAt }
	issued, err := auth.IssueToken(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	auth.now = func() time.Time { return issuedAt.Add(23*time.Hour + 59*time.Minute) }
	_, err = auth.VerifyToken(issued.Token)
	require.NoError(t, err)

	auth.now = func() time.Time { return issuedAt.Add(24*time.Hour + time.Minute) }
	_, err = auth.VerifyToken(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Rejects(t *testing.T) {
	auth, _ := newAuthFixture(t)

	_, err := auth.VerifyToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = auth.VerifyToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signed with another secret.
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		AdminID:          1,
	})
	signed, err := forged.SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = auth.VerifyToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Unsigned.
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		AdminID:          1,
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.VerifyToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// No expiry.
	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{AdminID: 1})
	signed, err = noExp.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = auth.VerifyToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordIsStoredHashed(t *testing.T) {
	_, store := newAuthFixture(t)

	a, err := store.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", a.PasswordHash)
	assert.Contains(t, a.PasswordHash, "$2a$")
}

type failingAdminStore struct {
	testutil.MemoryAdminStore
}

func (*failingAdminStore) GetByUsername(context.Context, string) (*model.Admin, error) {
	return nil, errors.New("connection refused")
}

func TestIssueToken_StoreFailureIsNotInvalidCredentials(t *testing.T) {
	auth := NewAuthService(testutil.Config(t.TempDir()), &failingAdminStore{})

	_, err := auth.IssueToken(context.Background(), "admin", "admin123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
