package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/busseva/busseva-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureDefaultAdmin_Idempotent(t *testing.T) {
	cfg := testutil.Config(t.TempDir())
	store := testutil.NewMemoryAdminStore()
	svc := NewAdminService(cfg, store, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.EnsureDefaultAdmin(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.Count())
}

func TestEnsureDefaultAdmin_KeepsChangedPassword(t *testing.T) {
	cfg := testutil.Config(t.TempDir())
	store := testutil.NewMemoryAdminStore()
	svc := NewAdminService(cfg, store, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultAdmin(ctx))
	require.NoError(t, svc.ResetPassword(ctx, "admin", "s3cret-pass"))
	require.NoError(t, svc.EnsureDefaultAdmin(ctx))

	a, err := store.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("s3cret-pass")))
}

func TestEnsureDefaultAdmin_DevelopmentReset(t *testing.T) {
	cfg := testutil.Config(t.TempDir())
	cfg.AppEnv = "development"
	cfg.AdminResetOnBoot = true
	store := testutil.NewMemoryAdminStore()
	svc := NewAdminService(cfg, store, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultAdmin(ctx))
	require.NoError(t, svc.ResetPassword(ctx, "admin", "forgotten"))
	require.NoError(t, svc.EnsureDefaultAdmin(ctx))

	a, err := store.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("admin123")))
	assert.NotEqual(t, "admin123", a.PasswordHash)
}

func TestResetPassword_UnknownAdmin(t *testing.T) {
	svc := NewAdminService(testutil.Config(t.TempDir()), testutil.NewMemoryAdminStore(), zerolog.Nop())
	assert.ErrorIs(t, svc.ResetPassword(context.Background(), "ghost", "x"), ErrAdminNotFound)
}

func TestBootstrapper_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	fail := true
	b := NewBootstrapper(zerolog.Nop(), BootstrapStep{
		Name: "schema",
		Run: func(context.Context) error {
			calls++
			if fail {
				return errors.New("dial tcp: connection refused")
			}
			return nil
		},
	})
	ctx := context.Background()

	assert.Error(t, b.Ensure(ctx))
	assert.False(t, b.Ready())

	fail = false
	require.NoError(t, b.Ensure(ctx))
	assert.True(t, b.Ready())

	require.NoError(t, b.Ensure(ctx))
	assert.Equal(t, 2, calls)
}

func TestBootstrapper_WaitingCallerHonoursContext(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	b := NewBootstrapper(zerolog.Nop(), BootstrapStep{
		Name: "schema",
		Run: func(context.Context) error {
			close(entered)
			<-release
			return nil
		},
	})

	first := make(chan error, 1)
	go func() { first <- b.Ensure(context.Background()) }()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := b.Ensure(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, b.Ready())

	close(release)
	require.NoError(t, <-first)
	assert.True(t, b.Ready())
}

func TestBootstrapper_StepDeadline(t *testing.T) {
	b := NewBootstrapper(zerolog.Nop(), BootstrapStep{
		Name: "schema",
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, b.Ensure(ctx), context.DeadlineExceeded)
	assert.False(t, b.Ready())
}
