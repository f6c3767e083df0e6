package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vehiscan/vehiscan/internal/auth"
	"github.com/vehiscan/vehiscan/internal/guard"
	"github.com/vehiscan/vehiscan/internal/models"
	pkgauth "github.com/vehiscan/vehiscan/pkg/auth"
	pkglogger "github.com/vehiscan/vehiscan/pkg/logger"
)

const authTestSecret = "service-test-secret-long-enough-for-hs256"

func newTestAuthService(t *testing.T, repo *MockUserRepository) (*AuthService, *guard.LockoutTracker) {
	t.Helper()

	logger := slog.Default()
	lockouts := guard.NewLockoutTracker(newMemKV(), guard.DefaultLockoutConfig(), logger)
	tm := auth.NewTokenManager(authTestSecret, 15*time.Minute, 7*24*time.Hour)
	timing := auth.NewTimingDelay(auth.TimingConfig{})

	return NewAuthService(repo, lockouts, tm, timing, logger, pkglogger.NewAuditLogger(logger)), lockouts
}

func userWithPassword(t *testing.T, email, password string) *models.User {
	t.Helper()

	hash, err := pkgauth.HashPassword(password)
	require.NoError(t, err)

	user := NewTestUser("user123", email, "Juan Dela Cruz")
	user.PasswordHash = hash
	return user
}

func TestAuthService_Login_Success(t *testing.T) {
	user := userWithPassword(t, "juan@example.com", "myVehicle123")

	svc, _ := newTestAuthService(t, &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, "juan@example.com", email)
			return user, nil
		},
	})

	resp, err := svc.Login(context.Background(), "  Juan@Example.COM ", "myVehicle123")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "juan@example.com", resp.User.Email)
}

func TestAuthService_Login_WrongPasswordRecordsFailure(t *testing.T) {
	user := userWithPassword(t, "juan@example.com", "myVehicle123")

	svc, lockouts := newTestAuthService(t, &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	})

	resp, err := svc.Login(context.Background(), "juan@example.com", "wrongPassword1")
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	var denied *LoginDeniedError
	require.ErrorAs(t, err, &denied)
	assert.False(t, denied.Locked)
	assert.Contains(t, denied.Notice, "2 attempt(s) remaining")

	result := lockouts.RecordFailure(context.Background(), "juan@example.com")
	assert.Equal(t, 2, result.Attempts)
}

func TestAuthService_Login_UnknownUserSameNotice(t *testing.T) {
	svc, _ := newTestAuthService(t, &MockUserRepository{})

	resp, err := svc.Login(context.Background(), "ghost@example.com", "whatever123")
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	var denied *LoginDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Notice, "Invalid email or password")
}

func TestAuthService_Login_LocksAfterThreeFailures(t *testing.T) {
	user := userWithPassword(t, "juan@example.com", "myVehicle123")

	svc, _ := newTestAuthService(t, &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	})

	ctx := context.Background()
	var lastErr error
	for i := 0; i < 3; i++ {
		_, lastErr = svc.Login(ctx, "juan@example.com", "wrongPassword1")
		require.Error(t, lastErr)
	}

	assert.ErrorIs(t, lastErr, models.ErrAccountLocked)
	var denied *LoginDeniedError
	require.ErrorAs(t, lastErr, &denied)
	assert.True(t, denied.Locked)
	assert.Contains(t, denied.Notice, "locked for 10 minutes")

	// Even the correct password is refused while locked
	resp, err := svc.Login(ctx, "juan@example.com", "myVehicle123")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, models.ErrAccountLocked)
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Notice, "Please try again in")
}

func TestAuthService_Login_SuccessClearsFailureStreak(t *testing.T) {
	user := userWithPassword(t, "juan@example.com", "myVehicle123")

	svc, lockouts := newTestAuthService(t, &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	})

	ctx := context.Background()
	_, err := svc.Login(ctx, "juan@example.com", "wrongPassword1")
	require.Error(t, err)
	_, err = svc.Login(ctx, "juan@example.com", "wrongPassword1")
	require.Error(t, err)

	_, err = svc.Login(ctx, "juan@example.com", "myVehicle123")
	require.NoError(t, err)

	// The next failure counts as the first of a new streak
	result := lockouts.RecordFailure(ctx, "juan@example.com")
	assert.Equal(t, 1, result.Attempts)
}

func TestAuthService_Login_BlockedAccountStates(t *testing.T) {
	for status, wantErr := range map[string]error{
		"disabled":  models.ErrAccountDisabled,
		"suspended": models.ErrAccountSuspended,
	} {
		user := userWithPassword(t, "juan@example.com", "myVehicle123")
		user.Status = status

		svc, _ := newTestAuthService(t, &MockUserRepository{
			GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
				return user, nil
			},
		})

		_, err := svc.Login(context.Background(), "juan@example.com", "myVehicle123")
		assert.ErrorIs(t, err, wantErr)
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _ := newTestAuthService(t, &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = "user123"
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return user, nil
		},
	})

	resp, err := svc.Register(context.Background(), "Juan@Example.com", "myVehicle123", "Juan Dela Cruz", "+639171234567")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "juan@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	existing := NewTestUser("existing", "juan@example.com", "Existing User")

	svc, _ := newTestAuthService(t, &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return existing, nil
		},
	})

	resp, err := svc.Register(context.Background(), "juan@example.com", "myVehicle123", "Juan Dela Cruz", "")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	svc, _ := newTestAuthService(t, &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
	})

	resp, err := svc.Register(context.Background(), "juan@example.com", "short", "Juan Dela Cruz", "")
	assert.Nil(t, resp)
	require.Error(t, err)

	var validationErr *pkgauth.PasswordValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestAuthService_Register_SanitizesName(t *testing.T) {
	var created *models.User

	svc, _ := newTestAuthService(t, &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			created = user
			user.ID = "user123"
			return user, nil
		},
	})

	_, err := svc.Register(context.Background(), "juan@example.com", "myVehicle123", "Juan <b>Dela Cruz", "")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Juan bDela Cruz", created.Name)
}

func TestAuthService_RefreshToken_RoundTrip(t *testing.T) {
	user := userWithPassword(t, "juan@example.com", "myVehicle123")

	svc, _ := newTestAuthService(t, &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	})

	login, err := svc.Login(context.Background(), "juan@example.com", "myVehicle123")
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestAuthService_RefreshToken_RejectsAccessToken(t *testing.T) {
	user := userWithPassword(t, "juan@example.com", "myVehicle123")

	svc, _ := newTestAuthService(t, &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	})

	login, err := svc.Login(context.Background(), "juan@example.com", "myVehicle123")
	require.NoError(t, err)

	_, err = svc.RefreshToken(context.Background(), login.AccessToken)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
