package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/auth"
	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/user"
	"github.com/sitecrew-hq/siteops-backend-go/internal/pkg/jwt"
)

const (
	testAccessExp  = "1h"
	testRefreshExp = "24h"
	testSecret     = "test-secret-key-for-jwt"
)

type fakeUserRepo struct {
	users []user.User
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func newTestAuthService(users ...user.User) auth.AuthService {
	jwtService := jwt.NewJWTService(testSecret, testAccessExp, testRefreshExp)
	return NewAuthService(&fakeUserRepo{users: users}, jwtService)
}

func testUser(t *testing.T, password string) user.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return user.User{
		ID:           "user-1",
		TenantID:     "tenant-1",
		Email:        "supervisor@example.com",
		PasswordHash: string(hash),
		Role:         user.RoleSupervisor,
		IsActive:     true,
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	service := newTestAuthService(testUser(t, "password123"))

	response, err := service.Login(ctx, auth.LoginRequest{
		Email:    "supervisor@example.com",
		Password: "password123",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, response.AccessToken)
	assert.NotEmpty(t, response.RefreshToken)
	assert.Greater(t, response.AccessTokenExpiresIn, int64(0))
	assert.Greater(t, response.RefreshTokenExpiresIn, int64(0))
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	ctx := context.Background()
	service := newTestAuthService(testUser(t, "password123"))

	_, err := service.Login(ctx, auth.LoginRequest{
		Email:    "supervisor@example.com",
		Password: "wrong-password",
	})

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	service := newTestAuthService(testUser(t, "password123"))

	_, err := service.Login(ctx, auth.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	ctx := context.Background()
	u := testUser(t, "password123")
	u.IsActive = false
	service := newTestAuthService(u)

	_, err := service.Login(ctx, auth.LoginRequest{
		Email:    "supervisor@example.com",
		Password: "password123",
	})

	assert.ErrorIs(t, err, user.ErrUserInactive)
}

func TestAuthService_RefreshToken_DeactivatedUser(t *testing.T) {
	ctx := context.Background()
	u := testUser(t, "password123")
	repo := &fakeUserRepo{users: []user.User{u}}
	jwtService := jwt.NewJWTService(testSecret, testAccessExp, testRefreshExp)
	service := NewAuthService(repo, jwtService)

	login, err := service.Login(ctx, auth.LoginRequest{
		Email:    "supervisor@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	// Account deactivated between login and refresh.
	repo.users[0].IsActive = false

	_, err = service.RefreshToken(ctx, auth.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	assert.ErrorIs(t, err, user.ErrUserInactive)
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	service := newTestAuthService(testUser(t, "password123"))

	login, err := service.Login(ctx, auth.LoginRequest{
		Email:    "supervisor@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	refreshed, err := service.RefreshToken(ctx, auth.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestAuthService_RefreshToken_AccessTokenRejected(t *testing.T) {
	ctx := context.Background()
	service := newTestAuthService(testUser(t, "password123"))

	login, err := service.Login(ctx, auth.LoginRequest{
		Email:    "supervisor@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	// An access token must not pass as a refresh token.
	_, err = service.RefreshToken(ctx, auth.RefreshTokenRequest{
		RefreshToken: login.AccessToken,
	})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestAuthService_Logout_RevokesRefreshToken(t *testing.T) {
	ctx := context.Background()
	service := newTestAuthService(testUser(t, "password123"))

	login, err := service.Login(ctx, auth.LoginRequest{
		Email:    "supervisor@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, service.Logout(ctx, login.RefreshToken))

	_, err = service.RefreshToken(ctx, auth.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)
}
