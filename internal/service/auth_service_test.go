package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuskit/college-admin-api/internal/models"
	appErrors "github.com/campuskit/college-admin-api/pkg/errors"
)

type stubAuthRepo struct {
	user          *models.User
	userErr       error
	refreshToken  *models.RefreshToken
	refreshErr    error
	createdTokens []*models.RefreshToken
	revokedIDs    []string
	revokedUsers  []string
	passwordHash  string
}

func (s *stubAuthRepo) FindByEmail(context.Context, string) (*models.User, error) {
	return s.user, s.userErr
}

func (s *stubAuthRepo) FindByID(context.Context, string) (*models.User, error) {
	return s.user, s.userErr
}

func (s *stubAuthRepo) UpdateLastLogin(context.Context, string, time.Time) error {
	return nil
}

func (s *stubAuthRepo) UpdatePassword(_ context.Context, _ string, passwordHash string, _ time.Time) error {
	s.passwordHash = passwordHash
	return nil
}

func (s *stubAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	s.revokedUsers = append(s.revokedUsers, userID)
	return nil
}

func (s *stubAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	s.createdTokens = append(s.createdTokens, token)
	return nil
}

func (s *stubAuthRepo) FindRefreshToken(context.Context, string) (*models.RefreshToken, error) {
	return s.refreshToken, s.refreshErr
}

func (s *stubAuthRepo) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	s.revokedIDs = append(s.revokedIDs, id)
	return nil
}

type stubVerificationStore struct {
	stored map[string]string
}

func (s *stubVerificationStore) Store(_ context.Context, email, code string) error {
	if s.stored == nil {
		s.stored = map[string]string{}
	}
	s.stored[email] = code
	return nil
}

func (s *stubVerificationStore) Consume(_ context.Context, email string) (string, error) {
	code := s.stored[email]
	delete(s.stored, email)
	return code, nil
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "registrar@example.edu",
		FullName:     "Maria Santos",
		Role:         models.RoleRegistrar,
		PasswordHash: string(hash),
		Active:       true,
	}
}

func authConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "college-admin-api",
	}
}

func TestLoginSuccess(t *testing.T) {
	repo := &stubAuthRepo{user: activeUser(t, "s3cret!")}
	svc := NewAuthService(repo, &stubVerificationStore{}, nil, zap.NewNop(), authConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "registrar@example.edu",
		Password: "s3cret!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleRegistrar, resp.User.Role)
	require.Len(t, repo.createdTokens, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleRegistrar, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &stubAuthRepo{user: activeUser(t, "s3cret!")}
	svc := NewAuthService(repo, &stubVerificationStore{}, nil, zap.NewNop(), authConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "registrar@example.edu",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmailHidesExistence(t *testing.T) {
	svc := NewAuthService(&stubAuthRepo{userErr: sql.ErrNoRows}, &stubVerificationStore{}, nil, zap.NewNop(), authConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.edu",
		Password: "whatever",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "s3cret!")
	user.Active = false
	svc := NewAuthService(&stubAuthRepo{user: user}, &stubVerificationStore{}, nil, zap.NewNop(), authConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "registrar@example.edu",
		Password: "s3cret!",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotates(t *testing.T) {
	repo := &stubAuthRepo{
		user: activeUser(t, "s3cret!"),
		refreshToken: &models.RefreshToken{
			ID:        "rt-1",
			UserID:    "user-1",
			Token:     "old-token",
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		},
	}
	svc := NewAuthService(repo, &stubVerificationStore{}, nil, zap.NewNop(), authConfig())

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.Contains(t, repo.revokedIDs, "rt-1")
	require.Len(t, repo.createdTokens, 1)
}

func TestRefreshTokenExpired(t *testing.T) {
	repo := &stubAuthRepo{
		user: activeUser(t, "s3cret!"),
		refreshToken: &models.RefreshToken{
			ID:        "rt-1",
			UserID:    "user-1",
			Token:     "old-token",
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
		},
	}
	svc := NewAuthService(repo, &stubVerificationStore{}, nil, zap.NewNop(), authConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	repo := &stubAuthRepo{
		refreshToken: &models.RefreshToken{ID: "rt-1", UserID: "user-2", Token: "token"},
	}
	svc := NewAuthService(repo, &stubVerificationStore{}, nil, zap.NewNop(), authConfig())

	err := svc.Logout(context.Background(), "token", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	repo := &stubAuthRepo{user: activeUser(t, "old-pass")}
	svc := NewAuthService(repo, &stubVerificationStore{}, nil, zap.NewNop(), authConfig())

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "old-pass",
		NewPassword: "new-pass-123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, repo.passwordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwordHash), []byte("new-pass-123")))
	assert.Contains(t, repo.revokedUsers, "user-1")
}

func TestVerificationCodeRoundTrip(t *testing.T) {
	repo := &stubAuthRepo{user: activeUser(t, "s3cret!")}
	codes := &stubVerificationStore{}
	svc := NewAuthService(repo, codes, nil, zap.NewNop(), authConfig())

	require.NoError(t, svc.RequestVerificationCode(context.Background(), models.RequestVerificationCodeRequest{
		Email: "registrar@example.edu",
	}))
	code := codes.stored["registrar@example.edu"]
	require.Len(t, code, 6)

	require.NoError(t, svc.VerifyCode(context.Background(), models.VerifyCodeRequest{
		Email: "registrar@example.edu",
		Code:  code,
	}))

	err := svc.VerifyCode(context.Background(), models.VerifyCodeRequest{
		Email: "registrar@example.edu",
		Code:  code,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc := NewAuthService(&stubAuthRepo{user: activeUser(t, "s3cret!")}, &stubVerificationStore{}, nil, zap.NewNop(), authConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "registrar@example.edu",
		Password: "s3cret!",
	})
	require.NoError(t, err)

	other := NewAuthService(&stubAuthRepo{}, &stubVerificationStore{}, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Minute,
	})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
