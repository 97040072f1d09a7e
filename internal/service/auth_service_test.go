package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ai-super-hub/hub-api/internal/models"
	appErrors "github.com/ai-super-hub/hub-api/pkg/errors"
)

type mockAuthRepo struct {
	users   map[string]*models.User
	tokens  map[string]*models.RefreshToken
	revoked []string
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{users: make(map[string]*models.User), tokens: make(map[string]*models.RefreshToken)}
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "new-user"
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	m.revoked = append(m.revoked, id)
	return nil
}

type mockWelcomeMailer struct {
	sent []string
}

func (m *mockWelcomeMailer) SendWelcome(toEmail, toName string) error {
	m.sent = append(m.sent, toEmail)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "ai-super-hub",
		Audience:           []string{"hub-api"},
	}
}

func seedUser(repo *mockAuthRepo, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &models.User{
		ID:           "u1",
		Email:        "user@example.com",
		PasswordHash: string(hash),
		FullName:     "Test User",
		Role:         models.RoleUser,
		Active:       true,
	}
	repo.users[user.ID] = user
	return user
}

func TestRegister(t *testing.T) {
	repo := newMockAuthRepo()
	mailer := &mockWelcomeMailer{}
	svc := NewAuthService(repo, mailer, validator.New(), zap.NewNop(), testAuthConfig())

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "new@example.com",
		Password: "secret123",
		FullName: "New User",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.Active)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.Contains(t, mailer.sent, "new@example.com")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "secret123")
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "user@example.com",
		Password: "secret123",
		FullName: "Dupe",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLogin(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "secret123")
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "u1", res.User.ID)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "secret123")
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newMockAuthRepo()
	user := seedUser(repo, "secret123")
	user.Active = false
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "secret123")
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: res.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked; replaying it must fail.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: res.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "secret123")
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "secret123"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), res.RefreshToken, "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), res.RefreshToken, "u1"))
	assert.Len(t, repo.revoked, 1)
}

func TestChangePassword(t *testing.T) {
	repo := newMockAuthRepo()
	seedUser(repo, "secret123")
	svc := NewAuthService(repo, nil, validator.New(), zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "newsecret",
	})
	require.Error(t, err)

	err = svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "newsecret",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "newsecret"})
	require.NoError(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(newMockAuthRepo(), nil, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
