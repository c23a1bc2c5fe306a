package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"portfolio_cms/internal/config"
	"portfolio_cms/internal/domain/models"
	"portfolio_cms/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user models.User) (uuid.UUID, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) UserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserRepository) UserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

type MockTokenProvider struct {
	mock.Mock
}

func (m *MockTokenProvider) GenerateTokens(ctx context.Context, user models.User) (*models.TokenPair, error) {
	args := m.Called(ctx, user)
	if pair := args.Get(0); pair != nil {
		return pair.(*models.TokenPair), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenProvider) RevokeAll(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

const adminEmail = "admin@example.com"

var testCtx = context.Background()

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func adminUser(t *testing.T, password string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return models.User{
		ID:       uuid.New(),
		Name:     "Admin",
		Email:    adminEmail,
		PassHash: hash,
	}
}

func TestLogin_Success(t *testing.T) {
	repo := new(MockUserRepository)
	tokens := new(MockTokenProvider)
	service := NewUserService(discardLogger(), repo, tokens, adminEmail)

	user := adminUser(t, "secret")
	expected := &models.TokenPair{UserID: user.ID, AccessToken: "a", RefreshToken: "r"}

	repo.On("UserByEmail", testCtx, adminEmail).Return(user, nil)
	tokens.On("GenerateTokens", testCtx, user).Return(expected, nil)

	pair, err := service.Login(testCtx, adminEmail, "secret")

	assert.NoError(t, err)
	assert.Equal(t, expected, pair)
	repo.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(MockUserRepository)
	tokens := new(MockTokenProvider)
	service := NewUserService(discardLogger(), repo, tokens, adminEmail)

	repo.On("UserByEmail", testCtx, adminEmail).Return(adminUser(t, "secret"), nil)

	pair, err := service.Login(testCtx, adminEmail, "wrong")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, pair)
	tokens.AssertNotCalled(t, "GenerateTokens", mock.Anything, mock.Anything)
}

func TestLogin_UnknownUser(t *testing.T) {
	repo := new(MockUserRepository)
	tokens := new(MockTokenProvider)
	service := NewUserService(discardLogger(), repo, tokens, adminEmail)

	repo.On("UserByEmail", testCtx, "ghost@example.com").
		Return(models.User{}, storage.ErrUserNotFound)

	pair, err := service.Login(testCtx, "ghost@example.com", "whatever")

	// unknown identity is indistinguishable from a wrong password
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, pair)
}

func TestLogout(t *testing.T) {
	repo := new(MockUserRepository)
	tokens := new(MockTokenProvider)
	service := NewUserService(discardLogger(), repo, tokens, adminEmail)

	id := uuid.New()
	tokens.On("RevokeAll", testCtx, id.String()).Return(nil)

	assert.NoError(t, service.Logout(testCtx, id))
	tokens.AssertExpectations(t)
}

func TestIsAdmin(t *testing.T) {
	service := NewUserService(discardLogger(), nil, nil, adminEmail)

	tests := []struct {
		name      string
		principal *models.User
		want      bool
	}{
		{"nil principal", nil, false},
		{"matching email", &models.User{Email: adminEmail}, true},
		{"case insensitive match", &models.User{Email: "Admin@Example.COM"}, true},
		{"other email", &models.User{Email: "someone@example.com"}, false},
		{"empty email", &models.User{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.IsAdmin(tt.principal))
		})
	}
}

func TestIsAdminEmail_EmptyAllowList(t *testing.T) {
	service := NewUserService(discardLogger(), nil, nil, "")

	assert.False(t, service.IsAdminEmail(""))
	assert.False(t, service.IsAdminEmail("admin@example.com"))
}

func TestEnsureAdmin_CreatesWhenAbsent(t *testing.T) {
	repo := new(MockUserRepository)
	service := NewUserService(discardLogger(), repo, nil, adminEmail)

	created := uuid.New()

	repo.On("UserByEmail", testCtx, adminEmail).
		Return(models.User{}, storage.ErrUserNotFound)
	repo.On("SaveUser", testCtx, mock.MatchedBy(func(u models.User) bool {
		if u.Email != adminEmail || u.Name != "Admin" {
			return false
		}
		return bcrypt.CompareHashAndPassword(u.PassHash, []byte("secret")) == nil
	})).Return(created, nil)

	id, err := service.EnsureAdmin(testCtx, config.AdminConfig{
		Email:    adminEmail,
		Name:     "Admin",
		Password: "secret",
	})

	assert.NoError(t, err)
	assert.Equal(t, created, id)
	repo.AssertExpectations(t)
}

func TestEnsureAdmin_IdempotentWhenPresent(t *testing.T) {
	repo := new(MockUserRepository)
	service := NewUserService(discardLogger(), repo, nil, adminEmail)

	existing := adminUser(t, "secret")
	repo.On("UserByEmail", testCtx, adminEmail).Return(existing, nil)

	id, err := service.EnsureAdmin(testCtx, config.AdminConfig{Email: adminEmail, Password: "secret"})

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, id)
	repo.AssertNotCalled(t, "SaveUser", mock.Anything, mock.Anything)
}

func TestEnsureAdmin_LookupError(t *testing.T) {
	repo := new(MockUserRepository)
	service := NewUserService(discardLogger(), repo, nil, adminEmail)

	repo.On("UserByEmail", testCtx, adminEmail).
		Return(models.User{}, errors.New("connection refused"))

	id, err := service.EnsureAdmin(testCtx, config.AdminConfig{Email: adminEmail, Password: "secret"})

	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, id)
}
