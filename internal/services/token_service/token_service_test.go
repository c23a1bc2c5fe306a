package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"portfolio_cms/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) SaveRefreshToken(ctx context.Context, userID, token string, exp time.Duration) error {
	args := m.Called(ctx, userID, token, exp)
	return args.Error(0)
}

func (m *MockTokenRepository) GetRefreshToken(ctx context.Context, userID, token string) (bool, error) {
	args := m.Called(ctx, userID, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepository) DeleteRefreshToken(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var (
	testUser = models.User{
		ID:    uuid.MustParse("123e4567-e89b-12d3-a456-426614174000"),
		Email: "admin@example.com",
	}
	testCtx = context.Background()
)

func newTestService(repo *MockTokenRepository) *TokenService {
	return NewTokenService(repo, "test-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestGenerateTokens_Success(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, mock.Anything).
		Return(nil)

	tokens, err := service.GenerateTokens(testCtx, testUser)

	assert.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, testUser.ID, tokens.UserID)
	repo.AssertExpectations(t)
}

func TestGenerateTokens_RepoError(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	expectedErr := errors.New("storage error")
	repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, mock.Anything).
		Return(expectedErr)

	tokens, err := service.GenerateTokens(testCtx, testUser)

	assert.ErrorIs(t, err, expectedErr)
	assert.Nil(t, tokens)
	repo.AssertExpectations(t)
}

func TestRefreshTokens_Success(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, mock.Anything).
		Return(nil)

	issued, err := service.GenerateTokens(testCtx, testUser)
	assert.NoError(t, err)

	repo.On("GetRefreshToken", testCtx, testUser.ID.String(), issued.RefreshToken).
		Return(true, nil)
	repo.On("DeleteRefreshToken", testCtx, testUser.ID.String(), issued.RefreshToken).
		Return(nil)

	rotated, err := service.RefreshTokens(testCtx, issued.RefreshToken)

	assert.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEmpty(t, rotated.RefreshToken)
	repo.AssertExpectations(t)
}

func TestRefreshTokens_NotInStorage(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, mock.Anything).
		Return(nil)

	issued, err := service.GenerateTokens(testCtx, testUser)
	assert.NoError(t, err)

	repo.On("GetRefreshToken", testCtx, testUser.ID.String(), issued.RefreshToken).
		Return(false, nil)

	rotated, err := service.RefreshTokens(testCtx, issued.RefreshToken)

	assert.ErrorIs(t, err, ErrTokenNotInStorage)
	assert.Nil(t, rotated)
	repo.AssertExpectations(t)
}

func TestRefreshTokens_InvalidToken(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	rotated, err := service.RefreshTokens(testCtx, "not-a-jwt")

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, rotated)
}

func TestRefreshTokens_WrongSecret(t *testing.T) {
	repo := new(MockTokenRepository)

	repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, mock.Anything).
		Return(nil)

	issued, err := newTestService(repo).GenerateTokens(testCtx, testUser)
	assert.NoError(t, err)

	other := NewTokenService(repo, "different-secret", 15*time.Minute, 7*24*time.Hour)

	rotated, err := other.RefreshTokens(testCtx, issued.RefreshToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, rotated)
}

func TestRefreshTokens_Expired(t *testing.T) {
	repo := new(MockTokenRepository)
	service := NewTokenService(repo, "test-secret", 15*time.Minute, -time.Minute)

	repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, mock.Anything).
		Return(nil)

	issued, err := service.GenerateTokens(testCtx, testUser)
	assert.NoError(t, err)

	rotated, err := service.RefreshTokens(testCtx, issued.RefreshToken)

	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Nil(t, rotated)
}

func TestParseToken_Claims(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	repo.On("SaveRefreshToken", testCtx, testUser.ID.String(), mock.Anything, mock.Anything).
		Return(nil)

	issued, err := service.GenerateTokens(testCtx, testUser)
	assert.NoError(t, err)

	meta, err := service.ParseToken(issued.AccessToken)

	assert.NoError(t, err)
	assert.Equal(t, testUser.ID.String(), meta.UserID)
	assert.Equal(t, testUser.Email, meta.Email)
	assert.Greater(t, meta.ExpiresAt, meta.IssuedAt)
}

func TestRevokeAll(t *testing.T) {
	repo := new(MockTokenRepository)
	service := newTestService(repo)

	repo.On("DeleteAllUserTokens", testCtx, testUser.ID.String()).Return(nil)

	assert.NoError(t, service.RevokeAll(testCtx, testUser.ID.String()))
	repo.AssertExpectations(t)
}
