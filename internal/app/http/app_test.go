package httpapp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio_cms/internal/domain/models"
	httprouters "portfolio_cms/internal/transport/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const guardSecret = "guard-test-secret"

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	args := m.Called(ctx, email, password)
	if pair := args.Get(0); pair != nil {
		return pair.(*models.TokenPair), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) Logout(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserService) IsAdmin(principal *models.User) bool {
	args := m.Called(principal)
	return args.Bool(0)
}

func (m *MockUserService) IsAdminEmail(email string) bool {
	args := m.Called(email)
	return args.Bool(0)
}

type MockPortfolioService struct {
	mock.Mock
}

func (m *MockPortfolioService) ListAll(ctx context.Context, collection models.Collection) ([]models.Document, error) {
	args := m.Called(ctx, collection)
	if docs := args.Get(0); docs != nil {
		return docs.([]models.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPortfolioService) ListVisible(ctx context.Context, collection models.Collection) ([]models.Document, error) {
	args := m.Called(ctx, collection)
	if docs := args.Get(0); docs != nil {
		return docs.([]models.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPortfolioService) GetProfile(ctx context.Context) (models.Profile, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Profile), args.Error(1)
}

func (m *MockPortfolioService) SaveProfile(ctx context.Context, profile models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockPortfolioService) CreateItem(ctx context.Context, collection models.Collection) (string, error) {
	args := m.Called(ctx, collection)
	return args.String(0), args.Error(1)
}

func (m *MockPortfolioService) UpdateItem(ctx context.Context, collection models.Collection, id string, fields models.Fields) error {
	args := m.Called(ctx, collection, id, fields)
	return args.Error(0)
}

func (m *MockPortfolioService) SetVisibility(ctx context.Context, collection models.Collection, id string, visible bool) error {
	args := m.Called(ctx, collection, id, visible)
	return args.Error(0)
}

func (m *MockPortfolioService) DeleteItem(ctx context.Context, collection models.Collection, id string) error {
	args := m.Called(ctx, collection, id)
	return args.Error(0)
}

// newGuardedServer builds the real server with its route groups, so
// requests travel through the JWT and allow-list middleware exactly as in
// production.
func newGuardedServer(t *testing.T, user *MockUserService, portfolio *MockPortfolioService) *Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	routers := httprouters.NewRouter(log, user, nil, portfolio, nil, nil)

	s := New(log, guardSecret, "session-key", "localhost", "0", t.TempDir(), routers)
	s.BuildRouters()

	return s
}

func signAccessToken(t *testing.T, secret, email string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"uid":   uuid.New().String(),
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	return signed
}

func TestAdminGuard_NoTokenIsDenied(t *testing.T) {
	user := new(MockUserService)
	portfolio := new(MockPortfolioService)
	s := newGuardedServer(t, user, portfolio)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/skills", nil)
	rec := httptest.NewRecorder()

	s.e.ServeHTTP(rec, req)

	assert.Contains(t, []int{http.StatusBadRequest, http.StatusUnauthorized}, rec.Code)
	portfolio.AssertNotCalled(t, "ListAll", mock.Anything, mock.Anything)
}

func TestAdminGuard_BadSignatureIsDenied(t *testing.T) {
	user := new(MockUserService)
	portfolio := new(MockPortfolioService)
	s := newGuardedServer(t, user, portfolio)

	token := signAccessToken(t, "some-other-secret", "admin@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/skills", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()

	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	portfolio.AssertNotCalled(t, "ListAll", mock.Anything, mock.Anything)
}

func TestAdminGuard_NonAllowListedEmailIsForbidden(t *testing.T) {
	user := new(MockUserService)
	portfolio := new(MockPortfolioService)
	s := newGuardedServer(t, user, portfolio)

	user.On("IsAdminEmail", "intruder@example.com").Return(false)
	token := signAccessToken(t, guardSecret, "intruder@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/skills", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()

	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	portfolio.AssertNotCalled(t, "ListAll", mock.Anything, mock.Anything)
	user.AssertExpectations(t)
}

func TestAdminGuard_AllowListedEmailPasses(t *testing.T) {
	user := new(MockUserService)
	portfolio := new(MockPortfolioService)
	s := newGuardedServer(t, user, portfolio)

	user.On("IsAdminEmail", "admin@example.com").Return(true)
	portfolio.On("ListAll", mock.Anything, models.CollectionSkills).
		Return([]models.Document{{ID: "s1", Collection: models.CollectionSkills}}, nil)

	token := signAccessToken(t, guardSecret, "admin@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/skills", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()

	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "s1")
	portfolio.AssertExpectations(t)
	user.AssertExpectations(t)
}

