package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"portfolio_cms/internal/config"
	"portfolio_cms/internal/domain/models"
	"portfolio_cms/internal/lib/logger/sl"
	"portfolio_cms/internal/repository"
	"portfolio_cms/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// TokenProvider issues and revokes the session tokens handed out on login.
type TokenProvider interface {
	GenerateTokens(ctx context.Context, user models.User) (*models.TokenPair, error)
	RevokeAll(ctx context.Context, userID string) error
}

type UserService struct {
	log        *slog.Logger
	repo       repository.UserRepository
	tokens     TokenProvider
	adminEmail string
}

func NewUserService(log *slog.Logger, repo repository.UserRepository, tokens TokenProvider, adminEmail string) *UserService {
	return &UserService{
		log:        log,
		repo:       repo,
		tokens:     tokens,
		adminEmail: adminEmail,
	}
}

// Login verifies credentials and returns a fresh token pair. Any failure
// collapses into ErrInvalidCredentials: a wrong password and an unknown
// identity are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	const op = "user_service.Login"

	log := s.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	log.Info("attempting to login user")

	user, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.tokens.GenerateTokens(ctx, user)
	if err != nil {
		log.Error("failed to generate tokens", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully")

	return pair, nil
}

// Logout revokes every refresh token of the user.
func (s *UserService) Logout(ctx context.Context, userID uuid.UUID) error {
	const op = "user_service.Logout"

	if err := s.tokens.RevokeAll(ctx, userID.String()); err != nil {
		s.log.Error("failed to revoke tokens", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IsAdmin is the entire authorization model: a pure predicate comparing the
// principal's stable identifier to the single allow-listed value. A nil
// principal and a non-matching one are equally denied.
func (s *UserService) IsAdmin(principal *models.User) bool {
	if principal == nil {
		return false
	}
	return s.IsAdminEmail(principal.Email)
}

func (s *UserService) IsAdminEmail(email string) bool {
	return email != "" && strings.EqualFold(email, s.adminEmail)
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	const op = "user_service.GetUserByID"

	user, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// EnsureAdmin creates the configured admin account if it does not exist
// yet. Called once at startup; the admin is the only account the system
// ever holds.
func (s *UserService) EnsureAdmin(ctx context.Context, admin config.AdminConfig) (uuid.UUID, error) {
	const op = "user_service.EnsureAdmin"

	log := s.log.With(
		slog.String("op", op),
		slog.String("email", admin.Email),
	)

	user, err := s.repo.UserByEmail(ctx, admin.Email)
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		log.Error("failed to look up admin", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash admin password", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.SaveUser(ctx, models.User{
		Name:     admin.Name,
		Email:    admin.Email,
		PassHash: passHash,
	})
	if err != nil {
		log.Error("failed to create admin", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin account created", slog.String("user_id", id.String()))

	return id, nil
}
