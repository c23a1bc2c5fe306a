package services

import (
	"context"
	"errors"
	"time"

	"portfolio_cms/internal/domain/models"
	"portfolio_cms/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidTokenClaims = errors.New("invalid token claims")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenNotInStorage  = errors.New("token not found in storage")
)

type TokenService struct {
	repo       repository.TokenRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(repo repository.TokenRepository, secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		repo:       repo,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *TokenService) GenerateTokens(ctx context.Context, user models.User) (*models.TokenPair, error) {
	accessToken, err := s.newToken(user, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.newToken(user, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	err = s.repo.SaveRefreshToken(ctx, user.ID.String(), refreshToken, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshTokens rotates the pair: the presented refresh token is verified,
// consumed, and replaced.
func (s *TokenService) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	meta, err := s.ParseToken(refreshToken)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.GetRefreshToken(ctx, meta.UserID, refreshToken)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTokenNotInStorage
	}

	if err := s.repo.DeleteRefreshToken(ctx, meta.UserID, refreshToken); err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(meta.UserID)
	if err != nil {
		return nil, ErrInvalidTokenClaims
	}

	return s.GenerateTokens(ctx, models.User{ID: userID, Email: meta.Email})
}

// RevokeAll drops every refresh token of the user, ending the session.
func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	return s.repo.DeleteAllUserTokens(ctx, userID)
}

// ParseToken verifies the signature and expiry and returns the claims.
func (s *TokenService) ParseToken(tokenString string) (*models.TokenMeta, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["uid"].(string)
	if !ok {
		return nil, ErrInvalidTokenClaims
	}
	email, _ := claims["email"].(string)

	meta := &models.TokenMeta{
		UserID: userID,
		Email:  email,
	}
	if iat, ok := claims["iat"].(float64); ok {
		meta.IssuedAt = int64(iat)
	}
	if exp, ok := claims["exp"].(float64); ok {
		meta.ExpiresAt = int64(exp)
	}

	return meta, nil
}

func (s *TokenService) newToken(user models.User, duration time.Duration) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["uid"] = user.ID.String()
	claims["email"] = user.Email
	claims["iat"] = time.Now().Unix()
	claims["exp"] = time.Now().Add(duration).Unix()

	return token.SignedString(s.secret)
}
