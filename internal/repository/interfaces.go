package repository

import (
	"context"
	"time"

	"portfolio_cms/internal/domain/models"

	"github.com/google/uuid"
)

// DocumentRepository is the gateway to the document store. It is schemaless
// on purpose: payload validation lives with the callers.
type DocumentRepository interface {
	List(ctx context.Context, collection models.Collection) ([]models.Document, error)
	ListWhere(ctx context.Context, collection models.Collection, field string, value any) ([]models.Document, error)
	Get(ctx context.Context, collection models.Collection, id string) (models.Document, error)
	// Upsert creates a record when id is empty, otherwise merges fields into
	// the stored payload. Returns the record id either way.
	Upsert(ctx context.Context, collection models.Collection, id string, fields models.Fields) (string, error)
	// Delete is a no-op when the record is already absent.
	Delete(ctx context.Context, collection models.Collection, id string) error
}

type UserRepository interface {
	SaveUser(ctx context.Context, user models.User) (uuid.UUID, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, userID, token string, exp time.Duration) error
	GetRefreshToken(ctx context.Context, userID, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID, token string) error
	DeleteAllUserTokens(ctx context.Context, userID string) error
}
