package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated principal. The only one that matters here is the
// allow-listed admin; there are no roles beyond that single predicate.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	PassHash  []byte    `db:"pass_hash" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
