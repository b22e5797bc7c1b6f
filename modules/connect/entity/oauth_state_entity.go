package entity

import (
	"time"

	"github.com/google/uuid"

	"calsync/core/entity"
)

// OAuthState is a single-use anti-forgery token binding an authorization
// redirect to the user and provider that initiated it.
type OAuthState struct {
	State     string    `db:"state"`
	UserID    uuid.UUID `db:"user_id"`
	Provider  string    `db:"provider"`
	ExpiresAt time.Time `db:"expires_at"`
	entity.BaseEntity
}
