package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"calsync/core/entity"
)

// ConnectedAccount is a user's OAuth connection to one provider. Tokens are
// stored sealed by the vault; a NULL refresh token means the provider never
// issued one. At most one row exists per (user, provider).
type ConnectedAccount struct {
	UserID             uuid.UUID      `db:"user_id"`
	Provider           string         `db:"provider"`
	AccessTokenSealed  string         `db:"access_token"`
	RefreshTokenSealed *string        `db:"refresh_token"`
	TokenType          string         `db:"token_type"`
	Scope              pq.StringArray `db:"scope"`
	TokenExpiresAt     *time.Time     `db:"token_expires_at"`
	entity.BaseEntity
}
