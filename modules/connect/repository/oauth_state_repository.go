package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"calsync/core/logger"
	"calsync/modules/connect/entity"
)

// SaveOAuthState persists a PENDING anti-forgery state token bound to the
// initiating user and provider.
func (r *ConnectRepository) SaveOAuthState(ctx context.Context, state string, userID uuid.UUID, provider string, expiresAt time.Time) error {
	query := `
		INSERT INTO oauth_states (id, state, user_id, provider, expires_at, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, NOW(), NOW())
	`
	err := r.DB.ExecContext(ctx, query, state, userID, provider, expiresAt)
	if err != nil {
		logger.Error("ConnectRepository:SaveOAuthState:Error", "error", err, "provider", provider)
		return err
	}
	return nil
}

// ConsumeOAuthState atomically redeems a state token. The row is deleted in
// the same statement that reads it, so a concurrent replay of the same
// callback observes no row and fails. Expired rows are consumed too; the
// caller checks ExpiresAt and rejects them.
func (r *ConnectRepository) ConsumeOAuthState(ctx context.Context, state string, provider string) (*entity.OAuthState, error) {
	var oauthState entity.OAuthState
	query := `
		DELETE FROM oauth_states
		WHERE state = $1 AND provider = $2
		RETURNING id, state, user_id, provider, expires_at, created_at, updated_at
	`
	err := r.DB.GetContext(ctx, &oauthState, query, state, provider)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("ConnectRepository:ConsumeOAuthState:Error", "error", err, "provider", provider)
		return nil, err
	}
	return &oauthState, nil
}

// CleanupExpiredOAuthStates removes state tokens that were never redeemed.
func (r *ConnectRepository) CleanupExpiredOAuthStates(ctx context.Context) (int64, error) {
	query := `DELETE FROM oauth_states WHERE expires_at < NOW()`
	res, err := r.DB.NamedExecContext(ctx, query, map[string]any{})
	if err != nil {
		logger.Error("ConnectRepository:CleanupExpiredOAuthStates:Error", "error", err)
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
