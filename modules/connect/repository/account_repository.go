package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"calsync/core/logger"
	"calsync/modules/connect/entity"
)

// UpsertAccount saves the sealed credentials for a (user, provider) pair,
// replacing any previous connection. A refresh token is only overwritten when
// the provider issued a new one, since some providers send it once.
func (r *ConnectRepository) UpsertAccount(ctx context.Context, account *entity.ConnectedAccount) (*entity.ConnectedAccount, error) {
	query := `
		INSERT INTO connected_accounts (
			id, user_id, provider, access_token, refresh_token,
			token_type, scope, token_expires_at, created_at, updated_at
		)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (user_id, provider)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, connected_accounts.refresh_token),
			token_type = EXCLUDED.token_type,
			scope = EXCLUDED.scope,
			token_expires_at = EXCLUDED.token_expires_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.DB.QueryRowContext(ctx, query,
		account.UserID, account.Provider, account.AccessTokenSealed, account.RefreshTokenSealed,
		account.TokenType, account.Scope, account.TokenExpiresAt,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		logger.Error("ConnectRepository:UpsertAccount:Error", "error", err, "user_id", account.UserID, "provider", account.Provider)
		return nil, err
	}
	return account, nil
}

func (r *ConnectRepository) GetAccountByID(ctx context.Context, id uuid.UUID) (*entity.ConnectedAccount, error) {
	var account entity.ConnectedAccount
	query := `
		SELECT id, user_id, provider, access_token, refresh_token,
		       token_type, scope, token_expires_at, created_at, updated_at
		FROM connected_accounts
		WHERE id = $1
	`
	err := r.DB.GetContext(ctx, &account, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("ConnectRepository:GetAccountByID:Error", "error", err, "id", id)
		return nil, err
	}
	return &account, nil
}

func (r *ConnectRepository) GetAccountByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.ConnectedAccount, error) {
	var account entity.ConnectedAccount
	query := `
		SELECT id, user_id, provider, access_token, refresh_token,
		       token_type, scope, token_expires_at, created_at, updated_at
		FROM connected_accounts
		WHERE user_id = $1 AND provider = $2
	`
	err := r.DB.GetContext(ctx, &account, query, userID, provider)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("ConnectRepository:GetAccountByUserAndProvider:Error", "error", err, "user_id", userID, "provider", provider)
		return nil, err
	}
	return &account, nil
}

// UpdateAccountTokens persists the credentials written back by the refresh
// policy.
func (r *ConnectRepository) UpdateAccountTokens(ctx context.Context, account *entity.ConnectedAccount) error {
	query := `
		UPDATE connected_accounts
		SET access_token = $1,
		    refresh_token = COALESCE($2, refresh_token),
		    token_expires_at = $3,
		    updated_at = NOW()
		WHERE id = $4
	`
	err := r.DB.ExecContext(ctx, query,
		account.AccessTokenSealed, account.RefreshTokenSealed, account.TokenExpiresAt, account.ID,
	)
	if err != nil {
		logger.Error("ConnectRepository:UpdateAccountTokens:Error", "error", err, "id", account.ID)
		return err
	}
	return nil
}
