package service

import (
	"context"
	"time"

	"calsync/core/constants"
	"calsync/core/errors"
	"calsync/core/logger"
	"calsync/core/vault"
	"calsync/modules/connect/entity"
)

// EnsureAccessToken returns a live access token for the account, refreshing
// it first when the recorded expiry is inside the safety margin. The policy:
//
//   - no recorded expiry: the stored token is treated as usable;
//   - expiry further than the skew away: use the stored token;
//   - inside the skew or past expiry, refresh token present: refresh,
//     persist the new sealed credentials, use the fresh token;
//   - inside the skew, no refresh token: fall back to the stored token and
//     let the provider call be the enforcement point.
//
// Refreshes are serialized per account through a cache lock so concurrent
// requests do not race duplicate refresh exchanges.
func (service *ConnectService) EnsureAccessToken(ctx context.Context, account *entity.ConnectedAccount) (string, *errors.AppError) {
	v, err := vault.Get()
	if err != nil {
		return "", asAppError(err)
	}

	if !service.needsRefresh(account) {
		accessToken, err := v.DecryptValue(account.AccessTokenSealed)
		if err != nil {
			return "", asAppError(err)
		}
		return accessToken, nil
	}

	if account.RefreshTokenSealed == nil {
		logger.Warn("ConnectService:EnsureAccessToken:StaleTokenNoRefresh",
			"account_id", account.ID, "provider", account.Provider, "expires_at", account.TokenExpiresAt)
		accessToken, err := v.DecryptValue(account.AccessTokenSealed)
		if err != nil {
			return "", asAppError(err)
		}
		return accessToken, nil
	}

	return service.refreshWithLock(ctx, account)
}

func (service *ConnectService) needsRefresh(account *entity.ConnectedAccount) bool {
	if account.TokenExpiresAt == nil {
		return false
	}
	return service.now().Add(constants.TokenRefreshSkew).After(*account.TokenExpiresAt)
}

// refreshWithLock performs the refresh exchange while holding the per-account
// lock. A contender that loses the lock waits for the holder's write and
// re-reads the account instead of issuing its own exchange.
func (service *ConnectService) refreshWithLock(ctx context.Context, account *entity.ConnectedAccount) (string, *errors.AppError) {
	lockKey := "refresh_lock:" + account.ID.String()

	lockToken, err := service.cache.AcquireLock(ctx, lockKey, constants.RefreshLockTTL)
	if err != nil {
		// Lock service down: refreshing unserialized is preferable to failing
		// the request; providers tolerate a duplicate refresh.
		logger.Warn("ConnectService:RefreshWithLock:LockUnavailable", "error", err, "account_id", account.ID)
		return service.refreshAccount(ctx, account)
	}

	if lockToken == "" {
		return service.awaitPeerRefresh(ctx, account)
	}

	defer func() {
		if err := service.cache.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockToken); err != nil {
			logger.Warn("ConnectService:RefreshWithLock:ReleaseLock:Error", "error", err, "account_id", account.ID)
		}
	}()

	// Double-check under the lock: a peer may have refreshed while this
	// request waited to acquire it.
	fresh, err := service.repo.GetAccountByID(ctx, account.ID)
	if err == nil && fresh != nil {
		*account = *fresh
		if !service.needsRefresh(account) {
			v, verr := vault.Get()
			if verr != nil {
				return "", asAppError(verr)
			}
			accessToken, derr := v.DecryptValue(account.AccessTokenSealed)
			if derr != nil {
				return "", asAppError(derr)
			}
			return accessToken, nil
		}
	}

	return service.refreshAccount(ctx, account)
}

// awaitPeerRefresh polls the account row until the lock holder has persisted
// new credentials, falling back to the stored token when it does not.
func (service *ConnectService) awaitPeerRefresh(ctx context.Context, account *entity.ConnectedAccount) (string, *errors.AppError) {
	v, err := vault.Get()
	if err != nil {
		return "", asAppError(err)
	}

	for attempt := 0; attempt < 10; attempt++ {
		select {
		case <-ctx.Done():
			return "", errors.NewAppError(errors.ErrProvider, "request cancelled while waiting for token refresh", ctx.Err())
		case <-time.After(200 * time.Millisecond):
		}

		fresh, err := service.repo.GetAccountByID(ctx, account.ID)
		if err != nil || fresh == nil {
			continue
		}
		if !service.needsRefresh(fresh) {
			*account = *fresh
			accessToken, derr := v.DecryptValue(account.AccessTokenSealed)
			if derr != nil {
				return "", asAppError(derr)
			}
			return accessToken, nil
		}
	}

	logger.Warn("ConnectService:AwaitPeerRefresh:Timeout", "account_id", account.ID)
	accessToken, derr := v.DecryptValue(account.AccessTokenSealed)
	if derr != nil {
		return "", asAppError(derr)
	}
	return accessToken, nil
}

// refreshAccount performs the provider refresh exchange and persists the new
// sealed credentials on the account row (and the caller's copy).
func (service *ConnectService) refreshAccount(ctx context.Context, account *entity.ConnectedAccount) (string, *errors.AppError) {
	v, err := vault.Get()
	if err != nil {
		return "", asAppError(err)
	}

	refreshToken, err := v.DecryptValue(*account.RefreshTokenSealed)
	if err != nil {
		return "", asAppError(err)
	}

	adapter, aerr := service.adapterFor(account.Provider)
	if aerr != nil {
		return "", asAppError(aerr)
	}

	token, err := adapter.Refresh(ctx, refreshToken)
	if err != nil {
		logger.Error("ConnectService:RefreshAccount:Refresh:Error", "error", err, "account_id", account.ID, "provider", account.Provider)
		return "", asAppError(err)
	}

	accessSealed, err := v.Encrypt(&token.AccessToken)
	if err != nil {
		return "", asAppError(err)
	}
	if accessSealed == nil {
		return "", errors.NewAppError(errors.ErrProvider, "provider returned an empty access token on refresh", nil)
	}
	refreshSealed, err := v.Encrypt(&token.RefreshToken)
	if err != nil {
		return "", asAppError(err)
	}

	account.AccessTokenSealed = *accessSealed
	if refreshSealed != nil {
		account.RefreshTokenSealed = refreshSealed
	}
	account.TokenExpiresAt = token.ExpiresAt

	if err := service.repo.UpdateAccountTokens(ctx, account); err != nil {
		logger.Error("ConnectService:RefreshAccount:UpdateAccountTokens:Error", "error", err, "account_id", account.ID)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to persist refreshed token", err)
	}

	logger.Info("ConnectService:RefreshAccount:Refreshed",
		"account_id", account.ID, "provider", account.Provider, "expires_at", token.ExpiresAt)

	return token.AccessToken, nil
}
