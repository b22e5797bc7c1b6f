package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"calsync/core/cache"
	"calsync/core/config"
	"calsync/core/constants"
	"calsync/core/errors"
	"calsync/core/logger"
	"calsync/core/utils"
	"calsync/core/vault"
	"calsync/modules/connect/dto"
	"calsync/modules/connect/entity"
	"calsync/modules/connect/provider"
	"calsync/modules/connect/repository"
)

// ConnectServiceInterface is the provider-connection surface used by the HTTP
// layer and by the event mirror.
type ConnectServiceInterface interface {
	GetAuthURL(ctx context.Context, userID uuid.UUID, providerName string) (string, *errors.AppError)
	HandleCallback(ctx context.Context, providerName string, code string, state string) (string, *errors.AppError)
	ListConnectedCalendars(ctx context.Context, userID uuid.UUID) ([]dto.ConnectedCalendarResponse, *errors.AppError)
	RefreshCalendars(ctx context.Context, userID uuid.UUID, providerName string) (int, *errors.AppError)
	SetCalendarEnabled(ctx context.Context, userID uuid.UUID, calendarID uuid.UUID, enabled bool) *errors.AppError

	// Event-mirror support
	GetWritableCalendar(ctx context.Context, userID uuid.UUID, calendarID uuid.UUID) (*entity.ConnectedCalendar, *errors.AppError)
	GetCalendar(ctx context.Context, userID uuid.UUID, calendarID uuid.UUID) (*entity.ConnectedCalendar, *errors.AppError)
	GetAccount(ctx context.Context, accountID uuid.UUID) (*entity.ConnectedAccount, *errors.AppError)
	EnsureAccessToken(ctx context.Context, account *entity.ConnectedAccount) (string, *errors.AppError)
	AdapterFor(providerName string) (provider.Adapter, *errors.AppError)
}

type ConnectService struct {
	repo  repository.ConnectRepositoryInterface
	cache cache.Cache

	// adapterFor is swappable so tests can inject fake providers.
	adapterFor func(name string) (provider.Adapter, error)

	// now is swappable so tests can pin the refresh-policy clock.
	now func() time.Time
}

func NewConnectService(repo repository.ConnectRepositoryInterface, c cache.Cache) *ConnectService {
	return &ConnectService{
		repo:       repo,
		cache:      c,
		adapterFor: provider.ForName,
		now:        time.Now,
	}
}

// GetAuthURL starts an authorization attempt: persist a PENDING single-use
// state bound to (user, provider) and return the provider's consent URL.
func (service *ConnectService) GetAuthURL(ctx context.Context, userID uuid.UUID, providerName string) (string, *errors.AppError) {
	if !provider.IsKnown(providerName) {
		return "", errors.NewAppError(errors.ErrInvalidInput, "unknown provider "+providerName, nil)
	}

	adapter, err := service.adapterFor(providerName)
	if err != nil {
		return "", asAppError(err)
	}

	state := utils.GenerateRandomString(32)
	expiresAt := service.now().Add(constants.OAuthStateTTL)

	if err := service.repo.SaveOAuthState(ctx, state, userID, providerName, expiresAt); err != nil {
		logger.Error("ConnectService:GetAuthURL:SaveOAuthState:Error", "error", err, "provider", providerName)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to store state token", err)
	}

	logger.Info("ConnectService:GetAuthURL:StateStored", "user_id", userID, "provider", providerName, "expires_at", expiresAt)
	return adapter.AuthCodeURL(state), nil
}

// HandleCallback redeems the anti-forgery state, exchanges the authorization
// code, seals and stores the credentials, and runs calendar discovery. It
// returns the client URL to redirect the browser to. The state row is deleted
// before the exchange so a replayed callback always fails.
func (service *ConnectService) HandleCallback(ctx context.Context, providerName string, code string, state string) (string, *errors.AppError) {
	if !provider.IsKnown(providerName) {
		return "", errors.NewAppError(errors.ErrInvalidInput, "unknown provider "+providerName, nil)
	}
	if code == "" || state == "" {
		return "", errors.NewAppError(errors.ErrStateInvalid, "missing code or state parameter", nil)
	}

	// The callback performs the exchange plus discovery against the provider.
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultTimeout)
	defer cancel()

	oauthState, err := service.repo.ConsumeOAuthState(ctx, state, providerName)
	if err != nil {
		logger.Error("ConnectService:HandleCallback:ConsumeOAuthState:Error", "error", err, "provider", providerName)
		return "", errors.NewAppError(errors.ErrInternalServer, "failed to validate state token", err)
	}
	if oauthState == nil {
		logger.Warn("ConnectService:HandleCallback:StateNotFound", "provider", providerName)
		return "", errors.NewAppError(errors.ErrStateInvalid, "state token is invalid or was already used", nil)
	}
	if service.now().After(oauthState.ExpiresAt) {
		logger.Warn("ConnectService:HandleCallback:StateExpired", "provider", providerName, "expired_at", oauthState.ExpiresAt)
		return "", errors.NewAppError(errors.ErrStateInvalid, "state token has expired", nil)
	}

	adapter, err := service.adapterFor(providerName)
	if err != nil {
		return "", asAppError(err)
	}

	token, err := adapter.Exchange(ctx, code)
	if err != nil {
		logger.Error("ConnectService:HandleCallback:Exchange:Error", "error", err, "provider", providerName)
		return "", asAppError(err)
	}

	account, appErr := service.storeAccount(ctx, oauthState.UserID, providerName, token)
	if appErr != nil {
		return "", appErr
	}

	if appErr := service.discoverCalendars(ctx, account, adapter, token.AccessToken); appErr != nil {
		// The account is connected; a failed discovery run can be retried via
		// the refresh endpoint.
		logger.Warn("ConnectService:HandleCallback:Discovery:Failed", "error", appErr, "provider", providerName, "user_id", oauthState.UserID)
	}

	cfg, ok := config.GetSafe()
	if !ok {
		return "", errors.NewAppError(errors.ErrInternalServer, "config not initialized", nil)
	}

	logger.Info("ConnectService:HandleCallback:Connected",
		"user_id", oauthState.UserID,
		"provider", providerName,
		"has_refresh_token", token.RefreshToken != "",
		"expires_at", token.ExpiresAt)

	return cfg.Client.BaseURL + "?connected=" + providerName, nil
}

// storeAccount seals the exchanged credentials and upserts the single
// (user, provider) account row.
func (service *ConnectService) storeAccount(ctx context.Context, userID uuid.UUID, providerName string, token *provider.Token) (*entity.ConnectedAccount, *errors.AppError) {
	v, err := vault.Get()
	if err != nil {
		return nil, asAppError(err)
	}

	accessSealed, err := v.Encrypt(&token.AccessToken)
	if err != nil {
		return nil, asAppError(err)
	}
	if accessSealed == nil {
		return nil, errors.NewAppError(errors.ErrProvider, "provider returned an empty access token", nil)
	}

	refreshSealed, err := v.Encrypt(&token.RefreshToken)
	if err != nil {
		return nil, asAppError(err)
	}

	account := &entity.ConnectedAccount{
		UserID:             userID,
		Provider:           providerName,
		AccessTokenSealed:  *accessSealed,
		RefreshTokenSealed: refreshSealed,
		TokenType:          token.TokenType,
		Scope:              pq.StringArray(strings.Fields(token.Scope)),
		TokenExpiresAt:     token.ExpiresAt,
	}

	saved, err := service.repo.UpsertAccount(ctx, account)
	if err != nil {
		logger.Error("ConnectService:StoreAccount:UpsertAccount:Error", "error", err, "user_id", userID, "provider", providerName)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to save connected account", err)
	}
	return saved, nil
}

func (service *ConnectService) ListConnectedCalendars(ctx context.Context, userID uuid.UUID) ([]dto.ConnectedCalendarResponse, *errors.AppError) {
	calendars, err := service.repo.ListCalendarsByUser(ctx, userID)
	if err != nil {
		logger.Error("ConnectService:ListConnectedCalendars:Error", "error", err, "user_id", userID)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list connected calendars", err)
	}

	result := make([]dto.ConnectedCalendarResponse, 0, len(calendars))
	for _, cal := range calendars {
		result = append(result, dto.ConnectedCalendarResponse{
			ID:                 cal.ID.String(),
			Provider:           cal.Provider,
			ProviderCalendarID: cal.ProviderCalendarID,
			Name:               cal.Name,
			Color:              cal.Color,
			CanWrite:           cal.CanWrite,
			IsEnabled:          cal.IsEnabled,
			AccountID:          cal.AccountID.String(),
		})
	}
	return result, nil
}

// RefreshCalendars reruns discovery for an already connected provider.
func (service *ConnectService) RefreshCalendars(ctx context.Context, userID uuid.UUID, providerName string) (int, *errors.AppError) {
	if !provider.IsKnown(providerName) {
		return 0, errors.NewAppError(errors.ErrInvalidInput, "unknown provider "+providerName, nil)
	}

	account, err := service.repo.GetAccountByUserAndProvider(ctx, userID, providerName)
	if err != nil {
		return 0, errors.NewAppError(errors.ErrInternalServer, "failed to load connected account", err)
	}
	if account == nil {
		return 0, errors.NewAppError(errors.ErrNotFound, "no connected account for provider "+providerName, nil)
	}

	accessToken, appErr := service.EnsureAccessToken(ctx, account)
	if appErr != nil {
		return 0, appErr
	}

	adapter, aerr := service.adapterFor(providerName)
	if aerr != nil {
		return 0, asAppError(aerr)
	}

	if appErr := service.discoverCalendars(ctx, account, adapter, accessToken); appErr != nil {
		return 0, appErr
	}

	calendars, err := service.repo.ListCalendarsByUser(ctx, userID)
	if err != nil {
		return 0, errors.NewAppError(errors.ErrInternalServer, "failed to list connected calendars", err)
	}
	count := 0
	for _, cal := range calendars {
		if cal.Provider == providerName {
			count++
		}
	}
	return count, nil
}

func (service *ConnectService) SetCalendarEnabled(ctx context.Context, userID uuid.UUID, calendarID uuid.UUID, enabled bool) *errors.AppError {
	calendar, err := service.repo.GetCalendarByIDForUser(ctx, calendarID, userID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load calendar", err)
	}
	if calendar == nil {
		return errors.NewAppError(errors.ErrNotFound, "connected calendar not found", nil)
	}

	if err := service.repo.SetCalendarEnabled(ctx, calendarID, userID, enabled); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to update calendar", err)
	}
	return nil
}

// GetCalendar loads a connected calendar owned by the caller.
func (service *ConnectService) GetCalendar(ctx context.Context, userID uuid.UUID, calendarID uuid.UUID) (*entity.ConnectedCalendar, *errors.AppError) {
	calendar, err := service.repo.GetCalendarByIDForUser(ctx, calendarID, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load calendar", err)
	}
	if calendar == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "connected calendar not found", nil)
	}
	return calendar, nil
}

// GetWritableCalendar is GetCalendar plus the write-permission checks the
// event mirror requires before any remote call.
func (service *ConnectService) GetWritableCalendar(ctx context.Context, userID uuid.UUID, calendarID uuid.UUID) (*entity.ConnectedCalendar, *errors.AppError) {
	calendar, appErr := service.GetCalendar(ctx, userID, calendarID)
	if appErr != nil {
		return nil, appErr
	}
	if !calendar.IsEnabled {
		return nil, errors.NewAppError(errors.ErrForbidden, "connected calendar is disabled", nil)
	}
	if !calendar.CanWrite {
		return nil, errors.NewAppError(errors.ErrForbidden, "connected calendar is read-only", nil)
	}
	return calendar, nil
}

func (service *ConnectService) GetAccount(ctx context.Context, accountID uuid.UUID) (*entity.ConnectedAccount, *errors.AppError) {
	account, err := service.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load connected account", err)
	}
	if account == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "connected account not found", nil)
	}
	return account, nil
}

func (service *ConnectService) AdapterFor(providerName string) (provider.Adapter, *errors.AppError) {
	adapter, err := service.adapterFor(providerName)
	if err != nil {
		return nil, asAppError(err)
	}
	return adapter, nil
}

// asAppError converts adapter and vault errors, which are already AppErrors,
// without double-wrapping.
func asAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.NewAppError(errors.ErrInternalServer, err.Error(), err)
}
