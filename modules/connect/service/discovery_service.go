package service

import (
	"context"

	"calsync/core/errors"
	"calsync/core/logger"
	"calsync/modules/connect/entity"
	"calsync/modules/connect/provider"
)

// discoverCalendars lists the calendars visible to the account at the
// provider and upserts each one. Rediscovery updates name, color and write
// access in place; calendars the user disabled stay disabled.
func (service *ConnectService) discoverCalendars(ctx context.Context, account *entity.ConnectedAccount, adapter provider.Adapter, accessToken string) *errors.AppError {
	remotes, err := adapter.DiscoverCalendars(ctx, accessToken)
	if err != nil {
		logger.Error("ConnectService:DiscoverCalendars:List:Error", "error", err, "account_id", account.ID, "provider", account.Provider)
		return asAppError(err)
	}

	saved := 0
	for _, remote := range remotes {
		calendar := &entity.ConnectedCalendar{
			AccountID:          account.ID,
			UserID:             account.UserID,
			Provider:           account.Provider,
			ProviderCalendarID: remote.ID,
			Name:               remote.Name,
			Color:              remote.Color,
			CanWrite:           remote.CanWrite,
			IsEnabled:          true,
		}
		if err := service.repo.UpsertCalendar(ctx, calendar); err != nil {
			logger.Error("ConnectService:DiscoverCalendars:Upsert:Error",
				"error", err, "account_id", account.ID, "provider_calendar_id", remote.ID)
			return errors.NewAppError(errors.ErrInternalServer, "failed to save discovered calendar", err)
		}
		saved++
	}

	logger.Info("ConnectService:DiscoverCalendars:Done",
		"account_id", account.ID, "provider", account.Provider, "count", saved)

	return nil
}
