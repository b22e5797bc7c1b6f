package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"calsync/core/logger"
	"calsync/modules/connect/entity"
)

// UpsertCalendar idempotently records one discovered remote calendar. On
// conflict the surrogate id is preserved so event links created against it
// survive re-discovery; name, color and writability track the remote side.
func (r *ConnectRepository) UpsertCalendar(ctx context.Context, calendar *entity.ConnectedCalendar) error {
	query := `
		INSERT INTO connected_calendars (
			id, account_id, user_id, provider, provider_calendar_id,
			name, color, can_write, is_enabled, created_at, updated_at
		)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW())
		ON CONFLICT (user_id, provider, provider_calendar_id)
		DO UPDATE SET
			account_id = EXCLUDED.account_id,
			name = EXCLUDED.name,
			color = EXCLUDED.color,
			can_write = EXCLUDED.can_write,
			updated_at = NOW()
	`
	err := r.DB.ExecContext(ctx, query,
		calendar.AccountID, calendar.UserID, calendar.Provider, calendar.ProviderCalendarID,
		calendar.Name, calendar.Color, calendar.CanWrite,
	)
	if err != nil {
		logger.Error("ConnectRepository:UpsertCalendar:Error", "error", err,
			"user_id", calendar.UserID, "provider", calendar.Provider, "provider_calendar_id", calendar.ProviderCalendarID)
		return err
	}
	return nil
}

func (r *ConnectRepository) GetCalendarByIDForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entity.ConnectedCalendar, error) {
	var calendar entity.ConnectedCalendar
	query := `
		SELECT id, account_id, user_id, provider, provider_calendar_id,
		       name, color, can_write, is_enabled, created_at, updated_at
		FROM connected_calendars
		WHERE id = $1 AND user_id = $2
	`
	err := r.DB.GetContext(ctx, &calendar, query, id, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("ConnectRepository:GetCalendarByIDForUser:Error", "error", err, "id", id, "user_id", userID)
		return nil, err
	}
	return &calendar, nil
}

func (r *ConnectRepository) ListCalendarsByUser(ctx context.Context, userID uuid.UUID) ([]entity.ConnectedCalendar, error) {
	var calendars []entity.ConnectedCalendar
	query := `
		SELECT id, account_id, user_id, provider, provider_calendar_id,
		       name, color, can_write, is_enabled, created_at, updated_at
		FROM connected_calendars
		WHERE user_id = $1
		ORDER BY provider, name
	`
	err := r.DB.SelectContext(ctx, &calendars, query, userID)
	if err != nil {
		logger.Error("ConnectRepository:ListCalendarsByUser:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return calendars, nil
}

// SetCalendarEnabled flips the visibility flag. Disabling never deletes the
// row, so existing event links remain resolvable.
func (r *ConnectRepository) SetCalendarEnabled(ctx context.Context, id uuid.UUID, userID uuid.UUID, enabled bool) error {
	query := `
		UPDATE connected_calendars
		SET is_enabled = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`
	err := r.DB.ExecContext(ctx, query, enabled, id, userID)
	if err != nil {
		logger.Error("ConnectRepository:SetCalendarEnabled:Error", "error", err, "id", id)
		return err
	}
	return nil
}
