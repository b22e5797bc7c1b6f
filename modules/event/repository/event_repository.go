package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"calsync/core/logger"
	"calsync/modules/event/dto"
	"calsync/modules/event/entity"
)

const eventColumns = `id, user_id, title, start_at, end_at, all_day, description, color, completed, created_at, updated_at`

func (r *EventRepository) CreateEvent(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	query := `
		INSERT INTO events (id, user_id, title, start_at, end_at, all_day, description, color, completed, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, FALSE, NOW(), NOW())
		RETURNING ` + eventColumns
	var saved entity.Event
	err := r.DB.GetContext(ctx, &saved, query,
		event.UserID, event.Title, event.StartAt, event.EndAt, event.AllDay, event.Description, event.Color,
	)
	if err != nil {
		logger.Error("EventRepository:CreateEvent:Error", "error", err, "user_id", event.UserID)
		return nil, err
	}
	return &saved, nil
}

// CreateEventWithLink inserts the event and its external link in one
// transaction so a mirrored event never exists without its link row.
func (r *EventRepository) CreateEventWithLink(ctx context.Context, event *entity.Event, link *entity.EventExternalLink) (*entity.Event, error) {
	tx, err := r.DB.BeginTxx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (id, user_id, title, start_at, end_at, all_day, description, color, completed, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, FALSE, NOW(), NOW())
		RETURNING ` + eventColumns
	var saved entity.Event
	err = tx.GetContext(ctx, &saved, query,
		event.UserID, event.Title, event.StartAt, event.EndAt, event.AllDay, event.Description, event.Color,
	)
	if err != nil {
		logger.Error("EventRepository:CreateEventWithLink:InsertEvent:Error", "error", err, "user_id", event.UserID)
		return nil, err
	}

	linkQuery := `
		INSERT INTO event_external_links (
			id, event_id, connected_calendar_id, account_id, provider,
			provider_calendar_id, remote_event_id, created_at, updated_at
		)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err = tx.ExecContext(ctx, linkQuery,
		saved.ID, link.ConnectedCalendarID, link.AccountID, link.Provider,
		link.ProviderCalendarID, link.RemoteEventID,
	)
	if err != nil {
		logger.Error("EventRepository:CreateEventWithLink:InsertLink:Error", "error", err, "event_id", saved.ID)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &saved, nil
}

func (r *EventRepository) GetEventByIDForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entity.Event, error) {
	var event entity.Event
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND user_id = $2`
	err := r.DB.GetContext(ctx, &event, query, id, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:GetEventByIDForUser:Error", "error", err, "id", id, "user_id", userID)
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) ListEventsByUser(ctx context.Context, userID uuid.UUID) ([]entity.Event, error) {
	events := []entity.Event{}
	query := `SELECT ` + eventColumns + ` FROM events WHERE user_id = $1 ORDER BY start_at`
	err := r.DB.SelectContext(ctx, &events, query, userID)
	if err != nil {
		logger.Error("EventRepository:ListEventsByUser:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return events, nil
}

// UpdateEventFields applies a partial update; NULL parameters keep the stored
// value.
func (r *EventRepository) UpdateEventFields(ctx context.Context, id uuid.UUID, userID uuid.UUID, fields *dto.UpdateEventRequest) error {
	query := `
		UPDATE events SET
			title = COALESCE($3, title),
			start_at = COALESCE($4, start_at),
			end_at = COALESCE($5, end_at),
			all_day = COALESCE($6, all_day),
			description = COALESCE($7, description),
			color = COALESCE($8, color),
			completed = COALESCE($9, completed),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	err := r.DB.ExecContext(ctx, query, id, userID,
		fields.Title, fields.Start, fields.End, fields.AllDay,
		fields.Description, fields.Color, fields.Completed,
	)
	if err != nil {
		logger.Error("EventRepository:UpdateEventFields:Error", "error", err, "id", id, "user_id", userID)
		return err
	}
	return nil
}

// DeleteEventWithLink removes the event and any link row in one transaction.
func (r *EventRepository) DeleteEventWithLink(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tx, err := r.DB.BeginTxx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM event_external_links WHERE event_id = $1`, id); err != nil {
		logger.Error("EventRepository:DeleteEventWithLink:DeleteLink:Error", "error", err, "event_id", id)
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		logger.Error("EventRepository:DeleteEventWithLink:DeleteEvent:Error", "error", err, "event_id", id)
		return err
	}
	return tx.Commit()
}
