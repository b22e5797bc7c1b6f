package repository

import (
	"context"

	"github.com/google/uuid"

	"calsync/core/logger"
	"calsync/modules/event/entity"
)

// SavePendingWrite records a remote success whose local half failed. Never
// returns the storage error to the mirror caller silently; the caller decides
// what to surface.
func (r *EventRepository) SavePendingWrite(ctx context.Context, pending *entity.PendingWrite) error {
	query := `
		INSERT INTO pending_writes (
			id, user_id, operation, provider, provider_calendar_id,
			remote_event_id, detail, resolved, created_at, updated_at
		)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW())
	`
	err := r.DB.ExecContext(ctx, query,
		pending.UserID, pending.Operation, pending.Provider,
		pending.ProviderCalendarID, pending.RemoteEventID, pending.Detail,
	)
	if err != nil {
		logger.Error("EventRepository:SavePendingWrite:Error", "error", err,
			"user_id", pending.UserID, "operation", pending.Operation)
		return err
	}
	return nil
}

func (r *EventRepository) ListUnresolvedPendingWrites(ctx context.Context, limit int) ([]entity.PendingWrite, error) {
	pending := []entity.PendingWrite{}
	query := `
		SELECT id, user_id, operation, provider, provider_calendar_id,
		       remote_event_id, detail, resolved, created_at, updated_at
		FROM pending_writes
		WHERE resolved = FALSE
		ORDER BY created_at
		LIMIT $1
	`
	err := r.DB.SelectContext(ctx, &pending, query, limit)
	if err != nil {
		logger.Error("EventRepository:ListUnresolvedPendingWrites:Error", "error", err)
		return nil, err
	}
	return pending, nil
}

func (r *EventRepository) MarkPendingWriteResolved(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE pending_writes SET resolved = TRUE, updated_at = NOW() WHERE id = $1`
	if err := r.DB.ExecContext(ctx, query, id); err != nil {
		logger.Error("EventRepository:MarkPendingWriteResolved:Error", "error", err, "id", id)
		return err
	}
	return nil
}
