package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"calsync/core/logger"
	"calsync/modules/event/entity"
)

const linkColumns = `id, event_id, connected_calendar_id, account_id, provider, provider_calendar_id, remote_event_id, created_at, updated_at`

func (r *EventRepository) GetLinkByEventID(ctx context.Context, eventID uuid.UUID) (*entity.EventExternalLink, error) {
	var link entity.EventExternalLink
	query := `SELECT ` + linkColumns + ` FROM event_external_links WHERE event_id = $1`
	err := r.DB.GetContext(ctx, &link, query, eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:GetLinkByEventID:Error", "error", err, "event_id", eventID)
		return nil, err
	}
	return &link, nil
}

// ListLinksByEventIDs loads the links for a batch of events in one query so
// the merged read does not fan out per event.
func (r *EventRepository) ListLinksByEventIDs(ctx context.Context, eventIDs []uuid.UUID) ([]entity.EventExternalLink, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(eventIDs))
	for i, id := range eventIDs {
		ids[i] = id.String()
	}

	links := []entity.EventExternalLink{}
	query := `SELECT ` + linkColumns + ` FROM event_external_links WHERE event_id = ANY($1)`
	err := r.DB.SelectContext(ctx, &links, query, pq.Array(ids))
	if err != nil {
		logger.Error("EventRepository:ListLinksByEventIDs:Error", "error", err, "count", len(eventIDs))
		return nil, err
	}
	return links, nil
}
