package repository

import (
	"context"

	"github.com/google/uuid"

	"calsync/core/database"
	"calsync/modules/event/dto"
	"calsync/modules/event/entity"
)

// EventRepository handles event, link and pending-write storage.
type EventRepository struct {
	DB database.IDatabase
}

func NewEventRepository(db database.IDatabase) *EventRepository {
	return &EventRepository{DB: db}
}

type EventRepositoryInterface interface {
	CreateEvent(ctx context.Context, event *entity.Event) (*entity.Event, error)
	CreateEventWithLink(ctx context.Context, event *entity.Event, link *entity.EventExternalLink) (*entity.Event, error)
	GetEventByIDForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entity.Event, error)
	ListEventsByUser(ctx context.Context, userID uuid.UUID) ([]entity.Event, error)
	UpdateEventFields(ctx context.Context, id uuid.UUID, userID uuid.UUID, fields *dto.UpdateEventRequest) error
	DeleteEventWithLink(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	GetLinkByEventID(ctx context.Context, eventID uuid.UUID) (*entity.EventExternalLink, error)
	ListLinksByEventIDs(ctx context.Context, eventIDs []uuid.UUID) ([]entity.EventExternalLink, error)

	SavePendingWrite(ctx context.Context, pending *entity.PendingWrite) error
	ListUnresolvedPendingWrites(ctx context.Context, limit int) ([]entity.PendingWrite, error)
	MarkPendingWriteResolved(ctx context.Context, id uuid.UUID) error
}
