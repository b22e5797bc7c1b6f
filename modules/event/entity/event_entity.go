package entity

import (
	"time"

	"github.com/google/uuid"

	"calsync/core/entity"
)

// Event is the authoritative local record of a task or calendar event. A row
// may additionally be mirrored to one remote provider calendar through an
// EventExternalLink.
type Event struct {
	UserID      uuid.UUID  `db:"user_id"`
	Title       string     `db:"title"`
	StartAt     time.Time  `db:"start_at"`
	EndAt       *time.Time `db:"end_at"`
	AllDay      bool       `db:"all_day"`
	Description *string    `db:"description"`
	Color       string     `db:"color"`
	Completed   bool       `db:"completed"`
	entity.BaseEntity
}

// EventExternalLink binds a local event to the remote copy the mirror
// maintains. It is created in the same transaction as the event and removed
// with it.
type EventExternalLink struct {
	EventID             uuid.UUID `db:"event_id"`
	ConnectedCalendarID uuid.UUID `db:"connected_calendar_id"`
	AccountID           uuid.UUID `db:"account_id"`
	Provider            string    `db:"provider"`
	ProviderCalendarID  string    `db:"provider_calendar_id"`
	RemoteEventID       string    `db:"remote_event_id"`
	entity.BaseEntity
}

// PendingWrite records a mirror operation whose remote half succeeded but
// whose local half failed. The reconciliation sweep reads these rows.
type PendingWrite struct {
	UserID             uuid.UUID `db:"user_id"`
	Operation          string    `db:"operation"`
	Provider           string    `db:"provider"`
	ProviderCalendarID string    `db:"provider_calendar_id"`
	RemoteEventID      string    `db:"remote_event_id"`
	Detail             string    `db:"detail"`
	Resolved           bool      `db:"resolved"`
	entity.BaseEntity
}

const (
	PendingWriteCreate = "create"
	PendingWriteUpdate = "update"
	PendingWriteDelete = "delete"
)
