package entity

import (
	"github.com/google/uuid"

	"calsync/core/entity"
)

// OverlayEntry is the per-user exception record for one ephemeral feed event.
// Hidden entries are dropped from the merged read. A non-nil override points
// at the local event that superseded the feed entry; an override entry is
// always hidden as well.
type OverlayEntry struct {
	UserID          uuid.UUID  `db:"user_id"`
	EphemeralID     string     `db:"ephemeral_id"`
	Hidden          bool       `db:"hidden"`
	OverrideEventID *uuid.UUID `db:"override_event_id"`
	entity.BaseEntity
}
