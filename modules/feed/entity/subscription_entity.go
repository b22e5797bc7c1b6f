package entity

import (
	"github.com/google/uuid"

	"calsync/core/entity"
)

// CalendarSubscription is an anonymous read-only ICS feed URL a user follows.
// It is independent of any ConnectedAccount; the source is never written to.
type CalendarSubscription struct {
	UserID uuid.UUID `db:"user_id"`
	URL    string    `db:"url"`
	Name   string    `db:"name"`
	Color  string    `db:"color"`
	entity.BaseEntity
}
