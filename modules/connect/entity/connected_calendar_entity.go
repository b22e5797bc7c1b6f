package entity

import (
	"github.com/google/uuid"

	"calsync/core/entity"
)

// ConnectedCalendar is one remote calendar discovered on a connected account,
// keyed by (user, provider, provider-assigned id). Rows are upserted on every
// discovery run and disabled rather than deleted so existing event links stay
// resolvable.
type ConnectedCalendar struct {
	AccountID          uuid.UUID `db:"account_id"`
	UserID             uuid.UUID `db:"user_id"`
	Provider           string    `db:"provider"`
	ProviderCalendarID string    `db:"provider_calendar_id"`
	Name               string    `db:"name"`
	Color              string    `db:"color"`
	CanWrite           bool      `db:"can_write"`
	IsEnabled          bool      `db:"is_enabled"`
	entity.BaseEntity
}
