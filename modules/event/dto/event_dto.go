package dto

import "time"

// CreateEventRequest creates a local event, optionally mirrored to a
// connected provider calendar.
type CreateEventRequest struct {
	Title               string     `json:"title"`
	Start               time.Time  `json:"start"`
	End                 *time.Time `json:"end"`
	AllDay              bool       `json:"allDay"`
	Description         *string    `json:"description"`
	Color               *string    `json:"color"`
	ConnectedCalendarID *string    `json:"connectedCalendarId"`
}

// UpdateEventRequest carries a partial update. Nil fields keep their stored
// values.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
	AllDay      *bool      `json:"allDay"`
	Description *string    `json:"description"`
	Color       *string    `json:"color"`
	Completed   *bool      `json:"completed"`
}

// EventResponse is one event in API form. Provider-linked events additionally
// carry the link's calendar and provider.
type EventResponse struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Start               time.Time  `json:"start"`
	End                 *time.Time `json:"end,omitempty"`
	AllDay              bool       `json:"allDay"`
	Description         *string    `json:"description,omitempty"`
	Color               string     `json:"color"`
	Completed           bool       `json:"completed"`
	Editable            bool       `json:"editable"`
	IsProviderLinked    bool       `json:"isProviderLinked"`
	ConnectedCalendarID *string    `json:"connectedCalendarId,omitempty"`
	Provider            *string    `json:"provider,omitempty"`
}

// EventListResponse is the merged read: local events plus the ephemeral feed
// events that survived the overlay.
type EventListResponse struct {
	Events []EventResponse `json:"events"`
}
