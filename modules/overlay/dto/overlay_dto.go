package dto

import eventdto "calsync/modules/event/dto"

// HideRequest suppresses one ephemeral feed event from the merged view.
type HideRequest struct {
	EphemeralID string `json:"ephemeralId"`
}

// ForkRequest turns a read-only ephemeral event into an editable local copy.
// The event fields seed the copy; the original is hidden and superseded.
type ForkRequest struct {
	EphemeralID string                      `json:"ephemeralId"`
	Event       eventdto.CreateEventRequest `json:"event"`
}

// ForkResponse returns the new local event that supersedes the feed entry.
type ForkResponse struct {
	EphemeralID string                  `json:"ephemeralId"`
	Event       *eventdto.EventResponse `json:"event"`
}

// OverlayEntryResponse is one exception record.
type OverlayEntryResponse struct {
	EphemeralID     string  `json:"ephemeralId"`
	Hidden          bool    `json:"hidden"`
	OverrideEventID *string `json:"overrideEventId,omitempty"`
}

// OverlayListResponse wraps a user's overlay entries.
type OverlayListResponse struct {
	Entries []OverlayEntryResponse `json:"entries"`
}
