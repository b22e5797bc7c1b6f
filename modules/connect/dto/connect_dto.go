package dto

// AuthURLResponse carries the provider authorization URL the client should
// redirect the user to.
type AuthURLResponse struct {
	AuthURL string `json:"authUrl"`
}

// ConnectedCalendarResponse is one discovered remote calendar.
type ConnectedCalendarResponse struct {
	ID                 string `json:"id"`
	Provider           string `json:"provider"`
	ProviderCalendarID string `json:"providerCalendarId"`
	Name               string `json:"name"`
	Color              string `json:"color"`
	CanWrite           bool   `json:"canWrite"`
	IsEnabled          bool   `json:"isEnabled"`
	AccountID          string `json:"accountId"`
}

// ConnectedCalendarListResponse wraps the calendar list.
type ConnectedCalendarListResponse struct {
	Calendars []ConnectedCalendarResponse `json:"calendars"`
}

// SetCalendarEnabledRequest toggles a calendar's visibility flag.
type SetCalendarEnabledRequest struct {
	IsEnabled bool `json:"isEnabled"`
}
