package dto

// CreateSubscriptionRequest registers one read-only ICS feed URL.
type CreateSubscriptionRequest struct {
	URL   string `json:"url"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// UpdateSubscriptionRequest replaces a subscription's fields.
type UpdateSubscriptionRequest struct {
	URL   string `json:"url"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// SubscriptionResponse is one feed subscription in API form.
type SubscriptionResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// SubscriptionListResponse wraps the subscription list.
type SubscriptionListResponse struct {
	Calendars []SubscriptionResponse `json:"calendars"`
}
