package provider

import (
	"context"
	"time"

	"calsync/core/config"
	"calsync/core/constants"
	"calsync/core/errors"
)

// Provider names accepted on the wire.
const (
	Google     = "google"
	NaverWorks = "naverworks"
)

// Token is the provider-neutral result of a code exchange or refresh.
type Token struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresAt    *time.Time
}

// RemoteCalendar is one calendar discovered on a connected account.
type RemoteCalendar struct {
	ID       string
	Name     string
	Color    string
	CanWrite bool
}

// EventPayload is the provider-neutral event shape pushed to a remote
// calendar. End may be nil; adapters apply a default one-hour duration.
type EventPayload struct {
	Title       string
	Description string
	Start       time.Time
	End         *time.Time
	AllDay      bool
}

// Adapter is the uniform capability surface over one calendar provider.
type Adapter interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Token, error)
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
	DiscoverCalendars(ctx context.Context, accessToken string) ([]RemoteCalendar, error)
	CreateEvent(ctx context.Context, accessToken string, calendarID string, event EventPayload) (string, error)
	UpdateEvent(ctx context.Context, accessToken string, calendarID string, remoteEventID string, event EventPayload) error
	DeleteEvent(ctx context.Context, accessToken string, calendarID string, remoteEventID string) error
}

// IsKnown reports whether name is one of the supported providers.
func IsKnown(name string) bool {
	return name == Google || name == NaverWorks
}

// ForName builds the adapter for a provider from process configuration.
// Missing credentials are a first-use fatal condition, never a silent default.
func ForName(name string) (Adapter, error) {
	cfg, ok := config.GetSafe()
	if !ok {
		return nil, errors.NewAppError(errors.ErrInternalServer, "config not initialized", nil)
	}

	switch name {
	case Google:
		if cfg.GoogleAPI.ClientID == "" || cfg.GoogleAPI.ClientSecret == "" || cfg.GoogleAPI.RedirectURI == "" {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Google OAuth configuration is missing", nil)
		}
		return NewGoogleAdapter(cfg.GoogleAPI), nil
	case NaverWorks:
		if cfg.NaverWorksAPI.ClientID == "" || cfg.NaverWorksAPI.ClientSecret == "" || cfg.NaverWorksAPI.RedirectURI == "" {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Naver Works OAuth configuration is missing", nil)
		}
		return NewNaverWorksAdapter(cfg.NaverWorksAPI), nil
	default:
		return nil, errors.NewAppError(errors.ErrInvalidInput, "unknown provider "+name, nil)
	}
}

// endOrDefault resolves an event's end bound, applying the default duration
// when the caller supplied none.
func endOrDefault(event EventPayload) time.Time {
	if event.End != nil && !event.End.IsZero() {
		return *event.End
	}
	if event.AllDay {
		return event.Start.AddDate(0, 0, 1)
	}
	return event.Start.Add(constants.DefaultEventDuration)
}
