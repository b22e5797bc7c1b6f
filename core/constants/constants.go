package constants

import "time"

const (
	// DefaultTimeout bounds service-level operations that include outbound calls.
	DefaultTimeout = 30 * time.Second

	// ProviderHTTPTimeout bounds a single outbound call to a calendar provider.
	ProviderHTTPTimeout = 10 * time.Second

	// FeedHTTPTimeout bounds a single subscription feed fetch.
	FeedHTTPTimeout = 15 * time.Second

	// OAuthStateTTL is the lifetime of an anti-forgery state token.
	OAuthStateTTL = 10 * time.Minute

	// TokenRefreshSkew is the safety margin before a recorded expiry at which
	// a proactive refresh is triggered.
	TokenRefreshSkew = 60 * time.Second

	// RefreshLockTTL bounds the per-account refresh lock so a crashed holder
	// cannot wedge refreshes forever.
	RefreshLockTTL = 30 * time.Second

	// DefaultEventDuration is applied when an event is created without an end.
	DefaultEventDuration = time.Hour

	// DefaultEventColor matches the client's default palette entry.
	DefaultEventColor = "#3788d8"

	// DefaultFeedColor is used for subscriptions created without a color.
	DefaultFeedColor = "#888888"

	// ScopeTokenAccess tags session JWTs accepted by the auth middleware.
	ScopeTokenAccess = "access"
)

const (
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
	DatabaseSSLMode         = "disable"
)
