package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"calsync/core/config"
	"calsync/core/constants"
	"calsync/core/errors"
	"calsync/core/logger"
)

const googleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"

// googleScopes request read/write calendar access alongside basic identity.
var googleScopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/userinfo.email",
}

type GoogleAdapter struct {
	oauth   *oauth2.Config
	client  *http.Client
	apiBase string
}

func NewGoogleAdapter(cfg config.OAuthProviderConfig) *GoogleAdapter {
	return &GoogleAdapter{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       googleScopes,
			Endpoint:     google.Endpoint,
		},
		client:  &http.Client{Timeout: constants.ProviderHTTPTimeout},
		apiBase: googleCalendarAPIBase,
	}
}

func (a *GoogleAdapter) Name() string {
	return Google
}

func (a *GoogleAdapter) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (a *GoogleAdapter) Exchange(ctx context.Context, code string) (*Token, error) {
	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		logger.Error("GoogleAdapter:Exchange:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrProvider, "failed to exchange authorization code", err)
	}
	return fromOAuth2Token(token), nil
}

func (a *GoogleAdapter) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	source := a.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		logger.Error("GoogleAdapter:Refresh:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrProvider, "failed to refresh access token", err)
	}
	return fromOAuth2Token(token), nil
}

func (a *GoogleAdapter) DiscoverCalendars(ctx context.Context, accessToken string) ([]RemoteCalendar, error) {
	body, err := a.doJSON(ctx, http.MethodGet, a.apiBase+"/users/me/calendarList", accessToken, nil)
	if err != nil {
		return nil, err
	}

	var list struct {
		Items []struct {
			ID              string `json:"id"`
			Summary         string `json:"summary"`
			BackgroundColor string `json:"backgroundColor"`
			AccessRole      string `json:"accessRole"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		logger.Error("GoogleAdapter:DiscoverCalendars:Unmarshal:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrProvider, "failed to parse calendar list", err)
	}

	calendars := make([]RemoteCalendar, 0, len(list.Items))
	for _, item := range list.Items {
		calendars = append(calendars, RemoteCalendar{
			ID:       item.ID,
			Name:     item.Summary,
			Color:    item.BackgroundColor,
			CanWrite: item.AccessRole == "owner" || item.AccessRole == "writer",
		})
	}
	return calendars, nil
}

func (a *GoogleAdapter) CreateEvent(ctx context.Context, accessToken string, calendarID string, event EventPayload) (string, error) {
	url := fmt.Sprintf("%s/calendars/%s/events", a.apiBase, calendarID)
	body, err := a.doJSON(ctx, http.MethodPost, url, accessToken, googleEventBody(event))
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", errors.NewAppError(errors.ErrProvider, "failed to parse created event", err)
	}
	if created.ID == "" {
		logger.Error("GoogleAdapter:CreateEvent:MissingEventID", "calendar_id", calendarID)
		return "", errors.NewAppError(errors.ErrProvider, "provider returned no event id", nil)
	}
	return created.ID, nil
}

func (a *GoogleAdapter) UpdateEvent(ctx context.Context, accessToken string, calendarID string, remoteEventID string, event EventPayload) error {
	url := fmt.Sprintf("%s/calendars/%s/events/%s", a.apiBase, calendarID, remoteEventID)
	_, err := a.doJSON(ctx, http.MethodPut, url, accessToken, googleEventBody(event))
	return err
}

func (a *GoogleAdapter) DeleteEvent(ctx context.Context, accessToken string, calendarID string, remoteEventID string) error {
	url := fmt.Sprintf("%s/calendars/%s/events/%s", a.apiBase, calendarID, remoteEventID)
	_, err := a.doJSON(ctx, http.MethodDelete, url, accessToken, nil)
	return err
}

// googleEventBody translates the neutral event shape into the Calendar v3
// wire format. All-day events carry date-only bounds.
func googleEventBody(event EventPayload) map[string]any {
	end := endOrDefault(event)

	var start, finish map[string]string
	if event.AllDay {
		start = map[string]string{"date": event.Start.Format("2006-01-02")}
		finish = map[string]string{"date": end.Format("2006-01-02")}
	} else {
		start = map[string]string{"dateTime": event.Start.Format(time.RFC3339)}
		finish = map[string]string{"dateTime": end.Format(time.RFC3339)}
	}

	return map[string]any{
		"summary":     event.Title,
		"description": event.Description,
		"start":       start,
		"end":         finish,
	}
}

// doJSON performs one bounded call against the Calendar API and returns the
// response body for 2xx statuses. A deleted-on-the-remote event (404/410 on
// DELETE) counts as success so mirrored deletes stay idempotent.
func (a *GoogleAdapter) doJSON(ctx context.Context, method string, url string, accessToken string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to encode request", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		logger.Error("GoogleAdapter:Request:Error", "method", method, "url", url, "error", err)
		return nil, errors.NewAppError(errors.ErrProvider, "Google Calendar API call failed", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if readErr != nil {
			return nil, errors.NewAppError(errors.ErrProvider, "failed to read response", readErr)
		}
		return body, nil
	}

	if method == http.MethodDelete && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone) {
		return nil, nil
	}

	logger.Error("GoogleAdapter:Request:APIError", "method", method, "url", url, "status", resp.StatusCode, "body", string(body))
	return nil, errors.NewAppError(errors.ErrProvider, fmt.Sprintf("Google Calendar API error: %d", resp.StatusCode), nil)
}

func fromOAuth2Token(token *oauth2.Token) *Token {
	out := &Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		out.ExpiresAt = &expiry
	}
	if scope, ok := token.Extra("scope").(string); ok {
		out.Scope = scope
	}
	return out
}
