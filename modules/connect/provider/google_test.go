package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calsync/core/config"
	"calsync/core/errors"
)

func newGoogleTestAdapter(apiBase string) *GoogleAdapter {
	a := NewGoogleAdapter(config.OAuthProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost/cb",
	})
	a.apiBase = apiBase
	return a
}

func TestGoogleAuthCodeURLCarriesState(t *testing.T) {
	a := newGoogleTestAdapter("")

	url := a.AuthCodeURL("state-xyz")
	assert.Contains(t, url, "state=state-xyz")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "client_id=client-id")
}

func TestGoogleDiscoverCalendarsWritability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/calendarList", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]string{
				{"id": "primary", "summary": "Mine", "backgroundColor": "#fff", "accessRole": "owner"},
				{"id": "team", "summary": "Team", "backgroundColor": "#abc", "accessRole": "writer"},
				{"id": "holidays", "summary": "Holidays", "backgroundColor": "#888", "accessRole": "reader"},
			},
		})
	}))
	defer srv.Close()

	a := newGoogleTestAdapter(srv.URL)
	calendars, err := a.DiscoverCalendars(context.Background(), "token-1")
	require.NoError(t, err)
	require.Len(t, calendars, 3)

	byID := map[string]RemoteCalendar{}
	for _, c := range calendars {
		byID[c.ID] = c
	}
	assert.True(t, byID["primary"].CanWrite)
	assert.True(t, byID["team"].CanWrite)
	assert.False(t, byID["holidays"].CanWrite)
	assert.Equal(t, "Mine", byID["primary"].Name)
}

func TestGoogleCreateEventBody(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/calendars/cal-1/events", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{"id": "ev-123"})
	}))
	defer srv.Close()

	a := newGoogleTestAdapter(srv.URL)
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	id, err := a.CreateEvent(context.Background(), "tok", "cal-1", EventPayload{
		Title: "planning",
		Start: start,
	})
	require.NoError(t, err)
	assert.Equal(t, "ev-123", id)

	assert.Equal(t, "planning", received["summary"])
	startBody := received["start"].(map[string]any)
	endBody := received["end"].(map[string]any)
	assert.Equal(t, start.Format(time.RFC3339), startBody["dateTime"])
	// One-hour default duration when no end is supplied.
	assert.Equal(t, start.Add(time.Hour).Format(time.RFC3339), endBody["dateTime"])
}

func TestGoogleCreateAllDayEventUsesDateBounds(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{"id": "ev-456"})
	}))
	defer srv.Close()

	a := newGoogleTestAdapter(srv.URL)
	_, err := a.CreateEvent(context.Background(), "tok", "cal-1", EventPayload{
		Title:  "holiday",
		Start:  time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		AllDay: true,
	})
	require.NoError(t, err)

	startBody := received["start"].(map[string]any)
	endBody := received["end"].(map[string]any)
	assert.Equal(t, "2026-03-11", startBody["date"])
	assert.Equal(t, "2026-03-12", endBody["date"])
}

func TestGoogleDeleteEventGoneCountsAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	a := newGoogleTestAdapter(srv.URL)
	err := a.DeleteEvent(context.Background(), "tok", "cal-1", "ev-123")
	assert.NoError(t, err)
}

func TestGoogleAPIErrorSurfacesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	a := newGoogleTestAdapter(srv.URL)
	_, err := a.DiscoverCalendars(context.Background(), "tok")
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrProvider, appErr.Code)
}
