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
)

func newNaverWorksTestAdapter(apiBase string) *NaverWorksAdapter {
	a := NewNaverWorksAdapter(config.OAuthProviderConfig{
		ClientID:     "nw-client",
		ClientSecret: "nw-secret",
		RedirectURI:  "http://localhost/cb",
	})
	a.apiBase = apiBase
	return a
}

func TestNaverWorksDiscoverCalendarsWritability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/calendars", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"calendars": []map[string]string{
				{"calendarId": "c1", "calendarName": "Mine", "color": "#fff", "accessRole": "OWNER"},
				{"calendarId": "c2", "calendarName": "Shared", "color": "#abc", "accessRole": "EDITOR"},
				{"calendarId": "c3", "calendarName": "Company", "color": "#888", "accessRole": "VIEWER"},
			},
		})
	}))
	defer srv.Close()

	a := newNaverWorksTestAdapter(srv.URL)
	calendars, err := a.DiscoverCalendars(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, calendars, 3)

	byID := map[string]RemoteCalendar{}
	for _, c := range calendars {
		byID[c.ID] = c
	}
	assert.True(t, byID["c1"].CanWrite)
	assert.True(t, byID["c2"].CanWrite)
	assert.False(t, byID["c3"].CanWrite)
}

func TestNaverWorksCreateEventComponents(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/calendars/c1/events", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{"eventId": "nw-ev-1"})
	}))
	defer srv.Close()

	a := newNaverWorksTestAdapter(srv.URL)
	id, err := a.CreateEvent(context.Background(), "tok", "c1", EventPayload{
		Title: "meeting",
		Start: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "nw-ev-1", id)

	components := received["eventComponents"].([]any)
	require.Len(t, components, 1)
	component := components[0].(map[string]any)
	assert.Equal(t, "meeting", component["summary"])
	start := component["start"].(map[string]any)
	assert.Equal(t, "2026-03-10T09:00:00", start["dateTime"])
	assert.Equal(t, "UTC", start["timeZone"])
}

func TestNaverWorksDeleteMissingEventCountsAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := newNaverWorksTestAdapter(srv.URL)
	err := a.DeleteEvent(context.Background(), "tok", "c1", "missing")
	assert.NoError(t, err)
}
