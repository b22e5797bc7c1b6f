package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calsync/core/config"
	"calsync/core/constants"
	"calsync/core/errors"
	"calsync/core/middleware"
	"calsync/core/utils"
	"calsync/modules/event/dto"
	feeddto "calsync/modules/feed/dto"
	feedservice "calsync/modules/feed/service"
	overlaydto "calsync/modules/overlay/dto"
)

// -------- test fakes --------

type fakeEventService struct {
	events []dto.EventResponse
}

func (f *fakeEventService) CreateEvent(ctx context.Context, userID uuid.UUID, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID) *errors.AppError {
	return nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeEventService) ListEvents(ctx context.Context, userID uuid.UUID) ([]dto.EventResponse, *errors.AppError) {
	return f.events, nil
}

type fakeFeedService struct {
	feedEvents   []feedservice.FeedEvent
	aggregateErr *errors.AppError
}

func (f *fakeFeedService) CreateSubscription(ctx context.Context, userID uuid.UUID, req *feeddto.CreateSubscriptionRequest) (*feeddto.SubscriptionResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeFeedService) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]feeddto.SubscriptionResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeFeedService) UpdateSubscription(ctx context.Context, userID uuid.UUID, id uuid.UUID, req *feeddto.UpdateSubscriptionRequest) (*feeddto.SubscriptionResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeFeedService) DeleteSubscription(ctx context.Context, userID uuid.UUID, id uuid.UUID) *errors.AppError {
	return nil
}

func (f *fakeFeedService) AggregateEvents(ctx context.Context, userID uuid.UUID, windowStart, windowEnd time.Time) ([]feedservice.FeedEvent, *errors.AppError) {
	return f.feedEvents, f.aggregateErr
}

type fakeOverlayService struct {
	hidden map[string]bool
}

func (f *fakeOverlayService) Hide(ctx context.Context, userID uuid.UUID, ephemeralID string) *errors.AppError {
	return nil
}

func (f *fakeOverlayService) Fork(ctx context.Context, userID uuid.UUID, req *overlaydto.ForkRequest) (*overlaydto.ForkResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeOverlayService) List(ctx context.Context, userID uuid.UUID) ([]overlaydto.OverlayEntryResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeOverlayService) HiddenSet(ctx context.Context, userID uuid.UUID) (map[string]bool, *errors.AppError) {
	if f.hidden == nil {
		return map[string]bool{}, nil
	}
	return f.hidden, nil
}

// -------- helpers --------

type listEnvelope struct {
	Data dto.EventListResponse `json:"data"`
}

func performList(t *testing.T, userID uuid.UUID, events *fakeEventService, feeds *fakeFeedService, overlay *fakeOverlayService) listEnvelope {
	t.Helper()
	config.Set(&config.Config{JWT: config.JWTConfig{Secret: "test-secret"}})

	token, err := utils.GenerateToken(userID, "alice", constants.ScopeTokenAccess, time.Hour)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/private/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ctrl := NewEventController(events, feeds, overlay)
	handler := middleware.NewMiddleware().AuthMiddleware()(ctrl.List)
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func responseIDs(envelope listEnvelope) []string {
	ids := make([]string, 0, len(envelope.Data.Events))
	for _, ev := range envelope.Data.Events {
		ids = append(ids, ev.ID)
	}
	return ids
}

// -------- tests --------

func TestListDropsHiddenFeedEvents(t *testing.T) {
	userID := uuid.New()
	subID := uuid.New()
	localID := uuid.New().String()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	events := &fakeEventService{events: []dto.EventResponse{
		{ID: localID, Title: "Local", Start: start, Color: "#3788d8", Editable: true},
	}}
	feeds := &fakeFeedService{feedEvents: []feedservice.FeedEvent{
		{EphemeralID: "ext-" + subID.String() + "-uid-a", SubscriptionID: subID, Title: "[Ext] Hidden", Start: start, End: start.Add(time.Hour), Color: "#888888"},
		{EphemeralID: "ext-" + subID.String() + "-uid-b", SubscriptionID: subID, Title: "[Ext] Visible", Start: start, End: start.Add(time.Hour), Color: "#888888"},
	}}
	overlay := &fakeOverlayService{hidden: map[string]bool{
		"ext-" + subID.String() + "-uid-a": true,
	}}

	envelope := performList(t, userID, events, feeds, overlay)

	ids := responseIDs(envelope)
	assert.Contains(t, ids, localID)
	assert.Contains(t, ids, "ext-"+subID.String()+"-uid-b")
	assert.NotContains(t, ids, "ext-"+subID.String()+"-uid-a")

	// Surviving feed events stay read-only in the merged view.
	for _, ev := range envelope.Data.Events {
		if ev.ID == "ext-"+subID.String()+"-uid-b" {
			assert.False(t, ev.Editable)
		}
	}
}

func TestListSurvivesFeedFailure(t *testing.T) {
	userID := uuid.New()
	localID := uuid.New().String()
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	events := &fakeEventService{events: []dto.EventResponse{
		{ID: localID, Title: "Local", Start: start, Color: "#3788d8", Editable: true},
	}}
	feeds := &fakeFeedService{
		aggregateErr: errors.NewAppError(errors.ErrInternalServer, "feed store unavailable", nil),
	}

	envelope := performList(t, userID, events, feeds, &fakeOverlayService{})

	require.Len(t, envelope.Data.Events, 1)
	assert.Equal(t, localID, envelope.Data.Events[0].ID)
}
