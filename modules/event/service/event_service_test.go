package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calsync/core/errors"
	connectdto "calsync/modules/connect/dto"
	connectentity "calsync/modules/connect/entity"
	"calsync/modules/connect/provider"
	"calsync/modules/event/dto"
	"calsync/modules/event/entity"
)

// -------- test fakes --------

type fakeEventRepo struct {
	events        map[uuid.UUID]*entity.Event
	links         map[uuid.UUID]*entity.EventExternalLink
	pendingWrites []*entity.PendingWrite

	deleteErr error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events: map[uuid.UUID]*entity.Event{},
		links:  map[uuid.UUID]*entity.EventExternalLink{},
	}
}

func (f *fakeEventRepo) CreateEvent(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	saved := *event
	saved.ID = uuid.New()
	f.events[saved.ID] = &saved
	return &saved, nil
}

func (f *fakeEventRepo) CreateEventWithLink(ctx context.Context, event *entity.Event, link *entity.EventExternalLink) (*entity.Event, error) {
	saved, _ := f.CreateEvent(ctx, event)
	stored := *link
	stored.EventID = saved.ID
	f.links[saved.ID] = &stored
	return saved, nil
}

func (f *fakeEventRepo) GetEventByIDForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entity.Event, error) {
	e, ok := f.events[id]
	if !ok || e.UserID != userID {
		return nil, nil
	}
	return e, nil
}

func (f *fakeEventRepo) ListEventsByUser(ctx context.Context, userID uuid.UUID) ([]entity.Event, error) {
	out := []entity.Event{}
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) UpdateEventFields(ctx context.Context, id uuid.UUID, userID uuid.UUID, fields *dto.UpdateEventRequest) error {
	e, ok := f.events[id]
	if !ok {
		return nil
	}
	if fields.Title != nil {
		e.Title = *fields.Title
	}
	if fields.Completed != nil {
		e.Completed = *fields.Completed
	}
	return nil
}

func (f *fakeEventRepo) DeleteEventWithLink(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.events, id)
	delete(f.links, id)
	return nil
}

func (f *fakeEventRepo) GetLinkByEventID(ctx context.Context, eventID uuid.UUID) (*entity.EventExternalLink, error) {
	return f.links[eventID], nil
}

func (f *fakeEventRepo) ListLinksByEventIDs(ctx context.Context, eventIDs []uuid.UUID) ([]entity.EventExternalLink, error) {
	out := []entity.EventExternalLink{}
	for _, id := range eventIDs {
		if l, ok := f.links[id]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) SavePendingWrite(ctx context.Context, pending *entity.PendingWrite) error {
	f.pendingWrites = append(f.pendingWrites, pending)
	return nil
}

func (f *fakeEventRepo) ListUnresolvedPendingWrites(ctx context.Context, limit int) ([]entity.PendingWrite, error) {
	return nil, nil
}

func (f *fakeEventRepo) MarkPendingWriteResolved(ctx context.Context, id uuid.UUID) error {
	return nil
}

// countingAdapter records every remote mirror call.
type countingAdapter struct {
	createCalls int
	updateCalls int
	deleteCalls int

	createErr error
	deleteErr error

	lastPayload provider.EventPayload
}

func (a *countingAdapter) Name() string                    { return provider.Google }
func (a *countingAdapter) AuthCodeURL(state string) string { return "" }

func (a *countingAdapter) Exchange(ctx context.Context, code string) (*provider.Token, error) {
	return nil, nil
}

func (a *countingAdapter) Refresh(ctx context.Context, refreshToken string) (*provider.Token, error) {
	return nil, nil
}

func (a *countingAdapter) DiscoverCalendars(ctx context.Context, accessToken string) ([]provider.RemoteCalendar, error) {
	return nil, nil
}

func (a *countingAdapter) CreateEvent(ctx context.Context, accessToken, calendarID string, event provider.EventPayload) (string, error) {
	a.createCalls++
	a.lastPayload = event
	if a.createErr != nil {
		return "", a.createErr
	}
	return "remote-ev-1", nil
}

func (a *countingAdapter) UpdateEvent(ctx context.Context, accessToken, calendarID, remoteEventID string, event provider.EventPayload) error {
	a.updateCalls++
	a.lastPayload = event
	return nil
}

func (a *countingAdapter) DeleteEvent(ctx context.Context, accessToken, calendarID, remoteEventID string) error {
	a.deleteCalls++
	return a.deleteErr
}

// fakeConnect hands out one calendar and one account.
type fakeConnect struct {
	calendar *connectentity.ConnectedCalendar
	account  *connectentity.ConnectedAccount
	adapter  *countingAdapter
}

func (f *fakeConnect) GetAuthURL(ctx context.Context, userID uuid.UUID, providerName string) (string, *errors.AppError) {
	return "", nil
}

func (f *fakeConnect) HandleCallback(ctx context.Context, providerName, code, state string) (string, *errors.AppError) {
	return "", nil
}

func (f *fakeConnect) ListConnectedCalendars(ctx context.Context, userID uuid.UUID) ([]connectdto.ConnectedCalendarResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeConnect) RefreshCalendars(ctx context.Context, userID uuid.UUID, providerName string) (int, *errors.AppError) {
	return 0, nil
}

func (f *fakeConnect) SetCalendarEnabled(ctx context.Context, userID uuid.UUID, calendarID uuid.UUID, enabled bool) *errors.AppError {
	return nil
}

func (f *fakeConnect) GetWritableCalendar(ctx context.Context, userID uuid.UUID, calendarID uuid.UUID) (*connectentity.ConnectedCalendar, *errors.AppError) {
	if f.calendar == nil || f.calendar.ID != calendarID || f.calendar.UserID != userID {
		return nil, errors.NewAppError(errors.ErrNotFound, "connected calendar not found", nil)
	}
	if !f.calendar.IsEnabled {
		return nil, errors.NewAppError(errors.ErrForbidden, "connected calendar is disabled", nil)
	}
	if !f.calendar.CanWrite {
		return nil, errors.NewAppError(errors.ErrForbidden, "connected calendar is read-only", nil)
	}
	return f.calendar, nil
}

func (f *fakeConnect) GetCalendar(ctx context.Context, userID uuid.UUID, calendarID uuid.UUID) (*connectentity.ConnectedCalendar, *errors.AppError) {
	return f.calendar, nil
}

func (f *fakeConnect) GetAccount(ctx context.Context, accountID uuid.UUID) (*connectentity.ConnectedAccount, *errors.AppError) {
	return f.account, nil
}

func (f *fakeConnect) EnsureAccessToken(ctx context.Context, account *connectentity.ConnectedAccount) (string, *errors.AppError) {
	return "access-token", nil
}

func (f *fakeConnect) AdapterFor(providerName string) (provider.Adapter, *errors.AppError) {
	return f.adapter, nil
}

func newMirrorFixture(canWrite, enabled bool) (*EventService, *fakeEventRepo, *countingAdapter, uuid.UUID, uuid.UUID) {
	userID := uuid.New()
	calendarID := uuid.New()
	accountID := uuid.New()

	adapter := &countingAdapter{}
	connect := &fakeConnect{
		adapter: adapter,
		calendar: &connectentity.ConnectedCalendar{
			UserID:             userID,
			AccountID:          accountID,
			Provider:           provider.Google,
			ProviderCalendarID: "remote-cal",
			CanWrite:           canWrite,
			IsEnabled:          enabled,
		},
		account: &connectentity.ConnectedAccount{UserID: userID, Provider: provider.Google},
	}
	connect.calendar.ID = calendarID
	connect.account.ID = accountID

	repo := newFakeEventRepo()
	return NewEventService(repo, connect), repo, adapter, userID, calendarID
}

// -------- tests --------

func TestCreateEventPlainLocal(t *testing.T) {
	svc, repo, adapter, userID, _ := newMirrorFixture(true, true)

	resp, appErr := svc.CreateEvent(context.Background(), userID, &dto.CreateEventRequest{
		Title: "standup",
		Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	require.Nil(t, appErr)
	assert.False(t, resp.IsProviderLinked)
	assert.Equal(t, "#3788d8", resp.Color)
	assert.Equal(t, 0, adapter.createCalls)
	assert.Len(t, repo.events, 1)
}

func TestCreateEventMirrored(t *testing.T) {
	svc, repo, adapter, userID, calendarID := newMirrorFixture(true, true)

	calID := calendarID.String()
	resp, appErr := svc.CreateEvent(context.Background(), userID, &dto.CreateEventRequest{
		Title:               "planning",
		Start:               time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		ConnectedCalendarID: &calID,
	})
	require.Nil(t, appErr)

	assert.True(t, resp.IsProviderLinked)
	require.NotNil(t, resp.ConnectedCalendarID)
	assert.Equal(t, calID, *resp.ConnectedCalendarID)
	require.NotNil(t, resp.Provider)
	assert.Equal(t, provider.Google, *resp.Provider)

	assert.Equal(t, 1, adapter.createCalls)
	assert.Len(t, repo.links, 1)
}

func TestCreateEventReadOnlyCalendarNoRemoteCall(t *testing.T) {
	svc, repo, adapter, userID, calendarID := newMirrorFixture(false, true)

	calID := calendarID.String()
	_, appErr := svc.CreateEvent(context.Background(), userID, &dto.CreateEventRequest{
		Title:               "planning",
		Start:               time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		ConnectedCalendarID: &calID,
	})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)

	// A permission failure happens before any remote or local write.
	assert.Equal(t, 0, adapter.createCalls)
	assert.Empty(t, repo.events)
}

func TestCreateEventDisabledCalendarNoRemoteCall(t *testing.T) {
	svc, repo, adapter, userID, calendarID := newMirrorFixture(true, false)

	calID := calendarID.String()
	_, appErr := svc.CreateEvent(context.Background(), userID, &dto.CreateEventRequest{
		Title:               "planning",
		Start:               time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		ConnectedCalendarID: &calID,
	})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
	assert.Equal(t, 0, adapter.createCalls)
	assert.Empty(t, repo.events)
}

func TestCreateEventRemoteFailureNoLocalWrite(t *testing.T) {
	svc, repo, adapter, userID, calendarID := newMirrorFixture(true, true)
	adapter.createErr = errors.NewAppError(errors.ErrProvider, "remote rejected", nil)

	calID := calendarID.String()
	_, appErr := svc.CreateEvent(context.Background(), userID, &dto.CreateEventRequest{
		Title:               "planning",
		Start:               time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		ConnectedCalendarID: &calID,
	})
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrProvider, appErr.Code)
	assert.Empty(t, repo.events)
	assert.Empty(t, repo.links)
}

func TestUpdateLinkedEventPushesFullMergedRecord(t *testing.T) {
	svc, _, adapter, userID, calendarID := newMirrorFixture(true, true)

	calID := calendarID.String()
	created, appErr := svc.CreateEvent(context.Background(), userID, &dto.CreateEventRequest{
		Title:               "planning",
		Start:               time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		ConnectedCalendarID: &calID,
	})
	require.Nil(t, appErr)
	eventID := uuid.MustParse(created.ID)

	newTitle := "planning v2"
	_, appErr = svc.UpdateEvent(context.Background(), userID, eventID, &dto.UpdateEventRequest{Title: &newTitle})
	require.Nil(t, appErr)

	assert.Equal(t, 1, adapter.updateCalls)
	// The remote receives the full merged record: the new title plus the
	// unchanged original start.
	assert.Equal(t, "planning v2", adapter.lastPayload.Title)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), adapter.lastPayload.Start)
}

func TestDeleteLinkedEventExactlyOneRemoteDelete(t *testing.T) {
	svc, repo, adapter, userID, calendarID := newMirrorFixture(true, true)

	calID := calendarID.String()
	created, appErr := svc.CreateEvent(context.Background(), userID, &dto.CreateEventRequest{
		Title:               "planning",
		Start:               time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		ConnectedCalendarID: &calID,
	})
	require.Nil(t, appErr)
	eventID := uuid.MustParse(created.ID)

	appErr = svc.DeleteEvent(context.Background(), userID, eventID)
	require.Nil(t, appErr)

	assert.Equal(t, 1, adapter.deleteCalls)
	assert.Empty(t, repo.events)
	assert.Empty(t, repo.links)
}

func TestDeleteLinkedEventRemoteFailureKeepsLocalRow(t *testing.T) {
	svc, repo, adapter, userID, calendarID := newMirrorFixture(true, true)

	calID := calendarID.String()
	created, appErr := svc.CreateEvent(context.Background(), userID, &dto.CreateEventRequest{
		Title:               "planning",
		Start:               time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		ConnectedCalendarID: &calID,
	})
	require.Nil(t, appErr)
	eventID := uuid.MustParse(created.ID)

	adapter.deleteErr = errors.NewAppError(errors.ErrProvider, "remote down", nil)
	appErr = svc.DeleteEvent(context.Background(), userID, eventID)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrProvider, appErr.Code)
	assert.Len(t, repo.events, 1)
	assert.Len(t, repo.links, 1)
}

func TestDeleteLinkedEventLocalFailureRecordsPendingWrite(t *testing.T) {
	svc, repo, _, userID, calendarID := newMirrorFixture(true, true)

	calID := calendarID.String()
	created, appErr := svc.CreateEvent(context.Background(), userID, &dto.CreateEventRequest{
		Title:               "planning",
		Start:               time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		ConnectedCalendarID: &calID,
	})
	require.Nil(t, appErr)
	eventID := uuid.MustParse(created.ID)

	repo.deleteErr = errors.NewAppError(errors.ErrInternalServer, "disk full", nil)
	appErr = svc.DeleteEvent(context.Background(), userID, eventID)
	require.NotNil(t, appErr)

	require.Len(t, repo.pendingWrites, 1)
	assert.Equal(t, entity.PendingWriteDelete, repo.pendingWrites[0].Operation)
	assert.Equal(t, "remote-ev-1", repo.pendingWrites[0].RemoteEventID)
}
