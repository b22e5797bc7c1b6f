package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calsync/modules/feed/entity"
)

type fakeFeedRepo struct {
	subs map[uuid.UUID]*entity.CalendarSubscription
}

func newFakeFeedRepo() *fakeFeedRepo {
	return &fakeFeedRepo{subs: map[uuid.UUID]*entity.CalendarSubscription{}}
}

func (f *fakeFeedRepo) CreateSubscription(ctx context.Context, sub *entity.CalendarSubscription) (*entity.CalendarSubscription, error) {
	saved := *sub
	saved.ID = uuid.New()
	f.subs[saved.ID] = &saved
	return &saved, nil
}

func (f *fakeFeedRepo) GetSubscriptionByIDForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entity.CalendarSubscription, error) {
	s, ok := f.subs[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	return s, nil
}

func (f *fakeFeedRepo) ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]entity.CalendarSubscription, error) {
	out := []entity.CalendarSubscription{}
	for _, s := range f.subs {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeFeedRepo) UpdateSubscription(ctx context.Context, sub *entity.CalendarSubscription) error {
	f.subs[sub.ID] = sub
	return nil
}

func (f *fakeFeedRepo) DeleteSubscription(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	delete(f.subs, id)
	return nil
}

var healthyFeed = toCRLF(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:uid-timed@example.com
DTSTART:20260310T090000Z
DTEND:20260310T100000Z
SUMMARY:Team sync
DESCRIPTION:weekly
END:VEVENT
BEGIN:VEVENT
UID:uid-allday@example.com
DTSTART;VALUE=DATE:20260311
DTEND;VALUE=DATE:20260312
SUMMARY:Public holiday
END:VEVENT
END:VCALENDAR
`)

func toCRLF(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func feedWindow() (time.Time, time.Time) {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
}

func TestAggregateEventsEphemeralShape(t *testing.T) {
	repo := newFakeFeedRepo()
	userID := uuid.New()
	sub, err := repo.CreateSubscription(context.Background(), &entity.CalendarSubscription{
		UserID: userID, URL: "http://feed.test/a.ics", Name: "Team", Color: "#888888",
	})
	require.NoError(t, err)

	svc := NewFeedService(repo)
	svc.fetch = func(ctx context.Context, url string) ([]byte, error) {
		return []byte(healthyFeed), nil
	}

	start, end := feedWindow()
	events, appErr := svc.AggregateEvents(context.Background(), userID, start, end)
	require.Nil(t, appErr)
	require.Len(t, events, 2)

	byUID := map[string]FeedEvent{}
	for _, ev := range events {
		byUID[ev.EphemeralID] = ev
	}

	timed := byUID[fmt.Sprintf("ext-%s-%s", sub.ID, "uid-timed@example.com")]
	assert.Equal(t, "[Ext] Team sync", timed.Title)
	assert.Equal(t, "weekly", timed.Description)
	assert.Equal(t, "#888888", timed.Color)
	assert.False(t, timed.AllDay)

	allDay := byUID[fmt.Sprintf("ext-%s-%s", sub.ID, "uid-allday@example.com")]
	assert.Equal(t, "[Ext] Public holiday", allDay.Title)
	assert.True(t, allDay.AllDay)
}

func TestAggregateEventsDeterministicIDs(t *testing.T) {
	repo := newFakeFeedRepo()
	userID := uuid.New()
	_, err := repo.CreateSubscription(context.Background(), &entity.CalendarSubscription{
		UserID: userID, URL: "http://feed.test/a.ics", Name: "Team", Color: "#888888",
	})
	require.NoError(t, err)

	svc := NewFeedService(repo)
	svc.fetch = func(ctx context.Context, url string) ([]byte, error) {
		return []byte(healthyFeed), nil
	}

	start, end := feedWindow()
	first, appErr := svc.AggregateEvents(context.Background(), userID, start, end)
	require.Nil(t, appErr)
	second, appErr := svc.AggregateEvents(context.Background(), userID, start, end)
	require.Nil(t, appErr)

	ids := func(events []FeedEvent) []string {
		out := make([]string, len(events))
		for i, ev := range events {
			out[i] = ev.EphemeralID
		}
		return out
	}
	assert.Equal(t, ids(first), ids(second))
}

func TestAggregateEventsPartialFeedFailure(t *testing.T) {
	repo := newFakeFeedRepo()
	userID := uuid.New()
	healthy, err := repo.CreateSubscription(context.Background(), &entity.CalendarSubscription{
		UserID: userID, URL: "http://feed.test/ok.ics", Name: "OK", Color: "#1",
	})
	require.NoError(t, err)
	_, err = repo.CreateSubscription(context.Background(), &entity.CalendarSubscription{
		UserID: userID, URL: "http://feed.test/broken.ics", Name: "Broken", Color: "#2",
	})
	require.NoError(t, err)

	svc := NewFeedService(repo)
	svc.fetch = func(ctx context.Context, url string) ([]byte, error) {
		if strings.Contains(url, "broken") {
			return nil, fmt.Errorf("feed responded with status 500")
		}
		return []byte(healthyFeed), nil
	}

	start, end := feedWindow()
	events, appErr := svc.AggregateEvents(context.Background(), userID, start, end)

	// The failing feed is omitted, never surfaced as an error.
	require.Nil(t, appErr)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, healthy.ID, ev.SubscriptionID)
	}
}

func TestAggregateEventsRecurringExpansion(t *testing.T) {
	recurringFeed := toCRLF(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:uid-weekly@example.com
DTSTART:20260302T090000Z
DTEND:20260302T093000Z
RRULE:FREQ=WEEKLY;COUNT=10
SUMMARY:Standup
END:VEVENT
END:VCALENDAR
`)
	repo := newFakeFeedRepo()
	userID := uuid.New()
	_, err := repo.CreateSubscription(context.Background(), &entity.CalendarSubscription{
		UserID: userID, URL: "http://feed.test/rec.ics", Name: "Rec", Color: "#3",
	})
	require.NoError(t, err)

	svc := NewFeedService(repo)
	svc.fetch = func(ctx context.Context, url string) ([]byte, error) {
		return []byte(recurringFeed), nil
	}

	// Window covers four Mondays (Mar 2, 9, 16, 23).
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 28, 0, 0, 0, 0, time.UTC)
	events, appErr := svc.AggregateEvents(context.Background(), userID, start, end)
	require.Nil(t, appErr)
	require.Len(t, events, 4)

	// Instances share the series identifier and keep the original duration.
	for _, ev := range events {
		assert.Contains(t, ev.EphemeralID, "uid-weekly@example.com")
		assert.Equal(t, 30*time.Minute, ev.End.Sub(ev.Start))
	}
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), events[0].Start.UTC())
}

func TestParseFeedAllDayHeuristic(t *testing.T) {
	entries, err := parseFeed([]byte(healthyFeed))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byUID := map[string]feedEntry{}
	for _, e := range entries {
		byUID[e.UID] = e
	}
	assert.False(t, byUID["uid-timed@example.com"].AllDay)
	assert.True(t, byUID["uid-allday@example.com"].AllDay)
}

func TestParseFeedMalformedDocument(t *testing.T) {
	_, err := parseFeed([]byte("this is not a calendar"))
	assert.Error(t, err)
}
