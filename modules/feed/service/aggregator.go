package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"calsync/core/constants"
	"calsync/core/errors"
	"calsync/core/logger"
	"calsync/modules/feed/entity"
)

// feedBodyLimit caps how much of a feed document is read.
const feedBodyLimit = 10 << 20

// AggregateEvents fetches and parses every subscription of the user inside
// the window, each in its own goroutine. One subscription's failure is logged
// and its events omitted; it never fails the aggregate read.
func (service *FeedService) AggregateEvents(ctx context.Context, userID uuid.UUID, windowStart, windowEnd time.Time) ([]FeedEvent, *errors.AppError) {
	subs, err := service.repo.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list subscriptions", err)
	}
	if len(subs) == 0 {
		return []FeedEvent{}, nil
	}

	var (
		mu     sync.Mutex
		merged []FeedEvent
		wg     sync.WaitGroup
	)

	for i := range subs {
		sub := subs[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			events, err := service.collectOne(ctx, &sub, windowStart, windowEnd)
			if err != nil {
				logger.Warn("FeedService:AggregateEvents:PartialFeedFailure",
					"error", err, "subscription_id", sub.ID, "name", sub.Name)
				return
			}
			mu.Lock()
			merged = append(merged, events...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(merged, func(i, j int) bool { return merged[i].Start.Before(merged[j].Start) })
	return merged, nil
}

// collectOne fetches, parses and expands a single subscription's feed.
func (service *FeedService) collectOne(ctx context.Context, sub *entity.CalendarSubscription, windowStart, windowEnd time.Time) ([]FeedEvent, error) {
	body, err := service.fetch(ctx, sub.URL)
	if err != nil {
		return nil, err
	}

	entries, err := parseFeed(body)
	if err != nil {
		return nil, err
	}

	events := make([]FeedEvent, 0, len(entries))
	for _, entry := range entries {
		for _, occ := range expandEntry(entry, windowStart, windowEnd) {
			events = append(events, FeedEvent{
				EphemeralID:    fmt.Sprintf("ext-%s-%s", sub.ID, entry.UID),
				SubscriptionID: sub.ID,
				Title:          "[Ext] " + entry.Summary,
				Description:    entry.Description,
				Start:          occ.Start,
				End:            occ.End,
				AllDay:         entry.AllDay,
				Color:          sub.Color,
			})
		}
	}
	return events, nil
}

// fetchFeed is the default fetch implementation: bounded GET of the feed URL.
func fetchFeed(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.FeedHTTPTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed responded with status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, feedBodyLimit))
}
