package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"calsync/core/constants"
	"calsync/core/errors"
	"calsync/modules/feed/dto"
	"calsync/modules/feed/entity"
	"calsync/modules/feed/repository"
)

// FeedEvent is one ephemeral event materialized from a subscription feed.
// It is never persisted; the ephemeral id is deterministic across fetches so
// the overlay can reference it.
type FeedEvent struct {
	EphemeralID    string
	SubscriptionID uuid.UUID
	Title          string
	Description    string
	Start          time.Time
	End            time.Time
	AllDay         bool
	Color          string
}

// FeedServiceInterface covers subscription CRUD and the aggregate read.
type FeedServiceInterface interface {
	CreateSubscription(ctx context.Context, userID uuid.UUID, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, *errors.AppError)
	ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]dto.SubscriptionResponse, *errors.AppError)
	UpdateSubscription(ctx context.Context, userID uuid.UUID, id uuid.UUID, req *dto.UpdateSubscriptionRequest) (*dto.SubscriptionResponse, *errors.AppError)
	DeleteSubscription(ctx context.Context, userID uuid.UUID, id uuid.UUID) *errors.AppError

	AggregateEvents(ctx context.Context, userID uuid.UUID, windowStart, windowEnd time.Time) ([]FeedEvent, *errors.AppError)
}

type FeedService struct {
	repo repository.FeedRepositoryInterface

	// fetch is swappable so tests can serve feed documents without a network.
	fetch func(ctx context.Context, url string) ([]byte, error)
}

func NewFeedService(repo repository.FeedRepositoryInterface) *FeedService {
	return &FeedService{
		repo:  repo,
		fetch: fetchFeed,
	}
}

func (service *FeedService) CreateSubscription(ctx context.Context, userID uuid.UUID, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, *errors.AppError) {
	if req.URL == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "url is required", nil)
	}
	sub := &entity.CalendarSubscription{
		UserID: userID,
		URL:    req.URL,
		Name:   req.Name,
		Color:  req.Color,
	}
	if sub.Color == "" {
		sub.Color = constants.DefaultFeedColor
	}
	saved, err := service.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create subscription", err)
	}
	return toSubscriptionResponse(saved), nil
}

func (service *FeedService) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]dto.SubscriptionResponse, *errors.AppError) {
	subs, err := service.repo.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list subscriptions", err)
	}
	result := make([]dto.SubscriptionResponse, 0, len(subs))
	for i := range subs {
		result = append(result, *toSubscriptionResponse(&subs[i]))
	}
	return result, nil
}

func (service *FeedService) UpdateSubscription(ctx context.Context, userID uuid.UUID, id uuid.UUID, req *dto.UpdateSubscriptionRequest) (*dto.SubscriptionResponse, *errors.AppError) {
	sub, err := service.repo.GetSubscriptionByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load subscription", err)
	}
	if sub == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "subscription not found", nil)
	}

	if req.URL != "" {
		sub.URL = req.URL
	}
	if req.Name != "" {
		sub.Name = req.Name
	}
	if req.Color != "" {
		sub.Color = req.Color
	}

	if err := service.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to update subscription", err)
	}
	return toSubscriptionResponse(sub), nil
}

func (service *FeedService) DeleteSubscription(ctx context.Context, userID uuid.UUID, id uuid.UUID) *errors.AppError {
	sub, err := service.repo.GetSubscriptionByIDForUser(ctx, id, userID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load subscription", err)
	}
	if sub == nil {
		return errors.NewAppError(errors.ErrNotFound, "subscription not found", nil)
	}
	if err := service.repo.DeleteSubscription(ctx, id, userID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to delete subscription", err)
	}
	return nil
}

func toSubscriptionResponse(sub *entity.CalendarSubscription) *dto.SubscriptionResponse {
	return &dto.SubscriptionResponse{
		ID:    sub.ID.String(),
		URL:   sub.URL,
		Name:  sub.Name,
		Color: sub.Color,
	}
}
