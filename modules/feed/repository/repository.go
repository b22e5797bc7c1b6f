package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"calsync/core/database"
	"calsync/core/logger"
	"calsync/modules/feed/entity"
)

type FeedRepository struct {
	DB database.IDatabase
}

func NewFeedRepository(db database.IDatabase) *FeedRepository {
	return &FeedRepository{DB: db}
}

type FeedRepositoryInterface interface {
	CreateSubscription(ctx context.Context, sub *entity.CalendarSubscription) (*entity.CalendarSubscription, error)
	GetSubscriptionByIDForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entity.CalendarSubscription, error)
	ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]entity.CalendarSubscription, error)
	UpdateSubscription(ctx context.Context, sub *entity.CalendarSubscription) error
	DeleteSubscription(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

const subscriptionColumns = `id, user_id, url, name, color, created_at, updated_at`

func (r *FeedRepository) CreateSubscription(ctx context.Context, sub *entity.CalendarSubscription) (*entity.CalendarSubscription, error) {
	query := `
		INSERT INTO calendar_subscriptions (id, user_id, url, name, color, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + subscriptionColumns
	var saved entity.CalendarSubscription
	err := r.DB.GetContext(ctx, &saved, query, sub.UserID, sub.URL, sub.Name, sub.Color)
	if err != nil {
		logger.Error("FeedRepository:CreateSubscription:Error", "error", err, "user_id", sub.UserID)
		return nil, err
	}
	return &saved, nil
}

func (r *FeedRepository) GetSubscriptionByIDForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entity.CalendarSubscription, error) {
	var sub entity.CalendarSubscription
	query := `SELECT ` + subscriptionColumns + ` FROM calendar_subscriptions WHERE id = $1 AND user_id = $2`
	err := r.DB.GetContext(ctx, &sub, query, id, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("FeedRepository:GetSubscriptionByIDForUser:Error", "error", err, "id", id)
		return nil, err
	}
	return &sub, nil
}

func (r *FeedRepository) ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]entity.CalendarSubscription, error) {
	subs := []entity.CalendarSubscription{}
	query := `SELECT ` + subscriptionColumns + ` FROM calendar_subscriptions WHERE user_id = $1 ORDER BY created_at`
	err := r.DB.SelectContext(ctx, &subs, query, userID)
	if err != nil {
		logger.Error("FeedRepository:ListSubscriptionsByUser:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return subs, nil
}

func (r *FeedRepository) UpdateSubscription(ctx context.Context, sub *entity.CalendarSubscription) error {
	query := `
		UPDATE calendar_subscriptions
		SET url = $3, name = $4, color = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	err := r.DB.ExecContext(ctx, query, sub.ID, sub.UserID, sub.URL, sub.Name, sub.Color)
	if err != nil {
		logger.Error("FeedRepository:UpdateSubscription:Error", "error", err, "id", sub.ID)
		return err
	}
	return nil
}

func (r *FeedRepository) DeleteSubscription(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	query := `DELETE FROM calendar_subscriptions WHERE id = $1 AND user_id = $2`
	if err := r.DB.ExecContext(ctx, query, id, userID); err != nil {
		logger.Error("FeedRepository:DeleteSubscription:Error", "error", err, "id", id)
		return err
	}
	return nil
}
