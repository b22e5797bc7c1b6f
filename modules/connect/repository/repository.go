package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"calsync/core/database"
	"calsync/modules/connect/entity"
)

// ConnectRepository handles all provider-connection database operations.
type ConnectRepository struct {
	DB database.IDatabase
}

func NewConnectRepository(db database.IDatabase) *ConnectRepository {
	return &ConnectRepository{DB: db}
}

// ConnectRepositoryInterface defines the contract for provider-connection
// storage.
type ConnectRepositoryInterface interface {
	// OAuth state operations
	SaveOAuthState(ctx context.Context, state string, userID uuid.UUID, provider string, expiresAt time.Time) error
	ConsumeOAuthState(ctx context.Context, state string, provider string) (*entity.OAuthState, error)
	CleanupExpiredOAuthStates(ctx context.Context) (int64, error)

	// Connected account operations
	UpsertAccount(ctx context.Context, account *entity.ConnectedAccount) (*entity.ConnectedAccount, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*entity.ConnectedAccount, error)
	GetAccountByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.ConnectedAccount, error)
	UpdateAccountTokens(ctx context.Context, account *entity.ConnectedAccount) error

	// Connected calendar operations
	UpsertCalendar(ctx context.Context, calendar *entity.ConnectedCalendar) error
	GetCalendarByIDForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entity.ConnectedCalendar, error)
	ListCalendarsByUser(ctx context.Context, userID uuid.UUID) ([]entity.ConnectedCalendar, error)
	SetCalendarEnabled(ctx context.Context, id uuid.UUID, userID uuid.UUID, enabled bool) error
}
