package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"calsync/core/database"
	"calsync/core/logger"
	"calsync/modules/overlay/entity"
)

type OverlayRepository struct {
	DB database.IDatabase
}

func NewOverlayRepository(db database.IDatabase) *OverlayRepository {
	return &OverlayRepository{DB: db}
}

type OverlayRepositoryInterface interface {
	UpsertHide(ctx context.Context, userID uuid.UUID, ephemeralID string) error
	UpsertOverride(ctx context.Context, userID uuid.UUID, ephemeralID string, overrideEventID uuid.UUID) error
	GetEntry(ctx context.Context, userID uuid.UUID, ephemeralID string) (*entity.OverlayEntry, error)
	ListEntriesByUser(ctx context.Context, userID uuid.UUID) ([]entity.OverlayEntry, error)
}

const overlayColumns = `id, user_id, ephemeral_id, hidden, override_event_id, created_at, updated_at`

// UpsertHide marks an ephemeral event hidden; an existing override entry
// stays an override.
func (r *OverlayRepository) UpsertHide(ctx context.Context, userID uuid.UUID, ephemeralID string) error {
	query := `
		INSERT INTO overlay_entries (id, user_id, ephemeral_id, hidden, override_event_id, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, TRUE, NULL, NOW(), NOW())
		ON CONFLICT (user_id, ephemeral_id)
		DO UPDATE SET hidden = TRUE, updated_at = NOW()
	`
	if err := r.DB.ExecContext(ctx, query, userID, ephemeralID); err != nil {
		logger.Error("OverlayRepository:UpsertHide:Error", "error", err, "user_id", userID, "ephemeral_id", ephemeralID)
		return err
	}
	return nil
}

// UpsertOverride records the forked local event and hides the original in the
// same statement, so an override entry can never be unhidden by construction.
func (r *OverlayRepository) UpsertOverride(ctx context.Context, userID uuid.UUID, ephemeralID string, overrideEventID uuid.UUID) error {
	query := `
		INSERT INTO overlay_entries (id, user_id, ephemeral_id, hidden, override_event_id, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, TRUE, $3, NOW(), NOW())
		ON CONFLICT (user_id, ephemeral_id)
		DO UPDATE SET hidden = TRUE, override_event_id = EXCLUDED.override_event_id, updated_at = NOW()
	`
	if err := r.DB.ExecContext(ctx, query, userID, ephemeralID, overrideEventID); err != nil {
		logger.Error("OverlayRepository:UpsertOverride:Error", "error", err, "user_id", userID, "ephemeral_id", ephemeralID)
		return err
	}
	return nil
}

func (r *OverlayRepository) GetEntry(ctx context.Context, userID uuid.UUID, ephemeralID string) (*entity.OverlayEntry, error) {
	var entry entity.OverlayEntry
	query := `SELECT ` + overlayColumns + ` FROM overlay_entries WHERE user_id = $1 AND ephemeral_id = $2`
	err := r.DB.GetContext(ctx, &entry, query, userID, ephemeralID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("OverlayRepository:GetEntry:Error", "error", err, "user_id", userID, "ephemeral_id", ephemeralID)
		return nil, err
	}
	return &entry, nil
}

func (r *OverlayRepository) ListEntriesByUser(ctx context.Context, userID uuid.UUID) ([]entity.OverlayEntry, error) {
	entries := []entity.OverlayEntry{}
	query := `SELECT ` + overlayColumns + ` FROM overlay_entries WHERE user_id = $1`
	err := r.DB.SelectContext(ctx, &entries, query, userID)
	if err != nil {
		logger.Error("OverlayRepository:ListEntriesByUser:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return entries, nil
}
