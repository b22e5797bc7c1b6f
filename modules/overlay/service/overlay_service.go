package service

import (
	"context"

	"github.com/google/uuid"

	"calsync/core/errors"
	"calsync/core/logger"
	eventservice "calsync/modules/event/service"
	"calsync/modules/overlay/dto"
	"calsync/modules/overlay/repository"
)

// OverlayServiceInterface is the exception surface over ephemeral feed
// events: hide, fork-on-write, and the hidden-set lookup the merged read
// uses.
type OverlayServiceInterface interface {
	Hide(ctx context.Context, userID uuid.UUID, ephemeralID string) *errors.AppError
	Fork(ctx context.Context, userID uuid.UUID, req *dto.ForkRequest) (*dto.ForkResponse, *errors.AppError)
	List(ctx context.Context, userID uuid.UUID) ([]dto.OverlayEntryResponse, *errors.AppError)
	HiddenSet(ctx context.Context, userID uuid.UUID) (map[string]bool, *errors.AppError)
}

type OverlayService struct {
	repo   repository.OverlayRepositoryInterface
	events eventservice.EventServiceInterface
}

func NewOverlayService(repo repository.OverlayRepositoryInterface, events eventservice.EventServiceInterface) *OverlayService {
	return &OverlayService{repo: repo, events: events}
}

// Hide adds the ephemeral id to the user's hide-set. The feed source is
// never contacted; the entry simply stops appearing in merged reads.
func (service *OverlayService) Hide(ctx context.Context, userID uuid.UUID, ephemeralID string) *errors.AppError {
	if ephemeralID == "" {
		return errors.NewAppError(errors.ErrInvalidInput, "ephemeralId is required", nil)
	}
	if err := service.repo.UpsertHide(ctx, userID, ephemeralID); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to hide event", err)
	}
	logger.Info("OverlayService:Hide:Hidden", "user_id", userID, "ephemeral_id", ephemeralID)
	return nil
}

// Fork creates an editable local copy of a read-only feed event, records the
// override, and hides the original. The feed entry is permanently superseded
// for this user.
func (service *OverlayService) Fork(ctx context.Context, userID uuid.UUID, req *dto.ForkRequest) (*dto.ForkResponse, *errors.AppError) {
	if req.EphemeralID == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "ephemeralId is required", nil)
	}

	created, appErr := service.events.CreateEvent(ctx, userID, &req.Event)
	if appErr != nil {
		return nil, appErr
	}

	eventID, err := uuid.Parse(created.ID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "created event has an invalid id", err)
	}

	if err := service.repo.UpsertOverride(ctx, userID, req.EphemeralID, eventID); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to record override", err)
	}

	logger.Info("OverlayService:Fork:Forked", "user_id", userID, "ephemeral_id", req.EphemeralID, "event_id", eventID)

	return &dto.ForkResponse{EphemeralID: req.EphemeralID, Event: created}, nil
}

func (service *OverlayService) List(ctx context.Context, userID uuid.UUID) ([]dto.OverlayEntryResponse, *errors.AppError) {
	entries, err := service.repo.ListEntriesByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list overlay entries", err)
	}

	result := make([]dto.OverlayEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp := dto.OverlayEntryResponse{
			EphemeralID: entry.EphemeralID,
			Hidden:      entry.Hidden,
		}
		if entry.OverrideEventID != nil {
			id := entry.OverrideEventID.String()
			resp.OverrideEventID = &id
		}
		result = append(result, resp)
	}
	return result, nil
}

// HiddenSet returns the user's hidden ephemeral ids for merge-time filtering.
func (service *OverlayService) HiddenSet(ctx context.Context, userID uuid.UUID) (map[string]bool, *errors.AppError) {
	entries, err := service.repo.ListEntriesByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load overlay entries", err)
	}
	hidden := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.Hidden {
			hidden[entry.EphemeralID] = true
		}
	}
	return hidden, nil
}
