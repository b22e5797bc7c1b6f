package service

import (
	"context"

	"github.com/google/uuid"

	"calsync/core/constants"
	"calsync/core/errors"
	"calsync/core/logger"
	"calsync/modules/connect/provider"
	connectservice "calsync/modules/connect/service"
	"calsync/modules/event/dto"
	"calsync/modules/event/entity"
	"calsync/modules/event/repository"
)

// EventServiceInterface is the event surface used by the HTTP layer and the
// overlay resolver (fork-on-write creates events through it).
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, userID uuid.UUID, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError)
	UpdateEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError)
	DeleteEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID) *errors.AppError
	GetEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError)
	ListEvents(ctx context.Context, userID uuid.UUID) ([]dto.EventResponse, *errors.AppError)
}

type EventService struct {
	repo    repository.EventRepositoryInterface
	connect connectservice.ConnectServiceInterface
}

func NewEventService(repo repository.EventRepositoryInterface, connect connectservice.ConnectServiceInterface) *EventService {
	return &EventService{repo: repo, connect: connect}
}

// CreateEvent inserts a local event, first mirroring it to the target
// connected calendar when one is supplied. The remote create runs before any
// local write; a remote failure leaves no local trace.
func (service *EventService) CreateEvent(ctx context.Context, userID uuid.UUID, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError) {
	if req.Title == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "title is required", nil)
	}
	if req.Start.IsZero() {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "start is required", nil)
	}

	event := &entity.Event{
		UserID:      userID,
		Title:       req.Title,
		StartAt:     req.Start,
		EndAt:       req.End,
		AllDay:      req.AllDay,
		Description: req.Description,
		Color:       constants.DefaultEventColor,
	}
	if req.Color != nil && *req.Color != "" {
		event.Color = *req.Color
	}

	if req.ConnectedCalendarID == nil || *req.ConnectedCalendarID == "" {
		saved, err := service.repo.CreateEvent(ctx, event)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create event", err)
		}
		return service.toResponse(saved, nil), nil
	}

	calendarID, err := uuid.Parse(*req.ConnectedCalendarID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid connected calendar id", nil)
	}

	return service.createMirrored(ctx, userID, event, calendarID)
}

func (service *EventService) createMirrored(ctx context.Context, userID uuid.UUID, event *entity.Event, calendarID uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	calendar, appErr := service.connect.GetWritableCalendar(ctx, userID, calendarID)
	if appErr != nil {
		return nil, appErr
	}

	account, appErr := service.connect.GetAccount(ctx, calendar.AccountID)
	if appErr != nil {
		return nil, appErr
	}

	accessToken, appErr := service.connect.EnsureAccessToken(ctx, account)
	if appErr != nil {
		return nil, appErr
	}

	adapter, appErr := service.connect.AdapterFor(calendar.Provider)
	if appErr != nil {
		return nil, appErr
	}

	remoteEventID, err := adapter.CreateEvent(ctx, accessToken, calendar.ProviderCalendarID, service.toPayload(event))
	if err != nil {
		logger.Error("EventService:CreateMirrored:RemoteCreate:Error",
			"error", err, "user_id", userID, "provider", calendar.Provider, "calendar_id", calendarID)
		return nil, asAppError(err)
	}

	link := &entity.EventExternalLink{
		ConnectedCalendarID: calendar.ID,
		AccountID:           account.ID,
		Provider:            calendar.Provider,
		ProviderCalendarID:  calendar.ProviderCalendarID,
		RemoteEventID:       remoteEventID,
	}

	saved, err := service.repo.CreateEventWithLink(ctx, event, link)
	if err != nil {
		// The remote copy exists but the local insert failed. Record the
		// orphan for the reconciliation sweep; this must never be silent.
		service.recordPendingWrite(ctx, userID, entity.PendingWriteCreate, link, err)
		return nil, errors.NewAppError(errors.ErrInternalServer,
			"event was created at the provider but could not be saved locally", err)
	}
	link.EventID = saved.ID

	logger.Info("EventService:CreateMirrored:Created",
		"event_id", saved.ID, "provider", calendar.Provider, "remote_event_id", remoteEventID)

	return service.toResponse(saved, link), nil
}

// UpdateEvent applies a partial update. A linked event is pushed to the
// provider as the full merged record first; partial semantics are local-only.
func (service *EventService) UpdateEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError) {
	existing, err := service.repo.GetEventByIDForUser(ctx, eventID, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load event", err)
	}
	if existing == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "event not found", nil)
	}

	link, err := service.repo.GetLinkByEventID(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load event link", err)
	}

	merged := mergeEvent(existing, req)

	if link != nil {
		if appErr := service.pushRemoteUpdate(ctx, userID, merged, link); appErr != nil {
			return nil, appErr
		}
	}

	if err := service.repo.UpdateEventFields(ctx, eventID, userID, req); err != nil {
		if link != nil {
			service.recordPendingWrite(ctx, userID, entity.PendingWriteUpdate, link, err)
			return nil, errors.NewAppError(errors.ErrInternalServer,
				"event was updated at the provider but could not be saved locally", err)
		}
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to update event", err)
	}

	return service.toResponse(merged, link), nil
}

func (service *EventService) pushRemoteUpdate(ctx context.Context, userID uuid.UUID, merged *entity.Event, link *entity.EventExternalLink) *errors.AppError {
	account, appErr := service.connect.GetAccount(ctx, link.AccountID)
	if appErr != nil {
		return appErr
	}
	accessToken, appErr := service.connect.EnsureAccessToken(ctx, account)
	if appErr != nil {
		return appErr
	}
	adapter, appErr := service.connect.AdapterFor(link.Provider)
	if appErr != nil {
		return appErr
	}

	err := adapter.UpdateEvent(ctx, accessToken, link.ProviderCalendarID, link.RemoteEventID, service.toPayload(merged))
	if err != nil {
		logger.Error("EventService:PushRemoteUpdate:Error",
			"error", err, "user_id", userID, "provider", link.Provider, "remote_event_id", link.RemoteEventID)
		return asAppError(err)
	}
	return nil
}

// DeleteEvent removes an event. A linked event is deleted at the provider
// first; only on remote success are the local row and link removed.
func (service *EventService) DeleteEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID) *errors.AppError {
	existing, err := service.repo.GetEventByIDForUser(ctx, eventID, userID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load event", err)
	}
	if existing == nil {
		return errors.NewAppError(errors.ErrNotFound, "event not found", nil)
	}

	link, err := service.repo.GetLinkByEventID(ctx, eventID)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load event link", err)
	}

	if link != nil {
		account, appErr := service.connect.GetAccount(ctx, link.AccountID)
		if appErr != nil {
			return appErr
		}
		accessToken, appErr := service.connect.EnsureAccessToken(ctx, account)
		if appErr != nil {
			return appErr
		}
		adapter, appErr := service.connect.AdapterFor(link.Provider)
		if appErr != nil {
			return appErr
		}
		if err := adapter.DeleteEvent(ctx, accessToken, link.ProviderCalendarID, link.RemoteEventID); err != nil {
			logger.Error("EventService:DeleteEvent:RemoteDelete:Error",
				"error", err, "user_id", userID, "provider", link.Provider, "remote_event_id", link.RemoteEventID)
			return asAppError(err)
		}
	}

	if err := service.repo.DeleteEventWithLink(ctx, eventID, userID); err != nil {
		if link != nil {
			service.recordPendingWrite(ctx, userID, entity.PendingWriteDelete, link, err)
			return errors.NewAppError(errors.ErrInternalServer,
				"event was deleted at the provider but could not be removed locally", err)
		}
		return errors.NewAppError(errors.ErrInternalServer, "failed to delete event", err)
	}
	return nil
}

func (service *EventService) GetEvent(ctx context.Context, userID uuid.UUID, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	event, err := service.repo.GetEventByIDForUser(ctx, eventID, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "event not found", nil)
	}
	link, err := service.repo.GetLinkByEventID(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load event link", err)
	}
	return service.toResponse(event, link), nil
}

func (service *EventService) ListEvents(ctx context.Context, userID uuid.UUID) ([]dto.EventResponse, *errors.AppError) {
	events, err := service.repo.ListEventsByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to list events", err)
	}

	ids := make([]uuid.UUID, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}
	links, err := service.repo.ListLinksByEventIDs(ctx, ids)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to load event links", err)
	}
	linkByEvent := make(map[uuid.UUID]*entity.EventExternalLink, len(links))
	for i := range links {
		linkByEvent[links[i].EventID] = &links[i]
	}

	result := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		result = append(result, *service.toResponse(&events[i], linkByEvent[events[i].ID]))
	}
	return result, nil
}

func (service *EventService) recordPendingWrite(ctx context.Context, userID uuid.UUID, operation string, link *entity.EventExternalLink, cause error) {
	pending := &entity.PendingWrite{
		UserID:             userID,
		Operation:          operation,
		Provider:           link.Provider,
		ProviderCalendarID: link.ProviderCalendarID,
		RemoteEventID:      link.RemoteEventID,
		Detail:             cause.Error(),
	}
	if err := service.repo.SavePendingWrite(ctx, pending); err != nil {
		// Both writes failed; the log line is the last trace of the orphan.
		logger.Error("EventService:RecordPendingWrite:Error",
			"error", err, "user_id", userID, "operation", operation,
			"provider", link.Provider, "remote_event_id", link.RemoteEventID)
	}
}

func (service *EventService) toPayload(event *entity.Event) provider.EventPayload {
	description := ""
	if event.Description != nil {
		description = *event.Description
	}
	return provider.EventPayload{
		Title:       event.Title,
		Description: description,
		Start:       event.StartAt,
		End:         event.EndAt,
		AllDay:      event.AllDay,
	}
}

func (service *EventService) toResponse(event *entity.Event, link *entity.EventExternalLink) *dto.EventResponse {
	resp := &dto.EventResponse{
		ID:          event.ID.String(),
		Title:       event.Title,
		Start:       event.StartAt,
		End:         event.EndAt,
		AllDay:      event.AllDay,
		Description: event.Description,
		Color:       event.Color,
		Completed:   event.Completed,
		Editable:    true,
	}
	if link != nil {
		calendarID := link.ConnectedCalendarID.String()
		providerName := link.Provider
		resp.IsProviderLinked = true
		resp.ConnectedCalendarID = &calendarID
		resp.Provider = &providerName
	}
	return resp
}

// mergeEvent overlays the request's non-nil fields on a copy of the stored
// record; the full merged event is what gets pushed remotely.
func mergeEvent(existing *entity.Event, req *dto.UpdateEventRequest) *entity.Event {
	merged := *existing
	if req.Title != nil {
		merged.Title = *req.Title
	}
	if req.Start != nil {
		merged.StartAt = *req.Start
	}
	if req.End != nil {
		merged.EndAt = req.End
	}
	if req.AllDay != nil {
		merged.AllDay = *req.AllDay
	}
	if req.Description != nil {
		merged.Description = req.Description
	}
	if req.Color != nil {
		merged.Color = *req.Color
	}
	if req.Completed != nil {
		merged.Completed = *req.Completed
	}
	return &merged
}

func asAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.NewAppError(errors.ErrInternalServer, err.Error(), err)
}
