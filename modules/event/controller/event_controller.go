package controller

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"calsync/core/controller"
	"calsync/core/errors"
	"calsync/core/logger"
	"calsync/core/middleware"
	"calsync/modules/event/dto"
	"calsync/modules/event/service"
	feedservice "calsync/modules/feed/service"
	overlayservice "calsync/modules/overlay/service"
)

type EventController struct {
	controller.BaseController
	EventService   service.EventServiceInterface
	FeedService    feedservice.FeedServiceInterface
	OverlayService overlayservice.OverlayServiceInterface
}

func NewEventController(events service.EventServiceInterface, feeds feedservice.FeedServiceInterface, overlay overlayservice.OverlayServiceInterface) *EventController {
	return &EventController{
		BaseController: controller.NewBaseController(),
		EventService:   events,
		FeedService:    feeds,
		OverlayService: overlay,
	}
}

// List is the merged read: local events plus the ephemeral feed events that
// survive the overlay's hide-set. A failing feed subscription never fails
// the read.
func (ctrl *EventController) List(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}
	ctx := c.Request().Context()

	windowStart, windowEnd, err := parseWindow(c)
	if err != nil {
		return ctrl.BadRequest(errors.ErrInvalidInput, "invalid start or end parameter")
	}

	local, appErr := ctrl.EventService.ListEvents(ctx, userID)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}

	feedEvents, appErr := ctrl.FeedService.AggregateEvents(ctx, userID, windowStart, windowEnd)
	if appErr != nil {
		// The local portion of the read still stands.
		logger.Warn("EventController:List:FeedAggregate:Failed", "error", appErr, "user_id", userID)
		feedEvents = nil
	}

	hidden, appErr := ctrl.OverlayService.HiddenSet(ctx, userID)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}

	merged := local
	for _, fe := range feedEvents {
		if hidden[fe.EphemeralID] {
			continue
		}
		merged = append(merged, toEphemeralResponse(fe))
	}

	return ctrl.SuccessResponse(c, dto.EventListResponse{Events: merged}, "events")
}

func (ctrl *EventController) Get(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ctrl.BadRequest(errors.ErrInvalidInput, "invalid event id")
	}

	event, appErr := ctrl.EventService.GetEvent(c.Request().Context(), userID, eventID)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}
	return ctrl.SuccessResponse(c, event, "event")
}

func (ctrl *EventController) Create(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}

	var req dto.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	event, appErr := ctrl.EventService.CreateEvent(c.Request().Context(), userID, &req)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}
	return ctrl.SuccessResponse(c, event, "event created")
}

func (ctrl *EventController) Update(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ctrl.BadRequest(errors.ErrInvalidInput, "invalid event id")
	}

	var req dto.UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	event, appErr := ctrl.EventService.UpdateEvent(c.Request().Context(), userID, eventID, &req)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}
	return ctrl.SuccessResponse(c, event, "event updated")
}

func (ctrl *EventController) Delete(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ctrl.BadRequest(errors.ErrInvalidInput, "invalid event id")
	}

	if appErr := ctrl.EventService.DeleteEvent(c.Request().Context(), userID, eventID); appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}
	return ctrl.SuccessResponse(c, map[string]any{"id": eventID.String()}, "event deleted")
}

// parseWindow reads the optional start/end query bounds for feed expansion.
func parseWindow(c echo.Context) (time.Time, time.Time, error) {
	now := time.Now()
	windowStart := now.AddDate(0, -1, 0)
	windowEnd := now.AddDate(1, 0, 0)

	if raw := c.QueryParam("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		windowStart = t
	}
	if raw := c.QueryParam("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		windowEnd = t
	}
	return windowStart, windowEnd, nil
}

func toEphemeralResponse(fe feedservice.FeedEvent) dto.EventResponse {
	end := fe.End
	resp := dto.EventResponse{
		ID:       fe.EphemeralID,
		Title:    fe.Title,
		Start:    fe.Start,
		End:      &end,
		AllDay:   fe.AllDay,
		Color:    fe.Color,
		Editable: false,
	}
	if fe.Description != "" {
		description := fe.Description
		resp.Description = &description
	}
	return resp
}
