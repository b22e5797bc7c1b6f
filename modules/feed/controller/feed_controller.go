package controller

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"calsync/core/controller"
	"calsync/core/errors"
	"calsync/core/middleware"
	"calsync/modules/feed/dto"
	"calsync/modules/feed/service"
)

type FeedController struct {
	controller.BaseController
	FeedService service.FeedServiceInterface
}

func NewFeedController(svc service.FeedServiceInterface) *FeedController {
	return &FeedController{
		BaseController: controller.NewBaseController(),
		FeedService:    svc,
	}
}

func (ctrl *FeedController) Create(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}

	var req dto.CreateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	sub, appErr := ctrl.FeedService.CreateSubscription(c.Request().Context(), userID, &req)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}
	return ctrl.SuccessResponse(c, sub, "subscription created")
}

func (ctrl *FeedController) List(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}

	subs, appErr := ctrl.FeedService.ListSubscriptions(c.Request().Context(), userID)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}
	return ctrl.SuccessResponse(c, dto.SubscriptionListResponse{Calendars: subs}, "subscriptions")
}

func (ctrl *FeedController) Update(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ctrl.BadRequest(errors.ErrInvalidInput, "invalid subscription id")
	}

	var req dto.UpdateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	sub, appErr := ctrl.FeedService.UpdateSubscription(c.Request().Context(), userID, id, &req)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}
	return ctrl.SuccessResponse(c, sub, "subscription updated")
}

func (ctrl *FeedController) Delete(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ctrl.BadRequest(errors.ErrInvalidInput, "invalid subscription id")
	}

	if appErr := ctrl.FeedService.DeleteSubscription(c.Request().Context(), userID, id); appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}
	return ctrl.SuccessResponse(c, map[string]any{"id": id.String()}, "subscription deleted")
}
