package controller

import (
	"github.com/labstack/echo/v4"

	"calsync/core/controller"
	"calsync/core/errors"
	"calsync/core/middleware"
	"calsync/modules/overlay/dto"
	"calsync/modules/overlay/service"
)

type OverlayController struct {
	controller.BaseController
	OverlayService service.OverlayServiceInterface
}

func NewOverlayController(svc service.OverlayServiceInterface) *OverlayController {
	return &OverlayController{
		BaseController: controller.NewBaseController(),
		OverlayService: svc,
	}
}

func (ctrl *OverlayController) Hide(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}

	var req dto.HideRequest
	if err := c.Bind(&req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	if appErr := ctrl.OverlayService.Hide(c.Request().Context(), userID, req.EphemeralID); appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}
	return ctrl.SuccessResponse(c, map[string]any{"ephemeralId": req.EphemeralID}, "event hidden")
}

func (ctrl *OverlayController) Fork(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}

	var req dto.ForkRequest
	if err := c.Bind(&req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	resp, appErr := ctrl.OverlayService.Fork(c.Request().Context(), userID, &req)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}
	return ctrl.SuccessResponse(c, resp, "event forked")
}

func (ctrl *OverlayController) List(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}

	entries, appErr := ctrl.OverlayService.List(c.Request().Context(), userID)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}
	return ctrl.SuccessResponse(c, dto.OverlayListResponse{Entries: entries}, "overlay entries")
}
