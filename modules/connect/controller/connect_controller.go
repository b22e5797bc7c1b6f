package controller

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"calsync/core/config"
	"calsync/core/controller"
	"calsync/core/errors"
	"calsync/core/logger"
	"calsync/core/middleware"
	"calsync/modules/connect/dto"
	"calsync/modules/connect/service"
)

type ConnectController struct {
	controller.BaseController
	ConnectService service.ConnectServiceInterface
}

func NewConnectController(svc service.ConnectServiceInterface) *ConnectController {
	return &ConnectController{
		BaseController: controller.NewBaseController(),
		ConnectService: svc,
	}
}

// StartAuth returns the provider consent URL for the authenticated user.
func (ctrl *ConnectController) StartAuth(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}

	providerName := c.Param("provider")
	authURL, appErr := ctrl.ConnectService.GetAuthURL(c.Request().Context(), userID, providerName)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}

	return ctrl.SuccessResponse(c, dto.AuthURLResponse{AuthURL: authURL}, "authorization URL created")
}

// Callback is the provider redirect target. It always answers with a browser
// redirect back to the client; errors land on the client as a query flag
// rather than a JSON body since the user agent here is a browser mid-flow.
func (ctrl *ConnectController) Callback(c echo.Context) error {
	providerName := c.Param("provider")

	if errParam := c.QueryParam("error"); errParam != "" {
		logger.Warn("ConnectController:Callback:ProviderError", "provider", providerName, "error", errParam)
		return c.Redirect(http.StatusFound, ctrl.clientErrorURL(providerName, errParam))
	}

	redirectURL, appErr := ctrl.ConnectService.HandleCallback(
		c.Request().Context(),
		providerName,
		c.QueryParam("code"),
		c.QueryParam("state"),
	)
	if appErr != nil {
		logger.Warn("ConnectController:Callback:Failed", "provider", providerName, "code", appErr.Code)
		return c.Redirect(http.StatusFound, ctrl.clientErrorURL(providerName, string(appErr.Code)))
	}

	return c.Redirect(http.StatusFound, redirectURL)
}

func (ctrl *ConnectController) clientErrorURL(providerName, reason string) string {
	base := "/"
	if cfg, ok := config.GetSafe(); ok {
		base = cfg.Client.BaseURL
	}
	return base + "?connect_error=" + providerName + ":" + reason
}

func (ctrl *ConnectController) ListCalendars(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}

	calendars, appErr := ctrl.ConnectService.ListConnectedCalendars(c.Request().Context(), userID)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}

	return ctrl.SuccessResponse(c, dto.ConnectedCalendarListResponse{Calendars: calendars}, "connected calendars")
}

// RefreshCalendars reruns provider calendar discovery on demand.
func (ctrl *ConnectController) RefreshCalendars(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}

	providerName := c.Param("provider")
	count, appErr := ctrl.ConnectService.RefreshCalendars(c.Request().Context(), userID, providerName)
	if appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}

	return ctrl.SuccessResponse(c, map[string]any{"provider": providerName, "calendarCount": count}, "calendars refreshed")
}

func (ctrl *ConnectController) SetCalendarEnabled(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return ctrl.Unauthorized(errors.ErrUnauthorized, "authentication required")
	}

	calendarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return ctrl.BadRequest(errors.ErrInvalidInput, "invalid calendar id")
	}

	var req dto.SetCalendarEnabledRequest
	if err := c.Bind(&req); err != nil {
		return ctrl.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	if appErr := ctrl.ConnectService.SetCalendarEnabled(c.Request().Context(), userID, calendarID, req.IsEnabled); appErr != nil {
		return ctrl.ErrorResponse(c, appErr)
	}

	return ctrl.SuccessResponse(c, map[string]any{"id": calendarID.String(), "isEnabled": req.IsEnabled}, "calendar updated")
}
