package router

import (
	"github.com/labstack/echo/v4"

	"calsync/core/middleware"
	"calsync/modules/overlay/controller"
)

type OverlayRouter struct {
	Controller *controller.OverlayController
}

func NewOverlayRouter(ctrl *controller.OverlayController) *OverlayRouter {
	return &OverlayRouter{Controller: ctrl}
}

func (r *OverlayRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	priv := e.Group("/api/v1/private", mw.AuthMiddleware())

	overlay := priv.Group("/overlay")
	overlay.GET("", r.Controller.List)
	overlay.POST("/hide", r.Controller.Hide)
	overlay.POST("/fork", r.Controller.Fork)
}
