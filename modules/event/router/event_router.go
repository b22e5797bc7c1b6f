package router

import (
	"github.com/labstack/echo/v4"

	"calsync/core/middleware"
	"calsync/modules/event/controller"
)

type EventRouter struct {
	Controller *controller.EventController
}

func NewEventRouter(ctrl *controller.EventController) *EventRouter {
	return &EventRouter{Controller: ctrl}
}

func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	priv := e.Group("/api/v1/private", mw.AuthMiddleware())

	events := priv.Group("/events")
	events.GET("", r.Controller.List)
	events.POST("", r.Controller.Create)
	events.GET("/:id", r.Controller.Get)
	events.PUT("/:id", r.Controller.Update)
	events.DELETE("/:id", r.Controller.Delete)
}
