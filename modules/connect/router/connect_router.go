package router

import (
	"github.com/labstack/echo/v4"

	"calsync/core/middleware"
	"calsync/modules/connect/controller"
)

type ConnectRouter struct {
	Controller *controller.ConnectController
}

func NewConnectRouter(ctrl *controller.ConnectController) *ConnectRouter {
	return &ConnectRouter{Controller: ctrl}
}

func (r *ConnectRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// The provider redirects the browser here; no session exists yet, the
	// state token carries the user binding.
	pub := v1.Group("/public")
	pub.GET("/oauth/:provider/callback", r.Controller.Callback)

	priv := v1.Group("/private", mw.AuthMiddleware())
	priv.GET("/oauth/:provider/start", r.Controller.StartAuth)
	priv.GET("/connected-calendars", r.Controller.ListCalendars)
	priv.POST("/connected-calendars/:provider/refresh", r.Controller.RefreshCalendars)
	priv.PATCH("/connected-calendars/:id", r.Controller.SetCalendarEnabled)
}
