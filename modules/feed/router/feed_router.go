package router

import (
	"github.com/labstack/echo/v4"

	"calsync/core/middleware"
	"calsync/modules/feed/controller"
)

type FeedRouter struct {
	Controller *controller.FeedController
}

func NewFeedRouter(ctrl *controller.FeedController) *FeedRouter {
	return &FeedRouter{Controller: ctrl}
}

func (r *FeedRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	priv := e.Group("/api/v1/private", mw.AuthMiddleware())

	cal := priv.Group("/calendars")
	cal.GET("", r.Controller.List)
	cal.POST("", r.Controller.Create)
	cal.PUT("/:id", r.Controller.Update)
	cal.DELETE("/:id", r.Controller.Delete)
}
